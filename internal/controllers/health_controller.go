package controllers

import (
	"net/http"
	"seatcheck/internal/services"
	"time"
)

// HealthController reports liveness with a few cheap gauges. It never
// touches storage so a slow database cannot fail the probe.
type HealthController struct {
	*Responder
	service   services.OccupancyServiceInterface
	driver    string
	startedAt time.Time
	now       func() time.Time
}

type healthView struct {
	Status        string    `json:"status"`
	StartedAt     time.Time `json:"started_at"`
	Uptime        string    `json:"uptime"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	OpenPresences int       `json:"open_presences"`
	Storage       string    `json:"storage"`
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	uptime := hc.now().Sub(hc.startedAt).Truncate(time.Second)
	hc.JSON(w, r, http.StatusOK, healthView{
		Status:        "ok",
		StartedAt:     hc.startedAt,
		Uptime:        uptime.String(),
		UptimeSeconds: uptime.Seconds(),
		OpenPresences: hc.service.OpenPresences(),
		Storage:       hc.driver,
	})
}

func NewHealthController(responder *Responder, service services.OccupancyServiceInterface, driver string) *HealthController {
	now := func() time.Time { return time.Now().UTC() }
	return &HealthController{
		Responder: responder,
		service:   service,
		driver:    driver,
		startedAt: now(),
		now:       now,
	}
}
