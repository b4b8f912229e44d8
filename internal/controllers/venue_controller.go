package controllers

import (
	"net/http"
	"seatcheck/internal/apperrors"
	"seatcheck/internal/services"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type VenueController struct {
	*Responder
	service services.OccupancyServiceInterface
}

func NewVenueController(responder *Responder, service services.OccupancyServiceInterface) *VenueController {
	return &VenueController{Responder: responder, service: service}
}

// minutesParam reads ?minutes=N. Absent means the configured default window.
func minutesParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("minutes")
	if raw == "" {
		return 0, nil
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		return 0, apperrors.InvalidArgument("minutes must be a positive integer")
	}
	return minutes, nil
}

func (vc *VenueController) List(w http.ResponseWriter, r *http.Request) {
	minutes, err := minutesParam(r)
	if err != nil {
		vc.Error(w, r, err)
		return
	}
	venues, err := vc.service.ListVenues(r.Context(), minutes)
	if err != nil {
		vc.Error(w, r, err)
		return
	}
	vc.JSON(w, r, http.StatusOK, venues)
}

func (vc *VenueController) Stats(w http.ResponseWriter, r *http.Request) {
	minutes, err := minutesParam(r)
	if err != nil {
		vc.Error(w, r, err)
		return
	}
	stats, err := vc.service.GetStats(r.Context(), chi.URLParam(r, "id"), minutes)
	if err != nil {
		vc.Error(w, r, err)
		return
	}
	vc.JSON(w, r, http.StatusOK, stats)
}

func (vc *VenueController) Occupancy(w http.ResponseWriter, r *http.Request) {
	occupancy, err := vc.service.GetOccupancyRatio(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		vc.Error(w, r, err)
		return
	}
	vc.JSON(w, r, http.StatusOK, occupancy)
}

func (vc *VenueController) Status(w http.ResponseWriter, r *http.Request) {
	status, err := vc.service.GetStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		vc.Error(w, r, err)
		return
	}
	vc.JSON(w, r, http.StatusOK, status)
}
