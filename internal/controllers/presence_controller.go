package controllers

import (
	"net/http"
	"seatcheck/internal/services"
)

type venueRequest struct {
	VenueID string `json:"venue_id"`
}

type PresenceController struct {
	*Responder
	service services.OccupancyServiceInterface
}

func NewPresenceController(responder *Responder, service services.OccupancyServiceInterface) *PresenceController {
	return &PresenceController{Responder: responder, service: service}
}

// CheckIn answers 201 for a new presence and 200 when the caller was
// already checked in at the venue.
func (pc *PresenceController) CheckIn(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		pc.Error(w, r, err)
		return
	}
	var payload venueRequest
	if err := decode(w, r, &payload); err != nil {
		pc.Error(w, r, err)
		return
	}

	rec, created, err := pc.service.CheckIn(r.Context(), user, payload.VenueID)
	if err != nil {
		pc.Error(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	pc.JSON(w, r, status, rec)
}

func (pc *PresenceController) Heartbeat(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		pc.Error(w, r, err)
		return
	}
	rec, err := pc.service.Heartbeat(r.Context(), user)
	if err != nil {
		pc.Error(w, r, err)
		return
	}
	pc.JSON(w, r, http.StatusOK, rec)
}

func (pc *PresenceController) CheckOut(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		pc.Error(w, r, err)
		return
	}
	var payload venueRequest
	if err := decode(w, r, &payload); err != nil {
		pc.Error(w, r, err)
		return
	}

	if err := pc.service.CheckOut(r.Context(), user, payload.VenueID); err != nil {
		pc.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (pc *PresenceController) Current(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		pc.Error(w, r, err)
		return
	}
	rec, err := pc.service.CurrentPresence(r.Context(), user)
	if err != nil {
		pc.Error(w, r, err)
		return
	}
	pc.JSON(w, r, http.StatusOK, rec)
}

func (pc *PresenceController) History(w http.ResponseWriter, r *http.Request) {
	user, err := userID(r)
	if err != nil {
		pc.Error(w, r, err)
		return
	}
	history, err := pc.service.PresenceHistory(r.Context(), user)
	if err != nil {
		pc.Error(w, r, err)
		return
	}
	pc.JSON(w, r, http.StatusOK, history)
}
