package controllers

import (
	"math"
	"net/http"
	"seatcheck/internal/apperrors"
	"seatcheck/internal/services"
)

// Occupancy and noise decode loosely so that "3" or 3.5 is reported as an
// invalid argument rather than a broken body.
type ratingRequest struct {
	VenueID   string `json:"venue_id"`
	Occupancy any    `json:"occupancy"`
	Noise     any    `json:"noise"`
}

type RatingController struct {
	*Responder
	service services.OccupancyServiceInterface
}

func NewRatingController(responder *Responder, service services.OccupancyServiceInterface) *RatingController {
	return &RatingController{Responder: responder, service: service}
}

func ratingValue(field string, raw any) (int, error) {
	n, ok := raw.(float64)
	if !ok || n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
		return 0, apperrors.InvalidArgument("%s must be an integer", field)
	}
	return int(n), nil
}

func (rc *RatingController) Submit(w http.ResponseWriter, r *http.Request) {
	var payload ratingRequest
	if err := decode(w, r, &payload); err != nil {
		rc.Error(w, r, err)
		return
	}
	if payload.Occupancy == nil || payload.Noise == nil {
		rc.Error(w, r, apperrors.InvalidArgument("occupancy and noise are required"))
		return
	}
	occupancy, err := ratingValue("occupancy", payload.Occupancy)
	if err != nil {
		rc.Error(w, r, err)
		return
	}
	noise, err := ratingValue("noise", payload.Noise)
	if err != nil {
		rc.Error(w, r, err)
		return
	}

	sample, err := rc.service.SubmitRating(r.Context(), payload.VenueID, occupancy, noise)
	if err != nil {
		rc.Error(w, r, err)
		return
	}
	rc.JSON(w, r, http.StatusCreated, sample)
}
