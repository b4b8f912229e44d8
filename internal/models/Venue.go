package models

import (
	"context"
	"seatcheck/internal/apperrors"
	"sync"
)

type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Venue is owned by the registry. Capacity is nil when unknown.
type Venue struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category string   `json:"category,omitempty"`
	Capacity *int     `json:"capacity"`
	Location Location `json:"location"`
}

type VenueRegistry interface {
	Venue(ctx context.Context, id string) (Venue, error)
	Venues(ctx context.Context) ([]Venue, error)
}

type MemoryVenueRegistry struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]Venue
}

func NewMemoryVenueRegistry(venues []Venue) *MemoryVenueRegistry {
	r := &MemoryVenueRegistry{
		byID: make(map[string]Venue, len(venues)),
	}
	for _, v := range venues {
		if _, ok := r.byID[v.ID]; !ok {
			r.order = append(r.order, v.ID)
		}
		r.byID[v.ID] = v
	}
	return r
}

func (r *MemoryVenueRegistry) Venue(ctx context.Context, id string) (Venue, error) {
	if err := ctx.Err(); err != nil {
		return Venue{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.byID[id]
	if !ok {
		return Venue{}, apperrors.NotFound("venue %s not found", id)
	}
	return v, nil
}

func (r *MemoryVenueRegistry) Venues(ctx context.Context) ([]Venue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Venue, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.byID[id])
	}
	return result, nil
}
