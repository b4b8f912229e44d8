package models

import "time"

type VenueStats struct {
	VenueID            string    `json:"venue_id"`
	LiveOccupancyCount int       `json:"live_occupancy_count"`
	AvgOccupancy       *float64  `json:"avg_occupancy"`
	AvgNoise           *float64  `json:"avg_noise"`
	SampleCount        int       `json:"sample_count"`
	WindowMinutes      int       `json:"window_minutes"`
	ComputedAt         time.Time `json:"computed_at"`
}

// VenueStatus carries the time-decayed view of recent ratings.
// Availability runs from 0 (full) to 1 (empty) and is nil without data.
type VenueStatus struct {
	VenueID      string     `json:"venue_id"`
	VenueName    string     `json:"venue_name"`
	Availability *float64   `json:"availability"`
	AvgOccupancy *float64   `json:"avg_occupancy"`
	AvgNoise     *float64   `json:"avg_noise"`
	RecentCount  int        `json:"recent_checkins_count"`
	LastUpdated  *time.Time `json:"last_updated"`
	ComputedAt   time.Time  `json:"computed_at"`
}

type OccupancyRatio struct {
	VenueID            string   `json:"venue_id"`
	LiveOccupancyCount int      `json:"live_occupancy_count"`
	Capacity           *int     `json:"capacity"`
	Ratio              *float64 `json:"occupancy_ratio"`
}

// VenueOverview is one row of the venue listing.
type VenueOverview struct {
	Venue
	Stats *VenueStats `json:"stats"`
}
