package models

import "time"

// PresenceRecord is one user's occupancy of one venue. A nil ClosedAt means
// the user is still present, subject to the staleness check.
type PresenceRecord struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	VenueID         string     `json:"venue_id"`
	StartedAt       time.Time  `json:"started_at"`
	LastHeartbeatAt time.Time  `json:"last_heartbeat_at"`
	ClosedAt        *time.Time `json:"closed_at"`
}

func (p PresenceRecord) IsOpen() bool {
	return p.ClosedAt == nil
}

// IsStale reports whether the record missed its heartbeat window.
// A non-positive ttl disables expiry.
func (p PresenceRecord) IsStale(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(p.LastHeartbeatAt) > ttl
}

// Duration is measured up to ClosedAt only; open records report zero.
func (p PresenceRecord) Duration() time.Duration {
	if p.ClosedAt == nil {
		return 0
	}
	return p.ClosedAt.Sub(p.StartedAt)
}
