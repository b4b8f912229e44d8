package models

import "time"

const SnapshotVersion = 1

type LedgerSnapshot struct {
	Open    []PresenceRecord `json:"open"`
	History []PresenceRecord `json:"history"`
}

// Snapshot is the persisted envelope written by the file manager.
// Ratings is empty when the stream is durable on its own.
type Snapshot struct {
	Version  int            `json:"version"`
	SavedAt  time.Time      `json:"saved_at"`
	Presence LedgerSnapshot `json:"presence"`
	Ratings  []RatingSample `json:"ratings,omitempty"`
}
