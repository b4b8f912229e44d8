package models

import (
	"context"
	"seatcheck/internal/apperrors"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// PresenceLedger tracks at most one open PresenceRecord per user.
// Mutations for one user are serialized through a per-user lock; venues keep
// their own occupant index so counting one venue never waits on another.
type PresenceLedger struct {
	locks     *keyedMutex
	open      sync.Map // user id -> PresenceRecord
	venues    sync.Map // venue id -> *venueOccupants
	openCount atomic.Int64

	historyMu sync.Mutex
	history   []PresenceRecord

	ttl       time.Duration
	retention time.Duration
	now       func() time.Time
}

type venueOccupants struct {
	mu    sync.RWMutex
	users map[string]PresenceRecord
}

func NewPresenceLedger(stalenessTTL, historyRetention time.Duration) *PresenceLedger {
	return &PresenceLedger{
		locks:     newKeyedMutex(),
		ttl:       stalenessTTL,
		retention: historyRetention,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (l *PresenceLedger) SetClock(now func() time.Time) {
	l.now = now
}

func (l *PresenceLedger) StalenessTTL() time.Duration {
	return l.ttl
}

// CheckIn opens a presence for the user at venueID. An open record at the
// same venue is refreshed and returned with created=false; an open record
// elsewhere is closed first. Stale records count as absent.
func (l *PresenceLedger) CheckIn(ctx context.Context, userID, venueID string) (PresenceRecord, bool, error) {
	if err := validateKeys(userID, venueID); err != nil {
		return PresenceRecord{}, false, err
	}
	unlock, err := l.locks.Lock(ctx, userID)
	if err != nil {
		return PresenceRecord{}, false, err
	}
	defer unlock()

	now := l.now()
	if cur, ok := l.load(userID); ok {
		switch {
		case cur.IsStale(now, l.ttl):
			l.close(cur, cur.LastHeartbeatAt)
		case cur.VenueID == venueID:
			cur.LastHeartbeatAt = now
			l.store(cur)
			return cur, false, nil
		default:
			l.close(cur, now)
		}
	}

	rec := PresenceRecord{
		ID:              uuid.NewString(),
		UserID:          userID,
		VenueID:         venueID,
		StartedAt:       now,
		LastHeartbeatAt: now,
	}
	l.store(rec)
	l.openCount.Inc()
	return rec, true, nil
}

// Heartbeat keeps the user's open record alive.
func (l *PresenceLedger) Heartbeat(ctx context.Context, userID string) (PresenceRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return PresenceRecord{}, apperrors.InvalidArgument("user id is required")
	}
	unlock, err := l.locks.Lock(ctx, userID)
	if err != nil {
		return PresenceRecord{}, err
	}
	defer unlock()

	now := l.now()
	cur, ok := l.load(userID)
	if !ok {
		return PresenceRecord{}, apperrors.NotFound("no open presence for user")
	}
	if cur.IsStale(now, l.ttl) {
		l.close(cur, cur.LastHeartbeatAt)
		return PresenceRecord{}, apperrors.NotFound("presence expired, check in again")
	}
	cur.LastHeartbeatAt = now
	l.store(cur)
	return cur, nil
}

// CheckOut closes the user's open record. An empty venueID skips the venue
// match; having nothing open is not an error.
func (l *PresenceLedger) CheckOut(ctx context.Context, userID, venueID string) error {
	if strings.TrimSpace(userID) == "" {
		return apperrors.InvalidArgument("user id is required")
	}
	unlock, err := l.locks.Lock(ctx, userID)
	if err != nil {
		return err
	}
	defer unlock()

	now := l.now()
	cur, ok := l.load(userID)
	if !ok {
		return nil
	}
	if cur.IsStale(now, l.ttl) {
		l.close(cur, cur.LastHeartbeatAt)
		return nil
	}
	if venueID != "" && venueID != cur.VenueID {
		return apperrors.Conflict("open presence is at venue %s, not %s", cur.VenueID, venueID)
	}
	l.close(cur, now)
	return nil
}

// Current returns the user's live presence.
func (l *PresenceLedger) Current(ctx context.Context, userID string) (PresenceRecord, error) {
	if err := ctx.Err(); err != nil {
		return PresenceRecord{}, err
	}
	cur, ok := l.load(userID)
	if !ok || cur.IsStale(l.now(), l.ttl) {
		return PresenceRecord{}, apperrors.NotFound("no open presence for user")
	}
	return cur, nil
}

// LiveCount counts open records at the venue whose last heartbeat is within ttl.
func (l *PresenceLedger) LiveCount(ctx context.Context, venueID string, ttl time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	v, ok := l.venues.Load(venueID)
	if !ok {
		return 0, nil
	}
	occ := v.(*venueOccupants)
	now := l.now()

	occ.mu.RLock()
	defer occ.mu.RUnlock()
	count := 0
	for _, rec := range occ.users {
		if !rec.IsStale(now, ttl) {
			count++
		}
	}
	return count, nil
}

// History returns the user's closed records, newest first.
func (l *PresenceLedger) History(userID string) []PresenceRecord {
	l.historyMu.Lock()
	defer l.historyMu.Unlock()
	var result []PresenceRecord
	for i := len(l.history) - 1; i >= 0; i-- {
		if l.history[i].UserID == userID {
			result = append(result, l.history[i])
		}
	}
	return result
}

func (l *PresenceLedger) OpenCount() int {
	return int(l.openCount.Load())
}

// Sweep physically closes stale records and drops closed history past the
// retention window. Live counts never depend on it running.
func (l *PresenceLedger) Sweep(ctx context.Context) (closed int, pruned int) {
	now := l.now()
	var stale []string
	l.open.Range(func(key, value any) bool {
		if value.(PresenceRecord).IsStale(now, l.ttl) {
			stale = append(stale, key.(string))
		}
		return true
	})

	for _, userID := range stale {
		unlock, err := l.locks.Lock(ctx, userID)
		if err != nil {
			break
		}
		if cur, ok := l.load(userID); ok && cur.IsStale(now, l.ttl) {
			l.close(cur, cur.LastHeartbeatAt)
			closed++
		}
		unlock()
	}

	if l.retention > 0 {
		cutoff := now.Add(-l.retention)
		l.historyMu.Lock()
		kept := l.history[:0]
		for _, rec := range l.history {
			if rec.ClosedAt.Before(cutoff) {
				pruned++
				continue
			}
			kept = append(kept, rec)
		}
		clear(l.history[len(kept):])
		l.history = kept
		l.historyMu.Unlock()
	}
	return closed, pruned
}

func (l *PresenceLedger) Snapshot() LedgerSnapshot {
	snap := LedgerSnapshot{}
	l.open.Range(func(_, value any) bool {
		snap.Open = append(snap.Open, value.(PresenceRecord))
		return true
	})
	sort.Slice(snap.Open, func(i, j int) bool {
		return snap.Open[i].StartedAt.Before(snap.Open[j].StartedAt)
	})

	l.historyMu.Lock()
	snap.History = slices.Clone(l.history)
	l.historyMu.Unlock()
	return snap
}

// Restore replaces the ledger content. It must run before traffic is served.
func (l *PresenceLedger) Restore(snap LedgerSnapshot) {
	l.open.Clear()
	l.venues.Clear()
	l.openCount.Store(0)
	for _, rec := range snap.Open {
		if !rec.IsOpen() || rec.UserID == "" || rec.VenueID == "" {
			continue
		}
		if _, dup := l.load(rec.UserID); dup {
			continue
		}
		l.store(rec)
		l.openCount.Inc()
	}

	l.historyMu.Lock()
	l.history = l.history[:0]
	for _, rec := range snap.History {
		if rec.ClosedAt != nil {
			l.history = append(l.history, rec)
		}
	}
	l.historyMu.Unlock()
}

func (l *PresenceLedger) load(userID string) (PresenceRecord, bool) {
	v, ok := l.open.Load(userID)
	if !ok {
		return PresenceRecord{}, false
	}
	return v.(PresenceRecord), true
}

// store must be called with the user's lock held.
func (l *PresenceLedger) store(rec PresenceRecord) {
	l.open.Store(rec.UserID, rec)
	occ := l.occupants(rec.VenueID)
	occ.mu.Lock()
	occ.users[rec.UserID] = rec
	occ.mu.Unlock()
}

// close must be called with the user's lock held.
func (l *PresenceLedger) close(rec PresenceRecord, at time.Time) {
	if v, ok := l.venues.Load(rec.VenueID); ok {
		occ := v.(*venueOccupants)
		occ.mu.Lock()
		delete(occ.users, rec.UserID)
		occ.mu.Unlock()
	}
	l.open.Delete(rec.UserID)
	l.openCount.Dec()

	closedAt := at
	rec.ClosedAt = &closedAt
	l.historyMu.Lock()
	l.history = append(l.history, rec)
	l.historyMu.Unlock()
}

func (l *PresenceLedger) occupants(venueID string) *venueOccupants {
	if v, ok := l.venues.Load(venueID); ok {
		return v.(*venueOccupants)
	}
	v, _ := l.venues.LoadOrStore(venueID, &venueOccupants{users: make(map[string]PresenceRecord)})
	return v.(*venueOccupants)
}

func validateKeys(userID, venueID string) error {
	if strings.TrimSpace(userID) == "" {
		return apperrors.InvalidArgument("user id is required")
	}
	if strings.TrimSpace(venueID) == "" {
		return apperrors.InvalidArgument("venue id is required")
	}
	return nil
}
