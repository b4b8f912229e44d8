// Package sqlite provides the durable venue registry and rating stream.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"seatcheck/internal/apperrors"
	"seatcheck/internal/models"
	"strings"
	"time"

	"github.com/google/uuid"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store wraps the SQLite database connection and schema lifecycle.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open initializes the database connection, creating directories as needed.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(ON)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", filepath.Clean(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// InitSchema ensures baseline tables exist.
func (s *Store) InitSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS venues (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			capacity INTEGER,
			lat REAL NOT NULL,
			lon REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ratings (
			id TEXT PRIMARY KEY,
			venue_id TEXT NOT NULL REFERENCES venues(id),
			occupancy INTEGER NOT NULL CHECK (occupancy BETWEEN 0 AND 5),
			noise INTEGER NOT NULL CHECK (noise BETWEEN 0 AND 5),
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_ratings_venue_time ON ratings(venue_id, created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", classify(err))
		}
	}
	return nil
}

// UpsertVenues seeds the registry, replacing rows with the same id.
func (s *Store) UpsertVenues(ctx context.Context, venues []models.Venue) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin venue seed: %w", classify(err))
	}
	defer func() { _ = tx.Rollback() }()

	for _, v := range venues {
		var capacity sql.NullInt64
		if v.Capacity != nil {
			capacity = sql.NullInt64{Int64: int64(*v.Capacity), Valid: true}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO venues (id, name, category, capacity, lat, lon) VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET name = excluded.name, category = excluded.category,
			 capacity = excluded.capacity, lat = excluded.lat, lon = excluded.lon;`,
			v.ID, v.Name, v.Category, capacity, v.Location.Lat, v.Location.Lon,
		)
		if err != nil {
			return fmt.Errorf("upsert venue %s: %w", v.ID, classify(err))
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit venue seed: %w", classify(err))
	}
	return nil
}

func (s *Store) Venue(ctx context.Context, id string) (models.Venue, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, category, capacity, lat, lon FROM venues WHERE id = ?;`, id)
	v, err := scanVenue(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Venue{}, apperrors.NotFound("venue %s not found", id)
		}
		return models.Venue{}, fmt.Errorf("get venue: %w", classify(err))
	}
	return v, nil
}

func (s *Store) Venues(ctx context.Context) ([]models.Venue, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, category, capacity, lat, lon FROM venues ORDER BY name;`)
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", classify(err))
	}
	defer rows.Close()

	var venues []models.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan venue: %w", classify(err))
		}
		venues = append(venues, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate venues: %w", classify(err))
	}
	return venues, nil
}

// Submit validates and inserts one rating sample.
func (s *Store) Submit(ctx context.Context, venueID string, occupancy, noise int) (models.RatingSample, error) {
	if err := models.ValidateRating(occupancy, noise); err != nil {
		return models.RatingSample{}, err
	}
	sample := models.RatingSample{
		ID:        uuid.NewString(),
		VenueID:   venueID,
		Occupancy: occupancy,
		Noise:     noise,
		CreatedAt: s.now(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ratings (id, venue_id, occupancy, noise, created_at) VALUES (?, ?, ?, ?, ?);`,
		sample.ID, sample.VenueID, sample.Occupancy, sample.Noise, sample.CreatedAt.UnixNano(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return models.RatingSample{}, apperrors.NotFound("venue %s not found", venueID)
		}
		return models.RatingSample{}, fmt.Errorf("insert rating: %w", classify(err))
	}
	return sample, nil
}

// SamplesSince streams rows as they are scanned; each range re-runs the query.
func (s *Store) SamplesSince(ctx context.Context, venueID string, since time.Time) iter.Seq2[models.RatingSample, error] {
	return func(yield func(models.RatingSample, error) bool) {
		rows, err := s.db.QueryContext(ctx,
			`SELECT id, venue_id, occupancy, noise, created_at FROM ratings
			 WHERE venue_id = ? AND created_at >= ? ORDER BY created_at ASC, id ASC;`,
			venueID, since.UnixNano(),
		)
		if err != nil {
			yield(models.RatingSample{}, fmt.Errorf("query ratings: %w", classify(err)))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var sample models.RatingSample
			var createdAt int64
			if err := rows.Scan(&sample.ID, &sample.VenueID, &sample.Occupancy, &sample.Noise, &createdAt); err != nil {
				yield(models.RatingSample{}, fmt.Errorf("scan rating: %w", classify(err)))
				return
			}
			sample.CreatedAt = time.Unix(0, createdAt).UTC()
			if !yield(sample, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.RatingSample{}, fmt.Errorf("iterate ratings: %w", classify(err)))
		}
	}
}

// CountRatings returns the number of stored samples for a venue.
func (s *Store) CountRatings(ctx context.Context, venueID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ratings WHERE venue_id = ?;`, venueID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count ratings: %w", classify(err))
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVenue(row scanner) (models.Venue, error) {
	var v models.Venue
	var capacity sql.NullInt64
	if err := row.Scan(&v.ID, &v.Name, &v.Category, &capacity, &v.Location.Lat, &v.Location.Lon); err != nil {
		return models.Venue{}, err
	}
	if capacity.Valid {
		c := int(capacity.Int64)
		v.Capacity = &c
	}
	return v, nil
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint failed")
}

// classify tags connection-level failures as unavailable. Deadline errors
// keep their identity so callers see a timeout.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, sql.ErrConnDone) || strings.Contains(err.Error(), "database is closed") {
		return apperrors.Unavailable(err, "sqlite unavailable")
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED, sqlite3lib.SQLITE_CANTOPEN, sqlite3lib.SQLITE_IOERR:
			return apperrors.Unavailable(err, "sqlite unavailable")
		}
	}
	return err
}

var (
	_ models.VenueRegistry = (*Store)(nil)
	_ models.RatingStream  = (*Store)(nil)
)
