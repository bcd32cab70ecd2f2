package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/passbi/journeyplanner/internal/models"
)

// SQLiteSchema creates the append-only segment table.
// Timestamps are stored as UTC unix milliseconds so that range filters compare numerically.
const SQLiteSchema = `
	CREATE TABLE IF NOT EXISTS route_segment (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fingerprint TEXT NOT NULL,
		departure_at INTEGER NOT NULL,
		arrival_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_route_segment_fingerprint_departure_at
		ON route_segment (fingerprint, departure_at);
`

// SQLite is a RouteStore backed by a database/sql handle opened with the sqlite driver
type SQLite struct {
	db *sql.DB
}

// NewSQLite wraps an open database handle
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

// InitSchema creates the segment table and index if missing
func (s *SQLite) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, SQLiteSchema); err != nil {
		return fmt.Errorf("failed to create route_segment table: %w", err)
	}
	return nil
}

func (s *SQLite) Read(ctx context.Context, fingerprint string, minDeparture time.Time) (*models.RouteSegment, error) {
	query := `
		SELECT id, fingerprint, departure_at, arrival_at
		FROM route_segment
		WHERE fingerprint = ? AND departure_at >= ?
		ORDER BY departure_at, id
		LIMIT 1
	`

	var (
		id           int64
		seg          models.RouteSegment
		depMs, arrMs int64
	)
	err := s.db.QueryRowContext(ctx, query, fingerprint, minDeparture.UnixMilli()).
		Scan(&id, &seg.Fingerprint, &depMs, &arrMs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read route segment: %w", err)
	}

	seg.ID = models.SegmentID(strconv.FormatInt(id, 10))
	seg.DepartureAt = time.UnixMilli(depMs).UTC()
	seg.ArrivalAt = time.UnixMilli(arrMs).UTC()
	return &seg, nil
}

func (s *SQLite) Write(ctx context.Context, fingerprint string, departureAt, arrivalAt time.Time) (models.SegmentID, error) {
	if err := checkSegment(fingerprint, departureAt, arrivalAt); err != nil {
		return "", err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO route_segment (fingerprint, departure_at, arrival_at) VALUES (?, ?, ?)`,
		fingerprint, departureAt.UnixMilli(), arrivalAt.UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to write route segment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("failed to read inserted segment id: %w", err)
	}
	return models.SegmentID(strconv.FormatInt(id, 10)), nil
}

// HealthCheck pings the database
func (s *SQLite) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping failed: %w", err)
	}
	return nil
}
