package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/passbi/journeyplanner/internal/models"
)

// PostgresSchema creates the append-only segment table
const PostgresSchema = `
	CREATE TABLE IF NOT EXISTS route_segment (
		id BIGSERIAL PRIMARY KEY,
		fingerprint VARCHAR(64) NOT NULL,
		departure_at TIMESTAMPTZ NOT NULL,
		arrival_at TIMESTAMPTZ NOT NULL,
		CHECK (arrival_at > departure_at)
	);
	CREATE INDEX IF NOT EXISTS idx_route_segment_fingerprint_departure_at
		ON route_segment (fingerprint, departure_at);
`

// PgxConn is the subset of *pgxpool.Pool used by the Postgres store
type PgxConn interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// Postgres is a RouteStore backed by a PostgreSQL table
type Postgres struct {
	db PgxConn
}

// NewPostgres wraps a pgx pool
func NewPostgres(db PgxConn) *Postgres {
	return &Postgres{db: db}
}

// InitSchema creates the segment table and index if missing
func (p *Postgres) InitSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("failed to create route_segment table: %w", err)
	}
	return nil
}

func (p *Postgres) Read(ctx context.Context, fingerprint string, minDeparture time.Time) (*models.RouteSegment, error) {
	query := `
		SELECT id, fingerprint, departure_at, arrival_at
		FROM route_segment
		WHERE fingerprint = $1 AND departure_at >= $2
		ORDER BY departure_at, id
		LIMIT 1
	`

	var (
		id  int64
		seg models.RouteSegment
	)
	err := p.db.QueryRow(ctx, query, fingerprint, minDeparture).
		Scan(&id, &seg.Fingerprint, &seg.DepartureAt, &seg.ArrivalAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read route segment: %w", err)
	}

	seg.ID = models.SegmentID(strconv.FormatInt(id, 10))
	return &seg, nil
}

func (p *Postgres) Write(ctx context.Context, fingerprint string, departureAt, arrivalAt time.Time) (models.SegmentID, error) {
	if err := checkSegment(fingerprint, departureAt, arrivalAt); err != nil {
		return "", err
	}

	query := `
		INSERT INTO route_segment (fingerprint, departure_at, arrival_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	if err := p.db.QueryRow(ctx, query, fingerprint, departureAt, arrivalAt).Scan(&id); err != nil {
		return "", fmt.Errorf("failed to write route segment: %w", err)
	}
	return models.SegmentID(strconv.FormatInt(id, 10)), nil
}

// HealthCheck pings the database
func (p *Postgres) HealthCheck(ctx context.Context) error {
	if err := p.db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
