// Package store persists resolved route segments keyed by station fingerprint.
//
// Segments are append-only: a fingerprint may accumulate many segments, one per
// time of day it was resolved at. Reads filter by a minimum departure time and
// return the qualifying segment with the earliest departure.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/passbi/journeyplanner/internal/models"
)

// ErrInvalidSegment is returned when a write would store arrival <= departure
var ErrInvalidSegment = errors.New("segment arrival must be after departure")

// RouteStore is the cache of previously resolved segments and sub-routes.
// Implementations must be safe for concurrent use.
type RouteStore interface {
	// Read returns a segment for fingerprint departing at or after minDeparture.
	// Returns (nil, nil) when no segment qualifies.
	Read(ctx context.Context, fingerprint string, minDeparture time.Time) (*models.RouteSegment, error)

	// Write appends a new segment and returns its identifier.
	Write(ctx context.Context, fingerprint string, departureAt, arrivalAt time.Time) (models.SegmentID, error)
}

// HealthChecker is implemented by stores backed by an external service
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

func checkSegment(fingerprint string, departureAt, arrivalAt time.Time) error {
	if fingerprint == "" {
		return fmt.Errorf("%w: empty fingerprint", ErrInvalidSegment)
	}
	if !arrivalAt.After(departureAt) {
		return fmt.Errorf("%w: departure %s, arrival %s", ErrInvalidSegment,
			departureAt.Format(time.RFC3339), arrivalAt.Format(time.RFC3339))
	}
	return nil
}
