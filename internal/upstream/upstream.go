// Package upstream provides the external source of ground-truth train timings.
package upstream

import (
	"context"
	"fmt"
	"time"

	"github.com/passbi/journeyplanner/internal/models"
)

// Itinerary is a concrete departure/arrival pair between two stations
type Itinerary struct {
	DepartureAt time.Time
	ArrivalAt   time.Time
}

// Resolver looks up the next itinerary from origin to destination
// departing at or after notBefore.
type Resolver interface {
	Resolve(ctx context.Context, origin, destination models.StationCode, notBefore time.Time) (Itinerary, error)
}

// RouteNotFoundError is returned when no itinerary exists for the requested pair and time
type RouteNotFoundError struct {
	Origin      models.StationCode
	Destination models.StationCode
	NotBefore   time.Time
}

func (e *RouteNotFoundError) Error() string {
	return fmt.Sprintf("route from %s to %s not found after %s",
		e.Origin, e.Destination, e.NotBefore.Format("2006-01-02 15:04"))
}

// Stub resolves every pair with a fixed wait and ride time. It is used for
// local runs without TransportAPI credentials.
type Stub struct {
	Wait time.Duration
	Ride time.Duration
}

// NewStub returns a stub departing 5 minutes after notBefore and riding 10 minutes
func NewStub() *Stub {
	return &Stub{Wait: 5 * time.Minute, Ride: 10 * time.Minute}
}

func (s *Stub) Resolve(_ context.Context, _, _ models.StationCode, notBefore time.Time) (Itinerary, error) {
	dep := notBefore.Add(s.Wait)
	return Itinerary{DepartureAt: dep, ArrivalAt: dep.Add(s.Ride)}, nil
}
