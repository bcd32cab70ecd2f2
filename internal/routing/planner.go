package routing

import (
	"context"
	"fmt"
	"time"

	"github.com/passbi/journeyplanner/internal/executor"
	"github.com/passbi/journeyplanner/internal/models"
	"github.com/passbi/journeyplanner/internal/store"
	"github.com/passbi/journeyplanner/internal/upstream"
)

// DefaultMaxWait is the longest allowed wait between arriving at a station
// and departing from it
const DefaultMaxWait = 60 * time.Minute

// Planner resolves multi-leg journeys leg by leg, consulting the route store
// for the cumulative sub-route (tier 1) and the station pair (tier 2) before
// falling back to the upstream resolver. Every resolved leg is written back.
type Planner struct {
	store    store.RouteStore
	upstream upstream.Resolver
	pool     *executor.Pool
	maxWait  time.Duration
	now      func() time.Time
}

// Option configures a Planner
type Option func(*Planner)

// WithPool dispatches store and upstream calls to pool
func WithPool(pool *executor.Pool) Option {
	return func(p *Planner) { p.pool = pool }
}

// WithMaxWait overrides DefaultMaxWait
func WithMaxWait(d time.Duration) Option {
	return func(p *Planner) { p.maxWait = d }
}

// WithClock overrides the clock used to reject past departures
func WithClock(now func() time.Time) Option {
	return func(p *Planner) { p.now = now }
}

// NewPlanner creates a planner over a store and an upstream resolver
func NewPlanner(s store.RouteStore, r upstream.Resolver, opts ...Option) *Planner {
	p := &Planner{
		store:    s,
		upstream: r,
		maxWait:  DefaultMaxWait,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// journeyState is threaded through the leg loop of a single request
type journeyState struct {
	start           time.Time
	current         time.Time
	path            []models.StationCode
	departures      map[models.StationCode]time.Time
	originDeparture time.Time
	legs            []models.LegResult
}

func (s *journeyState) record(from, to models.StationCode, dep, arr time.Time, source models.Source) {
	if len(s.legs) == 0 {
		s.originDeparture = dep
	}
	s.departures[from] = dep
	s.current = arr
	s.legs = append(s.legs, models.LegResult{
		From:        from,
		To:          to,
		DepartureAt: dep,
		ArrivalAt:   arr,
		Source:      source,
	})
}

// Plan validates req and resolves it to an arrival time at the last station.
// Segments written for earlier legs are kept when a later leg fails.
func (p *Planner) Plan(ctx context.Context, req models.JourneyRequest) (*models.JourneyPlan, error) {
	if err := Validate(req, p.now()); err != nil {
		return nil, err
	}

	st := &journeyState{
		start:      req.StartAt,
		current:    req.StartAt,
		path:       []models.StationCode{req.Stations[0]},
		departures: make(map[models.StationCode]time.Time, len(req.Stations)),
		legs:       make([]models.LegResult, 0, len(req.Stations)-1),
	}

	for i := 0; i < len(req.Stations)-1; i++ {
		if err := p.resolveLeg(ctx, st, req.Stations[i], req.Stations[i+1]); err != nil {
			return nil, err
		}
	}

	return &models.JourneyPlan{ArrivalAt: st.current, Legs: st.legs}, nil
}

func (p *Planner) resolveLeg(ctx context.Context, st *journeyState, pointA, pointB models.StationCode) error {
	st.path = append(st.path, pointB)
	pairFP := Fingerprint([]models.StationCode{pointA, pointB})
	subRouteFP := Fingerprint(st.path)
	previousArrival := st.current

	// Tier 1 filters on the journey start, not the running clock, so a fully
	// resolved prefix short-circuits.
	subRoute, err := p.read(ctx, subRouteFP, st.start)
	if err != nil {
		return err
	}
	if subRoute != nil {
		if err := p.checkWait(pointA, previousArrival, subRoute.DepartureAt); err != nil {
			return err
		}
		st.record(pointA, pointB, subRoute.DepartureAt, subRoute.ArrivalAt, models.SourceSubRoute)
		return nil
	}

	segment, err := p.read(ctx, pairFP, st.current)
	if err != nil {
		return err
	}
	if segment != nil {
		if err := p.checkWait(pointA, previousArrival, segment.DepartureAt); err != nil {
			return err
		}
		st.record(pointA, pointB, segment.DepartureAt, segment.ArrivalAt, models.SourceSegment)
	} else {
		notBefore := st.current
		it, err := executor.Do(ctx, p.pool, func(ctx context.Context) (upstream.Itinerary, error) {
			return p.upstream.Resolve(ctx, pointA, pointB, notBefore)
		})
		if err != nil {
			return fmt.Errorf("leg %s-%s: %w", pointA, pointB, err)
		}
		if err := p.checkWait(pointA, previousArrival, it.DepartureAt); err != nil {
			return err
		}
		if err := p.write(ctx, pairFP, it.DepartureAt, it.ArrivalAt); err != nil {
			return err
		}
		st.record(pointA, pointB, it.DepartureAt, it.ArrivalAt, models.SourceUpstream)
	}

	if pairFP != subRouteFP {
		return p.write(ctx, subRouteFP, st.originDeparture, st.current)
	}
	return nil
}

// checkWait enforces the maximum connection wait. A departure exactly
// maxWait after arrival is allowed.
func (p *Planner) checkWait(station models.StationCode, arrivedAt, departsAt time.Time) error {
	if departsAt.UTC().After(arrivedAt.UTC().Add(p.maxWait)) {
		return &ExcessiveWaitError{
			Station:   station,
			ArrivedAt: arrivedAt,
			DepartsAt: departsAt,
			MaxWait:   p.maxWait,
		}
	}
	return nil
}

func (p *Planner) read(ctx context.Context, fingerprint string, minDeparture time.Time) (*models.RouteSegment, error) {
	seg, err := executor.Do(ctx, p.pool, func(ctx context.Context) (*models.RouteSegment, error) {
		return p.store.Read(ctx, fingerprint, minDeparture)
	})
	if err != nil {
		return nil, fmt.Errorf("route store read: %w", err)
	}
	return seg, nil
}

func (p *Planner) write(ctx context.Context, fingerprint string, departureAt, arrivalAt time.Time) error {
	_, err := executor.Do(ctx, p.pool, func(ctx context.Context) (models.SegmentID, error) {
		return p.store.Write(ctx, fingerprint, departureAt, arrivalAt)
	})
	if err != nil {
		return fmt.Errorf("route store write: %w", err)
	}
	return nil
}
