package models

import "time"

// StationCode is a validated 3-letter CRS station identifier
type StationCode string

// String returns the code as it is sent to the upstream service
func (c StationCode) String() string {
	return string(c)
}

// SegmentID identifies a stored route segment. Its format depends on the store.
type SegmentID string

// RouteSegment is a resolved timing for a path of stations, either a direct
// pair or a cumulative sub-route from the journey origin.
// ArrivalAt is always after DepartureAt.
type RouteSegment struct {
	ID          SegmentID
	Fingerprint string
	DepartureAt time.Time
	ArrivalAt   time.Time
}

// JourneyRequest is an ordered list of stations plus the earliest start time
type JourneyRequest struct {
	Stations []StationCode
	StartAt  time.Time
}

// Source describes where the timing of a leg came from
type Source string

const (
	SourceSubRoute Source = "SUB_ROUTE" // tier 1: cumulative fingerprint
	SourceSegment  Source = "SEGMENT"   // tier 2: pairwise fingerprint
	SourceUpstream Source = "UPSTREAM"
)

// LegResult represents one resolved station-to-station hop
type LegResult struct {
	From        StationCode `json:"from"`
	To          StationCode `json:"to"`
	DepartureAt time.Time   `json:"departure_at"`
	ArrivalAt   time.Time   `json:"arrival_at"`
	Source      Source      `json:"source"`
}

// JourneyPlan is the outcome of a successful resolution
type JourneyPlan struct {
	ArrivalAt time.Time
	Legs      []LegResult
}

// CacheHit reports whether the plan was served without calling upstream
func (p *JourneyPlan) CacheHit() bool {
	for _, leg := range p.Legs {
		if leg.Source == SourceUpstream {
			return false
		}
	}
	return true
}
