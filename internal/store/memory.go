package store

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/passbi/journeyplanner/internal/models"
)

// Memory is an in-process RouteStore. Data is lost on restart.
type Memory struct {
	mu       sync.RWMutex
	nextID   int64
	segments map[string][]models.RouteSegment // fingerprint -> segments in insertion order
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		segments: make(map[string][]models.RouteSegment),
	}
}

func (m *Memory) Read(_ context.Context, fingerprint string, minDeparture time.Time) (*models.RouteSegment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var best *models.RouteSegment
	for i := range m.segments[fingerprint] {
		s := &m.segments[fingerprint][i]
		if s.DepartureAt.Before(minDeparture) {
			continue
		}
		if best == nil || s.DepartureAt.Before(best.DepartureAt) {
			best = s
		}
	}

	if best == nil {
		return nil, nil
	}
	found := *best
	return &found, nil
}

func (m *Memory) Write(_ context.Context, fingerprint string, departureAt, arrivalAt time.Time) (models.SegmentID, error) {
	if err := checkSegment(fingerprint, departureAt, arrivalAt); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := models.SegmentID(strconv.FormatInt(m.nextID, 10))
	m.nextID++
	m.segments[fingerprint] = append(m.segments[fingerprint], models.RouteSegment{
		ID:          id,
		Fingerprint: fingerprint,
		DepartureAt: departureAt,
		ArrivalAt:   arrivalAt,
	})
	return id, nil
}

// Count returns the number of segments stored for a fingerprint
func (m *Memory) Count(fingerprint string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.segments[fingerprint])
}

// Len returns the total number of stored segments
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, s := range m.segments {
		n += len(s)
	}
	return n
}
