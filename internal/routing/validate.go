package routing

import (
	"fmt"
	"time"

	"github.com/passbi/journeyplanner/internal/models"
)

// Validate rejects requests that cannot be resolved. now is the resolution time.
func Validate(req models.JourneyRequest, now time.Time) error {
	if len(req.Stations) < 2 {
		return fmt.Errorf("%w: got %d", ErrTooFewStations, len(req.Stations))
	}

	if !req.StartAt.After(now) {
		return fmt.Errorf("%w: %s", ErrPastDeparture, req.StartAt.Format(time.RFC3339))
	}

	return nil
}
