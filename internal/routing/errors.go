package routing

import (
	"errors"
	"fmt"
	"time"

	"github.com/passbi/journeyplanner/internal/models"
)

var (
	// ErrTooFewStations is returned when a journey names fewer than two stations
	ErrTooFewStations = errors.New("at minimum two train station codes are required")

	// ErrPastDeparture is returned when the start time is not in the future
	ErrPastDeparture = errors.New("date & time of interest should be in the future")
)

// ExcessiveWaitError is returned when a connection would require waiting
// longer than the allowed time at a station.
type ExcessiveWaitError struct {
	Station   models.StationCode
	ArrivedAt time.Time
	DepartsAt time.Time
	MaxWait   time.Duration
}

func (e *ExcessiveWaitError) Error() string {
	return fmt.Sprintf("max waiting time at a station is %d minutes, waiting %s at %s is too long",
		int(e.MaxWait.Minutes()), e.DepartsAt.Sub(e.ArrivedAt).Round(time.Second), e.Station)
}
