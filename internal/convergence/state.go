package convergence

import (
	"time"

	"github.com/anime-shed/body-measure-go/pkg/models"
)

// SessionState is everything the machine knows about one session. It is
// passed into and returned from every Machine call; the machine keeps no
// state of its own. The measurement pointers are never mutated once set.
type SessionState struct {
	Phase        Phase
	Window       StabilityWindow
	StartedAt    time.Time
	LastMovement time.Time

	RepeatLabel string
	RepeatCount int

	LastProvisional *models.Measurement
	Final           *models.FinalMeasurement
}

// NewSessionState returns a Searching state with an empty window.
func NewSessionState(windowCapacity int, now time.Time) SessionState {
	return SessionState{
		Phase:        PhaseSearching,
		Window:       NewStabilityWindow(windowCapacity),
		StartedAt:    now,
		LastMovement: now,
	}
}

// Locked reports whether the session holds a final measurement.
func (s SessionState) Locked() bool {
	return s.Phase == PhaseLocked
}
