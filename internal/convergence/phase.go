// Package convergence decides when a stream of per-frame measurements has
// settled enough to commit a final measurement.
package convergence

// Phase is the lifecycle position of a measurement session.
type Phase int

const (
	// PhaseSearching: no frames yet, or the last frame was rejected.
	PhaseSearching Phase = iota
	// PhaseConverging: accepting measurements and tracking stability.
	PhaseConverging
	// PhaseLocked: a final measurement is held until reset.
	PhaseLocked
)

func (p Phase) String() string {
	switch p {
	case PhaseSearching:
		return "searching"
	case PhaseConverging:
		return "converging"
	case PhaseLocked:
		return "locked"
	default:
		return "unknown"
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
