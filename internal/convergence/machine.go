package convergence

import (
	"fmt"
	"time"

	"github.com/anime-shed/body-measure-go/pkg/models"
)

// Classifier assigns a size label to a shoulder/torso pair.
type Classifier interface {
	Classify(shoulderCm, torsoCm, toleranceCm float64) string
}

// Outcome describes what a single Step or Reject did.
type Outcome struct {
	// Ignored is set when the session was already locked.
	Ignored bool
	// Locked is set when the returned state is locked.
	Locked bool
	Signal models.LockSignal

	Evaluable bool
	StdDevCm  float64
	Still     bool
}

// Machine applies the convergence rules to a SessionState. It holds only
// immutable configuration and is safe for concurrent use; callers must
// serialise calls for the same session.
type Machine struct {
	cfg        Config
	classifier Classifier
}

// NewMachine creates a machine. The classifier relabels the final
// measurement after the lock offset is applied.
func NewMachine(cfg Config, classifier Classifier) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid convergence config: %w", err)
	}
	if classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	return &Machine{cfg: cfg, classifier: classifier}, nil
}

// Config returns the machine's configuration.
func (m *Machine) Config() Config {
	return m.cfg
}

// Start returns the state of a new session.
func (m *Machine) Start(now time.Time) SessionState {
	return NewSessionState(m.cfg.WindowCapacity, now)
}

// Reset returns a fresh Searching state. Resetting twice at the same
// instant yields identical states.
func (m *Machine) Reset(now time.Time) SessionState {
	return m.Start(now)
}

// Step feeds one accepted provisional measurement.
func (m *Machine) Step(state SessionState, meas models.Measurement, now time.Time) (SessionState, Outcome) {
	if state.Locked() {
		return state, lockedOutcome(state)
	}

	next := state
	next.Phase = PhaseConverging
	provisional := meas
	next.LastProvisional = &provisional
	next.Window = state.Window.Push(Quantize(meas.ShoulderWidthCm, m.cfg.QuantumCm))

	var out Outcome
	if sd, ok := next.Window.StdDev(m.cfg.MinSamples); ok {
		out.Evaluable = true
		out.StdDevCm = sd
		out.Still = sd < m.cfg.StabilityToleranceCm
	}
	if !out.Still {
		next.LastMovement = now
	}

	if next.RepeatCount > 0 && meas.SizeLabel == next.RepeatLabel {
		next.RepeatCount++
	} else {
		next.RepeatLabel = meas.SizeLabel
		next.RepeatCount = 1
	}

	if signal, ok := m.lockSignal(next, out, now); ok {
		next = m.lock(next, meas, signal, now)
		out.Locked = true
		out.Signal = signal
	}
	return next, out
}

// Reject records a frame the extractor could not measure. It restarts the
// hold and the repeat counter.
func (m *Machine) Reject(state SessionState, now time.Time) (SessionState, Outcome) {
	if state.Locked() {
		return state, lockedOutcome(state)
	}
	next := state
	next.Phase = PhaseSearching
	next.LastMovement = now
	next.RepeatLabel = ""
	next.RepeatCount = 0
	return next, Outcome{}
}

// Progress summarises how close state is to locking at time now.
func (m *Machine) Progress(state SessionState, now time.Time) models.Progress {
	p := models.Progress{
		WindowSize:      state.Window.Len(),
		RepeatLabel:     state.RepeatLabel,
		RepeatCount:     state.RepeatCount,
		RepeatThreshold: m.cfg.RepeatThreshold,
	}
	if sd, ok := state.Window.StdDev(m.cfg.MinSamples); ok {
		p.StdDevCm = &sd
		p.Still = sd < m.cfg.StabilityToleranceCm
	}

	switch {
	case state.Locked():
		p.HoldRemainingMs = 0
	case m.cfg.Mode == LockModeFixedTimer:
		p.HoldRemainingMs = remaining(m.cfg.FixedLockAfter, now.Sub(state.StartedAt))
	case p.Still && state.Phase == PhaseConverging:
		p.HoldRemainingMs = remaining(m.cfg.HoldDuration, now.Sub(state.LastMovement))
	default:
		p.HoldRemainingMs = m.cfg.HoldDuration.Milliseconds()
	}
	return p
}

func (m *Machine) lockSignal(s SessionState, out Outcome, now time.Time) (models.LockSignal, bool) {
	if m.cfg.Mode == LockModeFixedTimer {
		if now.Sub(s.StartedAt) >= m.cfg.FixedLockAfter {
			return models.LockSignalTimer, true
		}
		return "", false
	}
	if out.Still && now.Sub(s.LastMovement) >= m.cfg.HoldDuration {
		return models.LockSignalStillness, true
	}
	if m.cfg.RepeatThreshold > 0 && s.RepeatCount >= m.cfg.RepeatThreshold {
		return models.LockSignalRepeatLabel, true
	}
	return "", false
}

func (m *Machine) lock(s SessionState, meas models.Measurement, signal models.LockSignal, now time.Time) SessionState {
	shoulder := meas.ShoulderWidthCm + m.cfg.LockOffsetCm
	s.Phase = PhaseLocked
	s.Final = &models.FinalMeasurement{
		Measurement: models.Measurement{
			DistanceCm:      meas.DistanceCm,
			ShoulderWidthCm: shoulder,
			TorsoHeightCm:   meas.TorsoHeightCm,
			SizeLabel:       m.classifier.Classify(shoulder, meas.TorsoHeightCm, m.cfg.ClassificationToleranceCm),
		},
		RawShoulderWidthCm: meas.ShoulderWidthCm,
		OffsetCm:           m.cfg.LockOffsetCm,
		LockSignal:         signal,
		LockedAt:           now,
	}
	return s
}

func lockedOutcome(s SessionState) Outcome {
	out := Outcome{Ignored: true, Locked: true}
	if s.Final != nil {
		out.Signal = s.Final.LockSignal
	}
	return out
}

func remaining(total, elapsed time.Duration) int64 {
	if left := total - elapsed; left > 0 {
		return left.Milliseconds()
	}
	return 0
}
