package convergence

import (
	"fmt"
	"math"
	"time"
)

// LockMode selects how a session decides to lock.
type LockMode string

const (
	// LockModeDualSignal locks on sustained stillness or on a repeated
	// size label, whichever comes first.
	LockModeDualSignal LockMode = "dual"
	// LockModeFixedTimer locks on the first accepted frame after a fixed
	// time from session start, ignoring stability.
	LockModeFixedTimer LockMode = "timer"
)

// ParseLockMode parses a lock mode name.
func ParseLockMode(s string) (LockMode, error) {
	switch LockMode(s) {
	case LockModeDualSignal, LockModeFixedTimer:
		return LockMode(s), nil
	}
	return "", fmt.Errorf("unknown lock mode %q", s)
}

// Config holds the convergence parameters.
type Config struct {
	Mode LockMode

	// Stillness signal
	WindowCapacity       int
	MinSamples           int
	QuantumCm            float64
	StabilityToleranceCm float64
	HoldDuration         time.Duration

	// Repeated-label signal. A threshold <= 0 disables it.
	RepeatThreshold int

	// Final measurement
	LockOffsetCm              float64
	ClassificationToleranceCm float64

	// Timer mode only
	FixedLockAfter time.Duration
}

// DefaultConfig returns the dual-signal defaults.
func DefaultConfig() Config {
	return Config{
		Mode:                      LockModeDualSignal,
		WindowCapacity:            10,
		MinSamples:                8,
		QuantumCm:                 0.5,
		StabilityToleranceCm:      3.0,
		HoldDuration:              5 * time.Second,
		RepeatThreshold:           5,
		LockOffsetCm:              2.0,
		ClassificationToleranceCm: 4.0,
		FixedLockAfter:            5 * time.Second,
	}
}

// FixedTimerConfig returns the defaults with timer locking.
func FixedTimerConfig() Config {
	cfg := DefaultConfig()
	cfg.Mode = LockModeFixedTimer
	return cfg
}

// Validate reports the first inconsistent parameter.
func (c Config) Validate() error {
	if _, err := ParseLockMode(string(c.Mode)); err != nil {
		return err
	}
	if c.WindowCapacity < 1 {
		return fmt.Errorf("window capacity must be >= 1 (got %d)", c.WindowCapacity)
	}
	if c.MinSamples < 1 || c.MinSamples > c.WindowCapacity {
		return fmt.Errorf("min samples must be within [1,%d] (got %d)", c.WindowCapacity, c.MinSamples)
	}
	for name, v := range map[string]float64{
		"quantum":                  c.QuantumCm,
		"stability tolerance":      c.StabilityToleranceCm,
		"lock offset":              c.LockOffsetCm,
		"classification tolerance": c.ClassificationToleranceCm,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be finite (got %v)", name, v)
		}
	}
	if c.QuantumCm < 0 {
		return fmt.Errorf("quantum must be >= 0 (got %v)", c.QuantumCm)
	}
	if c.StabilityToleranceCm <= 0 {
		return fmt.Errorf("stability tolerance must be > 0 (got %v)", c.StabilityToleranceCm)
	}
	if c.HoldDuration < 0 {
		return fmt.Errorf("hold duration must be >= 0 (got %s)", c.HoldDuration)
	}
	if c.ClassificationToleranceCm < 0 {
		return fmt.Errorf("classification tolerance must be >= 0 (got %v)", c.ClassificationToleranceCm)
	}
	if c.Mode == LockModeFixedTimer && c.FixedLockAfter <= 0 {
		return fmt.Errorf("fixed lock delay must be > 0 in timer mode (got %s)", c.FixedLockAfter)
	}
	return nil
}
