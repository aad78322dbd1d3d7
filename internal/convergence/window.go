package convergence

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// StabilityWindow is a bounded FIFO of recent quantized shoulder widths.
// It is a value: Push returns a new window and never modifies the
// receiver's backing array, so copies of a SessionState do not alias.
type StabilityWindow struct {
	samples  []float64
	capacity int
}

// NewStabilityWindow returns an empty window.
func NewStabilityWindow(capacity int) StabilityWindow {
	return StabilityWindow{capacity: capacity}
}

// Push appends v, evicting the oldest sample beyond capacity.
func (w StabilityWindow) Push(v float64) StabilityWindow {
	next := make([]float64, len(w.samples), len(w.samples)+1)
	copy(next, w.samples)
	next = append(next, v)
	if len(next) > w.capacity {
		next = next[len(next)-w.capacity:]
	}
	return StabilityWindow{samples: next, capacity: w.capacity}
}

// Len returns the number of samples held.
func (w StabilityWindow) Len() int {
	return len(w.samples)
}

// Capacity returns the maximum number of samples held.
func (w StabilityWindow) Capacity() int {
	return w.capacity
}

// Samples returns a copy of the samples, oldest first.
func (w StabilityWindow) Samples() []float64 {
	out := make([]float64, len(w.samples))
	copy(out, w.samples)
	return out
}

// StdDev returns the population standard deviation of the newest n
// samples. ok is false while fewer than n samples are held.
func (w StabilityWindow) StdDev(n int) (sd float64, ok bool) {
	if n <= 0 || len(w.samples) < n {
		return 0, false
	}
	return math.Sqrt(stat.PopVariance(w.samples[len(w.samples)-n:], nil)), true
}

// Quantize rounds v to the nearest multiple of step. A non-positive step
// returns v unchanged.
func Quantize(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	return math.Round(v/step) * step
}
