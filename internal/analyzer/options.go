package analyzer

import (
	"fmt"
	"math"
	"strings"
)

// Options holds the calibration used to turn landmarks into centimeters.
// None of these are physical constants; they depend on the camera and the
// pose model and are expected to be tuned.
type Options struct {
	// Pinhole model
	FocalLengthPx     float64
	RealInterocularCm float64

	// Compensates for the pose model placing shoulder keypoints inside the
	// anatomical shoulder width.
	ShoulderScale float64

	// Torso landmarks below this visibility reject the frame.
	MinVisibility float64

	// Band expansion used for provisional labels.
	ClassificationToleranceCm float64

	// Batch extraction
	MaxWorkers int
}

// DefaultOptions returns the default webcam calibration.
func DefaultOptions() Options {
	return Options{
		FocalLengthPx:             500,
		RealInterocularCm:         6.3,
		ShoulderScale:             1.48,
		MinVisibility:             0.5,
		ClassificationToleranceCm: 4.0,
		MaxWorkers:                0, // Use default CPU count
	}
}

// StrictOptions only measures frames where the torso is clearly visible.
func StrictOptions() Options {
	opts := DefaultOptions()
	opts.MinVisibility = 0.75
	opts.ClassificationToleranceCm = 2.0
	return opts
}

// UncorrectedOptions reports raw keypoint shoulder distance, without the
// shoulder scale correction.
func UncorrectedOptions() Options {
	opts := DefaultOptions()
	opts.ShoulderScale = 1.0
	return opts
}

// PresetOptions returns the named calibration preset: default, strict or
// uncorrected.
func PresetOptions(name string) (Options, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return DefaultOptions(), nil
	case "strict":
		return StrictOptions(), nil
	case "uncorrected":
		return UncorrectedOptions(), nil
	}
	return Options{}, fmt.Errorf("unknown calibration preset %q", name)
}

// WithCalibration sets the pinhole parameters
func (opts Options) WithCalibration(focalLengthPx, realInterocularCm float64) Options {
	opts.FocalLengthPx = focalLengthPx
	opts.RealInterocularCm = realInterocularCm
	return opts
}

// WithShoulderScale sets the shoulder correction factor
func (opts Options) WithShoulderScale(scale float64) Options {
	opts.ShoulderScale = scale
	return opts
}

// WithMinVisibility sets the torso visibility gate
func (opts Options) WithMinVisibility(v float64) Options {
	opts.MinVisibility = v
	return opts
}

// WithTolerance sets the classification tolerance
func (opts Options) WithTolerance(toleranceCm float64) Options {
	opts.ClassificationToleranceCm = toleranceCm
	return opts
}

// WithMaxWorkers sets the batch extraction concurrency
func (opts Options) WithMaxWorkers(n int) Options {
	opts.MaxWorkers = n
	return opts
}

// Validate reports the first out-of-range field.
func (opts Options) Validate() error {
	switch {
	case !positive(opts.FocalLengthPx):
		return fmt.Errorf("focal length must be > 0 (got %v)", opts.FocalLengthPx)
	case !positive(opts.RealInterocularCm):
		return fmt.Errorf("real interocular distance must be > 0 (got %v)", opts.RealInterocularCm)
	case !positive(opts.ShoulderScale):
		return fmt.Errorf("shoulder scale must be > 0 (got %v)", opts.ShoulderScale)
	case math.IsNaN(opts.MinVisibility) || opts.MinVisibility < 0 || opts.MinVisibility > 1:
		return fmt.Errorf("min visibility must be within [0,1] (got %v)", opts.MinVisibility)
	case math.IsNaN(opts.ClassificationToleranceCm) || math.IsInf(opts.ClassificationToleranceCm, 0) || opts.ClassificationToleranceCm < 0:
		return fmt.Errorf("classification tolerance must be finite and >= 0 (got %v)", opts.ClassificationToleranceCm)
	case opts.MaxWorkers < 0:
		return fmt.Errorf("max workers must be >= 0 (got %d)", opts.MaxWorkers)
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
