package analyzer

import (
	"math"
	"testing"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.FocalLengthPx != 500 {
		t.Errorf("Expected FocalLengthPx to be 500, got %f", opts.FocalLengthPx)
	}
	if opts.RealInterocularCm != 6.3 {
		t.Errorf("Expected RealInterocularCm to be 6.3, got %f", opts.RealInterocularCm)
	}
	if opts.ShoulderScale != 1.48 {
		t.Errorf("Expected ShoulderScale to be 1.48, got %f", opts.ShoulderScale)
	}
	if opts.MinVisibility != 0.5 {
		t.Errorf("Expected MinVisibility to be 0.5, got %f", opts.MinVisibility)
	}
	if opts.ClassificationToleranceCm != 4.0 {
		t.Errorf("Expected ClassificationToleranceCm to be 4.0, got %f", opts.ClassificationToleranceCm)
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("Expected default options to be valid, got %v", err)
	}
}

func TestStrictOptions(t *testing.T) {
	opts := StrictOptions()

	if opts.MinVisibility != 0.75 {
		t.Errorf("Expected MinVisibility to be 0.75 for strict options, got %f", opts.MinVisibility)
	}
	if opts.ClassificationToleranceCm != 2.0 {
		t.Errorf("Expected ClassificationToleranceCm to be 2.0 for strict options, got %f", opts.ClassificationToleranceCm)
	}
	if opts.FocalLengthPx != DefaultOptions().FocalLengthPx {
		t.Error("Expected strict options to keep the default calibration")
	}
}

func TestUncorrectedOptions(t *testing.T) {
	if opts := UncorrectedOptions(); opts.ShoulderScale != 1.0 {
		t.Errorf("Expected ShoulderScale to be 1.0, got %f", opts.ShoulderScale)
	}
}

func TestWithChain(t *testing.T) {
	base := DefaultOptions()
	opts := base.
		WithCalibration(600, 6.0).
		WithShoulderScale(1.3).
		WithMinVisibility(0.6).
		WithTolerance(3).
		WithMaxWorkers(2)

	if opts.FocalLengthPx != 600 || opts.RealInterocularCm != 6.0 {
		t.Errorf("Expected calibration 600/6.0, got %f/%f", opts.FocalLengthPx, opts.RealInterocularCm)
	}
	if opts.ShoulderScale != 1.3 {
		t.Errorf("Expected ShoulderScale 1.3, got %f", opts.ShoulderScale)
	}
	if opts.MinVisibility != 0.6 {
		t.Errorf("Expected MinVisibility 0.6, got %f", opts.MinVisibility)
	}
	if opts.ClassificationToleranceCm != 3 {
		t.Errorf("Expected tolerance 3, got %f", opts.ClassificationToleranceCm)
	}
	if opts.MaxWorkers != 2 {
		t.Errorf("Expected MaxWorkers 2, got %d", opts.MaxWorkers)
	}
	if base.FocalLengthPx != 500 {
		t.Error("Expected With* methods not to modify the receiver")
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"zero focal length", DefaultOptions().WithCalibration(0, 6.3)},
		{"negative interocular", DefaultOptions().WithCalibration(500, -1)},
		{"zero shoulder scale", DefaultOptions().WithShoulderScale(0)},
		{"visibility above one", DefaultOptions().WithMinVisibility(1.5)},
		{"negative tolerance", DefaultOptions().WithTolerance(-1)},
		{"infinite tolerance", DefaultOptions().WithTolerance(math.Inf(1))},
		{"NaN tolerance", DefaultOptions().WithTolerance(math.NaN())},
		{"negative workers", DefaultOptions().WithMaxWorkers(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.Validate(); err == nil {
				t.Errorf("Expected %s to be invalid", tt.name)
			}
		})
	}
}

func TestPresetOptions(t *testing.T) {
	tests := []struct {
		name    string
		want    Options
		wantErr bool
	}{
		{"", DefaultOptions(), false},
		{"default", DefaultOptions(), false},
		{"Strict", StrictOptions(), false},
		{"uncorrected", UncorrectedOptions(), false},
		{"fisheye", Options{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PresetOptions(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("PresetOptions(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("PresetOptions(%q) = %+v, want %+v", tt.name, got, tt.want)
			}
		})
	}
}
