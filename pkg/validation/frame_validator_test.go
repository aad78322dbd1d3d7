package validation

import (
	"math"
	"testing"

	apperrors "github.com/anime-shed/body-measure-go/internal/errors"
	"github.com/anime-shed/body-measure-go/pkg/models"
)

func frameWith(landmarks ...*models.Landmark) models.FrameRequest {
	return models.FrameRequest{Width: 640, Height: 480, Landmarks: landmarks}
}

func TestValidateFrame(t *testing.T) {
	validator := NewFrameValidator()

	tests := []struct {
		name    string
		req     models.FrameRequest
		wantErr bool
	}{
		{"valid", frameWith(&models.Landmark{X: 0.5, Y: 0.5, Visibility: 0.9}), false},
		{"nil landmarks allowed", frameWith(nil, &models.Landmark{X: 0.1, Y: 0.2, Visibility: 1}), false},
		{"empty frame", frameWith(), false},
		{"slightly off frame", frameWith(&models.Landmark{X: 1.2, Y: -0.1, Visibility: 0.3}), false},
		{"zero width", models.FrameRequest{Width: 0, Height: 480}, true},
		{"oversized", models.FrameRequest{Width: 100000, Height: 480}, true},
		{"NaN coordinate", frameWith(&models.Landmark{X: math.NaN(), Y: 0.5, Visibility: 1}), true},
		{"infinite visibility", frameWith(&models.Landmark{X: 0.5, Y: 0.5, Visibility: math.Inf(1)}), true},
		{"visibility above one", frameWith(&models.Landmark{X: 0.5, Y: 0.5, Visibility: 1.5}), true},
		{"far outside frame", frameWith(&models.Landmark{X: 25, Y: 0.5, Visibility: 1}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateFrame(tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateFrame() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestInspect_OffFrameIsWarning(t *testing.T) {
	issues := NewFrameValidator().Inspect(frameWith(&models.Landmark{X: 1.1, Y: 0.5, Visibility: 0.8}))
	if len(issues) != 1 {
		t.Fatalf("Expected 1 issue, got %d", len(issues))
	}
	if issues[0].Type != "off_frame" || issues[0].Severity != "warning" {
		t.Errorf("Expected off_frame warning, got %+v", issues[0])
	}
}

func TestInspect_LandmarkLimit(t *testing.T) {
	limits := DefaultFrameLimits()
	limits.MaxLandmarks = 2
	validator := NewFrameValidatorWithLimits(limits)

	req := frameWith(&models.Landmark{}, &models.Landmark{}, &models.Landmark{})
	if err := validator.ValidateFrame(req); err == nil {
		t.Fatal("Expected landmark limit to be enforced")
	}
}
