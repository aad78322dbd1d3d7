package validation

import (
	"fmt"
	"math"
	"strings"

	apperrors "github.com/anime-shed/body-measure-go/internal/errors"
	"github.com/anime-shed/body-measure-go/pkg/models"
)

// FrameLimits bounds what an inbound frame may contain.
type FrameLimits struct {
	MaxWidth     int
	MaxHeight    int
	MaxLandmarks int

	// Normalized coordinates further than this outside [0,1] are treated
	// as garbage rather than an off-screen landmark.
	MaxCoordinateOverflow float64
}

// DefaultFrameLimits returns limits suitable for webcam and phone frames.
func DefaultFrameLimits() FrameLimits {
	return FrameLimits{
		MaxWidth:              8192,
		MaxHeight:             8192,
		MaxLandmarks:          543, // holistic layout: pose + face + hands
		MaxCoordinateOverflow: 1.0,
	}
}

// FrameIssue is a structural problem found in a frame.
type FrameIssue struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Severity string `json:"severity"` // "error", "warning"
	Index    int    `json:"index,omitempty"`
}

// FrameValidator checks the structure of inbound frames. It does not judge
// whether a frame is measurable; that is the extractor's job.
type FrameValidator struct {
	limits FrameLimits
}

// NewFrameValidator creates a frame validator with default limits
func NewFrameValidator() *FrameValidator {
	return &FrameValidator{limits: DefaultFrameLimits()}
}

// NewFrameValidatorWithLimits creates a frame validator with custom limits
func NewFrameValidatorWithLimits(limits FrameLimits) *FrameValidator {
	return &FrameValidator{limits: limits}
}

// Inspect returns every issue found in the request.
func (fv *FrameValidator) Inspect(req models.FrameRequest) []FrameIssue {
	var issues []FrameIssue

	if req.Width <= 0 || req.Height <= 0 {
		issues = append(issues, FrameIssue{
			Type:     "dimensions",
			Message:  fmt.Sprintf("frame dimensions must be positive (got %dx%d)", req.Width, req.Height),
			Severity: "error",
		})
	} else if req.Width > fv.limits.MaxWidth || req.Height > fv.limits.MaxHeight {
		issues = append(issues, FrameIssue{
			Type:     "dimensions",
			Message:  fmt.Sprintf("frame dimensions %dx%d exceed %dx%d", req.Width, req.Height, fv.limits.MaxWidth, fv.limits.MaxHeight),
			Severity: "error",
		})
	}

	if len(req.Landmarks) > fv.limits.MaxLandmarks {
		issues = append(issues, FrameIssue{
			Type:     "landmark_count",
			Message:  fmt.Sprintf("frame has %d landmarks, limit is %d", len(req.Landmarks), fv.limits.MaxLandmarks),
			Severity: "error",
		})
		return issues
	}

	lo, hi := -fv.limits.MaxCoordinateOverflow, 1+fv.limits.MaxCoordinateOverflow
	for i, lm := range req.Landmarks {
		if lm == nil {
			continue
		}
		if !finite(lm.X) || !finite(lm.Y) || !finite(lm.Z) || !finite(lm.Visibility) {
			issues = append(issues, FrameIssue{
				Type:     "non_finite",
				Message:  fmt.Sprintf("landmark %d has a non-finite value", i),
				Severity: "error",
				Index:    i,
			})
			continue
		}
		if lm.Visibility < 0 || lm.Visibility > 1 {
			issues = append(issues, FrameIssue{
				Type:     "visibility_range",
				Message:  fmt.Sprintf("landmark %d visibility %.3f outside [0,1]", i, lm.Visibility),
				Severity: "error",
				Index:    i,
			})
		}
		if lm.X < lo || lm.X > hi || lm.Y < lo || lm.Y > hi {
			issues = append(issues, FrameIssue{
				Type:     "coordinate_range",
				Message:  fmt.Sprintf("landmark %d at (%.3f, %.3f) is far outside the frame", i, lm.X, lm.Y),
				Severity: "error",
				Index:    i,
			})
		} else if lm.X < 0 || lm.X > 1 || lm.Y < 0 || lm.Y > 1 {
			issues = append(issues, FrameIssue{
				Type:     "off_frame",
				Message:  fmt.Sprintf("landmark %d is outside the visible frame", i),
				Severity: "warning",
				Index:    i,
			})
		}
	}

	return issues
}

// ValidateFrame returns a validation error when the request has any
// error-severity issue. Warnings are ignored.
func (fv *FrameValidator) ValidateFrame(req models.FrameRequest) error {
	var msgs []string
	for _, issue := range fv.Inspect(req) {
		if issue.Severity == "error" {
			msgs = append(msgs, issue.Message)
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	appErr := apperrors.NewValidationError("Malformed landmark frame", nil)
	appErr.Details = strings.Join(msgs, "; ")
	return appErr
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
