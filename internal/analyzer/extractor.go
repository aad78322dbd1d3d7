package analyzer

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/anime-shed/body-measure-go/pkg/geometry"
	"github.com/anime-shed/body-measure-go/pkg/models"
)

// Extraction is the outcome of measuring one frame. Exactly one of
// Measurement and Rejection is set.
type Extraction struct {
	Measurement *models.Measurement
	Rejection   *models.Rejection
}

// Accepted reports whether the frame produced a measurement.
func (e Extraction) Accepted() bool {
	return e.Measurement != nil
}

// LandmarkExtractor measures frames with a pinhole camera model. It holds
// no per-frame state and is safe for concurrent use.
type LandmarkExtractor struct {
	opts       Options
	classifier Classifier
}

// NewExtractor creates an extractor. The classifier labels every accepted
// frame.
func NewExtractor(opts Options, classifier Classifier) (*LandmarkExtractor, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid extractor options: %w", err)
	}
	if classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	return &LandmarkExtractor{opts: opts, classifier: classifier}, nil
}

// Options returns the calibration in use.
func (e *LandmarkExtractor) Options() Options {
	return e.opts
}

// Extract measures a single frame. width and height are the pixel size of
// the image the landmarks were normalized against.
func (e *LandmarkExtractor) Extract(frame models.LandmarkFrame, width, height int) Extraction {
	var missing []string
	for _, j := range requiredJoints {
		if j.Of(frame) == nil {
			missing = append(missing, j.String())
		}
	}
	if len(missing) > 0 {
		return reject(models.RejectionLandmarksMissing,
			"required landmarks missing: "+strings.Join(missing, ", "),
			"Step into view so your face, shoulders and hips are visible")
	}

	w, h := float64(width), float64(height)
	px := func(j Joint) geometry.Point {
		lm := j.Of(frame)
		return geometry.Point{X: lm.X * w, Y: lm.Y * h}
	}

	pixelIOD := geometry.Distance2D(px(JointLeftEye), px(JointRightEye))
	depthCm, ok := geometry.EstimateDepthCm(pixelIOD, e.opts.FocalLengthPx, e.opts.RealInterocularCm)
	if !ok {
		return reject(models.RejectionDepthUnavailable,
			"cannot estimate depth from eye landmarks",
			"Face the camera")
	}

	var hidden []string
	for _, j := range torsoJoints {
		if j.Of(frame).Visibility < e.opts.MinVisibility {
			hidden = append(hidden, j.String())
		}
	}
	if len(hidden) > 0 {
		return reject(models.RejectionLowVisibility,
			"subject not fully visible: "+strings.Join(hidden, ", "),
			"Move back until your shoulders and hips are in frame")
	}

	ls, rs := px(JointLeftShoulder), px(JointRightShoulder)
	lh, rh := px(JointLeftHip), px(JointRightHip)

	shoulderPx := geometry.Distance2D(ls, rs) * e.opts.ShoulderScale
	torsoPx := geometry.Distance2D(geometry.Midpoint(ls, rs), geometry.Midpoint(lh, rh))

	shoulderCm := geometry.PixelsToCm(shoulderPx, depthCm, e.opts.FocalLengthPx)
	torsoCm := geometry.PixelsToCm(torsoPx, depthCm, e.opts.FocalLengthPx)
	if !finite(shoulderCm) || !finite(torsoCm) {
		return reject(models.RejectionDepthUnavailable,
			"measurement out of range for estimated depth",
			"Face the camera")
	}

	return Extraction{Measurement: &models.Measurement{
		DistanceCm:      depthCm,
		ShoulderWidthCm: shoulderCm,
		TorsoHeightCm:   torsoCm,
		SizeLabel:       e.classifier.Classify(shoulderCm, torsoCm, e.opts.ClassificationToleranceCm),
	}}
}

// ExtractBatch extracts frames on a worker pool. Frames that were not
// reached before ctx was cancelled are left zero and ctx.Err() is returned.
func (e *LandmarkExtractor) ExtractBatch(ctx context.Context, frames []models.FrameRequest) ([]Extraction, error) {
	out := make([]Extraction, len(frames))
	if len(frames) == 0 {
		return out, nil
	}

	pool := NewWorkerPool(e.opts.MaxWorkers)
	pool.Start()
	defer pool.Close()

	for i := range frames {
		req := frames[i]
		slot := &out[i]
		pool.Submit(func() {
			if ctx.Err() != nil {
				return
			}
			*slot = e.Extract(req.Frame(), req.Width, req.Height)
		})
	}
	pool.Wait()

	return out, ctx.Err()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func reject(reason models.RejectionReason, message, hint string) Extraction {
	return Extraction{Rejection: &models.Rejection{
		Reason:  reason,
		Message: message,
		Hint:    hint,
	}}
}
