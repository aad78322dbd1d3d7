package analyzer

import (
	"context"
	"math"
	"testing"

	"github.com/anime-shed/body-measure-go/pkg/models"
	"github.com/anime-shed/body-measure-go/pkg/sizing"
)

const (
	testWidth  = 640
	testHeight = 480
)

// poseAt builds a full pose frame from pixel positions. The subject stands
// 100 cm from the camera (31.5 px between the eyes) with 150 px between
// the shoulders and 265 px from shoulder line to hip line.
func poseAt(visibility float64) []*models.Landmark {
	lms := make([]*models.Landmark, PoseLandmarkCount)
	for i := range lms {
		lms[i] = &models.Landmark{X: 0.5, Y: 0.5, Visibility: 0.9}
	}
	set := func(j Joint, x, y float64) {
		lms[j] = &models.Landmark{X: x / testWidth, Y: y / testHeight, Visibility: visibility}
	}
	set(JointLeftEye, 304.25, 80)
	set(JointRightEye, 335.75, 80)
	set(JointLeftShoulder, 245, 150)
	set(JointRightShoulder, 395, 150)
	set(JointLeftHip, 270, 415)
	set(JointRightHip, 370, 415)
	return lms
}

func newTestExtractor(t *testing.T) *LandmarkExtractor {
	t.Helper()
	e, err := NewExtractor(DefaultOptions(), sizing.DefaultChart())
	if err != nil {
		t.Fatalf("NewExtractor() error = %v", err)
	}
	return e
}

func TestExtract_ValidFrame(t *testing.T) {
	e := newTestExtractor(t)

	got := e.Extract(models.LandmarkFrame{Landmarks: poseAt(0.95)}, testWidth, testHeight)
	if !got.Accepted() {
		t.Fatalf("Expected frame to be accepted, got rejection %+v", got.Rejection)
	}
	m := got.Measurement
	if math.Abs(m.DistanceCm-100) > 1e-6 {
		t.Errorf("Expected distance 100 cm, got %f", m.DistanceCm)
	}
	if math.Abs(m.ShoulderWidthCm-44.4) > 1e-6 {
		t.Errorf("Expected shoulder width 44.4 cm, got %f", m.ShoulderWidthCm)
	}
	if math.Abs(m.TorsoHeightCm-53) > 1e-6 {
		t.Errorf("Expected torso height 53 cm, got %f", m.TorsoHeightCm)
	}
	if m.SizeLabel != "M" {
		t.Errorf("Expected size M, got %s", m.SizeLabel)
	}
}

func TestExtract_MissingLandmarks(t *testing.T) {
	e := newTestExtractor(t)

	truncated := poseAt(0.95)[:20]
	got := e.Extract(models.LandmarkFrame{Landmarks: truncated}, testWidth, testHeight)
	if got.Accepted() || got.Rejection.Reason != models.RejectionLandmarksMissing {
		t.Fatalf("Expected landmarks_missing for truncated frame, got %+v", got)
	}

	withHole := poseAt(0.95)
	withHole[JointRightEye] = nil
	got = e.Extract(models.LandmarkFrame{Landmarks: withHole}, testWidth, testHeight)
	if got.Accepted() || got.Rejection.Reason != models.RejectionLandmarksMissing {
		t.Fatalf("Expected landmarks_missing for nil eye, got %+v", got)
	}

	got = e.Extract(models.LandmarkFrame{}, testWidth, testHeight)
	if got.Accepted() || got.Rejection.Reason != models.RejectionLandmarksMissing {
		t.Fatalf("Expected landmarks_missing for empty frame, got %+v", got)
	}
}

func TestExtract_DepthUnavailable(t *testing.T) {
	e := newTestExtractor(t)

	lms := poseAt(0.95)
	*lms[JointRightEye] = *lms[JointLeftEye]
	got := e.Extract(models.LandmarkFrame{Landmarks: lms}, testWidth, testHeight)
	if got.Accepted() || got.Rejection.Reason != models.RejectionDepthUnavailable {
		t.Fatalf("Expected depth_unavailable for coincident eyes, got %+v", got)
	}

	got = e.Extract(models.LandmarkFrame{Landmarks: poseAt(0.95)}, 0, 0)
	if got.Accepted() || got.Rejection.Reason != models.RejectionDepthUnavailable {
		t.Fatalf("Expected depth_unavailable for zero canvas, got %+v", got)
	}
}

func TestExtract_NonFiniteMeasurement(t *testing.T) {
	e := newTestExtractor(t)

	// Eyes a subnormal distance apart overflow the depth estimate.
	lms := poseAt(0.95)
	lms[JointLeftEye].X = 0
	lms[JointRightEye].X = 5e-324
	lms[JointRightEye].Y = lms[JointLeftEye].Y
	got := e.Extract(models.LandmarkFrame{Landmarks: lms}, testWidth, testHeight)
	if got.Accepted() || got.Rejection.Reason != models.RejectionDepthUnavailable {
		t.Fatalf("Expected depth_unavailable for overflowing depth, got %+v", got)
	}

	// Finite depth but a shoulder span that overflows in pixel space.
	lms = poseAt(0.95)
	lms[JointRightShoulder].X = 1e308
	got = e.Extract(models.LandmarkFrame{Landmarks: lms}, testWidth, testHeight)
	if got.Accepted() || got.Rejection.Reason != models.RejectionDepthUnavailable {
		t.Fatalf("Expected depth_unavailable for overflowing shoulder width, got %+v", got)
	}
}

func TestExtract_VisibilityGate(t *testing.T) {
	e := newTestExtractor(t)

	for _, j := range torsoJoints {
		t.Run(j.String(), func(t *testing.T) {
			lms := poseAt(0.95)
			lms[j].Visibility = 0.49
			got := e.Extract(models.LandmarkFrame{Landmarks: lms}, testWidth, testHeight)
			if got.Accepted() || got.Rejection.Reason != models.RejectionLowVisibility {
				t.Fatalf("Expected low_visibility at 0.49, got %+v", got)
			}
			if got.Rejection.Hint == "" {
				t.Error("Expected a user hint on low visibility")
			}

			lms[j].Visibility = 0.50
			got = e.Extract(models.LandmarkFrame{Landmarks: lms}, testWidth, testHeight)
			if !got.Accepted() {
				t.Fatalf("Expected acceptance at 0.50, got %+v", got.Rejection)
			}
		})
	}
}

func TestExtract_EyeVisibilityNotGated(t *testing.T) {
	e := newTestExtractor(t)

	lms := poseAt(0.95)
	lms[JointLeftEye].Visibility = 0.1
	got := e.Extract(models.LandmarkFrame{Landmarks: lms}, testWidth, testHeight)
	if !got.Accepted() {
		t.Fatalf("Expected acceptance with a low-visibility eye, got %+v", got.Rejection)
	}
}

func TestExtract_ShoulderScale(t *testing.T) {
	e, err := NewExtractor(UncorrectedOptions(), sizing.DefaultChart())
	if err != nil {
		t.Fatalf("NewExtractor() error = %v", err)
	}
	got := e.Extract(models.LandmarkFrame{Landmarks: poseAt(0.95)}, testWidth, testHeight)
	if !got.Accepted() {
		t.Fatalf("Expected acceptance, got %+v", got.Rejection)
	}
	if math.Abs(got.Measurement.ShoulderWidthCm-30) > 1e-6 {
		t.Errorf("Expected unscaled shoulder width 30 cm, got %f", got.Measurement.ShoulderWidthCm)
	}
}

func TestNewExtractor_InvalidOptions(t *testing.T) {
	if _, err := NewExtractor(DefaultOptions().WithCalibration(0, 6.3), sizing.DefaultChart()); err == nil {
		t.Error("Expected error for zero focal length")
	}
	if _, err := NewExtractor(DefaultOptions(), nil); err == nil {
		t.Error("Expected error for nil classifier")
	}
}

func TestExtractBatch(t *testing.T) {
	e := newTestExtractor(t)

	good := models.FrameRequest{Width: testWidth, Height: testHeight, Landmarks: poseAt(0.95)}
	bad := models.FrameRequest{Width: testWidth, Height: testHeight, Landmarks: poseAt(0.2)}
	frames := []models.FrameRequest{good, bad, good, bad, good}

	got, err := e.ExtractBatch(context.Background(), frames)
	if err != nil {
		t.Fatalf("ExtractBatch() error = %v", err)
	}
	if len(got) != len(frames) {
		t.Fatalf("Expected %d results, got %d", len(frames), len(got))
	}
	for i, res := range got {
		wantAccepted := i%2 == 0
		if res.Accepted() != wantAccepted {
			t.Errorf("result %d accepted = %v, want %v", i, res.Accepted(), wantAccepted)
		}
	}
}

func TestExtractBatch_Cancelled(t *testing.T) {
	e := newTestExtractor(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	frames := []models.FrameRequest{{Width: testWidth, Height: testHeight, Landmarks: poseAt(0.95)}}
	got, err := e.ExtractBatch(ctx, frames)
	if err == nil {
		t.Fatal("Expected context error")
	}
	if got[0].Accepted() || got[0].Rejection != nil {
		t.Errorf("Expected untouched result after cancellation, got %+v", got[0])
	}
}
