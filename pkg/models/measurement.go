package models

import "time"

// Landmark is one pose keypoint in normalized image coordinates.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z,omitempty"`
	Visibility float64 `json:"visibility"`
}

// LandmarkFrame is the pose estimator's output for a single video frame.
// A nil entry marks a landmark the estimator did not produce.
type LandmarkFrame struct {
	Landmarks []*Landmark `json:"landmarks"`
}

// Measurement is a metric body measurement with its size label.
type Measurement struct {
	DistanceCm      float64 `json:"distance_cm"`
	ShoulderWidthCm float64 `json:"shoulder_width_cm"`
	TorsoHeightCm   float64 `json:"torso_height_cm"`
	SizeLabel       string  `json:"size_label"`
}

// LockSignal names the convergence signal that produced a final measurement.
type LockSignal string

const (
	LockSignalStillness   LockSignal = "stillness"
	LockSignalRepeatLabel LockSignal = "repeat_label"
	LockSignalTimer       LockSignal = "timer"
)

// FinalMeasurement is the measurement committed when a session locks.
// ShoulderWidthCm includes OffsetCm; RawShoulderWidthCm does not.
type FinalMeasurement struct {
	Measurement
	RawShoulderWidthCm float64    `json:"raw_shoulder_width_cm"`
	OffsetCm           float64    `json:"offset_cm"`
	LockSignal         LockSignal `json:"lock_signal"`
	LockedAt           time.Time  `json:"locked_at"`
}

// RejectionReason classifies why a frame produced no measurement.
type RejectionReason string

const (
	RejectionLandmarksMissing RejectionReason = "landmarks_missing"
	RejectionDepthUnavailable RejectionReason = "depth_unavailable"
	RejectionLowVisibility    RejectionReason = "low_visibility"
)

// Rejection describes a frame that could not be measured. All rejections
// are transient; the next frame may succeed.
type Rejection struct {
	Reason  RejectionReason `json:"reason"`
	Message string          `json:"message"`
	Hint    string          `json:"hint,omitempty"`
}

// ResultStatus discriminates FrameResult.
type ResultStatus string

const (
	StatusProvisional ResultStatus = "provisional"
	StatusRejected    ResultStatus = "rejected"
	StatusLocked      ResultStatus = "locked"
)

// Progress reports how close a session is to locking.
type Progress struct {
	WindowSize      int      `json:"window_size"`
	StdDevCm        *float64 `json:"std_dev_cm,omitempty"`
	Still           bool     `json:"still"`
	HoldRemainingMs int64    `json:"hold_remaining_ms"`
	RepeatLabel     string   `json:"repeat_label,omitempty"`
	RepeatCount     int      `json:"repeat_count"`
	RepeatThreshold int      `json:"repeat_threshold"`
}

// FrameResult is the per-frame output: exactly one of Provisional,
// Rejection or Final is set, according to Status.
type FrameResult struct {
	Status      ResultStatus      `json:"status"`
	Phase       string            `json:"phase"`
	Locked      bool              `json:"locked"`
	Provisional *Measurement      `json:"provisional,omitempty"`
	Rejection   *Rejection        `json:"rejection,omitempty"`
	Final       *FinalMeasurement `json:"final,omitempty"`
	Progress    *Progress         `json:"progress,omitempty"`
}
