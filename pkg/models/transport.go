package models

// FrameRequest carries one pose frame and the pixel size of the image the
// landmarks were normalized against.
type FrameRequest struct {
	Width     int         `json:"width" binding:"required,gt=0"`
	Height    int         `json:"height" binding:"required,gt=0"`
	Landmarks []*Landmark `json:"landmarks" binding:"required"`
}

// Frame returns the landmark frame carried by the request.
func (r FrameRequest) Frame() LandmarkFrame {
	return LandmarkFrame{Landmarks: r.Landmarks}
}

// TimedFrame is a recorded frame with its offset from the start of the
// recording.
type TimedFrame struct {
	OffsetMs int64        `json:"offset_ms"`
	Frame    FrameRequest `json:"frame"`
}

// ReplayRequest submits a recorded session for offline evaluation.
type ReplayRequest struct {
	Frames []TimedFrame `json:"frames" binding:"required"`
}

// ReplayResponse holds one result per replayed frame in timestamp order.
type ReplayResponse struct {
	Results []FrameResult     `json:"results"`
	Final   *FinalMeasurement `json:"final,omitempty"`
}

// ClassifyRequest asks for the size label of a known measurement.
type ClassifyRequest struct {
	ShoulderWidthCm float64  `json:"shoulder_cm" binding:"required,gt=0"`
	TorsoHeightCm   float64  `json:"torso_cm" binding:"required,gt=0"`
	ToleranceCm     *float64 `json:"tolerance_cm,omitempty"`
	Detailed        bool     `json:"detailed,omitempty"`
}

// ClassifyResponse is the result of a ClassifyRequest.
type ClassifyResponse struct {
	SizeLabel string             `json:"size_label"`
	Report    *MeasurementReport `json:"report,omitempty"`
}

// ManualPredictRequest carries self-reported body measurements.
type ManualPredictRequest struct {
	HeightCm float64 `json:"height_cm" binding:"required,gt=0"`
	WeightKg float64 `json:"weight_kg" binding:"required,gt=0"`
	ChestCm  float64 `json:"chest_cm,omitempty"`
	BodyType string  `json:"body_type" binding:"required"`
}

// ManualPredictResponse is the result of a ManualPredictRequest.
type ManualPredictResponse struct {
	SizeLabel string `json:"size_label"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}
