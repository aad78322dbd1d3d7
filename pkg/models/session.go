package models

import "time"

// SessionInfo is returned when a measurement session starts.
type SessionInfo struct {
	ID        string    `json:"id"`
	Phase     string    `json:"phase"`
	StartedAt time.Time `json:"started_at"`
}

// SessionSnapshot is a read-only view of a session's convergence state.
type SessionSnapshot struct {
	ID              string            `json:"id"`
	Phase           string            `json:"phase"`
	StartedAt       time.Time         `json:"started_at"`
	LastActivity    time.Time         `json:"last_activity"`
	FramesProcessed int               `json:"frames_processed"`
	FramesRejected  int               `json:"frames_rejected"`
	Progress        Progress          `json:"progress"`
	LastProvisional *Measurement      `json:"last_provisional,omitempty"`
	Final           *FinalMeasurement `json:"final,omitempty"`
}

// StoredResult is a locked measurement persisted by the result repository.
type StoredResult struct {
	ID                 string     `json:"id"`
	SessionID          string     `json:"session_id"`
	LockedAt           time.Time  `json:"locked_at"`
	DistanceCm         float64    `json:"distance_cm"`
	ShoulderWidthCm    float64    `json:"shoulder_width_cm"`
	RawShoulderWidthCm float64    `json:"raw_shoulder_width_cm"`
	TorsoHeightCm      float64    `json:"torso_height_cm"`
	SizeLabel          string     `json:"size_label"`
	LockSignal         LockSignal `json:"lock_signal"`
}

// NewStoredResult flattens a final measurement for persistence.
func NewStoredResult(id, sessionID string, final FinalMeasurement) *StoredResult {
	return &StoredResult{
		ID:                 id,
		SessionID:          sessionID,
		LockedAt:           final.LockedAt,
		DistanceCm:         final.DistanceCm,
		ShoulderWidthCm:    final.ShoulderWidthCm,
		RawShoulderWidthCm: final.RawShoulderWidthCm,
		TorsoHeightCm:      final.TorsoHeightCm,
		SizeLabel:          final.SizeLabel,
		LockSignal:         final.LockSignal,
	}
}
