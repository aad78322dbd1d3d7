package models

import "time"

// MeasurementReport explains how a measurement was classified.
type MeasurementReport struct {
	GeneratedAt  time.Time       `json:"generated_at"`
	Measurement  Measurement     `json:"measurement"`
	Final        bool            `json:"final"`
	ToleranceCm  float64         `json:"tolerance_cm"`
	BestLabel    string          `json:"best_label"`
	Candidates   []SizeCandidate `json:"candidates"`
	Nearest      *SizeCandidate  `json:"nearest_outside_tolerance,omitempty"`
	Observations []string        `json:"observations,omitempty"`
}

// SizeCandidate describes one size band relative to a measurement.
// Margins are positive inside the unexpanded band and negative outside.
type SizeCandidate struct {
	Label            string  `json:"label"`
	DistanceCm       float64 `json:"distance_cm"`
	WithinBand       bool    `json:"within_band"`
	ShoulderMarginCm float64 `json:"shoulder_margin_cm"`
	TorsoMarginCm    float64 `json:"torso_margin_cm"`
}
