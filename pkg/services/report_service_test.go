package services

import (
	"strings"
	"testing"
	"time"

	"github.com/anime-shed/body-measure-go/pkg/models"
	"github.com/anime-shed/body-measure-go/pkg/sizing"
)

func newTestReportService() *ReportService {
	s := NewReportService(sizing.DefaultChart())
	s.now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func containsObservation(report *models.MeasurementReport, substr string) bool {
	for _, o := range report.Observations {
		if strings.Contains(o, substr) {
			return true
		}
	}
	return false
}

func TestBuildReport_CenterOfBand(t *testing.T) {
	s := newTestReportService()
	report := s.BuildReport(models.Measurement{ShoulderWidthCm: 43, TorsoHeightCm: 53, SizeLabel: "M"}, 4, false)

	if report.BestLabel != "M" {
		t.Fatalf("Expected best label M, got %s", report.BestLabel)
	}
	if len(report.Candidates) != 5 {
		t.Errorf("Expected 5 candidates (XS..XL), got %d", len(report.Candidates))
	}
	best := report.Candidates[0]
	if !best.WithinBand || best.DistanceCm != 0 || best.ShoulderMarginCm != 1 || best.TorsoMarginCm != 1 {
		t.Errorf("Unexpected best candidate: %+v", best)
	}
	if report.Nearest != nil {
		t.Error("Expected no nearest fallback when candidates exist")
	}
	if len(report.Observations) != 0 {
		t.Errorf("Expected no observations, got %v", report.Observations)
	}
	if !report.GeneratedAt.Equal(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected generated time %s", report.GeneratedAt)
	}
}

func TestBuildReport_BetweenSizes(t *testing.T) {
	s := newTestReportService()
	report := s.BuildReport(models.Measurement{ShoulderWidthCm: 44, TorsoHeightCm: 54}, 4, false)

	if report.BestLabel != "M" {
		t.Errorf("Expected chart order to keep M ahead of L, got %s", report.BestLabel)
	}
	if !containsObservation(report, "Between sizes M and L") {
		t.Errorf("Expected between-sizes observation, got %v", report.Observations)
	}
}

func TestBuildReport_ToleranceOnly(t *testing.T) {
	s := newTestReportService()
	report := s.BuildReport(models.Measurement{ShoulderWidthCm: 53, TorsoHeightCm: 61}, 4, true)

	if report.BestLabel != "XXXL" || !report.Final {
		t.Fatalf("Expected final XXXL report, got %s final=%v", report.BestLabel, report.Final)
	}
	best := report.Candidates[0]
	if best.WithinBand {
		t.Error("Expected XXXL to match only through tolerance")
	}
	if best.ShoulderMarginCm != -1 {
		t.Errorf("Expected shoulder margin -1, got %v", best.ShoulderMarginCm)
	}
	if !containsObservation(report, "matched only through") {
		t.Errorf("Expected tolerance observation, got %v", report.Observations)
	}
}

func TestBuildReport_NoMatch(t *testing.T) {
	s := newTestReportService()
	report := s.BuildReport(models.Measurement{ShoulderWidthCm: 70, TorsoHeightCm: 90}, 4, false)

	if report.BestLabel != sizing.Unknown {
		t.Errorf("Expected Unknown, got %s", report.BestLabel)
	}
	if len(report.Candidates) != 0 {
		t.Errorf("Expected no candidates, got %d", len(report.Candidates))
	}
	if report.Nearest == nil || report.Nearest.Label != "XXXL" {
		t.Fatalf("Expected nearest XXXL, got %+v", report.Nearest)
	}
	for _, want := range []string{"nearest is XXXL", "Shoulder width 70.0 cm is above", "Torso height 90.0 cm is above"} {
		if !containsObservation(report, want) {
			t.Errorf("Expected observation %q, got %v", want, report.Observations)
		}
	}
}

func TestBuildReport_LabelMismatch(t *testing.T) {
	s := newTestReportService()
	report := s.BuildReport(models.Measurement{ShoulderWidthCm: 43, TorsoHeightCm: 53, SizeLabel: "L"}, 4, false)

	if !containsObservation(report, "Recorded label L differs from M") {
		t.Errorf("Expected label mismatch observation, got %v", report.Observations)
	}
}
