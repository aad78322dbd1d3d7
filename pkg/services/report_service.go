package services

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/anime-shed/body-measure-go/pkg/models"
	"github.com/anime-shed/body-measure-go/pkg/sizing"
)

// Two candidates closer than this to each other are reported as a tie.
const betweenSizesCm = 0.5

// ReportService explains how a measurement maps onto a size chart
type ReportService struct {
	chart *sizing.Chart
	now   func() time.Time
}

// NewReportService creates a report service over chart
func NewReportService(chart *sizing.Chart) *ReportService {
	return &ReportService{
		chart: chart,
		now:   time.Now,
	}
}

// BuildReport lists every size band that matches m within toleranceCm, with
// margins to the unexpanded band edges. When nothing matches, the nearest
// band is reported instead.
func (s *ReportService) BuildReport(m models.Measurement, toleranceCm float64, final bool) *models.MeasurementReport {
	shoulder, torso := m.ShoulderWidthCm, m.TorsoHeightCm

	report := &models.MeasurementReport{
		GeneratedAt:  s.now().UTC(),
		Measurement:  m,
		Final:        final,
		ToleranceCm:  toleranceCm,
		BestLabel:    sizing.Unknown,
		Candidates:   make([]models.SizeCandidate, 0),
		Observations: make([]string, 0),
	}

	for _, c := range s.chart.Match(shoulder, torso, toleranceCm) {
		report.Candidates = append(report.Candidates, candidate(c.Range, shoulder, torso))
	}

	if len(report.Candidates) == 0 {
		nearest := s.nearest(shoulder, torso)
		report.Nearest = &nearest
		report.Observations = append(report.Observations,
			fmt.Sprintf("No size matches within %.1f cm; nearest is %s at %.1f cm",
				toleranceCm, nearest.Label, nearest.DistanceCm))
		report.Observations = append(report.Observations, s.outOfChart(shoulder, torso)...)
		return report
	}

	best := report.Candidates[0]
	report.BestLabel = best.Label
	if !best.WithinBand {
		report.Observations = append(report.Observations,
			fmt.Sprintf("%s matched only through the %.1f cm tolerance", best.Label, toleranceCm))
	}
	if len(report.Candidates) > 1 {
		next := report.Candidates[1]
		if next.DistanceCm-best.DistanceCm < betweenSizesCm {
			report.Observations = append(report.Observations,
				fmt.Sprintf("Between sizes %s and %s", best.Label, next.Label))
		}
	}
	if m.SizeLabel != "" && m.SizeLabel != report.BestLabel {
		report.Observations = append(report.Observations,
			fmt.Sprintf("Recorded label %s differs from %s at this tolerance", m.SizeLabel, report.BestLabel))
	}
	return report
}

func (s *ReportService) nearest(shoulder, torso float64) models.SizeCandidate {
	ranges := s.chart.Ranges()
	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].DistanceTo(shoulder, torso) < ranges[j].DistanceTo(shoulder, torso)
	})
	return candidate(ranges[0], shoulder, torso)
}

func (s *ReportService) outOfChart(shoulder, torso float64) []string {
	ranges := s.chart.Ranges()
	minS, maxS := math.Inf(1), math.Inf(-1)
	minT, maxT := math.Inf(1), math.Inf(-1)
	for _, r := range ranges {
		minS, maxS = math.Min(minS, r.ShoulderMinCm), math.Max(maxS, r.ShoulderMaxCm)
		minT, maxT = math.Min(minT, r.TorsoMinCm), math.Max(maxT, r.TorsoMaxCm)
	}

	var out []string
	switch {
	case shoulder < minS:
		out = append(out, fmt.Sprintf("Shoulder width %.1f cm is below the smallest size", shoulder))
	case shoulder > maxS:
		out = append(out, fmt.Sprintf("Shoulder width %.1f cm is above the largest size", shoulder))
	}
	switch {
	case torso < minT:
		out = append(out, fmt.Sprintf("Torso height %.1f cm is below the smallest size", torso))
	case torso > maxT:
		out = append(out, fmt.Sprintf("Torso height %.1f cm is above the largest size", torso))
	}
	return out
}

func candidate(r sizing.SizeRange, shoulder, torso float64) models.SizeCandidate {
	return models.SizeCandidate{
		Label:            r.Label,
		DistanceCm:       round1(r.DistanceTo(shoulder, torso)),
		WithinBand:       r.Contains(shoulder, torso, 0),
		ShoulderMarginCm: round1(math.Min(shoulder-r.ShoulderMinCm, r.ShoulderMaxCm-shoulder)),
		TorsoMarginCm:    round1(math.Min(torso-r.TorsoMinCm, r.TorsoMaxCm-torso)),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
