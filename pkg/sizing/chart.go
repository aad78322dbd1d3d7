// Package sizing maps body measurements onto garment size labels.
package sizing

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/arbovm/levenshtein"
)

// Unknown is returned when no size band matches within tolerance.
const Unknown = "Unknown"

// DefaultToleranceCm is the band expansion applied when the caller has no
// preference.
const DefaultToleranceCm = 4.0

var (
	ErrEmptyChart     = errors.New("size chart has no ranges")
	ErrDuplicateLabel = errors.New("size chart has duplicate label")
	ErrInvalidRange   = errors.New("size range is invalid")
)

// SizeRange is one row of a size chart.
type SizeRange struct {
	Label         string  `json:"label"`
	ShoulderMinCm float64 `json:"shoulder_min_cm"`
	ShoulderMaxCm float64 `json:"shoulder_max_cm"`
	TorsoMinCm    float64 `json:"torso_min_cm"`
	TorsoMaxCm    float64 `json:"torso_max_cm"`
}

// Midpoint returns the center of the band.
func (r SizeRange) Midpoint() (shoulderCm, torsoCm float64) {
	return (r.ShoulderMinCm + r.ShoulderMaxCm) / 2, (r.TorsoMinCm + r.TorsoMaxCm) / 2
}

// Contains reports whether the point lies within the band expanded by
// toleranceCm on both dimensions.
func (r SizeRange) Contains(shoulderCm, torsoCm, toleranceCm float64) bool {
	return shoulderCm >= r.ShoulderMinCm-toleranceCm &&
		shoulderCm <= r.ShoulderMaxCm+toleranceCm &&
		torsoCm >= r.TorsoMinCm-toleranceCm &&
		torsoCm <= r.TorsoMaxCm+toleranceCm
}

// DistanceTo returns the Euclidean distance from the point to the band's
// midpoint.
func (r SizeRange) DistanceTo(shoulderCm, torsoCm float64) float64 {
	ms, mt := r.Midpoint()
	return math.Hypot(shoulderCm-ms, torsoCm-mt)
}

func (r SizeRange) validate() error {
	if strings.TrimSpace(r.Label) == "" {
		return fmt.Errorf("%w: empty label", ErrInvalidRange)
	}
	for _, v := range []float64{r.ShoulderMinCm, r.ShoulderMaxCm, r.TorsoMinCm, r.TorsoMaxCm} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s has a non-finite or negative bound", ErrInvalidRange, r.Label)
		}
	}
	if r.ShoulderMinCm > r.ShoulderMaxCm {
		return fmt.Errorf("%w: %s shoulder min %.1f > max %.1f", ErrInvalidRange, r.Label, r.ShoulderMinCm, r.ShoulderMaxCm)
	}
	if r.TorsoMinCm > r.TorsoMaxCm {
		return fmt.Errorf("%w: %s torso min %.1f > max %.1f", ErrInvalidRange, r.Label, r.TorsoMinCm, r.TorsoMaxCm)
	}
	return nil
}

// Candidate is a size band that matched a measurement within tolerance.
type Candidate struct {
	Range      SizeRange `json:"range"`
	DistanceCm float64   `json:"distance_cm"`
}

// Chart is an immutable, ordered set of size ranges. It is safe for
// concurrent use.
type Chart struct {
	ranges []SizeRange
}

// NewChart validates the ranges and returns a chart holding a copy of them.
func NewChart(ranges []SizeRange) (*Chart, error) {
	if len(ranges) == 0 {
		return nil, ErrEmptyChart
	}
	seen := make(map[string]struct{}, len(ranges))
	for _, r := range ranges {
		if err := r.validate(); err != nil {
			return nil, err
		}
		key := strings.ToUpper(r.Label)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLabel, r.Label)
		}
		seen[key] = struct{}{}
	}
	cp := make([]SizeRange, len(ranges))
	copy(cp, ranges)
	return &Chart{ranges: cp}, nil
}

// DefaultChart returns the built-in seven band chart, XS through XXXL.
func DefaultChart() *Chart {
	return &Chart{ranges: []SizeRange{
		{Label: "XS", ShoulderMinCm: 38, ShoulderMaxCm: 40, TorsoMinCm: 48, TorsoMaxCm: 50},
		{Label: "S", ShoulderMinCm: 40, ShoulderMaxCm: 42, TorsoMinCm: 50, TorsoMaxCm: 52},
		{Label: "M", ShoulderMinCm: 42, ShoulderMaxCm: 44, TorsoMinCm: 52, TorsoMaxCm: 54},
		{Label: "L", ShoulderMinCm: 44, ShoulderMaxCm: 46, TorsoMinCm: 54, TorsoMaxCm: 56},
		{Label: "XL", ShoulderMinCm: 46, ShoulderMaxCm: 48, TorsoMinCm: 56, TorsoMaxCm: 58},
		{Label: "XXL", ShoulderMinCm: 48, ShoulderMaxCm: 50, TorsoMinCm: 58, TorsoMaxCm: 60},
		{Label: "XXXL", ShoulderMinCm: 50, ShoulderMaxCm: 52, TorsoMinCm: 60, TorsoMaxCm: 62},
	}}
}

// Ranges returns a copy of the chart rows in chart order.
func (c *Chart) Ranges() []SizeRange {
	cp := make([]SizeRange, len(c.ranges))
	copy(cp, c.ranges)
	return cp
}

// Match returns every range whose tolerance-expanded band contains the
// point, nearest midpoint first. Ties keep chart order.
func (c *Chart) Match(shoulderCm, torsoCm, toleranceCm float64) []Candidate {
	var out []Candidate
	for _, r := range c.ranges {
		if !r.Contains(shoulderCm, torsoCm, toleranceCm) {
			continue
		}
		out = append(out, Candidate{Range: r, DistanceCm: r.DistanceTo(shoulderCm, torsoCm)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceCm < out[j].DistanceCm
	})
	return out
}

// Classify returns the label of the nearest matching range, or Unknown.
func (c *Chart) Classify(shoulderCm, torsoCm, toleranceCm float64) string {
	matches := c.Match(shoulderCm, torsoCm, toleranceCm)
	if len(matches) == 0 {
		return Unknown
	}
	return matches[0].Range.Label
}

// Lookup finds a range by label, ignoring case.
func (c *Chart) Lookup(label string) (SizeRange, bool) {
	for _, r := range c.ranges {
		if strings.EqualFold(r.Label, strings.TrimSpace(label)) {
			return r, true
		}
	}
	return SizeRange{}, false
}

// Suggest returns the chart label closest to label by edit distance, or an
// empty string when nothing is within two edits.
func (c *Chart) Suggest(label string) string {
	target := strings.ToUpper(strings.TrimSpace(label))
	best, bestDist := "", 3
	for _, r := range c.ranges {
		d := levenshtein.Distance(target, strings.ToUpper(r.Label))
		if d < bestDist {
			best, bestDist = r.Label, d
		}
	}
	return best
}
