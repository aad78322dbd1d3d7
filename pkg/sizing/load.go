package sizing

import (
	"encoding/json"
	"fmt"
	"io"
)

// chartDocument is the on-disk and over-the-wire chart format.
type chartDocument struct {
	Sizes []SizeRange `json:"sizes"`
}

// LoadChart decodes a JSON chart of the form {"sizes": [...]} and validates
// it.
func LoadChart(r io.Reader) (*Chart, error) {
	var doc chartDocument
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode size chart: %w", err)
	}
	return NewChart(doc.Sizes)
}

// MarshalJSON encodes the chart in the same format LoadChart reads.
func (c *Chart) MarshalJSON() ([]byte, error) {
	return json.Marshal(chartDocument{Sizes: c.ranges})
}
