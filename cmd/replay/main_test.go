package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/anime-shed/body-measure-go/pkg/models"
)

func TestReadFrames(t *testing.T) {
	input := `# recorded 2025-03-01
{"offset_ms": 0, "frame": {"width": 640, "height": 480, "landmarks": []}}

{"offset_ms": 33, "frame": {"width": 640, "height": 480, "landmarks": [null, {"x": 0.5, "y": 0.5, "visibility": 0.9}]}}
`
	frames, err := readFrames(strings.NewReader(input))
	if err != nil {
		t.Fatalf("readFrames() error = %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("Expected 2 frames, got %d", len(frames))
	}
	if frames[1].OffsetMs != 33 || len(frames[1].Frame.Landmarks) != 2 || frames[1].Frame.Landmarks[0] != nil {
		t.Errorf("Unexpected second frame %+v", frames[1])
	}
}

func TestReadFrames_Errors(t *testing.T) {
	tests := map[string]string{
		"empty":      "\n# nothing\n",
		"bad json":   "{\"offset_ms\": 0}\n{oops}\n",
		"wrong type": `{"offset_ms": "soon"}`,
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := readFrames(strings.NewReader(input)); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestWriteResults(t *testing.T) {
	resp := &models.ReplayResponse{
		Results: []models.FrameResult{{Status: models.StatusProvisional}, {Status: models.StatusLocked}},
		Final:   &models.FinalMeasurement{Measurement: models.Measurement{SizeLabel: "L"}},
	}

	var buf bytes.Buffer
	if err := writeResults(&buf, resp, false); err != nil {
		t.Fatalf("writeResults() error = %v", err)
	}
	if n := strings.Count(buf.String(), "\n"); n != 2 {
		t.Errorf("Expected 2 lines, got %d", n)
	}

	buf.Reset()
	if err := writeResults(&buf, resp, true); err != nil {
		t.Fatalf("writeResults() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"size_label":"L"`) {
		t.Errorf("Expected final measurement, got %s", buf.String())
	}

	buf.Reset()
	if err := writeResults(&buf, &models.ReplayResponse{}, true); err != nil {
		t.Fatalf("writeResults() error = %v", err)
	}
	if !strings.Contains(buf.String(), "unlocked") {
		t.Errorf("Expected unlocked summary, got %s", buf.String())
	}
}
