package analyzer

import (
	"context"

	"github.com/anime-shed/body-measure-go/pkg/models"
)

// Extractor turns one landmark frame into a provisional measurement or a
// rejection.
type Extractor interface {
	Extract(frame models.LandmarkFrame, width, height int) Extraction

	// ExtractBatch extracts independent frames concurrently. Results are in
	// input order.
	ExtractBatch(ctx context.Context, frames []models.FrameRequest) ([]Extraction, error)
}

// Classifier assigns a size label to a shoulder/torso pair.
type Classifier interface {
	Classify(shoulderCm, torsoCm, toleranceCm float64) string
}
