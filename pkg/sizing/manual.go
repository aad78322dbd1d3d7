package sizing

import (
	"errors"
	"strings"
)

// BodyType selects the rule set used by PredictManual.
type BodyType string

const (
	BodyTypeSlim     BodyType = "slim"
	BodyTypeAthletic BodyType = "athletic"
	BodyTypeRegular  BodyType = "regular"
)

var (
	ErrUnknownBodyType    = errors.New("unknown body type")
	ErrMissingMeasurement = errors.New("height and weight are required")
)

// ManualInput holds self-reported measurements.
type ManualInput struct {
	HeightCm float64  `json:"height_cm"`
	WeightKg float64  `json:"weight_kg"`
	ChestCm  float64  `json:"chest_cm,omitempty"`
	BodyType BodyType `json:"body_type"`
}

// PredictManual estimates a size from self-reported height, weight and
// chest without any camera measurement.
func PredictManual(in ManualInput) (string, error) {
	if in.HeightCm <= 0 || in.WeightKg <= 0 {
		return "", ErrMissingMeasurement
	}

	switch BodyType(strings.ToLower(string(in.BodyType))) {
	case BodyTypeSlim:
		switch {
		case in.HeightCm < 170 && in.WeightKg < 65:
			return "S", nil
		case in.HeightCm >= 170 && in.WeightKg < 70:
			return "M", nil
		default:
			return "L", nil
		}
	case BodyTypeAthletic:
		switch {
		case in.ChestCm < 95:
			return "M", nil
		case in.ChestCm < 105:
			return "L", nil
		default:
			return "XL", nil
		}
	case BodyTypeRegular:
		switch {
		case in.WeightKg < 70:
			return "M", nil
		case in.WeightKg < 85:
			return "L", nil
		default:
			return "XL", nil
		}
	}
	return "", ErrUnknownBodyType
}
