package sizing

import (
	"errors"
	"testing"
)

func TestPredictManual(t *testing.T) {
	tests := []struct {
		name    string
		in      ManualInput
		want    string
		wantErr error
	}{
		{"slim short light", ManualInput{HeightCm: 165, WeightKg: 60, BodyType: BodyTypeSlim}, "S", nil},
		{"slim tall light", ManualInput{HeightCm: 180, WeightKg: 68, BodyType: BodyTypeSlim}, "M", nil},
		{"slim short heavy", ManualInput{HeightCm: 165, WeightKg: 75, BodyType: BodyTypeSlim}, "L", nil},
		{"athletic narrow chest", ManualInput{HeightCm: 175, WeightKg: 75, ChestCm: 90, BodyType: BodyTypeAthletic}, "M", nil},
		{"athletic mid chest", ManualInput{HeightCm: 175, WeightKg: 75, ChestCm: 100, BodyType: BodyTypeAthletic}, "L", nil},
		{"athletic wide chest", ManualInput{HeightCm: 175, WeightKg: 75, ChestCm: 110, BodyType: BodyTypeAthletic}, "XL", nil},
		{"regular light", ManualInput{HeightCm: 175, WeightKg: 65, BodyType: BodyTypeRegular}, "M", nil},
		{"regular mid", ManualInput{HeightCm: 175, WeightKg: 80, BodyType: BodyTypeRegular}, "L", nil},
		{"regular heavy", ManualInput{HeightCm: 175, WeightKg: 95, BodyType: BodyTypeRegular}, "XL", nil},
		{"case insensitive", ManualInput{HeightCm: 175, WeightKg: 95, BodyType: "Regular"}, "XL", nil},
		{"unknown body type", ManualInput{HeightCm: 175, WeightKg: 95, BodyType: "round"}, "", ErrUnknownBodyType},
		{"missing height", ManualInput{WeightKg: 95, BodyType: BodyTypeRegular}, "", ErrMissingMeasurement},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PredictManual(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("PredictManual() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("PredictManual() = %q, want %q", got, tt.want)
			}
		})
	}
}
