// Package geometry provides the plane geometry and pinhole-camera relations
// used to turn pixel distances into metric body measurements.
package geometry

import "math"

// Point is a position in pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance2D returns the Euclidean distance between two points.
func Distance2D(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// EstimateDepthCm estimates camera-to-subject distance from the pixel
// distance between the eyes using the pinhole relation
//
//	depth = realInterocularCm * focalLengthPx / pixelInterocular
//
// The second return value is false when the pixel distance is zero,
// negative or not a number, or when the result overflows; the depth is
// undefined in that case and the caller must skip the frame.
func EstimateDepthCm(pixelInterocular, focalLengthPx, realInterocularCm float64) (float64, bool) {
	if !(pixelInterocular > 0) || math.IsInf(pixelInterocular, 0) {
		return 0, false
	}
	depth := (realInterocularCm * focalLengthPx) / pixelInterocular
	if math.IsInf(depth, 0) || math.IsNaN(depth) {
		return 0, false
	}
	return depth, true
}

// PixelsToCm converts a pixel distance measured at the given depth into
// centimeters. Returns 0 when the focal length is not positive.
func PixelsToCm(pixelDistance, depthCm, focalLengthPx float64) float64 {
	if focalLengthPx <= 0 {
		return 0
	}
	return (pixelDistance * depthCm) / focalLengthPx
}
