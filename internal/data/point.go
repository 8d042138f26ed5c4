package data

import "math"

// Contains data of a Point Cloud Point, namely X,Y,Z coords and
// R,G,B color components
type Point struct {
	X float64
	Y float64
	Z float64
	R uint8
	G uint8
	B uint8
}

// Builds a new Point from the given coordinates and color values
func NewPoint(X, Y, Z float64, R, G, B uint8) Point {
	return Point{
		X: X,
		Y: Y,
		Z: Z,
		R: R,
		G: G,
		B: B,
	}
}

// Reports whether any coordinate of the point is NaN or Inf.
// Sensor drivers emit such points for pixels without a valid
// depth reading, they must be dropped before any spatial query.
func (p Point) HasInvalidCoords() bool {
	for _, v := range []float64{p.X, p.Y, p.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

// A point of the accumulated cloud. W is a transient per-round marker:
// 1.0 means the point was touched (blended or appended) by the frame
// currently being merged, 0.0 means stale. It carries no meaning
// between merge rounds.
type WeightedPoint struct {
	Point
	W float64
}

func NewWeightedPoint(p Point, w float64) WeightedPoint {
	return WeightedPoint{Point: p, W: w}
}
