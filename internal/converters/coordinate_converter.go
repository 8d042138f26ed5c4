package converters

import (
	"github.com/ecopia-map/cloud_accumulator/internal/geometry"
)

// CoordinateConverter reprojects coordinates between spatial reference
// systems. Only the final output pass uses it; the accumulation itself
// runs entirely in the pose reference frame.
type CoordinateConverter interface {
	ConvertCoordinateSrid(sourceSrid int, targetSrid int, coord geometry.Coordinate) (geometry.Coordinate, error)
	Cleanup()
}

// ElevationCorrector adjusts the elevation of output points.
type ElevationCorrector interface {
	CorrectElevation(x, y, z float64) float64
}
