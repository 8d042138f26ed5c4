package proj4_coordinate_converter

import (
	"fmt"
	"math"

	proj4 "github.com/xeonx/proj4"

	"github.com/ecopia-map/cloud_accumulator/internal/converters"
	"github.com/ecopia-map/cloud_accumulator/internal/geometry"
)

const toRadians = math.Pi / 180
const toDeg = 180 / math.Pi

type proj4CoordinateConverter struct {
	projections map[int]*proj4.Proj
}

func NewProj4CoordinateConverter() converters.CoordinateConverter {
	return &proj4CoordinateConverter{
		projections: make(map[int]*proj4.Proj),
	}
}

func (cc *proj4CoordinateConverter) ConvertCoordinateSrid(sourceSrid int, targetSrid int, coord geometry.Coordinate) (geometry.Coordinate, error) {
	if sourceSrid == targetSrid {
		return coord, nil
	}

	src, err := cc.projection(sourceSrid)
	if err != nil {
		return coord, err
	}
	dst, err := cc.projection(targetSrid)
	if err != nil {
		return coord, err
	}

	x := []float64{coord.X}
	y := []float64{coord.Y}
	z := []float64{coord.Z}
	if src.IsLatLong() {
		x[0] *= toRadians
		y[0] *= toRadians
	}

	if err := proj4.TransformRaw(src, dst, x, y, z); err != nil {
		return coord, fmt.Errorf("cannot convert from srid %d to srid %d: %w", sourceSrid, targetSrid, err)
	}

	if dst.IsLatLong() {
		x[0] *= toDeg
		y[0] *= toDeg
	}
	return geometry.Coordinate{X: x[0], Y: y[0], Z: z[0]}, nil
}

func (cc *proj4CoordinateConverter) Cleanup() {
	for _, p := range cc.projections {
		p.Close()
	}
	cc.projections = make(map[int]*proj4.Proj)
}

// projection initializes, and caches, the proj4 projection for the
// given EPSG code.
func (cc *proj4CoordinateConverter) projection(srid int) (*proj4.Proj, error) {
	if p, ok := cc.projections[srid]; ok {
		return p, nil
	}

	init, err := epsgDefinition(srid)
	if err != nil {
		return nil, err
	}
	p, err := proj4.InitPlus(init)
	if err != nil {
		return nil, fmt.Errorf("cannot initialize srid %d: %w", srid, err)
	}
	cc.projections[srid] = p
	return p, nil
}

// epsgDefinition returns the proj4 init string for the EPSG codes the
// pipeline supports: WGS84, the web and world mercators, and the WGS84
// UTM zones.
func epsgDefinition(srid int) (string, error) {
	switch {
	case srid == 4326:
		return "+proj=longlat +datum=WGS84 +no_defs", nil
	case srid == 3857:
		return "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +wktext +no_defs", nil
	case srid == 3395:
		return "+proj=merc +lon_0=0 +k=1 +x_0=0 +y_0=0 +datum=WGS84 +units=m +no_defs", nil
	case srid >= 32601 && srid <= 32660:
		return fmt.Sprintf("+proj=utm +zone=%d +datum=WGS84 +units=m +no_defs", srid-32600), nil
	case srid >= 32701 && srid <= 32760:
		return fmt.Sprintf("+proj=utm +zone=%d +south +datum=WGS84 +units=m +no_defs", srid-32700), nil
	default:
		return "", fmt.Errorf("unsupported srid %d", srid)
	}
}
