package algorithm_manager

import (
	"github.com/ecopia-map/cloud_accumulator/internal/converters"
	"github.com/ecopia-map/cloud_accumulator/internal/filters"
)

type AlgorithmManager interface {
	GetFrameFilterAlgorithm() *filters.Pipeline
	GetOutputFilterAlgorithm() *filters.Pipeline
	GetCoordinateConverterAlgorithm() converters.CoordinateConverter
	GetElevationCorrectorAlgorithm() converters.ElevationCorrector
}
