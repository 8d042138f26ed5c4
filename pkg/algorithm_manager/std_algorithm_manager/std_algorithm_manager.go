package std_algorithm_manager

import (
	"github.com/ecopia-map/cloud_accumulator/internal/converters"
	"github.com/ecopia-map/cloud_accumulator/internal/converters/elevation/offset_elevation_corrector"
	"github.com/ecopia-map/cloud_accumulator/internal/converters/proj4_coordinate_converter"
	"github.com/ecopia-map/cloud_accumulator/internal/filters"
	"github.com/ecopia-map/cloud_accumulator/internal/recon"
)

// StandardAlgorithmManager wires the filter pipelines and converters
// for a run from the options.
type StandardAlgorithmManager struct {
	frameFilter         *filters.Pipeline
	outputFilter        *filters.Pipeline
	coordinateConverter converters.CoordinateConverter
	elevationCorrector  converters.ElevationCorrector
}

func NewAlgorithmManager(opts *recon.Options) *StandardAlgorithmManager {
	// Per-frame surface extraction: the z leaf is deliberately tall so
	// each footprint cell collapses to one surface sample.
	frameFilter := filters.NewPipeline(
		filters.NewNaNRemoval(),
		filters.NewVoxelGrid(opts.VoxelSize, opts.VoxelSize, 0.5),
		filters.NewRadiusOutlierRemoval(opts.OutlierRadius, opts.OutlierMinNeighbors),
		filters.NewStatisticalOutlierRemoval(opts.StatMeanK, opts.StatStddevMul),
	)

	outputFilter := filters.NewPipeline(
		filters.NewVoxelGrid(opts.VoxelSize, opts.VoxelSize, opts.VoxelSize),
		filters.NewRadiusOutlierRemoval(opts.OutlierRadius, opts.OutlierMinNeighbors),
		filters.NewStatisticalOutlierRemoval(opts.StatMeanK, opts.StatStddevMul),
	)

	return &StandardAlgorithmManager{
		frameFilter:         frameFilter,
		outputFilter:        outputFilter,
		coordinateConverter: proj4_coordinate_converter.NewProj4CoordinateConverter(),
		elevationCorrector:  offset_elevation_corrector.NewOffsetElevationCorrector(opts.ZOffset),
	}
}

func (am *StandardAlgorithmManager) GetFrameFilterAlgorithm() *filters.Pipeline {
	return am.frameFilter
}

func (am *StandardAlgorithmManager) GetOutputFilterAlgorithm() *filters.Pipeline {
	return am.outputFilter
}

func (am *StandardAlgorithmManager) GetCoordinateConverterAlgorithm() converters.CoordinateConverter {
	return am.coordinateConverter
}

func (am *StandardAlgorithmManager) GetElevationCorrectorAlgorithm() converters.ElevationCorrector {
	return am.elevationCorrector
}
