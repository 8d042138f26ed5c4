package pkg

import (
	"fmt"
	"path/filepath"

	"github.com/golang/glog"

	"github.com/ecopia-map/cloud_accumulator/internal/cloudio"
	"github.com/ecopia-map/cloud_accumulator/internal/data"
	"github.com/ecopia-map/cloud_accumulator/internal/geometry"
	"github.com/ecopia-map/cloud_accumulator/internal/recon"
	"github.com/ecopia-map/cloud_accumulator/pkg/algorithm_manager"
)

// OutputFinalizer runs the final filtering pass over an accumulated
// cloud and persists it. Stateless and idempotent for a given cloud.
type OutputFinalizer interface {
	Finalize(cloud *data.PointCloud, opts *recon.Options, outputDir string) error
}

type StandardFinalizer struct {
	algorithmManager algorithm_manager.AlgorithmManager
}

func NewStandardFinalizer(algorithmManager algorithm_manager.AlgorithmManager) OutputFinalizer {
	return &StandardFinalizer{algorithmManager: algorithmManager}
}

func (f *StandardFinalizer) Finalize(cloud *data.PointCloud, opts *recon.Options, outputDir string) error {
	filtered := f.algorithmManager.GetOutputFilterAlgorithm().Filter(cloud)

	if err := f.correctOutput(filtered, opts); err != nil {
		return err
	}

	glog.Infoln("Saving pointclouds...")
	pcdPath := filepath.Join(outputDir, recon.DefaultOutputName+".pcd")
	if err := cloudio.WritePCD(pcdPath, filtered); err != nil {
		return fmt.Errorf("cannot save %s: %w", pcdPath, err)
	}
	plyPath := filepath.Join(outputDir, recon.DefaultOutputName+".ply")
	if err := cloudio.WritePLY(plyPath, filtered); err != nil {
		return fmt.Errorf("cannot save %s: %w", plyPath, err)
	}

	glog.Infof("Accumulated cloud saved, %d points", filtered.Len())
	return nil
}

// correctOutput applies the elevation correction and, when a target
// SRID is configured, reprojects the cloud out of the pose frame.
func (f *StandardFinalizer) correctOutput(cloud *data.PointCloud, opts *recon.Options) error {
	corrector := f.algorithmManager.GetElevationCorrectorAlgorithm()
	for i := range cloud.Points {
		p := &cloud.Points[i]
		p.Z = corrector.CorrectElevation(p.X, p.Y, p.Z)
	}

	if opts.TargetSrid == 0 {
		return nil
	}
	if opts.SourceSrid == 0 {
		return fmt.Errorf("target srid %d set without a source srid", opts.TargetSrid)
	}

	converter := f.algorithmManager.GetCoordinateConverterAlgorithm()
	defer converter.Cleanup()
	for i := range cloud.Points {
		p := &cloud.Points[i]
		coord, err := converter.ConvertCoordinateSrid(
			opts.SourceSrid, opts.TargetSrid,
			geometry.NewCoordinate(p.X, p.Y, p.Z),
		)
		if err != nil {
			return err
		}
		p.X, p.Y, p.Z = coord.X, coord.Y, coord.Z
	}
	return nil
}
