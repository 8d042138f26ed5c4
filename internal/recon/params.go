package recon

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// paramsFile is the YAML shape of an optional parameters file.
// Pointers distinguish "absent" from "explicit zero" so the file only
// overrides what it mentions.
type paramsFile struct {
	VoxelSize           *float64 `yaml:"voxel_size"`
	OutlierRadius       *float64 `yaml:"outlier_radius"`
	OutlierMinNeighbors *int     `yaml:"outlier_min_neighbors"`
	StatMeanK           *int     `yaml:"stat_mean_k"`
	StatStddevMul       *float64 `yaml:"stat_stddev_mul"`
	ContourAlpha        *float64 `yaml:"contour_alpha"`
	OverlapK            *int     `yaml:"overlap_k"`
	ProbeK              *int     `yaml:"probe_k"`
	TrueMeanZ           *bool    `yaml:"true_mean_z"`
	CloudExtension      *string  `yaml:"cloud_extension"`
	TargetSrid          *int     `yaml:"target_srid"`
	SourceSrid          *int     `yaml:"source_srid"`
	ZOffset             *float64 `yaml:"z_offset"`
	LockTimeoutSec      *int     `yaml:"lock_timeout_sec"`
}

// ApplyParamsFile overlays the YAML file at path onto opts. A missing
// or malformed file is an error: a run with silently ignored
// parameters is worse than no run.
func ApplyParamsFile(opts *Options, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read params file %s: %w", path, err)
	}

	var params paramsFile
	if err := yaml.Unmarshal(raw, &params); err != nil {
		return fmt.Errorf("cannot parse params file %s: %w", path, err)
	}

	if params.VoxelSize != nil {
		opts.VoxelSize = *params.VoxelSize
	}
	if params.OutlierRadius != nil {
		opts.OutlierRadius = *params.OutlierRadius
	}
	if params.OutlierMinNeighbors != nil {
		opts.OutlierMinNeighbors = *params.OutlierMinNeighbors
	}
	if params.StatMeanK != nil {
		opts.StatMeanK = *params.StatMeanK
	}
	if params.StatStddevMul != nil {
		opts.StatStddevMul = *params.StatStddevMul
	}
	if params.ContourAlpha != nil {
		opts.ContourAlpha = *params.ContourAlpha
	}
	if params.OverlapK != nil {
		opts.OverlapK = *params.OverlapK
	}
	if params.ProbeK != nil {
		opts.ProbeK = *params.ProbeK
	}
	if params.TrueMeanZ != nil {
		opts.TrueMeanZ = *params.TrueMeanZ
	}
	if params.CloudExtension != nil {
		opts.CloudExtension = *params.CloudExtension
	}
	if params.TargetSrid != nil {
		opts.TargetSrid = *params.TargetSrid
	}
	if params.SourceSrid != nil {
		opts.SourceSrid = *params.SourceSrid
	}
	if params.ZOffset != nil {
		opts.ZOffset = *params.ZOffset
	}
	if params.LockTimeoutSec != nil {
		opts.LockTimeoutSec = *params.LockTimeoutSec
	}
	return nil
}
