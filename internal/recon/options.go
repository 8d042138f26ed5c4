package recon

import "path/filepath"

// Default tunables. Voxel size drives the merge tolerance: the overlap
// radius is derived from it, not configured separately.
const (
	DefaultVoxelSize           = 0.005
	DefaultOutlierRadius       = 0.04
	DefaultOutlierMinNeighbors = 50
	DefaultStatMeanK           = 40
	DefaultStatStddevMul       = 2.0
	DefaultContourAlpha        = 0.1
	DefaultOverlapK            = 10
	DefaultProbeK              = 1
	DefaultCloudExtension      = ".pcd"
	DefaultPoseFileName        = "graph_vertices.txt"
	DefaultLockFileName        = ".graph.block"
	DefaultOutputName          = "reconstruction"
)

// Contains the options needed for an accumulation run
type Options struct {
	WorkDir             string  // Working directory holding clouds/ and the pose file
	VoxelSize           float64 // Leaf size in meters of the per-frame surface extraction grid
	OutlierRadius       float64 // Radius in meters for the radius outlier removal
	OutlierMinNeighbors int     // Minimum neighbors within OutlierRadius
	StatMeanK           int     // Neighbor count for the statistical outlier removal
	StatStddevMul       float64 // Standard deviation multiplier for the statistical outlier removal
	ContourAlpha        float64 // Concavity scale of the footprint contour
	OverlapK            int     // Max accumulated neighbors considered per frame point
	ProbeK              int     // Max accumulated neighbors for the contour distance probe
	TrueMeanZ           bool    // Use a true neighbor mean for z blending instead of the running average
	CloudExtension      string  // Extension appended to pose file cloud identifiers
	TargetSrid          int     // EPSG code to reproject the final cloud to, 0 disables
	SourceSrid          int     // EPSG code of the pose frame, required when TargetSrid is set
	ZOffset             float64 // Vertical offset in meters applied to the final cloud
	DebugPlots          bool    // Write per-round footprint/contour plots
	LockTimeoutSec      int     // Max seconds to wait for the pose file lock to clear
}

// NewDefaultOptions returns an Options with every tunable at its
// default.
func NewDefaultOptions() *Options {
	return &Options{
		VoxelSize:           DefaultVoxelSize,
		OutlierRadius:       DefaultOutlierRadius,
		OutlierMinNeighbors: DefaultOutlierMinNeighbors,
		StatMeanK:           DefaultStatMeanK,
		StatStddevMul:       DefaultStatStddevMul,
		ContourAlpha:        DefaultContourAlpha,
		OverlapK:            DefaultOverlapK,
		ProbeK:              DefaultProbeK,
		CloudExtension:      DefaultCloudExtension,
		LockTimeoutSec:      300,
	}
}

// CloudsDir is where the per-frame cloud files live.
func (opt *Options) CloudsDir() string {
	return filepath.Join(opt.WorkDir, "clouds")
}

// OutputDir is recreated at the start of every run.
func (opt *Options) OutputDir() string {
	return filepath.Join(opt.WorkDir, "clouds", "output")
}

// PoseFile is the SLAM graph vertex export driving the run.
func (opt *Options) PoseFile() string {
	return filepath.Join(opt.WorkDir, DefaultPoseFileName)
}

// LockFile guards PoseFile while the SLAM front-end rewrites it.
func (opt *Options) LockFile() string {
	return filepath.Join(opt.WorkDir, DefaultLockFileName)
}

func (opt *Options) Copy() *Options {
	newOpt := *opt
	return &newOpt
}
