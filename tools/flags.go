package tools

import (
	"flag"
	"log"
)

const (
	CommandAccumulate = "accumulate"
	CommandFinalize   = "finalize"
)

type FlagsGlobal struct {
	Help    *bool `json:"help"`
	Version *bool `json:"version"`
}

type AccumulatorFlags struct {
	WorkDir        *string  `json:"work_dir"`
	Params         *string  `json:"params"`
	VoxelSize      *float64 `json:"voxel_size"`
	ContourAlpha   *float64 `json:"contour_alpha"`
	OverlapK       *int     `json:"overlap_k"`
	TrueMeanZ      *bool    `json:"true_mean_z"`
	CloudExtension *string  `json:"cloud_extension"`
	SourceSrid     *int     `json:"source_srid"`
	TargetSrid     *int     `json:"target_srid"`
	ZOffset        *float64 `json:"z_offset"`
	DebugPlots     *bool
}

type FlagsForCommandAccumulate struct {
	AccumulatorFlags
	LockTimeout  *int
	Silent       *bool
	LogTimestamp *bool
	Help         *bool
	Version      *bool
}

type FlagsForCommandFinalize struct {
	AccumulatorFlags
	Input  *string
	Output *string
}

func ParseFlagsGlobal() FlagsGlobal {
	help := defineBoolFlag("help", "h", false, "Displays this help.")
	version := defineBoolFlag("version", "v", false, "Displays the version of cloud_accumulator.")

	flag.Parse()

	return FlagsGlobal{
		Help:    help,
		Version: version,
	}
}

func ParseFlagsForCommandAccumulate(args []string) FlagsForCommandAccumulate {
	log.Println(FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-accumulate", flag.ExitOnError)

	workDir := defineStringFlagCommand(flagCommand, "workdir", "w", "", "Specifies the working directory holding clouds/ and the pose file.")
	params := defineStringFlagCommand(flagCommand, "params", "p", "", "Optional YAML parameters file overriding the default tunables.")
	voxelSize := defineFloat64FlagCommand(flagCommand, "voxel", "x", 0.005, "Leaf size in meters of the surface extraction grid. The merge tolerance is derived from it.")
	contourAlpha := defineFloat64FlagCommand(flagCommand, "alpha", "a", 0.1, "Concavity scale in meters of the footprint contour.")
	overlapK := defineIntFlagCommand(flagCommand, "overlap-k", "k", 10, "Maximum accumulated neighbors considered per frame point.")
	trueMeanZ := defineBoolFlagCommand(flagCommand, "true-mean-z", "", false, "Blend z as a true neighbor mean instead of the historical running average.")
	cloudExtension := defineStringFlagCommand(flagCommand, "cloud-ext", "", ".pcd", "Extension appended to pose file cloud identifiers.")
	sourceSrid := defineIntFlagCommand(flagCommand, "source-srid", "", 0, "EPSG code of the pose reference frame. Required when -target-srid is set.")
	targetSrid := defineIntFlagCommand(flagCommand, "target-srid", "", 0, "EPSG code to reproject the final cloud to. 0 disables reprojection.")
	zOffset := defineFloat64FlagCommand(flagCommand, "zoffset", "z", 0, "Vertical offset in meters applied to the final cloud.")
	debugPlots := defineBoolFlagCommand(flagCommand, "debug-plots", "", false, "Write a footprint/contour plot for every merge round.")
	lockTimeout := defineIntFlagCommand(flagCommand, "lock-timeout", "", 300, "Max seconds to wait for the pose file lock to clear.")
	silent := defineBoolFlagCommand(flagCommand, "silent", "s", false, "Use to suppress all the non-error messages.")
	logTimestamp := defineBoolFlagCommand(flagCommand, "timestamp", "t", false, "Adds timestamp to log messages.")
	help := defineBoolFlagCommand(flagCommand, "help", "h", false, "Displays this help.")
	version := defineBoolFlagCommand(flagCommand, "version", "v", false, "Displays the version of cloud_accumulator.")

	flagCommand.Parse(args)

	return FlagsForCommandAccumulate{
		AccumulatorFlags: AccumulatorFlags{
			WorkDir:        workDir,
			Params:         params,
			VoxelSize:      voxelSize,
			ContourAlpha:   contourAlpha,
			OverlapK:       overlapK,
			TrueMeanZ:      trueMeanZ,
			CloudExtension: cloudExtension,
			SourceSrid:     sourceSrid,
			TargetSrid:     targetSrid,
			ZOffset:        zOffset,
			DebugPlots:     debugPlots,
		},
		LockTimeout:  lockTimeout,
		Silent:       silent,
		LogTimestamp: logTimestamp,
		Help:         help,
		Version:      version,
	}
}

func ParseFlagsForCommandFinalize(args []string) FlagsForCommandFinalize {
	log.Println(FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-finalize", flag.ExitOnError)

	input := defineStringFlagCommand(flagCommand, "input", "i", "", "Specifies the accumulated PCD file to finalize.")
	output := defineStringFlagCommand(flagCommand, "output", "o", "", "Specifies the output folder where to write the finalized cloud.")
	params := defineStringFlagCommand(flagCommand, "params", "p", "", "Optional YAML parameters file overriding the default tunables.")
	voxelSize := defineFloat64FlagCommand(flagCommand, "voxel", "x", 0.005, "Leaf size in meters of the output downsampling grid.")
	sourceSrid := defineIntFlagCommand(flagCommand, "source-srid", "", 0, "EPSG code of the pose reference frame. Required when -target-srid is set.")
	targetSrid := defineIntFlagCommand(flagCommand, "target-srid", "", 0, "EPSG code to reproject the final cloud to. 0 disables reprojection.")
	zOffset := defineFloat64FlagCommand(flagCommand, "zoffset", "z", 0, "Vertical offset in meters applied to the final cloud.")

	flagCommand.Parse(args)

	return FlagsForCommandFinalize{
		AccumulatorFlags: AccumulatorFlags{
			Params:     params,
			VoxelSize:  voxelSize,
			SourceSrid: sourceSrid,
			TargetSrid: targetSrid,
			ZOffset:    zOffset,
		},
		Input:  input,
		Output: output,
	}
}

func defineStringFlag(name string, shortHand string, defaultValue string, usage string) *string {
	var output string
	flag.StringVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flag.StringVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineBoolFlag(name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flag.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name {
		flag.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineStringFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue string, usage string) *string {
	var output string
	flagCommand.StringVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.StringVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineIntFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue int, usage string) *int {
	var output int
	flagCommand.IntVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.IntVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineFloat64FlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue float64, usage string) *float64 {
	var output float64
	flagCommand.Float64Var(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.Float64Var(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineBoolFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flagCommand.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}
