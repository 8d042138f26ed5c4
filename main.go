package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ecopia-map/cloud_accumulator/internal/recon"
	"github.com/ecopia-map/cloud_accumulator/pkg"
	"github.com/ecopia-map/cloud_accumulator/pkg/algorithm_manager/std_algorithm_manager"
	"github.com/ecopia-map/cloud_accumulator/tools"
)

const VERSION = "0.3.1"

const logo = `
       _                 _                        _
  ___ | | ___  _   _  __| |    __ _  ___ ___ _  _| |
 / __|| |/ _ \| | | |/ _  |   / _  |/ __/ __| || | |
| (__ | | (_) | |_| | (_| |  | (_| | (_| (__| || | |
 \___||_|\___/ \__,_|\__,_|   \__,_|\___\___|\__,_|_|
        Incremental point cloud accumulator
`

func main() {
	log.SetPrefix("[accumulator] ")
	log.SetFlags(log.LUTC | log.Ldate | log.Lmicroseconds | log.Lshortfile)

	flagsGlobal := tools.ParseFlagsGlobal()
	log.Println(tools.FmtJSONString(flagsGlobal))

	args := flag.Args()
	if len(args) == 0 {
		log.Fatal("Please specify a subcommand [accumulate|finalize].")
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case tools.CommandAccumulate:
		mainCommandAccumulate(args)
	case tools.CommandFinalize:
		mainCommandFinalize(args)
	default:
		log.Fatalf("Unrecognized command [%q]. Command must be one of [accumulate|finalize]", cmd)
	}
}

func mainCommandAccumulate(args []string) {
	flags := tools.ParseFlagsForCommandAccumulate(args)

	if *flags.Help {
		showHelp()
		return
	}

	if *flags.Version {
		printVersion()
		return
	}

	if *flags.Silent {
		tools.DisableLogger()
	} else {
		printLogo()
	}
	if !*flags.LogTimestamp {
		tools.DisableLoggerTimestamp()
	}

	opts, err := optionsFromFlags(&flags.AccumulatorFlags)
	if err != nil {
		log.Fatal("Error parsing input parameters: ", err)
	}
	opts.LockTimeoutSec = *flags.LockTimeout

	if msg, res := validateOptionsForCommandAccumulate(opts); !res {
		log.Fatal("Error parsing input parameters: " + msg)
	}

	// defer timeTrack(time.Now(), "accumulator")
	err = pkg.NewAccumulator(tools.NewStandardCloudFinder(), std_algorithm_manager.NewAlgorithmManager(opts)).RunAccumulator(opts)
	if err != nil {
		log.Fatal("Error while accumulating: ", err)
	} else {
		tools.LogOutput("Accumulation Completed")
	}
}

func validateOptionsForCommandAccumulate(opts *recon.Options) (string, bool) {
	if opts.WorkDir == "" {
		return "Working directory must be specified", false
	}
	if _, err := os.Stat(opts.WorkDir); os.IsNotExist(err) {
		return "Working directory not found", false
	}
	if _, err := os.Stat(opts.CloudsDir()); os.IsNotExist(err) {
		return "Clouds folder not found in working directory", false
	}
	if opts.VoxelSize <= 0 {
		return "voxel parameter must be positive", false
	}
	if opts.OverlapK < 1 {
		return "overlap-k parameter must be at least 1", false
	}
	if opts.TargetSrid != 0 && opts.SourceSrid == 0 {
		return "target-srid requires source-srid", false
	}
	return "", true
}

func mainCommandFinalize(args []string) {
	flags := tools.ParseFlagsForCommandFinalize(args)

	opts, err := optionsFromFlags(&flags.AccumulatorFlags)
	if err != nil {
		log.Fatal("Error parsing input parameters: ", err)
	}

	if msg, res := validateOptionsForCommandFinalize(&flags); !res {
		log.Fatal("Error parsing input parameters: " + msg)
	}

	err = pkg.NewFinalizeOnly(std_algorithm_manager.NewAlgorithmManager(opts), *flags.Input, *flags.Output).Run(opts)
	if err != nil {
		log.Fatal("Error while finalizing: ", err)
	} else {
		tools.LogOutput("Finalization Completed")
	}
}

func validateOptionsForCommandFinalize(flags *tools.FlagsForCommandFinalize) (string, bool) {
	if *flags.Input == "" {
		return "Input accumulated cloud must be specified", false
	}
	if _, err := os.Stat(*flags.Input); os.IsNotExist(err) {
		return "Input accumulated cloud not found", false
	}
	if *flags.Output == "" {
		return "Output folder must be specified", false
	}
	return "", true
}

// optionsFromFlags builds the run options: defaults, then the optional
// params file, then explicit command line flags on top.
func optionsFromFlags(flags *tools.AccumulatorFlags) (*recon.Options, error) {
	opts := recon.NewDefaultOptions()

	if flags.Params != nil && *flags.Params != "" {
		if err := recon.ApplyParamsFile(opts, *flags.Params); err != nil {
			return nil, err
		}
	}

	if flags.WorkDir != nil {
		opts.WorkDir = *flags.WorkDir
	}
	if flags.VoxelSize != nil {
		opts.VoxelSize = *flags.VoxelSize
	}
	if flags.ContourAlpha != nil {
		opts.ContourAlpha = *flags.ContourAlpha
	}
	if flags.OverlapK != nil {
		opts.OverlapK = *flags.OverlapK
	}
	if flags.TrueMeanZ != nil {
		opts.TrueMeanZ = *flags.TrueMeanZ
	}
	if flags.CloudExtension != nil && *flags.CloudExtension != "" {
		opts.CloudExtension = *flags.CloudExtension
	}
	if flags.SourceSrid != nil {
		opts.SourceSrid = *flags.SourceSrid
	}
	if flags.TargetSrid != nil {
		opts.TargetSrid = *flags.TargetSrid
	}
	if flags.ZOffset != nil {
		opts.ZOffset = *flags.ZOffset
	}
	if flags.DebugPlots != nil {
		opts.DebugPlots = *flags.DebugPlots
	}
	return opts, nil
}

func printLogo() {
	fmt.Print(logo + "\n")
}

func showHelp() {
	printLogo()
	fmt.Println("***")
	fmt.Println("cloud_accumulator fuses a sequence of pose-tagged overlapping PCD clouds into one consistent, color-blended cloud")
	printVersion()
	fmt.Println("***")
	fmt.Println("")
	fmt.Println("Command line flags: ")
	flag.CommandLine.SetOutput(os.Stdout)
	flag.PrintDefaults()
}

func printVersion() {
	fmt.Println("v." + VERSION)
}

// timeTrack reports the elapsed runtime of a phase when deferred at
// its start.
func timeTrack(start time.Time, name string) {
	elapsed := time.Since(start)
	tools.LogOutput(fmt.Sprintf("%s took %s", name, elapsed))
}
