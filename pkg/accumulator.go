package pkg

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/golang/glog"

	"github.com/ecopia-map/cloud_accumulator/internal/accumulation"
	"github.com/ecopia-map/cloud_accumulator/internal/cloudio"
	"github.com/ecopia-map/cloud_accumulator/internal/monitor"
	"github.com/ecopia-map/cloud_accumulator/internal/poses"
	"github.com/ecopia-map/cloud_accumulator/internal/recon"
	"github.com/ecopia-map/cloud_accumulator/pkg/algorithm_manager"
	"github.com/ecopia-map/cloud_accumulator/tools"
)

type IAccumulator interface {
	RunAccumulator(opts *recon.Options) error
}

// Accumulator drives a full reconstruction run: pose sequence in,
// fused filtered cloud out. One frame is fully merged before the next
// begins; the engine owns the accumulation for the whole run.
type Accumulator struct {
	cloudFinder      tools.CloudFinder
	algorithmManager algorithm_manager.AlgorithmManager
}

func NewAccumulator(cloudFinder tools.CloudFinder, algorithmManager algorithm_manager.AlgorithmManager) IAccumulator {
	return &Accumulator{
		cloudFinder:      cloudFinder,
		algorithmManager: algorithmManager,
	}
}

// Starts the accumulation process
func (a *Accumulator) RunAccumulator(opts *recon.Options) error {
	// Setup-time failures abort before any processing.
	if err := tools.RecreateDirectory(opts.OutputDir()); err != nil {
		return fmt.Errorf("cannot prepare the output directory: %w", err)
	}

	glog.Infoln("Waiting for pose file to be ready...")
	if err := poses.WaitReady(opts.LockFile(), time.Duration(opts.LockTimeoutSec)*time.Second); err != nil {
		return err
	}

	sequence, err := poses.NewReader(opts.CloudExtension).Read(opts.PoseFile())
	if err != nil {
		return err
	}
	if len(sequence) == 0 {
		return fmt.Errorf("pose file %s holds no poses", opts.PoseFile())
	}
	glog.Infof("pose sequence holds %d clouds", len(sequence))

	engine := accumulation.NewEngine(opts)
	plotter := monitor.NewFootprintPlotter(opts.DebugPlots, opts.OutputDir())
	frameFilter := a.algorithmManager.GetFrameFilterAlgorithm()

	// The very first pose is the common reference frame for the whole
	// accumulation.
	reference := sequence[0].Transform

	totalPoints := 0
	for i, pose := range sequence {
		tools.LogOutput("Processing cloud " + strconv.Itoa(i+1) + "/" + strconv.Itoa(len(sequence)) + ", " + pose.CloudName)

		path, err := a.cloudFinder.FindCloudFile(opts, pose)
		if err != nil {
			// Recoverable: the accumulation simply does not
			// incorporate this frame.
			glog.Warningf("couldn't read the cloud for %s: %v", pose.CloudName, err)
			continue
		}

		raw, err := cloudio.ReadPCD(path)
		if err != nil {
			glog.Warningf("couldn't read the file %s: %v", path, err)
			continue
		}
		totalPoints += raw.Len()

		glog.Infoln("> filtering", pose.CloudName)
		frame := frameFilter.Filter(raw)

		glog.Infoln("> merging", pose.CloudName)
		stats := engine.MergeFrame(frame, pose.Transform.RelativeTo(reference))
		log.Printf("round %d: frame=%d appended=%d border=%d updated=%d stale_filled=%d acc=%d",
			i, stats.FramePoints, stats.Appended, stats.BorderAppended, stats.Updated,
			stats.StaleFilled, engine.Accumulated().Len())

		plotter.PlotRound(i, engine.Accumulated(), stats.Contour)
	}

	glog.Infoln("Filtering output cloud")
	finalizer := NewStandardFinalizer(a.algorithmManager)
	if err := finalizer.Finalize(engine.Accumulated().StripWeights(), opts, opts.OutputDir()); err != nil {
		return err
	}

	glog.Infof("Points processed: %d", totalPoints)
	return nil
}
