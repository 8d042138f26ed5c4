package pkg

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/ecopia-map/cloud_accumulator/internal/cloudio"
	"github.com/ecopia-map/cloud_accumulator/internal/recon"
	"github.com/ecopia-map/cloud_accumulator/pkg/algorithm_manager"
	"github.com/ecopia-map/cloud_accumulator/tools"
)

// FinalizeOnly re-runs the output pass over an already accumulated
// cloud. Re-running it against the same input yields the same output
// file.
type FinalizeOnly struct {
	algorithmManager algorithm_manager.AlgorithmManager
	Input            string
	Output           string
}

func NewFinalizeOnly(algorithmManager algorithm_manager.AlgorithmManager, input, output string) *FinalizeOnly {
	return &FinalizeOnly{
		algorithmManager: algorithmManager,
		Input:            input,
		Output:           output,
	}
}

func (f *FinalizeOnly) Run(opts *recon.Options) error {
	if err := tools.CreateDirectoryIfDoesNotExist(f.Output); err != nil {
		return fmt.Errorf("cannot prepare the output directory: %w", err)
	}

	glog.Infoln("> reading accumulated cloud", f.Input)
	cloud, err := cloudio.ReadPCD(f.Input)
	if err != nil {
		return err
	}

	finalizer := NewStandardFinalizer(f.algorithmManager)
	return finalizer.Finalize(cloud, opts, f.Output)
}
