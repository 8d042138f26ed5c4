package tools

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ecopia-map/cloud_accumulator/internal/poses"
	"github.com/ecopia-map/cloud_accumulator/internal/recon"
)

// CloudFinder resolves pose sequence identifiers to cloud files on
// disk.
type CloudFinder interface {
	FindCloudFile(opts *recon.Options, pose poses.CloudPose) (string, error)
}

type StandardCloudFinder struct{}

func NewStandardCloudFinder() CloudFinder {
	return &StandardCloudFinder{}
}

// FindCloudFile returns the path of the cloud file for the given pose,
// or an error if the file does not exist. A missing cloud only skips
// its frame, the caller decides.
func (f *StandardCloudFinder) FindCloudFile(opts *recon.Options, pose poses.CloudPose) (string, error) {
	path := filepath.Join(opts.CloudsDir(), pose.CloudName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("cloud file not found: %s", path)
		}
		return "", err
	}
	return path, nil
}
