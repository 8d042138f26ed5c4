package recon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeParams(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "params.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestApplyParamsFileOverridesOnlyMentionedKeys(t *testing.T) {
	opts := NewDefaultOptions()
	path := writeParams(t, "voxel_size: 0.02\ntrue_mean_z: true\ntarget_srid: 3857\n")

	require.NoError(t, ApplyParamsFile(opts, path))

	assert.Equal(t, 0.02, opts.VoxelSize)
	assert.True(t, opts.TrueMeanZ)
	assert.Equal(t, 3857, opts.TargetSrid)
	// untouched keys keep their defaults
	assert.Equal(t, DefaultOutlierRadius, opts.OutlierRadius)
	assert.Equal(t, DefaultOverlapK, opts.OverlapK)
	assert.Equal(t, DefaultCloudExtension, opts.CloudExtension)
}

func TestApplyParamsFileExplicitZero(t *testing.T) {
	opts := NewDefaultOptions()
	path := writeParams(t, "z_offset: 0.0\noutlier_min_neighbors: 0\n")

	require.NoError(t, ApplyParamsFile(opts, path))

	assert.Equal(t, 0.0, opts.ZOffset)
	assert.Equal(t, 0, opts.OutlierMinNeighbors)
}

func TestApplyParamsFileMissing(t *testing.T) {
	opts := NewDefaultOptions()
	err := ApplyParamsFile(opts, filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}

func TestApplyParamsFileMalformed(t *testing.T) {
	opts := NewDefaultOptions()
	path := writeParams(t, "voxel_size: [not, a, float\n")
	assert.Error(t, ApplyParamsFile(opts, path))
}

func TestOptionsPaths(t *testing.T) {
	opts := NewDefaultOptions()
	opts.WorkDir = "/data/run1"

	assert.Equal(t, filepath.Join("/data/run1", "clouds"), opts.CloudsDir())
	assert.Equal(t, filepath.Join("/data/run1", "clouds", "output"), opts.OutputDir())
	assert.Equal(t, filepath.Join("/data/run1", "graph_vertices.txt"), opts.PoseFile())
	assert.Equal(t, filepath.Join("/data/run1", ".graph.block"), opts.LockFile())
}

func TestOptionsCopyIsIndependent(t *testing.T) {
	opts := NewDefaultOptions()
	dup := opts.Copy()
	dup.VoxelSize = 99

	assert.Equal(t, DefaultVoxelSize, opts.VoxelSize)
}
