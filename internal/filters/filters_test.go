package filters

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecopia-map/cloud_accumulator/internal/data"
)

func TestNaNRemoval(t *testing.T) {
	cloud := data.NewPointCloud([]data.Point{
		{X: 1, Y: 2, Z: 3},
		{X: math.NaN(), Y: 2, Z: 3},
		{X: 1, Y: math.Inf(1), Z: 3},
		{X: 4, Y: 5, Z: 6},
		{X: 1, Y: 2, Z: math.Inf(-1)},
	})

	out := NewNaNRemoval().Filter(cloud)

	require.Equal(t, 2, out.Len())
	assert.Equal(t, 1.0, out.Points[0].X)
	assert.Equal(t, 4.0, out.Points[1].X)
}

func TestVoxelGridAveragesCellMembers(t *testing.T) {
	// Four points in one cell, one in another.
	cloud := data.NewPointCloud([]data.Point{
		{X: 0.1, Y: 0.1, Z: 0.0, R: 100, G: 0, B: 0},
		{X: 0.3, Y: 0.1, Z: 0.2, R: 200, G: 0, B: 0},
		{X: 0.1, Y: 0.3, Z: 0.4, R: 100, G: 0, B: 0},
		{X: 0.3, Y: 0.3, Z: 0.2, R: 200, G: 0, B: 0},
		{X: 5.0, Y: 5.0, Z: 5.0, R: 10, G: 20, B: 30},
	})

	out := NewVoxelGrid(1.0, 1.0, 1.0).Filter(cloud)

	require.Equal(t, 2, out.Len())
	first := out.Points[0]
	assert.InDelta(t, 0.2, first.X, 1e-12)
	assert.InDelta(t, 0.2, first.Y, 1e-12)
	assert.InDelta(t, 0.2, first.Z, 1e-12)
	assert.Equal(t, uint8(150), first.R)

	second := out.Points[1]
	assert.Equal(t, data.Point{X: 5, Y: 5, Z: 5, R: 10, G: 20, B: 30}, second)
}

func TestVoxelGridTallLeafCollapsesZ(t *testing.T) {
	// A tall z leaf keeps one sample per planar cell even when the
	// points spread vertically.
	cloud := data.NewPointCloud([]data.Point{
		{X: 0.1, Y: 0.1, Z: 0.0},
		{X: 0.1, Y: 0.1, Z: 0.3},
	})

	out := NewVoxelGrid(0.5, 0.5, 10.0).Filter(cloud)

	require.Equal(t, 1, out.Len())
	assert.InDelta(t, 0.15, out.Points[0].Z, 1e-12)
}

func TestVoxelGridDeterministic(t *testing.T) {
	cloud := data.NewPointCloud(nil)
	for i := 0; i < 50; i++ {
		cloud.Append(data.Point{
			X: float64(i%7) * 0.3,
			Y: float64(i%5) * 0.3,
			Z: float64(i%3) * 0.3,
			R: uint8(i), G: uint8(i * 2), B: uint8(i * 3),
		})
	}

	grid := NewVoxelGrid(0.5, 0.5, 0.5)
	a := grid.Filter(cloud)
	b := grid.Filter(cloud)

	if diff := cmp.Diff(a.Points, b.Points); diff != "" {
		t.Errorf("voxel grid output not deterministic (-first +second):\n%s", diff)
	}
}

func TestVoxelGridNegativeCoordinates(t *testing.T) {
	// floor-based binning must not merge cells across zero
	cloud := data.NewPointCloud([]data.Point{
		{X: -0.1, Y: 0.1, Z: 0},
		{X: 0.1, Y: 0.1, Z: 0},
	})

	out := NewVoxelGrid(1.0, 1.0, 1.0).Filter(cloud)
	assert.Equal(t, 2, out.Len())
}

func TestRadiusOutlierRemoval(t *testing.T) {
	cloud := data.NewPointCloud([]data.Point{
		{X: 0, Y: 0, Z: 0},
		{X: 0.1, Y: 0, Z: 0},
		{X: 0, Y: 0.1, Z: 0},
		{X: 0.1, Y: 0.1, Z: 0},
		{X: 10, Y: 10, Z: 10}, // isolated
	})

	out := NewRadiusOutlierRemoval(0.5, 2).Filter(cloud)

	require.Equal(t, 4, out.Len())
	for _, p := range out.Points {
		assert.NotEqual(t, 10.0, p.X)
	}
}

func TestRadiusOutlierRemovalDoesNotCountSelf(t *testing.T) {
	// Two points within radius of each other: each has exactly one
	// neighbor besides itself.
	cloud := data.NewPointCloud([]data.Point{
		{X: 0, Y: 0, Z: 0},
		{X: 0.1, Y: 0, Z: 0},
	})

	assert.Equal(t, 2, NewRadiusOutlierRemoval(0.5, 1).Filter(cloud).Len())
	assert.Equal(t, 0, NewRadiusOutlierRemoval(0.5, 2).Filter(cloud).Len())
}

func TestStatisticalOutlierRemoval(t *testing.T) {
	// Dense unit grid plus one far-away speck.
	cloud := data.NewPointCloud(nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			cloud.Append(data.Point{X: float64(i), Y: float64(j), Z: 0})
		}
	}
	cloud.Append(data.Point{X: 10, Y: 10, Z: 0})

	out := NewStatisticalOutlierRemoval(3, 1.0).Filter(cloud)

	require.Equal(t, 9, out.Len())
	for _, p := range out.Points {
		assert.Less(t, p.X, 10.0)
	}
}

func TestPipelineRunsStagesInOrder(t *testing.T) {
	cloud := data.NewPointCloud([]data.Point{
		{X: math.NaN(), Y: 0, Z: 0},
		{X: 0.1, Y: 0.1, Z: 0},
		{X: 0.2, Y: 0.1, Z: 0},
		{X: 0.1, Y: 0.2, Z: 0},
	})

	pipeline := NewPipeline(
		NewNaNRemoval(),
		NewVoxelGrid(1.0, 1.0, 1.0),
	)
	out := pipeline.Filter(cloud)

	// NaN dropped first, remaining three averaged into one cell.
	require.Equal(t, 1, out.Len())
	assert.InDelta(t, 0.4/3, out.Points[0].X, 1e-12)
}

func TestPipelineEmpty(t *testing.T) {
	cloud := data.NewPointCloud([]data.Point{{X: 1, Y: 2, Z: 3}})
	out := NewPipeline().Filter(cloud)
	assert.Equal(t, cloud, out)
}
