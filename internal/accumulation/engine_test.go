package accumulation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecopia-map/cloud_accumulator/internal/data"
	"github.com/ecopia-map/cloud_accumulator/internal/geometry"
	"github.com/ecopia-map/cloud_accumulator/internal/recon"
	"github.com/ecopia-map/cloud_accumulator/internal/spatial"
)

func testOptions(voxel float64) *recon.Options {
	opts := recon.NewDefaultOptions()
	opts.VoxelSize = voxel
	return opts
}

// gridCloud returns an n x n grid with the given spacing, offset and
// uniform color.
func gridCloud(n int, spacing, offsetX, offsetY, z float64, r, g, b uint8) *data.PointCloud {
	cloud := data.NewPointCloud(nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			cloud.Append(data.Point{
				X: float64(i)*spacing + offsetX,
				Y: float64(j)*spacing + offsetY,
				Z: z,
				R: r, G: g, B: b,
			})
		}
	}
	return cloud
}

func TestMergeFrame_BootstrapCopiesFrame(t *testing.T) {
	// The bootstrap must not depend on any blending parameter.
	for _, voxel := range []float64{0.005, 0.05, 1.0} {
		engine := NewEngine(testOptions(voxel))
		frame := gridCloud(2, 1.0, 0, 0, 0.5, 10, 20, 30)

		stats := engine.MergeFrame(frame, geometry.Identity())

		acc := engine.Accumulated()
		require.Equal(t, frame.Len(), acc.Len())
		assert.Equal(t, frame.Len(), stats.Appended)
		for i, p := range frame.Points {
			assert.Equal(t, p, acc.Points[i].Point)
		}
	}
}

func TestMergeFrame_DisjointFrameAppendsEverything(t *testing.T) {
	engine := NewEngine(testOptions(0.005))
	engine.MergeFrame(gridCloud(2, 1.0, 0, 0, 0, 100, 100, 100), geometry.Identity())

	// Far away from the accumulated square: no point can have a
	// neighbor, every point must be appended, none updated.
	frame := gridCloud(2, 1.0, 50, 50, 1.0, 200, 200, 200)
	stats := engine.MergeFrame(frame, geometry.Identity())

	assert.Equal(t, 4, stats.Appended)
	assert.Equal(t, 0, stats.Updated)
	assert.Equal(t, 0, stats.BorderAppended)
	assert.Equal(t, 8, engine.Accumulated().Len())
}

func TestMergeFrame_IdenticalFrameIsPureInteriorUpdate(t *testing.T) {
	engine := NewEngine(testOptions(0.005))
	frame := gridCloud(2, 1.0, 0, 0, 0.5, 100, 100, 100)
	engine.MergeFrame(frame, geometry.Identity())

	stats := engine.MergeFrame(frame, geometry.Identity())

	// Every frame point finds its twin at distance zero, strictly
	// inside the voxel tolerance: no border points may be created.
	assert.Equal(t, 4, stats.Updated)
	assert.Equal(t, 0, stats.BorderAppended)
	assert.Equal(t, 0, stats.Appended)
	assert.Equal(t, 4, engine.Accumulated().Len())

	// Identical geometry puts every point on the contour, so the max
	// contour distance degenerates and blending backs off.
	assert.True(t, stats.DegenerateBlend)
	for _, p := range engine.Accumulated().Points {
		assert.Equal(t, uint8(100), p.R)
	}
}

func TestMergeFrame_MonotonicGrowthBound(t *testing.T) {
	engine := NewEngine(testOptions(0.005))
	frames := []*data.PointCloud{
		gridCloud(3, 1.0, 0, 0, 0, 100, 100, 100),
		gridCloud(3, 1.0, 0.0025, 0, 0.2, 150, 150, 150),
		gridCloud(3, 1.0, 20, 0, 0, 200, 200, 200),
		gridCloud(2, 1.0, 1.5, 1.5, 0.1, 50, 50, 50),
	}

	prior := 0
	for _, frame := range frames {
		engine.MergeFrame(frame, geometry.Identity())
		count := engine.Accumulated().Len()
		assert.GreaterOrEqual(t, count, prior)
		assert.LessOrEqual(t, count, prior+frame.Len())
		prior = count
	}
}

func TestMergeFrame_NoSilentPointLoss(t *testing.T) {
	engine := NewEngine(testOptions(0.005))
	first := gridCloud(3, 1.0, 0, 0, 0, 100, 100, 100)
	engine.MergeFrame(first, geometry.Identity())

	engine.MergeFrame(gridCloud(3, 1.0, 0.0025, 0, 0.5, 200, 200, 200), geometry.Identity())

	// Every pre-round footprint position must survive: updates mutate
	// z and color, never x/y, and nothing is deleted.
	acc := engine.Accumulated()
	for _, p := range first.Points {
		found := false
		for _, q := range acc.Points {
			if math.Abs(q.X-p.X) < 1e-9 && math.Abs(q.Y-p.Y) < 1e-9 {
				found = true
				break
			}
		}
		assert.True(t, found, "lost accumulated point (%v, %v)", p.X, p.Y)
	}
}

func TestMergeFrame_WeightMarksEveryTouchedPoint(t *testing.T) {
	// voxel 1.0 makes the search radius span grid neighbors, so the
	// stale-fill pass has secondary neighbors to mark.
	engine := NewEngine(testOptions(1.0))
	engine.MergeFrame(gridCloud(5, 1.0, 0, 0, 0, 100, 100, 100), geometry.Identity())

	stats := engine.MergeFrame(gridCloud(5, 1.0, 0.0025, 0, 0, 200, 200, 200), geometry.Identity())

	assert.Greater(t, stats.StaleFilled, 0)
	for i, p := range engine.Accumulated().Points {
		assert.Equal(t, 1.0, p.W, "point %d finished the round stale", i)
	}
}

func TestMergeFrame_BlendedChannelsStayBetweenInputs(t *testing.T) {
	engine := NewEngine(testOptions(1.0))
	engine.MergeFrame(gridCloud(5, 1.0, 0, 0, 0, 100, 100, 100), geometry.Identity())

	stats := engine.MergeFrame(gridCloud(5, 1.0, 0.0025, 0, 1.0, 200, 200, 200), geometry.Identity())

	require.False(t, stats.DegenerateBlend)
	for i, p := range engine.Accumulated().Points {
		assert.GreaterOrEqual(t, p.R, uint8(100), "point %d red below both inputs", i)
		assert.LessOrEqual(t, p.R, uint8(200), "point %d red above both inputs", i)
		assert.GreaterOrEqual(t, p.G, uint8(100))
		assert.LessOrEqual(t, p.G, uint8(200))
		assert.GreaterOrEqual(t, p.B, uint8(100))
		assert.LessOrEqual(t, p.B, uint8(200))
	}
}

func TestMergeFrame_OffsetGridScenario(t *testing.T) {
	// Two identical unit-spaced squares, the second shifted by half a
	// voxel: the overlap must blend z, not overwrite, and the count
	// must stay within [4, 8].
	voxel := 0.005
	engine := NewEngine(testOptions(voxel))
	engine.MergeFrame(gridCloud(2, 1.0, 0, 0, 0.0, 100, 100, 100), geometry.Identity())

	stats := engine.MergeFrame(gridCloud(2, 1.0, 0.5*voxel, 0, 1.0, 200, 200, 200), geometry.Identity())

	acc := engine.Accumulated()
	require.GreaterOrEqual(t, acc.Len(), 4)
	require.LessOrEqual(t, acc.Len(), 8)

	// Half a voxel is strictly inside the tolerance: pure update.
	assert.Equal(t, 4, stats.Updated)
	for _, p := range acc.Points {
		assert.InDelta(t, 0.5, p.Z, 1e-9, "z must be the average of 0 and 1")
		assert.GreaterOrEqual(t, p.R, uint8(100))
		assert.LessOrEqual(t, p.R, uint8(200))
	}
}

func TestMergeFrame_BorderPointIsAppendedNotMerged(t *testing.T) {
	engine := NewEngine(testOptions(1.0))
	engine.MergeFrame(gridCloud(5, 1.0, 0, 0, 0, 100, 100, 100), geometry.Identity())

	// One point just outside the grid: its nearest neighbor (4,2) is
	// at distance 1.0, outside maxDist (~0.707) but inside the search
	// radius (~1.414), so it is a border point.
	frame := data.NewPointCloud([]data.Point{{X: 5, Y: 2, Z: 2.0, R: 200, G: 200, B: 200}})
	stats := engine.MergeFrame(frame, geometry.Identity())

	assert.Equal(t, 1, stats.BorderAppended)
	assert.Equal(t, 0, stats.Updated)
	assert.Equal(t, 0, stats.Appended)
	require.Equal(t, 26, engine.Accumulated().Len())

	appended := engine.Accumulated().Points[25]
	assert.Equal(t, 5.0, appended.X)
	assert.Equal(t, 2.0, appended.Y)
	assert.Equal(t, 1.0, appended.W)
	// z folded against the neighbors at z=0
	assert.Less(t, appended.Z, 2.0)
	assert.Greater(t, appended.Z, 0.0)
}

func TestMergeFrame_TransformRoundTrip(t *testing.T) {
	engine := NewEngine(testOptions(0.005))
	first := gridCloud(2, 1.0, 0, 0, 0, 100, 100, 100)
	engine.MergeFrame(first, geometry.Identity())

	// A pure translation: the frame is disjoint in its own local
	// frame, and the appended points must land back in the reference
	// frame through the inverse transform.
	relative := geometry.NewRigidTransform(30, 0, 0, 0, 0, 0, 1)
	frame := data.NewPointCloud([]data.Point{{X: 50, Y: 50, Z: 1, R: 1, G: 2, B: 3}})
	engine.MergeFrame(frame, relative)

	acc := engine.Accumulated()
	require.Equal(t, 5, acc.Len())

	// The original square returned to its reference position.
	for i, p := range first.Points {
		assert.InDelta(t, p.X, acc.Points[i].X, 1e-9)
		assert.InDelta(t, p.Y, acc.Points[i].Y, 1e-9)
	}
	// inverse(relative) maps the frame point into the reference frame
	assert.InDelta(t, 20.0, acc.Points[4].X, 1e-9)
	assert.InDelta(t, 50.0, acc.Points[4].Y, 1e-9)
}

func TestMergeFrame_TrueMeanZMode(t *testing.T) {
	opts := testOptions(0.005)
	opts.TrueMeanZ = true
	engine := NewEngine(opts)

	engine.MergeFrame(data.NewPointCloud([]data.Point{{X: 0, Y: 0, Z: 0}}), geometry.Identity())
	engine.MergeFrame(data.NewPointCloud([]data.Point{{X: 0.001, Y: 0, Z: 1}}), geometry.Identity())

	// Single neighbor: running average and true mean agree at 0.5.
	acc := engine.Accumulated()
	require.Equal(t, 1, acc.Len())
	assert.InDelta(t, 0.5, acc.Points[0].Z, 1e-9)
}

func TestBlendZ_RunningAverageVersusTrueMean(t *testing.T) {
	engine := NewEngine(testOptions(1.0))
	engine.acc.Append(data.WeightedPoint{Point: data.Point{Z: 0}})
	engine.acc.Append(data.WeightedPoint{Point: data.Point{Z: 2}})
	neighbors := []spatial.Neighbor{{Index: 0}, {Index: 1}}

	// Running average folds pairwise in order: ((10+0)/2+2)/2 = 3.5.
	got := engine.blendZ(10, neighbors)
	assert.InDelta(t, 3.5, got, 1e-9)

	// True mean of {10, 0, 2} is 4.
	engine.trueMeanZ = true
	got = engine.blendZ(10, neighbors)
	assert.InDelta(t, 4.0, got, 1e-9)
}
