package spatial

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitGrid(n int) []Point2 {
	pts := make([]Point2, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			pts = append(pts, Point2{X: float64(i), Y: float64(j)})
		}
	}
	return pts
}

func TestIndexNearest(t *testing.T) {
	pts := unitGrid(4)
	idx := NewIndex(pts)

	nb, ok := idx.Nearest(Point2{X: 2.1, Y: 3.2})
	require.True(t, ok)
	assert.Equal(t, Point2{X: 2, Y: 3}, pts[nb.Index])
	assert.InDelta(t, 0.1*0.1+0.2*0.2, nb.SquaredDist, 1e-12)
}

func TestIndexNearestEmpty(t *testing.T) {
	idx := NewIndex(nil)
	_, ok := idx.Nearest(Point2{})
	assert.False(t, ok)
	assert.Nil(t, idx.Radius(Point2{}, 1.0, 5))
}

func TestIndexRadius(t *testing.T) {
	idx := NewIndex(unitGrid(5))

	// Around an interior grid point: the point itself plus its four
	// axis neighbors sit within radius 1, the diagonals at sqrt(2) do
	// not.
	got := idx.Radius(Point2{X: 2, Y: 2}, 1.0, 10)
	assert.Len(t, got, 5)
	for _, nb := range got {
		assert.LessOrEqual(t, nb.SquaredDist, 1.0)
	}
}

func TestIndexRadiusCapsResultCount(t *testing.T) {
	idx := NewIndex(unitGrid(5))

	got := idx.Radius(Point2{X: 2, Y: 2}, 1.0, 3)
	assert.Len(t, got, 3)
	// With the cap in place the kept set must still be the closest
	// candidates, so the query point itself is among them.
	found := false
	for _, nb := range got {
		if nb.SquaredDist == 0 {
			found = true
		}
	}
	assert.True(t, found)
}

func TestIndexRadiusNoMatch(t *testing.T) {
	idx := NewIndex(unitGrid(3))
	assert.Empty(t, idx.Radius(Point2{X: 50, Y: 50}, 1.0, 10))
}

func TestIndexNeighborIndicesMatchSourceSlice(t *testing.T) {
	pts := []Point2{{X: 5, Y: 5}, {X: 0, Y: 0}, {X: 9, Y: 9}}
	idx := NewIndex(pts)

	nb, ok := idx.Nearest(Point2{X: 0.2, Y: 0.1})
	require.True(t, ok)
	assert.Equal(t, 1, nb.Index)
}

func TestIndex3Radius(t *testing.T) {
	pts := []Point3{
		{X: 0, Y: 0, Z: 0},
		{X: 0, Y: 0, Z: 1},
		{X: 0, Y: 0, Z: 3},
		{X: 2, Y: 2, Z: 0},
	}
	idx := NewIndex3(pts)

	got := idx.Radius(Point3{X: 0, Y: 0, Z: 0}, 1.5, 10)
	require.Len(t, got, 2)
	indices := []int{got[0].Index, got[1].Index}
	sort.Ints(indices)
	assert.Equal(t, []int{0, 1}, indices)
}

func TestIndex3NearestK(t *testing.T) {
	pts := []Point3{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 2, Z: 0},
		{X: 0, Y: 0, Z: 4},
	}
	idx := NewIndex3(pts)

	got := idx.NearestK(Point3{X: 0, Y: 0, Z: 0}, 3)
	require.Len(t, got, 3)
	assert.Equal(t, 0, got[0].Index)
	assert.Equal(t, 1, got[1].Index)
	assert.Equal(t, 2, got[2].Index)
	assert.InDelta(t, 4.0, got[2].SquaredDist, 1e-12)
}

func TestIndexLargeSetAgainstBruteForce(t *testing.T) {
	// Deterministic pseudo-random scatter; compare the tree against a
	// linear scan.
	pts := make([]Point2, 0, 200)
	seed := 1.0
	next := func() float64 {
		seed = math.Mod(seed*997.0+71.0, 1009.0)
		return seed / 1009.0 * 10.0
	}
	for i := 0; i < 200; i++ {
		pts = append(pts, Point2{X: next(), Y: next()})
	}
	idx := NewIndex(pts)

	queries := []Point2{{X: 1, Y: 1}, {X: 5.5, Y: 2.2}, {X: 9.9, Y: 0.1}}
	for _, q := range queries {
		nb, ok := idx.Nearest(q)
		require.True(t, ok)

		best := math.Inf(1)
		for _, p := range pts {
			dx, dy := p.X-q.X, p.Y-q.Y
			if d := dx*dx + dy*dy; d < best {
				best = d
			}
		}
		assert.InDelta(t, best, nb.SquaredDist, 1e-12, "query %+v", q)
	}
}
