// Planar nearest-neighbor index used by the accumulation engine.
//
// All queries project points on the x-y plane: the sensor travels
// roughly parallel to the surveyed surface, so overlap between frames
// is decided in 2D while z stays payload.
package spatial

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// Point2 is a 2D projection of a cloud point.
type Point2 struct {
	X float64
	Y float64
}

// Neighbor is one query result: the index of the matched point in the
// source slice and its squared planar distance to the query point.
type Neighbor struct {
	Index       int
	SquaredDist float64
}

type indexedPoint struct {
	Point2
	idx int
}

func (p indexedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(indexedPoint)
	switch d {
	case 0:
		return p.X - q.X
	default:
		return p.Y - q.Y
	}
}

func (p indexedPoint) Dims() int { return 2 }

// Distance returns the squared Euclidean distance.
func (p indexedPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(indexedPoint)
	dx, dy := p.X-q.X, p.Y-q.Y
	return dx*dx + dy*dy
}

type indexedPoints []indexedPoint

func (p indexedPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p indexedPoints) Len() int                      { return len(p) }
func (p indexedPoints) Pivot(d kdtree.Dim) int {
	return plane{indexedPoints: p, Dim: d}.Pivot()
}
func (p indexedPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

type plane struct {
	kdtree.Dim
	indexedPoints
}

func (p plane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.indexedPoints[i].X < p.indexedPoints[j].X
	default:
		return p.indexedPoints[i].Y < p.indexedPoints[j].Y
	}
}
func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.indexedPoints = p.indexedPoints[start:end]
	return p
}
func (p plane) Swap(i, j int) {
	p.indexedPoints[i], p.indexedPoints[j] = p.indexedPoints[j], p.indexedPoints[i]
}

// Index answers radius and k-nearest queries over an immutable 2D
// point set. It is rebuilt from scratch whenever the underlying set
// changes; it never tolerates concurrent inserts.
type Index struct {
	tree *kdtree.Tree
	size int
}

// NewIndex builds an index over the given projections. The Neighbor
// indices returned by queries refer to positions in this slice.
func NewIndex(points []Point2) *Index {
	pts := make(indexedPoints, len(points))
	for i, p := range points {
		pts[i] = indexedPoint{Point2: p, idx: i}
	}
	return &Index{
		tree: kdtree.New(pts, false),
		size: len(points),
	}
}

// Len returns the number of indexed points.
func (x *Index) Len() int { return x.size }

// Radius returns up to max nearest neighbors of q within the given
// radius. Result order is not specified.
func (x *Index) Radius(q Point2, radius float64, max int) []Neighbor {
	if x.size == 0 || max <= 0 {
		return nil
	}
	if max > x.size {
		max = x.size
	}
	keeper := kdtree.NewNKeeper(max)
	x.tree.NearestSet(keeper, indexedPoint{Point2: q, idx: -1})

	r2 := radius * radius
	var out []Neighbor
	for _, cd := range keeper.Heap {
		if cd.Comparable == nil || cd.Dist > r2 {
			continue
		}
		out = append(out, Neighbor{
			Index:       cd.Comparable.(indexedPoint).idx,
			SquaredDist: cd.Dist,
		})
	}
	return out
}

// Nearest returns the single nearest neighbor of q, or ok=false for an
// empty index.
func (x *Index) Nearest(q Point2) (Neighbor, bool) {
	if x.size == 0 {
		return Neighbor{}, false
	}
	c, d := x.tree.Nearest(indexedPoint{Point2: q, idx: -1})
	if c == nil || math.IsInf(d, 1) {
		return Neighbor{}, false
	}
	return Neighbor{Index: c.(indexedPoint).idx, SquaredDist: d}, true
}
