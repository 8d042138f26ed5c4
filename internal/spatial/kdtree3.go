package spatial

import (
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// Point3 is a full 3D point, used by the outlier filters where
// isolation must be judged in space rather than on the footprint.
type Point3 struct {
	X float64
	Y float64
	Z float64
}

type indexedPoint3 struct {
	Point3
	idx int
}

func (p indexedPoint3) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(indexedPoint3)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	default:
		return p.Z - q.Z
	}
}

func (p indexedPoint3) Dims() int { return 3 }

func (p indexedPoint3) Distance(c kdtree.Comparable) float64 {
	q := c.(indexedPoint3)
	dx, dy, dz := p.X-q.X, p.Y-q.Y, p.Z-q.Z
	return dx*dx + dy*dy + dz*dz
}

type indexedPoints3 []indexedPoint3

func (p indexedPoints3) Index(i int) kdtree.Comparable { return p[i] }
func (p indexedPoints3) Len() int                      { return len(p) }
func (p indexedPoints3) Pivot(d kdtree.Dim) int {
	return hyperplane{indexedPoints3: p, Dim: d}.Pivot()
}
func (p indexedPoints3) Slice(start, end int) kdtree.Interface { return p[start:end] }

type hyperplane struct {
	kdtree.Dim
	indexedPoints3
}

func (p hyperplane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.indexedPoints3[i].X < p.indexedPoints3[j].X
	case 1:
		return p.indexedPoints3[i].Y < p.indexedPoints3[j].Y
	default:
		return p.indexedPoints3[i].Z < p.indexedPoints3[j].Z
	}
}
func (p hyperplane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p hyperplane) Slice(start, end int) kdtree.SortSlicer {
	p.indexedPoints3 = p.indexedPoints3[start:end]
	return p
}
func (p hyperplane) Swap(i, j int) {
	p.indexedPoints3[i], p.indexedPoints3[j] = p.indexedPoints3[j], p.indexedPoints3[i]
}

// Index3 answers radius and k-nearest queries over an immutable 3D
// point set.
type Index3 struct {
	tree *kdtree.Tree
	size int
}

func NewIndex3(points []Point3) *Index3 {
	pts := make(indexedPoints3, len(points))
	for i, p := range points {
		pts[i] = indexedPoint3{Point3: p, idx: i}
	}
	return &Index3{
		tree: kdtree.New(pts, false),
		size: len(points),
	}
}

func (x *Index3) Len() int { return x.size }

// Radius returns up to max nearest neighbors of q within the given
// radius.
func (x *Index3) Radius(q Point3, radius float64, max int) []Neighbor {
	if x.size == 0 || max <= 0 {
		return nil
	}
	if max > x.size {
		max = x.size
	}
	keeper := kdtree.NewNKeeper(max)
	x.tree.NearestSet(keeper, indexedPoint3{Point3: q, idx: -1})

	r2 := radius * radius
	var out []Neighbor
	for _, cd := range keeper.Heap {
		if cd.Comparable == nil || cd.Dist > r2 {
			continue
		}
		out = append(out, Neighbor{
			Index:       cd.Comparable.(indexedPoint3).idx,
			SquaredDist: cd.Dist,
		})
	}
	return out
}

// NearestK returns the k nearest neighbors of q, nearest first.
func (x *Index3) NearestK(q Point3, k int) []Neighbor {
	if x.size == 0 || k <= 0 {
		return nil
	}
	if k > x.size {
		k = x.size
	}
	keeper := kdtree.NewNKeeper(k)
	x.tree.NearestSet(keeper, indexedPoint3{Point3: q, idx: -1})

	var out []Neighbor
	for _, cd := range keeper.Heap {
		if cd.Comparable == nil {
			continue
		}
		out = append(out, Neighbor{
			Index:       cd.Comparable.(indexedPoint3).idx,
			SquaredDist: cd.Dist,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SquaredDist < out[j].SquaredDist })
	return out
}
