// Package contour extracts the boundary polygon of the accumulated
// cloud's 2D footprint. The footprint is rasterized into an occupancy
// grid at the concavity scale; points in cells missing at least one
// occupied 4-neighbor are boundary points, chained into an ordered
// ring.
package contour

import (
	"sort"

	"github.com/ecopia-map/cloud_accumulator/internal/spatial"
)

// Polygon is the ordered boundary of a footprint. It is recomputed
// every merge round and never persisted across rounds.
type Polygon struct {
	Points []spatial.Point2
}

func (p *Polygon) Len() int {
	return len(p.Points)
}

// Extractor computes footprint boundaries. Alpha is the concavity
// scale in the cloud's units: smaller values follow the footprint
// shape more closely, at the cost of noisier boundaries.
type Extractor struct {
	Alpha float64
}

func NewExtractor(alpha float64) *Extractor {
	return &Extractor{Alpha: alpha}
}

type cellKey struct {
	ix int64
	iy int64
}

// Extract returns the boundary polygon of the given 2D point set.
// Fewer than three input points are returned as-is.
func (e *Extractor) Extract(points []spatial.Point2) *Polygon {
	if len(points) <= 3 {
		out := make([]spatial.Point2, len(points))
		copy(out, points)
		return &Polygon{Points: out}
	}

	occupied := make(map[cellKey][]int)
	for i, p := range points {
		key := e.cellOf(p)
		occupied[key] = append(occupied[key], i)
	}

	var boundary []spatial.Point2
	for key, indices := range occupied {
		if e.isInterior(key, occupied) {
			continue
		}
		for _, i := range indices {
			boundary = append(boundary, points[i])
		}
	}

	return &Polygon{Points: orderRing(boundary)}
}

func (e *Extractor) cellOf(p spatial.Point2) cellKey {
	return cellKey{
		ix: int64(floorDiv(p.X, e.Alpha)),
		iy: int64(floorDiv(p.Y, e.Alpha)),
	}
}

func floorDiv(v, cell float64) float64 {
	d := v / cell
	f := float64(int64(d))
	if d < 0 && d != f {
		f--
	}
	return f
}

// isInterior reports whether all four edge-adjacent cells are
// occupied.
func (e *Extractor) isInterior(key cellKey, occupied map[cellKey][]int) bool {
	neighbors := [4]cellKey{
		{ix: key.ix - 1, iy: key.iy},
		{ix: key.ix + 1, iy: key.iy},
		{ix: key.ix, iy: key.iy - 1},
		{ix: key.ix, iy: key.iy + 1},
	}
	for _, n := range neighbors {
		if _, ok := occupied[n]; !ok {
			return false
		}
	}
	return true
}

// orderRing chains boundary points into a ring by repeated nearest
// unvisited hops, starting from the lowest point. The ordering is
// deterministic for a given input.
func orderRing(points []spatial.Point2) []spatial.Point2 {
	if len(points) <= 2 {
		return points
	}

	sort.Slice(points, func(i, j int) bool {
		if points[i].Y != points[j].Y {
			return points[i].Y < points[j].Y
		}
		return points[i].X < points[j].X
	})

	visited := make([]bool, len(points))
	ring := make([]spatial.Point2, 0, len(points))
	current := 0
	visited[0] = true
	ring = append(ring, points[0])

	for len(ring) < len(points) {
		best := -1
		bestDist := 0.0
		for i, p := range points {
			if visited[i] {
				continue
			}
			dx, dy := p.X-points[current].X, p.Y-points[current].Y
			d := dx*dx + dy*dy
			if best == -1 || d < bestDist {
				best = i
				bestDist = d
			}
		}
		visited[best] = true
		ring = append(ring, points[best])
		current = best
	}
	return ring
}
