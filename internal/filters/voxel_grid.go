// Package filters implements the per-cloud cleaning pipeline: NaN
// removal, approximate voxel-grid downsampling and the two outlier
// removal passes. Every filter is deterministic for identical input
// and parameters.
package filters

import (
	"math"
	"sort"

	"github.com/ecopia-map/cloud_accumulator/internal/data"
)

// VoxelGrid downsamples a cloud by averaging all points falling into
// the same grid cell. Leaf sizes are per-axis: the surface extraction
// pass uses a very tall z leaf so each (x,y) cell collapses to a
// single surface sample.
type VoxelGrid struct {
	LeafX float64
	LeafY float64
	LeafZ float64
}

func NewVoxelGrid(leafX, leafY, leafZ float64) *VoxelGrid {
	return &VoxelGrid{LeafX: leafX, LeafY: leafY, LeafZ: leafZ}
}

type voxelKey struct {
	ix int64
	iy int64
	iz int64
}

type voxelCell struct {
	x, y, z float64
	r, g, b float64
	n       int
}

// Filter returns the downsampled cloud. Position and color are both
// averaged per cell. Output order follows the grid cell ordering, not
// the input ordering, but is stable for a given input.
func (f *VoxelGrid) Filter(cloud *data.PointCloud) *data.PointCloud {
	if cloud.Len() == 0 {
		return data.NewPointCloud(nil)
	}

	cells := make(map[voxelKey]*voxelCell)
	for _, p := range cloud.Points {
		key := voxelKey{
			ix: int64(math.Floor(p.X / f.LeafX)),
			iy: int64(math.Floor(p.Y / f.LeafY)),
			iz: int64(math.Floor(p.Z / f.LeafZ)),
		}
		c, ok := cells[key]
		if !ok {
			c = &voxelCell{}
			cells[key] = c
		}
		c.x += p.X
		c.y += p.Y
		c.z += p.Z
		c.r += float64(p.R)
		c.g += float64(p.G)
		c.b += float64(p.B)
		c.n++
	}

	keys := make([]voxelKey, 0, len(cells))
	for key := range cells {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.ix != b.ix {
			return a.ix < b.ix
		}
		if a.iy != b.iy {
			return a.iy < b.iy
		}
		return a.iz < b.iz
	})

	out := &data.PointCloud{Points: make([]data.Point, 0, len(keys))}
	for _, key := range keys {
		c := cells[key]
		n := float64(c.n)
		out.Append(data.Point{
			X: c.x / n,
			Y: c.y / n,
			Z: c.z / n,
			R: uint8(c.r/n + 0.5),
			G: uint8(c.g/n + 0.5),
			B: uint8(c.b/n + 0.5),
		})
	}
	return out
}
