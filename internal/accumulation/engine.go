// Package accumulation implements the incremental fusion of
// pose-tagged overlapping clouds into one consistent colored cloud.
//
// Each merge round re-expresses the accumulation in the incoming
// frame's local coordinates, classifies every frame point as disjoint,
// border or interior against the accumulated footprint, blends z and
// color across the overlap seam, and transforms the accumulation back.
package accumulation

import (
	"log"
	"math"

	"github.com/ecopia-map/cloud_accumulator/internal/contour"
	"github.com/ecopia-map/cloud_accumulator/internal/data"
	"github.com/ecopia-map/cloud_accumulator/internal/filters"
	"github.com/ecopia-map/cloud_accumulator/internal/geometry"
	"github.com/ecopia-map/cloud_accumulator/internal/recon"
	"github.com/ecopia-map/cloud_accumulator/internal/spatial"
)

// The contour runs on a coarse copy of the accumulation: full
// resolution would only slow the hull down without moving the seam.
const contourGridFactor = 10

// RoundStats summarizes one merge round.
type RoundStats struct {
	FramePoints     int
	Appended        int // disjoint points added as-is
	BorderAppended  int // border points appended with blended z/color
	Updated         int // interior points overwritten in place
	StaleFilled     int // secondary neighbors color-filled
	ContourMisses   int // points left un-blended for lack of a contour match
	MaxContourDist  float64
	DegenerateBlend bool // no blending was possible this round
	Contour         *contour.Polygon
}

// Engine owns the accumulated cloud for the duration of a run. It is
// not safe for concurrent use; rounds are inherently sequential since
// every round reads and mutates the full accumulated state.
type Engine struct {
	maxDist   float64 // half-diagonal of a voxel cell
	overlapK  int
	probeK    int
	trueMeanZ bool

	contourGrid      *filters.VoxelGrid
	contourExtractor *contour.Extractor

	acc *data.WeightedCloud
}

// NewEngine builds an engine with an empty accumulation.
func NewEngine(opts *recon.Options) *Engine {
	coarse := opts.VoxelSize * contourGridFactor
	return &Engine{
		maxDist:          math.Sqrt(opts.VoxelSize * opts.VoxelSize / 2),
		overlapK:         opts.OverlapK,
		probeK:           opts.ProbeK,
		trueMeanZ:        opts.TrueMeanZ,
		contourGrid:      filters.NewVoxelGrid(coarse, coarse, coarse),
		contourExtractor: contour.NewExtractor(opts.ContourAlpha),
		acc:              data.NewWeightedCloud(),
	}
}

// Accumulated exposes the current accumulation. Callers must not
// mutate it while rounds are still running.
func (e *Engine) Accumulated() *data.WeightedCloud {
	return e.acc
}

// MergeFrame merges one filtered frame into the accumulation. The
// relative transform re-expresses the accumulation in the frame's
// local coordinates, computed as inverse(pose[i]) * pose[0].
func (e *Engine) MergeFrame(frame *data.PointCloud, relative geometry.RigidTransform) RoundStats {
	stats := RoundStats{FramePoints: frame.Len()}

	// First frame bootstraps the accumulation directly.
	if e.acc.Len() == 0 {
		for _, p := range frame.Points {
			e.acc.Append(data.WeightedPoint{Point: p})
		}
		stats.Appended = frame.Len()
		return stats
	}

	relative.TransformWeightedCloud(e.acc)

	// Snapshot indexes for the round. Neighbor indices refer to the
	// accumulation as it stands now; appends during the round land
	// past them and are never queried.
	accIndex := spatial.NewIndex(weightedProjections(e.acc))
	frameIndex := spatial.NewIndex(frameProjections(frame))

	poly := e.extractContour()
	contourIndex := spatial.NewIndex(poly.Points)
	stats.Contour = poly

	stats.MaxContourDist = e.maxContourDistance(frame, accIndex, contourIndex)
	if stats.MaxContourDist <= 0 {
		// Blending alpha would be 0/0; fall back to un-blended colors
		// rather than pushing NaN into the output.
		stats.DegenerateBlend = true
		log.Printf("[accumulation] degenerate contour distance, colors left un-blended this round")
	}

	e.acc.ResetWeights()

	searchRadius := 2 * e.maxDist
	for _, p := range frame.Points {
		sp := spatial.Point2{X: p.X, Y: p.Y}
		neighbors := accIndex.Radius(sp, searchRadius, e.overlapK)
		if len(neighbors) == 0 {
			// No accumulated surface nearby: either new area past the
			// borders or a hole in the accumulation. Append as-is.
			e.acc.Append(data.WeightedPoint{Point: p, W: 1.0})
			stats.Appended++
			continue
		}

		e.mergeOverlapping(p, sp, neighbors, contourIndex, &stats)
		e.fillStaleNeighbors(neighbors, frame, frameIndex, contourIndex, &stats)
	}

	relative.Inverse().TransformWeightedCloud(e.acc)
	return stats
}

// mergeOverlapping handles a frame point with accumulated neighbors:
// z blending, seam color blending and the border/interior decision.
func (e *Engine) mergeOverlapping(p data.Point, sp spatial.Point2, neighbors []spatial.Neighbor, contourIndex *spatial.Index, stats *RoundStats) {
	z := e.blendZ(p.Z, neighbors)

	// Blend against the closest accumulated point's color.
	minIdx := closestNeighbor(neighbors)
	accPoint := &e.acc.Points[neighbors[minIdx].Index]

	r, g, b := p.R, p.G, p.B
	if nearest, ok := contourIndex.Nearest(sp); ok {
		if !stats.DegenerateBlend {
			alpha := blendAlpha(stats.MaxContourDist, math.Sqrt(nearest.SquaredDist))
			r, g, b = blendColor(accPoint.R, accPoint.G, accPoint.B, p.R, p.G, p.B, alpha)
		}
	} else {
		// Keep the frame's own color; recoverable.
		stats.ContourMisses++
		log.Printf("[accumulation] no contour neighbors for point (%.3f, %.3f)", sp.X, sp.Y)
	}

	if isBorder(neighbors, e.maxDist) {
		// Border points are appended, never merged into an existing
		// slot: collapsing them would flatten the edge geometry where
		// consecutive scans overlap.
		e.acc.Append(data.WeightedPoint{
			Point: data.Point{X: p.X, Y: p.Y, Z: z, R: r, G: g, B: b},
			W:     1.0,
		})
		stats.BorderAppended++
		return
	}

	accPoint.Z = z
	accPoint.R, accPoint.G, accPoint.B = r, g, b
	accPoint.W = 1.0
	stats.Updated++
}

// fillStaleNeighbors color-fills every neighbor the main pass touched
// but did not update, so each overlapped accumulated point ends the
// round with a color derived from both old and new data.
func (e *Engine) fillStaleNeighbors(neighbors []spatial.Neighbor, frame *data.PointCloud, frameIndex, contourIndex *spatial.Index, stats *RoundStats) {
	for _, nb := range neighbors {
		accPoint := &e.acc.Points[nb.Index]
		if accPoint.W == 1.0 {
			continue
		}

		sp := spatial.Point2{X: accPoint.X, Y: accPoint.Y}
		nearestFrame, ok := frameIndex.Nearest(sp)
		if !ok {
			continue
		}
		nearestContour, ok := contourIndex.Nearest(sp)
		if !ok {
			continue
		}

		if !stats.DegenerateBlend {
			fp := frame.Points[nearestFrame.Index]
			alpha := blendAlpha(stats.MaxContourDist, math.Sqrt(nearestContour.SquaredDist))
			accPoint.R, accPoint.G, accPoint.B = blendColor(
				accPoint.R, accPoint.G, accPoint.B,
				fp.R, fp.G, fp.B,
				alpha,
			)
		}
		accPoint.W = 1.0
		stats.StaleFilled++
	}
}

// blendZ folds the accumulated neighbors' z into the frame point's z.
// The default is the historical running average, updated neighbor by
// neighbor in enumeration order; later neighbors see the partially
// averaged value. TrueMeanZ switches to a proper mean.
func (e *Engine) blendZ(z float64, neighbors []spatial.Neighbor) float64 {
	if e.trueMeanZ {
		sum := z
		for _, nb := range neighbors {
			sum += e.acc.Points[nb.Index].Z
		}
		return sum / float64(len(neighbors)+1)
	}
	for _, nb := range neighbors {
		z = (z + e.acc.Points[nb.Index].Z) / 2
	}
	return z
}

// maxContourDistance calibrates the blend strength: the largest
// distance from any overlapping frame point to the contour. Frame
// points without accumulated neighbors do not qualify.
func (e *Engine) maxContourDistance(frame *data.PointCloud, accIndex, contourIndex *spatial.Index) float64 {
	searchRadius := 2 * e.maxDist
	maxDist := 0.0
	for _, p := range frame.Points {
		sp := spatial.Point2{X: p.X, Y: p.Y}
		if len(accIndex.Radius(sp, searchRadius, e.probeK)) == 0 {
			continue
		}
		if nearest, ok := contourIndex.Nearest(sp); ok {
			if d := math.Sqrt(nearest.SquaredDist); d > maxDist {
				maxDist = d
			}
		}
	}
	return maxDist
}

// extractContour computes the footprint boundary of the current
// accumulation over a coarse voxel copy.
func (e *Engine) extractContour() *contour.Polygon {
	coarse := e.contourGrid.Filter(e.acc.StripWeights())
	return e.contourExtractor.Extract(frameProjections(coarse))
}

// isBorder reports whether none of the neighbors sits strictly inside
// the voxel tolerance.
func isBorder(neighbors []spatial.Neighbor, maxDist float64) bool {
	for _, nb := range neighbors {
		if nb.SquaredDist < maxDist*maxDist {
			return false
		}
	}
	return true
}

func closestNeighbor(neighbors []spatial.Neighbor) int {
	minIdx := 0
	for i, nb := range neighbors {
		if nb.SquaredDist < neighbors[minIdx].SquaredDist {
			minIdx = i
		}
	}
	return minIdx
}

func weightedProjections(cloud *data.WeightedCloud) []spatial.Point2 {
	pts := make([]spatial.Point2, cloud.Len())
	for i, p := range cloud.Points {
		pts[i] = spatial.Point2{X: p.X, Y: p.Y}
	}
	return pts
}

func frameProjections(cloud *data.PointCloud) []spatial.Point2 {
	pts := make([]spatial.Point2, cloud.Len())
	for i, p := range cloud.Points {
		pts[i] = spatial.Point2{X: p.X, Y: p.Y}
	}
	return pts
}
