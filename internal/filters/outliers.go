package filters

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/ecopia-map/cloud_accumulator/internal/data"
	"github.com/ecopia-map/cloud_accumulator/internal/spatial"
)

// RadiusOutlierRemoval drops points with fewer than MinNeighbors other
// points within Radius. Isolated specks between scan passes do not
// survive this filter.
type RadiusOutlierRemoval struct {
	Radius       float64
	MinNeighbors int
}

func NewRadiusOutlierRemoval(radius float64, minNeighbors int) *RadiusOutlierRemoval {
	return &RadiusOutlierRemoval{Radius: radius, MinNeighbors: minNeighbors}
}

func (f *RadiusOutlierRemoval) Filter(cloud *data.PointCloud) *data.PointCloud {
	if cloud.Len() == 0 {
		return data.NewPointCloud(nil)
	}

	index := spatial.NewIndex3(cloudPoints3(cloud))
	out := &data.PointCloud{Points: make([]data.Point, 0, cloud.Len())}
	for _, p := range cloud.Points {
		q := spatial.Point3{X: p.X, Y: p.Y, Z: p.Z}
		// the query point is part of the index, discount it
		neighbors := index.Radius(q, f.Radius, f.MinNeighbors+1)
		if len(neighbors)-1 >= f.MinNeighbors {
			out.Append(p)
		}
	}
	return out
}

// StatisticalOutlierRemoval computes, per point, the mean distance to
// its MeanK nearest neighbors and drops points whose mean distance is
// beyond the global mean plus StddevMul standard deviations.
type StatisticalOutlierRemoval struct {
	MeanK     int
	StddevMul float64
}

func NewStatisticalOutlierRemoval(meanK int, stddevMul float64) *StatisticalOutlierRemoval {
	return &StatisticalOutlierRemoval{MeanK: meanK, StddevMul: stddevMul}
}

func (f *StatisticalOutlierRemoval) Filter(cloud *data.PointCloud) *data.PointCloud {
	if cloud.Len() == 0 {
		return data.NewPointCloud(nil)
	}

	index := spatial.NewIndex3(cloudPoints3(cloud))
	meanDists := make([]float64, cloud.Len())
	for i, p := range cloud.Points {
		q := spatial.Point3{X: p.X, Y: p.Y, Z: p.Z}
		// k+1 because the nearest match is the point itself
		neighbors := index.NearestK(q, f.MeanK+1)
		var sum float64
		var n int
		for _, nb := range neighbors {
			if nb.Index == i {
				continue
			}
			sum += math.Sqrt(nb.SquaredDist)
			n++
		}
		if n > 0 {
			meanDists[i] = sum / float64(n)
		}
	}

	mean := stat.Mean(meanDists, nil)
	stddev := stat.StdDev(meanDists, nil)
	threshold := mean + f.StddevMul*stddev

	out := &data.PointCloud{Points: make([]data.Point, 0, cloud.Len())}
	for i, p := range cloud.Points {
		if meanDists[i] <= threshold {
			out.Append(p)
		}
	}
	return out
}

func cloudPoints3(cloud *data.PointCloud) []spatial.Point3 {
	pts := make([]spatial.Point3, cloud.Len())
	for i, p := range cloud.Points {
		pts[i] = spatial.Point3{X: p.X, Y: p.Y, Z: p.Z}
	}
	return pts
}
