package filters

import "github.com/ecopia-map/cloud_accumulator/internal/data"

// CloudFilter is a single deterministic cleaning stage.
type CloudFilter interface {
	Filter(cloud *data.PointCloud) *data.PointCloud
}

// Pipeline chains cleaning stages in order.
type Pipeline struct {
	stages []CloudFilter
}

func NewPipeline(stages ...CloudFilter) *Pipeline {
	return &Pipeline{stages: stages}
}

func (p *Pipeline) Filter(cloud *data.PointCloud) *data.PointCloud {
	out := cloud
	for _, stage := range p.stages {
		out = stage.Filter(out)
	}
	return out
}

// NaNRemoval drops points with NaN or Inf coordinates. Always the
// first stage: the spatial filters cannot index invalid coordinates.
type NaNRemoval struct{}

func NewNaNRemoval() *NaNRemoval {
	return &NaNRemoval{}
}

func (f *NaNRemoval) Filter(cloud *data.PointCloud) *data.PointCloud {
	out := &data.PointCloud{Points: make([]data.Point, 0, cloud.Len())}
	for _, p := range cloud.Points {
		if p.HasInvalidCoords() {
			continue
		}
		out.Append(p)
	}
	return out
}
