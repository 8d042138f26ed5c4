package data

// PointCloud is a plain colored cloud, one per input frame.
type PointCloud struct {
	Points []Point
}

func NewPointCloud(points []Point) *PointCloud {
	return &PointCloud{Points: points}
}

func (c *PointCloud) Len() int {
	return len(c.Points)
}

func (c *PointCloud) Append(p Point) {
	c.Points = append(c.Points, p)
}

// Copy returns a deep copy of the cloud.
func (c *PointCloud) Copy() *PointCloud {
	points := make([]Point, len(c.Points))
	copy(points, c.Points)
	return &PointCloud{Points: points}
}

// WeightedCloud is the accumulation container. It only ever grows in
// count; existing entries are mutated in place during a merge round.
type WeightedCloud struct {
	Points []WeightedPoint
}

func NewWeightedCloud() *WeightedCloud {
	return &WeightedCloud{}
}

// NewWeightedCloudFrom copies a frame cloud into a fresh weighted
// container. Weights start at zero.
func NewWeightedCloudFrom(c *PointCloud) *WeightedCloud {
	w := &WeightedCloud{Points: make([]WeightedPoint, 0, c.Len())}
	for _, p := range c.Points {
		w.Points = append(w.Points, WeightedPoint{Point: p})
	}
	return w
}

func (c *WeightedCloud) Len() int {
	return len(c.Points)
}

func (c *WeightedCloud) Append(p WeightedPoint) {
	c.Points = append(c.Points, p)
}

// ResetWeights marks every point stale at the start of a merge round.
func (c *WeightedCloud) ResetWeights() {
	for i := range c.Points {
		c.Points[i].W = 0.0
	}
}

// StripWeights projects the accumulation down to a plain colored cloud
// for the final output pass.
func (c *WeightedCloud) StripWeights() *PointCloud {
	out := &PointCloud{Points: make([]Point, 0, c.Len())}
	for _, p := range c.Points {
		out.Points = append(out.Points, p.Point)
	}
	return out
}
