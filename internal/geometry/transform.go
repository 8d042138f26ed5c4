package geometry

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ecopia-map/cloud_accumulator/internal/data"
)

// RigidTransform is a rotation followed by a translation, the pose
// representation used throughout the pipeline.
type RigidTransform struct {
	rotation    r3.Rotation
	translation r3.Vec
}

// NewRigidTransform builds a transform from a translation and a
// quaternion given as (qx, qy, qz, qw). The quaternion is normalized,
// pose files routinely carry slightly denormalized values.
func NewRigidTransform(tx, ty, tz, qx, qy, qz, qw float64) RigidTransform {
	q := quat.Number{Real: qw, Imag: qx, Jmag: qy, Kmag: qz}
	if n := quat.Abs(q); n > 0 {
		q = quat.Scale(1/n, q)
	}
	return RigidTransform{
		rotation:    r3.Rotation(q),
		translation: r3.Vec{X: tx, Y: ty, Z: tz},
	}
}

// Identity returns the identity transform.
func Identity() RigidTransform {
	return RigidTransform{
		rotation: r3.Rotation(quat.Number{Real: 1}),
	}
}

// Apply transforms a single coordinate.
func (t RigidTransform) Apply(c Coordinate) Coordinate {
	v := r3.Add(t.rotation.Rotate(r3.Vec{X: c.X, Y: c.Y, Z: c.Z}), t.translation)
	return Coordinate{X: v.X, Y: v.Y, Z: v.Z}
}

// Inverse returns the transform mapping back to the source frame.
func (t RigidTransform) Inverse() RigidTransform {
	inv := r3.Rotation(quat.Conj(quat.Number(t.rotation)))
	it := inv.Rotate(r3.Scale(-1, t.translation))
	return RigidTransform{rotation: inv, translation: it}
}

// Mul composes two transforms: (t.Mul(u)).Apply(c) == t.Apply(u.Apply(c)).
func (t RigidTransform) Mul(u RigidTransform) RigidTransform {
	return RigidTransform{
		rotation:    r3.Rotation(quat.Mul(quat.Number(t.rotation), quat.Number(u.rotation))),
		translation: r3.Add(t.rotation.Rotate(u.translation), t.translation),
	}
}

// RelativeTo re-expresses poses sharing this transform's reference
// frame into the local frame of pose t: inverse(t) * reference.
func (t RigidTransform) RelativeTo(reference RigidTransform) RigidTransform {
	return t.Inverse().Mul(reference)
}

// TransformCloud applies the transform to every point of the cloud,
// in place.
func (t RigidTransform) TransformCloud(cloud *data.PointCloud) {
	for i := range cloud.Points {
		p := &cloud.Points[i]
		v := r3.Add(t.rotation.Rotate(r3.Vec{X: p.X, Y: p.Y, Z: p.Z}), t.translation)
		p.X, p.Y, p.Z = v.X, v.Y, v.Z
	}
}

// TransformWeightedCloud is TransformCloud for the accumulation
// container. Weights are untouched.
func (t RigidTransform) TransformWeightedCloud(cloud *data.WeightedCloud) {
	for i := range cloud.Points {
		p := &cloud.Points[i]
		v := r3.Add(t.rotation.Rotate(r3.Vec{X: p.X, Y: p.Y, Z: p.Z}), t.translation)
		p.X, p.Y, p.Z = v.X, v.Y, v.Z
	}
}
