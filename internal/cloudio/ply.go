package cloudio

import (
	"unsafe"

	"github.com/cobaltgray/go-plyfile"

	"github.com/ecopia-map/cloud_accumulator/internal/data"
)

// plyVertex mirrors the on-disk vertex layout. Field order matters:
// the property offsets below are computed from this struct.
type plyVertex struct {
	X float32
	Y float32
	Z float32
	R uint8
	G uint8
	B uint8
}

var plyVertexProps = []plyfile.PlyProperty{
	{Name: "x", External_type: plyfile.PLY_FLOAT, Internal_type: plyfile.PLY_FLOAT, Offset: int(unsafe.Offsetof(plyVertex{}.X))},
	{Name: "y", External_type: plyfile.PLY_FLOAT, Internal_type: plyfile.PLY_FLOAT, Offset: int(unsafe.Offsetof(plyVertex{}.Y))},
	{Name: "z", External_type: plyfile.PLY_FLOAT, Internal_type: plyfile.PLY_FLOAT, Offset: int(unsafe.Offsetof(plyVertex{}.Z))},
	{Name: "red", External_type: plyfile.PLY_UCHAR, Internal_type: plyfile.PLY_UCHAR, Offset: int(unsafe.Offsetof(plyVertex{}.R))},
	{Name: "green", External_type: plyfile.PLY_UCHAR, Internal_type: plyfile.PLY_UCHAR, Offset: int(unsafe.Offsetof(plyVertex{}.G))},
	{Name: "blue", External_type: plyfile.PLY_UCHAR, Internal_type: plyfile.PLY_UCHAR, Offset: int(unsafe.Offsetof(plyVertex{}.B))},
}

// WritePLY persists a colored cloud as a binary little-endian PLY
// file, the format downstream mesh tools expect.
func WritePLY(path string, cloud *data.PointCloud) error {
	var version float32
	ply := plyfile.PlyOpenForWriting(path, 1, []string{"vertex"}, plyfile.PLY_BINARY_LE, &version)

	plyfile.PlyElementCount(ply, "vertex", cloud.Len())
	for _, prop := range plyVertexProps {
		plyfile.PlyDescribeProperty(ply, "vertex", prop)
	}
	plyfile.PlyPutComment(ply, "cloud_accumulator fused cloud")
	plyfile.PlyHeaderComplete(ply)

	plyfile.PlyPutElementSetup(ply, "vertex")
	for _, p := range cloud.Points {
		plyfile.PlyPutElement(ply, plyVertex{
			X: float32(p.X),
			Y: float32(p.Y),
			Z: float32(p.Z),
			R: p.R,
			G: p.G,
			B: p.B,
		})
	}
	plyfile.PlyClose(ply)
	return nil
}
