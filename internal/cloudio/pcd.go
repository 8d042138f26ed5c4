// Package cloudio reads and writes the on-disk cloud formats: PCD for
// the per-frame inputs and the accumulated output, PLY as a secondary
// export for mesh tooling.
package cloudio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/ecopia-map/cloud_accumulator/internal/data"
)

type pcdHeader struct {
	fields   []string
	types    []string
	sizes    []int
	points   int
	dataMode string
}

// ReadPCD loads a colored cloud from a PCD file. Both ascii and
// little-endian binary payloads are accepted; the cloud must carry
// x, y, z and a packed rgb field.
func ReadPCD(path string) (*data.PointCloud, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	header, err := readPCDHeader(reader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	xi, yi, zi, ci := fieldIndices(header)
	if xi < 0 || yi < 0 || zi < 0 || ci < 0 {
		return nil, fmt.Errorf("%s: missing x/y/z/rgb fields (got %v)", path, header.fields)
	}

	switch header.dataMode {
	case "ascii":
		return readPCDAscii(reader, header, xi, yi, zi, ci)
	case "binary":
		return readPCDBinary(reader, header, xi, yi, zi, ci)
	default:
		return nil, fmt.Errorf("%s: unsupported DATA mode %q", path, header.dataMode)
	}
}

func readPCDHeader(reader *bufio.Reader) (*pcdHeader, error) {
	header := &pcdHeader{points: -1}
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("truncated header: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)
		switch parts[0] {
		case "FIELDS":
			header.fields = parts[1:]
		case "TYPE":
			header.types = parts[1:]
		case "SIZE":
			for _, s := range parts[1:] {
				size, err := strconv.Atoi(s)
				if err != nil {
					return nil, fmt.Errorf("bad SIZE entry %q", s)
				}
				header.sizes = append(header.sizes, size)
			}
		case "POINTS":
			n, err := strconv.Atoi(parts[1])
			if err != nil {
				return nil, fmt.Errorf("bad POINTS entry %q", parts[1])
			}
			header.points = n
		case "DATA":
			header.dataMode = parts[1]
			if header.points < 0 {
				return nil, fmt.Errorf("DATA before POINTS")
			}
			if len(header.fields) == 0 {
				return nil, fmt.Errorf("DATA before FIELDS")
			}
			return header, nil
		case "VERSION", "COUNT", "WIDTH", "HEIGHT", "VIEWPOINT":
			// not needed for unorganized colored clouds
		}
	}
}

func fieldIndices(header *pcdHeader) (xi, yi, zi, ci int) {
	xi, yi, zi, ci = -1, -1, -1, -1
	for i, f := range header.fields {
		switch f {
		case "x":
			xi = i
		case "y":
			yi = i
		case "z":
			zi = i
		case "rgb", "rgba":
			ci = i
		}
	}
	return xi, yi, zi, ci
}

func readPCDAscii(reader *bufio.Reader, header *pcdHeader, xi, yi, zi, ci int) (*data.PointCloud, error) {
	colorType := header.types[ci]
	cloud := &data.PointCloud{Points: make([]data.Point, 0, header.points)}
	for len(cloud.Points) < header.points {
		line, err := reader.ReadString('\n')
		if err == io.EOF && strings.TrimSpace(line) == "" {
			return nil, fmt.Errorf("truncated data: got %d of %d points", len(cloud.Points), header.points)
		} else if err != nil && err != io.EOF {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		values := strings.Fields(line)
		if len(values) < len(header.fields) {
			return nil, fmt.Errorf("short data row %q", line)
		}
		x, errX := strconv.ParseFloat(values[xi], 64)
		y, errY := strconv.ParseFloat(values[yi], 64)
		z, errZ := strconv.ParseFloat(values[zi], 64)
		if errX != nil || errY != nil || errZ != nil {
			return nil, fmt.Errorf("bad coordinate in row %q", line)
		}
		packed, err := parsePackedColor(values[ci], colorType)
		if err != nil {
			return nil, fmt.Errorf("bad color in row %q: %w", line, err)
		}
		cloud.Append(unpackColor(x, y, z, packed))
	}
	return cloud, nil
}

func readPCDBinary(reader *bufio.Reader, header *pcdHeader, xi, yi, zi, ci int) (*data.PointCloud, error) {
	if len(header.sizes) != len(header.fields) {
		return nil, fmt.Errorf("SIZE/FIELDS mismatch")
	}
	stride := 0
	offsets := make([]int, len(header.fields))
	for i, size := range header.sizes {
		offsets[i] = stride
		stride += size
	}

	row := make([]byte, stride)
	cloud := &data.PointCloud{Points: make([]data.Point, 0, header.points)}
	for i := 0; i < header.points; i++ {
		if _, err := io.ReadFull(reader, row); err != nil {
			return nil, fmt.Errorf("truncated data: got %d of %d points: %w", i, header.points, err)
		}
		x := float64(math.Float32frombits(binary.LittleEndian.Uint32(row[offsets[xi]:])))
		y := float64(math.Float32frombits(binary.LittleEndian.Uint32(row[offsets[yi]:])))
		z := float64(math.Float32frombits(binary.LittleEndian.Uint32(row[offsets[zi]:])))
		packed := binary.LittleEndian.Uint32(row[offsets[ci]:])
		cloud.Append(unpackColor(x, y, z, packed))
	}
	return cloud, nil
}

// parsePackedColor handles both the unsigned representation and the
// float-reinterpret representation PCL uses for ascii rgb fields.
func parsePackedColor(value, colorType string) (uint32, error) {
	if colorType == "U" || colorType == "I" {
		v, err := strconv.ParseUint(value, 10, 32)
		return uint32(v), err
	}
	f, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return 0, err
	}
	return math.Float32bits(float32(f)), nil
}

func unpackColor(x, y, z float64, packed uint32) data.Point {
	return data.Point{
		X: x,
		Y: y,
		Z: z,
		R: uint8(packed >> 16),
		G: uint8(packed >> 8),
		B: uint8(packed),
	}
}

// WritePCD persists a colored cloud as an ascii PCD file. The rgb
// field is written unsigned so the packed value survives the text
// roundtrip exactly.
func WritePCD(path string, cloud *data.PointCloud) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	n := cloud.Len()
	fmt.Fprintf(writer, "# .PCD v0.7 - Point Cloud Data file format\n")
	fmt.Fprintf(writer, "VERSION 0.7\n")
	fmt.Fprintf(writer, "FIELDS x y z rgb\n")
	fmt.Fprintf(writer, "SIZE 4 4 4 4\n")
	fmt.Fprintf(writer, "TYPE F F F U\n")
	fmt.Fprintf(writer, "COUNT 1 1 1 1\n")
	fmt.Fprintf(writer, "WIDTH %d\n", n)
	fmt.Fprintf(writer, "HEIGHT 1\n")
	fmt.Fprintf(writer, "VIEWPOINT 0 0 0 1 0 0 0\n")
	fmt.Fprintf(writer, "POINTS %d\n", n)
	fmt.Fprintf(writer, "DATA ascii\n")

	for _, p := range cloud.Points {
		packed := uint32(p.R)<<16 | uint32(p.G)<<8 | uint32(p.B)
		fmt.Fprintf(writer, "%g %g %g %d\n", p.X, p.Y, p.Z, packed)
	}
	return writer.Flush()
}
