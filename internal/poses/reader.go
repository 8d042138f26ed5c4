// Package poses reads the ordered pose sequence the accumulation
// follows. The pose file is a comma-separated export of the SLAM graph
// vertices: field 1 carries the cloud identifier, fields 5..11 carry
// translation x y z and quaternion qx qy qz qw.
package poses

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ecopia-map/cloud_accumulator/internal/geometry"
)

const (
	fieldCloudName = 1
	fieldX         = 5
	fieldQW        = 11
	minFields      = 12
)

// CloudPose ties one cloud file identifier to its rigid transform.
// The sequence order is the capture order.
type CloudPose struct {
	CloudName string
	Transform geometry.RigidTransform
}

// Reader parses pose files. CloudExtension is appended to the raw
// identifier to form the cloud file name.
type Reader struct {
	CloudExtension string
}

func NewReader(cloudExtension string) *Reader {
	return &Reader{CloudExtension: cloudExtension}
}

// Read parses the pose file at path. Any structural problem is an
// error: a malformed pose file invalidates the whole run.
func (r *Reader) Read(path string) ([]CloudPose, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open pose file %s: %w", path, err)
	}
	defer file.Close()

	var sequence []CloudPose
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		pose, err := r.parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("pose file %s line %d: %w", path, lineNum, err)
		}
		sequence = append(sequence, pose)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading pose file %s: %w", path, err)
	}
	return sequence, nil
}

func (r *Reader) parseLine(line string) (CloudPose, error) {
	fields := strings.Split(line, ",")
	if len(fields) < minFields {
		return CloudPose{}, fmt.Errorf("expected at least %d fields, got %d", minFields, len(fields))
	}

	name := strings.TrimSpace(fields[fieldCloudName])
	if name == "" {
		return CloudPose{}, fmt.Errorf("empty cloud identifier")
	}

	// Parse through decimal to keep the text value intact before the
	// single conversion to float64.
	values := make([]float64, 0, fieldQW-fieldX+1)
	for i := fieldX; i <= fieldQW; i++ {
		d, err := decimal.NewFromString(strings.TrimSpace(fields[i]))
		if err != nil {
			return CloudPose{}, fmt.Errorf("field %d: %w", i, err)
		}
		values = append(values, d.InexactFloat64())
	}

	return CloudPose{
		CloudName: name + r.CloudExtension,
		Transform: geometry.NewRigidTransform(
			values[0], values[1], values[2],
			values[3], values[4], values[5], values[6],
		),
	}, nil
}
