// Package matrix reads connection cost matrices (matrix.bin).
package matrix

import (
	"encoding/binary"

	"github.com/npillmayer/schuko/tracing"

	"github.com/npillmayer/morpheme/internal/errs"
	"github.com/npillmayer/morpheme/internal/mapped"
)

// tracer writes to trace with key 'morpheme'
func tracer() tracing.Trace {
	return tracing.Select("morpheme")
}

// Matrix holds connection costs between the right context id of a node and
// the left context id of its successor. The file layout is
//
//	int16 lsize, int16 rsize, int16 cost[lsize*rsize]
//
// with cost(right, left) stored at index right + lsize*left.
type Matrix struct {
	file  *mapped.File
	lsize int
	rsize int
	costs []byte
}

// Open maps a matrix.bin file.
func Open(path string) (*Matrix, error) {
	f, err := mapped.Open(path)
	if err != nil {
		return nil, err
	}
	m, err := load(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return m, nil
}

// Load reads a matrix from memory. name is used in error messages only.
func Load(name string, data []byte) (*Matrix, error) {
	return load(mapped.FromBytes(name, data))
}

func load(f *mapped.File) (*Matrix, error) {
	data := f.Bytes()
	if len(data) < 4 || len(data)%2 != 0 {
		return nil, errs.New(errs.Size, f.Name(), "invalid file size %d", len(data))
	}
	lsize := int(int16(binary.LittleEndian.Uint16(data)))
	rsize := int(int16(binary.LittleEndian.Uint16(data[2:])))
	if lsize <= 0 || rsize <= 0 {
		return nil, errs.New(errs.Corrupt, f.Name(), "invalid dimensions %dx%d", lsize, rsize)
	}
	if want := 2 * (lsize*rsize + 2); want != len(data) {
		return nil, errs.New(errs.Size, f.Name(), "%dx%d matrix needs %d bytes, file has %d",
			lsize, rsize, want, len(data))
	}
	tracer().Infof("matrix %s: %dx%d", f.Name(), lsize, rsize)
	return &Matrix{file: f, lsize: lsize, rsize: rsize, costs: data[4:]}, nil
}

// LeftSize is the number of right context ids of preceding nodes.
func (m *Matrix) LeftSize() int { return m.lsize }

// RightSize is the number of left context ids of following nodes.
func (m *Matrix) RightSize() int { return m.rsize }

// Contains reports whether (right, left) is a valid cell.
func (m *Matrix) Contains(right, left uint16) bool {
	return int(right) < m.lsize && int(left) < m.rsize
}

// Cost returns the cost of connecting a node with right context id right to
// a following node with left context id left. Invalid cells cost 0.
func (m *Matrix) Cost(right, left uint16) int16 {
	if !m.Contains(right, left) {
		return 0
	}
	i := 2 * (int(right) + m.lsize*int(left))
	return int16(binary.LittleEndian.Uint16(m.costs[i:]))
}

// Close releases the underlying file mapping.
func (m *Matrix) Close() error {
	return m.file.Close()
}
