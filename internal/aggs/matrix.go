package aggs

import (
	"encoding/json"
	"fmt"
)

// Matrix is a dense N-dimensional array stored row-major.
type Matrix struct {
	dims  []int
	cells []any
}

// NewMatrix allocates a matrix with every cell set to zero.
func NewMatrix(dims []int, zero any) *Matrix {
	size := 1
	for _, d := range dims {
		size *= d
	}
	cells := make([]any, size)
	for i := range cells {
		cells[i] = zero
	}
	return &Matrix{dims: append([]int(nil), dims...), cells: cells}
}

// Dims returns the axis lengths.
func (m *Matrix) Dims() []int { return append([]int(nil), m.dims...) }

func (m *Matrix) offset(coord []int) (int, error) {
	if len(coord) != len(m.dims) {
		return 0, fmt.Errorf("coordinate rank %d does not match matrix rank %d", len(coord), len(m.dims))
	}
	off := 0
	for i, c := range coord {
		if c < 0 || c >= m.dims[i] {
			return 0, fmt.Errorf("coordinate %v out of range %v", coord, m.dims)
		}
		off = off*m.dims[i] + c
	}
	return off, nil
}

// Get returns the cell at coord, or nil when coord is out of range.
func (m *Matrix) Get(coord ...int) any {
	off, err := m.offset(coord)
	if err != nil {
		return nil
	}
	return m.cells[off]
}

// Set stores v at coord. Out-of-range coordinates are ignored.
func (m *Matrix) Set(coord []int, v any) {
	off, err := m.offset(coord)
	if err != nil {
		return
	}
	m.cells[off] = v
}

// MarshalJSON renders nested arrays, one nesting level per axis.
func (m *Matrix) MarshalJSON() ([]byte, error) {
	if len(m.dims) == 0 {
		if len(m.cells) == 0 {
			return []byte("null"), nil
		}
		return json.Marshal(m.cells[0])
	}
	return json.Marshal(m.nested(0, 0))
}

func (m *Matrix) nested(axis, base int) []any {
	n := m.dims[axis]
	stride := 1
	for _, d := range m.dims[axis+1:] {
		stride *= d
	}
	out := make([]any, n)
	for i := 0; i < n; i++ {
		if axis == len(m.dims)-1 {
			out[i] = m.cells[base+i]
		} else {
			out[i] = m.nested(axis+1, base+i*stride)
		}
	}
	return out
}
