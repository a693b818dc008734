package utils

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// ErrShape is returned when two arrays or an index set disagree on shape
var ErrShape = errors.New("array shape mismatch")

// Array is a dense row-major multidimensional array of float64.
// Dimension tags used throughout the module:
//
//	C: cells, F: basis functions, P: points, D: spatial dimension, N: vertices
//
// so a physical gradient table is [C × F × P × D] and the element at
// (c,f,p,d) is Data[((c*F+f)*P+p)*D+d].
type Array struct {
	Name string
	Dims []int
	Data []float64
}

// NewArray allocates a zeroed array with the given extents
func NewArray(name string, dims ...int) *Array {
	size := 1
	for _, d := range dims {
		if d < 0 {
			panic(fmt.Sprintf("array %s: negative extent %d", name, d))
		}
		size *= d
	}
	dd := make([]int, len(dims))
	copy(dd, dims)
	return &Array{
		Name: name,
		Dims: dd,
		Data: make([]float64, size),
	}
}

// NewArrayFrom wraps existing storage, which must hold exactly prod(dims) values
func NewArrayFrom(name string, data []float64, dims ...int) (*Array, error) {
	size := 1
	for _, d := range dims {
		size *= d
	}
	if len(data) != size {
		return nil, fmt.Errorf("array %s: %d values for dims %v: %w",
			name, len(data), dims, ErrShape)
	}
	dd := make([]int, len(dims))
	copy(dd, dims)
	return &Array{Name: name, Dims: dd, Data: data}, nil
}

func (a *Array) Rank() int { return len(a.Dims) }

func (a *Array) Size() int { return len(a.Data) }

// Extent returns the length of dimension i, or 0 when i is out of range
func (a *Array) Extent(i int) int {
	if i < 0 || i >= len(a.Dims) {
		return 0
	}
	return a.Dims[i]
}

func (a *Array) At2(i, j int) float64 {
	return a.Data[i*a.Dims[1]+j]
}

func (a *Array) Set2(i, j int, v float64) {
	a.Data[i*a.Dims[1]+j] = v
}

func (a *Array) At3(i, j, k int) float64 {
	return a.Data[(i*a.Dims[1]+j)*a.Dims[2]+k]
}

func (a *Array) Set3(i, j, k int, v float64) {
	a.Data[(i*a.Dims[1]+j)*a.Dims[2]+k] = v
}

func (a *Array) At4(i, j, k, l int) float64 {
	return a.Data[((i*a.Dims[1]+j)*a.Dims[2]+k)*a.Dims[3]+l]
}

func (a *Array) Set4(i, j, k, l int, v float64) {
	a.Data[((i*a.Dims[1]+j)*a.Dims[2]+k)*a.Dims[3]+l] = v
}

func (a *Array) Fill(v float64) {
	for i := range a.Data {
		a.Data[i] = v
	}
}

func (a *Array) Zero() { a.Fill(0) }

// Scale multiplies every entry by s
func (a *Array) Scale(s float64) {
	floats.Scale(s, a.Data)
}

// SameShape reports whether a and b have identical dimensions
func (a *Array) SameShape(b *Array) bool {
	if a == nil || b == nil || len(a.Dims) != len(b.Dims) {
		return false
	}
	for i := range a.Dims {
		if a.Dims[i] != b.Dims[i] {
			return false
		}
	}
	return true
}

// HasDims reports whether the array is non-nil and has exactly the given extents
func (a *Array) HasDims(dims ...int) bool {
	if a == nil || len(a.Dims) != len(dims) {
		return false
	}
	for i, d := range dims {
		if a.Dims[i] != d {
			return false
		}
	}
	return true
}

// CopyFrom copies src into a; shapes must match
func (a *Array) CopyFrom(src *Array) error {
	if !a.SameShape(src) {
		return fmt.Errorf("copy %s%v <- %s%v: %w",
			a.Name, a.Dims, src.Name, src.Dims, ErrShape)
	}
	copy(a.Data, src.Data)
	return nil
}

// Clone returns a deep copy under a new name
func (a *Array) Clone(name string) *Array {
	b := NewArray(name, a.Dims...)
	copy(b.Data, a.Data)
	return b
}

// stride is the number of values per index of the leading dimension
func (a *Array) stride() int {
	if len(a.Dims) == 0 || a.Dims[0] == 0 {
		return 0
	}
	return len(a.Data) / a.Dims[0]
}

// CellView returns a [1 × ...] view that shares storage with entry c of the
// leading dimension. Writes through the view land in a.
func (a *Array) CellView(c int) *Array {
	s := a.stride()
	dims := make([]int, len(a.Dims))
	copy(dims, a.Dims)
	dims[0] = 1
	return &Array{
		Name: fmt.Sprintf("%s[%d]", a.Name, c),
		Dims: dims,
		Data: a.Data[c*s : (c+1)*s],
	}
}

// GatherCells copies the listed entries of the leading dimension into a new
// array whose leading extent is len(cells)
func GatherCells(src *Array, cells []int, name string) (*Array, error) {
	if src == nil {
		return nil, nil
	}
	if len(src.Dims) == 0 {
		return nil, fmt.Errorf("gather from scalar array %s: %w", src.Name, ErrShape)
	}
	dims := make([]int, len(src.Dims))
	copy(dims, src.Dims)
	dims[0] = len(cells)
	dst := NewArray(name, dims...)
	s := src.stride()
	for i, c := range cells {
		if c < 0 || c >= src.Dims[0] {
			return nil, fmt.Errorf("gather %s: cell %d out of range [0,%d): %w",
				src.Name, c, src.Dims[0], ErrShape)
		}
		copy(dst.Data[i*s:(i+1)*s], src.Data[c*s:(c+1)*s])
	}
	return dst, nil
}

// ScatterCells writes entry i of src into entry cells[i] of dst
func ScatterCells(dst, src *Array, cells []int) error {
	if len(dst.Dims) != len(src.Dims) || len(src.Dims) == 0 || src.Dims[0] != len(cells) {
		return fmt.Errorf("scatter %s%v -> %s%v: %w",
			src.Name, src.Dims, dst.Name, dst.Dims, ErrShape)
	}
	for i := 1; i < len(dst.Dims); i++ {
		if dst.Dims[i] != src.Dims[i] {
			return fmt.Errorf("scatter %s%v -> %s%v: %w",
				src.Name, src.Dims, dst.Name, dst.Dims, ErrShape)
		}
	}
	s := src.stride()
	for i, c := range cells {
		if c < 0 || c >= dst.Dims[0] {
			return fmt.Errorf("scatter %s: cell %d out of range [0,%d): %w",
				dst.Name, c, dst.Dims[0], ErrShape)
		}
		copy(dst.Data[c*s:(c+1)*s], src.Data[i*s:(i+1)*s])
	}
	return nil
}

// String returns the name and shape, e.g. "grad_basis[4 3 6 2]"
func (a *Array) String() string {
	var sb strings.Builder
	sb.WriteString(a.Name)
	sb.WriteString(fmt.Sprint(a.Dims))
	return sb.String()
}
