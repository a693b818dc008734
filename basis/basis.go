// Package basis provides reference-cell finite element bases that can be
// queried for values, gradients, curls and divergences at reference points.
package basis

import (
	"errors"
	"fmt"

	"github.com/notargets/DGBasis/element"
	"github.com/notargets/DGBasis/utils"
)

// ElementSpace is the Sobolev space a basis is conforming in
type ElementSpace uint8

const (
	HGrad ElementSpace = iota
	HCurl
	HDiv
	Const
)

func (s ElementSpace) String() string {
	switch s {
	case HGrad:
		return "HGRAD"
	case HCurl:
		return "HCURL"
	case HDiv:
		return "HDIV"
	case Const:
		return "CONST"
	}
	return fmt.Sprintf("ElementSpace(%d)", uint8(s))
}

// Operator selects which reference quantity a basis evaluates
type Operator uint8

const (
	OpValue Operator = iota
	OpGrad
	OpCurl
	OpDiv
)

func (op Operator) String() string {
	switch op {
	case OpValue:
		return "VALUE"
	case OpGrad:
		return "GRAD"
	case OpCurl:
		return "CURL"
	case OpDiv:
		return "DIV"
	}
	return fmt.Sprintf("Operator(%d)", uint8(op))
}

var (
	ErrUnsupportedOperator = errors.New("operator not supported by basis")
	ErrUnsupportedBasis    = errors.New("no basis for space, geometry and order")
)

// Basis is a reference-cell basis. Values fills out with the reference
// quantity selected by op at points [P × D]:
//
//	HGRAD, CONST  VALUE → [F × P]       GRAD → [F × P × D]
//	HCURL         VALUE → [F × P × D]   CURL → [F × P] in 2D, [F × P × D] in 3D
//	HDIV          VALUE → [F × P × D]   DIV  → [F × P]
type Basis interface {
	Name() string
	Cardinality() int
	Dimension() int
	Geometry() element.ElementGeometry
	Space() ElementSpace
	Degree() int

	// RequireOrientation is true when neighbouring cells must agree on the
	// sign of shared degrees of freedom
	RequireOrientation() bool

	Values(out, points *utils.Array, op Operator) error

	// DofCoords fills out [F × D] with the reference location of each DOF
	DofCoords(out *utils.Array) error
}

// New returns the basis of the given space, reference cell and order
func New(space ElementSpace, geom element.ElementGeometry, order int) (b Basis, err error) {
	switch {
	case space == HGrad && order == 1:
		b, err = asBasis(NewHGradC1(geom))
	case space == HGrad && order > 1 && geom.IsSimplex():
		b, err = asBasis(NewHGradSimplexCn(geom, order))
	case space == HGrad && order > 1:
		b, err = asBasis(NewHGradTensorCn(geom, order))
	case space == HCurl && order == 1:
		b, err = asBasis(NewHCurlI1(geom))
	case space == HDiv && order == 1:
		b, err = asBasis(NewHDivI1(geom))
	case space == Const && order == 0:
		b = NewConst(geom)
	default:
		err = fmt.Errorf("%v order %d on %v: %w", space, order, geom, ErrUnsupportedBasis)
	}
	return
}

// asBasis keeps a failed constructor from producing a non-nil interface
// around a nil pointer
func asBasis[T Basis](b T, err error) (Basis, error) {
	if err != nil {
		return nil, err
	}
	return b, nil
}

// OutputDims returns the array extents Values expects for op at numPoints points
func OutputDims(b Basis, op Operator, numPoints int) ([]int, error) {
	F, D := b.Cardinality(), b.Dimension()
	scalar := []int{F, numPoints}
	vector := []int{F, numPoints, D}
	switch b.Space() {
	case HGrad, Const:
		switch op {
		case OpValue:
			return scalar, nil
		case OpGrad:
			if b.Space() == HGrad {
				return vector, nil
			}
		}
	case HCurl:
		switch op {
		case OpValue:
			return vector, nil
		case OpCurl:
			if D == 2 {
				return scalar, nil
			}
			return vector, nil
		}
	case HDiv:
		switch op {
		case OpValue:
			return vector, nil
		case OpDiv:
			return scalar, nil
		}
	}
	return nil, fmt.Errorf("%s %v: %w", b.Name(), op, ErrUnsupportedOperator)
}

// base carries the descriptive state shared by every basis
type base struct {
	name   string
	geom   element.ElementGeometry
	space  ElementSpace
	degree int
	card   int
}

func (b *base) Name() string                      { return b.name }
func (b *base) Cardinality() int                  { return b.card }
func (b *base) Dimension() int                    { return b.geom.Dim() }
func (b *base) Geometry() element.ElementGeometry { return b.geom }
func (b *base) Space() ElementSpace               { return b.space }
func (b *base) Degree() int                       { return b.degree }
func (b *base) RequireOrientation() bool          { return b.space == HCurl || b.space == HDiv }

// prepare validates points and out against op and returns the point count
func prepare(b Basis, out, points *utils.Array, op Operator) (int, error) {
	D := b.Dimension()
	if points == nil || points.Rank() != 2 || points.Extent(1) != D {
		return 0, fmt.Errorf("%s: points must be [P × %d]: %w", b.Name(), D, utils.ErrShape)
	}
	P := points.Extent(0)
	dims, err := OutputDims(b, op, P)
	if err != nil {
		return 0, err
	}
	if !out.HasDims(dims...) {
		var got []int
		if out != nil {
			got = out.Dims
		}
		return 0, fmt.Errorf("%s %v: output %v, want %v: %w", b.Name(), op, got, dims, utils.ErrShape)
	}
	return P, nil
}

func point(points *utils.Array, p int, x []float64) []float64 {
	for d := range x {
		x[d] = points.At2(p, d)
	}
	return x
}

func dofCoordsCheck(b Basis, out *utils.Array) error {
	if !out.HasDims(b.Cardinality(), b.Dimension()) {
		return fmt.Errorf("%s dof coords: want [%d × %d]: %w",
			b.Name(), b.Cardinality(), b.Dimension(), utils.ErrShape)
	}
	return nil
}
