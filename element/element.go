package element

import "fmt"

// Dimensionality represents the spatial dimension of an element
type Dimensionality uint8

const (
	D0 Dimensionality = iota // 0D elements (points)
	D1                       // 1D elements (lines, edges)
	D2                       // 2D elements (triangles, quadrilaterals)
	D3                       // 3D elements (tetrahedra, hexahedra)
)

// ElementGeometry identifies the shape of a reference cell
type ElementGeometry uint8

const (
	Tet ElementGeometry = iota
	Hex
	Tri
	Rectangle
	Line
)

// Quad is the conventional name for the bilinear reference square
const Quad = Rectangle

func (g ElementGeometry) Name() string {
	switch g {
	case Tet:
		return "Tetrahedron"
	case Hex:
		return "Hexahedron"
	case Tri:
		return "Triangle"
	case Rectangle:
		return "Quadrilateral"
	case Line:
		return "Line"
	default:
		return fmt.Sprintf("ElementGeometry(%d)", uint8(g))
	}
}

func (g ElementGeometry) String() string { return g.Name() }

func (g ElementGeometry) Dimensions() Dimensionality {
	switch g {
	case Tet, Hex:
		return D3
	case Tri, Rectangle:
		return D2
	case Line:
		return D1
	default:
		return D0
	}
}

// Dim returns the spatial dimension as an int, the form used for array extents
func (g ElementGeometry) Dim() int { return int(g.Dimensions()) }

// IsSimplex is true for the unit-simplex cells (triangle, tetrahedron)
func (g ElementGeometry) IsSimplex() bool { return g == Tri || g == Tet }

func (g ElementGeometry) NumVertices() int { return len(g.Reference().Vertices) }

func (g ElementGeometry) NumEdges() int { return len(g.Reference().Edges) }

// NumSides is the number of codimension-1 entities (edges in 2D, faces in 3D,
// end points in 1D)
func (g ElementGeometry) NumSides() int { return len(g.Reference().Sides) }

// Centroid of the reference cell
func (g ElementGeometry) Centroid() []float64 {
	ref := g.Reference()
	c := make([]float64, g.Dim())
	for _, v := range ref.Vertices {
		for d := range c {
			c[d] += v[d]
		}
	}
	for d := range c {
		c[d] /= float64(len(ref.Vertices))
	}
	return c
}

// ReferenceMeasure is the length, area or volume of the reference cell
func (g ElementGeometry) ReferenceMeasure() float64 {
	switch g {
	case Line:
		return 2
	case Rectangle:
		return 4
	case Hex:
		return 8
	case Tri:
		return 0.5
	case Tet:
		return 1. / 6.
	default:
		return 0
	}
}

// Contains reports whether the reference point lies in the closed reference cell
func (g ElementGeometry) Contains(x []float64, tol float64) bool {
	if len(x) != g.Dim() {
		return false
	}
	switch g {
	case Line, Rectangle, Hex:
		for _, v := range x {
			if v < -1-tol || v > 1+tol {
				return false
			}
		}
		return true
	case Tri, Tet:
		sum := 0.
		for _, v := range x {
			if v < -tol {
				return false
			}
			sum += v
		}
		return sum <= 1+tol
	}
	return false
}
