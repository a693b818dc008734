package element

// ReferenceGeometry is the vertex and sub-entity layout of a reference cell.
//
// Line, Rectangle and Hex live on [-1,1]^d. Tri and Tet are the unit simplices
// with the right angle at the origin. Edges are ordered vertex pairs; the
// pair order defines the edge tangent. Sides are the codimension-1 entities
// listed counter-clockwise when viewed from outside the cell, so the right
// hand rule on a side's vertex list gives the outward normal. In 2D the sides
// are the edges.
type ReferenceGeometry struct {
	Vertices [][]float64 // [NVertices][Dim]
	Edges    [][2]int    // [NEdges] vertex index pairs
	Sides    [][]int     // [NSides][vertices of side]
}

var (
	lineReference = ReferenceGeometry{
		Vertices: [][]float64{{-1}, {1}},
		Sides:    [][]int{{0}, {1}},
	}
	triReference = ReferenceGeometry{
		Vertices: [][]float64{{0, 0}, {1, 0}, {0, 1}},
		Edges:    [][2]int{{0, 1}, {1, 2}, {2, 0}},
		Sides:    [][]int{{0, 1}, {1, 2}, {2, 0}},
	}
	quadReference = ReferenceGeometry{
		Vertices: [][]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}},
		Edges:    [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}},
		Sides:    [][]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}},
	}
	tetReference = ReferenceGeometry{
		Vertices: [][]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		Edges:    [][2]int{{0, 1}, {1, 2}, {2, 0}, {0, 3}, {1, 3}, {2, 3}},
		Sides:    [][]int{{0, 1, 3}, {1, 2, 3}, {0, 3, 2}, {0, 2, 1}},
	}
	hexReference = ReferenceGeometry{
		Vertices: [][]float64{
			{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
			{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
		},
		Edges: [][2]int{
			{0, 1}, {1, 2}, {2, 3}, {3, 0},
			{4, 5}, {5, 6}, {6, 7}, {7, 4},
			{0, 4}, {1, 5}, {2, 6}, {3, 7},
		},
		Sides: [][]int{
			{0, 1, 5, 4}, {1, 2, 6, 5}, {2, 3, 7, 6},
			{3, 0, 4, 7}, {0, 3, 2, 1}, {4, 5, 6, 7},
		},
	}
)

// Reference returns the reference layout for the geometry. The returned value
// shares package storage and must not be modified.
func (g ElementGeometry) Reference() ReferenceGeometry {
	switch g {
	case Line:
		return lineReference
	case Tri:
		return triReference
	case Rectangle:
		return quadReference
	case Tet:
		return tetReference
	case Hex:
		return hexReference
	default:
		return ReferenceGeometry{}
	}
}

// EdgeMidpoint returns the reference coordinates of the midpoint of edge e
func (g ElementGeometry) EdgeMidpoint(e int) []float64 {
	ref := g.Reference()
	a, b := ref.Vertices[ref.Edges[e][0]], ref.Vertices[ref.Edges[e][1]]
	m := make([]float64, len(a))
	for d := range m {
		m[d] = 0.5 * (a[d] + b[d])
	}
	return m
}

// SideCentroid returns the reference coordinates of the centroid of side s
func (g ElementGeometry) SideCentroid(s int) []float64 {
	ref := g.Reference()
	m := make([]float64, g.Dim())
	side := ref.Sides[s]
	for _, v := range side {
		for d := range m {
			m[d] += ref.Vertices[v][d]
		}
	}
	for d := range m {
		m[d] /= float64(len(side))
	}
	return m
}
