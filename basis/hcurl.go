package basis

import (
	"fmt"
	"math"

	"github.com/notargets/DGBasis/element"
	"github.com/notargets/DGBasis/utils"
)

// HCurlI1 is the lowest order Nédélec (edge) basis, one function per edge.
// The tangential moment of function e along edge e, taken in the direction of
// the edge's vertex order, is one; it vanishes on every other edge.
//
// Simplices use the Whitney forms λ_i ∇λ_j - λ_j ∇λ_i. Rectangle and Hex use
// s e_d Π_{k≠d} (1 + v_k x_k) / 2^D where d is the edge direction, s its sign
// and v the edge's first vertex.
type HCurlI1 struct {
	base
}

func NewHCurlI1(geom element.ElementGeometry) (*HCurlI1, error) {
	switch geom {
	case element.Tri, element.Rectangle, element.Tet, element.Hex:
	default:
		return nil, fmt.Errorf("HCURL I1 on %v: %w", geom, ErrUnsupportedBasis)
	}
	return &HCurlI1{base{
		name:   fmt.Sprintf("HCURL_%s_I1", shortName(geom)),
		geom:   geom,
		space:  HCurl,
		degree: 1,
		card:   geom.NumEdges(),
	}}, nil
}

func (b *HCurlI1) Values(out, points *utils.Array, op Operator) error {
	P, err := prepare(b, out, points, op)
	if err != nil {
		return err
	}
	D := b.Dimension()
	x := make([]float64, D)
	v := make([]float64, D)
	for p := 0; p < P; p++ {
		point(points, p, x)
		for f := 0; f < b.card; f++ {
			switch op {
			case OpValue:
				b.value(f, x, v)
				for d := 0; d < D; d++ {
					out.Set3(f, p, d, v[d])
				}
			case OpCurl:
				if D == 2 {
					out.Set2(f, p, b.curl2(f, x))
				} else {
					b.curl3(f, x, v)
					for d := 0; d < D; d++ {
						out.Set3(f, p, d, v[d])
					}
				}
			}
		}
	}
	return nil
}

// tensorEdge returns the edge direction, its sign, and the edge's first vertex
func (b *HCurlI1) tensorEdge(f int) (dir int, sign float64, va []float64) {
	ref := b.geom.Reference()
	e := ref.Edges[f]
	va, vb := ref.Vertices[e[0]], ref.Vertices[e[1]]
	for d := range va {
		if va[d] != vb[d] {
			return d, math.Copysign(1, vb[d]-va[d]), va
		}
	}
	return 0, 1, va
}

func (b *HCurlI1) tensorScale() float64 {
	return math.Pow(2, float64(b.Dimension()))
}

func (b *HCurlI1) value(f int, x, v []float64) {
	if b.geom.IsSimplex() {
		e := b.geom.Reference().Edges[f]
		li, lj := lambda(e[0], x), lambda(e[1], x)
		gi, gj := make([]float64, len(x)), make([]float64, len(x))
		gradLambda(e[0], gi)
		gradLambda(e[1], gj)
		for d := range v {
			v[d] = li*gj[d] - lj*gi[d]
		}
		return
	}
	dir, sign, va := b.tensorEdge(f)
	w := sign / b.tensorScale()
	for k := range x {
		if k != dir {
			w *= 1 + va[k]*x[k]
		}
	}
	for d := range v {
		v[d] = 0
	}
	v[dir] = w
}

// tensorDeriv is ∂_j of the scalar profile of a Rectangle/Hex edge function
func (b *HCurlI1) tensorDeriv(f, j int, x []float64) float64 {
	dir, sign, va := b.tensorEdge(f)
	if j == dir {
		return 0
	}
	w := sign / b.tensorScale() * va[j]
	for k := range x {
		if k != dir && k != j {
			w *= 1 + va[k]*x[k]
		}
	}
	return w
}

func (b *HCurlI1) curl2(f int, x []float64) float64 {
	if b.geom.IsSimplex() {
		e := b.geom.Reference().Edges[f]
		gi, gj := make([]float64, 2), make([]float64, 2)
		gradLambda(e[0], gi)
		gradLambda(e[1], gj)
		return 2 * cross2(gi, gj)
	}
	dir, _, _ := b.tensorEdge(f)
	if dir == 0 {
		return -b.tensorDeriv(f, 1, x)
	}
	return b.tensorDeriv(f, 0, x)
}

func (b *HCurlI1) curl3(f int, x, c []float64) {
	if b.geom.IsSimplex() {
		e := b.geom.Reference().Edges[f]
		gi, gj := make([]float64, 3), make([]float64, 3)
		gradLambda(e[0], gi)
		gradLambda(e[1], gj)
		cross3(gi, gj, c)
		for d := range c {
			c[d] *= 2
		}
		return
	}
	dir, _, _ := b.tensorEdge(f)
	for i := 0; i < 3; i++ {
		c[i] = 0
		for j := 0; j < 3; j++ {
			if eps := levi(i, j, dir); eps != 0 {
				c[i] += eps * b.tensorDeriv(f, j, x)
			}
		}
	}
}

func (b *HCurlI1) DofCoords(out *utils.Array) error {
	if err := dofCoordsCheck(b, out); err != nil {
		return err
	}
	for f := 0; f < b.card; f++ {
		for d, v := range b.geom.EdgeMidpoint(f) {
			out.Set2(f, d, v)
		}
	}
	return nil
}
