package basis

import (
	"fmt"
	"math"

	"github.com/notargets/DGBasis/element"
	"github.com/notargets/DGBasis/utils"
)

// HDivI1 is the lowest order Raviart-Thomas (face) basis, one function per
// side. The outward normal flux of function s through side s is one; it
// vanishes on every other side.
//
// Tri uses the Whitney edge forms rotated a quarter turn clockwise, Tet the
// Whitney face forms 2(λ_a ∇λ_b×∇λ_c + λ_b ∇λ_c×∇λ_a + λ_c ∇λ_a×∇λ_b).
// Rectangle and Hex use e_d c (1 + c x_d) / 2^D for the side at x_d = c.
type HDivI1 struct {
	base
	edges *HCurlI1 // rotated for the triangle
}

func NewHDivI1(geom element.ElementGeometry) (*HDivI1, error) {
	b := &HDivI1{}
	switch geom {
	case element.Tri:
		b.edges = &HCurlI1{base{geom: geom, space: HCurl, degree: 1, card: geom.NumEdges()}}
	case element.Rectangle, element.Tet, element.Hex:
	default:
		return nil, fmt.Errorf("HDIV I1 on %v: %w", geom, ErrUnsupportedBasis)
	}
	b.base = base{
		name:   fmt.Sprintf("HDIV_%s_I1", shortName(geom)),
		geom:   geom,
		space:  HDiv,
		degree: 1,
		card:   geom.NumSides(),
	}
	return b, nil
}

func (b *HDivI1) Values(out, points *utils.Array, op Operator) error {
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
			case OpDiv:
				out.Set2(f, p, b.div(f, x))
			}
		}
	}
	return nil
}

// tensorSide returns the normal direction of a Rectangle/Hex side and the
// coordinate value the side sits at
func (b *HDivI1) tensorSide(f int) (dir int, c float64) {
	ref := b.geom.Reference()
	side := ref.Sides[f]
	v0 := ref.Vertices[side[0]]
	for d := range v0 {
		same := true
		for _, vi := range side[1:] {
			if ref.Vertices[vi][d] != v0[d] {
				same = false
				break
			}
		}
		if same {
			return d, v0[d]
		}
	}
	return 0, 1
}

func (b *HDivI1) value(f int, x, v []float64) {
	switch b.geom {
	case element.Tri:
		b.edges.value(f, x, v)
		v[0], v[1] = v[1], -v[0]
	case element.Tet:
		side := b.geom.Reference().Sides[f]
		g := [3][]float64{make([]float64, 3), make([]float64, 3), make([]float64, 3)}
		for i := range side {
			gradLambda(side[i], g[i])
		}
		c := make([]float64, 3)
		for d := range v {
			v[d] = 0
		}
		for i := 0; i < 3; i++ {
			j, k := (i+1)%3, (i+2)%3
			cross3(g[j], g[k], c)
			l := lambda(side[i], x)
			for d := range v {
				v[d] += 2 * l * c[d]
			}
		}
	default:
		dir, c := b.tensorSide(f)
		for d := range v {
			v[d] = 0
		}
		v[dir] = c * (1 + c*x[dir]) / math.Pow(2, float64(len(x)))
	}
}

func (b *HDivI1) div(f int, x []float64) float64 {
	switch b.geom {
	case element.Tri:
		return b.edges.curl2(f, x)
	case element.Tet:
		side := b.geom.Reference().Sides[f]
		ga, gb, gc := make([]float64, 3), make([]float64, 3), make([]float64, 3)
		gradLambda(side[0], ga)
		gradLambda(side[1], gb)
		gradLambda(side[2], gc)
		c := make([]float64, 3)
		cross3(gb, gc, c)
		return 6 * dot(ga, c)
	default:
		return 1 / math.Pow(2, float64(len(x)))
	}
}

func (b *HDivI1) DofCoords(out *utils.Array) error {
	if err := dofCoordsCheck(b, out); err != nil {
		return err
	}
	for f := 0; f < b.card; f++ {
		for d, v := range b.geom.SideCentroid(f) {
			out.Set2(f, d, v)
		}
	}
	return nil
}

// Constant is the piecewise constant basis, one function equal to one on the cell
type Constant struct {
	base
}

func NewConst(geom element.ElementGeometry) *Constant {
	return &Constant{base{
		name:   fmt.Sprintf("HVOL_%s_C0", shortName(geom)),
		geom:   geom,
		space:  Const,
		degree: 0,
		card:   1,
	}}
}

func (b *Constant) Values(out, points *utils.Array, op Operator) error {
	P, err := prepare(b, out, points, op)
	if err != nil {
		return err
	}
	for p := 0; p < P; p++ {
		out.Set2(0, p, 1)
	}
	return nil
}

// DofCoords places the single DOF at the cell centroid
func (b *Constant) DofCoords(out *utils.Array) error {
	if err := dofCoordsCheck(b, out); err != nil {
		return err
	}
	for d, v := range b.geom.Centroid() {
		out.Set2(0, d, v)
	}
	return nil
}
