package basis

import (
	"fmt"

	"github.com/notargets/DGBasis/element"
	"github.com/notargets/DGBasis/element/library/gonudg"
	"github.com/notargets/DGBasis/utils"
	"gonum.org/v1/gonum/mat"
)

// HGradC1 is the linear nodal basis, one function per vertex
type HGradC1 struct {
	base
}

func NewHGradC1(geom element.ElementGeometry) (*HGradC1, error) {
	nv := geom.NumVertices()
	if nv == 0 {
		return nil, fmt.Errorf("HGRAD C1 on %v: %w", geom, ErrUnsupportedBasis)
	}
	return &HGradC1{base{
		name:   fmt.Sprintf("HGRAD_%s_C1", shortName(geom)),
		geom:   geom,
		space:  HGrad,
		degree: 1,
		card:   nv,
	}}, nil
}

func (b *HGradC1) Values(out, points *utils.Array, op Operator) error {
	P, err := prepare(b, out, points, op)
	if err != nil {
		return err
	}
	D := b.Dimension()
	x := make([]float64, D)
	g := make([]float64, D)
	for p := 0; p < P; p++ {
		point(points, p, x)
		for f := 0; f < b.card; f++ {
			switch op {
			case OpValue:
				out.Set2(f, p, b.value(f, x))
			case OpGrad:
				b.grad(f, x, g)
				for d := 0; d < D; d++ {
					out.Set3(f, p, d, g[d])
				}
			}
		}
	}
	return nil
}

func (b *HGradC1) value(f int, x []float64) float64 {
	if b.geom.IsSimplex() {
		return lambda(f, x)
	}
	v := b.geom.Reference().Vertices[f]
	phi := 1.
	for d := range x {
		phi *= 0.5 * (1 + v[d]*x[d])
	}
	return phi
}

func (b *HGradC1) grad(f int, x, g []float64) {
	if b.geom.IsSimplex() {
		gradLambda(f, g)
		return
	}
	v := b.geom.Reference().Vertices[f]
	for k := range g {
		g[k] = 0.5 * v[k]
		for d := range x {
			if d != k {
				g[k] *= 0.5 * (1 + v[d]*x[d])
			}
		}
	}
}

func (b *HGradC1) DofCoords(out *utils.Array) error {
	if err := dofCoordsCheck(b, out); err != nil {
		return err
	}
	for f, v := range b.geom.Reference().Vertices {
		for d := range v {
			out.Set2(f, d, v[d])
		}
	}
	return nil
}

// HGradSimplexCn is the order-n nodal basis on the unit triangle or
// tetrahedron, built from the orthonormal simplex polynomials by inverting the
// Vandermonde matrix on an equispaced lattice
type HGradSimplexCn struct {
	base
	R, S, T []float64  // nodes on the biunit simplex
	Vinv    *mat.Dense // [Np × Np]
}

func NewHGradSimplexCn(geom element.ElementGeometry, order int) (*HGradSimplexCn, error) {
	if order < 1 {
		panic(fmt.Errorf("polynomial order must be >= 1, have %d", order))
	}
	b := &HGradSimplexCn{}
	var V *mat.Dense
	switch geom {
	case element.Tri:
		b.R, b.S = gonudg.Nodes2D(order)
		V = gonudg.Vandermonde2D(order, b.R, b.S)
	case element.Tet:
		b.R, b.S, b.T = gonudg.Nodes3D(order)
		V = gonudg.Vandermonde3D(order, b.R, b.S, b.T)
	default:
		return nil, fmt.Errorf("HGRAD simplex C%d on %v: %w", order, geom, ErrUnsupportedBasis)
	}
	b.Vinv = new(mat.Dense)
	if err := b.Vinv.Inverse(V); err != nil {
		return nil, fmt.Errorf("HGRAD simplex C%d Vandermonde: %w", order, err)
	}
	b.base = base{
		name:   fmt.Sprintf("HGRAD_%s_C%d", shortName(geom), order),
		geom:   geom,
		space:  HGrad,
		degree: order,
		card:   len(b.R),
	}
	return b, nil
}

func (b *HGradSimplexCn) Values(out, points *utils.Array, op Operator) error {
	P, err := prepare(b, out, points, op)
	if err != nil {
		return err
	}
	D := b.Dimension()
	// map unit simplex coordinates to the biunit simplex
	rst := make([][]float64, D)
	for d := range rst {
		rst[d] = make([]float64, P)
		for p := 0; p < P; p++ {
			rst[d][p] = 2*points.At2(p, d) - 1
		}
	}

	var phi mat.Dense
	switch op {
	case OpValue:
		var V *mat.Dense
		if D == 2 {
			V = gonudg.Vandermonde2D(b.degree, rst[0], rst[1])
		} else {
			V = gonudg.Vandermonde3D(b.degree, rst[0], rst[1], rst[2])
		}
		phi.Mul(V, b.Vinv)
		for p := 0; p < P; p++ {
			for f := 0; f < b.card; f++ {
				out.Set2(f, p, phi.At(p, f))
			}
		}
	case OpGrad:
		var Vd []*mat.Dense
		if D == 2 {
			Vr, Vs := gonudg.GradVandermonde2D(b.degree, rst[0], rst[1])
			Vd = []*mat.Dense{Vr, Vs}
		} else {
			Vr, Vs, Vt := gonudg.GradVandermonde3D(b.degree, rst[0], rst[1], rst[2])
			Vd = []*mat.Dense{Vr, Vs, Vt}
		}
		for d, V := range Vd {
			phi.Reset()
			phi.Mul(V, b.Vinv)
			for p := 0; p < P; p++ {
				for f := 0; f < b.card; f++ {
					// dr/dx = 2
					out.Set3(f, p, d, 2*phi.At(p, f))
				}
			}
		}
	}
	return nil
}

func (b *HGradSimplexCn) DofCoords(out *utils.Array) error {
	if err := dofCoordsCheck(b, out); err != nil {
		return err
	}
	nodes := [][]float64{b.R, b.S, b.T}
	for f := 0; f < b.card; f++ {
		for d := 0; d < b.Dimension(); d++ {
			out.Set2(f, d, 0.5*(nodes[d][f]+1))
		}
	}
	return nil
}

// HGradTensorCn is the order-n Lagrange basis on Line, Rectangle and Hex with
// Gauss-Lobatto-Legendre nodes in each direction. Basis functions are ordered
// with the first coordinate fastest.
type HGradTensorCn struct {
	base
	Nodes []float64 // 1D GLL nodes on [-1,1]
}

func NewHGradTensorCn(geom element.ElementGeometry, order int) (*HGradTensorCn, error) {
	if order < 1 {
		panic(fmt.Errorf("polynomial order must be >= 1, have %d", order))
	}
	switch geom {
	case element.Line, element.Rectangle, element.Hex:
	default:
		return nil, fmt.Errorf("HGRAD tensor C%d on %v: %w", order, geom, ErrUnsupportedBasis)
	}
	card := 1
	for d := 0; d < geom.Dim(); d++ {
		card *= order + 1
	}
	return &HGradTensorCn{
		base: base{
			name:   fmt.Sprintf("HGRAD_%s_C%d", shortName(geom), order),
			geom:   geom,
			space:  HGrad,
			degree: order,
			card:   card,
		},
		Nodes: gonudg.JacobiGL(0, 0, order),
	}, nil
}

// multiIndex splits a basis index into per-direction node indices
func (b *HGradTensorCn) multiIndex(f int, idx []int) {
	n := len(b.Nodes)
	for d := range idx {
		idx[d] = f % n
		f /= n
	}
}

func (b *HGradTensorCn) Values(out, points *utils.Array, op Operator) error {
	P, err := prepare(b, out, points, op)
	if err != nil {
		return err
	}
	D := b.Dimension()
	x := make([]float64, D)
	idx := make([]int, D)
	L := make([]float64, D)
	dL := make([]float64, D)
	for p := 0; p < P; p++ {
		point(points, p, x)
		for f := 0; f < b.card; f++ {
			b.multiIndex(f, idx)
			for d := 0; d < D; d++ {
				L[d] = lagrange(b.Nodes, idx[d], x[d])
				if op == OpGrad {
					dL[d] = lagrangeDeriv(b.Nodes, idx[d], x[d])
				}
			}
			switch op {
			case OpValue:
				v := 1.
				for d := 0; d < D; d++ {
					v *= L[d]
				}
				out.Set2(f, p, v)
			case OpGrad:
				for k := 0; k < D; k++ {
					g := dL[k]
					for d := 0; d < D; d++ {
						if d != k {
							g *= L[d]
						}
					}
					out.Set3(f, p, k, g)
				}
			}
		}
	}
	return nil
}

func (b *HGradTensorCn) DofCoords(out *utils.Array) error {
	if err := dofCoordsCheck(b, out); err != nil {
		return err
	}
	idx := make([]int, b.Dimension())
	for f := 0; f < b.card; f++ {
		b.multiIndex(f, idx)
		for d, i := range idx {
			out.Set2(f, d, b.Nodes[i])
		}
	}
	return nil
}

// lagrange evaluates the jth Lagrange polynomial through nodes R at r
func lagrange(R []float64, j int, r float64) float64 {
	f := 1.
	for i, xi := range R {
		if i == j {
			continue
		}
		f *= (r - xi) / (R[j] - xi)
	}
	return f
}

// lagrangeDeriv evaluates the derivative of the jth Lagrange polynomial at r
func lagrangeDeriv(R []float64, j int, r float64) float64 {
	sum := 0.
	for m, xm := range R {
		if m == j {
			continue
		}
		term := 1. / (R[j] - xm)
		for i, xi := range R {
			if i == j || i == m {
				continue
			}
			term *= (r - xi) / (R[j] - xi)
		}
		sum += term
	}
	return sum
}

func shortName(geom element.ElementGeometry) string {
	switch geom {
	case element.Line:
		return "LINE"
	case element.Tri:
		return "TRI"
	case element.Rectangle:
		return "QUAD"
	case element.Tet:
		return "TET"
	case element.Hex:
		return "HEX"
	}
	return "UNKNOWN"
}
