// Package cubature provides integration rules on the reference cells.
package cubature

import (
	"fmt"

	"github.com/notargets/DGBasis/element"
	"github.com/notargets/DGBasis/element/library/gonudg"
	"github.com/notargets/DGBasis/utils"
)

// Rule is a set of reference points and weights that integrates polynomials
// up to Degree exactly on the reference cell
type Rule struct {
	Geometry element.ElementGeometry
	Degree   int
	Points   *utils.Array // [P × D]
	Weights  []float64    // [P]
}

func (r *Rule) NumPoints() int { return len(r.Weights) }

// New builds a rule of the requested polynomial degree. Line, Rectangle and
// Hex use tensor Gauss-Legendre rules. Tri and Tet use collapsed Gauss-Jacobi
// rules mapped from the biunit simplex to the unit simplex.
func New(geom element.ElementGeometry, degree int) (*Rule, error) {
	if degree < 0 {
		return nil, fmt.Errorf("cubature degree %d < 0", degree)
	}
	// n point Gauss rules integrate degree 2n-1
	n := (degree + 2) / 2

	var (
		pts [][]float64
		w   []float64
	)
	switch geom {
	case element.Line, element.Rectangle, element.Hex:
		x, wx := gonudg.JacobiGQ(0, 0, n-1)
		pts, w = tensorRule(geom.Dim(), x, wx)
	case element.Tri:
		pts, w = collapsedTri(n)
	case element.Tet:
		pts, w = collapsedTet(n)
	default:
		return nil, fmt.Errorf("no cubature for geometry %v", geom)
	}

	dim := geom.Dim()
	points := utils.NewArray("cub_points", len(w), dim)
	for p, x := range pts {
		for d := 0; d < dim; d++ {
			points.Set2(p, d, x[d])
		}
	}
	return &Rule{
		Geometry: geom,
		Degree:   degree,
		Points:   points,
		Weights:  w,
	}, nil
}

func tensorRule(dim int, x, wx []float64) (pts [][]float64, w []float64) {
	n := len(x)
	total := 1
	for d := 0; d < dim; d++ {
		total *= n
	}
	idx := make([]int, dim)
	for q := 0; q < total; q++ {
		rem := q
		for d := 0; d < dim; d++ {
			idx[d] = rem % n
			rem /= n
		}
		pt := make([]float64, dim)
		wt := 1.
		for d := 0; d < dim; d++ {
			pt[d] = x[idx[d]]
			wt *= wx[idx[d]]
		}
		pts = append(pts, pt)
		w = append(w, wt)
	}
	return
}

// collapsedTri maps the square [-1,1]^2 onto the biunit triangle by
// r = (1+a)(1-b)/2 - 1, s = b, then onto the unit triangle
func collapsedTri(n int) (pts [][]float64, w []float64) {
	a, wa := gonudg.JacobiGQ(0, 0, n-1)
	b, wb := gonudg.JacobiGQ(1, 0, n-1)
	for j := range b {
		for i := range a {
			r := 0.5*(1+a[i])*(1-b[j]) - 1
			s := b[j]
			pts = append(pts, []float64{0.5 * (r + 1), 0.5 * (s + 1)})
			// 0.5 from the collapse, 0.25 from biunit to unit area
			w = append(w, 0.125*wa[i]*wb[j])
		}
	}
	return
}

// collapsedTet maps the cube [-1,1]^3 onto the biunit tetrahedron, then onto
// the unit tetrahedron
func collapsedTet(n int) (pts [][]float64, w []float64) {
	a, wa := gonudg.JacobiGQ(0, 0, n-1)
	b, wb := gonudg.JacobiGQ(1, 0, n-1)
	c, wc := gonudg.JacobiGQ(2, 0, n-1)
	for k := range c {
		for j := range b {
			for i := range a {
				r := 0.25*(1+a[i])*(1-b[j])*(1-c[k]) - 1
				s := 0.5*(1+b[j])*(1-c[k]) - 1
				t := c[k]
				pts = append(pts, []float64{0.5 * (r + 1), 0.5 * (s + 1), 0.5 * (t + 1)})
				// 1/8 from the collapse, 1/8 from biunit to unit volume
				w = append(w, wa[i]*wb[j]*wc[k]/64)
			}
		}
	}
	return
}
