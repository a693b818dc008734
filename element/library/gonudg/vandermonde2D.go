package gonudg

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// The 2D routines work on the biunit triangle (-1,-1), (1,-1), (-1,1).

// Vandermonde2D builds V_{ij} = psi_j(r_i, s_i) for the orthonormal simplex
// basis of order N
func Vandermonde2D(N int, R, S []float64) *mat.Dense {
	Np := (N + 1) * (N + 2) / 2
	V2D := mat.NewDense(len(R), Np, nil)
	a, b := RStoAB(R, S)

	sk := 0
	for i := 0; i <= N; i++ {
		for j := 0; j <= (N - i); j++ {
			V2D.SetCol(sk, Simplex2DP(a, b, i, j))
			sk++
		}
	}
	return V2D
}

// GradVandermonde2D builds (Vr)_{ij} = dpsi_j/dr and (Vs)_{ij} = dpsi_j/ds
func GradVandermonde2D(N int, R, S []float64) (Vr, Vs *mat.Dense) {
	Np := (N + 1) * (N + 2) / 2
	Vr = mat.NewDense(len(R), Np, nil)
	Vs = mat.NewDense(len(R), Np, nil)
	a, b := RStoAB(R, S)

	sk := 0
	for i := 0; i <= N; i++ {
		for j := 0; j <= (N - i); j++ {
			dr, ds := GradSimplex2DP(a, b, i, j)
			Vr.SetCol(sk, dr)
			Vs.SetCol(sk, ds)
			sk++
		}
	}
	return
}

// Simplex2DP evaluates the 2D orthonormal polynomial of order (i,j) at the
// collapsed coordinates (a,b)
func Simplex2DP(a, b []float64, i, j int) []float64 {
	h1 := JacobiP(a, 0, 0, i)
	h2 := JacobiP(b, float64(2*i+1), 0, j)

	P := make([]float64, len(a))
	for ii := range h1 {
		P[ii] = math.Sqrt2 * h1[ii] * h2[ii] * pow(1-b[ii], i)
	}
	return P
}

// GradSimplex2DP evaluates the (r,s) derivatives of the 2D orthonormal
// polynomial of order (id,jd) at the collapsed coordinates (a,b)
func GradSimplex2DP(a, b []float64, id, jd int) (dmodedr, dmodeds []float64) {
	fa := JacobiP(a, 0, 0, id)
	dfa := GradJacobiP(a, 0, 0, id)
	gb := JacobiP(b, float64(2*id+1), 0, jd)
	dgb := GradJacobiP(b, float64(2*id+1), 0, jd)

	Np := len(a)
	dmodedr = make([]float64, Np)
	dmodeds = make([]float64, Np)
	scale := math.Pow(2, float64(id)+0.5)
	for n := 0; n < Np; n++ {
		hb := 0.5 * (1 - b[n])
		dr := dfa[n] * gb[n]
		if id > 0 {
			dr *= pow(hb, id-1)
		}
		ds := dfa[n] * gb[n] * 0.5 * (1 + a[n])
		if id > 0 {
			ds *= pow(hb, id-1)
		}
		tmp := dgb[n] * pow(hb, id)
		if id > 0 {
			tmp -= 0.5 * float64(id) * gb[n] * pow(hb, id-1)
		}
		ds += fa[n] * tmp
		dmodedr[n] = dr * scale
		dmodeds[n] = ds * scale
	}
	return
}

// RStoAB converts from (r,s) to the collapsed (a,b) coordinates
func RStoAB(R, S []float64) (a, b []float64) {
	Np := len(R)
	a = make([]float64, Np)
	b = make([]float64, Np)

	for n := 0; n < Np; n++ {
		if math.Abs(1-S[n]) > collapseTol {
			a[n] = 2*(1+R[n])/(1-S[n]) - 1
		} else {
			a[n] = -1
		}
		b[n] = S[n]
	}
	return
}

// Nodes2D returns the equispaced lattice of order N on the biunit triangle,
// ordered with r fastest
func Nodes2D(N int) (R, S []float64) {
	if N == 0 {
		return []float64{-1. / 3.}, []float64{-1. / 3.}
	}
	Np := (N + 1) * (N + 2) / 2
	R = make([]float64, 0, Np)
	S = make([]float64, 0, Np)
	h := 2. / float64(N)
	for j := 0; j <= N; j++ {
		for i := 0; i <= N-j; i++ {
			R = append(R, -1+float64(i)*h)
			S = append(S, -1+float64(j)*h)
		}
	}
	return
}

// collapseTol guards the collapsed coordinate maps at the singular vertex
const collapseTol = 1.e-14

// pow computes x^n for integer n
func pow(x float64, n int) float64 {
	if n == 0 {
		return 1.0
	}
	result := x
	for i := 1; i < n; i++ {
		result *= x
	}
	return result
}
