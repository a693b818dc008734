package gonudg

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// JacobiGL computes the Gauss-Lobatto quadrature points for Jacobi polynomials
// These are the zeros of (1-X^2)*P'_N^{alpha,beta}(X)
func JacobiGL(alpha, beta float64, N int) []float64 {
	if N == 0 {
		return []float64{0.0}
	}
	if N == 1 {
		return []float64{-1.0, 1.0}
	}

	// N-1 interior Gauss points plus the two end points
	xint, _ := JacobiGQ(alpha+1, beta+1, N-2)

	x := make([]float64, N+1)
	x[0] = -1.0
	copy(x[1:N], xint)
	x[N] = 1.0
	return x
}

// JacobiGQ computes the N+1 point Gauss quadrature for the weight
// (1-x)^alpha (1+x)^beta on [-1,1]. Nodes are the eigenvalues of the Jacobi
// matrix and the weights come from the first component of each eigenvector.
func JacobiGQ(alpha, beta float64, N int) (X, W []float64) {
	if N == 0 {
		return []float64{-(alpha - beta) / (alpha + beta + 2.)}, []float64{Gamma0(alpha, beta)}
	}

	h1 := make([]float64, N+1)
	for i := range h1 {
		h1[i] = 2*float64(i) + alpha + beta
	}

	// main diagonal: d0[i] = -(α²-β²)/((2i+α+β)*(2i+α+β+2))
	d0 := make([]float64, N+1)
	fac := beta*beta - alpha*alpha
	for i, val := range h1 {
		d0[i] = fac / (val * (val + 2.))
	}
	if alpha+beta < 10*1.e-16 {
		d0[0] = 0.
	}

	d1 := make([]float64, N)
	for i := 0; i < N; i++ {
		ip1 := float64(i + 1)
		val := h1[i]
		d1[i] = 2.0 / (val + 2.0) * math.Sqrt(
			ip1*(ip1+alpha+beta)*(ip1+alpha)*(ip1+beta)/(val+1)/(val+3),
		)
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(NewSymTriDiagonal(d0, d1), true); !ok {
		panic(fmt.Sprintf("JacobiGQ(%g, %g, %d): eigenvalue decomposition failed",
			alpha, beta, N))
	}
	X = eig.Values(nil)

	var VVr mat.Dense
	eig.VectorsTo(&VVr)
	g0 := Gamma0(alpha, beta)
	W = make([]float64, N+1)
	for i := range W {
		v := VVr.At(0, i)
		W[i] = v * v * g0
	}
	return X, W
}

// Gamma0 is the integral of the Jacobi weight over [-1,1]
func Gamma0(alpha, beta float64) float64 {
	ab1 := alpha + beta + 1.
	a1 := alpha + 1.
	b1 := beta + 1.
	return math.Gamma(a1) * math.Gamma(b1) * math.Pow(2, ab1) / ab1 / math.Gamma(ab1)
}

func Gamma1(alpha, beta float64) float64 {
	ab := alpha + beta
	a1 := alpha + 1.
	b1 := beta + 1.
	return a1 * b1 * Gamma0(alpha, beta) / (ab + 3.0)
}

// NewSymTriDiagonal builds the symmetric tridiagonal matrix with main
// diagonal d0 and off diagonal d1
func NewSymTriDiagonal(d0, d1 []float64) *mat.SymDense {
	n := len(d0)
	tri := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		tri.SetSym(i, i, d0[i])
		if i < n-1 {
			tri.SetSym(i, i+1, d1[i])
		}
	}
	return tri
}
