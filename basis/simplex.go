package basis

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// Barycentric coordinates on the unit simplex: λ_0 = 1 - Σ x_d, λ_{d+1} = x_d

func lambda(i int, x []float64) float64 {
	if i == 0 {
		l := 1.
		for _, v := range x {
			l -= v
		}
		return l
	}
	return x[i-1]
}

// gradLambda writes the constant gradient of λ_i into g
func gradLambda(i int, g []float64) {
	for d := range g {
		switch {
		case i == 0:
			g[d] = -1
		case d == i-1:
			g[d] = 1
		default:
			g[d] = 0
		}
	}
}

// cross2 is the scalar 2D cross product a_x b_y - a_y b_x
func cross2(a, b []float64) float64 {
	return a[0]*b[1] - a[1]*b[0]
}

func vec(a []float64) r3.Vec { return r3.Vec{X: a[0], Y: a[1], Z: a[2]} }

// cross3 writes a × b into c
func cross3(a, b, c []float64) {
	v := r3.Cross(vec(a), vec(b))
	c[0], c[1], c[2] = v.X, v.Y, v.Z
}

func dot(a, b []float64) float64 { return floats.Dot(a, b) }

// levi is the Levi-Civita symbol for indices in {0,1,2}
func levi(i, j, k int) float64 {
	return float64((i-j)*(j-k)*(k-i)) / 2
}
