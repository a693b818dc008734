package fst

import (
	"testing"

	"github.com/notargets/DGBasis/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// jacobians builds C constant-in-point Jacobians with their inverses and determinants
func jacobians(t *testing.T, P int, js ...[]float64) (jac, jacDet, jacInv *utils.Array) {
	C := len(js)
	D := 2
	if len(js[0]) == 9 {
		D = 3
	}
	jac = utils.NewArray("jac", C, P, D, D)
	jacInv = utils.NewArray("jac_inv", C, P, D, D)
	jacDet = utils.NewArray("jac_det", C, P)
	for c, j := range js {
		J := mat.NewDense(D, D, j)
		var Jinv mat.Dense
		require.NoError(t, Jinv.Inverse(J))
		det := mat.Det(J)
		for p := 0; p < P; p++ {
			jacDet.Set2(c, p, det)
			for i := 0; i < D; i++ {
				for k := 0; k < D; k++ {
					jac.Set4(c, p, i, k, J.At(i, k))
					jacInv.Set4(c, p, i, k, Jinv.At(i, k))
				}
			}
		}
	}
	return
}

func TestHGradTransformValue(t *testing.T) {
	in, err := utils.NewArrayFrom("ref", []float64{1, 2, 3, 4, 5, 6}, 3, 2)
	require.NoError(t, err)
	out := utils.NewArray("phys", 4, 3, 2)
	require.NoError(t, HGradTransformValue(out, in))
	for c := 0; c < 4; c++ {
		assert.Equal(t, in.Data, out.CellView(c).Data)
	}
	assert.ErrorIs(t, HGradTransformValue(out, utils.NewArray("bad", 2, 2)), ErrDimensionMismatch)
	assert.ErrorIs(t, HGradTransformValue(utils.NewArray("bad", 4, 3), in), ErrDimensionMismatch)
}

// The reference gradient of x ↦ a·x(ξ) is Jᵀa, so the covariant map must return a
func TestHGradTransformGradRecoversPhysicalGradient(t *testing.T) {
	P := 2
	_, _, jacInv := jacobians(t, P,
		[]float64{2, 1, 0.5, 3},
		[]float64{0, -1, 1, 0},
	)
	Js := [][]float64{{2, 1, 0.5, 3}, {0, -1, 1, 0}}
	a := [][]float64{{1, -2}, {0.25, 4}}

	for c, j := range Js {
		in := utils.NewArray("grad_ref", len(a), P, 2)
		for f, af := range a {
			for p := 0; p < P; p++ {
				// (Jᵀa)_k = Σ_i J_ik a_i
				for k := 0; k < 2; k++ {
					in.Set3(f, p, k, j[0*2+k]*af[0]+j[1*2+k]*af[1])
				}
			}
		}
		out := utils.NewArray("grad", 1, len(a), P, 2)
		require.NoError(t, HGradTransformGrad(out, jacInv.CellView(c), in))
		for f, af := range a {
			for p := 0; p < P; p++ {
				assert.InDelta(t, af[0], out.At4(0, f, p, 0), 1e-14)
				assert.InDelta(t, af[1], out.At4(0, f, p, 1), 1e-14)
			}
		}
	}
}

func TestHCurlTransformValueMatchesGrad(t *testing.T) {
	_, _, jacInv := jacobians(t, 1,
		[]float64{1, 2, 0, 0, 1, 0, 3, 0, 2},
	)
	in, err := utils.NewArrayFrom("ref", []float64{1, 0, 0, 0, 1, 1}, 2, 1, 3)
	require.NoError(t, err)
	a := utils.NewArray("a", 1, 2, 1, 3)
	b := utils.NewArray("b", 1, 2, 1, 3)
	require.NoError(t, HCurlTransformValue(a, jacInv, in))
	require.NoError(t, HGradTransformGrad(b, jacInv, in))
	assert.Equal(t, a.Data, b.Data)
	// first function is e_0, so its image is row 0 of J⁻¹
	for i := 0; i < 3; i++ {
		assert.InDelta(t, jacInv.At4(0, 0, 0, i), a.At4(0, 0, 0, i), 1e-15)
	}
}

func TestPiolaTransforms(t *testing.T) {
	jac, jacDet, _ := jacobians(t, 2,
		[]float64{2, 0, 0, 3},
		[]float64{1, 1, 0, 1},
	)
	in, err := utils.NewArrayFrom("ref", []float64{
		1, 0, 0, 1, // f0 at p0, p1
		2, 2, -1, 1, // f1
	}, 2, 2, 2)
	require.NoError(t, err)

	out := utils.NewArray("div_basis", 2, 2, 2, 2)
	require.NoError(t, HDivTransformValue(out, jac, jacDet, in))
	// cell 0: J = diag(2,3), det 6
	assert.InDeltaSlice(t, []float64{2. / 6, 0}, out.Data[0:2], 1e-15)
	assert.InDeltaSlice(t, []float64{0, 3. / 6}, out.Data[2:4], 1e-15)
	// cell 1: J = [[1,1],[0,1]], det 1; f1 at p0 is (2,2) → (4,2)
	assert.InDeltaSlice(t, []float64{4, 2}, []float64{out.At4(1, 1, 0, 0), out.At4(1, 1, 0, 1)}, 1e-15)

	curl := utils.NewArray("curl", 2, 2, 2, 2)
	require.NoError(t, HCurlTransformCurl(curl, jac, jacDet, in))
	assert.Equal(t, out.Data, curl.Data)

	assert.ErrorIs(t, HDivTransformValue(out, jac, utils.NewArray("det", 2, 3), in), ErrDimensionMismatch)
	assert.ErrorIs(t, HDivTransformValue(out, utils.NewArray("jac", 2, 2, 3, 3), jacDet, in), ErrDimensionMismatch)
}

func TestHDivTransformDiv(t *testing.T) {
	_, jacDet, _ := jacobians(t, 3, []float64{2, 0, 0, 2}, []float64{0.5, 0, 0, 1})
	in := utils.NewArray("div_ref", 2, 3)
	in.Fill(1)
	out := utils.NewArray("div", 2, 2, 3)
	require.NoError(t, HDivTransformDiv(out, jacDet, in))
	for f := 0; f < 2; f++ {
		for p := 0; p < 3; p++ {
			assert.InDelta(t, 0.25, out.At3(0, f, p), 1e-15)
			assert.InDelta(t, 2., out.At3(1, f, p), 1e-15)
		}
	}
}

func TestMultiplyMeasure(t *testing.T) {
	measure, err := utils.NewArrayFrom("measure", []float64{1, 2, 3, 4}, 2, 2)
	require.NoError(t, err)

	scalar := utils.NewArray("basis", 2, 3, 2)
	scalar.Fill(1)
	weighted := utils.NewArray("weighted_basis", 2, 3, 2)
	require.NoError(t, MultiplyMeasure(weighted, measure, scalar))
	for c := 0; c < 2; c++ {
		for f := 0; f < 3; f++ {
			for p := 0; p < 2; p++ {
				assert.Equal(t, measure.At2(c, p), weighted.At3(c, f, p))
			}
		}
	}

	vector := utils.NewArray("grad", 2, 3, 2, 3)
	vector.Fill(2)
	require.NoError(t, MultiplyMeasure(vector, measure, vector))
	assert.Equal(t, 2*measure.At2(1, 1), vector.At4(1, 2, 1, 2))

	assert.ErrorIs(t, MultiplyMeasure(weighted, measure, vector), ErrDimensionMismatch)
	assert.ErrorIs(t, MultiplyMeasure(scalar, utils.NewArray("m", 3, 2), scalar), ErrDimensionMismatch)
	assert.ErrorIs(t, MultiplyMeasure(nil, measure, utils.NewArray("r2", 2, 2)), ErrDimensionMismatch)
}

func TestApplyFieldSigns(t *testing.T) {
	signs, err := utils.NewArrayFrom("signs", []float64{1, -1, -1, 1}, 2, 2)
	require.NoError(t, err)
	a := utils.NewArray("basis_vector", 2, 2, 3, 2)
	a.Fill(1)
	require.NoError(t, ApplyFieldSigns(a, signs))
	for c := 0; c < 2; c++ {
		for f := 0; f < 2; f++ {
			for p := 0; p < 3; p++ {
				for d := 0; d < 2; d++ {
					assert.Equal(t, signs.At2(c, f), a.At4(c, f, p, d))
				}
			}
		}
	}
	assert.ErrorIs(t, ApplyFieldSigns(a, utils.NewArray("s", 2, 3)), ErrDimensionMismatch)
}
