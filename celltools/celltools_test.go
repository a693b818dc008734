package celltools

import (
	"testing"

	"github.com/notargets/DGBasis/cubature"
	"github.com/notargets/DGBasis/element"
	"github.com/notargets/DGBasis/fst"
	"github.com/notargets/DGBasis/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vertexArray(t *testing.T, cells ...[][]float64) *utils.Array {
	N, D := len(cells[0]), len(cells[0][0])
	a := utils.NewArray("vertices", len(cells), N, D)
	for c, cell := range cells {
		for n, x := range cell {
			for d, v := range x {
				a.Set3(c, n, d, v)
			}
		}
	}
	return a
}

func TestAffineTriangle(t *testing.T) {
	vertices := vertexArray(t,
		[][]float64{{1, 1}, {3, 2}, {2, 4}},
		[][]float64{{0, 0}, {1, 0}, {0, 1}},
	)
	rule, err := cubature.New(element.Tri, 2)
	require.NoError(t, err)

	gt, err := Geometry(rule.Points, rule.Weights, vertices, element.Tri)
	require.NoError(t, err)
	require.NoError(t, gt.Validate(2, rule.NumPoints(), 2))

	for p := 0; p < rule.NumPoints(); p++ {
		assert.InDeltaSlice(t, []float64{2, 1, 1, 3}, gt.Jac.CellView(0).Data[p*4:p*4+4], 1e-14)
		assert.InDelta(t, 5., gt.JacDet.At2(0, p), 1e-14)
		assert.InDeltaSlice(t, []float64{0.6, -0.2, -0.2, 0.4}, gt.JacInv.CellView(0).Data[p*4:p*4+4], 1e-14)
		// the reference cell maps to itself
		assert.InDeltaSlice(t, []float64{1, 0, 0, 1}, gt.Jac.CellView(1).Data[p*4:p*4+4], 1e-15)
	}

	area := []float64{0, 0}
	for c := range area {
		for p := 0; p < rule.NumPoints(); p++ {
			area[c] += gt.WeightedMeasure.At2(c, p)
		}
	}
	assert.InDeltaSlice(t, []float64{2.5, 0.5}, area, 1e-13)
}

func TestMapToPhysicalFrameVertices(t *testing.T) {
	for _, g := range []element.ElementGeometry{element.Line, element.Tri, element.Rectangle, element.Tet, element.Hex} {
		ref := g.Reference()
		D := g.Dim()
		refPts := utils.NewArray("ref", len(ref.Vertices), D)
		phys := make([][]float64, len(ref.Vertices))
		for n, v := range ref.Vertices {
			phys[n] = make([]float64, D)
			for d := range v {
				refPts.Set2(n, d, v[d])
				phys[n][d] = 2*v[d] + 0.1*float64(n) + float64(d)
			}
		}
		vertices := vertexArray(t, phys)
		out := utils.NewArray("phys", 1, len(ref.Vertices), D)
		require.NoError(t, MapToPhysicalFrame(out, refPts, vertices, g))
		for n := range phys {
			for d := 0; d < D; d++ {
				assert.InDelta(t, phys[n][d], out.At3(0, n, d), 1e-14, "%v vertex %d", g, n)
			}
		}
	}
}

// A trilinear hex has a point dependent Jacobian; CV evaluation with the same
// points in every cell must agree with the shared-point version
func TestSetJacobianCVMatchesShared(t *testing.T) {
	hex := element.Hex.Reference().Vertices
	distorted := make([][]float64, len(hex))
	for n, v := range hex {
		distorted[n] = []float64{v[0] + 0.1*v[1]*v[2], v[1] + 0.2*v[0], 1.5 * v[2]}
	}
	vertices := vertexArray(t, distorted, hex)
	rule, err := cubature.New(element.Hex, 3)
	require.NoError(t, err)
	P := rule.NumPoints()

	shared := utils.NewArray("jac", 2, P, 3, 3)
	require.NoError(t, SetJacobian(shared, rule.Points, vertices, element.Hex))

	cellPts := utils.NewArray("cell_points", 2, P, 3)
	copy(cellPts.Data[:P*3], rule.Points.Data)
	copy(cellPts.Data[P*3:], rule.Points.Data)
	cv := utils.NewArray("jac_cv", 2, P, 3, 3)
	require.NoError(t, SetJacobianCV(cv, cellPts, vertices, element.Hex))
	assert.InDeltaSlice(t, shared.Data, cv.Data, 1e-15)

	det := utils.NewArray("det", 2, P)
	require.NoError(t, SetJacobianDet(det, shared))
	measure := utils.NewArray("measure", 2, P)
	require.NoError(t, ComputeCellMeasure(measure, det, rule.Weights))
	vol := 0.
	for p := 0; p < P; p++ {
		vol += measure.At2(1, p)
		assert.InDelta(t, 1., det.At2(1, p), 1e-14)
	}
	assert.InDelta(t, 8., vol, 1e-13)
}

func TestSingularJacobian(t *testing.T) {
	vertices := vertexArray(t, [][]float64{{0, 0}, {1, 1}, {2, 2}})
	pts, err := utils.NewArrayFrom("points", []float64{0.25, 0.25}, 1, 2)
	require.NoError(t, err)
	jac := utils.NewArray("jac", 1, 1, 2, 2)
	require.NoError(t, SetJacobian(jac, pts, vertices, element.Tri))
	inv := utils.NewArray("jac_inv", 1, 1, 2, 2)
	assert.ErrorIs(t, SetJacobianInv(inv, jac), ErrSingularJacobian)
}

func TestShapeErrors(t *testing.T) {
	vertices := vertexArray(t, [][]float64{{0, 0}, {1, 0}, {0, 1}})
	pts := utils.NewArray("points", 2, 2)
	assert.ErrorIs(t, SetJacobian(utils.NewArray("jac", 1, 3, 2, 2), pts, vertices, element.Tri),
		fst.ErrDimensionMismatch)
	assert.ErrorIs(t, SetJacobian(utils.NewArray("jac", 1, 2, 2, 2), pts, vertices, element.Rectangle),
		fst.ErrDimensionMismatch)
	assert.ErrorIs(t, SetJacobianDet(utils.NewArray("det", 2, 2), utils.NewArray("jac", 1, 2, 2, 2)),
		fst.ErrDimensionMismatch)
	assert.ErrorIs(t, ComputeCellMeasure(utils.NewArray("m", 1, 2), utils.NewArray("det", 1, 2), []float64{1}),
		fst.ErrDimensionMismatch)

	// dims claim [1 2 2] but storage holds 3 values
	short := &utils.Array{Name: "cell_points", Dims: []int{1, 2, 2}, Data: make([]float64, 3)}
	assert.ErrorIs(t, SetJacobianCV(utils.NewArray("jac", 1, 2, 2, 2), short, vertices, element.Tri), utils.ErrShape)
}
