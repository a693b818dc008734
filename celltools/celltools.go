// Package celltools computes the geometric data the basis values engine
// consumes: Jacobians of the vertex map from the reference cell, their
// inverses and determinants, physical images of reference points and the
// integration measure.
//
// The map of cell c is x(ξ) = Σ_n X(c,n) φ_n(ξ) with φ the linear HGRAD basis
// of the cell, so J(c,p,i,j) = Σ_n X(c,n,i) ∂φ_n/∂ξ_j.
package celltools

import (
	"errors"
	"fmt"
	"math"

	"github.com/notargets/DGBasis/basis"
	"github.com/notargets/DGBasis/element"
	"github.com/notargets/DGBasis/fst"
	"github.com/notargets/DGBasis/utils"
	"gonum.org/v1/gonum/mat"
)

var ErrSingularJacobian = errors.New("singular jacobian")

func mismatch(op string, a *utils.Array, want ...int) error {
	var got []int
	name := "<nil>"
	if a != nil {
		got, name = a.Dims, a.Name
	}
	return fmt.Errorf("%s: %s is %v, want %v: %w", op, name, got, want, fst.ErrDimensionMismatch)
}

// vertexMap returns the linear basis of geom and checks vertices [C × N × D]
func vertexMap(op string, vertices *utils.Array, geom element.ElementGeometry) (*basis.HGradC1, error) {
	b, err := basis.NewHGradC1(geom)
	if err != nil {
		return nil, err
	}
	if vertices == nil || vertices.Rank() != 3 ||
		vertices.Extent(1) != b.Cardinality() || vertices.Extent(2) != b.Dimension() {
		return nil, mismatch(op, vertices, -1, b.Cardinality(), b.Dimension())
	}
	return b, nil
}

// SetJacobian fills jac [C × P × D × D] at reference points [P × D] shared by every cell
func SetJacobian(jac, points, vertices *utils.Array, geom element.ElementGeometry) error {
	b, err := vertexMap("SetJacobian", vertices, geom)
	if err != nil {
		return err
	}
	C, N, D := vertices.Extent(0), b.Cardinality(), b.Dimension()
	if points == nil || points.Rank() != 2 || points.Extent(1) != D {
		return mismatch("SetJacobian", points, -1, D)
	}
	P := points.Extent(0)
	if !jac.HasDims(C, P, D, D) {
		return mismatch("SetJacobian", jac, C, P, D, D)
	}
	grad := utils.NewArray("grad_vertex_basis", N, P, D)
	if err = b.Values(grad, points, basis.OpGrad); err != nil {
		return err
	}
	for c := 0; c < C; c++ {
		fillJacobian(jac.CellView(c), grad, vertices.CellView(c))
	}
	return nil
}

// SetJacobianCV fills jac [C × P × D × D] at per-cell reference points [C × P × D]
func SetJacobianCV(jac, cellPoints, vertices *utils.Array, geom element.ElementGeometry) error {
	b, err := vertexMap("SetJacobianCV", vertices, geom)
	if err != nil {
		return err
	}
	C, N, D := vertices.Extent(0), b.Cardinality(), b.Dimension()
	if cellPoints == nil || cellPoints.Rank() != 3 || cellPoints.Extent(0) != C || cellPoints.Extent(2) != D {
		return mismatch("SetJacobianCV", cellPoints, C, -1, D)
	}
	P := cellPoints.Extent(1)
	if !jac.HasDims(C, P, D, D) {
		return mismatch("SetJacobianCV", jac, C, P, D, D)
	}
	grad := utils.NewArray("grad_vertex_basis", N, P, D)
	for c := 0; c < C; c++ {
		pts, err := utils.NewArrayFrom("cv_points", cellPoints.CellView(c).Data, P, D)
		if err != nil {
			return fmt.Errorf("SetJacobianCV: cell %d: %w", c, err)
		}
		if err = b.Values(grad, pts, basis.OpGrad); err != nil {
			return err
		}
		fillJacobian(jac.CellView(c), grad, vertices.CellView(c))
	}
	return nil
}

// fillJacobian writes one cell: jac [1,P,D,D], grad [N,P,D], vertices [1,N,D]
func fillJacobian(jac, grad, vertices *utils.Array) {
	N, P, D := grad.Extent(0), grad.Extent(1), grad.Extent(2)
	jac.Zero()
	for p := 0; p < P; p++ {
		for n := 0; n < N; n++ {
			for i := 0; i < D; i++ {
				x := vertices.At3(0, n, i)
				for j := 0; j < D; j++ {
					jac.Set4(0, p, i, j, jac.At4(0, p, i, j)+x*grad.At3(n, p, j))
				}
			}
		}
	}
}

// eachMatrix calls fn with the D × D Jacobian at every (c,p)
func eachMatrix(jac *utils.Array, fn func(c, p int, J *mat.Dense) error) error {
	C, P, D := jac.Extent(0), jac.Extent(1), jac.Extent(2)
	for c := 0; c < C; c++ {
		for p := 0; p < P; p++ {
			off := ((c*P + p) * D) * D
			J := mat.NewDense(D, D, jac.Data[off:off+D*D])
			if err := fn(c, p, J); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkJac(op string, jac *utils.Array) error {
	if jac == nil || jac.Rank() != 4 || jac.Extent(2) != jac.Extent(3) || jac.Extent(2) == 0 {
		return mismatch(op, jac, -1, -1, -1, -1)
	}
	return nil
}

// SetJacobianInv fills jacInv with the inverse of every Jacobian
func SetJacobianInv(jacInv, jac *utils.Array) error {
	if err := checkJac("SetJacobianInv", jac); err != nil {
		return err
	}
	if !jacInv.SameShape(jac) {
		return mismatch("SetJacobianInv", jacInv, jac.Dims...)
	}
	D := jac.Extent(2)
	var inv mat.Dense
	return eachMatrix(jac, func(c, p int, J *mat.Dense) error {
		if err := inv.Inverse(J); err != nil {
			return fmt.Errorf("cell %d point %d: %v: %w", c, p, err, ErrSingularJacobian)
		}
		for i := 0; i < D; i++ {
			for j := 0; j < D; j++ {
				jacInv.Set4(c, p, i, j, inv.At(i, j))
			}
		}
		return nil
	})
}

// SetJacobianDet fills jacDet [C × P] with det J
func SetJacobianDet(jacDet, jac *utils.Array) error {
	if err := checkJac("SetJacobianDet", jac); err != nil {
		return err
	}
	if !jacDet.HasDims(jac.Extent(0), jac.Extent(1)) {
		return mismatch("SetJacobianDet", jacDet, jac.Extent(0), jac.Extent(1))
	}
	return eachMatrix(jac, func(c, p int, J *mat.Dense) error {
		jacDet.Set2(c, p, mat.Det(J))
		return nil
	})
}

// MapToPhysicalFrame maps reference points ref [F × D] into every cell,
// out is [C × F × D]
func MapToPhysicalFrame(out, ref, vertices *utils.Array, geom element.ElementGeometry) error {
	b, err := vertexMap("MapToPhysicalFrame", vertices, geom)
	if err != nil {
		return err
	}
	C, N, D := vertices.Extent(0), b.Cardinality(), b.Dimension()
	if ref == nil || ref.Rank() != 2 || ref.Extent(1) != D {
		return mismatch("MapToPhysicalFrame", ref, -1, D)
	}
	F := ref.Extent(0)
	if !out.HasDims(C, F, D) {
		return mismatch("MapToPhysicalFrame", out, C, F, D)
	}
	phi := utils.NewArray("vertex_basis", N, F)
	if err = b.Values(phi, ref, basis.OpValue); err != nil {
		return err
	}
	out.Zero()
	for c := 0; c < C; c++ {
		for f := 0; f < F; f++ {
			for n := 0; n < N; n++ {
				w := phi.At2(n, f)
				for d := 0; d < D; d++ {
					out.Set3(c, f, d, out.At3(c, f, d)+w*vertices.At3(c, n, d))
				}
			}
		}
	}
	return nil
}

// ComputeCellMeasure fills out [C × P] with |det J| times the cubature weight
func ComputeCellMeasure(out, jacDet *utils.Array, weights []float64) error {
	if jacDet == nil || jacDet.Rank() != 2 || jacDet.Extent(1) != len(weights) {
		return mismatch("ComputeCellMeasure", jacDet, -1, len(weights))
	}
	if !out.SameShape(jacDet) {
		return mismatch("ComputeCellMeasure", out, jacDet.Dims...)
	}
	C, P := jacDet.Extent(0), jacDet.Extent(1)
	for c := 0; c < C; c++ {
		for p := 0; p < P; p++ {
			out.Set2(c, p, math.Abs(jacDet.At2(c, p))*weights[p])
		}
	}
	return nil
}

// Geometry bundles SetJacobian, SetJacobianDet, SetJacobianInv and
// ComputeCellMeasure for cells sharing the cubature points
func Geometry(points *utils.Array, weights []float64, vertices *utils.Array,
	geom element.ElementGeometry) (gt element.GeometricTransform, err error) {
	if vertices == nil || points == nil {
		return gt, fmt.Errorf("Geometry: nil input: %w", fst.ErrDimensionMismatch)
	}
	C, P, D := vertices.Extent(0), points.Extent(0), geom.Dim()
	gt = element.GeometricTransform{
		Jac:             utils.NewArray("jac", C, P, D, D),
		JacDet:          utils.NewArray("jac_det", C, P),
		JacInv:          utils.NewArray("jac_inv", C, P, D, D),
		WeightedMeasure: utils.NewArray("weighted_measure", C, P),
	}
	if err = SetJacobian(gt.Jac, points, vertices, geom); err != nil {
		return
	}
	if err = SetJacobianDet(gt.JacDet, gt.Jac); err != nil {
		return
	}
	if err = SetJacobianInv(gt.JacInv, gt.Jac); err != nil {
		return
	}
	err = ComputeCellMeasure(gt.WeightedMeasure, gt.JacDet, weights)
	return
}
