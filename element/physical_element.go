package element

import (
	"fmt"

	"github.com/notargets/DGBasis/utils"
)

// GeometricTransform holds the reference-to-physical mapping data of a set of
// cells evaluated at integration points. All arrays are indexed by cell first.
type GeometricTransform struct {
	// Jacobian J(c,p,i,j) = ∂x_i/∂ξ_j
	// Dimension: [C × P × D × D]
	Jac *utils.Array

	// Jacobian determinant |∂(x,y,z)/∂(r,s,t)|
	// Dimension: [C × P]
	JacDet *utils.Array

	// Inverse Jacobian, JacInv(c,p,i,j) = ∂ξ_i/∂x_j
	// Dimension: [C × P × D × D]
	JacInv *utils.Array

	// Integration weight times |det J|, used for ∫_Ω f dV = Σ_p f_p W_p
	// Dimension: [C × P]
	WeightedMeasure *utils.Array
}

// NumCells is the leading extent of the Jacobian, or of the determinant when
// no Jacobian is present
func (gt GeometricTransform) NumCells() int {
	switch {
	case gt.Jac != nil:
		return gt.Jac.Extent(0)
	case gt.JacDet != nil:
		return gt.JacDet.Extent(0)
	case gt.JacInv != nil:
		return gt.JacInv.Extent(0)
	}
	return 0
}

// Validate checks that every non-nil array agrees with the [C × P × D] shape
func (gt GeometricTransform) Validate(numCells, numPoints, dim int) error {
	if gt.Jac != nil && !gt.Jac.HasDims(numCells, numPoints, dim, dim) {
		return fmt.Errorf("jacobian %v, want [%d %d %d %d]: %w",
			gt.Jac.Dims, numCells, numPoints, dim, dim, utils.ErrShape)
	}
	if gt.JacInv != nil && !gt.JacInv.HasDims(numCells, numPoints, dim, dim) {
		return fmt.Errorf("inverse jacobian %v, want [%d %d %d %d]: %w",
			gt.JacInv.Dims, numCells, numPoints, dim, dim, utils.ErrShape)
	}
	if gt.JacDet != nil && !gt.JacDet.HasDims(numCells, numPoints) {
		return fmt.Errorf("jacobian determinant %v, want [%d %d]: %w",
			gt.JacDet.Dims, numCells, numPoints, utils.ErrShape)
	}
	if gt.WeightedMeasure != nil && !gt.WeightedMeasure.HasDims(numCells, numPoints) {
		return fmt.Errorf("weighted measure %v, want [%d %d]: %w",
			gt.WeightedMeasure.Dims, numCells, numPoints, utils.ErrShape)
	}
	return nil
}

// Cells returns the transform restricted to the listed cells
func (gt GeometricTransform) Cells(cells []int) (sub GeometricTransform, err error) {
	if sub.Jac, err = utils.GatherCells(gt.Jac, cells, "jac"); err != nil {
		return
	}
	if sub.JacDet, err = utils.GatherCells(gt.JacDet, cells, "jac_det"); err != nil {
		return
	}
	if sub.JacInv, err = utils.GatherCells(gt.JacInv, cells, "jac_inv"); err != nil {
		return
	}
	sub.WeightedMeasure, err = utils.GatherCells(gt.WeightedMeasure, cells, "weighted_measure")
	return
}
