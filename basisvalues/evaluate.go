package basisvalues

import (
	"fmt"
	"log/slog"

	"github.com/notargets/DGBasis/basis"
	"github.com/notargets/DGBasis/celltools"
	"github.com/notargets/DGBasis/element"
	"github.com/notargets/DGBasis/fst"
	"github.com/notargets/DGBasis/utils"
)

// tables returns the value and derivative tables of the current space:
// reference, physical and weighted. Entries the space or the setup does not
// carry are nil.
func (bv *BasisValues) tables() (ref, refDeriv, phys, physDeriv, wPhys, wPhysDeriv *utils.Array) {
	switch bv.Space() {
	case basis.HGrad:
		return bv.BasisRefScalar, bv.GradBasisRef, bv.BasisScalar, bv.GradBasis,
			bv.WeightedBasisScalar, bv.WeightedGradBasis
	case basis.Const:
		return bv.BasisRefScalar, nil, bv.BasisScalar, nil, bv.WeightedBasisScalar, nil
	case basis.HCurl:
		if bv.layout.Dimension() == 2 {
			return bv.BasisRefVector, bv.CurlBasisRefScalar, bv.BasisVector, bv.CurlBasisScalar,
				bv.WeightedBasisVector, bv.WeightedCurlBasisScalar
		}
		return bv.BasisRefVector, bv.CurlBasisRefVector, bv.BasisVector, bv.CurlBasisVector,
			bv.WeightedBasisVector, bv.WeightedCurlBasisVector
	case basis.HDiv:
		return bv.BasisRefVector, bv.DivBasisRef, bv.BasisVector, bv.DivBasis,
			bv.WeightedBasisVector, bv.WeightedDivBasis
	}
	return
}

func derivativeOp(space basis.ElementSpace) basis.Operator {
	switch space {
	case basis.HCurl:
		return basis.OpCurl
	case basis.HDiv:
		return basis.OpDiv
	}
	return basis.OpGrad
}

func (bv *BasisValues) checkSetup() error {
	if bv.layout == nil {
		return ErrNotSetup
	}
	return nil
}

func (bv *BasisValues) checkPoints(points *utils.Array) error {
	P, D := bv.layout.NumPoints, bv.layout.Dimension()
	if !points.HasDims(P, D) {
		var got []int
		if points != nil {
			got = points.Dims
		}
		return fmt.Errorf("cubature points %v, want [%d %d]: %w", got, P, D, ErrDimensionMismatch)
	}
	return nil
}

// EvaluateReferenceValues fills the reference tables at cubPoints [P × D].
// Derivatives are evaluated when computeDerivatives is set, which requires
// derivative tables from SetupArrays. useVertexCoordinates also fills
// BasisCoordinatesRef with the reference DOF locations.
func (bv *BasisValues) EvaluateReferenceValues(cubPoints *utils.Array, computeDerivatives, useVertexCoordinates bool) error {
	if err := bv.checkSetup(); err != nil {
		return err
	}
	if err := bv.checkPoints(cubPoints); err != nil {
		return err
	}
	if computeDerivatives && !bv.computeDerivatives {
		return fmt.Errorf("derivatives requested without derivative tables: %w", ErrNotSetup)
	}
	b := bv.layout.Basis.Basis
	ref, refDeriv, _, _, _, _ := bv.tables()
	bv.referencesEvaluated, bv.referenceDerivs = false, false
	if err := b.Values(ref, cubPoints, basis.OpValue); err != nil {
		return err
	}
	if computeDerivatives && refDeriv != nil {
		if err := b.Values(refDeriv, cubPoints, derivativeOp(b.Space())); err != nil {
			return err
		}
		bv.referenceDerivs = true
	}
	if useVertexCoordinates {
		if err := b.DofCoords(bv.BasisCoordinatesRef); err != nil {
			return err
		}
	}
	bv.referencesEvaluated = true
	return nil
}

// EvaluateValues evaluates the physical tables without weighting, whatever
// the weighting choice of the BasisValues
func (bv *BasisValues) EvaluateValues(cubPoints, jac, jacDet, jacInv *utils.Array) error {
	gt := element.GeometricTransform{Jac: jac, JacDet: jacDet, JacInv: jacInv}
	return bv.evaluate(cubPoints, gt, nil, false, false)
}

// EvaluateValuesWeighted evaluates the reference tables at cubPoints and
// maps them onto the cells described by jac [C × P × D × D], jacDet [C × P]
// and jacInv [C × P × D × D]. The weighted tables are filled with
// weightedMeasure [C × P] when weighting is enabled. With
// useVertexCoordinates the DOF locations are mapped into each cell through
// vertexCoordinates [C × N × D].
func (bv *BasisValues) EvaluateValuesWeighted(cubPoints, jac, jacDet, jacInv, weightedMeasure,
	vertexCoordinates *utils.Array, useVertexCoordinates bool) error {
	gt := element.GeometricTransform{Jac: jac, JacDet: jacDet, JacInv: jacInv, WeightedMeasure: weightedMeasure}
	return bv.evaluate(cubPoints, gt, vertexCoordinates, useVertexCoordinates, bv.buildWeighted)
}

// EvaluateTransform is EvaluateValuesWeighted with the geometry bundled
func (bv *BasisValues) EvaluateTransform(cubPoints *utils.Array, gt element.GeometricTransform,
	vertexCoordinates *utils.Array, useVertexCoordinates bool) error {
	return bv.evaluate(cubPoints, gt, vertexCoordinates, useVertexCoordinates, bv.buildWeighted)
}

func (bv *BasisValues) evaluate(cubPoints *utils.Array, gt element.GeometricTransform,
	vertexCoordinates *utils.Array, useVertexCoordinates, weighted bool) error {
	if err := bv.checkSetup(); err != nil {
		return err
	}
	if err := bv.EvaluateReferenceValues(cubPoints, bv.computeDerivatives, useVertexCoordinates); err != nil {
		return err
	}
	return bv.transform(gt, vertexCoordinates, useVertexCoordinates, weighted)
}

// TransformReferenceValues maps already evaluated reference tables onto the
// cells of gt, so cells sharing cubature points evaluate the basis once
func (bv *BasisValues) TransformReferenceValues(gt element.GeometricTransform,
	vertexCoordinates *utils.Array, useVertexCoordinates bool) error {
	if err := bv.checkSetup(); err != nil {
		return err
	}
	if !bv.referencesEvaluated {
		return ErrReferenceNotEvaluated
	}
	return bv.transform(gt, vertexCoordinates, useVertexCoordinates, bv.buildWeighted)
}

func (bv *BasisValues) transform(gt element.GeometricTransform, vertexCoordinates *utils.Array,
	useVertexCoordinates, weighted bool) error {
	if err := bv.checkGeometry(gt, weighted); err != nil {
		return err
	}
	ref, refDeriv, phys, physDeriv, wPhys, wPhysDeriv := bv.tables()
	if !bv.computeDerivatives {
		refDeriv, physDeriv = nil, nil
	}
	if refDeriv != nil && !bv.referenceDerivs {
		return fmt.Errorf("%v derivatives: %w", bv.Space(), ErrReferenceNotEvaluated)
	}
	bv.logger.Debug("evaluating basis values",
		slog.String("basis", bv.layout.Basis.Name()),
		slog.Int("cells", bv.layout.NumCells()),
		slog.Bool("weighted", weighted),
		slog.Bool("derivatives", physDeriv != nil))

	if err := bv.pullback(ref, refDeriv, phys, physDeriv, gt); err != nil {
		return err
	}
	bv.weightedCurrent = false
	if weighted && wPhys != nil {
		if err := bv.transforms.MultiplyMeasure(wPhys, gt.WeightedMeasure, phys); err != nil {
			return err
		}
		if physDeriv != nil && wPhysDeriv != nil {
			if err := bv.transforms.MultiplyMeasure(wPhysDeriv, gt.WeightedMeasure, physDeriv); err != nil {
				return err
			}
		}
		bv.weightedCurrent = true
	}

	if useVertexCoordinates {
		return celltools.MapToPhysicalFrame(bv.BasisCoordinates, bv.BasisCoordinatesRef,
			vertexCoordinates, bv.layout.Basis.Geometry())
	}
	return nil
}

// pullback applies the space's value and derivative transforms. refDeriv
// and physDeriv may be nil.
func (bv *BasisValues) pullback(ref, refDeriv, phys, physDeriv *utils.Array, gt element.GeometricTransform) error {
	var (
		t   = bv.transforms
		err error
	)
	switch bv.Space() {
	case basis.HGrad, basis.Const:
		err = t.HGradTransformValue(phys, ref)
	case basis.HCurl:
		err = t.HCurlTransformValue(phys, gt.JacInv, ref)
	case basis.HDiv:
		err = t.HDivTransformValue(phys, gt.Jac, gt.JacDet, ref)
	default:
		err = fmt.Errorf("%v: %w", bv.Space(), ErrUnsupportedSpace)
	}
	if err != nil || refDeriv == nil || physDeriv == nil {
		return err
	}
	switch bv.Space() {
	case basis.HGrad:
		return t.HGradTransformGrad(physDeriv, gt.JacInv, refDeriv)
	case basis.HCurl:
		if bv.layout.Dimension() == 2 {
			// only the volume change enters the 2D curl
			return t.HDivTransformDiv(physDeriv, gt.JacDet, refDeriv)
		}
		return t.HCurlTransformCurl(physDeriv, gt.Jac, gt.JacDet, refDeriv)
	case basis.HDiv:
		return t.HDivTransformDiv(physDeriv, gt.JacDet, refDeriv)
	}
	return nil
}

// checkGeometry verifies that gt carries every array the space needs, each
// shaped for the layout
func (bv *BasisValues) checkGeometry(gt element.GeometricTransform, weighted bool) error {
	C, P, D := bv.layout.NumCells(), bv.layout.NumPoints, bv.layout.Dimension()
	if err := gt.Validate(C, P, D); err != nil {
		return fmt.Errorf("%w: %w", ErrDimensionMismatch, err)
	}
	space, derivs := bv.Space(), bv.computeDerivatives
	needJac := space == basis.HDiv || (space == basis.HCurl && derivs && D == 3)
	needDet := space == basis.HDiv || (space == basis.HCurl && derivs)
	needInv := space == basis.HCurl || (space == basis.HGrad && derivs)
	switch {
	case needJac && gt.Jac == nil:
		return fmt.Errorf("%v needs the jacobian: %w", space, ErrDimensionMismatch)
	case needDet && gt.JacDet == nil:
		return fmt.Errorf("%v needs the jacobian determinant: %w", space, ErrDimensionMismatch)
	case needInv && gt.JacInv == nil:
		return fmt.Errorf("%v needs the inverse jacobian: %w", space, ErrDimensionMismatch)
	case weighted && gt.WeightedMeasure == nil:
		return fmt.Errorf("weighted evaluation needs the weighted measure: %w", ErrDimensionMismatch)
	}
	return nil
}

// EvaluateValuesCV evaluates the basis at cell specific reference points
// cellCubPoints [C × P × D], as used by control volume integration. Only the
// unweighted physical tables are filled; the reference tables are left
// untouched.
func (bv *BasisValues) EvaluateValuesCV(cellCubPoints, jac, jacDet, jacInv *utils.Array) error {
	if err := bv.checkSetup(); err != nil {
		return err
	}
	C, F, P, D := bv.layout.NumCells(), bv.layout.Cardinality(), bv.layout.NumPoints, bv.layout.Dimension()
	if !cellCubPoints.HasDims(C, P, D) {
		return fmt.Errorf("cell cubature points, want [%d %d %d]: %w", C, P, D, ErrDimensionMismatch)
	}
	gt := element.GeometricTransform{Jac: jac, JacDet: jacDet, JacInv: jacInv}
	if err := bv.checkGeometry(gt, false); err != nil {
		return err
	}

	b := bv.layout.Basis.Basis
	space := b.Space()
	ref, refDeriv, phys, physDeriv, _, _ := bv.tables()
	if !bv.computeDerivatives {
		refDeriv, physDeriv = nil, nil
	}
	// per cell scratch shaped like the reference tables
	val := utils.NewArray("cv_basis_ref", ref.Dims...)
	var deriv *utils.Array
	if refDeriv != nil {
		deriv = utils.NewArray("cv_deriv_ref", refDeriv.Dims...)
	}
	bv.logger.Debug("evaluating control volume basis values",
		slog.String("basis", b.Name()), slog.Int("cells", C), slog.Int("basis_functions", F))

	for c := 0; c < C; c++ {
		points, err := utils.NewArrayFrom("cv_points", cellCubPoints.CellView(c).Data, P, D)
		if err != nil {
			return err
		}
		if err = b.Values(val, points, basis.OpValue); err != nil {
			return err
		}
		var cellDeriv *utils.Array
		if deriv != nil {
			if err = b.Values(deriv, points, derivativeOp(space)); err != nil {
				return err
			}
			cellDeriv = physDeriv.CellView(c)
		}
		cell, err := gt.Cells([]int{c})
		if err != nil {
			return err
		}
		if err = bv.pullback(val, deriv, phys.CellView(c), cellDeriv, cell); err != nil {
			return fmt.Errorf("cell %d: %w", c, err)
		}
	}
	bv.weightedCurrent = false
	return nil
}

// ApplyOrientations multiplies every H(curl) and H(div) table by the sign
// orientations(c,f) of its basis function. H(grad) and constant bases are
// left unchanged.
func (bv *BasisValues) ApplyOrientations(orientations *utils.Array) error {
	if err := bv.checkSetup(); err != nil {
		return err
	}
	C, F := bv.layout.NumCells(), bv.layout.Cardinality()
	if !orientations.HasDims(C, F) {
		var got []int
		if orientations != nil {
			got = orientations.Dims
		}
		return fmt.Errorf("orientations %v, want [%d %d]: %w", got, C, F, ErrDimensionMismatch)
	}
	space := bv.Space()
	if space != basis.HCurl && space != basis.HDiv {
		bv.logger.Debug("orientations ignored", slog.String("space", space.String()))
		return nil
	}
	_, _, phys, physDeriv, wPhys, wPhysDeriv := bv.tables()
	for _, a := range []*utils.Array{phys, physDeriv, wPhys, wPhysDeriv} {
		if a == nil {
			continue
		}
		if err := fst.ApplyFieldSigns(a, orientations); err != nil {
			return err
		}
	}
	bv.logger.Debug("orientations applied", slog.String("space", space.String()), slog.Int("cells", C))
	return nil
}
