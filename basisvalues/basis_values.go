// Package basisvalues evaluates a reference basis at integration points and
// pulls the values and derivatives back to physical cells.
//
// A BasisValues is sized once by SetupArrays for a basis/integration-rule
// layout and can then be evaluated repeatedly for new cell geometry. Only the
// arrays the element space supports are allocated:
//
//	HGRAD  BasisScalar, GradBasis
//	HCURL  BasisVector, CurlBasisScalar (2D) or CurlBasisVector (3D)
//	HDIV   BasisVector, DivBasis
//	CONST  BasisScalar
//
// together with their reference ([F × ...]) versions and, when weighting is
// enabled, their measure weighted twins.
package basisvalues

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/notargets/DGBasis/basis"
	"github.com/notargets/DGBasis/config"
	"github.com/notargets/DGBasis/fst"
	"github.com/notargets/DGBasis/utils"
)

var (
	ErrUnsupportedSpace      = errors.New("element space not supported in this dimension")
	ErrNotSetup              = errors.New("arrays not set up")
	ErrReferenceNotEvaluated = errors.New("reference values not evaluated")
	ErrDimensionMismatch     = fst.ErrDimensionMismatch
	ErrUnsupportedOperator   = basis.ErrUnsupportedOperator
)

// BasisValues holds the reference, physical and weighted basis tables of one layout
type BasisValues struct {
	// Reference tables
	BasisRefScalar      *utils.Array // [F × P]
	BasisRefVector      *utils.Array // [F × P × D]
	GradBasisRef        *utils.Array // [F × P × D]
	CurlBasisRefScalar  *utils.Array // [F × P]
	CurlBasisRefVector  *utils.Array // [F × P × D]
	DivBasisRef         *utils.Array // [F × P]
	BasisCoordinatesRef *utils.Array // [F × D]

	// Physical tables
	BasisScalar      *utils.Array // [C × F × P]
	BasisVector      *utils.Array // [C × F × P × D]
	GradBasis        *utils.Array // [C × F × P × D]
	CurlBasisScalar  *utils.Array // [C × F × P]
	CurlBasisVector  *utils.Array // [C × F × P × D]
	DivBasis         *utils.Array // [C × F × P]
	BasisCoordinates *utils.Array // [C × F × D]

	// Physical tables times the integration measure
	WeightedBasisScalar     *utils.Array
	WeightedBasisVector     *utils.Array
	WeightedGradBasis       *utils.Array
	WeightedCurlBasisScalar *utils.Array
	WeightedCurlBasisVector *utils.Array
	WeightedDivBasis        *utils.Array

	prefix              string
	buildWeighted       bool
	computeDerivatives  bool
	referencesEvaluated bool
	referenceDerivs     bool // derivative reference tables hold the last evaluation
	weightedCurrent     bool // weighted tables hold the last evaluation
	layout              *Layout
	transforms          Transforms
	logger              *slog.Logger
}

// Option configures a BasisValues in New
type Option func(*BasisValues)

// WithPrefix prepends prefix to every array name
func WithPrefix(prefix string) Option {
	return func(bv *BasisValues) { bv.prefix = prefix }
}

// WithBuildWeighted selects whether the weighted twins are allocated and filled
func WithBuildWeighted(build bool) Option {
	return func(bv *BasisValues) { bv.buildWeighted = build }
}

// WithLogger tags logger with the basisvalues component
func WithLogger(logger *slog.Logger) Option {
	return func(bv *BasisValues) {
		bv.logger = logger.With(slog.String("component", "basisvalues"))
	}
}

// WithTransforms runs the pullbacks through t instead of on the host
func WithTransforms(t Transforms) Option {
	return func(bv *BasisValues) { bv.transforms = t }
}

// FromConfig applies the array prefix and weighting choice of cfg
func FromConfig(cfg config.Config) Option {
	return func(bv *BasisValues) {
		bv.prefix = cfg.ArrayPrefix
		bv.buildWeighted = cfg.BuildWeighted
	}
}

// New returns an empty BasisValues; weighted tables are built unless disabled
func New(opts ...Option) *BasisValues {
	bv := &BasisValues{
		buildWeighted: true,
		transforms:    HostTransforms{},
		logger:        slog.Default().With(slog.String("component", "basisvalues")),
	}
	for _, opt := range opts {
		opt(bv)
	}
	return bv
}

// Space returns the element space of the layout's basis
func (bv *BasisValues) Space() basis.ElementSpace {
	if bv.layout == nil {
		return basis.HGrad
	}
	return bv.layout.Basis.Space()
}

func (bv *BasisValues) Layout() *Layout { return bv.layout }

func (bv *BasisValues) BuildWeighted() bool { return bv.buildWeighted }

func (bv *BasisValues) ComputeDerivatives() bool { return bv.computeDerivatives }

func (bv *BasisValues) ReferencesEvaluated() bool { return bv.referencesEvaluated }

// InheritState takes the evaluation state of parts whose tables were copied
// into bv: references and weighted tables count as current only when they
// are current in every part.
func (bv *BasisValues) InheritState(parts ...*BasisValues) {
	refs, derivs, weighted := len(parts) > 0, len(parts) > 0, len(parts) > 0
	for _, p := range parts {
		refs = refs && p.referencesEvaluated
		derivs = derivs && p.referenceDerivs
		weighted = weighted && p.weightedCurrent
	}
	bv.referencesEvaluated, bv.referenceDerivs, bv.weightedCurrent = refs, derivs, weighted
}

// WeightedCurrent is true when the weighted tables were filled by the most
// recent evaluation
func (bv *BasisValues) WeightedCurrent() bool { return bv.weightedCurrent }

func (bv *BasisValues) array(name string, dims ...int) *utils.Array {
	return utils.NewArray(bv.prefix+name, dims...)
}

func (bv *BasisValues) weighted(name string, dims ...int) *utils.Array {
	if !bv.buildWeighted {
		return nil
	}
	return bv.array(name, dims...)
}

// SetupArrays allocates the tables for layout. Any earlier tables and
// evaluation state are discarded.
func (bv *BasisValues) SetupArrays(layout *Layout, computeDerivatives bool) error {
	if layout == nil || layout.Basis == nil || layout.Basis.Basis == nil {
		return fmt.Errorf("setup: nil layout: %w", ErrNotSetup)
	}
	var (
		C     = layout.NumCells()
		F     = layout.Cardinality()
		P     = layout.NumPoints
		D     = layout.Dimension()
		space = layout.Basis.Space()
	)
	if C < 0 || P < 0 {
		return fmt.Errorf("setup %v: %w", layout, ErrDimensionMismatch)
	}
	if space == basis.HCurl && computeDerivatives && D != 2 && D != 3 {
		return fmt.Errorf("setup %v: curl in %dD: %w", layout, D, ErrUnsupportedSpace)
	}

	*bv = BasisValues{
		prefix:             bv.prefix,
		buildWeighted:      bv.buildWeighted,
		transforms:         bv.transforms,
		logger:             bv.logger,
		computeDerivatives: computeDerivatives,
		layout:             layout,
	}

	switch space {
	case basis.HGrad, basis.Const:
		bv.BasisRefScalar = bv.array("basis_ref", F, P)
		bv.BasisScalar = bv.array("basis", C, F, P)
		bv.WeightedBasisScalar = bv.weighted("weighted_basis", C, F, P)
		if space == basis.HGrad && computeDerivatives {
			bv.GradBasisRef = bv.array("grad_basis_ref", F, P, D)
			bv.GradBasis = bv.array("grad_basis", C, F, P, D)
			bv.WeightedGradBasis = bv.weighted("weighted_grad_basis", C, F, P, D)
		}
	case basis.HCurl:
		bv.BasisRefVector = bv.array("basis_ref", F, P, D)
		bv.BasisVector = bv.array("basis", C, F, P, D)
		bv.WeightedBasisVector = bv.weighted("weighted_basis", C, F, P, D)
		if computeDerivatives && D == 2 {
			bv.CurlBasisRefScalar = bv.array("curl_basis_ref", F, P)
			bv.CurlBasisScalar = bv.array("curl_basis", C, F, P)
			bv.WeightedCurlBasisScalar = bv.weighted("weighted_curl_basis", C, F, P)
		}
		if computeDerivatives && D == 3 {
			bv.CurlBasisRefVector = bv.array("curl_basis_ref", F, P, D)
			bv.CurlBasisVector = bv.array("curl_basis", C, F, P, D)
			bv.WeightedCurlBasisVector = bv.weighted("weighted_curl_basis", C, F, P, D)
		}
	case basis.HDiv:
		bv.BasisRefVector = bv.array("basis_ref", F, P, D)
		bv.BasisVector = bv.array("basis", C, F, P, D)
		bv.WeightedBasisVector = bv.weighted("weighted_basis", C, F, P, D)
		if computeDerivatives {
			bv.DivBasisRef = bv.array("div_basis_ref", F, P)
			bv.DivBasis = bv.array("div_basis", C, F, P)
			bv.WeightedDivBasis = bv.weighted("weighted_div_basis", C, F, P)
		}
	default:
		bv.layout = nil
		return fmt.Errorf("setup %v: %w", space, ErrUnsupportedSpace)
	}

	bv.BasisCoordinatesRef = bv.array("basis_coordinates_ref", F, D)
	bv.BasisCoordinates = bv.array("basis_coordinates", C, F, D)

	bv.logger.Debug("arrays set up",
		slog.String("layout", layout.String()),
		slog.String("space", space.String()),
		slog.Bool("derivatives", computeDerivatives),
		slog.Bool("weighted", bv.buildWeighted))
	return nil
}

// Arrays lists every allocated table
func (bv *BasisValues) Arrays() []*utils.Array {
	return append(bv.ReferenceArrays(), bv.PhysicalArrays()...)
}

// ReferenceArrays lists the allocated tables without a cell dimension
func (bv *BasisValues) ReferenceArrays() []*utils.Array {
	var out []*utils.Array
	for _, a := range []*utils.Array{
		bv.BasisRefScalar, bv.BasisRefVector, bv.GradBasisRef,
		bv.CurlBasisRefScalar, bv.CurlBasisRefVector, bv.DivBasisRef,
		bv.BasisCoordinatesRef,
	} {
		if a != nil {
			out = append(out, a)
		}
	}
	return out
}

// PhysicalArrays lists the allocated tables with a leading cell dimension
func (bv *BasisValues) PhysicalArrays() []*utils.Array {
	var out []*utils.Array
	for _, a := range []*utils.Array{
		bv.BasisScalar, bv.BasisVector, bv.GradBasis,
		bv.CurlBasisScalar, bv.CurlBasisVector, bv.DivBasis,
		bv.BasisCoordinates,
		bv.WeightedBasisScalar, bv.WeightedBasisVector, bv.WeightedGradBasis,
		bv.WeightedCurlBasisScalar, bv.WeightedCurlBasisVector, bv.WeightedDivBasis,
	} {
		if a != nil {
			out = append(out, a)
		}
	}
	return out
}
