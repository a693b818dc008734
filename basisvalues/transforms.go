package basisvalues

import (
	"github.com/notargets/DGBasis/fst"
	"github.com/notargets/DGBasis/utils"
)

// Transforms applies the reference to physical pullbacks. Shapes and
// semantics follow the fst functions of the same name.
type Transforms interface {
	HGradTransformValue(out, in *utils.Array) error
	HGradTransformGrad(out, jacInv, in *utils.Array) error
	HCurlTransformValue(out, jacInv, in *utils.Array) error
	HCurlTransformCurl(out, jac, jacDet, in *utils.Array) error
	HDivTransformValue(out, jac, jacDet, in *utils.Array) error
	HDivTransformDiv(out, jacDet, in *utils.Array) error
	MultiplyMeasure(out, measure, in *utils.Array) error
}

// HostTransforms runs the pullbacks on the host
type HostTransforms struct{}

var _ Transforms = HostTransforms{}

func (HostTransforms) HGradTransformValue(out, in *utils.Array) error {
	return fst.HGradTransformValue(out, in)
}

func (HostTransforms) HGradTransformGrad(out, jacInv, in *utils.Array) error {
	return fst.HGradTransformGrad(out, jacInv, in)
}

func (HostTransforms) HCurlTransformValue(out, jacInv, in *utils.Array) error {
	return fst.HCurlTransformValue(out, jacInv, in)
}

func (HostTransforms) HCurlTransformCurl(out, jac, jacDet, in *utils.Array) error {
	return fst.HCurlTransformCurl(out, jac, jacDet, in)
}

func (HostTransforms) HDivTransformValue(out, jac, jacDet, in *utils.Array) error {
	return fst.HDivTransformValue(out, jac, jacDet, in)
}

func (HostTransforms) HDivTransformDiv(out, jacDet, in *utils.Array) error {
	return fst.HDivTransformDiv(out, jacDet, in)
}

func (HostTransforms) MultiplyMeasure(out, measure, in *utils.Array) error {
	return fst.MultiplyMeasure(out, measure, in)
}
