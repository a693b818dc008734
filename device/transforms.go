package device

import (
	"fmt"

	"github.com/notargets/DGBasis/basisvalues"
	"github.com/notargets/DGBasis/fst"
	"github.com/notargets/DGBasis/utils"
)

var _ basisvalues.Transforms = (*Device)(nil)

// Each kernel is compiled per shape. Cells and basis functions share the
// outer loop, points run on the inner loop.
const (
	replicateSource = `
@kernel void replicate(const double *in, double *out) {
	for (int cf = 0; cf < NC*NF; ++cf; @outer) {
		for (int p = 0; p < NP; ++p; @inner) {
			out[cf*NP + p] = in[(cf % NF)*NP + p];
		}
	}
}
`
	covariantSource = `
@kernel void covariant(const double *jacInv, const double *in, double *out) {
	for (int cf = 0; cf < NC*NF; ++cf; @outer) {
		for (int p = 0; p < NP; ++p; @inner) {
			const int c = cf / NF;
			const int f = cf % NF;
			const double *Ji = jacInv + (c*NP + p)*ND*ND;
			const double *v = in + (f*NP + p)*ND;
			for (int i = 0; i < ND; ++i) {
				double s = 0.0;
				for (int j = 0; j < ND; ++j) {
					s += Ji[j*ND + i]*v[j];
				}
				out[(cf*NP + p)*ND + i] = s;
			}
		}
	}
}
`
	piolaSource = `
@kernel void piola(const double *jac, const double *jacDet, const double *in, double *out) {
	for (int cf = 0; cf < NC*NF; ++cf; @outer) {
		for (int p = 0; p < NP; ++p; @inner) {
			const int c = cf / NF;
			const int f = cf % NF;
			const double *J = jac + (c*NP + p)*ND*ND;
			const double *v = in + (f*NP + p)*ND;
			const double det = jacDet[c*NP + p];
			for (int i = 0; i < ND; ++i) {
				double s = 0.0;
				for (int j = 0; j < ND; ++j) {
					s += J[i*ND + j]*v[j];
				}
				out[(cf*NP + p)*ND + i] = s/det;
			}
		}
	}
}
`
	divideSource = `
@kernel void divide(const double *jacDet, const double *in, double *out) {
	for (int cf = 0; cf < NC*NF; ++cf; @outer) {
		for (int p = 0; p < NP; ++p; @inner) {
			const int c = cf / NF;
			out[cf*NP + p] = in[(cf % NF)*NP + p]/jacDet[c*NP + p];
		}
	}
}
`
	measureSource = `
@kernel void weight(const double *measure, const double *in, double *out) {
	for (int cf = 0; cf < NC*NF; ++cf; @outer) {
		for (int p = 0; p < NP; ++p; @inner) {
			const double m = measure[(cf / NF)*NP + p];
			for (int k = 0; k < ND; ++k) {
				const int i = (cf*NP + p)*ND + k;
				out[i] = m*in[i];
			}
		}
	}
}
`
)

// source prefixes body with the shape defines
func source(body string, C, F, P, D int) string {
	return fmt.Sprintf("#define NC %d\n#define NF %d\n#define NP %d\n#define ND %d\n%s",
		C, F, P, D, body)
}

func mismatch(op string, a *utils.Array, want ...int) error {
	var got []int
	if a != nil {
		got = a.Dims
	}
	return fmt.Errorf("%s: got %v, want %v: %w", op, got, want, fst.ErrDimensionMismatch)
}

func shape(op string, out *utils.Array, rank int) (C, F, P, D int, err error) {
	if out == nil || out.Rank() != rank {
		err = fmt.Errorf("%s: output must be rank %d: %w", op, rank, fst.ErrDimensionMismatch)
		return
	}
	C, F, P, D = out.Extent(0), out.Extent(1), out.Extent(2), 1
	if rank == 4 {
		D = out.Extent(3)
	}
	return
}

func (d *Device) HGradTransformValue(out, in *utils.Array) error {
	C, F, P, _, err := shape("HGradTransformValue", out, 3)
	if err != nil {
		return err
	}
	if !in.HasDims(F, P) {
		return mismatch("HGradTransformValue", in, F, P)
	}
	return d.run(source(replicateSource, C, F, P, 1), "replicate", out, in)
}

func (d *Device) HGradTransformGrad(out, jacInv, in *utils.Array) error {
	return d.covariant("HGradTransformGrad", out, jacInv, in)
}

func (d *Device) HCurlTransformValue(out, jacInv, in *utils.Array) error {
	return d.covariant("HCurlTransformValue", out, jacInv, in)
}

func (d *Device) covariant(op string, out, jacInv, in *utils.Array) error {
	C, F, P, D, err := shape(op, out, 4)
	if err != nil {
		return err
	}
	if !jacInv.HasDims(C, P, D, D) {
		return mismatch(op, jacInv, C, P, D, D)
	}
	if !in.HasDims(F, P, D) {
		return mismatch(op, in, F, P, D)
	}
	return d.run(source(covariantSource, C, F, P, D), "covariant", out, jacInv, in)
}

func (d *Device) HCurlTransformCurl(out, jac, jacDet, in *utils.Array) error {
	return d.piola("HCurlTransformCurl", out, jac, jacDet, in)
}

func (d *Device) HDivTransformValue(out, jac, jacDet, in *utils.Array) error {
	return d.piola("HDivTransformValue", out, jac, jacDet, in)
}

func (d *Device) piola(op string, out, jac, jacDet, in *utils.Array) error {
	C, F, P, D, err := shape(op, out, 4)
	if err != nil {
		return err
	}
	if !jac.HasDims(C, P, D, D) {
		return mismatch(op, jac, C, P, D, D)
	}
	if !jacDet.HasDims(C, P) {
		return mismatch(op, jacDet, C, P)
	}
	if !in.HasDims(F, P, D) {
		return mismatch(op, in, F, P, D)
	}
	return d.run(source(piolaSource, C, F, P, D), "piola", out, jac, jacDet, in)
}

func (d *Device) HDivTransformDiv(out, jacDet, in *utils.Array) error {
	C, F, P, _, err := shape("HDivTransformDiv", out, 3)
	if err != nil {
		return err
	}
	if !jacDet.HasDims(C, P) {
		return mismatch("HDivTransformDiv", jacDet, C, P)
	}
	if !in.HasDims(F, P) {
		return mismatch("HDivTransformDiv", in, F, P)
	}
	return d.run(source(divideSource, C, F, P, 1), "divide", out, jacDet, in)
}

// MultiplyMeasure scales rank 3 or rank 4 tables by measure [C × P]. out may
// be in.
func (d *Device) MultiplyMeasure(out, measure, in *utils.Array) error {
	rank := 3
	if out != nil && out.Rank() == 4 {
		rank = 4
	}
	C, F, P, D, err := shape("MultiplyMeasure", out, rank)
	if err != nil {
		return err
	}
	if !measure.HasDims(C, P) {
		return mismatch("MultiplyMeasure", measure, C, P)
	}
	if !in.SameShape(out) {
		return mismatch("MultiplyMeasure", in, out.Dims...)
	}
	return d.run(source(measureSource, C, F, P, D), "weight", out, measure, in)
}
