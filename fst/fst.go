// Package fst holds the function space tools that pull reference basis
// quantities back to physical cells.
//
// With J(c,p,i,j) = ∂x_i/∂ξ_j the transforms are
//
//	HGRAD  value  u                 grad  J⁻ᵀ ∇u
//	HCURL  value  J⁻ᵀ v             curl  J c / det J (3D), c / det J (2D)
//	HDIV   value  J v / det J       div   d / det J
//
// Reference tables are [F × P] or [F × P × D] and physical tables carry a
// leading cell dimension.
package fst

import (
	"errors"
	"fmt"

	"github.com/notargets/DGBasis/utils"
	"gonum.org/v1/gonum/floats"
)

var ErrDimensionMismatch = errors.New("array dimensions do not match")

func mismatch(op string, a *utils.Array, want ...int) error {
	var got []int
	name := "<nil>"
	if a != nil {
		got, name = a.Dims, a.Name
	}
	return fmt.Errorf("%s: %s is %v, want %v: %w", op, name, got, want, ErrDimensionMismatch)
}

// sizes reads C, F, P (and D when the output is rank 4) from out
func sizes(op string, out *utils.Array, rank int) (C, F, P, D int, err error) {
	if out == nil || out.Rank() != rank {
		err = fmt.Errorf("%s: output must be rank %d: %w", op, rank, ErrDimensionMismatch)
		return
	}
	C, F, P = out.Extent(0), out.Extent(1), out.Extent(2)
	D = out.Extent(3)
	return
}

// HGradTransformValue replicates the reference values in[F,P] into every cell of out[C,F,P]
func HGradTransformValue(out, in *utils.Array) error {
	C, F, P, _, err := sizes("HGradTransformValue", out, 3)
	if err != nil {
		return err
	}
	if !in.HasDims(F, P) {
		return mismatch("HGradTransformValue", in, F, P)
	}
	n := F * P
	for c := 0; c < C; c++ {
		copy(out.Data[c*n:(c+1)*n], in.Data)
	}
	return nil
}

// HGradTransformGrad writes out(c,f,p,i) = Σ_j jacInv(c,p,j,i) in(f,p,j)
func HGradTransformGrad(out, jacInv, in *utils.Array) error {
	return covariant("HGradTransformGrad", out, jacInv, in)
}

// HCurlTransformValue applies the covariant map J⁻ᵀ to the reference edge values
func HCurlTransformValue(out, jacInv, in *utils.Array) error {
	return covariant("HCurlTransformValue", out, jacInv, in)
}

func covariant(op string, out, jacInv, in *utils.Array) error {
	C, F, P, D, err := sizes(op, out, 4)
	if err != nil {
		return err
	}
	if !jacInv.HasDims(C, P, D, D) {
		return mismatch(op, jacInv, C, P, D, D)
	}
	if !in.HasDims(F, P, D) {
		return mismatch(op, in, F, P, D)
	}
	for c := 0; c < C; c++ {
		for f := 0; f < F; f++ {
			for p := 0; p < P; p++ {
				for i := 0; i < D; i++ {
					var sum float64
					for j := 0; j < D; j++ {
						sum += jacInv.At4(c, p, j, i) * in.At3(f, p, j)
					}
					out.Set4(c, f, p, i, sum)
				}
			}
		}
	}
	return nil
}

// HCurlTransformCurl maps 3D reference curls with J c / det J
func HCurlTransformCurl(out, jac, jacDet, in *utils.Array) error {
	return piola("HCurlTransformCurl", out, jac, jacDet, in)
}

// HDivTransformValue maps reference face values with the contravariant
// Piola transform J v / det J
func HDivTransformValue(out, jac, jacDet, in *utils.Array) error {
	return piola("HDivTransformValue", out, jac, jacDet, in)
}

func piola(op string, out, jac, jacDet, in *utils.Array) error {
	C, F, P, D, err := sizes(op, out, 4)
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
	for c := 0; c < C; c++ {
		for p := 0; p < P; p++ {
			rdet := 1 / jacDet.At2(c, p)
			J := jac.Data[(c*P+p)*D*D : (c*P+p+1)*D*D]
			for f := 0; f < F; f++ {
				v := in.Data[(f*P+p)*D : (f*P+p+1)*D]
				for i := 0; i < D; i++ {
					out.Set4(c, f, p, i, rdet*floats.Dot(J[i*D:(i+1)*D], v))
				}
			}
		}
	}
	return nil
}

// HDivTransformDiv scales reference scalars in[F,P] by 1/det J. The 2D
// H(curl) curl uses the same map.
func HDivTransformDiv(out, jacDet, in *utils.Array) error {
	C, F, P, _, err := sizes("HDivTransformDiv", out, 3)
	if err != nil {
		return err
	}
	if !jacDet.HasDims(C, P) {
		return mismatch("HDivTransformDiv", jacDet, C, P)
	}
	if !in.HasDims(F, P) {
		return mismatch("HDivTransformDiv", in, F, P)
	}
	for c := 0; c < C; c++ {
		det := jacDet.Data[c*P : (c+1)*P]
		for f := 0; f < F; f++ {
			floats.DivTo(out.Data[(c*F+f)*P:(c*F+f+1)*P], in.Data[f*P:(f+1)*P], det)
		}
	}
	return nil
}

// MultiplyMeasure writes out(c,f,p,...) = measure(c,p) in(c,f,p,...) for
// rank 3 and rank 4 tables. out and in may be the same array.
func MultiplyMeasure(out, measure, in *utils.Array) error {
	if in == nil || (in.Rank() != 3 && in.Rank() != 4) {
		return fmt.Errorf("MultiplyMeasure: input must be rank 3 or 4: %w", ErrDimensionMismatch)
	}
	if !out.SameShape(in) {
		return mismatch("MultiplyMeasure", out, in.Dims...)
	}
	C, F, P := in.Extent(0), in.Extent(1), in.Extent(2)
	if !measure.HasDims(C, P) {
		return mismatch("MultiplyMeasure", measure, C, P)
	}
	D := 1
	if in.Rank() == 4 {
		D = in.Extent(3)
	}
	for c := 0; c < C; c++ {
		m := measure.Data[c*P : (c+1)*P]
		for f := 0; f < F; f++ {
			off := (c*F + f) * P * D
			if D == 1 {
				floats.MulTo(out.Data[off:off+P], m, in.Data[off:off+P])
				continue
			}
			for p := 0; p < P; p++ {
				lo, hi := off+p*D, off+(p+1)*D
				floats.ScaleTo(out.Data[lo:hi], m[p], in.Data[lo:hi])
			}
		}
	}
	return nil
}

// ApplyFieldSigns multiplies every entry of basis function f in cell c by signs(c,f)
func ApplyFieldSigns(inout, signs *utils.Array) error {
	if inout == nil || inout.Rank() < 2 {
		return fmt.Errorf("ApplyFieldSigns: table must have cell and basis dimensions: %w", ErrDimensionMismatch)
	}
	C, F := inout.Extent(0), inout.Extent(1)
	if !signs.HasDims(C, F) {
		return mismatch("ApplyFieldSigns", signs, C, F)
	}
	if C*F == 0 {
		return nil
	}
	stride := inout.Size() / (C * F)
	for c := 0; c < C; c++ {
		for f := 0; f < F; f++ {
			s := signs.At2(c, f)
			if s == 1 {
				continue
			}
			off := (c*F + f) * stride
			floats.Scale(s, inout.Data[off:off+stride])
		}
	}
	return nil
}
