package workset

import (
	"context"
	"fmt"
	"testing"

	"github.com/notargets/DGBasis/basis"
	"github.com/notargets/DGBasis/basisvalues"
	"github.com/notargets/DGBasis/celltools"
	"github.com/notargets/DGBasis/config"
	"github.com/notargets/DGBasis/cubature"
	"github.com/notargets/DGBasis/element"
	"github.com/notargets/DGBasis/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildStrategies(t *testing.T) {
	for _, tc := range []struct {
		strategy Strategy
		cells    int
		target   int
		sizes    []int
		first    []int
	}{
		{Block, 10, 4, []int{4, 4, 2}, []int{0, 1, 2, 3}},
		{RoundRobin, 10, 4, []int{4, 3, 3}, []int{0, 3, 6, 9}},
		{Block, 8, 8, []int{8}, []int{0, 1, 2, 3, 4, 5, 6, 7}},
		{Block, 0, 8, []int{0}, nil},
	} {
		t.Run(fmt.Sprintf("%v_%d_%d", tc.strategy, tc.cells, tc.target), func(t *testing.T) {
			b := &Builder{NumCells: tc.cells, TargetSize: tc.target, Strategy: tc.strategy}
			layout, err := b.Build()
			require.NoError(t, err)
			var sizes []int
			for _, ws := range layout.Worksets {
				sizes = append(sizes, ws.NumCells)
			}
			assert.Equal(t, tc.sizes, sizes)
			assert.Equal(t, tc.first, layout.Worksets[0].Cells)
			for c := 0; c < tc.cells; c++ {
				assert.Contains(t, layout.Worksets[layout.WorksetOf(c)].Cells, c)
			}
			assert.Equal(t, -1, layout.WorksetOf(tc.cells))
		})
	}

	_, err := (&Builder{NumCells: 4, TargetSize: 0}).Build()
	assert.ErrorIs(t, err, ErrLayout)
	_, err = (&Builder{NumCells: 4, TargetSize: 2, Strategy: Strategy(9)}).Build()
	assert.ErrorIs(t, err, ErrLayout)
}

func TestValidateDetectsCorruption(t *testing.T) {
	build := func() *Layout {
		l, err := (&Builder{NumCells: 6, TargetSize: 2}).Build()
		require.NoError(t, err)
		return l
	}
	l := build()
	l.CToW[3] = 0
	assert.ErrorIs(t, l.Validate(), ErrLayout)

	l = build()
	l.MaxCells = 5
	assert.ErrorIs(t, l.Validate(), ErrLayout)

	l = build()
	l.Worksets[1].Cells[0] = 0
	assert.ErrorIs(t, l.Validate(), ErrLayout)

	l = build()
	l.Worksets[2].NumCells = 1
	assert.ErrorIs(t, l.Validate(), ErrLayout)
}

// strip returns C sheared unit triangles translated along x
func strip(C int) *utils.Array {
	v := utils.NewArray("vertices", C, 3, 2)
	for c := 0; c < C; c++ {
		s := 0.1 * float64(c%3)
		x0 := float64(c)
		pts := [][]float64{{x0, 0}, {x0 + 1, s}, {x0 + s, 1}}
		for n, p := range pts {
			v.Set3(c, n, 0, p[0])
			v.Set3(c, n, 1, p[1])
		}
	}
	return v
}

func TestEvaluateMatchesWholeMesh(t *testing.T) {
	const C = 11
	geom := element.Tri
	rule, err := cubature.New(geom, 3)
	require.NoError(t, err)
	vertices := strip(C)
	gt, err := celltools.Geometry(rule.Points, rule.Weights, vertices, geom)
	require.NoError(t, err)

	for _, space := range []basis.ElementSpace{basis.HGrad, basis.HCurl, basis.HDiv} {
		for _, strategy := range []Strategy{Block, RoundRobin} {
			t.Run(fmt.Sprintf("%v_%v", space, strategy), func(t *testing.T) {
				pb, err := basisvalues.NewPureBasis(space, geom, 1, C)
				require.NoError(t, err)
				layout := basisvalues.NewLayout(pb, rule.NumPoints())

				whole := basisvalues.New()
				require.NoError(t, whole.SetupArrays(layout, true))
				require.NoError(t, whole.EvaluateTransform(rule.Points, gt, vertices, true))

				cfg := config.Default()
				cfg.WorksetSize = 4
				cfg.Workers = 2
				b := NewBuilder(C, cfg)
				b.Strategy = strategy
				ws, err := b.Build()
				require.NoError(t, err)

				e := NewEvaluator(layout, cfg)
				parts, err := e.Evaluate(context.Background(), ws, Inputs{
					CubPoints:            rule.Points,
					Geometry:             gt,
					Vertices:             vertices,
					UseVertexCoordinates: true,
				})
				require.NoError(t, err)
				require.Len(t, parts, 3)
				for i, part := range parts {
					assert.Equal(t, ws.Worksets[i].NumCells, part.Layout().NumCells())
				}

				all, err := e.Gather(ws, parts)
				require.NoError(t, err)
				want, got := whole.Arrays(), all.Arrays()
				require.Equal(t, len(want), len(got))
				for k := range want {
					assert.Equal(t, want[k].Dims, got[k].Dims, want[k].Name)
					assert.InDeltaSlice(t, want[k].Data, got[k].Data, 1e-14, want[k].Name)
				}
				assert.True(t, all.ReferencesEvaluated())
				assert.True(t, all.WeightedCurrent())

				// the gathered result maps its reference tables onto new cells
				require.NoError(t, all.TransformReferenceValues(gt, vertices, true))
				for k := range want {
					assert.InDeltaSlice(t, want[k].Data, all.Arrays()[k].Data, 1e-14, want[k].Name)
				}
			})
		}
	}
}

func TestEvaluateErrors(t *testing.T) {
	rule, err := cubature.New(element.Tri, 1)
	require.NoError(t, err)
	vertices := strip(4)
	gt, err := celltools.Geometry(rule.Points, rule.Weights, vertices, element.Tri)
	require.NoError(t, err)
	pb, err := basisvalues.NewPureBasis(basis.HGrad, element.Tri, 1, 4)
	require.NoError(t, err)
	e := NewEvaluator(basisvalues.NewLayout(pb, rule.NumPoints()), config.Default())

	ws, err := (&Builder{NumCells: 3, TargetSize: 2}).Build()
	require.NoError(t, err)
	_, err = e.Evaluate(context.Background(), ws, Inputs{CubPoints: rule.Points, Geometry: gt})
	assert.ErrorIs(t, err, basisvalues.ErrDimensionMismatch)

	ws, err = (&Builder{NumCells: 4, TargetSize: 2}).Build()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Evaluate(ctx, ws, Inputs{CubPoints: rule.Points, Geometry: gt})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = e.Gather(ws, nil)
	assert.ErrorIs(t, err, ErrLayout)
}
