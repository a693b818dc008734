package workset

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/notargets/DGBasis/basisvalues"
	"github.com/notargets/DGBasis/config"
	"github.com/notargets/DGBasis/element"
	"github.com/notargets/DGBasis/utils"
	"golang.org/x/sync/errgroup"
)

// Inputs is the mesh-wide geometry at cubature points shared by every cell
type Inputs struct {
	CubPoints            *utils.Array               // [P × D]
	Geometry             element.GeometricTransform // [C × ...]
	Vertices             *utils.Array               // [C × N × D], needed with UseVertexCoordinates
	UseVertexCoordinates bool
}

// Evaluator runs one BasisValues per workset
type Evaluator struct {
	Layout             *basisvalues.Layout // NumCells is ignored
	ComputeDerivatives bool
	Workers            int // 0 means GOMAXPROCS
	Options            []basisvalues.Option
	logger             *slog.Logger
}

func NewEvaluator(layout *basisvalues.Layout, cfg config.Config, opts ...basisvalues.Option) *Evaluator {
	return &Evaluator{
		Layout:             layout,
		ComputeDerivatives: cfg.ComputeDerivatives,
		Workers:            cfg.Workers,
		Options:            append([]basisvalues.Option{basisvalues.FromConfig(cfg)}, opts...),
		logger:             slog.Default().With(slog.String("component", "workset")),
	}
}

func (e *Evaluator) log() *slog.Logger {
	if e.logger == nil {
		e.logger = slog.Default().With(slog.String("component", "workset"))
	}
	return e.logger
}

// Evaluate evaluates every workset of ws concurrently and returns the results
// indexed by workset ID
func (e *Evaluator) Evaluate(ctx context.Context, ws *Layout, in Inputs) ([]*basisvalues.BasisValues, error) {
	if err := ws.Validate(); err != nil {
		return nil, err
	}
	if n := in.Geometry.NumCells(); n != 0 && n != ws.TotalCells {
		return nil, fmt.Errorf("geometry has %d cells, layout %d: %w",
			n, ws.TotalCells, basisvalues.ErrDimensionMismatch)
	}
	workers := e.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	e.log().Debug("dispatching worksets",
		slog.Int("worksets", len(ws.Worksets)),
		slog.Int("cells", ws.TotalCells),
		slog.Int("workers", workers))

	results := make([]*basisvalues.BasisValues, len(ws.Worksets))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range ws.Worksets {
		w := ws.Worksets[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			bv, err := e.evaluateOne(w, in)
			if err != nil {
				return fmt.Errorf("workset %d: %w", w.ID, err)
			}
			results[w.ID] = bv
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Evaluator) evaluateOne(w Workset, in Inputs) (*basisvalues.BasisValues, error) {
	gt, err := in.Geometry.Cells(w.Cells)
	if err != nil {
		return nil, err
	}
	vertices, err := utils.GatherCells(in.Vertices, w.Cells, "vertices")
	if err != nil {
		return nil, err
	}
	bv := basisvalues.New(e.Options...)
	if err = bv.SetupArrays(e.Layout.WithCells(w.NumCells), e.ComputeDerivatives); err != nil {
		return nil, err
	}
	if err = bv.EvaluateTransform(in.CubPoints, gt, vertices, in.UseVertexCoordinates); err != nil {
		return nil, err
	}
	return bv, nil
}

// Gather copies per-workset results into one BasisValues covering all cells.
// Reference tables are taken from the first workset.
func (e *Evaluator) Gather(ws *Layout, parts []*basisvalues.BasisValues) (*basisvalues.BasisValues, error) {
	if len(parts) != len(ws.Worksets) {
		return nil, fmt.Errorf("%d results for %d worksets: %w", len(parts), len(ws.Worksets), ErrLayout)
	}
	all := basisvalues.New(e.Options...)
	if err := all.SetupArrays(e.Layout.WithCells(ws.TotalCells), e.ComputeDerivatives); err != nil {
		return nil, err
	}
	for i, part := range parts {
		if part == nil {
			return nil, fmt.Errorf("workset %d has no result: %w", i, ErrLayout)
		}
		dst, src := all.PhysicalArrays(), part.PhysicalArrays()
		if len(dst) != len(src) {
			return nil, fmt.Errorf("workset %d has %d tables, want %d: %w",
				i, len(src), len(dst), basisvalues.ErrDimensionMismatch)
		}
		for k := range dst {
			if err := utils.ScatterCells(dst[k], src[k], ws.Worksets[i].Cells); err != nil {
				return nil, fmt.Errorf("workset %d: %w", i, err)
			}
		}
		if i > 0 {
			continue
		}
		for k, ref := range all.ReferenceArrays() {
			if err := ref.CopyFrom(part.ReferenceArrays()[k]); err != nil {
				return nil, err
			}
		}
	}
	all.InheritState(parts...)
	return all, nil
}
