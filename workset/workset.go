// Package workset splits a mesh's cells into worksets that are evaluated
// independently, and gathers the per-workset results back into whole-mesh
// tables.
package workset

import (
	"errors"
	"fmt"
	"math"

	"github.com/notargets/DGBasis/config"
)

var ErrLayout = errors.New("invalid workset layout")

// Strategy selects how cells are assigned to worksets
type Strategy int

const (
	Block      Strategy = iota // Consecutive cells
	RoundRobin                 // Distribute cyclically
)

func (s Strategy) String() string {
	switch s {
	case Block:
		return "block"
	case RoundRobin:
		return "round-robin"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// Workset is a group of cells evaluated together
type Workset struct {
	ID       int
	Cells    []int // Global cell indices, ascending
	NumCells int
}

// Layout is the decomposition of a mesh into worksets
type Layout struct {
	Worksets   []Workset
	MaxCells   int   // max(NumCells) across worksets
	TotalCells int   // Sum of NumCells across worksets
	CToW       []int // Cell c belongs to workset CToW[c]
}

// Builder constructs a Layout for NumCells cells
type Builder struct {
	NumCells   int
	TargetSize int // Desired cells per workset
	Strategy   Strategy
}

func NewBuilder(numCells int, cfg config.Config) *Builder {
	return &Builder{NumCells: numCells, TargetSize: cfg.WorksetSize, Strategy: Block}
}

// Build assigns every cell to exactly one workset
func (b *Builder) Build() (*Layout, error) {
	if b.NumCells < 0 || b.TargetSize < 1 {
		return nil, fmt.Errorf("%d cells in worksets of %d: %w", b.NumCells, b.TargetSize, ErrLayout)
	}
	numWorksets := int(math.Ceil(float64(b.NumCells) / float64(b.TargetSize)))
	if numWorksets < 1 {
		numWorksets = 1
	}

	cToW := make([]int, b.NumCells)
	switch b.Strategy {
	case Block:
		perWorkset := int(math.Ceil(float64(b.NumCells) / float64(numWorksets)))
		for c := range cToW {
			cToW[c] = min(c/perWorkset, numWorksets-1)
		}
	case RoundRobin:
		for c := range cToW {
			cToW[c] = c % numWorksets
		}
	default:
		return nil, fmt.Errorf("strategy %v: %w", b.Strategy, ErrLayout)
	}

	layout := &Layout{
		Worksets:   make([]Workset, numWorksets),
		TotalCells: b.NumCells,
		CToW:       cToW,
	}
	for w := range layout.Worksets {
		layout.Worksets[w].ID = w
	}
	for c, w := range cToW {
		ws := &layout.Worksets[w]
		ws.Cells = append(ws.Cells, c)
		ws.NumCells++
	}
	for _, ws := range layout.Worksets {
		layout.MaxCells = max(layout.MaxCells, ws.NumCells)
	}

	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return layout, nil
}

// WorksetOf returns the workset containing cell c, or -1
func (l *Layout) WorksetOf(c int) int {
	if c < 0 || c >= len(l.CToW) {
		return -1
	}
	return l.CToW[c]
}

// Validate checks that every cell belongs to exactly the workset CToW names
// and that the size bookkeeping is consistent
func (l *Layout) Validate() error {
	if len(l.CToW) != l.TotalCells {
		return fmt.Errorf("CToW covers %d cells, layout has %d: %w", len(l.CToW), l.TotalCells, ErrLayout)
	}
	seen := make([]bool, l.TotalCells)
	total, actualMax := 0, 0
	for w, ws := range l.Worksets {
		if ws.ID != w {
			return fmt.Errorf("workset %d carries ID %d: %w", w, ws.ID, ErrLayout)
		}
		if ws.NumCells != len(ws.Cells) {
			return fmt.Errorf("workset %d: NumCells %d != %d cells: %w", w, ws.NumCells, len(ws.Cells), ErrLayout)
		}
		for _, c := range ws.Cells {
			if c < 0 || c >= l.TotalCells {
				return fmt.Errorf("workset %d: cell %d out of range: %w", w, c, ErrLayout)
			}
			if seen[c] {
				return fmt.Errorf("cell %d assigned twice: %w", c, ErrLayout)
			}
			if l.CToW[c] != w {
				return fmt.Errorf("cell %d in workset %d but CToW says %d: %w", c, w, l.CToW[c], ErrLayout)
			}
			seen[c] = true
		}
		total += ws.NumCells
		actualMax = max(actualMax, ws.NumCells)
	}
	if total != l.TotalCells {
		return fmt.Errorf("worksets hold %d cells, want %d: %w", total, l.TotalCells, ErrLayout)
	}
	if actualMax != l.MaxCells {
		return fmt.Errorf("computed MaxCells %d != stored MaxCells %d: %w", actualMax, l.MaxCells, ErrLayout)
	}
	return nil
}
