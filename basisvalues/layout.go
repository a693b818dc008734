package basisvalues

import (
	"fmt"

	"github.com/notargets/DGBasis/basis"
	"github.com/notargets/DGBasis/element"
)

// PureBasis is a reference basis paired with the number of cells it is
// evaluated on
type PureBasis struct {
	Basis    basis.Basis
	NumCells int
}

// NewPureBasis builds the basis of space on geom for numCells cells
func NewPureBasis(space basis.ElementSpace, geom element.ElementGeometry, order, numCells int) (*PureBasis, error) {
	b, err := basis.New(space, geom, order)
	if err != nil {
		return nil, err
	}
	return &PureBasis{Basis: b, NumCells: numCells}, nil
}

func (pb *PureBasis) Space() basis.ElementSpace         { return pb.Basis.Space() }
func (pb *PureBasis) Dimension() int                    { return pb.Basis.Dimension() }
func (pb *PureBasis) Cardinality() int                  { return pb.Basis.Cardinality() }
func (pb *PureBasis) Geometry() element.ElementGeometry { return pb.Basis.Geometry() }
func (pb *PureBasis) Name() string                      { return pb.Basis.Name() }

// Layout couples a basis with an integration rule of NumPoints points
type Layout struct {
	Basis     *PureBasis
	NumPoints int
}

// NewLayout pairs pb with an integration rule of numPoints points
func NewLayout(pb *PureBasis, numPoints int) *Layout {
	return &Layout{Basis: pb, NumPoints: numPoints}
}

func (l *Layout) NumCells() int    { return l.Basis.NumCells }
func (l *Layout) Cardinality() int { return l.Basis.Cardinality() }
func (l *Layout) Dimension() int   { return l.Basis.Dimension() }

func (l *Layout) String() string {
	return fmt.Sprintf("%s C=%d F=%d P=%d D=%d",
		l.Basis.Name(), l.NumCells(), l.Cardinality(), l.NumPoints, l.Dimension())
}

// WithCells returns a copy of the layout for numCells cells
func (l *Layout) WithCells(numCells int) *Layout {
	pb := *l.Basis
	pb.NumCells = numCells
	return &Layout{Basis: &pb, NumPoints: l.NumPoints}
}
