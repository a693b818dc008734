// Package orientation derives the per-cell basis function signs that make
// edge and face degrees of freedom agree between neighbouring cells.
//
// Every edge and face carries a global direction fixed by the global IDs of
// its vertices. The sign of a DOF is +1 when the cell's local direction for
// the entity agrees with the global one and -1 otherwise, so two cells
// sharing an entity always multiply it onto the same global direction.
package orientation

import (
	"errors"
	"fmt"

	"github.com/notargets/DGBasis/basis"
	"github.com/notargets/DGBasis/utils"
)

var ErrVertexCount = errors.New("cell vertex count does not match geometry")

// EdgeSign is +1 when the edge runs from the smaller to the larger global ID
func EdgeSign(gidA, gidB int) float64 {
	if gidA < gidB {
		return 1
	}
	return -1
}

// FaceSign compares the local cyclic order of a face's vertices with the
// global one. The global cycle starts at the vertex with the smallest global
// ID and continues toward whichever of its two neighbours has the smaller ID.
// gids is listed in local order.
func FaceSign(gids []int) float64 {
	n := len(gids)
	if n < 3 {
		return 1
	}
	m := 0
	for i, g := range gids {
		if g < gids[m] {
			m = i
		}
	}
	next, prev := gids[(m+1)%n], gids[(m+n-1)%n]
	if next < prev {
		return 1
	}
	return -1
}

// FieldSigns returns signs [C × F] for a basis on cells whose vertex global IDs
// are cellVertexGIDs[c] in reference vertex order. Bases that need no
// orientation get all +1.
func FieldSigns(b basis.Basis, cellVertexGIDs [][]int) (*utils.Array, error) {
	C, F := len(cellVertexGIDs), b.Cardinality()
	signs := utils.NewArray("orientations", C, F)
	signs.Fill(1)
	if !b.RequireOrientation() {
		return signs, nil
	}

	geom := b.Geometry()
	ref := geom.Reference()
	var entities [][]int
	switch {
	case b.Space() == basis.HCurl && F == len(ref.Edges):
		entities = make([][]int, len(ref.Edges))
		for e, ev := range ref.Edges {
			entities[e] = []int{ev[0], ev[1]}
		}
	case b.Space() == basis.HDiv && F == len(ref.Sides):
		entities = ref.Sides
	default:
		return nil, fmt.Errorf("%s: no orientation rule for %d DOFs: %w",
			b.Name(), F, basis.ErrUnsupportedBasis)
	}

	nv := geom.NumVertices()
	gids := make([]int, 0, 4)
	for c, cell := range cellVertexGIDs {
		if len(cell) != nv {
			return nil, fmt.Errorf("cell %d has %d vertices, %v needs %d: %w",
				c, len(cell), geom, nv, ErrVertexCount)
		}
		for f, ent := range entities {
			gids = gids[:0]
			for _, v := range ent {
				gids = append(gids, cell[v])
			}
			if len(gids) == 2 {
				signs.Set2(c, f, EdgeSign(gids[0], gids[1]))
			} else {
				signs.Set2(c, f, FaceSign(gids))
			}
		}
	}
	return signs, nil
}
