package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArrayIndexing(t *testing.T) {
	a := NewArray("a", 2, 3, 4, 2)
	a.Set4(1, 2, 3, 1, 7)
	assert.Equal(t, 7., a.Data[((1*3+2)*4+3)*2+1])
	assert.Equal(t, 7., a.At4(1, 2, 3, 1))
	assert.Equal(t, 4, a.Rank())
	assert.Equal(t, 0, a.Extent(4))
	assert.True(t, a.HasDims(2, 3, 4, 2))
	assert.False(t, a.HasDims(2, 3, 4))
	assert.Equal(t, "a[2 3 4 2]", a.String())

	_, err := NewArrayFrom("b", make([]float64, 5), 2, 3)
	assert.ErrorIs(t, err, ErrShape)
}

func TestCellViewSharesStorage(t *testing.T) {
	a := NewArray("a", 3, 2, 2)
	v := a.CellView(1)
	assert.Equal(t, []int{1, 2, 2}, v.Dims)
	v.Set3(0, 1, 0, 5)
	assert.Equal(t, 5., a.At3(1, 1, 0))
	assert.Equal(t, 5., a.Data[6])
}

func TestGatherScatterRoundTrip(t *testing.T) {
	src, err := NewArrayFrom("src", []float64{0, 1, 10, 11, 20, 21, 30, 31}, 4, 2)
	require.NoError(t, err)

	g, err := GatherCells(src, []int{3, 1}, "g")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, g.Dims)
	assert.Equal(t, []float64{30, 31, 10, 11}, g.Data)

	dst := NewArray("dst", 4, 2)
	require.NoError(t, ScatterCells(dst, g, []int{3, 1}))
	assert.Equal(t, []float64{0, 0, 10, 11, 0, 0, 30, 31}, dst.Data)

	nilGather, err := GatherCells(nil, []int{0}, "none")
	assert.NoError(t, err)
	assert.Nil(t, nilGather)

	_, err = GatherCells(src, []int{4}, "g")
	assert.ErrorIs(t, err, ErrShape)
	assert.ErrorIs(t, ScatterCells(dst, g, []int{0}), ErrShape)
	assert.ErrorIs(t, ScatterCells(NewArray("d", 4, 3), g, []int{0, 1}), ErrShape)
}

func TestCopyCloneScale(t *testing.T) {
	a, err := NewArrayFrom("a", []float64{1, 2, 3}, 3)
	require.NoError(t, err)
	b := a.Clone("b")
	b.Scale(2)
	assert.Equal(t, []float64{1, 2, 3}, a.Data)
	require.NoError(t, a.CopyFrom(b))
	assert.Equal(t, []float64{2, 4, 6}, a.Data)
	assert.ErrorIs(t, a.CopyFrom(NewArray("c", 2)), ErrShape)
	a.Zero()
	assert.Equal(t, []float64{0, 0, 0}, a.Data)
}
