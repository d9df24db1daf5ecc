package arena

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArenaAllocGrowsPools(t *testing.T) {
	a := New()
	require.Equal(t, 1, a.Pools())

	a.Alloc(PoolSize - 16)
	require.Equal(t, 1, a.Pools())

	a.Alloc(32)
	require.Equal(t, 2, a.Pools())
}

func TestArenaAllocTooLargePanics(t *testing.T) {
	a := New()
	require.Panics(t, func() { a.Alloc(PoolSize + 1) })
}

func TestArenaReset(t *testing.T) {
	a := New()
	a.Alloc(PoolSize)
	a.Alloc(1)
	require.Equal(t, 2, a.Pools())

	a.Reset()
	require.Equal(t, 1, a.Pools())
}

type node struct {
	Kind  string
	Value int
}

func TestPoolAddAndAt(t *testing.T) {
	p := NewPool[node]()
	i0 := p.Add(node{Kind: "int", Value: 7})
	i1 := p.Add(node{Kind: "float", Value: 15})

	require.Equal(t, "int", p.At(i0).Kind)
	require.Equal(t, "float", p.At(i1).Kind)
	require.Equal(t, 2, p.Len())

	p.At(i0).Value = 99
	require.Equal(t, 99, p.At(i0).Value)
}

func TestPoolGrowsAcrossChunks(t *testing.T) {
	p := NewPool[node]()
	indices := make([]int, 0, chunkLen*2+5)
	for i := 0; i < chunkLen*2+5; i++ {
		indices = append(indices, p.Add(node{Value: i}))
	}
	for i, idx := range indices {
		require.Equal(t, i, p.At(idx).Value)
	}
}
