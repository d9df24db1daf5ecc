package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuiltinSizes(t *testing.T) {
	require.Equal(t, 0, VoidType().Size())
	require.Equal(t, 4, IntType().Size())
	require.Equal(t, 4, FloatType().Size())
	require.Equal(t, 4, BoolType().Size())
	require.Equal(t, 12, Vec3Type().Size())
	require.Equal(t, 4, CharPtrType().Size())
	require.Equal(t, 4, VoidPtrType().Size())
}

func TestArrayOfIsCanonicalPerElement(t *testing.T) {
	r := NewRegistry()
	a1 := r.ArrayOf(IntType())
	a2 := r.ArrayOf(IntType())
	require.Same(t, a1, a2)
	require.Equal(t, 4, a1.Size())

	af := r.ArrayOf(FloatType())
	require.NotSame(t, a1, af)
}

func TestStructSizeAndOffsets(t *testing.T) {
	r := NewRegistry()
	st := r.DefineStruct("Vec2i")
	st.StructDef.Members = []Member{
		{Name: "x", Type: IntType(), Offset: 0},
		{Name: "y", Type: IntType(), Offset: 4},
	}
	require.Equal(t, 8, st.Size())

	off := 0
	for _, m := range st.StructDef.Members {
		require.Equal(t, off, m.Offset)
		off += m.Type.Size()
	}
}

func TestEnumIndex(t *testing.T) {
	r := NewRegistry()
	e := r.DefineEnum("Color", []string{"Red", "Green", "Blue"})
	idx, ok := e.EnumDef.Index("Green")
	require.True(t, ok)
	require.Equal(t, 1, idx)

	_, ok = e.EnumDef.Index("Purple")
	require.False(t, ok)
}

func TestValueBytesRoundTripsSize(t *testing.T) {
	v := IntValue(7)
	require.Len(t, v.Bytes(), 4)

	vec := Value{Type: Vec3Type(), Vec3Val: [3]float32{1, 2, 3}}
	require.Len(t, vec.Bytes(), 12)
}
