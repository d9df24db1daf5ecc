package symtab

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anthropics/mscript/internal/types"
)

func TestArgumentOffsetsCountDownFromFrameHeader(t *testing.T) {
	tab := New()
	tab.PushFunctionScope()

	a, err := tab.AddLocal("a", types.IntType())
	require.NoError(t, err)
	require.Equal(t, -16, a.Offset)

	b, err := tab.AddLocal("b", types.IntType())
	require.NoError(t, err)
	require.Equal(t, -20, b.Offset)
}

func TestBodyLocalsCountUpFromZero(t *testing.T) {
	tab := New()
	tab.PushFunctionScope()
	_, err := tab.AddLocal("n", types.IntType())
	require.NoError(t, err)

	tab.PushBlock() // function body
	x, err := tab.AddLocal("x", types.IntType())
	require.NoError(t, err)
	require.Equal(t, 0, x.Offset)

	y, err := tab.AddLocal("y", types.FloatType())
	require.NoError(t, err)
	require.Equal(t, 4, y.Offset)
}

func TestSiblingBlocksReuseOffsetsAndPeakPropagates(t *testing.T) {
	tab := New()
	tab.PushFunctionScope()
	tab.PushBlock() // body

	tab.PushBlock() // if-branch
	_, err := tab.AddLocal("a", types.Vec3Type())
	require.NoError(t, err)
	tab.PopBlock()

	tab.PushBlock() // else-branch
	v, err := tab.AddLocal("b", types.IntType())
	require.NoError(t, err)
	require.Equal(t, 0, v.Offset) // reused the if-branch's starting slot
	tab.PopBlock()

	tab.PopBlock() // body
	require.Equal(t, 12, tab.FrameSize())
}

func TestRedeclarationInSameBlockErrors(t *testing.T) {
	tab := New()
	tab.PushFunctionScope()
	_, err := tab.AddLocal("n", types.IntType())
	require.NoError(t, err)
	_, err = tab.AddLocal("n", types.IntType())
	require.Error(t, err)
}

func TestGetResolvesInnermostBlockFirst(t *testing.T) {
	tab := New()
	_, err := tab.AddGlobal("g", types.IntType(), 0)
	require.NoError(t, err)

	tab.PushFunctionScope()
	tab.PushBlock()
	_, err = tab.AddLocal("g", types.FloatType())
	require.NoError(t, err)

	sym, ok := tab.Get("g")
	require.True(t, ok)
	require.Equal(t, LocalVar, sym.Kind)

	tab.PopBlock()
	tab.PopBlock()
	sym, ok = tab.Get("g")
	require.True(t, ok)
	require.Equal(t, GlobalVar, sym.Kind)
}

func TestGlobalRedeclarationAcrossKindsErrors(t *testing.T) {
	tab := New()
	_, err := tab.AddConst("PI", types.FloatValue(3.14159))
	require.NoError(t, err)
	_, err = tab.AddGlobal("PI", types.IntType(), 0)
	require.Error(t, err)
}

func TestAddTypeAndGetType(t *testing.T) {
	tab := New()
	r := types.NewRegistry()
	st := r.DefineStruct("Vec2i")
	_, err := tab.AddType(st)
	require.NoError(t, err)

	got, ok := tab.GetType("Vec2i")
	require.True(t, ok)
	require.Same(t, st, got)

	_, ok = tab.GetType("Nope")
	require.False(t, ok)
}
