package checker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anthropics/mscript/internal/parser"
	"github.com/anthropics/mscript/internal/symtab"
	"github.com/anthropics/mscript/internal/types"
)

// newChecker parses src and runs Stub, mirroring loader stage 1, so each
// test only has to exercise the pass it's actually about.
func newChecker(t *testing.T, src string) *Checker {
	t.Helper()
	f, d := parser.Parse("t.mscript", []byte(src))
	require.Nil(t, d)

	reg := types.NewRegistry()
	sym := symtab.New()
	c := New("t.mscript", sym, reg)
	require.Nil(t, c.Stub(f))
	return c
}

func TestCheckFunctionBodySimpleAddition(t *testing.T) {
	c := newChecker(t, `int add(int a, int b) { return a + b; }`)
	require.Len(t, c.FuncDecls, 1)

	frameSize, d := c.CheckFunctionBody(c.FuncDecls[0])
	require.Nil(t, d)
	require.Equal(t, 0, frameSize) // no locals beyond the argument block
}

func TestCheckFunctionBodyMissingReturnErrors(t *testing.T) {
	c := newChecker(t, `int f(int n) { if (n > 0) { return n; } }`)
	_, d := c.CheckFunctionBody(c.FuncDecls[0])
	require.NotNil(t, d)
	require.Equal(t, "not-all-paths-return", string(d.Kind))
}

func TestCheckFunctionBodyAllBranchesReturnOK(t *testing.T) {
	c := newChecker(t, `int f(int n) { if (n > 0) { return 1; } else { return 0; } }`)
	_, d := c.CheckFunctionBody(c.FuncDecls[0])
	require.Nil(t, d)
}

func TestStubDuplicateFunctionErrors(t *testing.T) {
	f, d := parser.Parse("t.mscript", []byte(`
int f() { return 0; }
int f() { return 1; }
`))
	require.Nil(t, d)
	reg := types.NewRegistry()
	sym := symtab.New()
	c := New("t.mscript", sym, reg)
	d = c.Stub(f)
	require.NotNil(t, d)
	require.Equal(t, "redeclaration", string(d.Kind))
}

func TestAssignGlobalsFoldsConstantInitializer(t *testing.T) {
	c := newChecker(t, `int counter = 1 + 2 * 3;`)
	require.Nil(t, c.AssignGlobals())

	sym, ok := c.Sym.Get("counter")
	require.True(t, ok)
	require.Equal(t, 0, sym.Offset)
	require.Equal(t, int32(7), sym.ConstVal.IntVal)
}

func TestAssignGlobalsStartsAtGlobalBase(t *testing.T) {
	c := newChecker(t, `int x = 5;`)
	c.GlobalBase = 12 // as if 12 bytes of globals were inherited from an import
	require.Nil(t, c.AssignGlobals())

	sym, ok := c.Sym.Get("x")
	require.True(t, ok)
	require.Equal(t, 12, sym.Offset)
}

func TestResolveStructsLaysOutMembersInOrder(t *testing.T) {
	c := newChecker(t, `struct Point { int x; float y; }`)
	require.Nil(t, c.ResolveStructs())

	typ, ok := c.Reg.Lookup("Point")
	require.True(t, ok)
	require.Equal(t, 8, typ.Size())
	x, ok := typ.StructDef.Member("x")
	require.True(t, ok)
	require.Equal(t, 0, x.Offset)
	y, ok := typ.StructDef.Member("y")
	require.True(t, ok)
	require.Equal(t, 4, y.Offset)
}

func TestResolveStructsDetectsDirectRecursion(t *testing.T) {
	c := newChecker(t, `struct Node { Node next; }`)
	d := c.ResolveStructs()
	require.NotNil(t, d)
	require.Equal(t, "recursive-struct", string(d.Kind))
}

func TestResolveStructsArrayMemberBreaksRecursion(t *testing.T) {
	// A self-referential array member (the usual tree/list shape) must not
	// trip the cycle check: arrays are handles, not by-value containment.
	c := newChecker(t, `struct Node { int val; Node[] children; }`)
	require.Nil(t, c.ResolveStructs())

	typ, ok := c.Reg.Lookup("Node")
	require.True(t, ok)
	require.Equal(t, 8, typ.Size()) // int (4) + array handle (4)
}

func TestEnumValuesAreSequentialConstants(t *testing.T) {
	c := newChecker(t, `enum Color { Red, Green, Blue }`)
	green, ok := c.Sym.Get("Green")
	require.True(t, ok)
	require.Equal(t, symtab.Const, green.Kind)
	require.Equal(t, int32(1), green.ConstVal.IntVal)
}
