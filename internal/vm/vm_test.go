package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anthropics/mscript/internal/link"
	"github.com/anthropics/mscript/internal/opcode"
	"github.com/anthropics/mscript/internal/types"
)

// buildAndLink hand-assembles the intermediate opcode stream
// compiler.CompileFunction would emit for the given units and runs it
// through the real link pass, so these tests exercise the VM against
// actually-linked bytecode rather than a hand-resolved program.
func buildAndLink(t *testing.T, units []link.FuncUnit, argsSize map[string]int) *link.Result {
	t.Helper()
	res, d := link.Link("t.mscript", units, argsSize)
	require.Nil(t, d)
	return res
}

// TestIntAddition mirrors spec §8's int_addition(7, 15) == 22 scenario:
//
//	int add(int a, int b) { return a + b; }
func TestIntAddition(t *testing.T) {
	units := []link.FuncUnit{{Name: "add", Instrs: []opcode.Instr{
		{Op: opcode.FUNC, Name: "add"},
		{Op: opcode.PUSH, IntArg: 0},
		{Op: opcode.LOCAL_LOAD, IntArg: -16, Arg2: 4},
		{Op: opcode.LOCAL_LOAD, IntArg: -20, Arg2: 4},
		{Op: opcode.IADD},
		{Op: opcode.RETURN, IntArg: 4},
	}}}
	res := buildAndLink(t, units, map[string]int{"add": 8})

	prog := &Program{
		Instrs: res.Instrs,
		Funcs: map[string]FuncInfo{
			"add": {Addr: res.FuncAddr["add"], ParamTypes: []*types.Type{types.IntType(), types.IntType()}, ReturnType: types.IntType()},
		},
	}
	m := New(prog, Options{})
	ret, err := m.Run("add", []types.Value{types.IntValue(7), types.IntValue(15)})
	require.NoError(t, err)
	require.Equal(t, int32(22), ret.IntVal)
}

// TestFibRecursion mirrors spec §8's fib(10) == 55 scenario:
//
//	int fib(int n) { if (n < 2) return n; return fib(n-1) + fib(n-2); }
func TestFibRecursion(t *testing.T) {
	// label 0 = else-skip target (shared "final" label of the if), since
	// the if has no else branch here: JF jumps past the then-branch.
	units := []link.FuncUnit{{Name: "fib", Instrs: []opcode.Instr{
		{Op: opcode.FUNC, Name: "fib"},
		{Op: opcode.PUSH, IntArg: 0},
		// if (n < 2) return n;
		{Op: opcode.LOCAL_LOAD, IntArg: -16, Arg2: 4},
		{Op: opcode.INT, IntArg: 2},
		{Op: opcode.ILT},
		{Op: opcode.JF_LABEL, IntArg: 0},
		{Op: opcode.LOCAL_LOAD, IntArg: -16, Arg2: 4},
		{Op: opcode.RETURN, IntArg: 4},
		{Op: opcode.JMP_LABEL, IntArg: 0},
		{Op: opcode.LABEL, IntArg: 0},
		// return fib(n-1) + fib(n-2);
		{Op: opcode.LOCAL_LOAD, IntArg: -16, Arg2: 4},
		{Op: opcode.INT, IntArg: 1},
		{Op: opcode.ISUB},
		{Op: opcode.CALL_BY_NAME, Name: "fib"},
		{Op: opcode.LOCAL_LOAD, IntArg: -16, Arg2: 4},
		{Op: opcode.INT, IntArg: 2},
		{Op: opcode.ISUB},
		{Op: opcode.CALL_BY_NAME, Name: "fib"},
		{Op: opcode.IADD},
		{Op: opcode.RETURN, IntArg: 4},
	}}}
	res := buildAndLink(t, units, map[string]int{"fib": 4})

	prog := &Program{
		Instrs: res.Instrs,
		Funcs: map[string]FuncInfo{
			"fib": {Addr: res.FuncAddr["fib"], ParamTypes: []*types.Type{types.IntType()}, ReturnType: types.IntType()},
		},
	}
	m := New(prog, Options{})
	ret, err := m.Run("fib", []types.Value{types.IntValue(10)})
	require.NoError(t, err)
	require.Equal(t, int32(55), ret.IntVal)
}

// TestVec3Scale mirrors spec §8's vec3_scale(<7,15,23>, 5.0) ==
// <35,75,115>, confirming V3SCALE's operand order (scalar on top).
func TestVec3Scale(t *testing.T) {
	units := []link.FuncUnit{{Name: "scale", Instrs: []opcode.Instr{
		{Op: opcode.FUNC, Name: "scale"},
		{Op: opcode.PUSH, IntArg: 0},
		{Op: opcode.LOCAL_LOAD, IntArg: -24, Arg2: 12}, // vec3 v
		{Op: opcode.LOCAL_LOAD, IntArg: -28, Arg2: 4},  // float s
		{Op: opcode.V3SCALE},
		{Op: opcode.RETURN, IntArg: 12},
	}}}
	res := buildAndLink(t, units, map[string]int{"scale": 16})

	prog := &Program{
		Instrs: res.Instrs,
		Funcs: map[string]FuncInfo{
			"scale": {Addr: res.FuncAddr["scale"], ParamTypes: []*types.Type{types.Vec3Type(), types.FloatType()}, ReturnType: types.Vec3Type()},
		},
	}
	m := New(prog, Options{})
	ret, err := m.Run("scale", []types.Value{types.Vec3Value(7, 15, 23), types.FloatValue(5)})
	require.NoError(t, err)
	require.Equal(t, [3]float32{35, 75, 115}, ret.Vec3Val)
}

// TestArrayCreateStoreLoad exercises ARRAY_CREATE/ARRAY_STORE/ARRAY_LOAD
// the way emitArrayLiteral and emitArrayAccess sequence them, mirroring
// spec §8's array_1(10) == 10 scenario (int[] a = [0..9]; return a[9];).
func TestArrayCreateStoreLoad(t *testing.T) {
	units := []link.FuncUnit{{Name: "arr", Instrs: []opcode.Instr{
		{Op: opcode.FUNC, Name: "arr"},
		{Op: opcode.PUSH, IntArg: 4}, // one local: int[] a at offset 0
		{Op: opcode.ARRAY_CREATE, IntArg: 4},
		{Op: opcode.LOCAL_STORE, IntArg: 0, Arg2: 4},
		{Op: opcode.POP, IntArg: 4},
		// a[9] = 99;
		{Op: opcode.INT, IntArg: 99},
		{Op: opcode.LOCAL_LOAD, IntArg: 0, Arg2: 4},
		{Op: opcode.INT, IntArg: 9},
		{Op: opcode.INT, IntArg: 4},
		{Op: opcode.IMUL},
		{Op: opcode.ARRAY_STORE, IntArg: 4},
		{Op: opcode.POP, IntArg: 4},
		// return a[9];
		{Op: opcode.LOCAL_LOAD, IntArg: 0, Arg2: 4},
		{Op: opcode.INT, IntArg: 9},
		{Op: opcode.INT, IntArg: 4},
		{Op: opcode.IMUL},
		{Op: opcode.ARRAY_LOAD, IntArg: 4},
		{Op: opcode.RETURN, IntArg: 4},
	}}}
	res := buildAndLink(t, units, map[string]int{"arr": 0})

	prog := &Program{
		Instrs: res.Instrs,
		Funcs: map[string]FuncInfo{
			"arr": {Addr: res.FuncAddr["arr"], ParamTypes: nil, ReturnType: types.IntType()},
		},
	}
	m := New(prog, Options{})
	ret, err := m.Run("arr", nil)
	require.NoError(t, err)
	require.Equal(t, int32(99), ret.IntVal)
}

func TestNullArrayHandleTraps(t *testing.T) {
	units := []link.FuncUnit{{Name: "bad", Instrs: []opcode.Instr{
		{Op: opcode.FUNC, Name: "bad"},
		{Op: opcode.PUSH, IntArg: 0},
		{Op: opcode.LOCAL_LOAD, IntArg: -16, Arg2: 4},
		{Op: opcode.ARRAY_LENGTH},
		{Op: opcode.RETURN, IntArg: 4},
	}}}
	res := buildAndLink(t, units, map[string]int{"bad": 4})

	prog := &Program{
		Instrs: res.Instrs,
		Funcs: map[string]FuncInfo{
			"bad": {Addr: res.FuncAddr["bad"], ParamTypes: []*types.Type{types.IntType()}, ReturnType: types.IntType()},
		},
	}
	m := New(prog, Options{})
	_, err := m.Run("bad", []types.Value{types.IntValue(0)})
	require.Error(t, err)
}
