package link

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anthropics/mscript/internal/opcode"
)

// TestLinkResolvesLabelsAndCalls links two hand-built FuncUnits standing
// in for compiler.CompileFunction output: "helper", which returns 42, and
// "caller", which exercises a STRING_LITERAL, a CALL_BY_NAME to helper,
// and forward JF_LABEL/JMP_LABEL jumps.
func TestLinkResolvesLabelsAndCalls(t *testing.T) {
	units := []FuncUnit{
		{Name: "helper", Instrs: []opcode.Instr{
			{Op: opcode.FUNC, Name: "helper"},
			{Op: opcode.PUSH, IntArg: 0},
			{Op: opcode.INT, IntArg: 42},
			{Op: opcode.RETURN, IntArg: 4},
		}},
		{Name: "caller", Instrs: []opcode.Instr{
			{Op: opcode.FUNC, Name: "caller"},
			{Op: opcode.PUSH, IntArg: 4},
			{Op: opcode.STRING_LITERAL, Name: "hi"},
			{Op: opcode.CALL_BY_NAME, Name: "helper"},
			{Op: opcode.JF_LABEL, IntArg: 0},
			{Op: opcode.JMP_LABEL, IntArg: 1},
			{Op: opcode.LABEL, IntArg: 0},
			{Op: opcode.LABEL, IntArg: 1},
			{Op: opcode.RETURN, IntArg: 0},
		}},
	}

	res, d := Link("t.mscript", units, map[string]int{"helper": 0, "caller": 0})
	require.Nil(t, d)

	require.Equal(t, 0, res.FuncAddr["helper"])
	require.Equal(t, 3, res.FuncAddr["caller"])

	for _, ins := range res.Instrs {
		require.False(t, ins.Op.IsIntermediate(), "instruction %s should have been resolved", ins.Op)
	}

	// The STRING_LITERAL became INT 0 into a freshly interned pool.
	require.Equal(t, opcode.INT, res.Instrs[4].Op)
	require.Equal(t, 0, res.Instrs[4].IntArg)
	require.Equal(t, "hi\x00", string(res.Strings))

	// CALL_BY_NAME resolved to CALL at helper's address with its args size.
	require.Equal(t, opcode.CALL, res.Instrs[5].Op)
	require.Equal(t, res.FuncAddr["helper"], res.Instrs[5].IntArg)

	// Both labels resolved to the same address, immediately after JMP.
	jf := res.Instrs[6]
	jmp := res.Instrs[7]
	require.Equal(t, opcode.JF, jf.Op)
	require.Equal(t, opcode.JMP, jmp.Op)
	require.Equal(t, jf.IntArg, jmp.IntArg)
}

func TestLinkReportsUnresolvedCall(t *testing.T) {
	units := []FuncUnit{
		{Name: "caller", Instrs: []opcode.Instr{
			{Op: opcode.FUNC, Name: "caller"},
			{Op: opcode.PUSH, IntArg: 0},
			{Op: opcode.CALL_BY_NAME, Name: "missing"},
			{Op: opcode.RETURN, IntArg: 0},
		}},
	}
	_, d := Link("t.mscript", units, nil)
	require.NotNil(t, d)
	require.EqualValues(t, "unresolved-function", d.Kind)
}
