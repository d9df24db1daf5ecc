// Package link implements mscript's link pass (spec §4.7): it
// concatenates every function's intermediate opcode stream into one
// program-wide vector, resolves per-function labels to absolute
// instruction indices, interns string literals into a byte pool, and
// rewrites CALL_BY_NAME into CALL once every function's address is
// known. Structurally this plays the same role as the teacher's
// dependency_graph.go (a post-hoc resolution pass over something that
// was built with forward references still unresolved), repurposed from
// import/symbol reachability to label/call-target resolution.
package link

import (
	"fmt"

	"github.com/anthropics/mscript/internal/diag"
	"github.com/anthropics/mscript/internal/opcode"
)

// FuncUnit is one function's freshly compiled intermediate opcode
// stream (spec §4.6's output), beginning with a FUNC instruction.
type FuncUnit struct {
	Name   string
	Instrs []opcode.Instr
}

// Result is one program's fully linked bytecode (spec §4.7's output:
// "no intermediate opcode remains").
type Result struct {
	Instrs   []opcode.Instr
	Strings  []byte
	FuncAddr map[string]int
}

// Link runs the link pass over every function body compiled for one
// program. argsSize maps a script-defined function's name to its
// parameters' total byte size (spec §4.6's args_size operand), used to
// fill in CALL's second operand once CALL_BY_NAME is rewritten.
func Link(file string, units []FuncUnit, argsSize map[string]int) (*Result, *diag.Diag) {
	res := &Result{FuncAddr: make(map[string]int, len(units))}

	for _, u := range units {
		// Pass 1 (spec §4.7 step 1): scan this function once to map its
		// label ids to absolute output indices. LABEL and FUNC never
		// themselves occupy a slot in the output, so an instruction's
		// absolute address is simply the running output length at the
		// point it would be emitted.
		base := len(res.Instrs)
		labelAddr := make(map[int]int)
		outCount := 0
		for _, ins := range u.Instrs {
			switch ins.Op {
			case opcode.FUNC:
				// handled below via res.FuncAddr[u.Name] = base
			case opcode.LABEL:
				labelAddr[ins.IntArg] = base + outCount
			default:
				outCount++
			}
		}
		// Step 2: the function's entry point is the first real opcode
		// after FUNC, i.e. exactly where the next emitted instruction
		// (the PUSH frameSize compiler.CompileFunction always emits
		// first) will land.
		res.FuncAddr[u.Name] = base

		// Step 3: emit every non-intermediate opcode verbatim, resolving
		// JMP_LABEL/JF_LABEL against labelAddr and interning
		// STRING_LITERAL text into the program's string pool.
		for _, ins := range u.Instrs {
			switch ins.Op {
			case opcode.FUNC, opcode.LABEL:
				continue
			case opcode.JMP_LABEL:
				res.Instrs = append(res.Instrs, opcode.Instr{Op: opcode.JMP, IntArg: labelAddr[ins.IntArg]})
			case opcode.JF_LABEL:
				res.Instrs = append(res.Instrs, opcode.Instr{Op: opcode.JF, IntArg: labelAddr[ins.IntArg]})
			case opcode.STRING_LITERAL:
				off := len(res.Strings)
				res.Strings = append(res.Strings, []byte(ins.Name)...)
				res.Strings = append(res.Strings, 0)
				res.Instrs = append(res.Instrs, opcode.Instr{Op: opcode.INT, IntArg: off})
			default:
				res.Instrs = append(res.Instrs, ins)
			}
		}
	}

	// Step 4: second pass over the fully emitted vector, rewriting
	// CALL_BY_NAME into CALL now that every function's address is known.
	for i, ins := range res.Instrs {
		if ins.Op != opcode.CALL_BY_NAME {
			continue
		}
		addr, ok := res.FuncAddr[ins.Name]
		if !ok {
			return nil, diag.New(diag.CategoryLink, "unresolved-function", diag.Pos{File: file},
				"call to undefined function %q", ins.Name)
		}
		size := argsSize[ins.Name]
		res.Instrs[i] = opcode.Instr{Op: opcode.CALL, IntArg: addr, Arg2: size}
	}

	if err := checkFullyLinked(res.Instrs); err != nil {
		return nil, diag.New(diag.CategoryLink, "unresolved-function", diag.Pos{File: file}, "%s", err)
	}
	return res, nil
}

// checkFullyLinked enforces spec §8 invariant 4 ("after the link pass,
// no intermediate opcode remains in the program's opcode vector").
func checkFullyLinked(instrs []opcode.Instr) error {
	for _, ins := range instrs {
		if ins.Op.IsIntermediate() {
			return fmt.Errorf("internal error: intermediate opcode %s survived linking", ins.Op)
		}
	}
	return nil
}
