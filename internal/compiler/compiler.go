// Package compiler emits mscript's intermediate bytecode (spec §4.6): one
// opcode vector per function, using labels and symbolic call targets that
// the link pass (package link) resolves into an absolute, runnable
// program. Structurally this keeps the teacher's per-function emitter
// shape from codegen.go (one compiler value threading emission state
// through a tree walk) while replacing x86_64 assembly text emission
// with opcode.Instr values for mscript's stack machine.
package compiler

import (
	"github.com/anthropics/mscript/internal/ast"
	"github.com/anthropics/mscript/internal/checker"
	"github.com/anthropics/mscript/internal/opcode"
	"github.com/anthropics/mscript/internal/symtab"
	"github.com/anthropics/mscript/internal/types"
)

// Compiler emits intermediate bytecode for every function in one
// program, sharing the symbol table and type registry the checker
// already populated.
type Compiler struct {
	Sym *symtab.Table
	Reg *types.Registry
}

func New(sym *symtab.Table, reg *types.Registry) *Compiler {
	return &Compiler{Sym: sym, Reg: reg}
}

// CompileFunction emits decl's body as intermediate opcodes (spec §4.6,
// "Emission rules"). frameSize is the peak local-variable footprint
// symtab.Table.FrameSize computed while checking decl's body.
func (c *Compiler) CompileFunction(decl *ast.FunctionDeclStmt, frameSize int) []opcode.Instr {
	ret, _, _ := checker.FunctionSignature(c.Reg, decl)

	fe := &funcEmitter{c: c}
	fe.emitName(opcode.FUNC, decl.Name, 0)
	fe.emit(opcode.PUSH, frameSize, 0)

	fe.emitBlock(decl.Body)

	if ret.Kind == types.Void {
		fe.emit(opcode.POP, frameSize, 0)
		fe.emit(opcode.RETURN, 0, 0)
	}
	return fe.instrs
}

// funcEmitter accumulates one function's intermediate opcode vector and
// owns that function's private label counter (spec §9, "implement as a
// per-function table built in a single forward scan" — label ids only
// need to be unique within a function, so each function restarts at 0).
type funcEmitter struct {
	c      *Compiler
	instrs []opcode.Instr
	labels int
}

func (fe *funcEmitter) emit(op opcode.Op, intArg, arg2 int) {
	fe.instrs = append(fe.instrs, opcode.Instr{Op: op, IntArg: intArg, Arg2: arg2})
}

func (fe *funcEmitter) emitFloat(op opcode.Op, f float32) {
	fe.instrs = append(fe.instrs, opcode.Instr{Op: op, Float: f})
}

func (fe *funcEmitter) emitName(op opcode.Op, name string, intArg int) {
	fe.instrs = append(fe.instrs, opcode.Instr{Op: op, Name: name, IntArg: intArg})
}

func (fe *funcEmitter) newLabel() int {
	id := fe.labels
	fe.labels++
	return id
}
