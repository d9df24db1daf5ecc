package compiler

import (
	"github.com/anthropics/mscript/internal/ast"
	"github.com/anthropics/mscript/internal/opcode"
)

func (fe *funcEmitter) emitBlock(b *ast.BlockStmt) {
	for _, stmt := range b.Statements {
		fe.emitStmt(stmt)
	}
}

func (fe *funcEmitter) emitStmt(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.VariableDeclStmt:
		if s.Init == nil {
			return
		}
		fe.emitExpr(s.Init)
		size := s.Init.Base().ResultType.Size()
		fe.emit(opcode.LOCAL_STORE, s.Offset, size)
		fe.emit(opcode.POP, size, 0)

	case *ast.ExprStmt:
		fe.emitExpr(s.X)
		if s.X.Base().ResultType.Size() > 0 {
			fe.emit(opcode.POP, s.X.Base().ResultType.Size(), 0)
		}

	case *ast.ReturnStmt:
		if s.Value == nil {
			fe.emit(opcode.RETURN, 0, 0)
			return
		}
		fe.emitExpr(s.Value)
		fe.emit(opcode.RETURN, s.Value.Base().ResultType.Size(), 0)

	case *ast.IfStmt:
		fe.emitIf(s)

	case *ast.ForStmt:
		fe.emitFor(s)

	case *ast.BlockStmt:
		fe.emitBlock(s)
	}
}

// emitIf follows spec §4.6's emission rule verbatim: each branch is
// guarded by a fresh JF_LABEL, which skips to that branch's own end
// label when its condition is false; every branch (taken or not) ends
// with a JMP to the single shared final label, which is emitted once
// after all branches.
func (fe *funcEmitter) emitIf(s *ast.IfStmt) {
	final := fe.newLabel()
	for _, br := range s.Branches {
		if br.Cond == nil {
			fe.emitBlock(br.Body)
			fe.emit(opcode.JMP_LABEL, final, 0)
			continue
		}
		end := fe.newLabel()
		fe.emitExpr(br.Cond)
		fe.emit(opcode.JF_LABEL, end, 0)
		fe.emitBlock(br.Body)
		fe.emit(opcode.JMP_LABEL, final, 0)
		fe.emit(opcode.LABEL, end, 0)
	}
	fe.emit(opcode.LABEL, final, 0)
}

// emitFor lowers `for (init; cond; inc) body` into
// `init; cond_label: cond; JF end; body; inc; POP; JMP cond_label; end_label:`
// (spec §4.6). init's own trailing POP (an ExprStmt emits one, a
// VariableDeclStmt's LOCAL_STORE path already emits one) makes this
// consistent whether init declares a local or assigns an existing one.
func (fe *funcEmitter) emitFor(s *ast.ForStmt) {
	condLabel := fe.newLabel()
	end := fe.newLabel()

	if s.Init != nil {
		fe.emitStmt(s.Init)
	}
	fe.emit(opcode.LABEL, condLabel, 0)
	if s.Cond != nil {
		fe.emitExpr(s.Cond)
		fe.emit(opcode.JF_LABEL, end, 0)
	}
	fe.emitBlock(s.Body)
	if s.Inc != nil {
		fe.emitExpr(s.Inc)
		if s.Inc.Base().ResultType.Size() > 0 {
			fe.emit(opcode.POP, s.Inc.Base().ResultType.Size(), 0)
		}
	}
	fe.emit(opcode.JMP_LABEL, condLabel, 0)
	fe.emit(opcode.LABEL, end, 0)
}
