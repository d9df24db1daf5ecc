package checker

import (
	"github.com/anthropics/mscript/internal/ast"
	"github.com/anthropics/mscript/internal/diag"
	"github.com/anthropics/mscript/internal/types"
)

// CheckFunctionBody implements spec §4.8 stage 5 ("check every function
// body") for one function declaration: it opens the argument scope,
// declares each parameter, walks the body, and returns the frame size
// the compiler should reserve for it (spec §4.6's PUSH operand).
func (c *Checker) CheckFunctionBody(decl *ast.FunctionDeclStmt) (frameSize int, errDiag *diag.Diag) {
	ret, params, d := FunctionSignature(c.Reg, decl)
	if d != nil {
		return 0, d
	}

	c.Sym.PushFunctionScope()
	for i, p := range decl.Params {
		if _, err := c.Sym.AddLocal(p.Name, params[i]); err != nil {
			return 0, c.errNode("redeclaration", decl, "%s", err)
		}
	}

	returns, d := c.checkBlock(decl.Body, ret)
	if d != nil {
		return 0, d
	}
	if ret.Kind != types.Void && !returns {
		return 0, c.errNode("not-all-paths-return", decl, "function %q does not return a value on every path", decl.Name)
	}

	frameSize = c.Sym.FrameSize()
	c.Sym.PopBlock()
	return frameSize, nil
}

// checkBlock checks every statement in b in its own nested block scope
// and reports whether the block returns on every path (spec §4.5's
// "all paths return" completeness check). retType is the enclosing
// function's declared return type, needed to check ReturnStmt values.
func (c *Checker) checkBlock(b *ast.BlockStmt, retType *types.Type) (returns bool, errDiag *diag.Diag) {
	c.Sym.PushBlock()
	defer c.Sym.PopBlock()

	terminated := false
	for i, stmt := range b.Statements {
		if terminated {
			return true, c.errNode("unreachable-statement", stmt, "unreachable statement")
		}
		r, d := c.checkStmt(stmt, retType)
		if d != nil {
			return false, d
		}
		if r {
			terminated = true
		}
		_ = i
	}
	return terminated, nil
}

// checkStmt checks one statement and reports whether it unconditionally
// returns (so an enclosing block can propagate all-paths-return status).
func (c *Checker) checkStmt(stmt ast.Statement, retType *types.Type) (returns bool, errDiag *diag.Diag) {
	switch s := stmt.(type) {
	case *ast.VariableDeclStmt:
		typ, d := c.resolveTypeExpr(s.Type)
		if d != nil {
			return false, d
		}
		if s.Init != nil {
			init, d := c.checkExpr(s.Init, typ)
			if d != nil {
				return false, d
			}
			s.Init = init
		}
		sym, err := c.Sym.AddLocal(s.Name, typ)
		if err != nil {
			return false, c.errNode("redeclaration", s, "%s", err)
		}
		s.Offset = sym.Offset
		return false, nil

	case *ast.ExprStmt:
		x, d := c.checkExpr(s.X, nil)
		if d != nil {
			return false, d
		}
		s.X = x
		return false, nil

	case *ast.ReturnStmt:
		if s.Value == nil {
			if retType.Kind != types.Void {
				return false, c.errNode("cannot-cast", s, "function must return a value of type %s", retType)
			}
			return true, nil
		}
		if retType.Kind == types.Void {
			return false, c.errNode("cannot-cast", s, "void function must not return a value")
		}
		v, d := c.checkExpr(s.Value, retType)
		if d != nil {
			return false, d
		}
		s.Value = v
		return true, nil

	case *ast.IfStmt:
		return c.checkIf(s, retType)

	case *ast.ForStmt:
		return c.checkFor(s, retType)

	case *ast.BlockStmt:
		return c.checkBlock(s, retType)

	default:
		return false, c.errNode("undefined-symbol", stmt, "unsupported statement %T", stmt)
	}
}

func (c *Checker) checkIf(s *ast.IfStmt, retType *types.Type) (returns bool, errDiag *diag.Diag) {
	allReturn := true
	hasElse := false
	for i := range s.Branches {
		br := &s.Branches[i]
		if br.Cond != nil {
			cond, d := c.checkExpr(br.Cond, types.BoolType())
			if d != nil {
				return false, d
			}
			br.Cond = cond
		} else {
			hasElse = true
		}
		r, d := c.checkBlock(br.Body, retType)
		if d != nil {
			return false, d
		}
		if !r {
			allReturn = false
		}
	}
	return hasElse && allReturn, nil
}

func (c *Checker) checkFor(s *ast.ForStmt, retType *types.Type) (returns bool, errDiag *diag.Diag) {
	// The init/cond/inc clauses and the loop body share one scope, since
	// a `for (int i = 0; ...)` declares i in the loop's own block rather
	// than the enclosing one.
	c.Sym.PushBlock()
	defer c.Sym.PopBlock()

	if s.Init != nil {
		if _, d := c.checkStmt(s.Init, retType); d != nil {
			return false, d
		}
	}
	if s.Cond != nil {
		cond, d := c.checkExpr(s.Cond, types.BoolType())
		if d != nil {
			return false, d
		}
		s.Cond = cond
	}
	if s.Inc != nil {
		inc, d := c.checkExpr(s.Inc, nil)
		if d != nil {
			return false, d
		}
		s.Inc = inc
	}
	if _, d := c.checkBlock(s.Body, retType); d != nil {
		return false, d
	}
	// A for-loop's condition may never execute the body (or may execute
	// it an unbounded number of times), so it never counts as an
	// unconditional return on its own, regardless of what the body does.
	return false, nil
}

// AssignGlobals implements spec §4.8 stage 5's first half, "assign
// globals their storage offsets and fold their initializers": each
// global gets a 4/12/N-byte slot in declaration order, and constant
// initializers are folded into a types.Value the compiler inlines
// directly rather than emitting init code for.
func (c *Checker) AssignGlobals() *diag.Diag {
	offset := c.GlobalBase
	for _, g := range c.GlobalDecls {
		sym, ok := c.Sym.Get(g.Name)
		if !ok {
			return c.errNode("undefined-symbol", g, "internal error: global %q was not stubbed", g.Name)
		}
		sym.Offset = offset
		offset += sym.Type.Size()

		if g.Init != nil {
			init, d := c.checkExpr(g.Init, sym.Type)
			if d != nil {
				return d
			}
			g.Init = init
			if !init.Base().IsConst {
				return c.errNode("cannot-cast", g, "global initializer for %q must be a constant expression", g.Name)
			}
			sym.ConstVal = init.Base().ConstVal
		}
	}
	return nil
}
