// Package checker implements mscript's type checker / semantic analyzer
// (spec §4.5): per-function symbol resolution, implicit-cast insertion,
// constant folding, l-value computation, and control-flow-return
// completeness checking. It also carries the file-level passes spec §4.8
// assigns to loader stages 1 and 4 (stubbing top-level declarations and
// completing struct layouts), since both read and write the same
// symtab.Table/types.Registry pair the per-function walk uses.
package checker

import (
	"github.com/anthropics/mscript/internal/ast"
	"github.com/anthropics/mscript/internal/diag"
	"github.com/anthropics/mscript/internal/symtab"
	"github.com/anthropics/mscript/internal/token"
	"github.com/anthropics/mscript/internal/types"
)

// Checker holds the per-file bookkeeping shared across the stub, struct-
// layout, signature-resolution, and body-check passes (spec §4.5's five
// numbered steps).
type Checker struct {
	File  string
	Sym   *symtab.Table
	Reg   *types.Registry
	Arena *ast.Arena

	// GlobalBase is the starting byte offset AssignGlobals hands out from,
	// left at zero for an ordinary file. internal/loader sets it to the
	// byte length of whatever globals a file inherited from its imports
	// (spec §4.8 stage 3), so a file's own globals are appended after the
	// imported ones rather than colliding with their offsets.
	GlobalBase int

	structDecls map[string]*ast.StructDeclStmt
	FuncDecls   []*ast.FunctionDeclStmt
	GlobalDecls []*ast.GlobalDeclStmt
}

func New(file string, sym *symtab.Table, reg *types.Registry) *Checker {
	return &Checker{File: file, Sym: sym, Reg: reg, structDecls: make(map[string]*ast.StructDeclStmt)}
}

func (c *Checker) posOf(t token.Token) diag.Pos {
	return diag.Pos{File: c.File, Line: t.Line, Column: t.Column}
}

func (c *Checker) errAt(kind diag.Kind, t token.Token, format string, args ...any) *diag.Diag {
	return diag.New(diag.CategorySemantic, kind, c.posOf(t), format, args...)
}

func (c *Checker) errNode(kind diag.Kind, n ast.Node, format string, args ...any) *diag.Diag {
	return c.errAt(kind, n.Tok(), format, args...)
}

// resolveTypeExpr resolves a parsed *ast.TypeExpr (a builtin keyword or a
// struct/enum name, optionally array-suffixed) against the registry.
// "char*" and "vec3" have no case of their own: they resolve through the
// registry's builtin entries in the default branch.
func (c *Checker) resolveTypeExpr(te *ast.TypeExpr) (*types.Type, *diag.Diag) {
	var base *types.Type
	switch te.Name {
	case "void":
		base = types.VoidType()
	case "void*":
		base = types.VoidPtrType()
	case "int":
		base = types.IntType()
	case "float":
		base = types.FloatType()
	case "bool":
		base = types.BoolType()
	default:
		t, ok := c.Reg.Lookup(te.Name)
		if !ok {
			return nil, c.errAt("undefined-type", te.Token, "undefined type %q", te.Name)
		}
		base = t
	}
	if te.IsArray {
		return c.Reg.ArrayOf(base), nil
	}
	return base, nil
}

// Stub implements spec §4.8 stage 1's "stub enums/structs/globals/
// functions into the symbol table": every top-level declaration is
// forward-declared so later statements (and other passes) can reference
// any symbol regardless of its position in the file.
func (c *Checker) Stub(f *ast.File) *diag.Diag {
	c.Arena = f.Arena
	for _, stmt := range f.Statements {
		switch s := stmt.(type) {
		case *ast.StructDeclStmt:
			if _, ok := c.Reg.Lookup(s.Name); ok {
				return c.errNode("redeclaration", s, "redeclaration of type %q", s.Name)
			}
			c.structDecls[s.Name] = s
			t := c.Reg.DefineStruct(s.Name)
			if _, err := c.Sym.AddType(t); err != nil {
				return c.errNode("redeclaration", s, "%s", err)
			}

		case *ast.EnumDeclStmt:
			if _, ok := c.Reg.Lookup(s.Name); ok {
				return c.errNode("redeclaration", s, "redeclaration of type %q", s.Name)
			}
			t := c.Reg.DefineEnum(s.Name, s.Values)
			if _, err := c.Sym.AddType(t); err != nil {
				return c.errNode("redeclaration", s, "%s", err)
			}
			for i, v := range s.Values {
				if _, err := c.Sym.AddConst(v, types.Value{Type: t, IntVal: int32(i)}); err != nil {
					return c.errNode("redeclaration", s, "%s", err)
				}
			}

		case *ast.GlobalDeclStmt:
			c.GlobalDecls = append(c.GlobalDecls, s)
			typ, d := c.resolveTypeExpr(s.Type)
			if d != nil {
				return d
			}
			if _, err := c.Sym.AddGlobal(s.Name, typ, 0); err != nil {
				return c.errNode("redeclaration", s, "%s", err)
			}

		case *ast.FunctionDeclStmt:
			c.FuncDecls = append(c.FuncDecls, s)
			if _, err := c.Sym.AddFunction(s.Name, s); err != nil {
				return c.errNode("redeclaration", s, "%s", err)
			}

		case *ast.ImportFunctionStmt:
			ret, d := c.resolveTypeExpr(s.ReturnType)
			if d != nil {
				return d
			}
			params := make([]*types.Type, len(s.Params))
			for i, p := range s.Params {
				pt, d := c.resolveTypeExpr(p.Type)
				if d != nil {
					return d
				}
				params[i] = pt
			}
			nf := &symtab.NativeFunc{Name: s.Name, ReturnType: ret, Params: params}
			if _, err := c.Sym.AddNativeFunction(nf); err != nil {
				return c.errNode("redeclaration", s, "%s", err)
			}

		case *ast.ImportStmt:
			// Resolved by the loader (spec §4.8 stage 2); nothing to stub.
		}
	}
	return nil
}

// ResolveStructs implements spec §4.8 stage 4's "complete struct
// layouts, detect recursion" for every struct declared in this file.
func (c *Checker) ResolveStructs() *diag.Diag {
	for name := range c.structDecls {
		if d := c.resolveStructLayout(name); d != nil {
			return d
		}
	}
	return nil
}

// resolveStructLayout lays out one struct's members, recursing only
// through direct by-value struct containment: arrays and void* break the
// cycle (spec §3, "recursion state flag ... arrays and void* break
// cycles; struct-in-struct does not"), so a self-referential `T[]`
// member (e.g. a tree/list node) never recurses here at all.
func (c *Checker) resolveStructLayout(name string) *diag.Diag {
	t, ok := c.Reg.Lookup(name)
	if !ok {
		return nil // referenced only via array/pointer from another file; resolved there
	}
	sd := t.StructDef
	if sd == nil {
		return nil
	}
	switch sd.State {
	case types.Done:
		return nil
	case types.InProgress:
		decl := c.structDecls[name]
		if decl != nil {
			return c.errNode("recursive-struct", decl, "struct %q recursively contains itself by value", name)
		}
		return diag.New(diag.CategorySemantic, "recursive-struct", diag.Pos{File: c.File}, "struct %q recursively contains itself by value", name)
	}

	decl, ok := c.structDecls[name]
	if !ok {
		sd.State = types.Done
		return nil
	}

	sd.State = types.InProgress
	offset := 0
	for _, m := range decl.Members {
		mt, d := c.resolveTypeExpr(m.Type)
		if d != nil {
			return d
		}
		if mt.Kind == types.Struct {
			if d := c.resolveStructLayout(mt.Name); d != nil {
				return d
			}
		}
		sd.Members = append(sd.Members, types.Member{Name: m.Name, Type: mt, Offset: offset})
		offset += mt.Size()
	}
	sd.State = types.Done
	return nil
}

// FunctionSignature resolves a function declaration's return and
// parameter types against reg. It is exported so the compiler and link
// pass (which need argument sizes for CALL/CALL_BY_NAME) and importing
// files (which re-resolve an imported function's signature against
// their own, alias-sharing registry) can call it without depending on
// package checker's other, file-local state.
func FunctionSignature(reg *types.Registry, decl *ast.FunctionDeclStmt) (ret *types.Type, params []*types.Type, errDiag *diag.Diag) {
	c := &Checker{Reg: reg}
	ret, errDiag = c.resolveTypeExpr(decl.ReturnType)
	if errDiag != nil {
		return nil, nil, errDiag
	}
	params = make([]*types.Type, len(decl.Params))
	for i, p := range decl.Params {
		pt, d := c.resolveTypeExpr(p.Type)
		if d != nil {
			return nil, nil, d
		}
		params[i] = pt
	}
	return ret, params, nil
}

// ParamsSize returns the summed byte size of a parameter-type list, the
// `args_size` operand CALL/CALL_BY_NAME/C_CALL carry (spec §4.6, §4.7).
func ParamsSize(params []*types.Type) int {
	n := 0
	for _, p := range params {
		n += p.Size()
	}
	return n
}
