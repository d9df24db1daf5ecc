package loader

import (
	"github.com/anthropics/mscript/internal/checker"
	"github.com/anthropics/mscript/internal/compiler"
	"github.com/anthropics/mscript/internal/diag"
	"github.com/anthropics/mscript/internal/link"
	"github.com/anthropics/mscript/internal/opcode"
	"github.com/anthropics/mscript/internal/symtab"
	"github.com/anthropics/mscript/internal/types"
	"github.com/anthropics/mscript/internal/vm"
)

// buildUnit runs stages 3-7 (spec §4.8) for u, first recursing into
// every file u imports (so their struct layouts, global offsets, and
// compiled functions are already final, per the ordering rationale in
// runtime.go's package comment). Safe to call more than once per unit;
// every later call is a no-op once u.state leaves stateParsed.
func buildUnit(u *unit, units map[string]*unit) {
	switch u.state {
	case stateDone, stateFailed:
		return
	case stateBuilding:
		u.fail(diag.New(diag.CategorySemantic, "import-failed", diag.Pos{File: u.name}, "import cycle involving %q", u.name))
		return
	}
	u.state = stateBuilding
	u.allArgs = make(map[string]int)

	for _, dep := range u.imports {
		depUnit := units[dep]
		buildUnit(depUnit, units)
		if depUnit.state == stateFailed {
			u.fail(diag.New(diag.CategorySemantic, "import-failed", diag.Pos{File: u.name}, "import %q failed to load", dep))
			return
		}
		copyExports(u, depUnit)
	}
	if u.state == stateFailed {
		return
	}

	u.chk.GlobalBase = len(u.globalsInit)

	// Stage 4: complete struct layouts (global types were already
	// resolved into the symbol table by Stub in stage 1; function
	// signatures are resolved as each body is checked in stage 5).
	if d := u.chk.ResolveStructs(); d != nil {
		u.fail(d)
		return
	}

	// Stage 5: assign this file's own globals their offsets (appended
	// after whatever it inherited) and fold their initializers, then
	// check every function body.
	if d := u.chk.AssignGlobals(); d != nil {
		u.fail(d)
		return
	}
	u.frameSize = make(map[string]int, len(u.chk.FuncDecls))
	for _, decl := range u.chk.FuncDecls {
		frameSize, d := u.chk.CheckFunctionBody(decl)
		if d != nil {
			u.fail(d)
			return
		}
		u.frameSize[decl.Name] = frameSize
	}

	for _, g := range u.chk.GlobalDecls {
		sym, _ := u.sym.Get(g.Name)
		placeGlobal(&u.globalsInit, sym)
	}

	// Stage 6: compile every function this file declares itself. A name
	// already present in allArgs was inherited from an import and, per
	// copyExports's own-declaration-wins rule, never reached the symbol
	// table as this file's own Function symbol — so this loop and stage
	// 3's copy never add the same name twice.
	comp := compiler.New(u.sym, u.reg)
	u.ownArgs = make(map[string]int, len(u.chk.FuncDecls))
	for _, decl := range u.chk.FuncDecls {
		instrs := comp.CompileFunction(decl, u.frameSize[decl.Name])
		fu := link.FuncUnit{Name: decl.Name, Instrs: instrs}
		u.ownFuncs = append(u.ownFuncs, fu)
		u.allFuncs = append(u.allFuncs, fu)
		_, params, _ := checker.FunctionSignature(u.reg, decl)
		size := checker.ParamsSize(params)
		u.ownArgs[decl.Name] = size
		u.allArgs[decl.Name] = size
	}

	// Stage 7: run the link pass once over this file's own functions plus
	// the full transitive closure of its imports' compiled functions
	// (already accumulated into allFuncs/allArgs by copyExports above).
	res, d := link.Link(u.name, u.allFuncs, u.allArgs)
	if d != nil {
		u.fail(d)
		return
	}

	u.program = assemble(u, res)
	u.state = stateDone
}

// placeGlobal writes one of this file's own folded global initializers
// into buf at the offset AssignGlobals gave it.
func placeGlobal(buf *[]byte, sym *symtab.Symbol) {
	b := sym.ConstVal.Bytes()
	need := sym.Offset + len(b)
	if need > len(*buf) {
		grown := make([]byte, need)
		copy(grown, *buf)
		*buf = grown
	}
	copy((*buf)[sym.Offset:], b)
}

// copyExports implements spec §4.8 stage 3 for one direct import: every
// type, function, constant, global, and native-function symbol dep
// declares (including whatever it itself inherited, transitively) is
// copied into u's own symbol table, type registry, and compiled-function
// set.
//
// dep's entire globals image (dep.globalsInit — already including
// whatever dep itself inherited) is appended to u's own, wholesale, at
// a fresh base offset (u.globalsInit's current length); this keeps two
// unrelated imports' globals from colliding at the same offset the way
// reusing dep's own local offsets verbatim would. Every inherited global
// symbol is re-added to u's table at base+its old offset, and every one
// of dep's compiled functions (dep.allFuncs, dep's own functions plus
// whatever it itself already rebased from its own imports) is copied
// into u with its GLOBAL_LOAD/GLOBAL_STORE operands shifted by the same
// base, so the merged bytecode keeps addressing the copy of dep's
// globals now sitting inside u at that base.
func copyExports(u *unit, dep *unit) {
	base := len(u.globalsInit)
	u.globalsInit = append(u.globalsInit, dep.globalsInit...)

	for name, t := range dep.reg.All() {
		if t.Kind != types.Struct && t.Kind != types.Enum {
			continue // builtins are already present in every registry
		}
		u.reg.Alias(name, t)
	}
	for name, sym := range dep.sym.All() {
		switch sym.Kind {
		case symtab.TypeSym:
			if _, exists := u.sym.GetType(name); !exists {
				u.sym.AddType(sym.TypeVal)
			}
		case symtab.Function:
			if _, exists := u.sym.Get(name); !exists {
				u.sym.AddFunction(name, sym.Decl)
			}
		case symtab.Const:
			if _, exists := u.sym.Get(name); !exists {
				u.sym.AddConst(name, sym.ConstVal)
			}
		case symtab.NativeFunction:
			if _, exists := u.sym.Get(name); !exists {
				u.sym.AddNativeFunction(sym.Native)
			}
		case symtab.GlobalVar:
			if _, exists := u.sym.Get(name); !exists {
				u.sym.AddGlobal(name, sym.Type, base+sym.Offset)
			}
		}
	}

	for _, fu := range dep.allFuncs {
		if _, exists := u.allArgs[fu.Name]; exists {
			continue // already reachable through an earlier import path
		}
		u.allFuncs = append(u.allFuncs, link.FuncUnit{Name: fu.Name, Instrs: rebaseGlobals(fu.Instrs, base)})
		u.allArgs[fu.Name] = dep.allArgs[fu.Name]
	}
}

// rebaseGlobals returns a copy of instrs with every GLOBAL_LOAD/
// GLOBAL_STORE's offset shifted by delta, leaving instrs itself (still
// owned by dep, and possibly shared with other importers at a different
// delta) untouched.
func rebaseGlobals(instrs []opcode.Instr, delta int) []opcode.Instr {
	if delta == 0 {
		return instrs
	}
	out := make([]opcode.Instr, len(instrs))
	copy(out, instrs)
	for i, in := range out {
		if in.Op == opcode.GLOBAL_LOAD || in.Op == opcode.GLOBAL_STORE {
			out[i].IntArg += delta
		}
	}
	return out
}

// assemble builds the VM-ready vm.Program from u's linked bytecode and
// its (own plus inherited) symbol table, matching spec §3's "Program"
// state: opcode vector, string pool, globals-section image, function
// table, native dispatch table.
func assemble(u *unit, res *link.Result) *vm.Program {
	funcs := make(map[string]vm.FuncInfo)
	natives := make(map[string]vm.Native)

	for name, sym := range u.sym.All() {
		switch sym.Kind {
		case symtab.Function:
			ret, params, d := checker.FunctionSignature(u.reg, sym.Decl)
			if d != nil {
				continue // unreachable: CheckFunctionBody already resolved every signature
			}
			addr, ok := res.FuncAddr[name]
			if !ok {
				continue // declared but never defined with a body reachable from here
			}
			funcs[name] = vm.FuncInfo{Addr: addr, ParamTypes: params, ReturnType: ret}
		case symtab.NativeFunction:
			nat := sym.Native
			var call vm.NativeCall
			if cb, ok := nat.Callable.(vm.NativeCall); ok {
				call = cb
			}
			natives[name] = vm.Native{ParamTypes: nat.Params, ReturnType: nat.ReturnType, Call: call}
		}
	}

	return &vm.Program{
		Instrs:      res.Instrs,
		Strings:     res.Strings,
		GlobalsInit: u.globalsInit,
		GlobalsSize: len(u.globalsInit),
		Funcs:       funcs,
		Natives:     natives,
		Registry:    u.reg,
	}
}
