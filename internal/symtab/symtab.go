// Package symtab implements mscript's two-level symbol table: a
// process-wide global namespace (types, functions, native functions,
// constants, globals) plus a stack of lexical blocks for the locals of
// the function currently being checked (spec §4.4).
//
// Frame layout and the block-size bookkeeping below are grounded on
// original_source's _ms_symbol_table_push_block/_add_local_var/
// _pop_block: the outermost block starts at offset 12 (the call
// frame's saved_fp/saved_ip/saved_sp header the VM leaves below the
// frame pointer, spec §4.9) and assigns arguments *negative* offsets
// counting down from there; every other block assigns non-negative
// offsets counting up, inheriting its starting point from the block
// it nests inside so that sibling blocks (an if branch and its else)
// can reuse the same stack slots.
package symtab

import (
	"fmt"

	"github.com/anthropics/mscript/internal/ast"
	"github.com/anthropics/mscript/internal/types"
)

// frameHeaderSize is the byte size of the call frame header the VM
// pushes below the frame pointer (saved_fp, saved_ip, saved_sp; spec
// §4.9), and thus the starting "size" of a function's outermost block.
const frameHeaderSize = 12

// Kind discriminates what a Symbol names.
type Kind int

const (
	LocalVar Kind = iota
	GlobalVar
	Const
	Function
	NativeFunction
	TypeSym
)

// NativeFunc is the signature of a host-imported function (spec §4.8
// stage "import resolution", §6 "ImportFunction"). Callable is left
// untyped here so this package does not need to import the host/VM
// package that owns the actual calling convention; the loader fills
// it in with whatever callback type it uses to dispatch into the host.
type NativeFunc struct {
	Name       string
	ReturnType *types.Type
	Params     []*types.Type
	Callable   any
}

// Symbol is one entry in the table, tagged by Kind. Only the fields
// relevant to that Kind are populated.
type Symbol struct {
	Kind Kind
	Name string

	// LocalVar / GlobalVar / Const
	Type     *types.Type
	Offset   int // LocalVar: frame-relative. GlobalVar: globals-section offset.
	ConstVal types.Value

	// Function
	Decl *ast.FunctionDeclStmt

	// NativeFunction
	Native *NativeFunc

	// TypeSym
	TypeVal *types.Type
}

type block struct {
	symbols   map[string]*Symbol
	size      int
	peak      int
	outermost bool
}

// Table is one program's symbol table: a global namespace shared by
// every function, plus whatever block stack is active while checking
// the function currently being walked.
type Table struct {
	global map[string]*Symbol
	blocks []*block
}

func New() *Table {
	return &Table{global: make(map[string]*Symbol)}
}

// PushFunctionScope opens the outermost block of a new function, in
// which AddLocal assigns negative (argument) offsets. The header and
// arguments sit below the frame pointer, so they do not count toward
// the block's peak; only the locals of nested blocks do.
func (t *Table) PushFunctionScope() {
	t.blocks = append(t.blocks, &block{
		symbols:   make(map[string]*Symbol),
		size:      frameHeaderSize,
		outermost: true,
	})
}

// PushBlock opens a nested lexical block (a function body, an if
// branch, a for body, ...). Its starting size is inherited from its
// immediately enclosing block, except when that enclosing block is
// the function's outermost (argument) block, in which case the new
// block is the function body and starts fresh at offset 0 — arguments
// and locals occupy disjoint, oppositely-signed halves of the frame.
func (t *Table) PushBlock() {
	b := &block{symbols: make(map[string]*Symbol)}
	if n := len(t.blocks); n > 0 {
		parent := t.blocks[n-1]
		if !parent.outermost {
			b.size = parent.size
		}
	}
	b.peak = b.size
	t.blocks = append(t.blocks, b)
}

// PopBlock closes the innermost block, propagating its peak size
// (the deepest concurrent local footprint reached inside it) up to
// its parent so the enclosing function can size its call frame
// conservatively for whichever branch used the most stack space.
func (t *Table) PopBlock() {
	n := len(t.blocks)
	b := t.blocks[n-1]
	t.blocks = t.blocks[:n-1]
	if n < 2 {
		return
	}
	parent := t.blocks[n-2]
	if b.peak > parent.peak {
		parent.peak = b.peak
	}
}

// FrameSize returns the function's peak local footprint, i.e. the
// byte count the compiler should reserve with PUSH when entering the
// function (spec §4.6). Call once every block but the outermost has
// been popped.
func (t *Table) FrameSize() int {
	if len(t.blocks) == 0 {
		return 0
	}
	return t.blocks[0].peak
}

// Get resolves name against the active block stack (innermost first)
// and then the global namespace, matching _ms_symbol_table_get.
func (t *Table) Get(name string) (*Symbol, bool) {
	for i := len(t.blocks) - 1; i >= 0; i-- {
		if s, ok := t.blocks[i].symbols[name]; ok {
			return s, true
		}
	}
	s, ok := t.global[name]
	return s, ok
}

// AddLocal declares a local variable (or argument, in the outermost
// block) in the innermost active block, returning its frame offset.
// It returns an error if name is already declared in that block.
func (t *Table) AddLocal(name string, typ *types.Type) (*Symbol, error) {
	b := t.blocks[len(t.blocks)-1]
	if _, exists := b.symbols[name]; exists {
		return nil, fmt.Errorf("redeclaration of %q", name)
	}

	var offset int
	size := typ.Size()
	if b.outermost {
		offset = -b.size - size
	} else {
		offset = b.size
	}
	b.size += size
	if !b.outermost && b.size > b.peak {
		b.peak = b.size
	}

	sym := &Symbol{Kind: LocalVar, Name: name, Type: typ, Offset: offset}
	b.symbols[name] = sym
	return sym, nil
}

func (t *Table) addGlobal(name string, sym *Symbol) error {
	if _, exists := t.global[name]; exists {
		return fmt.Errorf("redeclaration of %q", name)
	}
	t.global[name] = sym
	return nil
}

// AddGlobal declares a script-level global variable at the given
// globals-section byte offset.
func (t *Table) AddGlobal(name string, typ *types.Type, offset int) (*Symbol, error) {
	sym := &Symbol{Kind: GlobalVar, Name: name, Type: typ, Offset: offset}
	if err := t.addGlobal(name, sym); err != nil {
		return nil, err
	}
	return sym, nil
}

// AddConst declares a named compile-time constant.
func (t *Table) AddConst(name string, val types.Value) (*Symbol, error) {
	sym := &Symbol{Kind: Const, Name: name, Type: val.Type, ConstVal: val}
	if err := t.addGlobal(name, sym); err != nil {
		return nil, err
	}
	return sym, nil
}

// AddFunction forward-declares a script-defined function, so calls
// anywhere in the file can resolve it regardless of declaration order.
func (t *Table) AddFunction(name string, decl *ast.FunctionDeclStmt) (*Symbol, error) {
	sym := &Symbol{Kind: Function, Name: name, Decl: decl}
	if err := t.addGlobal(name, sym); err != nil {
		return nil, err
	}
	return sym, nil
}

// AddNativeFunction declares a host-imported function (spec §4.8
// import resolution).
func (t *Table) AddNativeFunction(fn *NativeFunc) (*Symbol, error) {
	sym := &Symbol{Kind: NativeFunction, Name: fn.Name, Native: fn}
	if err := t.addGlobal(fn.Name, sym); err != nil {
		return nil, err
	}
	return sym, nil
}

// AddType registers a named type (struct or enum) in the global
// namespace so later declarations can reference it by name.
func (t *Table) AddType(typ *types.Type) (*Symbol, error) {
	sym := &Symbol{Kind: TypeSym, Name: typ.Name, TypeVal: typ}
	if err := t.addGlobal(typ.Name, sym); err != nil {
		return nil, err
	}
	return sym, nil
}

// All returns every symbol currently declared in the global namespace
// (not the active block stack), for the loader's stage-3 export copy
// (spec §4.8: "transitively copy exported types, functions, globals, and
// constants from every imported program").
func (t *Table) All() map[string]*Symbol {
	return t.global
}

// GetType resolves a type name against the global namespace only,
// matching _ms_symbol_table_get_type: types never shadow into local
// block scopes.
func (t *Table) GetType(name string) (*types.Type, bool) {
	sym, ok := t.global[name]
	if !ok || sym.Kind != TypeSym {
		return nil, false
	}
	return sym.TypeVal, true
}
