package loader

import (
	"github.com/anthropics/mscript/internal/ast"
	"github.com/anthropics/mscript/internal/checker"
	"github.com/anthropics/mscript/internal/diag"
	"github.com/anthropics/mscript/internal/link"
	"github.com/anthropics/mscript/internal/symtab"
	"github.com/anthropics/mscript/internal/types"
	"github.com/anthropics/mscript/internal/vm"
)

// unitState is how far a file has progressed before the loader gave up
// on it, used only to produce a clearer diagnostic when something
// depends on a file that never finished.
type unitState int

const (
	stateParsed unitState = iota
	stateBuilding
	stateDone
	stateFailed
)

// unit is one source file's bookkeeping across every loader stage (spec
// §4.8). Stages 1-2 fill in file/imports/ast/sym/reg/chk; the remaining
// stages, run per unit in import-dependency order (see runtime.go), fill
// in the rest.
type unit struct {
	name    string // path tail, e.g. "tests.mscript" (the runtime_get_program key)
	path    string // full filesystem path, used only for os.ReadFile/diagnostics
	imports []string

	ast *ast.File
	sym *symtab.Table
	reg *types.Registry
	chk *checker.Checker

	frameSize map[string]int // per-function-name, from CheckFunctionBody

	globalsInit []byte // this unit's own globals section, inherited bytes included

	ownFuncs []link.FuncUnit
	ownArgs  map[string]int

	// allFuncs/allArgs are this unit's own compiled functions plus the
	// transitive closure of every (already-built) import's allFuncs/
	// allArgs, deduplicated by function name. Every importer reuses its
	// dependencies' allFuncs wholesale instead of recompiling them, so a
	// diamond import compiles each shared function only once.
	allFuncs []link.FuncUnit
	allArgs  map[string]int

	program *vm.Program
	state   unitState
	err     *diag.Diag
}

func (u *unit) fail(d *diag.Diag) {
	if u.err == nil {
		u.err = d
	}
	u.state = stateFailed
}
