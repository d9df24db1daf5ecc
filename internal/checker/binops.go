package checker

import (
	"github.com/anthropics/mscript/internal/ast"
	"github.com/anthropics/mscript/internal/types"
)

// binRule is one entry of the binary-op cast table (spec §4.5): given
// an operator and the two operand kinds, it names the result type and
// the type each operand must be promoted to before the operation
// applies. An empty promoted name means "no cast, use the operand's
// own type" (used for enum/vec3 equality, which never promotes).
type binRule struct {
	result, left, right string
}

type binKey struct {
	op          ast.BinaryOp
	left, right string
}

// binTable is transcribed from original_source's _ms_verify_binary_op_expr
// cast table verbatim (kind names, not Go identifiers, since it is
// keyed by the type's source name exactly as the symbol table would
// resolve it).
var binTable = map[binKey]binRule{
	{ast.OpAdd, "int", "int"}:     {"int", "int", "int"},
	{ast.OpAdd, "int", "float"}:   {"float", "float", "float"},
	{ast.OpAdd, "float", "int"}:   {"float", "float", "float"},
	{ast.OpAdd, "float", "float"}: {"float", "float", "float"},
	{ast.OpAdd, "vec3", "vec3"}:   {"vec3", "vec3", "vec3"},

	{ast.OpSub, "int", "int"}:     {"int", "int", "int"},
	{ast.OpSub, "int", "float"}:   {"float", "float", "float"},
	{ast.OpSub, "float", "int"}:   {"float", "float", "float"},
	{ast.OpSub, "float", "float"}: {"float", "float", "float"},
	{ast.OpSub, "vec3", "vec3"}:   {"vec3", "vec3", "vec3"},

	{ast.OpMul, "int", "int"}:     {"int", "int", "int"},
	{ast.OpMul, "int", "float"}:   {"float", "float", "float"},
	{ast.OpMul, "float", "int"}:   {"float", "float", "float"},
	{ast.OpMul, "float", "float"}: {"float", "float", "float"},
	{ast.OpMul, "vec3", "int"}:    {"vec3", "vec3", "float"},
	{ast.OpMul, "vec3", "float"}:  {"vec3", "vec3", "float"},
	{ast.OpMul, "int", "vec3"}:    {"vec3", "float", "vec3"},
	{ast.OpMul, "float", "vec3"}:  {"vec3", "float", "vec3"},

	{ast.OpDiv, "int", "int"}:     {"int", "int", "int"},
	{ast.OpDiv, "int", "float"}:   {"float", "float", "float"},
	{ast.OpDiv, "float", "int"}:   {"float", "float", "float"},
	{ast.OpDiv, "float", "float"}: {"float", "float", "float"},
	{ast.OpDiv, "vec3", "int"}:    {"vec3", "vec3", "float"},
	{ast.OpDiv, "vec3", "float"}:  {"vec3", "vec3", "float"},

	{ast.OpLte, "int", "int"}:     {"bool", "int", "int"},
	{ast.OpLte, "int", "float"}:   {"bool", "float", "float"},
	{ast.OpLte, "float", "int"}:   {"bool", "float", "float"},
	{ast.OpLte, "float", "float"}: {"bool", "float", "float"},

	{ast.OpLt, "int", "int"}:     {"bool", "int", "int"},
	{ast.OpLt, "int", "float"}:   {"bool", "float", "float"},
	{ast.OpLt, "float", "int"}:   {"bool", "float", "float"},
	{ast.OpLt, "float", "float"}: {"bool", "float", "float"},

	{ast.OpGte, "int", "int"}:     {"bool", "int", "int"},
	{ast.OpGte, "int", "float"}:   {"bool", "float", "float"},
	{ast.OpGte, "float", "int"}:   {"bool", "float", "float"},
	{ast.OpGte, "float", "float"}: {"bool", "float", "float"},

	{ast.OpGt, "int", "int"}:     {"bool", "int", "int"},
	{ast.OpGt, "int", "float"}:   {"bool", "float", "float"},
	{ast.OpGt, "float", "int"}:   {"bool", "float", "float"},
	{ast.OpGt, "float", "float"}: {"bool", "float", "float"},

	{ast.OpEq, "int", "int"}:     {"bool", "int", "int"},
	{ast.OpEq, "int", "float"}:   {"bool", "float", "float"},
	{ast.OpEq, "float", "int"}:   {"bool", "float", "float"},
	{ast.OpEq, "float", "float"}: {"bool", "float", "float"},
	{ast.OpEq, "enum", "enum"}:   {"bool", "", ""},
	{ast.OpEq, "vec3", "vec3"}:   {"bool", "vec3", "vec3"},

	{ast.OpNeq, "int", "int"}:     {"bool", "int", "int"},
	{ast.OpNeq, "int", "float"}:   {"bool", "float", "float"},
	{ast.OpNeq, "float", "int"}:   {"bool", "float", "float"},
	{ast.OpNeq, "float", "float"}: {"bool", "float", "float"},
	{ast.OpNeq, "enum", "enum"}:   {"bool", "", ""},
	{ast.OpNeq, "vec3", "vec3"}:   {"bool", "vec3", "vec3"},
}

// binKind is the table key's type name for t: its Kind's generic name
// (so a specific struct or enum's own name collapses to "struct"/
// "enum", matching the table's kind-level granularity).
func binKind(t *types.Type) string {
	return t.Kind.String()
}

func lookupBinRule(op ast.BinaryOp, left, right *types.Type) (binRule, bool) {
	r, ok := binTable[binKey{op, binKind(left), binKind(right)}]
	return r, ok
}
