package checker

import (
	"github.com/anthropics/mscript/internal/ast"
	"github.com/anthropics/mscript/internal/types"
)

// typeByName resolves one of the binRule's promoted/result type names
// (always a builtin kind name: "int", "float", "bool", "vec3") to its
// canonical *types.Type.
func typeByName(name string) *types.Type {
	switch name {
	case "int":
		return types.IntType()
	case "float":
		return types.FloatType()
	case "bool":
		return types.BoolType()
	case "vec3":
		return types.Vec3Type()
	default:
		return nil
	}
}

// foldUnary evaluates a constant unary expression at check time (spec
// §4.5, "Constant folding").
func foldUnary(op ast.UnaryOp, v types.Value) (types.Value, bool) {
	if op == ast.OpNot && v.Type.Kind == types.Bool {
		return types.BoolValue(!v.BoolVal), true
	}
	return types.Value{}, false
}

// foldBinary evaluates a constant binary expression once both operands
// have been promoted to resultType's operand kind (spec §4.5).
func foldBinary(op ast.BinaryOp, l, r types.Value, resultType *types.Type) (types.Value, bool) {
	switch resultType.Kind {
	case types.Int:
		a, b := l.IntVal, r.IntVal
		switch op {
		case ast.OpAdd:
			return types.IntValue(a + b), true
		case ast.OpSub:
			return types.IntValue(a - b), true
		case ast.OpMul:
			return types.IntValue(a * b), true
		case ast.OpDiv:
			if b == 0 {
				return types.Value{}, false
			}
			return types.IntValue(a / b), true
		}
	case types.Float:
		a, b := l.FloatVal, r.FloatVal
		switch op {
		case ast.OpAdd:
			return types.FloatValue(a + b), true
		case ast.OpSub:
			return types.FloatValue(a - b), true
		case ast.OpMul:
			return types.FloatValue(a * b), true
		case ast.OpDiv:
			return types.FloatValue(a / b), true
		}
	case types.Bool:
		var a, b float64
		var ai, bi int32
		numeric := false
		switch l.Type.Kind {
		case types.Int:
			ai, bi = l.IntVal, r.IntVal
			a, b = float64(ai), float64(bi)
			numeric = true
		case types.Float:
			a, b = float64(l.FloatVal), float64(r.FloatVal)
			numeric = true
		}
		if numeric {
			switch op {
			case ast.OpLt:
				return types.BoolValue(a < b), true
			case ast.OpLte:
				return types.BoolValue(a <= b), true
			case ast.OpGt:
				return types.BoolValue(a > b), true
			case ast.OpGte:
				return types.BoolValue(a >= b), true
			case ast.OpEq:
				return types.BoolValue(a == b), true
			case ast.OpNeq:
				return types.BoolValue(a != b), true
			}
		}
		if l.Type.Kind == types.Enum && r.Type.Kind == types.Enum {
			switch op {
			case ast.OpEq:
				return types.BoolValue(l.IntVal == r.IntVal), true
			case ast.OpNeq:
				return types.BoolValue(l.IntVal != r.IntVal), true
			}
		}
	case types.Vec3:
		switch op {
		case ast.OpAdd:
			return types.Value{Type: resultType, Vec3Val: [3]float32{
				l.Vec3Val[0] + r.Vec3Val[0], l.Vec3Val[1] + r.Vec3Val[1], l.Vec3Val[2] + r.Vec3Val[2],
			}}, true
		case ast.OpSub:
			return types.Value{Type: resultType, Vec3Val: [3]float32{
				l.Vec3Val[0] - r.Vec3Val[0], l.Vec3Val[1] - r.Vec3Val[1], l.Vec3Val[2] - r.Vec3Val[2],
			}}, true
		case ast.OpMul:
			// Canonical post-swap order: l is always the vec3 side (§9 Open
			// Question 2 / DESIGN.md #2).
			if l.Type.Kind == types.Vec3 {
				s := r.FloatVal
				return types.Value{Type: resultType, Vec3Val: [3]float32{l.Vec3Val[0] * s, l.Vec3Val[1] * s, l.Vec3Val[2] * s}}, true
			}
		case ast.OpDiv:
			if l.Type.Kind == types.Vec3 {
				s := r.FloatVal
				return types.Value{Type: resultType, Vec3Val: [3]float32{l.Vec3Val[0] / s, l.Vec3Val[1] / s, l.Vec3Val[2] / s}}, true
			}
		}
	}
	return types.Value{}, false
}
