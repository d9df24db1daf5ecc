package checker

import (
	"github.com/anthropics/mscript/internal/ast"
	"github.com/anthropics/mscript/internal/diag"
	"github.com/anthropics/mscript/internal/symtab"
	"github.com/anthropics/mscript/internal/types"
)

// checkExpr walks e, filling in its ExprBase fields, and returns the
// (possibly cast-wrapped) expression the caller should store in place of
// e. expected may be nil when no target type is known (e.g. the
// operands of a binary expression, whose result type is determined by
// the operator table instead).
func (c *Checker) checkExpr(e ast.Expression, expected *types.Type) (ast.Expression, *diag.Diag) {
	switch n := e.(type) {
	case *ast.IntLiteralExpr:
		n.ResultType = types.IntType()
		n.IsConst = true
		n.ConstVal = types.IntValue(n.Value)
		return c.applyExpected(n, expected)

	case *ast.FloatLiteralExpr:
		n.ResultType = types.FloatType()
		n.IsConst = true
		n.ConstVal = types.FloatValue(n.Value)
		return c.applyExpected(n, expected)

	case *ast.StringLiteralExpr:
		n.ResultType = types.CharPtrType()
		return n, nil

	case *ast.NullExpr:
		return c.checkNull(n, expected)

	case *ast.SymbolRefExpr:
		return c.checkSymbolRef(n)

	case *ast.UnaryExpr:
		return c.checkUnary(n, expected)

	case *ast.BinaryExpr:
		return c.checkBinary(n)

	case *ast.AssignExpr:
		return c.checkAssign(n)

	case *ast.CallExpr:
		return c.checkCall(n)

	case *ast.DebugPrintExpr:
		return c.checkDebugPrint(n)

	case *ast.Vec3LiteralExpr:
		return c.checkVec3Literal(n)

	case *ast.ArrayLiteralExpr:
		return c.checkArrayLiteral(n, expected)

	case *ast.ObjectLiteralExpr:
		return c.checkObjectLiteral(n, expected)

	case *ast.MemberAccessExpr:
		return c.checkMemberAccess(n)

	case *ast.ArrayAccessExpr:
		return c.checkArrayAccess(n, expected)

	case *ast.CastExpr:
		// Only produced by the checker itself (implicit casts); never
		// appears straight out of the parser.
		return n, nil

	default:
		return nil, c.errNode("undefined-symbol", e, "unsupported expression node %T", e)
	}
}

// applyExpected inserts an implicit numeric/array-to-bool cast when e's
// natural result type differs from expected (spec §4.5, "Implicit
// conversions"), or reports cannot-cast when no implicit conversion
// exists.
func (c *Checker) applyExpected(e ast.Expression, expected *types.Type) (ast.Expression, *diag.Diag) {
	if expected == nil {
		return e, nil
	}
	rt := e.Base().ResultType
	if types.Equal(rt, expected) {
		return e, nil
	}
	if !canImplicitCast(rt, expected) {
		return nil, c.errNode("cannot-cast", e, "cannot cast %s to %s", rt, expected)
	}
	return c.insertCast(e, expected), nil
}

// canImplicitCast reports whether spec §4.5's two implicit conversions
// apply: int<->float, and array->bool.
func canImplicitCast(from, to *types.Type) bool {
	if from.IsNumeric() && to.IsNumeric() {
		return true
	}
	if from.Kind == types.Array && to.Kind == types.Bool {
		return true
	}
	return false
}

// insertCast wraps e in an implicit *ast.CastExpr, folding it immediately
// if e is itself constant.
func (c *Checker) insertCast(e ast.Expression, to *types.Type) ast.Expression {
	cast := c.Arena.NewCastExpr(ast.CastExpr{ExprBase: ast.ExprBase{Token: e.Tok()}, To: to, Operand: e, Implicit: true})
	cast.ResultType = to
	if e.Base().IsConst {
		if v, ok := foldCast(e.Base().ConstVal, to); ok {
			cast.IsConst = true
			cast.ConstVal = v
		}
	}
	return cast
}

func foldCast(v types.Value, to *types.Type) (types.Value, bool) {
	switch {
	case v.Type.Kind == types.Int && to.Kind == types.Float:
		return types.FloatValue(float32(v.IntVal)), true
	case v.Type.Kind == types.Float && to.Kind == types.Int:
		return types.IntValue(int32(v.FloatVal)), true
	case v.Type.Kind == types.Array && to.Kind == types.Bool:
		return types.BoolValue(v.IntVal != 0), true
	}
	return types.Value{}, false
}

func (c *Checker) checkNull(n *ast.NullExpr, expected *types.Type) (ast.Expression, *diag.Diag) {
	if expected == nil {
		return nil, c.errNode("cannot-determine-type-of-null", n, "cannot determine type of null literal without an expected type")
	}
	switch expected.Kind {
	case types.VoidPtr, types.CharPtr, types.Array:
		n.ResultType = expected
		n.IsConst = true
		n.ConstVal = types.Value{Type: expected, IntVal: 0}
		return n, nil
	default:
		return nil, c.errNode("cannot-determine-type-of-null", n, "null is not valid for type %s", expected)
	}
}

func (c *Checker) checkSymbolRef(n *ast.SymbolRefExpr) (ast.Expression, *diag.Diag) {
	sym, ok := c.Sym.Get(n.Name)
	if !ok {
		return nil, c.errNode("undefined-symbol", n, "undefined symbol %q", n.Name)
	}
	switch sym.Kind {
	case symtab.LocalVar:
		n.ResultType = sym.Type
		n.LValue = ast.LValue{Kind: ast.LValueLocal, Offset: sym.Offset}
	case symtab.GlobalVar:
		n.ResultType = sym.Type
		n.LValue = ast.LValue{Kind: ast.LValueGlobal, Offset: sym.Offset}
	case symtab.Const:
		n.ResultType = sym.ConstVal.Type
		n.IsConst = true
		n.ConstVal = sym.ConstVal
	default:
		return nil, c.errNode("undefined-symbol", n, "%q does not name a value", n.Name)
	}
	return n, nil
}

func (c *Checker) checkUnary(n *ast.UnaryExpr, expected *types.Type) (ast.Expression, *diag.Diag) {
	switch n.Op {
	case ast.OpNot:
		operand, d := c.checkExpr(n.Operand, nil)
		if d != nil {
			return nil, d
		}
		operand, d = c.applyExpected(operand, types.BoolType())
		if d != nil {
			return nil, d
		}
		n.Operand = operand
		n.ResultType = types.BoolType()
		if operand.Base().IsConst {
			if v, ok := foldUnary(ast.OpNot, operand.Base().ConstVal); ok {
				n.IsConst = true
				n.ConstVal = v
			}
		}
		return c.applyExpected(n, expected)

	case ast.OpPostIncr:
		operand, d := c.checkExpr(n.Operand, nil)
		if d != nil {
			return nil, d
		}
		if !operand.Base().ResultType.IsNumeric() {
			return nil, c.errNode("cannot-cast", n, "++ requires an int or float operand, got %s", operand.Base().ResultType)
		}
		if operand.Base().LValue.Kind == ast.LValueInvalid {
			return nil, c.errNode("invalid-lvalue", n, "++ requires an assignable operand")
		}
		n.Operand = operand
		n.ResultType = operand.Base().ResultType
		return c.applyExpected(n, expected)
	}
	return nil, c.errNode("undefined-symbol", n, "unknown unary operator")
}

func (c *Checker) checkBinary(n *ast.BinaryExpr) (ast.Expression, *diag.Diag) {
	left, d := c.checkExpr(n.Left, nil)
	if d != nil {
		return nil, d
	}
	right, d := c.checkExpr(n.Right, nil)
	if d != nil {
		return nil, d
	}

	rule, ok := lookupBinRule(n.Op, left.Base().ResultType, right.Base().ResultType)
	if !ok {
		return nil, c.errNode("cannot-cast", n, "operator not defined for %s and %s", left.Base().ResultType, right.Base().ResultType)
	}

	if rule.left != "" {
		left, d = c.applyExpected(left, typeByName(rule.left))
		if d != nil {
			return nil, d
		}
	}
	if rule.right != "" {
		right, d = c.applyExpected(right, typeByName(rule.right))
		if d != nil {
			return nil, d
		}
	}

	// §9 Open Question 2 / DESIGN.md #2: canonicalize vec3*scalar so the
	// vec3 operand is always Left, scalar always Right, by swapping the
	// already-cast operands when the source wrote `scalar * vec3`. This
	// makes later left-then-right emission put the scalar on top for
	// V3SCALE without the compiler needing to special-case anything.
	if n.Op == ast.OpMul && rule.result == "vec3" &&
		left.Base().ResultType.Kind != types.Vec3 && right.Base().ResultType.Kind == types.Vec3 {
		left, right = right, left
	}

	n.Left, n.Right = left, right
	n.ResultType = typeByName(rule.result)

	if left.Base().IsConst && right.Base().IsConst {
		if v, ok := foldBinary(n.Op, left.Base().ConstVal, right.Base().ConstVal, n.ResultType); ok {
			n.IsConst = true
			n.ConstVal = v
		}
	}
	return n, nil
}

func (c *Checker) checkAssign(n *ast.AssignExpr) (ast.Expression, *diag.Diag) {
	target, d := c.checkExpr(n.Target, nil)
	if d != nil {
		return nil, d
	}
	if target.Base().LValue.Kind == ast.LValueInvalid {
		return nil, c.errNode("invalid-lvalue", n, "left side of assignment is not assignable")
	}
	value, d := c.checkExpr(n.Value, target.Base().ResultType)
	if d != nil {
		return nil, d
	}
	n.Target, n.Value = target, value
	n.ResultType = target.Base().ResultType
	n.LValue = target.Base().LValue
	return n, nil
}

func (c *Checker) checkCall(n *ast.CallExpr) (ast.Expression, *diag.Diag) {
	if n.Name == "delete_array" {
		return c.checkDeleteArray(n)
	}

	sym, ok := c.Sym.Get(n.Name)
	if !ok {
		return nil, c.errNode("undefined-function", n, "undefined function %q", n.Name)
	}

	var ret *types.Type
	var params []*types.Type
	switch sym.Kind {
	case symtab.Function:
		var d *diag.Diag
		ret, params, d = FunctionSignature(c.Reg, sym.Decl)
		if d != nil {
			return nil, d
		}
	case symtab.NativeFunction:
		ret, params = sym.Native.ReturnType, sym.Native.Params
	default:
		return nil, c.errNode("undefined-function", n, "%q is not callable", n.Name)
	}

	if len(n.Args) != len(params) {
		return nil, c.errNode("wrong-arg-count", n, "%q expects %d arguments, got %d", n.Name, len(params), len(n.Args))
	}
	for i, arg := range n.Args {
		checked, d := c.checkExpr(arg, params[i])
		if d != nil {
			return nil, d
		}
		n.Args[i] = checked
	}
	n.ResultType = ret
	return n, nil
}

func (c *Checker) checkDeleteArray(n *ast.CallExpr) (ast.Expression, *diag.Diag) {
	if len(n.Args) != 1 {
		return nil, c.errNode("wrong-arg-count", n, "delete_array expects 1 argument, got %d", len(n.Args))
	}
	arg, d := c.checkExpr(n.Args[0], nil)
	if d != nil {
		return nil, d
	}
	if arg.Base().ResultType.Kind != types.Array {
		return nil, c.errNode("cannot-cast", n, "delete_array expects an array, got %s", arg.Base().ResultType)
	}
	if arg.Base().LValue.Kind == ast.LValueInvalid {
		return nil, c.errNode("invalid-lvalue", n, "delete_array requires an assignable array expression")
	}
	n.Args[0] = arg
	n.ResultType = types.VoidType()
	return n, nil
}

// checkDebugPrint never restricts argument types: every kind, including
// struct and array, has a defined print form (see compiler's
// emitDebugPrintArg).
func (c *Checker) checkDebugPrint(n *ast.DebugPrintExpr) (ast.Expression, *diag.Diag) {
	for i, arg := range n.Args {
		checked, d := c.checkExpr(arg, nil)
		if d != nil {
			return nil, d
		}
		n.Args[i] = checked
	}
	n.ResultType = types.VoidType()
	return n, nil
}

func (c *Checker) checkVec3Literal(n *ast.Vec3LiteralExpr) (ast.Expression, *diag.Diag) {
	var d *diag.Diag
	n.X, d = c.checkExpr(n.X, types.FloatType())
	if d != nil {
		return nil, d
	}
	n.Y, d = c.checkExpr(n.Y, types.FloatType())
	if d != nil {
		return nil, d
	}
	n.Z, d = c.checkExpr(n.Z, types.FloatType())
	if d != nil {
		return nil, d
	}
	n.ResultType = types.Vec3Type()
	if n.X.Base().IsConst && n.Y.Base().IsConst && n.Z.Base().IsConst {
		n.IsConst = true
		n.ConstVal = types.Value{Type: n.ResultType, Vec3Val: [3]float32{
			n.X.Base().ConstVal.FloatVal, n.Y.Base().ConstVal.FloatVal, n.Z.Base().ConstVal.FloatVal,
		}}
	}
	return n, nil
}

func (c *Checker) checkArrayLiteral(n *ast.ArrayLiteralExpr, expected *types.Type) (ast.Expression, *diag.Diag) {
	var elemType *types.Type
	if expected != nil && expected.Kind == types.Array {
		elemType = expected.Elem
	} else if len(n.Elements) > 0 {
		first, d := c.checkExpr(n.Elements[0], nil)
		if d != nil {
			return nil, d
		}
		n.Elements[0] = first
		elemType = first.Base().ResultType
	} else {
		return nil, c.errNode("cannot-determine-type-of-array-literal", n, "cannot determine element type of an empty array literal without an expected type")
	}

	allConst := true
	vals := make([]types.Value, len(n.Elements))
	for i, el := range n.Elements {
		checked, d := c.checkExpr(el, elemType)
		if d != nil {
			return nil, d
		}
		n.Elements[i] = checked
		if !checked.Base().IsConst {
			allConst = false
		} else {
			vals[i] = checked.Base().ConstVal
		}
	}
	n.ResultType = c.Reg.ArrayOf(elemType)
	if allConst {
		n.IsConst = true
		n.ConstVal = types.Value{Type: n.ResultType, Elements: vals}
	}
	return n, nil
}

func (c *Checker) checkObjectLiteral(n *ast.ObjectLiteralExpr, expected *types.Type) (ast.Expression, *diag.Diag) {
	if expected == nil || expected.Kind != types.Struct {
		return nil, c.errNode("cannot-determine-type-of-object-literal", n, "cannot determine struct type of an object literal without an expected type")
	}
	sd := expected.StructDef
	if len(n.Fields) != len(sd.Members) {
		return nil, c.errNode("wrong-member-name", n, "struct literal for %s must initialize all %d members, got %d", expected, len(sd.Members), len(n.Fields))
	}

	byName := make(map[string]ast.Expression, len(n.Fields))
	for _, f := range n.Fields {
		if _, dup := byName[f.Name]; dup {
			return nil, c.errNode("wrong-member-name", n, "duplicate member %q in struct literal", f.Name)
		}
		byName[f.Name] = f.Value
	}

	ordered := make([]ast.ObjectLiteralField, len(sd.Members))
	allConst := true
	vals := make([]types.Value, len(sd.Members))
	for i, m := range sd.Members {
		val, ok := byName[m.Name]
		if !ok {
			return nil, c.errNode("wrong-member-name", n, "missing member %q in struct literal for %s", m.Name, expected)
		}
		checked, d := c.checkExpr(val, m.Type)
		if d != nil {
			return nil, d
		}
		ordered[i] = ast.ObjectLiteralField{Name: m.Name, Value: checked}
		if !checked.Base().IsConst {
			allConst = false
		} else {
			vals[i] = checked.Base().ConstVal
		}
	}
	n.Fields = ordered
	n.ResultType = expected
	if allConst {
		n.IsConst = true
		n.ConstVal = types.Value{Type: expected, Fields: vals}
	}
	return n, nil
}

func (c *Checker) checkMemberAccess(n *ast.MemberAccessExpr) (ast.Expression, *diag.Diag) {
	obj, d := c.checkExpr(n.Object, nil)
	if d != nil {
		return nil, d
	}
	n.Object = obj
	objType := obj.Base().ResultType
	objLV := obj.Base().LValue

	switch objType.Kind {
	case types.Vec3:
		var offset int
		switch n.Member {
		case "x":
			offset = 0
		case "y":
			offset = 4
		case "z":
			offset = 8
		default:
			return nil, c.errNode("wrong-member-name", n, "vec3 has no member %q", n.Member)
		}
		n.ResultType = types.FloatType()
		n.MemberOffset = offset
		n.LValue = offsetLValue(objLV, offset)

	case types.Struct:
		m, ok := objType.StructDef.Member(n.Member)
		if !ok {
			return nil, c.errNode("wrong-member-name", n, "%s has no member %q", objType, n.Member)
		}
		n.ResultType = m.Type
		n.MemberOffset = m.Offset
		n.LValue = offsetLValue(objLV, m.Offset)

	case types.Array:
		if n.Member != "length" {
			return nil, c.errNode("wrong-member-name", n, "array has no member %q", n.Member)
		}
		n.ResultType = types.IntType()
		n.LValue = ast.LValue{Kind: ast.LValueArray}

	default:
		return nil, c.errNode("wrong-member-name", n, "%s has no members", objType)
	}
	return n, nil
}

// offsetLValue derives a member/component access's l-value from its
// object's l-value. Local/global bases simply shift by the member's
// byte offset (both live at a compile-time-known address); an array
// base stays tagged Array (the actual byte address depends on a
// runtime-computed index, so the compiler recomputes it by walking the
// expression tree at codegen time rather than from a flat offset here).
func offsetLValue(base ast.LValue, memberOffset int) ast.LValue {
	switch base.Kind {
	case ast.LValueLocal, ast.LValueGlobal:
		return ast.LValue{Kind: base.Kind, Offset: base.Offset + memberOffset}
	case ast.LValueArray:
		return ast.LValue{Kind: ast.LValueArray}
	default:
		return ast.LValue{Kind: ast.LValueInvalid}
	}
}

func (c *Checker) checkArrayAccess(n *ast.ArrayAccessExpr, expected *types.Type) (ast.Expression, *diag.Diag) {
	arr, d := c.checkExpr(n.Array, nil)
	if d != nil {
		return nil, d
	}
	if arr.Base().ResultType.Kind != types.Array {
		return nil, c.errNode("cannot-cast", n, "cannot index into non-array type %s", arr.Base().ResultType)
	}
	idx, d := c.checkExpr(n.Index, types.IntType())
	if d != nil {
		return nil, d
	}
	n.Array, n.Index = arr, idx
	n.ResultType = arr.Base().ResultType.Elem
	n.LValue = ast.LValue{Kind: ast.LValueArray}
	return c.applyExpected(n, expected)
}
