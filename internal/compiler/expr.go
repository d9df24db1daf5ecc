package compiler

import (
	"github.com/anthropics/mscript/internal/ast"
	"github.com/anthropics/mscript/internal/opcode"
	"github.com/anthropics/mscript/internal/symtab"
	"github.com/anthropics/mscript/internal/types"
)

// emitExpr compiles e, leaving its result_type's byte size on top of the
// stack (spec §4.6). Every case here is grounded directly on
// original_source's per-node _ms_compile_*_expr functions.
func (fe *funcEmitter) emitExpr(e ast.Expression) {
	switch n := e.(type) {
	case *ast.IntLiteralExpr:
		fe.emit(opcode.INT, int(n.Value), 0)

	case *ast.FloatLiteralExpr:
		fe.emitFloat(opcode.FLOAT, n.Value)

	case *ast.StringLiteralExpr:
		fe.emitName(opcode.STRING_LITERAL, n.Value, 0)

	case *ast.NullExpr:
		fe.emit(opcode.INT, 0, 0)

	case *ast.SymbolRefExpr:
		fe.emitSymbolRef(n)

	case *ast.UnaryExpr:
		fe.emitUnary(n)

	case *ast.BinaryExpr:
		fe.emitBinary(n)

	case *ast.AssignExpr:
		fe.emitAssign(n)

	case *ast.CallExpr:
		fe.emitCall(n)

	case *ast.DebugPrintExpr:
		fe.emitDebugPrint(n)

	case *ast.Vec3LiteralExpr:
		fe.emitExpr(n.X)
		fe.emitExpr(n.Y)
		fe.emitExpr(n.Z)

	case *ast.ArrayLiteralExpr:
		fe.emitArrayLiteral(n)

	case *ast.ObjectLiteralExpr:
		for _, f := range n.Fields {
			fe.emitExpr(f.Value)
		}

	case *ast.MemberAccessExpr:
		fe.emitMemberAccess(n)

	case *ast.ArrayAccessExpr:
		fe.emitArrayAccess(n)

	case *ast.CastExpr:
		fe.emitCast(n)
	}
}

// emitConstValue pushes a folded constant directly, bypassing whatever
// expression produced it. Named constants (enum values) are the only
// kind this is ever reached for; the other cases exist so the helper
// stays correct if a wider class of constant ever routes through it.
// Array and struct literals never take this path even when marked
// const — they always go through their own structural emission (spec
// §4.5's note that is_const on a literal only describes fold-ability,
// not a license to skip ARRAY_CREATE/runtime allocation).
func (fe *funcEmitter) emitConstValue(v types.Value) {
	switch v.Type.Kind {
	case types.Int, types.Enum:
		fe.emit(opcode.INT, int(v.IntVal), 0)
	case types.Float:
		fe.emitFloat(opcode.FLOAT, v.FloatVal)
	case types.Bool:
		b := 0
		if v.BoolVal {
			b = 1
		}
		fe.emit(opcode.INT, b, 0)
	case types.Vec3:
		fe.emitFloat(opcode.FLOAT, v.Vec3Val[0])
		fe.emitFloat(opcode.FLOAT, v.Vec3Val[1])
		fe.emitFloat(opcode.FLOAT, v.Vec3Val[2])
	case types.Struct:
		for _, f := range v.Fields {
			fe.emitConstValue(f)
		}
	case types.VoidPtr, types.CharPtr, types.Array:
		fe.emit(opcode.INT, int(v.IntVal), 0)
	}
}

func (fe *funcEmitter) emitSymbolRef(n *ast.SymbolRefExpr) {
	if n.IsConst {
		fe.emitConstValue(n.ConstVal)
		return
	}
	size := n.ResultType.Size()
	switch n.LValue.Kind {
	case ast.LValueLocal:
		fe.emit(opcode.LOCAL_LOAD, n.LValue.Offset, size)
	case ast.LValueGlobal:
		fe.emit(opcode.GLOBAL_LOAD, n.LValue.Offset, size)
	}
}

// emitLValueExtra realizes the runtime portion of e's l-value: the bytes
// an ARRAY_STORE/ARRAY_LOAD needs on top of the stack (a handle and a
// byte offset) to address an array element or a member nested inside
// one. A Local/Global-rooted l-value needs nothing here, since its
// address is a static instruction operand baked in at check time
// (ast.MemberAccessExpr.MemberOffset / SymbolRefExpr's own offset).
// Grounded on original_source's _ms_compile_lvalue_expr.
func (fe *funcEmitter) emitLValueExtra(e ast.Expression) {
	switch n := e.(type) {
	case *ast.ArrayAccessExpr:
		fe.emitExpr(n.Array)
		fe.emitExpr(n.Index)
		fe.emit(opcode.INT, n.ResultType.Size(), 0)
		fe.emit(opcode.IMUL, 0, 0)

	case *ast.MemberAccessExpr:
		fe.emitLValueExtra(n.Object)
		if n.Object.Base().LValue.Kind == ast.LValueArray {
			fe.emit(opcode.INT, n.MemberOffset, 0)
			fe.emit(opcode.IADD, 0, 0)
		}
	}
}

// emitStore finishes an assignment/increment/delete_array's write to
// target, assuming the stored value is already on top of the stack.
func (fe *funcEmitter) emitStore(target ast.Expression, size int) {
	fe.emitLValueExtra(target)
	switch target.Base().LValue.Kind {
	case ast.LValueLocal:
		fe.emit(opcode.LOCAL_STORE, target.Base().LValue.Offset, size)
	case ast.LValueGlobal:
		fe.emit(opcode.GLOBAL_STORE, target.Base().LValue.Offset, size)
	case ast.LValueArray:
		fe.emit(opcode.ARRAY_STORE, size, 0)
	}
}

// emitLoadByLValue loads e's own value (as opposed to addressing a
// member/element nested inside it), dispatching on e's l-value kind.
// Used for the "load the array sub-expression generically" step shared
// by array-element and array-length reads.
func (fe *funcEmitter) emitLoadByLValue(e ast.Expression) {
	fe.emitLValueExtra(e)
	size := e.Base().ResultType.Size()
	switch e.Base().LValue.Kind {
	case ast.LValueLocal:
		fe.emit(opcode.LOCAL_LOAD, e.Base().LValue.Offset, size)
	case ast.LValueGlobal:
		fe.emit(opcode.GLOBAL_LOAD, e.Base().LValue.Offset, size)
	case ast.LValueArray:
		fe.emit(opcode.ARRAY_LOAD, size, 0)
	}
}

func (fe *funcEmitter) emitUnary(n *ast.UnaryExpr) {
	switch n.Op {
	case ast.OpNot:
		fe.emitExpr(n.Operand)
		fe.emit(opcode.NOT, 0, 0)

	case ast.OpPostIncr:
		fe.emitExpr(n.Operand)
		if n.Operand.Base().ResultType.Kind == types.Int {
			fe.emit(opcode.IINC, 0, 0)
		} else {
			fe.emit(opcode.FINC, 0, 0)
		}
		fe.emitStore(n.Operand, n.ResultType.Size())
	}
}

// binOpKey selects an opcode for a checked, already-promoted binary
// expression: (operator, left kind, right kind) after the checker's own
// implicit casts (and its vec3*scalar canonicalization) have run, so
// both operands always share a kind except the vec3-scalar pairs.
type binOpKey struct {
	op          ast.BinaryOp
	left, right types.Kind
}

var binOpTable = map[binOpKey]opcode.Op{
	{ast.OpAdd, types.Int, types.Int}:     opcode.IADD,
	{ast.OpAdd, types.Float, types.Float}: opcode.FADD,
	{ast.OpAdd, types.Vec3, types.Vec3}:   opcode.V3ADD,

	{ast.OpSub, types.Int, types.Int}:     opcode.ISUB,
	{ast.OpSub, types.Float, types.Float}: opcode.FSUB,
	{ast.OpSub, types.Vec3, types.Vec3}:   opcode.V3SUB,

	{ast.OpMul, types.Int, types.Int}:     opcode.IMUL,
	{ast.OpMul, types.Float, types.Float}: opcode.FMUL,
	{ast.OpMul, types.Vec3, types.Float}:  opcode.V3SCALE,

	{ast.OpDiv, types.Int, types.Int}:     opcode.IDIV,
	{ast.OpDiv, types.Float, types.Float}: opcode.FDIV,

	{ast.OpLte, types.Int, types.Int}:     opcode.ILTE,
	{ast.OpLte, types.Float, types.Float}: opcode.FLTE,
	{ast.OpLt, types.Int, types.Int}:      opcode.ILT,
	{ast.OpLt, types.Float, types.Float}:  opcode.FLT,
	{ast.OpGte, types.Int, types.Int}:     opcode.IGTE,
	{ast.OpGte, types.Float, types.Float}: opcode.FGTE,
	{ast.OpGt, types.Int, types.Int}:      opcode.IGT,
	{ast.OpGt, types.Float, types.Float}:  opcode.FGT,

	{ast.OpEq, types.Int, types.Int}:     opcode.IEQ,
	{ast.OpEq, types.Float, types.Float}: opcode.FEQ,
	{ast.OpEq, types.Enum, types.Enum}:   opcode.IEQ,
	{ast.OpEq, types.Vec3, types.Vec3}:   opcode.V3EQ,

	{ast.OpNeq, types.Int, types.Int}:     opcode.INEQ,
	{ast.OpNeq, types.Float, types.Float}: opcode.FNEQ,
	{ast.OpNeq, types.Enum, types.Enum}:   opcode.INEQ,
	{ast.OpNeq, types.Vec3, types.Vec3}:   opcode.V3NEQ,
}

// emitBinary emits n's operands left-then-right (the checker has already
// canonicalized vec3*scalar so the vec3 operand is always Left) and the
// opcode its promoted operand kinds select. vec3/scalar division has no
// dedicated opcode in the original instruction set (the reference VM
// treats it as unreachable); DESIGN.md records the decision to lower it
// to a reciprocal scale instead of leaving it uncompilable.
func (fe *funcEmitter) emitBinary(n *ast.BinaryExpr) {
	leftKind := n.Left.Base().ResultType.Kind
	rightKind := n.Right.Base().ResultType.Kind

	if n.Op == ast.OpDiv && leftKind == types.Vec3 && rightKind == types.Float {
		fe.emitExpr(n.Left)
		fe.emitFloat(opcode.FLOAT, 1.0)
		fe.emitExpr(n.Right)
		fe.emit(opcode.FDIV, 0, 0)
		fe.emit(opcode.V3SCALE, 0, 0)
		return
	}

	fe.emitExpr(n.Left)
	fe.emitExpr(n.Right)
	op, ok := binOpTable[binOpKey{n.Op, leftKind, rightKind}]
	if !ok {
		return
	}
	fe.emit(op, 0, 0)
}

func (fe *funcEmitter) emitAssign(n *ast.AssignExpr) {
	fe.emitExpr(n.Value)
	fe.emitStore(n.Target, n.ResultType.Size())
}

func (fe *funcEmitter) emitCall(n *ast.CallExpr) {
	if n.Name == "delete_array" {
		fe.emitDeleteArray(n)
		return
	}

	argsSize := 0
	for i := len(n.Args) - 1; i >= 0; i-- {
		fe.emitExpr(n.Args[i])
		argsSize += n.Args[i].Base().ResultType.Size()
	}

	sym, _ := fe.c.Sym.Get(n.Name)
	switch sym.Kind {
	case symtab.Function:
		fe.emitName(opcode.CALL_BY_NAME, n.Name, 0)
	case symtab.NativeFunction:
		fe.instrs = append(fe.instrs, opcode.Instr{Op: opcode.C_CALL, Name: n.Name, Arg2: argsSize})
	}
}

func (fe *funcEmitter) emitDeleteArray(n *ast.CallExpr) {
	target := n.Args[0]
	fe.emitExpr(target)
	fe.emit(opcode.ARRAY_DELETE, 0, 0)
	fe.emit(opcode.INT, 0, 0)
	fe.emitStore(target, 4)
	fe.emit(opcode.POP, 4, 0)
}

func (fe *funcEmitter) emitDebugPrint(n *ast.DebugPrintExpr) {
	for _, arg := range n.Args {
		fe.emitExpr(arg)
		fe.emitDebugPrintType(arg.Base().ResultType)
	}
}

// emitDebugPrintType prints one already-pushed value of type t, matching
// original_source's _ms_compile_debug_print_type member-by-member struct
// recursion (each member is COPY'd out of the still-on-stack struct
// value, printed, and the original struct is POP'd once at the end).
func (fe *funcEmitter) emitDebugPrintType(t *types.Type) {
	switch t.Kind {
	case types.Void:
		fe.emitName(opcode.DEBUG_PRINT_STRING_CONST, "<void>", 0)
		fe.emit(opcode.POP, t.Size(), 0)
	case types.VoidPtr:
		fe.emitName(opcode.DEBUG_PRINT_STRING_CONST, "<void*>", 0)
		fe.emit(opcode.POP, t.Size(), 0)
	case types.Int:
		fe.emit(opcode.DEBUG_PRINT_INT, 0, 0)
	case types.Float:
		fe.emit(opcode.DEBUG_PRINT_FLOAT, 0, 0)
	case types.Bool:
		fe.emit(opcode.DEBUG_PRINT_BOOL, 0, 0)
	case types.Vec3:
		fe.emit(opcode.DEBUG_PRINT_VEC3, 0, 0)
	case types.CharPtr:
		fe.emit(opcode.DEBUG_PRINT_STRING, 0, 0)
	case types.Array, types.Enum:
		fe.emit(opcode.DEBUG_PRINT_INT, 0, 0)
	case types.Struct:
		sd := t.StructDef
		fe.emitName(opcode.DEBUG_PRINT_STRING_CONST, "{", 0)
		for i, m := range sd.Members {
			fe.emitName(opcode.DEBUG_PRINT_STRING_CONST, m.Name, 0)
			fe.emitName(opcode.DEBUG_PRINT_STRING_CONST, ": ", 0)
			fe.emit(opcode.COPY, t.Size()-m.Offset, m.Type.Size())
			fe.emitDebugPrintType(m.Type)
			if i != len(sd.Members)-1 {
				fe.emitName(opcode.DEBUG_PRINT_STRING_CONST, ", ", 0)
			}
		}
		fe.emitName(opcode.DEBUG_PRINT_STRING_CONST, "}", 0)
		fe.emit(opcode.POP, t.Size(), 0)
	}
}

// emitArrayLiteral allocates a fresh array and stores every element in
// one block write: push the handle, push every element contiguously,
// COPY the handle back to the top (ARRAY_STORE consumes it), store the
// whole element block at index 0, then drop the leftover element-block
// copy ARRAY_STORE leaves behind, so only the handle remains.
func (fe *funcEmitter) emitArrayLiteral(n *ast.ArrayLiteralExpr) {
	elemSize := n.ResultType.Elem.Size()
	fe.emit(opcode.ARRAY_CREATE, elemSize, 0)

	if len(n.Elements) == 0 {
		return
	}
	for _, el := range n.Elements {
		fe.emitExpr(el)
	}
	blockSize := len(n.Elements) * elemSize
	handleSize := n.ResultType.Size()
	fe.emit(opcode.COPY, blockSize+handleSize, handleSize)
	fe.emit(opcode.INT, 0, 0)
	fe.emit(opcode.ARRAY_STORE, blockSize, 0)
	fe.emit(opcode.POP, blockSize, 0)
}

func (fe *funcEmitter) emitMemberAccess(n *ast.MemberAccessExpr) {
	objType := n.Object.Base().ResultType
	switch objType.Kind {
	case types.Struct, types.Vec3:
		fe.emitLoadByLValue(n)
	case types.Array:
		fe.emitLoadByLValue(n.Object)
		fe.emit(opcode.ARRAY_LENGTH, 0, 0)
	}
}

func (fe *funcEmitter) emitArrayAccess(n *ast.ArrayAccessExpr) {
	fe.emitLoadByLValue(n.Array)
	fe.emitExpr(n.Index)
	fe.emit(opcode.INT, n.ResultType.Size(), 0)
	fe.emit(opcode.IMUL, 0, 0)
	fe.emit(opcode.ARRAY_LOAD, n.ResultType.Size(), 0)
}

// emitCast compiles the operand and, for the two conversions that need
// real work (int<->float), emits the matching opcode. Every other cast
// pairing the checker allows (same-kind, and array->bool) is a no-op:
// bool and array share the same 4-byte int representation already on
// the stack.
func (fe *funcEmitter) emitCast(n *ast.CastExpr) {
	fe.emitExpr(n.Operand)
	from := n.Operand.Base().ResultType.Kind
	to := n.ResultType.Kind
	switch {
	case to == types.Float && from == types.Int:
		fe.emit(opcode.I2F, 0, 0)
	case to == types.Int && from == types.Float:
		fe.emit(opcode.F2I, 0, 0)
	}
}
