package ast

import "github.com/anthropics/mscript/internal/arena"

// Arena owns the backing storage for every node produced while parsing
// (and, for *ast.CastExpr, while type-checking) one source file: one
// typed arena.Pool per concrete node kind (spec §4.1, §9's "arena+index
// pattern" for an ownership-disciplined target language). A Pool hands
// back a stable index internally and a pointer to that slot, so existing
// code keeps passing the usual *ast.XxxExpr/*ast.XxxStmt around; only the
// allocation site changes. Every node parsed out of one file lives as
// long as that file's Program does and is released in one shot with it —
// there is no per-node free.
type Arena struct {
	unary        *arena.Pool[UnaryExpr]
	binary       *arena.Pool[BinaryExpr]
	call         *arena.Pool[CallExpr]
	debugPrint   *arena.Pool[DebugPrintExpr]
	arrayAccess  *arena.Pool[ArrayAccessExpr]
	memberAccess *arena.Pool[MemberAccessExpr]
	assign       *arena.Pool[AssignExpr]
	intLit       *arena.Pool[IntLiteralExpr]
	floatLit     *arena.Pool[FloatLiteralExpr]
	symbolRef    *arena.Pool[SymbolRefExpr]
	nullExpr     *arena.Pool[NullExpr]
	stringLit    *arena.Pool[StringLiteralExpr]
	arrayLit     *arena.Pool[ArrayLiteralExpr]
	objectLit    *arena.Pool[ObjectLiteralExpr]
	vec3Lit      *arena.Pool[Vec3LiteralExpr]
	cast         *arena.Pool[CastExpr]
	typeExpr     *arena.Pool[TypeExpr]

	ifStmt     *arena.Pool[IfStmt]
	returnStmt *arena.Pool[ReturnStmt]
	block      *arena.Pool[BlockStmt]
	funcDecl   *arena.Pool[FunctionDeclStmt]
	globalDecl *arena.Pool[GlobalDeclStmt]
	varDecl    *arena.Pool[VariableDeclStmt]
	structDecl *arena.Pool[StructDeclStmt]
	enumDecl   *arena.Pool[EnumDeclStmt]
	importStmt *arena.Pool[ImportStmt]
	importFunc *arena.Pool[ImportFunctionStmt]
	exprStmt   *arena.Pool[ExprStmt]
	forStmt    *arena.Pool[ForStmt]
}

// NewArena returns an empty Arena, one typed Pool per node kind. A
// parser.Parser allocates exactly one of these per file and hands it to
// every *ast.File it produces.
func NewArena() *Arena {
	return &Arena{
		unary:        arena.NewPool[UnaryExpr](),
		binary:       arena.NewPool[BinaryExpr](),
		call:         arena.NewPool[CallExpr](),
		debugPrint:   arena.NewPool[DebugPrintExpr](),
		arrayAccess:  arena.NewPool[ArrayAccessExpr](),
		memberAccess: arena.NewPool[MemberAccessExpr](),
		assign:       arena.NewPool[AssignExpr](),
		intLit:       arena.NewPool[IntLiteralExpr](),
		floatLit:     arena.NewPool[FloatLiteralExpr](),
		symbolRef:    arena.NewPool[SymbolRefExpr](),
		nullExpr:     arena.NewPool[NullExpr](),
		stringLit:    arena.NewPool[StringLiteralExpr](),
		arrayLit:     arena.NewPool[ArrayLiteralExpr](),
		objectLit:    arena.NewPool[ObjectLiteralExpr](),
		vec3Lit:      arena.NewPool[Vec3LiteralExpr](),
		cast:         arena.NewPool[CastExpr](),
		typeExpr:     arena.NewPool[TypeExpr](),

		ifStmt:     arena.NewPool[IfStmt](),
		returnStmt: arena.NewPool[ReturnStmt](),
		block:      arena.NewPool[BlockStmt](),
		funcDecl:   arena.NewPool[FunctionDeclStmt](),
		globalDecl: arena.NewPool[GlobalDeclStmt](),
		varDecl:    arena.NewPool[VariableDeclStmt](),
		structDecl: arena.NewPool[StructDeclStmt](),
		enumDecl:   arena.NewPool[EnumDeclStmt](),
		importStmt: arena.NewPool[ImportStmt](),
		importFunc: arena.NewPool[ImportFunctionStmt](),
		exprStmt:   arena.NewPool[ExprStmt](),
		forStmt:    arena.NewPool[ForStmt](),
	}
}

// addPool stores v in p and returns a pointer to its slot, addressable
// for in-place mutation the way the type checker needs (filling in
// ResultType/IsConst/ConstVal/LValue on an already-allocated node).
func addPool[T any](p *arena.Pool[T], v T) *T {
	return p.At(p.Add(v))
}

func (a *Arena) NewUnaryExpr(v UnaryExpr) *UnaryExpr             { return addPool(a.unary, v) }
func (a *Arena) NewBinaryExpr(v BinaryExpr) *BinaryExpr          { return addPool(a.binary, v) }
func (a *Arena) NewCallExpr(v CallExpr) *CallExpr                { return addPool(a.call, v) }
func (a *Arena) NewDebugPrintExpr(v DebugPrintExpr) *DebugPrintExpr {
	return addPool(a.debugPrint, v)
}
func (a *Arena) NewArrayAccessExpr(v ArrayAccessExpr) *ArrayAccessExpr {
	return addPool(a.arrayAccess, v)
}
func (a *Arena) NewMemberAccessExpr(v MemberAccessExpr) *MemberAccessExpr {
	return addPool(a.memberAccess, v)
}
func (a *Arena) NewAssignExpr(v AssignExpr) *AssignExpr             { return addPool(a.assign, v) }
func (a *Arena) NewIntLiteralExpr(v IntLiteralExpr) *IntLiteralExpr { return addPool(a.intLit, v) }
func (a *Arena) NewFloatLiteralExpr(v FloatLiteralExpr) *FloatLiteralExpr {
	return addPool(a.floatLit, v)
}
func (a *Arena) NewSymbolRefExpr(v SymbolRefExpr) *SymbolRefExpr { return addPool(a.symbolRef, v) }
func (a *Arena) NewNullExpr(v NullExpr) *NullExpr                { return addPool(a.nullExpr, v) }
func (a *Arena) NewStringLiteralExpr(v StringLiteralExpr) *StringLiteralExpr {
	return addPool(a.stringLit, v)
}
func (a *Arena) NewArrayLiteralExpr(v ArrayLiteralExpr) *ArrayLiteralExpr {
	return addPool(a.arrayLit, v)
}
func (a *Arena) NewObjectLiteralExpr(v ObjectLiteralExpr) *ObjectLiteralExpr {
	return addPool(a.objectLit, v)
}
func (a *Arena) NewVec3LiteralExpr(v Vec3LiteralExpr) *Vec3LiteralExpr {
	return addPool(a.vec3Lit, v)
}
func (a *Arena) NewCastExpr(v CastExpr) *CastExpr { return addPool(a.cast, v) }
func (a *Arena) NewTypeExpr(v TypeExpr) *TypeExpr { return addPool(a.typeExpr, v) }

func (a *Arena) NewIfStmt(v IfStmt) *IfStmt             { return addPool(a.ifStmt, v) }
func (a *Arena) NewReturnStmt(v ReturnStmt) *ReturnStmt { return addPool(a.returnStmt, v) }
func (a *Arena) NewBlockStmt(v BlockStmt) *BlockStmt    { return addPool(a.block, v) }
func (a *Arena) NewFunctionDeclStmt(v FunctionDeclStmt) *FunctionDeclStmt {
	return addPool(a.funcDecl, v)
}
func (a *Arena) NewGlobalDeclStmt(v GlobalDeclStmt) *GlobalDeclStmt {
	return addPool(a.globalDecl, v)
}
func (a *Arena) NewVariableDeclStmt(v VariableDeclStmt) *VariableDeclStmt {
	return addPool(a.varDecl, v)
}
func (a *Arena) NewStructDeclStmt(v StructDeclStmt) *StructDeclStmt {
	return addPool(a.structDecl, v)
}
func (a *Arena) NewEnumDeclStmt(v EnumDeclStmt) *EnumDeclStmt { return addPool(a.enumDecl, v) }
func (a *Arena) NewImportStmt(v ImportStmt) *ImportStmt       { return addPool(a.importStmt, v) }
func (a *Arena) NewImportFunctionStmt(v ImportFunctionStmt) *ImportFunctionStmt {
	return addPool(a.importFunc, v)
}
func (a *Arena) NewExprStmt(v ExprStmt) *ExprStmt { return addPool(a.exprStmt, v) }
func (a *Arena) NewForStmt(v ForStmt) *ForStmt     { return addPool(a.forStmt, v) }
