// Package ast defines the two algebraic AST variants — Expression and
// Statement — used by the parser, type checker, and compiler (spec §3).
// Node kinds are Go structs implementing a common interface, the same
// tagged-union-via-interface shape the teacher's ast.go uses for Vibe67's
// node set, replaced wholesale with mscript's own node kinds.
package ast

import (
	"github.com/anthropics/mscript/internal/token"
	"github.com/anthropics/mscript/internal/types"
)

// LValueKind tags where a writable expression lives.
type LValueKind int

const (
	LValueInvalid LValueKind = iota
	LValueLocal
	LValueGlobal
	LValueArray
)

// LValue is the compile-time descriptor of a writable expression (spec
// §3, "L-value descriptor").
type LValue struct {
	Kind   LValueKind
	Offset int // for Local/Global: the frame/global offset
}

// Node is implemented by every AST node.
type Node interface {
	Tok() token.Token
}

// Expression is implemented by every expression node. Every field common
// to all expression kinds (source token, post-check result type, folded
// constant, l-value) lives on the embedded Base, matching spec §3's "each
// carries ... a post-check result_type, is_const and const_val, and an
// lvalue descriptor".
type Expression interface {
	Node
	exprNode()
	Base() *ExprBase
	String() string
}

// ExprBase holds the fields shared by every expression kind.
type ExprBase struct {
	Token      token.Token
	ResultType *types.Type
	IsConst    bool
	ConstVal   types.Value
	LValue     LValue
}

func (b *ExprBase) Tok() token.Token  { return b.Token }
func (b *ExprBase) Base() *ExprBase   { return b }
func (b *ExprBase) exprNode()         {}

// Statement is implemented by every statement node.
type Statement interface {
	Node
	stmtNode()
	String() string
}

// StmtBase holds the fields shared by every statement kind.
type StmtBase struct {
	Token token.Token
}

func (b *StmtBase) Tok() token.Token { return b.Token }
func (b *StmtBase) stmtNode()        {}

// BinaryOp identifies a binary operator.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpLt
	OpLte
	OpGt
	OpGte
	OpEq
	OpNeq
)

// UnaryOp identifies a unary/postfix operator.
type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpPostIncr
)

// --- Expression node kinds ---

type UnaryExpr struct {
	ExprBase
	Op      UnaryOp
	Operand Expression
}

type BinaryExpr struct {
	ExprBase
	Op    BinaryOp
	Left  Expression
	Right Expression
}

type CallExpr struct {
	ExprBase
	Callee Expression // always a symbol reference in this grammar
	Name   string
	Args   []Expression
}

type DebugPrintExpr struct {
	ExprBase
	Args []Expression
}

type ArrayAccessExpr struct {
	ExprBase
	Array Expression
	Index Expression
}

type MemberAccessExpr struct {
	ExprBase
	Object Expression
	Member string
	// MemberOffset is the byte offset of Member within Object, filled in
	// by the checker regardless of Object's lvalue kind. A Local/Global
	// base folds it directly into ExprBase.LValue.Offset; an Array base
	// needs it again at codegen time to combine with Object's own
	// runtime-computed offset (spec §4.6's lvalue recursion).
	MemberOffset int
}

type AssignExpr struct {
	ExprBase
	Target Expression
	Value  Expression
}

type IntLiteralExpr struct {
	ExprBase
	Value int32
}

type FloatLiteralExpr struct {
	ExprBase
	Value float32
}

type SymbolRefExpr struct {
	ExprBase
	Name string
}

type NullExpr struct {
	ExprBase
}

type StringLiteralExpr struct {
	ExprBase
	Value string
}

type ArrayLiteralExpr struct {
	ExprBase
	Elements []Expression
}

type ObjectLiteralField struct {
	Name  string
	Value Expression
}

type ObjectLiteralExpr struct {
	ExprBase
	Fields []ObjectLiteralField
}

type Vec3LiteralExpr struct {
	ExprBase
	X, Y, Z Expression
}

type CastExpr struct {
	ExprBase
	To       *types.Type
	Operand  Expression
	Implicit bool
}

// TypeExpr is a type name as written in source, before the checker has
// resolved it against a symbol table (spec §4.3 grammar's `type`
// production: a builtin keyword or a symbol, with an optional trailing
// `[]`). Declaration sites carry a *TypeExpr; only post-check fields
// (ExprBase.ResultType, CastExpr.To) carry a resolved *types.Type.
type TypeExpr struct {
	Token   token.Token
	Name    string // "void", "int", "float", "bool", "void*", "char*", or a struct/enum name
	IsArray bool
}

// --- Statement node kinds ---

type IfBranch struct {
	Cond Expression // nil for the mandatory else branch
	Body *BlockStmt
}

type IfStmt struct {
	StmtBase
	Branches []IfBranch
}

type ReturnStmt struct {
	StmtBase
	Value Expression // nil for void return
}

type BlockStmt struct {
	StmtBase
	Statements []Statement
}

type Param struct {
	Name string
	Type *TypeExpr
}

type FunctionDeclStmt struct {
	StmtBase
	Name       string
	ReturnType *TypeExpr
	Params     []Param
	Body       *BlockStmt
}

type GlobalDeclStmt struct {
	StmtBase
	Name string
	Type *TypeExpr
	Init Expression
}

type VariableDeclStmt struct {
	StmtBase
	Name   string
	Type   *TypeExpr
	Init   Expression // nil if uninitialized
	Offset int        // frame offset assigned by the checker (spec §4.4)
}

type StructMemberDecl struct {
	Name string
	Type *TypeExpr
}

type StructDeclStmt struct {
	StmtBase
	Name    string
	Members []StructMemberDecl
}

type EnumDeclStmt struct {
	StmtBase
	Name   string
	Values []string
}

type ImportStmt struct {
	StmtBase
	Path string
}

type ImportFunctionStmt struct {
	StmtBase
	Name       string
	ReturnType *TypeExpr
	Params     []Param
}

type ExprStmt struct {
	StmtBase
	X Expression
}

type ForStmt struct {
	StmtBase
	Init Statement // a VariableDeclStmt or ExprStmt, may be nil
	Cond Expression
	Inc  Expression
	Body *BlockStmt
}

// File is the top-level parse result of one source file.
type File struct {
	Statements []Statement
	// Arena owns every node in Statements (and every *CastExpr the type
	// checker later inserts for this file) so it can all be released in
	// one shot when the file's Program is dropped (spec §4.1, §3's
	// Program.arena field).
	Arena *Arena
}
