package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anthropics/mscript/internal/ast"
)

func parse(t *testing.T, src string) *ast.File {
	t.Helper()
	f, errd := Parse("t.mscript", []byte(src))
	require.Nil(t, errd, "unexpected parse error")
	return f
}

func TestParseFunctionDecl(t *testing.T) {
	f := parse(t, `int fib(int n) { return n; }`)
	require.Len(t, f.Statements, 1)
	fn, ok := f.Statements[0].(*ast.FunctionDeclStmt)
	require.True(t, ok)
	require.Equal(t, "fib", fn.Name)
	require.Equal(t, "int", fn.ReturnType.Name)
	require.Len(t, fn.Params, 1)
	require.Equal(t, "n", fn.Params[0].Name)
	require.Len(t, fn.Body.Statements, 1)
}

func TestParseGlobalDecl(t *testing.T) {
	f := parse(t, `int counter = 0;`)
	g, ok := f.Statements[0].(*ast.GlobalDeclStmt)
	require.True(t, ok)
	require.Equal(t, "counter", g.Name)
	require.IsType(t, &ast.IntLiteralExpr{}, g.Init)
}

func TestParseStructAndEnum(t *testing.T) {
	f := parse(t, `
struct Point { int x, y; float z; }
enum Color { Red, Green, Blue }
`)
	require.Len(t, f.Statements, 2)
	s := f.Statements[0].(*ast.StructDeclStmt)
	require.Equal(t, "Point", s.Name)
	require.Len(t, s.Members, 3)
	require.Equal(t, "x", s.Members[0].Name)
	require.Equal(t, "z", s.Members[2].Name)

	e := f.Statements[1].(*ast.EnumDeclStmt)
	require.Equal(t, []string{"Red", "Green", "Blue"}, e.Values)
}

func TestParseImportAndImportFunction(t *testing.T) {
	f := parse(t, `
import "other.mscript";
import_function void host_log(int level, char* msg);
`)
	imp := f.Statements[0].(*ast.ImportStmt)
	require.Equal(t, "other.mscript", imp.Path)

	fn := f.Statements[1].(*ast.ImportFunctionStmt)
	require.Equal(t, "host_log", fn.Name)
	require.Equal(t, "void", fn.ReturnType.Name)
	require.Len(t, fn.Params, 2)
	require.Equal(t, "char*", fn.Params[1].Type.Name)
}

func TestParsePrintRewrittenToDebugPrint(t *testing.T) {
	f := parse(t, `int main() { print(1, 2); return 0; }`)
	fn := f.Statements[0].(*ast.FunctionDeclStmt)
	stmt := fn.Body.Statements[0].(*ast.ExprStmt)
	dp, ok := stmt.X.(*ast.DebugPrintExpr)
	require.True(t, ok)
	require.Len(t, dp.Args, 2)
}

func TestParseVec3LiteralCall(t *testing.T) {
	f := parse(t, `vec3 v = vec3(1, 2, 3);`)
	g := f.Statements[0].(*ast.GlobalDeclStmt)
	v3, ok := g.Init.(*ast.Vec3LiteralExpr)
	require.True(t, ok)
	require.IsType(t, &ast.IntLiteralExpr{}, v3.X)
}

func TestParseVec3WrongArgCountErrors(t *testing.T) {
	_, errd := Parse("t.mscript", []byte(`vec3 v = vec3(1, 2);`))
	require.NotNil(t, errd)
	require.Equal(t, "wrong-arg-count", string(errd.Kind))
}

func TestParseCompoundAssignDesugars(t *testing.T) {
	f := parse(t, `int main() { int x = 0; x += 1; return x; }`)
	fn := f.Statements[0].(*ast.FunctionDeclStmt)
	stmt := fn.Body.Statements[1].(*ast.ExprStmt)
	assign, ok := stmt.X.(*ast.AssignExpr)
	require.True(t, ok)
	bin, ok := assign.Value.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.OpAdd, bin.Op)
	require.IsType(t, &ast.SymbolRefExpr{}, bin.Left)
}

func TestParseBinaryPrecedence(t *testing.T) {
	f := parse(t, `int x = 1 + 2 * 3;`)
	g := f.Statements[0].(*ast.GlobalDeclStmt)
	top := g.Init.(*ast.BinaryExpr)
	require.Equal(t, ast.OpAdd, top.Op)
	require.IsType(t, &ast.IntLiteralExpr{}, top.Left)
	mul := top.Right.(*ast.BinaryExpr)
	require.Equal(t, ast.OpMul, mul.Op)
}

func TestParseArrayAndMemberAccess(t *testing.T) {
	f := parse(t, `int main() { return a[0].x; }`)
	fn := f.Statements[0].(*ast.FunctionDeclStmt)
	ret := fn.Body.Statements[0].(*ast.ReturnStmt)
	member := ret.Value.(*ast.MemberAccessExpr)
	require.Equal(t, "x", member.Member)
	access := member.Object.(*ast.ArrayAccessExpr)
	require.IsType(t, &ast.SymbolRefExpr{}, access.Array)
}

func TestParseArrayAndObjectLiterals(t *testing.T) {
	f := parse(t, `int[] xs = [1, 2, 3];`)
	g := f.Statements[0].(*ast.GlobalDeclStmt)
	arr, ok := g.Init.(*ast.ArrayLiteralExpr)
	require.True(t, ok)
	require.Len(t, arr.Elements, 3)
	require.True(t, g.Type.IsArray)

	f2 := parse(t, `Point p = { x = 1, y = 2 };`)
	g2 := f2.Statements[0].(*ast.GlobalDeclStmt)
	obj, ok := g2.Init.(*ast.ObjectLiteralExpr)
	require.True(t, ok)
	require.Len(t, obj.Fields, 2)
	require.Equal(t, "x", obj.Fields[0].Name)
}

func TestParseIfElifElse(t *testing.T) {
	f := parse(t, `
int choose(int n) {
	if (n < 0) {
		return 0;
	} elif (n == 0) {
		return 1;
	} else {
		return 2;
	}
}
`)
	fn := f.Statements[0].(*ast.FunctionDeclStmt)
	ifs := fn.Body.Statements[0].(*ast.IfStmt)
	require.Len(t, ifs.Branches, 3)
	require.Nil(t, ifs.Branches[2].Cond)
}

func TestParseForLoop(t *testing.T) {
	f := parse(t, `
int sum() {
	int total = 0;
	for (int i = 0; i < 10; i++) {
		total = total + i;
	}
	return total;
}
`)
	fn := f.Statements[0].(*ast.FunctionDeclStmt)
	forStmt := fn.Body.Statements[1].(*ast.ForStmt)
	require.IsType(t, &ast.VariableDeclStmt{}, forStmt.Init)
	require.NotNil(t, forStmt.Cond)
	require.IsType(t, &ast.UnaryExpr{}, forStmt.Inc)
}

func TestParsePostIncrement(t *testing.T) {
	f := parse(t, `int main() { int x = 0; x++; return x; }`)
	fn := f.Statements[0].(*ast.FunctionDeclStmt)
	stmt := fn.Body.Statements[1].(*ast.ExprStmt)
	incr, ok := stmt.X.(*ast.UnaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.OpPostIncr, incr.Op)
}

func TestParseUnaryNot(t *testing.T) {
	f := parse(t, `bool main() { return !done; }`)
	fn := f.Statements[0].(*ast.FunctionDeclStmt)
	ret := fn.Body.Statements[0].(*ast.ReturnStmt)
	not, ok := ret.Value.(*ast.UnaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.OpNot, not.Op)
}

func TestParseErrorStopsAtFirstToken(t *testing.T) {
	_, errd := Parse("t.mscript", []byte(`int main() { return ; }`))
	require.Nil(t, errd) // `return;` with no value is valid (void-like early return)

	_, errd2 := Parse("t.mscript", []byte(`int x = ;`))
	require.NotNil(t, errd2)
}

func TestParseVoidPointerType(t *testing.T) {
	f := parse(t, `void* handle = NULL;`)
	g := f.Statements[0].(*ast.GlobalDeclStmt)
	require.Equal(t, "void*", g.Type.Name)
	require.IsType(t, &ast.NullExpr{}, g.Init)
}
