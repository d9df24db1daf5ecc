// Package parser implements mscript's recursive-descent parser (spec
// §4.3), turning a token stream into an *ast.File. Structurally this
// follows the teacher's parser.go: a two-token lookahead buffer, an
// error() that records the first failure and unwinds the current parse
// via panic/recover rather than threading an error return through every
// production (railway-oriented parsing), and one method per grammar
// production. What differs is the grammar itself and the node set it
// builds.
package parser

import (
	"github.com/anthropics/mscript/internal/ast"
	"github.com/anthropics/mscript/internal/diag"
	"github.com/anthropics/mscript/internal/lexer"
	"github.com/anthropics/mscript/internal/token"
)

// stopParsing unwinds the recursive descent back to Parse once the
// first error has been recorded, matching spec §4.3's "parsing stops
// on the first error".
type stopParsing struct{}

type Parser struct {
	file    string
	toks    []token.Token
	pos     int
	errs    diag.List
	current token.Token
	next    token.Token
	arena   *ast.Arena
}

func New(file string, toks []token.Token) *Parser {
	p := &Parser{file: file, toks: toks, arena: ast.NewArena()}
	p.current = p.at(0)
	p.next = p.at(1)
	return p
}

func (p *Parser) at(i int) token.Token {
	if p.pos+i < len(p.toks) {
		return p.toks[p.pos+i]
	}
	if len(p.toks) > 0 {
		return p.toks[len(p.toks)-1] // EOF token
	}
	return token.Token{Kind: token.EOF}
}

func (p *Parser) advance() {
	p.pos++
	p.current = p.at(0)
	p.next = p.at(1)
}

func (p *Parser) pos_() diag.Pos {
	return diag.Pos{File: p.file, Line: p.current.Line, Column: p.current.Column}
}

func (p *Parser) error(kind diag.Kind, format string, args ...any) {
	p.errs.Add(diag.New(diag.CategoryParse, kind, p.pos_(), format, args...))
	panic(stopParsing{})
}

func (p *Parser) expectChar(ch byte) token.Token {
	if !p.current.Is(ch) {
		p.error("expected-char", "expected %q, got %s", string(ch), p.current)
	}
	t := p.current
	p.advance()
	return t
}

func (p *Parser) acceptChar(ch byte) bool {
	if p.current.Is(ch) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expectSymbol() token.Token {
	if p.current.Kind != token.Symbol {
		p.error("expected-symbol", "expected identifier, got %s", p.current)
	}
	t := p.current
	p.advance()
	return t
}

func (p *Parser) acceptKeyword(name string) bool {
	if p.current.IsSymbol(name) {
		p.advance()
		return true
	}
	return false
}

// Parse lexes src with lexer.Tokenize, consumes the tokens to the end
// and returns the parsed file, or the first lexer or parser diagnostic.
func Parse(file string, src []byte) (*ast.File, *diag.Diag) {
	toks, lexErr := lexer.Tokenize(file, src)
	if lexErr != nil {
		return nil, lexErr
	}
	p := New(file, toks)
	f, ok := p.parseFile()
	if !ok {
		return nil, p.errs.First()
	}
	return f, nil
}

func (p *Parser) parseFile() (f *ast.File, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, isStop := r.(stopParsing); isStop {
				ok = false
				return
			}
			panic(r)
		}
	}()

	file := &ast.File{Arena: p.arena}
	for p.current.Kind != token.EOF {
		file.Statements = append(file.Statements, p.parseTopLevel())
	}
	return file, true
}

func (p *Parser) parseTopLevel() ast.Statement {
	switch {
	case p.current.IsSymbol("import"):
		return p.parseImport()
	case p.current.IsSymbol("import_function"):
		return p.parseImportFunction()
	case p.current.IsSymbol("struct"):
		return p.parseStruct()
	case p.current.IsSymbol("enum"):
		return p.parseEnum()
	default:
		return p.parseGlobalOrFunction()
	}
}

func (p *Parser) parseImport() ast.Statement {
	tok := p.current
	p.advance() // 'import'
	if p.current.Kind != token.String {
		p.error("expected-string", "expected a string path, got %s", p.current)
	}
	path := p.current.Text
	p.advance()
	p.expectChar(';')
	return p.arena.NewImportStmt(ast.ImportStmt{StmtBase: ast.StmtBase{Token: tok}, Path: path})
}

// parseImportFunction implements `import_function T name(args);` (spec
// §4.8, "import_function T name(args);"), declaring a host-provided
// native function's signature.
func (p *Parser) parseImportFunction() ast.Statement {
	tok := p.current
	p.advance() // 'import_function'
	retType := p.parseType()
	name := p.expectSymbol().Text
	p.expectChar('(')
	params := p.parseParamList()
	p.expectChar(')')
	p.expectChar(';')
	return p.arena.NewImportFunctionStmt(ast.ImportFunctionStmt{
		StmtBase:   ast.StmtBase{Token: tok},
		Name:       name,
		ReturnType: retType,
		Params:     params,
	})
}

func (p *Parser) parseStruct() ast.Statement {
	tok := p.current
	p.advance() // 'struct'
	name := p.expectSymbol().Text
	p.expectChar('{')

	var members []ast.StructMemberDecl
	for !p.current.Is('}') {
		t := p.parseType()
		memberName := p.expectSymbol().Text
		members = append(members, ast.StructMemberDecl{Name: memberName, Type: t})
		for p.acceptChar(',') {
			memberName := p.expectSymbol().Text
			members = append(members, ast.StructMemberDecl{Name: memberName, Type: t})
		}
		p.expectChar(';')
	}
	p.expectChar('}')
	return p.arena.NewStructDeclStmt(ast.StructDeclStmt{StmtBase: ast.StmtBase{Token: tok}, Name: name, Members: members})
}

func (p *Parser) parseEnum() ast.Statement {
	tok := p.current
	p.advance() // 'enum'
	name := p.expectSymbol().Text
	p.expectChar('{')

	var values []string
	if !p.current.Is('}') {
		values = append(values, p.expectSymbol().Text)
		for p.acceptChar(',') {
			values = append(values, p.expectSymbol().Text)
		}
	}
	p.expectChar('}')
	return p.arena.NewEnumDeclStmt(ast.EnumDeclStmt{StmtBase: ast.StmtBase{Token: tok}, Name: name, Values: values})
}

// parseGlobalOrFunction handles `global`, `function`: both start with
// `type SYM`, diverging on whether `(` or `=`/`;` follows.
func (p *Parser) parseGlobalOrFunction() ast.Statement {
	tok := p.current
	t := p.parseType()
	name := p.expectSymbol().Text

	if p.current.Is('(') {
		p.advance()
		params := p.parseParamList()
		p.expectChar(')')
		body := p.parseBlock()
		return p.arena.NewFunctionDeclStmt(ast.FunctionDeclStmt{
			StmtBase:   ast.StmtBase{Token: tok},
			Name:       name,
			ReturnType: t,
			Params:     params,
			Body:       body,
		})
	}

	p.expectChar('=')
	init := p.parseExpr()
	p.expectChar(';')
	return p.arena.NewGlobalDeclStmt(ast.GlobalDeclStmt{StmtBase: ast.StmtBase{Token: tok}, Name: name, Type: t, Init: init})
}

func (p *Parser) parseParamList() []ast.Param {
	var params []ast.Param
	if p.current.Is(')') {
		return nil
	}
	params = append(params, p.parseParam())
	for p.acceptChar(',') {
		params = append(params, p.parseParam())
	}
	return params
}

func (p *Parser) parseParam() ast.Param {
	t := p.parseType()
	name := p.expectSymbol().Text
	return ast.Param{Name: name, Type: t}
}

// parseType implements `type := ('void' '*'? | 'char' '*' | 'int' |
// 'float' | 'bool' | SYM) ('[' ']')?`.
func (p *Parser) parseType() *ast.TypeExpr {
	tok := p.current
	var name string
	switch {
	case p.acceptKeyword("void"):
		name = "void"
		if p.acceptChar('*') {
			name = "void*"
		}
	case p.acceptKeyword("int"):
		name = "int"
	case p.acceptKeyword("float"):
		name = "float"
	case p.acceptKeyword("bool"):
		name = "bool"
	case p.current.IsSymbol("char") && p.next.Is('*'):
		p.advance()
		p.advance()
		name = "char*"
	case p.current.Kind == token.Symbol:
		name = p.current.Text
		p.advance()
	default:
		p.error("expected-type", "expected a type, got %s", p.current)
	}

	isArray := false
	if p.current.Is('[') && p.next.Is(']') {
		p.advance()
		p.advance()
		isArray = true
	}
	return p.arena.NewTypeExpr(ast.TypeExpr{Token: tok, Name: name, IsArray: isArray})
}

// --- Statements ---

func (p *Parser) parseBlock() *ast.BlockStmt {
	tok := p.expectChar('{')
	var stmts []ast.Statement
	for !p.current.Is('}') {
		stmts = append(stmts, p.parseStmt())
	}
	p.expectChar('}')
	return p.arena.NewBlockStmt(ast.BlockStmt{StmtBase: ast.StmtBase{Token: tok}, Statements: stmts})
}

func (p *Parser) parseStmt() ast.Statement {
	switch {
	case p.current.IsSymbol("if"):
		return p.parseIf()
	case p.current.IsSymbol("for"):
		return p.parseFor()
	case p.current.IsSymbol("return"):
		return p.parseReturn()
	case p.current.Is('{'):
		return p.parseBlock()
	case p.isTypeStart():
		return p.parseVariableDecl()
	default:
		tok := p.current
		e := p.parseExpr()
		p.expectChar(';')
		return p.arena.NewExprStmt(ast.ExprStmt{StmtBase: ast.StmtBase{Token: tok}, X: e})
	}
}

// isTypeStart reports whether the current token begins a `type SYM`
// variable declaration rather than an expression statement. A bare
// symbol statement is only ever a declaration if it is followed
// immediately by another symbol (the variable's name); otherwise it is
// parsed as an expression (an assignment or call).
func (p *Parser) isTypeStart() bool {
	switch p.current.Text {
	case "void", "int", "float", "bool":
		return p.current.Kind == token.Symbol
	}
	return p.current.Kind == token.Symbol && p.next.Kind == token.Symbol
}

func (p *Parser) parseVariableDecl() ast.Statement {
	tok := p.current
	t := p.parseType()
	name := p.expectSymbol().Text

	var init ast.Expression
	if p.acceptChar('=') {
		init = p.parseExpr()
	}
	p.expectChar(';')
	return p.arena.NewVariableDeclStmt(ast.VariableDeclStmt{StmtBase: ast.StmtBase{Token: tok}, Name: name, Type: t, Init: init})
}

func (p *Parser) parseIf() ast.Statement {
	tok := p.current
	var branches []ast.IfBranch

	p.advance() // 'if'
	p.expectChar('(')
	cond := p.parseExpr()
	p.expectChar(')')
	branches = append(branches, ast.IfBranch{Cond: cond, Body: p.parseBlock()})

	for p.current.IsSymbol("elif") {
		p.advance()
		p.expectChar('(')
		cond := p.parseExpr()
		p.expectChar(')')
		branches = append(branches, ast.IfBranch{Cond: cond, Body: p.parseBlock()})
	}

	if p.current.IsSymbol("else") {
		p.advance()
		branches = append(branches, ast.IfBranch{Cond: nil, Body: p.parseBlock()})
	}

	return p.arena.NewIfStmt(ast.IfStmt{StmtBase: ast.StmtBase{Token: tok}, Branches: branches})
}

func (p *Parser) parseFor() ast.Statement {
	tok := p.current
	p.advance() // 'for'
	p.expectChar('(')

	var init ast.Statement
	if !p.current.Is(';') {
		if p.isTypeStart() {
			init = p.parseVariableDecl()
		} else {
			initTok := p.current
			e := p.parseExpr()
			p.expectChar(';')
			init = p.arena.NewExprStmt(ast.ExprStmt{StmtBase: ast.StmtBase{Token: initTok}, X: e})
		}
	} else {
		p.expectChar(';')
	}

	var cond ast.Expression
	if !p.current.Is(';') {
		cond = p.parseExpr()
	}
	p.expectChar(';')

	var inc ast.Expression
	if !p.current.Is(')') {
		inc = p.parseExpr()
	}
	p.expectChar(')')

	body := p.parseBlock()
	return p.arena.NewForStmt(ast.ForStmt{StmtBase: ast.StmtBase{Token: tok}, Init: init, Cond: cond, Inc: inc, Body: body})
}

func (p *Parser) parseReturn() ast.Statement {
	tok := p.current
	p.advance() // 'return'
	var value ast.Expression
	if !p.current.Is(';') {
		value = p.parseExpr()
	}
	p.expectChar(';')
	return p.arena.NewReturnStmt(ast.ReturnStmt{StmtBase: ast.StmtBase{Token: tok}, Value: value})
}

// --- Expressions ---

func (p *Parser) parseExpr() ast.Expression {
	return p.parseAssign()
}

var compoundOps = map[byte]ast.BinaryOp{
	'+': ast.OpAdd,
	'-': ast.OpSub,
	'*': ast.OpMul,
	'/': ast.OpDiv,
}

// parseAssign implements `assign := comparison (('=' | '+=' | '-=' |
// '*=' | '/=') assign)*`, desugaring compound assignment `x op= y`
// into `x = x op y` at parse time (spec §4.3).
func (p *Parser) parseAssign() ast.Expression {
	left := p.parseComparison()

	if p.current.Is('=') && !p.next.Is('=') {
		tok := p.current
		p.advance()
		right := p.parseAssign()
		return p.arena.NewAssignExpr(ast.AssignExpr{ExprBase: ast.ExprBase{Token: tok}, Target: left, Value: right})
	}

	for _, ch := range []byte{'+', '-', '*', '/'} {
		if p.current.Is(ch) && p.next.Is('=') {
			tok := p.current
			p.advance()
			p.advance()
			right := p.parseAssign()
			op := compoundOps[ch]
			desugared := p.arena.NewBinaryExpr(ast.BinaryExpr{ExprBase: ast.ExprBase{Token: tok}, Op: op, Left: left, Right: right})
			return p.arena.NewAssignExpr(ast.AssignExpr{ExprBase: ast.ExprBase{Token: tok}, Target: left, Value: desugared})
		}
	}

	return left
}

func (p *Parser) parseComparison() ast.Expression {
	left := p.parseTerm()
	for {
		var op ast.BinaryOp
		switch {
		case p.current.Is('<') && p.next.Is('='):
			op = ast.OpLte
			p.advance()
			p.advance()
		case p.current.Is('<'):
			op = ast.OpLt
			p.advance()
		case p.current.Is('>') && p.next.Is('='):
			op = ast.OpGte
			p.advance()
			p.advance()
		case p.current.Is('>'):
			op = ast.OpGt
			p.advance()
		case p.current.Is('=') && p.next.Is('='):
			op = ast.OpEq
			p.advance()
			p.advance()
		case p.current.Is('!') && p.next.Is('='):
			op = ast.OpNeq
			p.advance()
			p.advance()
		default:
			return left
		}
		tok := left.Tok()
		right := p.parseTerm()
		left = p.arena.NewBinaryExpr(ast.BinaryExpr{ExprBase: ast.ExprBase{Token: tok}, Op: op, Left: left, Right: right})
	}
}

// parseTerm implements `term := factor (('+' | '-') factor)*`, where
// `+`/`-` must not be followed by `=` (that is compound assignment,
// handled one level up in parseAssign).
func (p *Parser) parseTerm() ast.Expression {
	left := p.parseFactor()
	for {
		var op ast.BinaryOp
		switch {
		case p.current.Is('+') && !p.next.Is('='):
			op = ast.OpAdd
		case p.current.Is('-') && !p.next.Is('='):
			op = ast.OpSub
		default:
			return left
		}
		p.advance()
		tok := left.Tok()
		right := p.parseFactor()
		left = p.arena.NewBinaryExpr(ast.BinaryExpr{ExprBase: ast.ExprBase{Token: tok}, Op: op, Left: left, Right: right})
	}
}

func (p *Parser) parseFactor() ast.Expression {
	left := p.parseUnary()
	for {
		var op ast.BinaryOp
		switch {
		case p.current.Is('*') && !p.next.Is('='):
			op = ast.OpMul
		case p.current.Is('/') && !p.next.Is('='):
			op = ast.OpDiv
		default:
			return left
		}
		p.advance()
		tok := left.Tok()
		right := p.parseUnary()
		left = p.arena.NewBinaryExpr(ast.BinaryExpr{ExprBase: ast.ExprBase{Token: tok}, Op: op, Left: left, Right: right})
	}
}

func (p *Parser) parseUnary() ast.Expression {
	if p.current.Is('!') {
		tok := p.current
		p.advance()
		operand := p.parsePostfix()
		return p.arena.NewUnaryExpr(ast.UnaryExpr{ExprBase: ast.ExprBase{Token: tok}, Op: ast.OpNot, Operand: operand})
	}

	e := p.parsePostfix()
	if p.current.Is('+') && p.next.Is('+') {
		tok := e.Tok()
		p.advance()
		p.advance()
		return p.arena.NewUnaryExpr(ast.UnaryExpr{ExprBase: ast.ExprBase{Token: tok}, Op: ast.OpPostIncr, Operand: e})
	}
	return e
}

func (p *Parser) parsePostfix() ast.Expression {
	e := p.parseCall()
	for {
		switch {
		case p.current.Is('.'):
			tok := p.current
			p.advance()
			member := p.expectSymbol().Text
			e = p.arena.NewMemberAccessExpr(ast.MemberAccessExpr{ExprBase: ast.ExprBase{Token: tok}, Object: e, Member: member})
		case p.current.Is('['):
			tok := p.current
			p.advance()
			idx := p.parseExpr()
			p.expectChar(']')
			e = p.arena.NewArrayAccessExpr(ast.ArrayAccessExpr{ExprBase: ast.ExprBase{Token: tok}, Array: e, Index: idx})
		default:
			return e
		}
	}
}

// parseCall implements `call := primary ('(' (expr (',' expr)*)? ')')?`
// and the two parse-time call rewrites: `print(...)` becomes a
// debug-print node, `vec3(a,b,c)` becomes a vec3-literal node.
func (p *Parser) parseCall() ast.Expression {
	e := p.parsePrimary()
	if !p.current.Is('(') {
		return e
	}

	sym, isSymbol := e.(*ast.SymbolRefExpr)
	tok := e.Tok()
	p.advance() // '('
	args := p.parseArgList()
	p.expectChar(')')

	if isSymbol && sym.Name == "print" {
		return p.arena.NewDebugPrintExpr(ast.DebugPrintExpr{ExprBase: ast.ExprBase{Token: tok}, Args: args})
	}
	if isSymbol && sym.Name == "vec3" {
		if len(args) != 3 {
			p.error("wrong-arg-count", "vec3() requires exactly 3 arguments, got %d", len(args))
		}
		return p.arena.NewVec3LiteralExpr(ast.Vec3LiteralExpr{ExprBase: ast.ExprBase{Token: tok}, X: args[0], Y: args[1], Z: args[2]})
	}

	name := ""
	if isSymbol {
		name = sym.Name
	}
	return p.arena.NewCallExpr(ast.CallExpr{ExprBase: ast.ExprBase{Token: tok}, Callee: e, Name: name, Args: args})
}

func (p *Parser) parseArgList() []ast.Expression {
	var args []ast.Expression
	if p.current.Is(')') {
		return nil
	}
	args = append(args, p.parseExpr())
	for p.acceptChar(',') {
		args = append(args, p.parseExpr())
	}
	return args
}

func (p *Parser) parsePrimary() ast.Expression {
	tok := p.current
	switch {
	case p.current.Kind == token.Int:
		p.advance()
		return p.arena.NewIntLiteralExpr(ast.IntLiteralExpr{ExprBase: ast.ExprBase{Token: tok}, Value: int32(tok.IntVal)})
	case p.current.Kind == token.Float:
		p.advance()
		return p.arena.NewFloatLiteralExpr(ast.FloatLiteralExpr{ExprBase: ast.ExprBase{Token: tok}, Value: float32(tok.FltVal)})
	case p.current.Kind == token.String:
		p.advance()
		return p.arena.NewStringLiteralExpr(ast.StringLiteralExpr{ExprBase: ast.ExprBase{Token: tok}, Value: tok.Text})
	case p.current.IsSymbol("NULL"):
		p.advance()
		return p.arena.NewNullExpr(ast.NullExpr{ExprBase: ast.ExprBase{Token: tok}})
	case p.current.Kind == token.Symbol:
		p.advance()
		return p.arena.NewSymbolRefExpr(ast.SymbolRefExpr{ExprBase: ast.ExprBase{Token: tok}, Name: tok.Text})
	case p.current.Is('['):
		return p.parseArrayLiteral()
	case p.current.Is('{'):
		return p.parseObjectLiteral()
	case p.current.Is('('):
		p.advance()
		e := p.parseExpr()
		p.expectChar(')')
		return e
	default:
		p.error("unknown-token", "unexpected token %s", p.current)
		panic("unreachable")
	}
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	tok := p.expectChar('[')
	var elems []ast.Expression
	if !p.current.Is(']') {
		elems = append(elems, p.parseExpr())
		for p.acceptChar(',') {
			elems = append(elems, p.parseExpr())
		}
	}
	p.expectChar(']')
	return p.arena.NewArrayLiteralExpr(ast.ArrayLiteralExpr{ExprBase: ast.ExprBase{Token: tok}, Elements: elems})
}

func (p *Parser) parseObjectLiteral() ast.Expression {
	tok := p.expectChar('{')
	var fields []ast.ObjectLiteralField
	if !p.current.Is('}') {
		fields = append(fields, p.parseObjectLiteralField())
		for p.acceptChar(',') {
			fields = append(fields, p.parseObjectLiteralField())
		}
	}
	p.expectChar('}')
	return p.arena.NewObjectLiteralExpr(ast.ObjectLiteralExpr{ExprBase: ast.ExprBase{Token: tok}, Fields: fields})
}

func (p *Parser) parseObjectLiteralField() ast.ObjectLiteralField {
	name := p.expectSymbol().Text
	p.expectChar('=')
	value := p.parseExpr()
	return ast.ObjectLiteralField{Name: name, Value: value}
}
