package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// String pretty-prints an expression back into mscript source syntax,
// matching the teacher's ast.go String() pattern (spec §8 Testable
// Property 1: printing and re-parsing a node must produce an
// equivalent tree). Output favors round-trip fidelity over readability
// — every sub-expression is fully parenthesized so precedence never has
// to be reconstructed by the reader.
func (e *UnaryExpr) String() string {
	switch e.Op {
	case OpNot:
		return "!" + e.Operand.String()
	case OpPostIncr:
		return e.Operand.String() + "++"
	default:
		return e.Operand.String()
	}
}

var binaryOpText = map[BinaryOp]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/",
	OpLt: "<", OpLte: "<=", OpGt: ">", OpGte: ">=", OpEq: "==", OpNeq: "!=",
}

func (e *BinaryExpr) String() string {
	return "(" + e.Left.String() + " " + binaryOpText[e.Op] + " " + e.Right.String() + ")"
}

func (e *CallExpr) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return e.Name + "(" + strings.Join(args, ", ") + ")"
}

func (e *DebugPrintExpr) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return "print(" + strings.Join(args, ", ") + ")"
}

func (e *ArrayAccessExpr) String() string {
	return e.Array.String() + "[" + e.Index.String() + "]"
}

func (e *MemberAccessExpr) String() string {
	return e.Object.String() + "." + e.Member
}

func (e *AssignExpr) String() string {
	return e.Target.String() + " = " + e.Value.String()
}

func (e *IntLiteralExpr) String() string {
	return strconv.FormatInt(int64(e.Value), 10)
}

func (e *FloatLiteralExpr) String() string {
	return strconv.FormatFloat(float64(e.Value), 'g', -1, 32)
}

func (e *SymbolRefExpr) String() string { return e.Name }

func (e *NullExpr) String() string { return "NULL" }

// String re-escapes the literal's decoded value using only the escapes
// the lexer understands on the way back in (\n and \t; nothing else is
// a valid escape in mscript string literals).
func (e *StringLiteralExpr) String() string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range e.Value {
		switch r {
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func (e *ArrayLiteralExpr) String() string {
	elems := make([]string, len(e.Elements))
	for i, el := range e.Elements {
		elems[i] = el.String()
	}
	return "[" + strings.Join(elems, ", ") + "]"
}

func (e *ObjectLiteralExpr) String() string {
	fields := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		fields[i] = f.Name + " = " + f.Value.String()
	}
	return "{" + strings.Join(fields, ", ") + "}"
}

func (e *Vec3LiteralExpr) String() string {
	return fmt.Sprintf("vec3(%s, %s, %s)", e.X.String(), e.Y.String(), e.Z.String())
}

func (e *CastExpr) String() string {
	// Implicit casts are inserted by the checker, not written by the
	// programmer, so they print as their bare operand — re-parsing never
	// tries to reconstruct a cast the source text never had.
	if e.Implicit {
		return e.Operand.String()
	}
	return "(" + e.To.String() + ")" + e.Operand.String()
}

func (te *TypeExpr) String() string {
	if te.IsArray {
		return te.Name + "[]"
	}
	return te.Name
}

func (s *IfStmt) String() string {
	var b strings.Builder
	for i, br := range s.Branches {
		switch {
		case i == 0:
			fmt.Fprintf(&b, "if (%s) %s", br.Cond.String(), br.Body.String())
		case br.Cond == nil:
			fmt.Fprintf(&b, " else %s", br.Body.String())
		default:
			fmt.Fprintf(&b, " elif (%s) %s", br.Cond.String(), br.Body.String())
		}
	}
	return b.String()
}

func (s *ReturnStmt) String() string {
	if s.Value == nil {
		return "return;"
	}
	return "return " + s.Value.String() + ";"
}

func (s *BlockStmt) String() string {
	lines := make([]string, len(s.Statements))
	for i, st := range s.Statements {
		lines[i] = st.String()
	}
	return "{ " + strings.Join(lines, " ") + " }"
}

func paramList(params []Param) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Type.String() + " " + p.Name
	}
	return strings.Join(parts, ", ")
}

func (s *FunctionDeclStmt) String() string {
	return fmt.Sprintf("%s %s(%s) %s", s.ReturnType.String(), s.Name, paramList(s.Params), s.Body.String())
}

func (s *GlobalDeclStmt) String() string {
	if s.Init == nil {
		return fmt.Sprintf("%s %s;", s.Type.String(), s.Name)
	}
	return fmt.Sprintf("%s %s = %s;", s.Type.String(), s.Name, s.Init.String())
}

func (s *VariableDeclStmt) String() string {
	if s.Init == nil {
		return fmt.Sprintf("%s %s;", s.Type.String(), s.Name)
	}
	return fmt.Sprintf("%s %s = %s;", s.Type.String(), s.Name, s.Init.String())
}

func (s *StructDeclStmt) String() string {
	members := make([]string, len(s.Members))
	for i, m := range s.Members {
		members[i] = m.Type.String() + " " + m.Name + ";"
	}
	return fmt.Sprintf("struct %s { %s }", s.Name, strings.Join(members, " "))
}

func (s *EnumDeclStmt) String() string {
	return fmt.Sprintf("enum %s { %s }", s.Name, strings.Join(s.Values, ", "))
}

func (s *ImportStmt) String() string {
	return fmt.Sprintf("import %q;", s.Path)
}

func (s *ImportFunctionStmt) String() string {
	return fmt.Sprintf("import_function %s %s(%s);", s.ReturnType.String(), s.Name, paramList(s.Params))
}

func (s *ExprStmt) String() string {
	return s.X.String() + ";"
}

func (s *ForStmt) String() string {
	init := ""
	if s.Init != nil {
		init = strings.TrimSuffix(s.Init.String(), ";")
	}
	var cond, inc string
	if s.Cond != nil {
		cond = s.Cond.String()
	}
	if s.Inc != nil {
		inc = s.Inc.String()
	}
	return fmt.Sprintf("for (%s; %s; %s) %s", init, cond, inc, s.Body.String())
}

// String pretty-prints every statement in the file, one per line,
// suitable for re-lexing and re-parsing as a standalone source file.
func (f *File) String() string {
	lines := make([]string, len(f.Statements))
	for i, s := range f.Statements {
		lines[i] = s.String()
	}
	return strings.Join(lines, "\n")
}
