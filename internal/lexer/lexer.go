// Package lexer turns mscript source bytes into a token stream (spec
// §4.2). The token-kind switch and line/column bookkeeping follow the
// teacher's lexer.go pattern; the token set itself is replaced wholesale
// with mscript's much smaller grammar.
package lexer

import (
	"strconv"
	"strings"

	"github.com/anthropics/mscript/internal/diag"
	"github.com/anthropics/mscript/internal/token"
)

// punctuation is the fixed set of single-character tokens recognized by
// the grammar (spec §4.2).
const punctuation = "()[]{}<>=+-*/,!.;"

// Lexer scans one source file's bytes into tokens on demand.
type Lexer struct {
	file   string
	src    []byte
	pos    int
	line   int
	column int
	err    *diag.Diag
}

// New returns a lexer over src, tagging every token with file for
// diagnostics.
func New(file string, src []byte) *Lexer {
	return &Lexer{file: file, src: src, line: 1, column: 1}
}

// Err returns the first lex error encountered, if any.
func (l *Lexer) Err() *diag.Diag { return l.err }

func (l *Lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return c
}

func (l *Lexer) pos_() diag.Pos {
	return diag.Pos{File: l.file, Line: l.line, Column: l.column}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isAlpha(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
func isAlphaNum(c byte) bool { return isAlpha(c) || isDigit(c) }

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.src) {
		c := l.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance()
		case c == '/' && l.peekAt(1) == '/':
			for l.pos < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

// Next returns the next token. Once an error has been recorded, Next
// keeps returning an EOF token so callers don't need to special-case a
// nil return.
func (l *Lexer) Next() token.Token {
	if l.err != nil {
		return token.Token{Kind: token.EOF, File: l.file, Line: l.line, Column: l.column}
	}

	l.skipWhitespaceAndComments()

	startPos := l.pos_()
	if l.pos >= len(l.src) {
		return token.Token{Kind: token.EOF, File: l.file, Line: startPos.Line, Column: startPos.Column}
	}

	c := l.peek()
	switch {
	case isDigit(c):
		return l.lexNumber(startPos)
	case isAlpha(c):
		return l.lexSymbol(startPos)
	case c == '"':
		return l.lexString(startPos)
	case strings.IndexByte(punctuation, c) >= 0:
		l.advance()
		return token.Token{Kind: token.Char, Text: string(c), File: l.file, Line: startPos.Line, Column: startPos.Column}
	default:
		l.err = diag.New(diag.CategoryLex, "unknown-character", startPos, "unknown character %q", c)
		return token.Token{Kind: token.EOF, File: l.file, Line: startPos.Line, Column: startPos.Column}
	}
}

func (l *Lexer) lexNumber(pos diag.Pos) token.Token {
	start := l.pos
	for isDigit(l.peek()) {
		l.advance()
	}
	isFloat := false
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		isFloat = true
		l.advance() // '.'
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	text := string(l.src[start:l.pos])
	if isFloat {
		v, _ := strconv.ParseFloat(text, 64)
		return token.Token{Kind: token.Float, Text: text, FltVal: v, File: l.file, Line: pos.Line, Column: pos.Column}
	}
	v, _ := strconv.ParseInt(text, 10, 64)
	return token.Token{Kind: token.Int, Text: text, IntVal: v, File: l.file, Line: pos.Line, Column: pos.Column}
}

func (l *Lexer) lexSymbol(pos diag.Pos) token.Token {
	start := l.pos
	for isAlphaNum(l.peek()) {
		l.advance()
	}
	text := string(l.src[start:l.pos])
	return token.Token{Kind: token.Symbol, Text: text, File: l.file, Line: pos.Line, Column: pos.Column}
}

func (l *Lexer) lexString(pos diag.Pos) token.Token {
	l.advance() // opening quote
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			l.err = diag.New(diag.CategoryLex, "unknown-character", pos, "unterminated string literal")
			return token.Token{Kind: token.EOF, File: l.file, Line: pos.Line, Column: pos.Column}
		}
		c := l.peek()
		if c == '"' {
			l.advance()
			break
		}
		if c == '\\' {
			escPos := l.pos_()
			l.advance()
			e := l.peek()
			switch e {
			case 'n':
				sb.WriteByte('\n')
				l.advance()
			case 't':
				sb.WriteByte('\t')
				l.advance()
			default:
				l.err = diag.New(diag.CategoryLex, "invalid-escape", escPos, "invalid escape sequence '\\%c'", e)
				return token.Token{Kind: token.EOF, File: l.file, Line: pos.Line, Column: pos.Column}
			}
			continue
		}
		sb.WriteByte(c)
		l.advance()
	}
	return token.Token{Kind: token.String, Text: sb.String(), File: l.file, Line: pos.Line, Column: pos.Column}
}

// Tokenize scans the whole source and returns every token, including the
// trailing EOF, or the first lex error.
func Tokenize(file string, src []byte) ([]token.Token, *diag.Diag) {
	l := New(file, src)
	var toks []token.Token
	for {
		tk := l.Next()
		toks = append(toks, tk)
		if tk.Kind == token.EOF {
			break
		}
	}
	if l.Err() != nil {
		return nil, l.Err()
	}
	return toks, nil
}
