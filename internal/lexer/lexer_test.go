package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anthropics/mscript/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestTokenizeBasics(t *testing.T) {
	src := `int fib(int n) { return n + 1; }`
	toks, errd := Tokenize("t.mscript", []byte(src))
	require.Nil(t, errd)
	require.Equal(t, []token.Kind{
		token.Symbol, token.Symbol, token.Char, token.Symbol, token.Symbol, token.Char,
		token.Char, token.Symbol, token.Symbol, token.Char, token.Int, token.Char, token.Char,
		token.EOF,
	}, kinds(toks))
}

func TestTokenizeNumbers(t *testing.T) {
	toks, errd := Tokenize("t.mscript", []byte("42 3.14 0 0.5"))
	require.Nil(t, errd)
	require.Equal(t, token.Int, toks[0].Kind)
	require.Equal(t, int64(42), toks[0].IntVal)
	require.Equal(t, token.Float, toks[1].Kind)
	require.InDelta(t, 3.14, toks[1].FltVal, 1e-9)
	require.Equal(t, token.Int, toks[2].Kind)
	require.Equal(t, token.Float, toks[3].Kind)
}

func TestTokenizeStringEscapes(t *testing.T) {
	toks, errd := Tokenize("t.mscript", []byte(`"a\nb\tc"`))
	require.Nil(t, errd)
	require.Equal(t, token.String, toks[0].Kind)
	require.Equal(t, "a\nb\tc", toks[0].Text)
}

func TestTokenizeInvalidEscape(t *testing.T) {
	_, errd := Tokenize("t.mscript", []byte(`"a\xb"`))
	require.NotNil(t, errd)
	require.Equal(t, "invalid-escape", string(errd.Kind))
}

func TestTokenizeUnknownCharacter(t *testing.T) {
	_, errd := Tokenize("t.mscript", []byte("int x = 1 @ 2;"))
	require.NotNil(t, errd)
	require.Equal(t, "unknown-character", string(errd.Kind))
}

func TestTokenizeLineComment(t *testing.T) {
	toks, errd := Tokenize("t.mscript", []byte("1 // comment\n2"))
	require.Nil(t, errd)
	require.Equal(t, []token.Kind{token.Int, token.Int, token.EOF}, kinds(toks))
}

func TestLineColumnTracking(t *testing.T) {
	toks, errd := Tokenize("t.mscript", []byte("a\nb"))
	require.Nil(t, errd)
	require.Equal(t, 1, toks[0].Line)
	require.Equal(t, 2, toks[1].Line)
	require.Equal(t, 1, toks[1].Column)
}
