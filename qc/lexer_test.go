package qc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// significant returns the kinds of all non-whitespace tokens.
func significant(list *TokenList) []TokenKind {
	var kinds []TokenKind
	for _, tok := range list.Tokens {
		if tok.Kind.IsSpace() || tok.Kind == KindNewline {
			continue
		}
		kinds = append(kinds, tok.Kind)
	}
	return kinds
}

func TestTokenize_Kinds(t *testing.T) {
	cstyle := DefaultSettings()
	cstyle.CStyleComments = true
	noPlain := DefaultSettings()
	noPlain.PlainValues = false

	tests := []struct {
		name     string
		input    string
		settings Settings
		want     []TokenKind
	}{
		{
			name:     "simple query",
			input:    "cmd a=1 b",
			settings: DefaultSettings(),
			want:     []TokenKind{KindIdent, KindIdent, KindEquals, KindInt, KindIdent},
		},
		{
			name:     "operators longest match",
			input:    "=== !== == != => -> -- || && >= <=",
			settings: DefaultSettings(),
			want: []TokenKind{
				KindStrictEq, KindStrictNotEq, KindEqEq, KindNotEq, KindFatArrow, KindArrow,
				KindDashDash, KindOrOr, KindAndAnd, KindGtEq, KindLtEq,
			},
		},
		{
			name:     "plain value classification",
			input:    "abc 123 12ab x! a-b",
			settings: DefaultSettings(),
			want:     []TokenKind{KindIdent, KindInt, KindPlain, KindPlain, KindIdent},
		},
		{
			name:     "without plain values",
			input:    "12ab x!",
			settings: noPlain,
			want:     []TokenKind{KindInt, KindIdent, KindIdent, KindBang},
		},
		{
			name:     "bash comment",
			input:    "a # note\nb",
			settings: DefaultSettings(),
			want:     []TokenKind{KindIdent, KindLineComment, KindIdent},
		},
		{
			name:     "c-style comments disabled",
			input:    "a // b",
			settings: DefaultSettings(),
			want:     []TokenKind{KindIdent, KindSlash, KindSlash, KindIdent},
		},
		{
			name:     "c-style comments enabled",
			input:    "a // b\n/* c */ d",
			settings: cstyle,
			want:     []TokenKind{KindIdent, KindLineComment, KindBlockComment, KindIdent},
		},
		{
			name:     "strings",
			input:    `"a b" 'c' ` + "`d`",
			settings: DefaultSettings(),
			want:     []TokenKind{KindString, KindString, KindString},
		},
		{
			name:     "punctuation",
			input:    "$x? *;,.|:",
			settings: DefaultSettings(),
			want: []TokenKind{
				KindDollar, KindIdent, KindQuestion, KindStar, KindSemicolon,
				KindComma, KindDot, KindPipe, KindColon,
			},
		},
		{
			name:     "unrecognized rune",
			input:    "a €",
			settings: DefaultSettings(),
			want:     []TokenKind{KindIdent, KindUnrecognized},
		},
		{
			name:     "empty input",
			input:    "",
			settings: DefaultSettings(),
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := Tokenize(tt.input, tt.settings)
			assert.Equal(t, tt.want, significant(list))
		})
	}
}

func TestTokenize_CoversInput(t *testing.T) {
	input := "cmd a=\"x y\" # c\n  f(b c) €\r\n\tz"
	list := Tokenize(input, DefaultSettings())

	offset := 0
	for _, tok := range list.Tokens {
		require.Equal(t, offset, tok.Start, "tokens must be contiguous")
		require.Greater(t, tok.End, tok.Start)
		offset = tok.End
	}
	assert.Equal(t, len(input), offset)
}

func TestTokenize_Positions(t *testing.T) {
	list := Tokenize("a\n  b\n\tc", DefaultSettings())

	var idents []Token
	for _, tok := range list.Tokens {
		if tok.Kind == KindIdent {
			idents = append(idents, tok)
		}
	}
	require.Len(t, idents, 3)

	tests := []struct {
		text   string
		line   int
		column int
		indent int
	}{
		{"a", 1, 1, 0},
		{"b", 2, 3, 2},
		{"c", 3, 2, 1},
	}
	for i, tt := range tests {
		tok := idents[i]
		assert.Equal(t, tt.text, list.Text(tok))
		assert.Equal(t, tt.line, tok.Line, "line of %s", tt.text)
		assert.Equal(t, tt.column, tok.Column, "column of %s", tt.text)
		assert.Equal(t, tt.indent, tok.LeadingIndent, "indent of %s", tt.text)
	}
}

func TestTokenize_CRLF(t *testing.T) {
	list := Tokenize("a\r\nb", DefaultSettings())
	require.Len(t, list.Tokens, 3)
	assert.Equal(t, KindNewline, list.Tokens[1].Kind)
	assert.Equal(t, "\r\n", list.Text(list.Tokens[1]))
	assert.Equal(t, 2, list.Tokens[2].Line)
	assert.Equal(t, 1, list.Tokens[2].Column)
}

func TestTokenize_MultilineString(t *testing.T) {
	list := Tokenize("\"a\nb\" c", DefaultSettings())
	require.Len(t, list.Tokens, 3)

	str := list.Tokens[0]
	assert.Equal(t, KindString, str.Kind)
	assert.Equal(t, 1, str.Line)
	assert.Equal(t, 2, str.EndLine)

	c := list.Tokens[2]
	assert.Equal(t, 2, c.Line)
	assert.Equal(t, 4, c.Column)
}

func TestTokenize_BracketPairs(t *testing.T) {
	list := Tokenize("(a [b] {c})", DefaultSettings())
	pairs := map[int]int{0: 10, 3: 5, 7: 9}
	for open, closeIdx := range pairs {
		got, ok := list.Tokens[open].Paired()
		require.True(t, ok, "token %d should be paired", open)
		assert.Equal(t, closeIdx, got)
		back, ok := list.Tokens[closeIdx].Paired()
		require.True(t, ok)
		assert.Equal(t, open, back)
	}

	mismatched := Tokenize("(]", DefaultSettings())
	for _, tok := range mismatched.Tokens {
		_, ok := tok.Paired()
		assert.False(t, ok)
	}
}

func TestTokenList_Unquote(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"double quotes", `"hello world"`, "hello world"},
		{"single quotes", `'x'`, "x"},
		{"backtick", "`y`", "y"},
		{"escaped quote", `"say \"hi\""`, `say "hi"`},
		{"escaped backslash", `"a\\b"`, `a\b`},
		{"empty", `""`, ""},
		{"unterminated", `"abc`, "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := Tokenize(tt.input, DefaultSettings())
			require.Len(t, list.Tokens, 1)
			require.Equal(t, KindString, list.Tokens[0].Kind)
			assert.Equal(t, tt.want, list.Unquote(list.Tokens[0]))
		})
	}
}

func TestTokenKind_String(t *testing.T) {
	assert.Equal(t, "identifier", KindIdent.String())
	assert.Equal(t, "')'", KindRParen.String())
	assert.Equal(t, "end of input", KindEOF.String())
	assert.Equal(t, "unknown", TokenKind(-1).String())
}
