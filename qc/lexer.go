package qc

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenize converts text into tokens. It never fails: characters it does
// not know become KindUnrecognized tokens and unterminated strings run to
// the end of input. Whitespace and comments are kept as tokens.
func Tokenize(text string, s Settings) *TokenList {
	t := newTokenizer(text, s)
	t.tokenize()
	return &TokenList{Source: text, Tokens: t.tokens}
}

// multi-character operators, longest first within each length group.
var operators = []struct {
	text string
	kind TokenKind
}{
	{"===", KindStrictEq},
	{"!==", KindStrictNotEq},
	{"==", KindEqEq},
	{"!=", KindNotEq},
	{"=>", KindFatArrow},
	{"->", KindArrow},
	{"--", KindDashDash},
	{"||", KindOrOr},
	{"&&", KindAndAnd},
	{">=", KindGtEq},
	{"<=", KindLtEq},
}

var punctuation = map[byte]TokenKind{
	'(':  KindLParen,
	')':  KindRParen,
	'[':  KindLBracket,
	']':  KindRBracket,
	'{':  KindLBrace,
	'}':  KindRBrace,
	'=':  KindEquals,
	':':  KindColon,
	';':  KindSemicolon,
	',':  KindComma,
	'.':  KindDot,
	'/':  KindSlash,
	'|':  KindPipe,
	'$':  KindDollar,
	'?':  KindQuestion,
	'*':  KindStar,
	'-':  KindDash,
	'!':  KindBang,
	'+':  KindPlus,
	'>':  KindGt,
	'<':  KindLt,
	'&':  KindAmp,
	'@':  KindAt,
	'%':  KindPercent,
	'^':  KindCaret,
	'~':  KindTilde,
	'#':  KindHash,
	'\\': KindBackslash,
}

type tokenizer struct {
	input    string
	settings Settings
	pos      int
	tokens   []Token

	line        int  // current line, 1-based
	lineStart   int  // byte offset where the current line starts
	indent      int  // leading whitespace of the current line
	atLineStart bool // only whitespace seen so far on the current line

	brackets []int // indices of unclosed opening brackets
}

func newTokenizer(input string, s Settings) *tokenizer {
	return &tokenizer{
		input:       input,
		settings:    s,
		line:        1,
		atLineStart: true,
	}
}

func (t *tokenizer) tokenize() {
	for t.pos < len(t.input) {
		start := t.pos
		t.scan()
		if t.pos <= start {
			panic(&InternalError{
				Message: fmt.Sprintf("lexer made no progress on %q", t.input[start:start+1]),
				Offset:  start,
			})
		}
	}
}

// scan emits exactly one token starting at t.pos.
func (t *tokenizer) scan() {
	ch := t.input[t.pos]
	switch {
	case ch == '\n':
		t.emit(KindNewline, t.pos+1)
		t.newLine()
	case ch == '\r' && t.peekByte(1) == '\n':
		t.emit(KindNewline, t.pos+2)
		t.newLine()
	case ch == ' ' || ch == '\r':
		end := t.pos
		for end < len(t.input) && (t.input[end] == ' ' || (t.input[end] == '\r' && !t.newlineAt(end))) {
			end++
		}
		if t.atLineStart {
			t.indent += end - t.pos
		}
		t.emit(KindSpace, end)
	case ch == '\t':
		if t.atLineStart {
			t.indent++
		}
		t.emit(KindTab, t.pos+1)
	case ch == '"' || ch == '\'' || ch == '`':
		t.readString(ch)
	case ch == '/' && t.settings.CStyleComments && t.peekByte(1) == '/':
		t.readLineComment()
	case ch == '/' && t.settings.CStyleComments && t.peekByte(1) == '*':
		t.readBlockComment()
	case ch == '#' && t.settings.BashComments:
		t.readLineComment()
	default:
		if t.readOperator() {
			return
		}
		r, size := utf8.DecodeRuneInString(t.input[t.pos:])
		switch {
		case t.settings.PlainValues && isPlainChar(r):
			t.readPlain()
		case isIdentStart(r):
			t.readIdent()
		case isDigit(r):
			t.readDigits()
		default:
			if kind, ok := punctuation[ch]; ok {
				t.emit(kind, t.pos+1)
				return
			}
			t.emit(KindUnrecognized, t.pos+size)
		}
	}
}

// emit appends a token spanning [t.pos, end) and moves past it.
func (t *tokenizer) emit(kind TokenKind, end int) {
	tok := Token{
		Kind:          kind,
		Start:         t.pos,
		End:           end,
		Line:          t.line,
		EndLine:       t.line,
		Column:        t.pos - t.lineStart + 1,
		LeadingIndent: t.indent,
		Pair:          -1,
	}
	idx := len(t.tokens)

	switch {
	case kind.IsOpenBracket():
		t.brackets = append(t.brackets, idx)
	case kind.IsCloseBracket():
		if n := len(t.brackets); n > 0 && closes(t.tokens[t.brackets[n-1]].Kind, kind) {
			open := t.brackets[n-1]
			t.brackets = t.brackets[:n-1]
			t.tokens[open].Pair = idx
			tok.Pair = open
		}
	}

	// Strings and block comments may span lines.
	if kind == KindString || kind == KindBlockComment {
		if n := strings.Count(t.input[t.pos:end], "\n"); n > 0 {
			t.line += n
			tok.EndLine = t.line
			t.lineStart = t.pos + strings.LastIndexByte(t.input[t.pos:end], '\n') + 1
		}
	}

	if kind != KindSpace && kind != KindTab && kind != KindNewline {
		t.atLineStart = false
	}
	t.tokens = append(t.tokens, tok)
	t.pos = end
}

// newLine resets line tracking after a newline token has been emitted.
func (t *tokenizer) newLine() {
	t.line++
	t.lineStart = t.pos
	t.indent = 0
	t.atLineStart = true
}

func (t *tokenizer) peekByte(ahead int) byte {
	if t.pos+ahead >= len(t.input) {
		return 0
	}
	return t.input[t.pos+ahead]
}

func (t *tokenizer) newlineAt(i int) bool {
	return i+1 < len(t.input) && t.input[i] == '\r' && t.input[i+1] == '\n'
}

// readString reads a quoted string. A backslash escapes the next byte.
// An unterminated string runs to end of input.
func (t *tokenizer) readString(delim byte) {
	end := t.pos + 1
	for end < len(t.input) {
		ch := t.input[end]
		if ch == '\\' {
			end += 2
			continue
		}
		end++
		if ch == delim {
			break
		}
	}
	if end > len(t.input) {
		end = len(t.input)
	}
	t.emit(KindString, end)
}

func (t *tokenizer) readLineComment() {
	end := t.pos
	for end < len(t.input) && t.input[end] != '\n' && !t.newlineAt(end) {
		end++
	}
	t.emit(KindLineComment, end)
}

func (t *tokenizer) readBlockComment() {
	end := strings.Index(t.input[t.pos+2:], "*/")
	if end < 0 {
		t.emit(KindBlockComment, len(t.input))
		return
	}
	t.emit(KindBlockComment, t.pos+2+end+2)
}

func (t *tokenizer) readOperator() bool {
	rest := t.input[t.pos:]
	for _, op := range operators {
		if strings.HasPrefix(rest, op.text) {
			t.emit(op.kind, t.pos+len(op.text))
			return true
		}
	}
	return false
}

// readPlain reads a plain value run and classifies it as an integer,
// an identifier, or a plain value.
func (t *tokenizer) readPlain() {
	end := t.scanRunes(isPlainChar)
	text := t.input[t.pos:end]
	switch {
	case allDigits(text):
		t.emit(KindInt, end)
	case isIdentifier(text):
		t.emit(KindIdent, end)
	default:
		t.emit(KindPlain, end)
	}
}

func (t *tokenizer) readIdent() {
	t.emit(KindIdent, t.scanRunes(isIdentChar))
}

func (t *tokenizer) readDigits() {
	t.emit(KindInt, t.scanRunes(isDigit))
}

func (t *tokenizer) scanRunes(accept func(rune) bool) int {
	end := t.pos
	for end < len(t.input) {
		r, size := utf8.DecodeRuneInString(t.input[end:])
		if !accept(r) {
			break
		}
		end += size
	}
	return end
}

func closes(opener, closer TokenKind) bool {
	switch opener {
	case KindLParen:
		return closer == KindRParen
	case KindLBracket:
		return closer == KindRBracket
	case KindLBrace:
		return closer == KindRBrace
	}
	return false
}

// isIdentStart checks if a rune can start an identifier.
func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

// isIdentChar checks if a rune can appear in an identifier after the first character.
func isIdentChar(r rune) bool {
	return isIdentStart(r) || isDigit(r) || r == '-'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// isPlainChar checks if a rune can appear in a plain value.
func isPlainChar(r rune) bool {
	return isIdentChar(r) || r == '!'
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isIdentifier(s string) bool {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || !isIdentStart(r) {
		return false
	}
	for _, r := range s[size:] {
		if !isIdentChar(r) {
			return false
		}
	}
	return true
}
