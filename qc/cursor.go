package qc

import (
	"fmt"
	"strings"
)

// SkipMode selects which tokens a Cursor steps over automatically.
type SkipMode uint8

const (
	SkipSpaces SkipMode = 1 << iota
	SkipNewlines
	SkipComments

	SkipNone SkipMode = 0
	SkipAll           = SkipSpaces | SkipNewlines | SkipComments
)

// Checkpoint is an opaque cursor position returned by Save.
type Checkpoint struct {
	list *TokenList
	pos  int
}

// Cursor is a backtrackable view over a TokenList. Lookahead never
// returns nil: past either end it yields a synthetic KindEOF token.
type Cursor struct {
	list *TokenList
	pos  int // index of the next raw token
	skip SkipMode
	eof  Token
}

// NewCursor creates a cursor at the first token that skips spaces and comments.
func NewCursor(list *TokenList) *Cursor {
	line := strings.Count(list.Source, "\n") + 1
	lineStart := strings.LastIndexByte(list.Source, '\n') + 1
	return &Cursor{
		list: list,
		skip: SkipSpaces | SkipComments,
		eof: Token{
			Kind:    KindEOF,
			Start:   len(list.Source),
			End:     len(list.Source),
			Line:    line,
			EndLine: line,
			Column:  len(list.Source) - lineStart + 1,
			Pair:    -1,
		},
	}
}

// List returns the underlying token list.
func (c *Cursor) List() *TokenList { return c.list }

// Pos returns the raw index of the next token.
func (c *Cursor) Pos() int { return c.pos }

// Skip returns the current skip mode.
func (c *Cursor) Skip() SkipMode { return c.skip }

// SetSkip changes the skip mode and returns the previous one, so callers
// can restore it with defer.
func (c *Cursor) SetSkip(m SkipMode) SkipMode {
	prev := c.skip
	c.skip = m
	return prev
}

func (c *Cursor) skips(k TokenKind) bool {
	switch {
	case k.IsSpace():
		return c.skip&SkipSpaces != 0
	case k == KindNewline:
		return c.skip&SkipNewlines != 0
	case k.IsComment():
		return c.skip&SkipComments != 0
	}
	return false
}

// index returns the raw index of the n-th significant token counted from
// the current position (n >= 0) or behind it (n < 0), or -1.
func (c *Cursor) index(n int) int {
	toks := c.list.Tokens
	if n >= 0 {
		for i := c.pos; i < len(toks); i++ {
			if c.skips(toks[i].Kind) {
				continue
			}
			if n == 0 {
				return i
			}
			n--
		}
		return -1
	}
	for i := c.pos - 1; i >= 0; i-- {
		if c.skips(toks[i].Kind) {
			continue
		}
		n++
		if n == 0 {
			return i
		}
	}
	return -1
}

// Peek returns the token n significant positions away without consuming.
// Negative n looks behind.
func (c *Cursor) Peek(n int) Token {
	if i := c.index(n); i >= 0 {
		return c.list.Tokens[i]
	}
	return c.eof
}

// PeekRaw returns the next raw token, ignoring the skip mode.
func (c *Cursor) PeekRaw() Token {
	if c.pos < len(c.list.Tokens) {
		return c.list.Tokens[c.pos]
	}
	return c.eof
}

// NextRaw consumes the next raw token, ignoring the skip mode.
func (c *Cursor) NextRaw() Token {
	tok := c.PeekRaw()
	if c.pos < len(c.list.Tokens) {
		c.pos++
	}
	return tok
}

// Is reports whether the next significant token has one of the given kinds.
func (c *Cursor) Is(kinds ...TokenKind) bool {
	k := c.Peek(0).Kind
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

// AtEnd reports whether only skippable tokens remain.
func (c *Cursor) AtEnd() bool {
	return c.index(0) < 0
}

// SkipTrivia moves past skippable tokens.
func (c *Cursor) SkipTrivia() {
	for c.pos < len(c.list.Tokens) && c.skips(c.list.Tokens[c.pos].Kind) {
		c.pos++
	}
}

// Next consumes and returns the next significant token.
func (c *Cursor) Next() Token {
	i := c.index(0)
	if i < 0 {
		c.pos = len(c.list.Tokens)
		return c.eof
	}
	c.pos = i + 1
	return c.list.Tokens[i]
}

// Accept consumes the next significant token if it has one of the given kinds.
func (c *Cursor) Accept(kinds ...TokenKind) (Token, bool) {
	if !c.Is(kinds...) {
		return Token{}, false
	}
	return c.Next(), true
}

// Consume consumes the next significant token. When kinds are given and the
// token matches none of them, the cursor does not move and a *ParseError
// is returned.
func (c *Cursor) Consume(kinds ...TokenKind) (Token, error) {
	if len(kinds) == 0 || c.Is(kinds...) {
		return c.Next(), nil
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	expected := strings.Join(names, " or ")
	return Token{}, c.errorAt(c.Peek(0), fmt.Sprintf("expected %s", expected), expected)
}

// Save returns a checkpoint for Restore.
func (c *Cursor) Save() Checkpoint {
	return Checkpoint{list: c.list, pos: c.pos}
}

// Restore rewinds the cursor to a checkpoint taken from the same cursor.
func (c *Cursor) Restore(cp Checkpoint) {
	if cp.list != c.list {
		panic(&InternalError{Message: "checkpoint restored on a different token list", Offset: cp.pos})
	}
	c.pos = cp.pos
}

// Text returns the source text of tok.
func (c *Cursor) Text(tok Token) string {
	return c.list.Text(tok)
}

// errorAt builds a *ParseError located at tok.
func (c *Cursor) errorAt(tok Token, msg, expected string) *ParseError {
	got := c.Text(tok)
	if tok.Kind == KindEOF {
		got = "end of input"
	}
	return &ParseError{
		Message:  msg,
		Pos:      tok.Pos(),
		Got:      got,
		Expected: expected,
	}
}
