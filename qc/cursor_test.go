package qc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCursor(input string) *Cursor {
	return NewCursor(Tokenize(input, DefaultSettings()))
}

func TestCursor_Peek(t *testing.T) {
	c := newTestCursor("a b\nc")

	assert.Equal(t, "a", c.Text(c.Peek(0)))
	assert.Equal(t, "b", c.Text(c.Peek(1)))
	assert.Equal(t, KindNewline, c.Peek(2).Kind)
	assert.Equal(t, "c", c.Text(c.Peek(3)))
	assert.Equal(t, KindEOF, c.Peek(4).Kind)
	assert.Equal(t, KindEOF, c.Peek(-1).Kind, "nothing behind the start")

	c.Next()
	assert.Equal(t, "a", c.Text(c.Peek(-1)))
	assert.Equal(t, KindSpace, c.PeekRaw().Kind)
}

func TestCursor_SkipModes(t *testing.T) {
	c := newTestCursor("a\n  # note\n  b")
	c.Next()
	assert.Equal(t, KindNewline, c.Peek(0).Kind)

	prev := c.SetSkip(SkipAll)
	assert.Equal(t, SkipSpaces|SkipComments, prev)
	assert.Equal(t, "b", c.Text(c.Peek(0)))

	c.SetSkip(SkipNone)
	assert.Equal(t, KindNewline, c.Peek(0).Kind)
	assert.Equal(t, KindSpace, c.Peek(1).Kind)
	assert.Equal(t, KindLineComment, c.Peek(2).Kind)
}

func TestCursor_SaveRestore(t *testing.T) {
	c := newTestCursor("a b c")
	cp := c.Save()
	c.Next()
	c.Next()
	assert.Equal(t, "c", c.Text(c.Peek(0)))

	c.Restore(cp)
	assert.Equal(t, "a", c.Text(c.Peek(0)))

	other := newTestCursor("x")
	assert.Panics(t, func() { c.Restore(other.Save()) })
}

func TestCursor_AcceptConsume(t *testing.T) {
	c := newTestCursor("a = 1")

	_, ok := c.Accept(KindEquals)
	assert.False(t, ok)

	tok, ok := c.Accept(KindIdent, KindInt)
	require.True(t, ok)
	assert.Equal(t, "a", c.Text(tok))

	before := c.Pos()
	_, err := c.Consume(KindInt)
	require.Error(t, err)
	assert.Equal(t, before, c.Pos(), "failed consume must not move")

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "expected integer", pe.Message)
	assert.Equal(t, "=", pe.Got)
	assert.Equal(t, Pos{Offset: 2, Line: 1, Column: 3}, pe.Pos)

	_, err = c.Consume(KindEquals)
	require.NoError(t, err)
	tok, err = c.Consume()
	require.NoError(t, err)
	assert.Equal(t, "1", c.Text(tok))
	assert.True(t, c.AtEnd())
}

func TestCursor_EOFPosition(t *testing.T) {
	c := newTestCursor("ab\ncd")
	for !c.AtEnd() {
		c.Next()
	}
	eof := c.Next()
	assert.Equal(t, KindEOF, eof.Kind)
	assert.Equal(t, 2, eof.Line)
	assert.Equal(t, 3, eof.Column)
	assert.Equal(t, 5, eof.Start)
	assert.Equal(t, "", c.Text(eof))
}
