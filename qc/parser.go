package qc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// maxRunTokens bounds the number of adjacent tokens joined into one value.
const maxRunTokens = 10000

// ParseQuery parses text holding a single query. Empty input yields an
// empty Query (IsEmpty reports true) and no error; a pipeline is an error.
func ParseQuery(text string, opts ...Option) (*Query, error) {
	return parse(text, opts, func(p *parser) (*Query, error) {
		n, err := p.parseMultiStep()
		if err != nil {
			return nil, err
		}
		if err := p.expectEnd(); err != nil {
			return nil, err
		}
		switch n := n.(type) {
		case *Query:
			return n, nil
		case *MultistepQuery:
			return nil, p.cur.errorAt(p.firstSep,
				fmt.Sprintf("expected a single query, got a pipeline of %d steps", n.Len()), "")
		}
		return NewQuery(), nil
	})
}

// ParseMultiStepQuery parses text holding a query or a pipeline of queries.
// The result is a *Query for one step and a *MultistepQuery for more.
func ParseMultiStepQuery(text string, opts ...Option) (Node, error) {
	return parse(text, opts, func(p *parser) (Node, error) {
		n, err := p.parseMultiStep()
		if err != nil {
			return nil, err
		}
		if err := p.expectEnd(); err != nil {
			return nil, err
		}
		if n == nil {
			return NewQuery(), nil
		}
		return n, nil
	})
}

// ParseFile parses a document into its top-level statements. Statements are
// separated by newlines (subject to indentation continuation) or semicolons.
func ParseFile(text string, opts ...Option) ([]*Query, error) {
	return parse(text, opts, func(p *parser) ([]*Query, error) {
		return p.parseFile()
	})
}

// ParseTag parses text holding exactly one tag, such as "attr(a b c)".
func ParseTag(text string, opts ...Option) (*Tag, error) {
	return parse(text, opts, func(p *parser) (*Tag, error) {
		if p.cur.AtEnd() {
			return nil, p.cur.errorAt(p.cur.Peek(0), "expected a tag", "tag")
		}
		t, err := p.parseTag()
		if err != nil {
			return nil, err
		}
		if err := p.expectEnd(); err != nil {
			return nil, err
		}
		return t, nil
	})
}

// ParseValue parses text using the grammar of a tag value (the part after
// '='). Parameter references and the '?' marker are rejected since they are
// not values.
func ParseValue(text string, opts ...Option) (Value, error) {
	return parse(text, opts, func(p *parser) (Value, error) {
		p.cur.SkipTrivia()
		start := p.cur.PeekRaw()
		t := &Tag{}
		if err := p.parseValue(t); err != nil {
			return NoValue, err
		}
		if t.param != "" || t.valueOptional {
			return NoValue, p.cur.errorAt(start, "expected a concrete value", "value")
		}
		if err := p.expectEnd(); err != nil {
			return NoValue, err
		}
		return t.value, nil
	})
}

// parse tokenizes text and runs fn, turning internal-error panics from the
// lexer or parser into returned errors.
func parse[T any](text string, opts []Option, fn func(p *parser) (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(*InternalError)
			if !ok {
				panic(r)
			}
			var zero T
			result, err = zero, ie
		}
	}()

	cfg := newConfig(opts)
	p := &parser{
		cur:      NewCursor(Tokenize(text, cfg.settings)),
		settings: cfg.settings,
		log:      cfg.logger,
	}
	return fn(p)
}

type parser struct {
	cur      *Cursor
	settings Settings
	log      zerolog.Logger
	depth    int
	firstSep Token // first pipe/slash of the last pipeline
}

// expectEnd accepts trailing newlines and semicolons and fails on anything else.
func (p *parser) expectEnd() error {
	p.skipSeparators()
	if !p.cur.AtEnd() {
		return p.cur.errorAt(p.cur.Peek(0), "unexpected input after query", "end of input")
	}
	return nil
}

func (p *parser) skipSeparators() {
	for p.cur.Is(KindNewline, KindSemicolon) {
		p.cur.Next()
	}
}

func (p *parser) skipNewlines() {
	for p.cur.Is(KindNewline) {
		p.cur.Next()
	}
}

// parseFile parses statements until end of input.
func (p *parser) parseFile() ([]*Query, error) {
	var out []*Query
	for {
		p.skipSeparators()
		if p.cur.AtEnd() {
			return out, nil
		}
		before := p.cur.Pos()
		n, err := p.parseMultiStep()
		if err != nil {
			return nil, err
		}
		switch n := n.(type) {
		case *MultistepQuery:
			return nil, p.cur.errorAt(p.firstSep, "pipelines are not allowed as file statements", "")
		case *Query:
			if n.Len() > 0 {
				p.log.Debug().
					Str("command", n.Command()).
					Int("tags", n.Len()).
					Int("statement", len(out)).
					Msg("parsed statement")
				out = append(out, n)
			}
		}
		if p.cur.Pos() == before {
			return nil, p.cur.errorAt(p.cur.Peek(0), "unexpected token", "statement")
		}
	}
}

// parseMultiStep parses one query or a pipeline of queries joined by '|' or
// '/'. A leading separator marks the result as a transform. It returns nil
// when no query starts at the cursor.
func (p *parser) parseMultiStep() (Node, error) {
	p.skipNewlines()
	transform := false
	if sep, ok := p.cur.Accept(KindPipe, KindSlash); ok {
		transform = true
		p.firstSep = sep
	}

	q, err := p.parseQuery()
	if err != nil {
		return nil, err
	}
	if q == nil {
		if transform {
			return nil, p.cur.errorAt(p.cur.Peek(0), "expected a query after pipe", "query")
		}
		return nil, nil
	}

	steps := []*Query{q}
	for {
		sep, ok := p.cur.Accept(KindPipe, KindSlash)
		if !ok {
			break
		}
		if len(steps) == 1 {
			p.firstSep = sep
		}
		next, err := p.parseQuery()
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, p.cur.errorAt(p.cur.Peek(0), "expected a query after pipe", "query")
		}
		steps = append(steps, next)
	}

	if len(steps) == 1 {
		q.transform = transform
		return q, nil
	}
	m := NewMultistepQuery(steps...)
	m.transform = transform
	return m, nil
}

// parseQuery parses one query: an optional special form followed by tags.
// It returns nil when the cursor is not at the start of a query.
func (p *parser) parseQuery() (*Query, error) {
	p.skipNewlines()
	start := p.cur.Peek(0)
	switch start.Kind {
	case KindEOF, KindSemicolon, KindPipe, KindSlash:
		return nil, nil
	}

	tags := p.parseSpecialForm()
	tags, err := p.parseTags(start, false, tags)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, nil
	}
	if tags[0].attr == "" {
		return nil, p.cur.errorAt(start, "expected a command", "identifier")
	}
	return NewQuery(tags...), nil
}

// parseTags parses tags until a terminator. Outside parentheses a new line
// indented no deeper than start ends the query; deeper lines continue it.
func (p *parser) parseTags(start Token, inParens bool, tags []*Tag) ([]*Tag, error) {
	for {
		before := p.cur.Pos()
		tok := p.cur.Peek(0)
		switch tok.Kind {
		case KindEOF, KindSemicolon:
			return tags, nil
		case KindRParen:
			if inParens {
				return tags, nil
			}
			return nil, p.cur.errorAt(tok, "unmatched closing parenthesis", "")
		case KindPipe:
			if inParens {
				return nil, p.cur.errorAt(tok, "pipe inside parentheses", "')'")
			}
			return tags, nil
		case KindSlash:
			if !inParens {
				return tags, nil
			}
		case KindNewline:
			cp := p.cur.Save()
			p.skipNewlines()
			next := p.cur.Peek(0)
			if next.Kind == KindEOF || (len(tags) > 0 && next.LeadingIndent <= start.LeadingIndent) {
				p.cur.Restore(cp)
				return tags, nil
			}
			continue
		}

		tag, err := p.parseTag()
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
		if p.cur.Pos() <= before {
			panic(&InternalError{Message: "tag parser made no progress", Offset: tok.Start})
		}
	}
}

// parseTag parses one tag starting at the next significant token.
func (p *parser) parseTag() (*Tag, error) {
	p.cur.SkipTrivia()
	t := &Tag{}

	selfParam := false
	if p.cur.PeekRaw().Kind == KindDollar {
		p.cur.NextRaw()
		selfParam = true
	}

	switch tok := p.cur.PeekRaw(); {
	case tok.Kind == KindLParen && !selfParam:
		list, err := p.parseTagList()
		if err != nil {
			return nil, err
		}
		t.value = TagListValue(list)
		return t, nil
	case tok.Kind == KindDashDash && !selfParam:
		p.cur.NextRaw()
		name, err := p.readAttr()
		if err != nil {
			return nil, err
		}
		t.attr = name
		t.value = TrueValue()
		return t, nil
	}

	name, err := p.readAttr()
	if err != nil {
		return nil, err
	}
	t.attr = name
	if selfParam {
		t.param = name
	}
	if p.cur.PeekRaw().Kind == KindQuestion {
		p.cur.NextRaw()
		t.attrOptional = true
	}
	if selfParam {
		return t, nil
	}

	if p.parenAfterSpaces() {
		list, err := p.parseTagList()
		if err != nil {
			return nil, err
		}
		t.value = TagListValue(list)
		return t, nil
	}

	if k := p.cur.PeekRaw().Kind; k == KindEquals || k == KindColon {
		p.cur.NextRaw()
		if err := p.parseValue(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// parenAfterSpaces reports whether '(' follows after optional spaces and
// tabs, and if so moves the cursor onto it.
func (p *parser) parenAfterSpaces() bool {
	cp := p.cur.Save()
	for p.cur.PeekRaw().Kind.IsSpace() {
		p.cur.NextRaw()
	}
	if p.cur.PeekRaw().Kind == KindLParen {
		return true
	}
	p.cur.Restore(cp)
	return false
}

// readAttr reads an attribute name: a lone '*' or a run of adjacent
// identifier, plain, integer, '.', '-' and '/' tokens.
func (p *parser) readAttr() (string, error) {
	tok := p.cur.PeekRaw()
	if tok.Kind == KindStar {
		p.cur.NextRaw()
		return "*", nil
	}
	name, ok := p.readRun(isAttrKind)
	if !ok {
		return "", p.cur.errorAt(tok, "expected an attribute", "attribute")
	}
	if strings.Trim(name, "/") == "" {
		return "", p.cur.errorAt(tok, "attribute cannot consist only of '/'", "attribute")
	}
	return name, nil
}

// readRun concatenates adjacent raw tokens accepted by accept.
func (p *parser) readRun(accept func(TokenKind) bool) (string, bool) {
	var b strings.Builder
	for n := 0; accept(p.cur.PeekRaw().Kind); n++ {
		if n >= maxRunTokens {
			panic(&InternalError{
				Message: fmt.Sprintf("value run exceeds %d tokens", maxRunTokens),
				Offset:  p.cur.PeekRaw().Start,
			})
		}
		b.WriteString(p.cur.Text(p.cur.NextRaw()))
	}
	return b.String(), b.Len() > 0
}

// parseValue parses the value after '=' or ':' into t.
func (p *parser) parseValue(t *Tag) error {
	tok := p.cur.PeekRaw()
	switch {
	case tok.Kind == KindDollar:
		p.cur.NextRaw()
		name, ok := p.readRun(isAttrKind)
		if !ok {
			return p.cur.errorAt(p.cur.PeekRaw(), "expected a parameter name after '$'", "identifier")
		}
		t.param = name
	case tok.Kind == KindQuestion:
		p.cur.NextRaw()
		t.valueOptional = true
	case tok.Kind == KindStar:
		p.cur.NextRaw()
		t.value = WildcardValue()
	case tok.Kind == KindLParen:
		list, err := p.parseTagList()
		if err != nil {
			return err
		}
		t.value = TagListValue(list)
	case tok.Kind == KindString:
		p.cur.NextRaw()
		t.value = StringValue(p.cur.List().Unquote(tok))
	case isScalarKind(tok.Kind):
		t.value = p.parseScalar()
	default:
		return p.cur.errorAt(tok, "expected a value", "value")
	}
	return nil
}

// parseScalar joins a run of scalar tokens. A run of exactly one integer
// token is a number; anything else, including integers that overflow
// int64, stays a string.
func (p *parser) parseScalar() Value {
	first := p.cur.PeekRaw()
	start := p.cur.Pos()
	text, _ := p.readRun(isScalarKind)
	if first.Kind == KindInt && p.cur.Pos() == start+1 {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return NumberValue(n)
		}
	}
	return StringValue(text)
}

// parseTagList parses "(" tags ")". Inside the parentheses whitespace,
// newlines and comments are insignificant.
func (p *parser) parseTagList() (*TagList, error) {
	open := p.cur.NextRaw()
	if _, ok := open.Paired(); !ok {
		return nil, p.cur.errorAt(open, "unclosed '('", "')'")
	}
	if p.depth >= p.settings.maxDepth() {
		return nil, p.cur.errorAt(open,
			fmt.Sprintf("nesting exceeds maximum depth %d", p.settings.maxDepth()), "")
	}
	p.depth++
	defer func() { p.depth-- }()

	prev := p.cur.SetSkip(SkipAll)
	defer p.cur.SetSkip(prev)

	tags, err := p.parseTags(open, true, nil)
	if err != nil {
		return nil, err
	}
	if _, err := p.cur.Consume(KindRParen); err != nil {
		return nil, err
	}
	return NewTagList(tags...), nil
}

// parseSpecialForm recognizes the multi-word verbs
//
//	limit N | last N    -> verb count=N
//	wait N              -> wait duration
//	rename A -> B       -> rename from=A to=B
//
// at the start of a query. On a mismatch the cursor is restored and nil
// is returned.
func (p *parser) parseSpecialForm() []*Tag {
	cp := p.cur.Save()
	verbTok := p.cur.Peek(0)
	if verbTok.Kind != KindIdent {
		return nil
	}
	verb := p.cur.Text(verbTok)

	var tags []*Tag
	switch verb {
	case "limit", "last":
		tags = p.countForm(verb)
	case "wait":
		tags = p.waitForm()
	case "rename":
		tags = p.renameForm()
	default:
		return nil
	}
	if tags == nil {
		p.cur.Restore(cp)
		p.log.Trace().
			Str("verb", verb).
			Int("line", verbTok.Line).
			Msg("special form did not match, parsing as plain tags")
	}
	return tags
}

// verbWord consumes the verb and requires whitespace after it.
func (p *parser) verbWord() bool {
	p.cur.Next()
	return p.cur.PeekRaw().Kind.IsSpace()
}

// wordEnds reports whether the raw token at the cursor ends a word.
func (p *parser) wordEnds() bool {
	switch p.cur.PeekRaw().Kind {
	case KindEOF, KindSpace, KindTab, KindNewline, KindSemicolon, KindPipe,
		KindRParen, KindLineComment, KindBlockComment:
		return true
	}
	return false
}

func (p *parser) countForm(verb string) []*Tag {
	if !p.verbWord() {
		return nil
	}
	tok, ok := p.cur.Accept(KindInt)
	if !ok || !p.wordEnds() {
		return nil
	}
	n, err := strconv.ParseInt(p.cur.Text(tok), 10, 64)
	if err != nil {
		return nil
	}
	return []*Tag{NewTag(verb, NoValue), NewTag("count", NumberValue(n))}
}

// waitForm drops the duration value and keeps a bare duration tag.
func (p *parser) waitForm() []*Tag {
	if !p.verbWord() {
		return nil
	}
	tok := p.cur.Peek(0)
	isDuration := tok.Kind == KindInt ||
		(tok.Kind == KindPlain && isDigit(rune(p.cur.Text(tok)[0])))
	if !isDuration {
		return nil
	}
	p.cur.Next()
	if !p.wordEnds() {
		return nil
	}
	return []*Tag{NewTag("wait", NoValue), NewTag("duration", NoValue)}
}

func (p *parser) renameForm() []*Tag {
	if !p.verbWord() {
		return nil
	}
	from, ok := p.renameOperand()
	if !ok {
		return nil
	}
	if _, ok := p.cur.Accept(KindArrow); !ok {
		return nil
	}
	to, ok := p.renameOperand()
	if !ok {
		return nil
	}
	return []*Tag{
		NewTag("rename", NoValue),
		NewTag("from", StringValue(from)),
		NewTag("to", StringValue(to)),
	}
}

func (p *parser) renameOperand() (string, bool) {
	p.cur.SkipTrivia()
	if tok := p.cur.PeekRaw(); tok.Kind == KindString {
		p.cur.NextRaw()
		return p.cur.List().Unquote(tok), true
	}
	name, ok := p.readRun(isAttrKind)
	if !ok || !p.wordEnds() {
		return "", false
	}
	return name, true
}

func isAttrKind(k TokenKind) bool {
	switch k {
	case KindIdent, KindPlain, KindInt, KindDot, KindDash, KindSlash:
		return true
	}
	return false
}

func isScalarKind(k TokenKind) bool {
	switch k {
	case KindIdent, KindPlain, KindInt, KindDot, KindSlash, KindColon, KindDash:
		return true
	}
	return false
}
