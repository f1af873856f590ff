package qc

import (
	"strconv"
	"strings"
)

// ToCanonicalString formats a node as canonical QC text. Parsing the result
// yields a tree structurally identical to n.
//
// Canonical form joins tags with single spaces, writes nested lists and
// queries as attr(...), --flag for true values, $name and attr=$name for
// parameters, and quotes string values only when they would not re-lex as
// a bare value.
func ToCanonicalString(n Node) string {
	if n == nil {
		return ""
	}
	return n.String()
}

// String returns the canonical form of the query.
func (q *Query) String() string {
	var b strings.Builder
	if q.transform {
		b.WriteString("| ")
	}
	writeQueryTags(&b, q.tags)
	return b.String()
}

// String returns the canonical form of the list as a parenthesized tuple.
func (l *TagList) String() string {
	var b strings.Builder
	b.WriteByte('(')
	writeTags(&b, l.tags)
	b.WriteByte(')')
	return b.String()
}

// String returns the canonical form of the pipeline.
func (m *MultistepQuery) String() string {
	var b strings.Builder
	if m.transform {
		b.WriteString("| ")
	}
	for i, step := range m.steps {
		if i > 0 {
			b.WriteString(" | ")
		}
		writeQueryTags(&b, step.tags)
	}
	return b.String()
}

// String returns the canonical form of the tag.
func (t *Tag) String() string {
	var b strings.Builder
	writeTag(&b, t)
	return b.String()
}

// writeQueryTags writes the tags of a query, where the first tag may be
// read back as the verb of a special form.
func writeQueryTags(b *strings.Builder, tags []*Tag) {
	if len(tags) < 2 || !startsSpecialForm(tags[0], tags[1]) {
		writeTags(b, tags)
		return
	}
	// The forms need a space after the verb, so a line break keeps the
	// following tag out of them.
	writeTag(b, tags[0])
	b.WriteString("\n  ")
	writeTags(b, tags[1:])
}

func writeTags(b *strings.Builder, tags []*Tag) {
	for i, t := range tags {
		if i > 0 {
			if isTuple(t) && takesParenValue(tags[i-1]) {
				// After a space the tuple would parse as the previous
				// tag's value; an indented line break keeps it separate.
				b.WriteString("\n  ")
			} else {
				b.WriteByte(' ')
			}
		}
		writeTag(b, t)
	}
}

// startsSpecialForm reports whether writing verb and next separated by a
// space could parse as a special form. limit, last and wait take a word
// starting with a digit; rename takes a bare word.
func startsSpecialForm(verb, next *Tag) bool {
	if !takesParenValue(verb) || verb.attrOptional || next.attr == "" {
		return false
	}
	switch verb.attr {
	case "limit", "last", "wait":
		return next.param == "" && next.value.kind != ValueTrue && isDigit(rune(next.attr[0]))
	case "rename":
		return takesParenValue(next) && !next.attrOptional
	}
	return false
}

func isTuple(t *Tag) bool {
	return t.attr == "" && t.param == "" &&
		(t.value.kind == ValueTagList || t.value.kind == ValueQuery)
}

// takesParenValue reports whether t is written as a bare attribute, which
// the parser lets take a following parenthesized list as its value.
func takesParenValue(t *Tag) bool {
	return t.param == "" && t.value.kind == ValueNone && !t.valueOptional
}

func writeTag(b *strings.Builder, t *Tag) {
	if t.param != "" {
		if t.param == t.attr {
			b.WriteByte('$')
			writeAttr(b, t)
			return
		}
		writeAttr(b, t)
		b.WriteString("=$")
		b.WriteString(t.param)
		return
	}

	switch t.value.kind {
	case ValueNone:
		writeAttr(b, t)
		if t.valueOptional {
			b.WriteString("=?")
		}
	case ValueTrue:
		b.WriteString("--")
		b.WriteString(t.attr)
	case ValueString:
		writeAttr(b, t)
		b.WriteByte('=')
		b.WriteString(formatString(t.value.str))
	case ValueNumber:
		writeAttr(b, t)
		b.WriteByte('=')
		b.WriteString(strconv.FormatInt(t.value.num, 10))
	case ValueWildcard:
		writeAttr(b, t)
		b.WriteString("=*")
	case ValueQuery:
		writeAttr(b, t)
		b.WriteByte('(')
		writeTags(b, t.value.query.tags)
		b.WriteByte(')')
	case ValueTagList:
		writeAttr(b, t)
		b.WriteByte('(')
		writeTags(b, t.value.list.tags)
		b.WriteByte(')')
	}
}

func writeAttr(b *strings.Builder, t *Tag) {
	b.WriteString(t.attr)
	if t.attrOptional {
		b.WriteByte('?')
	}
}

// formatString returns s bare when it re-lexes as a scalar value run under
// DefaultSettings, and quoted otherwise. All-digit strings are quoted so
// they stay strings.
func formatString(s string) string {
	if isBareValue(s) {
		return s
	}
	return quote(s)
}

func isBareValue(s string) bool {
	if s == "" || allDigits(s) {
		return false
	}
	for _, tok := range Tokenize(s, DefaultSettings()).Tokens {
		if !isScalarKind(tok.Kind) {
			return false
		}
	}
	return true
}

// quote wraps s in double quotes, escaping quotes and backslashes.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('"')
	return b.String()
}
