package qc

import (
	"strconv"
	"strings"
)

// Matches reports whether q matches pattern. A pattern is itself a query:
//
//	attr              attr must be present
//	"*" as command    any command
//	attr?             attr may be absent; if present the rest still applies
//	attr=*            attr must carry a value
//	attr=? / $attr    attr must be present, any value
//	attr=v            value equals v (case-insensitive; numbers compare by text)
//	--attr            attr is a true flag
//	attr(...)         nested tags of attr match recursively
//
// Extra tags in q are ignored. Pattern tags are AND-ed.
func Matches(q, pattern *Query) bool {
	if pattern == nil || pattern.IsEmpty() {
		return true
	}
	if q == nil || q.IsEmpty() {
		return false
	}
	if cmd := pattern.Command(); cmd != "*" && !strings.EqualFold(cmd, q.Command()) {
		return false
	}
	return matchTags(&q.tagSet, pattern.tags[1:])
}

// MatchFunc returns Matches bound to pattern, for use with FilterItems.
func MatchFunc(pattern *Query) func(*Query) bool {
	return func(q *Query) bool { return Matches(q, pattern) }
}

func matchTags(target *tagSet, pattern []*Tag) bool {
	for _, p := range pattern {
		if p.attr == "*" {
			continue
		}
		t, ok := target.GetAttr(p.attr)
		if !ok {
			if p.attrOptional {
				continue
			}
			return false
		}
		if !matchValue(t, p) {
			return false
		}
	}
	return true
}

func matchValue(t, p *Tag) bool {
	if p.IsParam() || p.valueOptional {
		return true
	}
	v := t.value
	if t.IsParam() {
		v = NoValue
	}
	switch p.value.kind {
	case ValueNone:
		return true
	case ValueWildcard:
		return !v.IsNone()
	case ValueTrue:
		return v.IsTrue()
	case ValueString:
		return strings.EqualFold(scalarText(v), p.value.str)
	case ValueNumber:
		return scalarText(v) == strconv.FormatInt(p.value.num, 10)
	case ValueQuery:
		nested, ok := nestedSet(v)
		return ok && matchTags(nested, p.value.query.tags)
	case ValueTagList:
		nested, ok := nestedSet(v)
		return ok && matchTags(nested, p.value.list.tags)
	}
	return false
}

func scalarText(v Value) string {
	switch v.kind {
	case ValueString:
		return v.str
	case ValueNumber:
		return strconv.FormatInt(v.num, 10)
	}
	return ""
}

func nestedSet(v Value) (*tagSet, bool) {
	switch v.kind {
	case ValueQuery:
		return &v.query.tagSet, true
	case ValueTagList:
		return &v.list.tagSet, true
	}
	return nil, false
}
