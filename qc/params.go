package qc

import (
	"fmt"
	"slices"
)

// WithInlinedParams returns n with every parameter tag whose name appears in
// params replaced by a tag holding the mapped value. The replacement keeps
// the attribute and both optional flags and clears the parameter binding.
//
// The rewrite is pure and shares structure: subtrees without a matching
// parameter are reused, and when nothing matches n itself is returned.
// A changed result is frozen, together with the subtrees it shares.
func WithInlinedParams(n Node, params map[string]Value) Node {
	switch n := n.(type) {
	case *Query:
		return n.WithInlinedParams(params)
	case *TagList:
		return n.WithInlinedParams(params)
	case *Tag:
		return n.WithInlinedParams(params)
	case *MultistepQuery:
		return n.WithInlinedParams(params)
	}
	return n
}

func (q *Query) WithInlinedParams(params map[string]Value) *Query {
	out, changed := inlineQuery(q, params)
	if changed {
		out.Freeze()
	}
	return out
}

func (l *TagList) WithInlinedParams(params map[string]Value) *TagList {
	out, changed := inlineList(l, params)
	if changed {
		out.Freeze()
	}
	return out
}

func (t *Tag) WithInlinedParams(params map[string]Value) *Tag {
	out, changed := inlineTag(t, params)
	if changed {
		out.Freeze()
	}
	return out
}

func (m *MultistepQuery) WithInlinedParams(params map[string]Value) *MultistepQuery {
	var steps []*Query
	for i, s := range m.steps {
		ns, changed := inlineQuery(s, params)
		if changed && steps == nil {
			steps = make([]*Query, len(m.steps))
			copy(steps, m.steps)
		}
		if steps != nil {
			steps[i] = ns
		}
	}
	if steps == nil {
		return m
	}
	out := &MultistepQuery{steps: steps, transform: m.transform}
	out.Freeze()
	return out
}

func inlineQuery(q *Query, params map[string]Value) (*Query, bool) {
	tags, changed := inlineTags(q.tags, params)
	if !changed {
		return q, false
	}
	return &Query{tagSet: newTagSet(tags), transform: q.transform}, true
}

func inlineList(l *TagList, params map[string]Value) (*TagList, bool) {
	tags, changed := inlineTags(l.tags, params)
	if !changed {
		return l, false
	}
	return NewTagList(tags...), true
}

// inlineTags returns a new slice only when at least one tag changed.
func inlineTags(tags []*Tag, params map[string]Value) ([]*Tag, bool) {
	var out []*Tag
	for i, t := range tags {
		nt, changed := inlineTag(t, params)
		if changed && out == nil {
			out = make([]*Tag, len(tags))
			copy(out, tags)
		}
		if out != nil {
			out[i] = nt
		}
	}
	if out == nil {
		return tags, false
	}
	return out, true
}

func inlineTag(t *Tag, params map[string]Value) (*Tag, bool) {
	if t.param != "" {
		v, ok := params[t.param]
		if !ok {
			return t, false
		}
		nt := t.with(v)
		nt.param = ""
		return nt, true
	}
	switch t.value.kind {
	case ValueQuery:
		if q, changed := inlineQuery(t.value.query, params); changed {
			return t.with(QueryValue(q)), true
		}
	case ValueTagList:
		if l, changed := inlineList(t.value.list, params); changed {
			return t.with(TagListValue(l)), true
		}
	}
	return t, false
}

// Params converts Go values into a parameter map for WithInlinedParams.
// Strings, integers, true, Values, queries and tag lists are accepted.
func Params(in map[string]any) (map[string]Value, error) {
	out := make(map[string]Value, len(in))
	for name, raw := range in {
		v, err := toValue(raw)
		if err != nil {
			return nil, &Error{
				Code:    ErrWrongType,
				Message: fmt.Sprintf("parameter %s: %s", name, err),
				Details: map[string]any{"param": name},
			}
		}
		out[name] = v
	}
	return out, nil
}

func toValue(raw any) (Value, error) {
	switch v := raw.(type) {
	case Value:
		return v, nil
	case string:
		return StringValue(v), nil
	case int:
		return NumberValue(int64(v)), nil
	case int32:
		return NumberValue(int64(v)), nil
	case int64:
		return NumberValue(v), nil
	case bool:
		if !v {
			return NoValue, fmt.Errorf("false has no value representation")
		}
		return TrueValue(), nil
	case *Query:
		return QueryValue(v), nil
	case *TagList:
		return TagListValue(v), nil
	}
	return NoValue, fmt.Errorf("unsupported type %T", raw)
}

// CollectParams returns the names of unresolved parameters in n, sorted.
func CollectParams(n Node) []string {
	seen := make(map[string]bool)
	var walk func(tags []*Tag)
	walkTag := func(t *Tag) {
		if t.param != "" {
			seen[t.param] = true
			return
		}
		switch t.value.kind {
		case ValueQuery:
			walk(t.value.query.tags)
		case ValueTagList:
			walk(t.value.list.tags)
		}
	}
	walk = func(tags []*Tag) {
		for _, t := range tags {
			walkTag(t)
		}
	}

	switch n := n.(type) {
	case *Query:
		walk(n.tags)
	case *TagList:
		walk(n.tags)
	case *Tag:
		walkTag(n)
	case *MultistepQuery:
		for _, s := range n.steps {
			walk(s.tags)
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
