package qc

// Node is implemented by *Query, *Tag, *TagList and *MultistepQuery.
type Node interface {
	// String returns the canonical text form of the node.
	String() string
	// Freeze makes the node and all of its children immutable.
	Freeze()
	Frozen() bool

	node()
}

var (
	_ Node = (*Query)(nil)
	_ Node = (*Tag)(nil)
	_ Node = (*TagList)(nil)
	_ Node = (*MultistepQuery)(nil)
)

// ValueKind identifies which alternative a Value holds.
type ValueKind int

const (
	ValueNone ValueKind = iota
	ValueString
	ValueNumber
	ValueTrue
	ValueQuery
	ValueTagList
	ValueWildcard
)

func (k ValueKind) String() string {
	switch k {
	case ValueNone:
		return "none"
	case ValueString:
		return "string"
	case ValueNumber:
		return "number"
	case ValueTrue:
		return "true"
	case ValueQuery:
		return "query"
	case ValueTagList:
		return "taglist"
	case ValueWildcard:
		return "wildcard"
	default:
		return "unknown"
	}
}

// Value is the value of a Tag. The zero Value is NoValue.
type Value struct {
	kind  ValueKind
	str   string
	num   int64
	query *Query
	list  *TagList
}

// NoValue is the absent value.
var NoValue = Value{}

// StringValue returns a string value.
func StringValue(s string) Value { return Value{kind: ValueString, str: s} }

// NumberValue returns a numeric value.
func NumberValue(n int64) Value { return Value{kind: ValueNumber, num: n} }

// TrueValue returns the boolean literal true, the value of a --flag tag.
func TrueValue() Value { return Value{kind: ValueTrue} }

// QueryValue returns a nested query value.
func QueryValue(q *Query) Value { return Value{kind: ValueQuery, query: q} }

// TagListValue returns a nested tag list value.
func TagListValue(l *TagList) Value { return Value{kind: ValueTagList, list: l} }

// WildcardValue returns the '*' sentinel. It matches anything and is not a
// usable value: typed accessors reject it.
func WildcardValue() Value { return Value{kind: ValueWildcard} }

func (v Value) Kind() ValueKind  { return v.kind }
func (v Value) IsNone() bool     { return v.kind == ValueNone }
func (v Value) IsWildcard() bool { return v.kind == ValueWildcard }
func (v Value) IsTrue() bool     { return v.kind == ValueTrue }

// Str returns the string held by a string value.
func (v Value) Str() (string, bool) { return v.str, v.kind == ValueString }

// Number returns the number held by a numeric value.
func (v Value) Number() (int64, bool) { return v.num, v.kind == ValueNumber }

// Query returns the nested query held by a query value.
func (v Value) Query() (*Query, bool) { return v.query, v.kind == ValueQuery }

// TagList returns the nested tag list held by a tag list value.
func (v Value) TagList() (*TagList, bool) { return v.list, v.kind == ValueTagList }

func (v Value) freeze() {
	switch v.kind {
	case ValueQuery:
		v.query.Freeze()
	case ValueTagList:
		v.list.Freeze()
	}
}

// Tag is one attribute of a query: a name, an optional value and an
// optional parameter binding. While a parameter is set the value is
// meaningless until WithInlinedParams replaces it.
type Tag struct {
	attr          string
	value         Value
	attrOptional  bool
	valueOptional bool
	param         string
	frozen        bool
}

// NewTag returns an unfrozen tag.
func NewTag(attr string, v Value) *Tag {
	return &Tag{attr: attr, value: v}
}

// NewParamTag returns a tag whose value is bound to the named parameter.
func NewParamTag(attr, param string) *Tag {
	return &Tag{attr: attr, param: param}
}

func (t *Tag) Attr() string        { return t.attr }
func (t *Tag) Value() Value        { return t.value }
func (t *Tag) AttrOptional() bool  { return t.attrOptional }
func (t *Tag) ValueOptional() bool { return t.valueOptional }
func (t *Tag) Frozen() bool        { return t.frozen }

// Param returns the parameter name when the tag is a parameter placeholder.
func (t *Tag) Param() (string, bool) { return t.param, t.param != "" }

// IsParam reports whether the tag is a parameter placeholder.
func (t *Tag) IsParam() bool { return t.param != "" }

// IsSelfParam reports whether the tag is named after its own parameter ($name).
func (t *Tag) IsSelfParam() bool { return t.param != "" && t.param == t.attr }

// SetValue sets the value and clears any parameter binding.
func (t *Tag) SetValue(v Value) error {
	if t.frozen {
		return errFrozen("tag " + t.attr)
	}
	t.value = v
	t.param = ""
	return nil
}

// SetParam binds the tag to a parameter.
func (t *Tag) SetParam(name string) error {
	if t.frozen {
		return errFrozen("tag " + t.attr)
	}
	t.param = name
	t.value = NoValue
	return nil
}

func (t *Tag) SetAttrOptional(b bool) error {
	if t.frozen {
		return errFrozen("tag " + t.attr)
	}
	t.attrOptional = b
	return nil
}

func (t *Tag) SetValueOptional(b bool) error {
	if t.frozen {
		return errFrozen("tag " + t.attr)
	}
	t.valueOptional = b
	return nil
}

// Freeze makes the tag and its nested value immutable.
func (t *Tag) Freeze() {
	if t.frozen {
		return
	}
	t.frozen = true
	t.value.freeze()
}

// with returns an unfrozen copy of t holding v instead of its value.
func (t *Tag) with(v Value) *Tag {
	cp := *t
	cp.value = v
	cp.frozen = false
	return &cp
}

func (*Tag) node() {}

// tagSet is the ordered tag sequence shared by Query and TagList. The index
// is derived from tags and rebuilt on every change; for duplicate attributes
// the last tag wins in the index while all tags stay in order.
type tagSet struct {
	tags   []*Tag
	index  map[string]*Tag
	frozen bool
}

func newTagSet(tags []*Tag) tagSet {
	s := tagSet{tags: tags}
	s.reindex()
	return s
}

func (s *tagSet) reindex() {
	s.index = make(map[string]*Tag, len(s.tags))
	for _, t := range s.tags {
		s.index[t.attr] = t
	}
}

// Tags returns the tags in order. The slice is a copy; the tags are not.
func (s *tagSet) Tags() []*Tag {
	out := make([]*Tag, len(s.tags))
	copy(out, s.tags)
	return out
}

// Len returns the number of tags.
func (s *tagSet) Len() int { return len(s.tags) }

// Tag returns the i-th tag.
func (s *tagSet) Tag(i int) *Tag { return s.tags[i] }

// Frozen reports whether the node rejects mutation.
func (s *tagSet) Frozen() bool { return s.frozen }

func (s *tagSet) add(t *Tag, what string) error {
	if s.frozen {
		return errFrozen(what)
	}
	if s.index == nil {
		s.reindex()
	}
	s.tags = append(s.tags, t)
	s.index[t.attr] = t
	return nil
}

func (s *tagSet) freeze() {
	if s.frozen {
		return
	}
	s.frozen = true
	for _, t := range s.tags {
		t.Freeze()
	}
}

// TagList is an ordered group of tags, used as a nested value or as a
// parenthesized tuple.
type TagList struct {
	tagSet
}

// NewTagList returns an unfrozen tag list.
func NewTagList(tags ...*Tag) *TagList {
	return &TagList{tagSet: newTagSet(tags)}
}

// AddTag appends a tag.
func (l *TagList) AddTag(t *Tag) error { return l.add(t, "tag list") }

// Freeze makes the list and all tags immutable.
func (l *TagList) Freeze() { l.freeze() }

// AsQuery interprets the list as a query when its first tag is a bare word:
// that word becomes the command.
func (l *TagList) AsQuery() (*Query, bool) {
	if len(l.tags) == 0 {
		return nil, false
	}
	first := l.tags[0]
	if first.attr == "" || !first.value.IsNone() || first.IsParam() {
		return nil, false
	}
	q := NewQuery(l.Tags()...)
	if l.frozen {
		q.Freeze()
	}
	return q, true
}

func (*TagList) node() {}

// Query is a command word plus its ordered tags. The command is the
// attribute of the first tag, so "limit 10 foo" has the tags
// [limit, count=10, foo] and the command "limit".
type Query struct {
	tagSet
	transform bool
}

// NewQuery returns an unfrozen query. The first tag names the command.
func NewQuery(tags ...*Tag) *Query {
	return &Query{tagSet: newTagSet(tags)}
}

// Command returns the command word, or "" for an empty query.
func (q *Query) Command() string {
	if len(q.tags) == 0 {
		return ""
	}
	return q.tags[0].attr
}

// IsEmpty reports whether the query has no command. Empty queries come from
// empty input and mean "no query".
func (q *Query) IsEmpty() bool { return q.Command() == "" }

// Transform reports whether the query was written with a leading pipe,
// marking it as the continuation of a pipeline.
func (q *Query) Transform() bool { return q.transform }

func (q *Query) SetTransform(b bool) error {
	if q.frozen {
		return errFrozen("query " + q.Command())
	}
	q.transform = b
	return nil
}

// AddTag appends a tag.
func (q *Query) AddTag(t *Tag) error { return q.add(t, "query "+q.Command()) }

// Freeze makes the query and all tags immutable.
func (q *Query) Freeze() { q.freeze() }

func (*Query) node() {}

// MultistepQuery is a pipeline of queries written as "a | b" or "a / b".
type MultistepQuery struct {
	steps     []*Query
	transform bool
	frozen    bool
}

// NewMultistepQuery returns an unfrozen pipeline.
func NewMultistepQuery(steps ...*Query) *MultistepQuery {
	return &MultistepQuery{steps: steps}
}

// Steps returns the steps in order. The slice is a copy.
func (m *MultistepQuery) Steps() []*Query {
	out := make([]*Query, len(m.steps))
	copy(out, m.steps)
	return out
}

func (m *MultistepQuery) Len() int          { return len(m.steps) }
func (m *MultistepQuery) Step(i int) *Query { return m.steps[i] }
func (m *MultistepQuery) Transform() bool   { return m.transform }
func (m *MultistepQuery) Frozen() bool      { return m.frozen }

func (m *MultistepQuery) SetTransform(b bool) error {
	if m.frozen {
		return errFrozen("multistep query")
	}
	m.transform = b
	return nil
}

// AddStep appends a step.
func (m *MultistepQuery) AddStep(q *Query) error {
	if m.frozen {
		return errFrozen("multistep query")
	}
	m.steps = append(m.steps, q)
	return nil
}

// Freeze makes the pipeline and all steps immutable.
func (m *MultistepQuery) Freeze() {
	if m.frozen {
		return
	}
	m.frozen = true
	for _, s := range m.steps {
		s.Freeze()
	}
}

func (*MultistepQuery) node() {}
