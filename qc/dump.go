package qc

import "encoding/json"

// QueryDump is the structured projection of a Query or TagList used by
// tooling. TagLists dump with an empty Command.
type QueryDump struct {
	Command   string    `json:"command,omitempty" yaml:"command,omitempty"`
	Transform bool      `json:"transform,omitempty" yaml:"transform,omitempty"`
	Tags      []TagDump `json:"tags" yaml:"tags"`
}

// TagDump is the structured projection of a Tag.
type TagDump struct {
	Attr          string     `json:"attr,omitempty" yaml:"attr,omitempty"`
	AttrOptional  bool       `json:"attr_optional,omitempty" yaml:"attr_optional,omitempty"`
	ValueOptional bool       `json:"value_optional,omitempty" yaml:"value_optional,omitempty"`
	Param         string     `json:"param,omitempty" yaml:"param,omitempty"`
	Kind          string     `json:"kind" yaml:"kind"`
	Text          string     `json:"text,omitempty" yaml:"text,omitempty"`
	Number        int64      `json:"number,omitempty" yaml:"number,omitempty"`
	Nested        *QueryDump `json:"nested,omitempty" yaml:"nested,omitempty"`
}

// PipelineDump is the structured projection of a MultistepQuery.
type PipelineDump struct {
	Transform bool        `json:"transform,omitempty" yaml:"transform,omitempty"`
	Steps     []QueryDump `json:"steps" yaml:"steps"`
}

func (q *Query) Dump() QueryDump {
	return QueryDump{Command: q.Command(), Transform: q.transform, Tags: dumpTags(q.tags)}
}

func (l *TagList) Dump() QueryDump {
	return QueryDump{Tags: dumpTags(l.tags)}
}

func (t *Tag) Dump() TagDump {
	d := TagDump{
		Attr:          t.attr,
		AttrOptional:  t.attrOptional,
		ValueOptional: t.valueOptional,
		Param:         t.param,
		Kind:          t.value.kind.String(),
	}
	if t.param != "" {
		d.Kind = "param"
		return d
	}
	switch t.value.kind {
	case ValueString:
		d.Text = t.value.str
	case ValueNumber:
		d.Number = t.value.num
	case ValueQuery:
		nested := t.value.query.Dump()
		d.Nested = &nested
	case ValueTagList:
		nested := t.value.list.Dump()
		d.Nested = &nested
	}
	return d
}

func (m *MultistepQuery) Dump() PipelineDump {
	steps := make([]QueryDump, len(m.steps))
	for i, s := range m.steps {
		steps[i] = s.Dump()
	}
	return PipelineDump{Transform: m.transform, Steps: steps}
}

func dumpTags(tags []*Tag) []TagDump {
	out := make([]TagDump, len(tags))
	for i, t := range tags {
		out[i] = t.Dump()
	}
	return out
}

// DumpNode returns the structured projection of any node.
func DumpNode(n Node) any {
	switch n := n.(type) {
	case *Query:
		return n.Dump()
	case *TagList:
		return n.Dump()
	case *Tag:
		return n.Dump()
	case *MultistepQuery:
		return n.Dump()
	}
	return nil
}

func (q *Query) MarshalJSON() ([]byte, error)          { return json.Marshal(q.Dump()) }
func (l *TagList) MarshalJSON() ([]byte, error)        { return json.Marshal(l.Dump()) }
func (t *Tag) MarshalJSON() ([]byte, error)            { return json.Marshal(t.Dump()) }
func (m *MultistepQuery) MarshalJSON() ([]byte, error) { return json.Marshal(m.Dump()) }

// MarshalYAML implements yaml.Marshaler from gopkg.in/yaml.v3.
func (q *Query) MarshalYAML() (any, error)          { return q.Dump(), nil }
func (l *TagList) MarshalYAML() (any, error)        { return l.Dump(), nil }
func (t *Tag) MarshalYAML() (any, error)            { return t.Dump(), nil }
func (m *MultistepQuery) MarshalYAML() (any, error) { return m.Dump(), nil }
