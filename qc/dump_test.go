package qc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestQuery_Dump(t *testing.T) {
	q := mustQuery(t, `| cmd n=5 s="a b" --on x?=? p=$v sub(a=*)`)

	want := QueryDump{
		Command:   "cmd",
		Transform: true,
		Tags: []TagDump{
			{Attr: "cmd", Kind: "none"},
			{Attr: "n", Kind: "number", Number: 5},
			{Attr: "s", Kind: "string", Text: "a b"},
			{Attr: "on", Kind: "true"},
			{Attr: "x", AttrOptional: true, ValueOptional: true, Kind: "none"},
			{Attr: "p", Param: "v", Kind: "param"},
			{Attr: "sub", Kind: "taglist", Nested: &QueryDump{
				Tags: []TagDump{{Attr: "a", Kind: "wildcard"}},
			}},
		},
	}
	assert.Equal(t, want, q.Dump())
}

func TestQuery_MarshalJSON(t *testing.T) {
	q := mustQuery(t, `get users limit=5`)

	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"command": "get",
		"tags": [
			{"attr": "get", "kind": "none"},
			{"attr": "users", "kind": "none"},
			{"attr": "limit", "kind": "number", "number": 5}
		]
	}`, string(data))
}

func TestMultistepQuery_MarshalJSON(t *testing.T) {
	n, err := ParseMultiStepQuery("a | b c=x")
	require.NoError(t, err)

	data, err := json.Marshal(n)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"steps": [
			{"command": "a", "tags": [{"attr": "a", "kind": "none"}]},
			{"command": "b", "tags": [
				{"attr": "b", "kind": "none"},
				{"attr": "c", "kind": "string", "text": "x"}
			]}
		]
	}`, string(data))
}

func TestQuery_MarshalYAML(t *testing.T) {
	q := mustQuery(t, `set name=x`)

	data, err := yaml.Marshal(q)
	require.NoError(t, err)
	assert.YAMLEq(t, `
command: set
tags:
  - attr: set
    kind: none
  - attr: name
    kind: string
    text: x
`, string(data))
}

func TestDumpNode(t *testing.T) {
	tag, err := ParseTag("f(a b)")
	require.NoError(t, err)

	d, ok := DumpNode(tag).(TagDump)
	require.True(t, ok)
	require.NotNil(t, d.Nested)
	assert.Len(t, d.Nested.Tags, 2)

	list := NewTagList(NewTag("a", NoValue))
	assert.Equal(t, QueryDump{Tags: []TagDump{{Attr: "a", Kind: "none"}}}, DumpNode(list))
	assert.Nil(t, DumpNode(nil))
}
