package qc

import "fmt"

// FieldAccessor extracts one output field from an item.
type FieldAccessor[T any] func(T) any

// FieldSelector projects items onto a chosen, ordered set of fields.
type FieldSelector[T any] struct {
	accessors map[string]FieldAccessor[T]
	ordered   []string
}

// QueryFields are the fields a statement can be projected onto.
var QueryFields = map[string]FieldAccessor[*Query]{
	"command":   func(q *Query) any { return q.Command() },
	"transform": func(q *Query) any { return q.Transform() },
	"tags":      func(q *Query) any { return q.Len() },
	"text":      func(q *Query) any { return q.String() },
	"params":    func(q *Query) any { return CollectParams(q) },
	"dump":      func(q *Query) any { return q.Dump() },
}

// DefaultQueryFields is used when no fields are requested.
var DefaultQueryFields = []string{"command", "text"}

// NewFieldSelector validates requested against accessors, dropping
// duplicates and keeping the requested order. Unknown fields are an
// ErrValidation error.
func NewFieldSelector[T any](accessors map[string]FieldAccessor[T], requested []string) (*FieldSelector[T], error) {
	seen := make(map[string]bool, len(requested))
	fs := &FieldSelector[T]{accessors: accessors}
	for _, name := range requested {
		if _, ok := accessors[name]; !ok {
			return nil, &Error{
				Code:    ErrValidation,
				Message: fmt.Sprintf("unknown field: %s", name),
				Details: map[string]any{"field": name},
			}
		}
		if !seen[name] {
			seen[name] = true
			fs.ordered = append(fs.ordered, name)
		}
	}
	return fs, nil
}

// NewQuerySelector builds a selector over QueryFields, defaulting to
// DefaultQueryFields.
func NewQuerySelector(requested []string) (*FieldSelector[*Query], error) {
	if len(requested) == 0 {
		requested = DefaultQueryFields
	}
	return NewFieldSelector(QueryFields, requested)
}

// Apply extracts the selected fields of item.
func (fs *FieldSelector[T]) Apply(item T) map[string]any {
	result := make(map[string]any, len(fs.ordered))
	for _, name := range fs.ordered {
		result[name] = fs.accessors[name](item)
	}
	return result
}

// Values extracts the selected fields of item in selection order.
func (fs *FieldSelector[T]) Values(item T) []any {
	out := make([]any, len(fs.ordered))
	for i, name := range fs.ordered {
		out[i] = fs.accessors[name](item)
	}
	return out
}

// Fields returns the selected field names in order.
func (fs *FieldSelector[T]) Fields() []string {
	out := make([]string, len(fs.ordered))
	copy(out, fs.ordered)
	return out
}
