package qc

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// SortDirection is the order of a sort key.
type SortDirection int

const (
	Asc SortDirection = iota
	Desc
)

// SortSpec is one key of a multi-key sort.
type SortSpec struct {
	Field     string
	Direction SortDirection
}

// SortComparator compares two items like cmp.Compare.
type SortComparator[T any] func(a, b T) int

// SortFieldOf creates a SortComparator from a typed accessor.
func SortFieldOf[T any, V cmp.Ordered](accessor func(T) V) SortComparator[T] {
	return func(a, b T) int {
		return cmp.Compare(accessor(a), accessor(b))
	}
}

// QuerySortFields are the sort keys understood by SortQueries.
var QuerySortFields = map[string]SortComparator[*Query]{
	"command": SortFieldOf((*Query).Command),
	"tags":    SortFieldOf((*Query).Len),
	"text":    SortFieldOf((*Query).String),
}

// ParseSortSpecs parses sort keys written as "field", "-field",
// "field:asc" or "field:desc". A leading '-' means descending.
func ParseSortSpecs(keys []string) ([]SortSpec, error) {
	var specs []SortSpec
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		dir := Asc
		if strings.HasPrefix(key, "-") {
			dir = Desc
			key = key[1:]
		}
		if field, order, ok := strings.Cut(key, ":"); ok {
			key = field
			switch strings.ToLower(order) {
			case "asc", "":
				dir = Asc
			case "desc":
				dir = Desc
			default:
				return nil, &Error{
					Code:    ErrValidation,
					Message: fmt.Sprintf("sort direction must be 'asc' or 'desc', got %q", order),
					Details: map[string]any{"field": field, "value": order},
				}
			}
		}
		if key == "" {
			return nil, &Error{
				Code:    ErrValidation,
				Message: "sort key requires a field name",
			}
		}
		specs = append(specs, SortSpec{Field: key, Direction: dir})
	}
	return specs, nil
}

// BuildSortFunc chains comparators for specs; the first non-zero result wins.
// It returns nil when specs is empty.
func BuildSortFunc[T any](specs []SortSpec, sortFields map[string]SortComparator[T]) (func(T, T) int, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	type step struct {
		compare SortComparator[T]
		desc    bool
	}
	steps := make([]step, len(specs))

	for i, spec := range specs {
		cmpFn, ok := sortFields[spec.Field]
		if !ok {
			return nil, &Error{
				Code:    ErrValidation,
				Message: fmt.Sprintf("field %q is not sortable", spec.Field),
				Details: map[string]any{"field": spec.Field},
			}
		}
		steps[i] = step{compare: cmpFn, desc: spec.Direction == Desc}
	}

	return func(a, b T) int {
		for _, s := range steps {
			result := s.compare(a, b)
			if s.desc {
				result = -result
			}
			if result != 0 {
				return result
			}
		}
		return 0
	}, nil
}

// SortSlice stably sorts items in place by keys. No keys is a no-op.
func SortSlice[T any](items []T, keys []string, sortFields map[string]SortComparator[T]) error {
	specs, err := ParseSortSpecs(keys)
	if err != nil {
		return err
	}
	cmpFunc, err := BuildSortFunc(specs, sortFields)
	if err != nil || cmpFunc == nil {
		return err
	}
	slices.SortStableFunc(items, cmpFunc)
	return nil
}

// SortQueries stably sorts statements by keys drawn from QuerySortFields.
func SortQueries(queries []*Query, keys []string) error {
	return SortSlice(queries, keys, QuerySortFields)
}
