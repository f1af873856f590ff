package qc

// FilterItems returns only items for which the predicate returns true.
func FilterItems[T any](items []T, pred func(T) bool) []T {
	var result []T
	for _, item := range items {
		if pred(item) {
			result = append(result, item)
		}
	}
	return result
}

// Distinct returns the unique keys of items in first-seen order.
func Distinct[T any](items []T, keyFn func(T) string) []string {
	seen := make(map[string]bool)
	var result []string
	for _, item := range items {
		if key := keyFn(item); !seen[key] {
			seen[key] = true
			result = append(result, key)
		}
	}
	return result
}

// GroupBy groups items by key. Each group keeps the original order.
func GroupBy[T any](items []T, keyFn func(T) string) map[string][]T {
	groups := make(map[string][]T)
	for _, item := range items {
		key := keyFn(item)
		groups[key] = append(groups[key], item)
	}
	return groups
}

// FilterQueries returns the statements matching pattern (see Matches).
// A nil pattern matches everything.
func FilterQueries(queries []*Query, pattern *Query) []*Query {
	return FilterItems(queries, MatchFunc(pattern))
}

// GroupByCommand groups statements by command word.
func GroupByCommand(queries []*Query) map[string][]*Query {
	return GroupBy(queries, (*Query).Command)
}

// DistinctCommands returns the command words of queries in first-seen order.
func DistinctCommands(queries []*Query) []string {
	return Distinct(queries, (*Query).Command)
}
