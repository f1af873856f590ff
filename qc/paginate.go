package qc

import "fmt"

// Paginate applies skip/take slicing to items.
//
// Conventions:
//   - skip must be >= 0; skip >= len(items) yields an empty slice
//   - take 0 means no limit, otherwise take must be > 0
func Paginate[T any](items []T, skip, take int) ([]T, error) {
	if skip < 0 {
		return nil, &Error{
			Code:    ErrValidation,
			Message: fmt.Sprintf("skip must be >= 0, got %d", skip),
			Details: map[string]any{"param": "skip", "value": skip},
		}
	}
	if take < 0 {
		return nil, &Error{
			Code:    ErrValidation,
			Message: fmt.Sprintf("take must be > 0, got %d", take),
			Details: map[string]any{"param": "take", "value": take},
		}
	}
	if skip >= len(items) {
		return []T{}, nil
	}
	items = items[skip:]
	if take > 0 && take < len(items) {
		items = items[:take]
	}
	return items, nil
}
