package enums

import (
	"fmt"
	"slices"
)

// parse matches value exactly against the allowed set.
func parse[T ~string](kind, value string, allowed []T) (T, error) {
	if slices.Contains(allowed, T(value)) {
		return T(value), nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, value)
}
