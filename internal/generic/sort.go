package generic

import (
	"cmp"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// SortBy sorts the slice in place by the key extracted from each element.
// The sort is stable, so elements with equal keys keep their relative order.
func SortBy[T any, K constraints.Ordered](s []T, key func(T) K) {
	slices.SortStableFunc(s, func(a, b T) int {
		return cmp.Compare(key(a), key(b))
	})
}
