// Package slices holds generic helpers over slices that the standard library
// does not provide at the targeted Go version.
package slices

// Find returns the first element satisfying pred.
func Find[E ~[]T, T any](l E, pred func(T) bool) (T, bool) {
	for _, x := range l {
		if pred(x) {
			return x, true
		}
	}
	var x T
	return x, false
}

// OneOf checks whether x occurs among xs.
func OneOf[T comparable](x T, xs ...T) bool {
	for _, x2 := range xs {
		if x == x2 {
			return true
		}
	}

	return false
}

// ReplaceUnique substitutes new for every occurrence of old and drops
// duplicates, keeping the first occurrence of every element. The input is not
// modified.
func ReplaceUnique[T comparable](l []T, old, new T) []T {
	res := make([]T, 0, len(l))
	seen := make(map[T]bool, len(l))
	for _, x := range l {
		if x == old {
			x = new
		}
		if !seen[x] {
			seen[x] = true
			res = append(res, x)
		}
	}
	return res
}
