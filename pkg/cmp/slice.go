package cmp

// check a == b, element by element and in order.
func SliceEq[T comparable](a []T, b []T) bool {
	return SliceEqWith(a, b, func(x, y T) bool { return x == y })
}

// check a == b in order, in context of pred.
func SliceEqWith[T any, U any](a []T, b []U, pred func(a T, b U) bool) bool {
	if len(a) != len(b) {
		return false
	}

	for nth := range a {
		if !pred(a[nth], b[nth]) {
			return false
		}
	}

	return true
}

// check a and b have the same elements, ignoring order.
//
// Each element in a is paired with exactly one element in b, so
// duplicates should appear the same times in both.
func SliceContentEqWith[T any, U any](a []T, b []U, equiv func(T, U) bool) bool {
	if len(a) != len(b) {
		return false
	}

	rest := make([]*U, len(b))
	for i := range b {
		rest[i] = &b[i]
	}

NEXT_A:
	for _, va := range a {
		for i, vb := range rest {
			if vb == nil || !equiv(va, *vb) {
				continue
			}
			rest[i] = nil
			continue NEXT_A
		}
		return false
	}

	return true
}
