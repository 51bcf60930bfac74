// Package collection holds small generic slice helpers used by the
// in-memory store.
package collection

// IndexOf returns the position of the first element matching fn, or -1.
func IndexOf[T any](s []T, fn func(T) bool) int {
	for i, v := range s {
		if fn(v) {
			return i
		}
	}
	return -1
}

// Contains reports whether any element matches fn.
func Contains[T any](s []T, fn func(T) bool) bool {
	return IndexOf(s, fn) >= 0
}

// Filter returns the elements matching fn. The result is never nil so it
// encodes as [] rather than null.
func Filter[T any](s []T, fn func(T) bool) []T {
	out := make([]T, 0)
	for _, v := range s {
		if fn(v) {
			out = append(out, v)
		}
	}
	return out
}

// RemoveAt drops the element at i, reusing s's backing array.
func RemoveAt[T any](s []T, i int) []T {
	return append(s[:i], s[i+1:]...)
}

// Take returns at most n leading elements. n <= 0 means no limit.
func Take[T any](s []T, n int) []T {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}

// Clone copies s into a fresh slice.
func Clone[T any](s []T) []T {
	return append([]T(nil), s...)
}
