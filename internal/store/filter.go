package store

import "strings"

// Filter returns the records whose designated fields contain query
// (case-insensitive, any field) and that satisfy every predicate. The query
// is matched as given, so only "" disables the text match. Order is
// preserved and items is never modified.
func Filter[T any](items []T, query string, fields func(T) []string, preds ...func(T) bool) []T {
	needle := strings.ToLower(query)
	out := make([]T, 0, len(items))
	for _, item := range items {
		if needle != "" && !matchesAny(fields(item), needle) {
			continue
		}
		if !all(item, preds) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Equals builds a predicate that keeps records whose key equals want. An
// empty want keeps everything.
func Equals[T any, V ~string](key func(T) V, want string) func(T) bool {
	if want == "" {
		return func(T) bool { return true }
	}
	return func(item T) bool { return strings.EqualFold(string(key(item)), want) }
}

// Contains builds a predicate that keeps records whose key contains want,
// ignoring case. An empty want keeps everything.
func Contains[T any](key func(T) string, want string) func(T) bool {
	if want == "" {
		return func(T) bool { return true }
	}
	needle := strings.ToLower(want)
	return func(item T) bool { return strings.Contains(strings.ToLower(key(item)), needle) }
}

func matchesAny(fields []string, needle string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func all[T any](item T, preds []func(T) bool) bool {
	for _, p := range preds {
		if p != nil && !p(item) {
			return false
		}
	}
	return true
}
