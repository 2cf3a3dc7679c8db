// Package batch partitions identifier collections into request-sized groups.
package batch

import "iter"

// DefaultSize is the number of identifiers PubChem accepts comfortably in a
// single comma-joined path segment.
const DefaultSize = 10

// Dedupe drops repeated identifiers, keeping the first occurrence order.
func Dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Plan returns a lazy sequence of groups of at most size identifiers.
// Duplicates are removed before grouping. A size below one falls back to
// DefaultSize.
func Plan(ids []string, size int) iter.Seq[[]string] {
	if size < 1 {
		size = DefaultSize
	}
	return func(yield func([]string) bool) {
		seen := make(map[string]struct{}, len(ids))
		group := make([]string, 0, size)
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			group = append(group, id)
			if len(group) == size {
				if !yield(group) {
					return
				}
				group = make([]string, 0, size)
			}
		}
		if len(group) > 0 {
			yield(group)
		}
	}
}

// Count returns how many groups Plan would produce.
func Count(ids []string, size int) int {
	if size < 1 {
		size = DefaultSize
	}
	n := len(Dedupe(ids))
	return (n + size - 1) / size
}
