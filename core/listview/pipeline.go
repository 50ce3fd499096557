package listview

import (
	"sort"
	"strings"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/user"
)

// Pipeline derives the displayed view of a collection. Every func is optional.
type Pipeline[T any] struct {
	// Search lists the text fields matched against the query.
	Search []func(T) string
	// Scope is the role predicate: records it rejects are never shown to the principal.
	Scope func(who user.Principal, item T) bool
	// Less is the default order, used when no ordering is requested.
	Less func(a, b T) bool
	// SortKeys maps an ordering field name to a comparator (<0, 0, >0).
	SortKeys map[string]func(a, b T) int
	// GroupKey partitions the sorted records.
	GroupKey func(T) string
}

type Group[T any] struct {
	Key   string
	Items []T
}

// View is the derived, display-ready collection.
type View[T any] struct {
	Items  []T
	Groups []Group[T] // only set when the pipeline has a GroupKey
}

func (v View[T]) Len() int    { return len(v.Items) }
func (v View[T]) Empty() bool { return len(v.Items) == 0 }

// Derive filters items by query, scopes them to who, sorts and groups them.
// It never mutates items and returns structurally identical views for identical inputs.
func (p Pipeline[T]) Derive(items []T, query string, who user.Principal, ordering ...core.Ordering) View[T] {
	query = strings.ToLower(strings.TrimSpace(query))

	out := make([]T, 0, len(items))
	for _, item := range items {
		if !p.matches(item, query) {
			continue
		}
		if p.Scope != nil && !p.Scope(who, item) {
			continue
		}
		out = append(out, item)
	}

	if less := p.lessFunc(ordering); less != nil {
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	}

	view := View[T]{Items: out}
	if p.GroupKey != nil {
		view.Groups = GroupBy(out, p.GroupKey)
	}
	return view
}

// Scoped returns only the records visible to who, in their original order.
func (p Pipeline[T]) Scoped(items []T, who user.Principal) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if p.Scope == nil || p.Scope(who, item) {
			out = append(out, item)
		}
	}
	return out
}

func (p Pipeline[T]) matches(item T, query string) bool {
	if query == "" {
		return true
	}
	for _, field := range p.Search {
		if strings.Contains(strings.ToLower(field(item)), query) {
			return true
		}
	}
	return false
}

// lessFunc chains the requested orderings over the known sort keys, falling back to Less.
func (p Pipeline[T]) lessFunc(ordering []core.Ordering) func(a, b T) bool {
	var cmps []func(a, b T) int
	for _, ord := range ordering {
		cmp, ok := p.SortKeys[ord.Field]
		if !ok {
			continue // unknown fields are ignored
		}
		if ord.Ascending {
			cmps = append(cmps, cmp)
		} else {
			cmps = append(cmps, func(a, b T) int { return -cmp(a, b) })
		}
	}
	if len(cmps) == 0 {
		return p.Less
	}

	return func(a, b T) bool {
		for _, cmp := range cmps {
			if c := cmp(a, b); c != 0 {
				return c < 0
			}
		}
		return false
	}
}

// GroupBy partitions items by key. Groups appear in first-occurrence order
// and keep the relative order of their items.
func GroupBy[T any](items []T, key func(T) string) []Group[T] {
	var groups []Group[T]
	index := make(map[string]int)
	for _, item := range items {
		k := key(item)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[T]{Key: k})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}

// CompareStrings compares case-insensitively, for use in SortKeys.
func CompareStrings(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func CompareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
