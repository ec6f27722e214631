package domain

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

type LeafID uint32
type GroupID uint32

// Set is an unordered identifier set. The zero value is not usable; use NewSet.
type Set[T cmp.Ordered] map[T]struct{}

func NewSet[T cmp.Ordered](values ...T) Set[T] {
	s := make(Set[T], len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts v and reports whether it was not already present.
func (s Set[T]) Add(v T) bool {
	if _, ok := s[v]; ok {
		return false
	}
	s[v] = struct{}{}
	return true
}

// AddAll inserts every value and returns how many were new.
func (s Set[T]) AddAll(values ...T) int {
	added := 0
	for _, v := range values {
		if s.Add(v) {
			added++
		}
	}
	return added
}

func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

func (s Set[T]) Remove(v T) bool {
	if _, ok := s[v]; !ok {
		return false
	}
	delete(s, v)
	return true
}

func (s Set[T]) Len() int {
	return len(s)
}

func (s Set[T]) Union(other Set[T]) {
	for v := range other {
		s[v] = struct{}{}
	}
}

func (s Set[T]) Clone() Set[T] {
	out := make(Set[T], len(s))
	out.Union(s)
	return out
}

// Sorted returns the members in ascending order.
func (s Set[T]) Sorted() []T {
	out := make([]T, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// ParseLeafIDList parses a comma separated identifier list such as a DLC
// listing. Empty, zero and malformed entries are skipped.
func ParseLeafIDList(raw string) []LeafID {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	ids := make([]LeafID, 0, strings.Count(raw, ",")+1)
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil || n == 0 {
			continue
		}
		ids = append(ids, LeafID(n))
	}

	return ids
}
