package domain

import (
	"fmt"
	"strings"
)

type SessionKey string

// Session is the configured identity of one account.
type Session struct {
	Name          SessionKey
	Enabled       bool
	CredentialRef string
	Filter        FilterConfig
	// QueueLimit caps queued items; zero means unlimited.
	QueueLimit int
}

// FilterConfig drives the default eligibility predicates.
type FilterConfig struct {
	// Types lists the wanted leaf types; empty means every type.
	Types         []LeafType
	IgnoredLeaves []LeafID
	IgnoredGroups []GroupID
	Playtests     bool
	// SkipUnavailableRegions drops groups flagged for another country.
	SkipUnavailableRegions bool
}

func (s Session) Validate() error {
	if strings.TrimSpace(string(s.Name)) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(string(s.Name), `/\`) {
		return fmt.Errorf("name %q must not contain path separators", s.Name)
	}
	if s.QueueLimit < 0 {
		return fmt.Errorf("queue limit must not be negative")
	}
	for _, t := range s.Filter.Types {
		if !t.Valid() {
			return fmt.Errorf("unsupported leaf type %q", t)
		}
	}

	return nil
}

// NormalizeFilter deduplicates the filter lists, keeping first-seen order.
func (s *Session) NormalizeFilter() {
	if s == nil {
		return
	}

	s.Filter.Types = dedupe(s.Filter.Types)
	s.Filter.IgnoredLeaves = dedupe(s.Filter.IgnoredLeaves)
	s.Filter.IgnoredGroups = dedupe(s.Filter.IgnoredGroups)
}

func (t LeafType) Valid() bool {
	switch t {
	case LeafTypeGame, LeafTypeDLC, LeafTypeDemo, LeafTypeApplication, LeafTypeBeta:
		return true
	default:
		return false
	}
}

func dedupe[T comparable](values []T) []T {
	if values == nil {
		return nil
	}

	out := make([]T, 0, len(values))
	seen := make(map[T]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	return out
}
