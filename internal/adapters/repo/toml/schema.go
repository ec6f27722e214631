package toml

import (
	"fmt"
	"time"

	"github.com/bnema/freepackages/internal/domain"
)

const currentSchemaVersion = 1

func defaultVersion(version int) int {
	if version == 0 {
		return currentSchemaVersion
	}
	return version
}

func validateVersion(kind string, version int) error {
	if version > currentSchemaVersion {
		return fmt.Errorf("unsupported %s schema version %d (current %d)", kind, version, currentSchemaVersion)
	}

	return nil
}

type sessionsFileSchema struct {
	Version  int             `toml:"version"`
	Sessions []sessionSchema `toml:"sessions"`
}

type sessionSchema struct {
	Name          string       `toml:"name"`
	Enabled       bool         `toml:"enabled"`
	CredentialRef string       `toml:"credential_ref,omitempty"`
	QueueLimit    int          `toml:"queue_limit,omitempty"`
	Filter        filterSchema `toml:"filter"`
}

type filterSchema struct {
	Types                  []string `toml:"types,omitempty"`
	IgnoredLeaves          []uint32 `toml:"ignored_leaves,omitempty"`
	IgnoredGroups          []uint32 `toml:"ignored_groups,omitempty"`
	Playtests              bool     `toml:"playtests"`
	SkipUnavailableRegions bool     `toml:"skip_unavailable_regions"`
}

type registryFileSchema struct {
	Version         int      `toml:"version"`
	SeenOwned       []uint32 `toml:"seen_owned"`
	ChangedLeaf     []uint32 `toml:"changed_leaf"`
	ChangedGroup    []uint32 `toml:"changed_group"`
	NewlyOwnedGroup []uint32 `toml:"newly_owned_group"`
}

type queueFileSchema struct {
	Version int               `toml:"version"`
	Items   []queueItemSchema `toml:"items"`
}

type queueItemSchema struct {
	Kind       string   `toml:"kind"`
	ID         uint32   `toml:"id"`
	StartTime  string   `toml:"start_time,omitempty"`
	ContentIDs []uint32 `toml:"content_ids,omitempty"`
}

func toSessionSchema(session domain.Session) sessionSchema {
	types := make([]string, 0, len(session.Filter.Types))
	for _, t := range session.Filter.Types {
		types = append(types, string(t))
	}

	return sessionSchema{
		Name:          string(session.Name),
		Enabled:       session.Enabled,
		CredentialRef: session.CredentialRef,
		QueueLimit:    session.QueueLimit,
		Filter: filterSchema{
			Types:                  types,
			IgnoredLeaves:          toUint32s(session.Filter.IgnoredLeaves),
			IgnoredGroups:          toUint32s(session.Filter.IgnoredGroups),
			Playtests:              session.Filter.Playtests,
			SkipUnavailableRegions: session.Filter.SkipUnavailableRegions,
		},
	}
}

func fromSessionSchema(schema sessionSchema) domain.Session {
	var types []domain.LeafType
	for _, t := range schema.Filter.Types {
		types = append(types, domain.LeafType(t))
	}

	return domain.Session{
		Name:          domain.SessionKey(schema.Name),
		Enabled:       schema.Enabled,
		CredentialRef: schema.CredentialRef,
		QueueLimit:    schema.QueueLimit,
		Filter: domain.FilterConfig{
			Types:                  types,
			IgnoredLeaves:          fromUint32s[domain.LeafID](schema.Filter.IgnoredLeaves),
			IgnoredGroups:          fromUint32s[domain.GroupID](schema.Filter.IgnoredGroups),
			Playtests:              schema.Filter.Playtests,
			SkipUnavailableRegions: schema.Filter.SkipUnavailableRegions,
		},
	}
}

func toRegistrySchema(snapshot domain.RegistrySnapshot) registryFileSchema {
	return registryFileSchema{
		SeenOwned:       toUint32s(snapshot.SeenOwned),
		ChangedLeaf:     toUint32s(snapshot.ChangedLeaf),
		ChangedGroup:    toUint32s(snapshot.ChangedGroup),
		NewlyOwnedGroup: toUint32s(snapshot.NewlyOwnedGroup),
	}
}

func fromRegistrySchema(schema registryFileSchema) domain.RegistrySnapshot {
	return domain.RegistrySnapshot{
		SeenOwned:       fromUint32s[domain.GroupID](schema.SeenOwned),
		ChangedLeaf:     fromUint32s[domain.LeafID](schema.ChangedLeaf),
		ChangedGroup:    fromUint32s[domain.GroupID](schema.ChangedGroup),
		NewlyOwnedGroup: fromUint32s[domain.GroupID](schema.NewlyOwnedGroup),
	}
}

func toQueueItemSchema(item domain.RedemptionItem) queueItemSchema {
	return queueItemSchema{
		Kind:       string(item.Kind),
		ID:         item.ID,
		StartTime:  formatTime(item.StartTime),
		ContentIDs: toUint32s(item.ContentIDs),
	}
}

func fromQueueItemSchema(schema queueItemSchema) domain.RedemptionItem {
	return domain.RedemptionItem{
		Kind:       domain.ItemKind(schema.Kind),
		ID:         schema.ID,
		StartTime:  parseTime(schema.StartTime),
		ContentIDs: fromUint32s[domain.LeafID](schema.ContentIDs),
	}
}

func toUint32s[T ~uint32](ids []T) []uint32 {
	if len(ids) == 0 {
		return nil
	}
	out := make([]uint32, len(ids))
	for i, id := range ids {
		out[i] = uint32(id)
	}
	return out
}

func fromUint32s[T ~uint32](ids []uint32) []T {
	if len(ids) == 0 {
		return nil
	}
	out := make([]T, len(ids))
	for i, id := range ids {
		out[i] = T(id)
	}
	return out
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.Format(time.RFC3339)
}
