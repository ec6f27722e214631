package domain

import (
	"fmt"
	"time"
)

type ItemKind string

const (
	ItemKindLeaf     ItemKind = "leaf"
	ItemKindGroup    ItemKind = "group"
	ItemKindPlaytest ItemKind = "playtest"
)

// RedemptionItem is the unit handed to a session queue.
type RedemptionItem struct {
	Kind ItemKind
	ID   uint32
	// StartTime is a gate before which redemption must not be attempted.
	StartTime  time.Time
	ContentIDs []LeafID
}

func NewLeafItem(id LeafID) RedemptionItem {
	return RedemptionItem{Kind: ItemKindLeaf, ID: uint32(id)}
}

func NewPlaytestItem(parent LeafID) RedemptionItem {
	return RedemptionItem{Kind: ItemKindPlaytest, ID: uint32(parent)}
}

func NewGroupItem(group Group) RedemptionItem {
	return RedemptionItem{
		Kind:       ItemKindGroup,
		ID:         uint32(group.ID),
		StartTime:  group.StartTime,
		ContentIDs: group.ContentIDs.Sorted(),
	}
}

// Key identifies the item inside one queue.
func (i RedemptionItem) Key() string {
	return fmt.Sprintf("%s/%d", i.Kind, i.ID)
}

func (i RedemptionItem) Gated(now time.Time) bool {
	return !i.StartTime.IsZero() && now.Before(i.StartTime)
}
