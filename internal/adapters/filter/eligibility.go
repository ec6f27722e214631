// Package filter implements the default per-session eligibility predicates
// from the account data and the session's filter config.
package filter

import (
	"slices"
	"sync"

	"github.com/bnema/freepackages/internal/domain"
	"github.com/bnema/freepackages/internal/ports"
)

// Eligibility is not ready until account data has been received once.
type Eligibility struct {
	filter domain.FilterConfig

	mu      sync.RWMutex
	account domain.AccountData
	ready   bool
}

var _ ports.Eligibility = (*Eligibility)(nil)

func NewEligibility(filter domain.FilterConfig) *Eligibility {
	return &Eligibility{filter: filter}
}

func (e *Eligibility) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ready
}

func (e *Eligibility) UpdateAccountData(data domain.AccountData) {
	if data.OwnedLeaves == nil {
		data.OwnedLeaves = domain.NewSet[domain.LeafID]()
	}
	if data.OwnedGroups == nil {
		data.OwnedGroups = domain.NewSet[domain.GroupID]()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.account = data
	e.ready = true
}

// IsRedeemableLeaf rejects owned leaves and DLC whose base is not owned.
func (e *Eligibility) IsRedeemableLeaf(leaf domain.Leaf) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.account.OwnedLeaves.Has(leaf.ID) {
		return false
	}
	if leaf.Type == domain.LeafTypeDLC && leaf.HasParent() && !e.account.OwnedLeaves.Has(leaf.ParentID) {
		return false
	}
	return true
}

func (e *Eligibility) IsWantedLeaf(leaf domain.Leaf) bool {
	if slices.Contains(e.filter.IgnoredLeaves, leaf.ID) {
		return false
	}
	if leaf.HasParent() && slices.Contains(e.filter.IgnoredLeaves, leaf.ParentID) {
		return false
	}
	if len(e.filter.Types) == 0 {
		return true
	}
	return slices.Contains(e.filter.Types, leaf.Type)
}

// IsRedeemablePlaytest requires a resolved parent; access is tracked by the
// playtest leaf itself.
func (e *Eligibility) IsRedeemablePlaytest(leaf domain.Leaf) bool {
	if leaf.Parent == nil {
		return false
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return !e.account.OwnedLeaves.Has(leaf.ID)
}

func (e *Eligibility) IsWantedPlaytest(leaf domain.Leaf) bool {
	if !e.filter.Playtests {
		return false
	}
	if slices.Contains(e.filter.IgnoredLeaves, leaf.ID) {
		return false
	}
	return leaf.Parent == nil || !slices.Contains(e.filter.IgnoredLeaves, leaf.Parent.ID)
}

// IsRedeemableGroup rejects owned groups, groups whose every content is
// already owned, groups limited accounts cannot take and, when configured,
// groups restricted to other countries.
func (e *Eligibility) IsRedeemableGroup(group domain.Group) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.account.OwnedGroups.Has(group.ID) {
		return false
	}
	if e.account.Limited && !group.IsNoCost() {
		return false
	}
	if e.filter.SkipUnavailableRegions && !group.AvailableIn(e.account.Country) {
		return false
	}

	if group.ContentIDs.Len() == 0 {
		return true
	}
	for id := range group.ContentIDs {
		if !e.account.OwnedLeaves.Has(id) {
			return true
		}
	}
	return false
}

// IsWantedGroup wants a group when it is not ignored and at least one of its
// resolved contents is wanted.
func (e *Eligibility) IsWantedGroup(group domain.Group) bool {
	if slices.Contains(e.filter.IgnoredGroups, group.ID) {
		return false
	}
	if len(group.Contents) == 0 {
		return true
	}
	return slices.ContainsFunc(group.Contents, e.IsWantedLeaf)
}
