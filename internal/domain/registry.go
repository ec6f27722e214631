package domain

import "sync"

// ChangeRegistry is the per-session record of owned and pending identifiers.
// An identifier stays in a Changed set until a pass classifies it.
type ChangeRegistry struct {
	mu              sync.RWMutex
	seenOwned       Set[GroupID]
	changedLeaf     Set[LeafID]
	changedGroup    Set[GroupID]
	newlyOwnedGroup Set[GroupID]
}

// RegistrySnapshot is the persisted form of a ChangeRegistry. Slices are sorted.
type RegistrySnapshot struct {
	SeenOwned       []GroupID
	ChangedLeaf     []LeafID
	ChangedGroup    []GroupID
	NewlyOwnedGroup []GroupID
}

// PendingCounts summarizes the Changed sets.
type PendingCounts struct {
	Leaves     int
	Groups     int
	NewlyOwned int
}

func (c PendingCounts) Total() int {
	return c.Leaves + c.Groups + c.NewlyOwned
}

func NewChangeRegistry() *ChangeRegistry {
	return &ChangeRegistry{
		seenOwned:       NewSet[GroupID](),
		changedLeaf:     NewSet[LeafID](),
		changedGroup:    NewSet[GroupID](),
		newlyOwnedGroup: NewSet[GroupID](),
	}
}

func RestoreRegistry(snapshot RegistrySnapshot) *ChangeRegistry {
	r := NewChangeRegistry()
	r.seenOwned.AddAll(snapshot.SeenOwned...)
	r.changedLeaf.AddAll(snapshot.ChangedLeaf...)
	r.changedGroup.AddAll(snapshot.ChangedGroup...)
	r.newlyOwnedGroup.AddAll(snapshot.NewlyOwnedGroup...)
	return r
}

// AddChanges unions the identifiers into the pending sets and returns how many
// were not already pending.
func (r *ChangeRegistry) AddChanges(leaves []LeafID, groups []GroupID, newGroups []GroupID) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.changedLeaf.AddAll(leaves...) +
		r.changedGroup.AddAll(groups...) +
		r.newlyOwnedGroup.AddAll(newGroups...)
}

func (r *ChangeRegistry) RemoveLeafChange(id LeafID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changedLeaf.Remove(id)
}

func (r *ChangeRegistry) RemoveGroupChange(id GroupID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changedGroup.Remove(id)
}

func (r *ChangeRegistry) RemoveNewGroupChange(id GroupID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.newlyOwnedGroup.Remove(id)
}

func (r *ChangeRegistry) MarkSeen(groups []GroupID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seenOwned.AddAll(groups...)
}

// ObserveOwned applies an owned-group observation. The first non-empty
// observation only seeds SeenOwned (bootstrap == true). Later observations
// move unseen groups into NewlyOwnedGroup and return them.
func (r *ChangeRegistry) ObserveOwned(observed []GroupID) (newGroups []GroupID, bootstrap bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.seenOwned.Len() == 0 {
		r.seenOwned.AddAll(observed...)
		return nil, true
	}

	fresh := NewSet[GroupID]()
	for _, id := range observed {
		if !r.seenOwned.Has(id) {
			fresh.Add(id)
		}
	}
	if fresh.Len() == 0 {
		return nil, false
	}

	newGroups = fresh.Sorted()
	r.newlyOwnedGroup.AddAll(newGroups...)
	r.seenOwned.AddAll(newGroups...)

	return newGroups, false
}

func (r *ChangeRegistry) HasLeafChange(id LeafID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.changedLeaf.Has(id)
}

func (r *ChangeRegistry) HasGroupChange(id GroupID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.changedGroup.Has(id)
}

func (r *ChangeRegistry) HasNewGroup(id GroupID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.newlyOwnedGroup.Has(id)
}

// Pending copies the Changed sets.
func (r *ChangeRegistry) Pending() (leaves Set[LeafID], groups Set[GroupID], newGroups Set[GroupID]) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.changedLeaf.Clone(), r.changedGroup.Clone(), r.newlyOwnedGroup.Clone()
}

func (r *ChangeRegistry) Counts() PendingCounts {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return PendingCounts{
		Leaves:     r.changedLeaf.Len(),
		Groups:     r.changedGroup.Len(),
		NewlyOwned: r.newlyOwnedGroup.Len(),
	}
}

func (r *ChangeRegistry) SeenCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.seenOwned.Len()
}

func (r *ChangeRegistry) Snapshot() RegistrySnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return RegistrySnapshot{
		SeenOwned:       r.seenOwned.Sorted(),
		ChangedLeaf:     r.changedLeaf.Sorted(),
		ChangedGroup:    r.changedGroup.Sorted(),
		NewlyOwnedGroup: r.newlyOwnedGroup.Sorted(),
	}
}
