package domain

import (
	"strings"
	"time"
)

type LeafType string

const (
	LeafTypeGame        LeafType = "game"
	LeafTypeDLC         LeafType = "dlc"
	LeafTypeDemo        LeafType = "demo"
	LeafTypeApplication LeafType = "application"
	LeafTypeBeta        LeafType = "beta"
)

type BillingKind string

const (
	BillingStandard     BillingKind = "standard"
	BillingNoCost       BillingKind = "no_cost"
	BillingFreeOnDemand BillingKind = "free_on_demand"
)

// Leaf is a single piece of content resolved from the catalog in the current pass.
type Leaf struct {
	ID        LeafID
	Name      string
	Type      LeafType
	Available bool
	Free      bool
	// ParentID is zero when the leaf has no parent.
	ParentID LeafID
	DLC      []LeafID
	Parent   *Leaf
}

func (l Leaf) IsFree() bool {
	return l.Free
}

func (l Leaf) IsAvailable() bool {
	return l.Available
}

func (l Leaf) HasParent() bool {
	return l.ParentID != 0
}

func (l Leaf) IsPlaytest() bool {
	return l.Type == LeafTypeBeta
}

// AttachParent links the resolved parent when its ID matches ParentID.
func (l *Leaf) AttachParent(parents map[LeafID]Leaf) {
	if !l.HasParent() {
		return
	}
	if parent, ok := parents[l.ParentID]; ok {
		l.Parent = &parent
	}
}

// Group is a bundle resolved from the catalog in the current pass.
type Group struct {
	ID          GroupID
	Name        string
	Available   bool
	Free        bool
	BillingKind BillingKind
	ContentIDs  Set[LeafID]
	Contents    []Leaf
	// StartTime gates redemption; zero means no gate.
	StartTime time.Time
	// Countries restricts redemption to these country codes when set.
	Countries []string
	IsNew     bool
}

func (g Group) IsFree() bool {
	if g.Free {
		return true
	}

	switch g.BillingKind {
	case BillingNoCost, BillingFreeOnDemand:
		return true
	default:
		return false
	}
}

func (g Group) IsAvailable() bool {
	return g.Available
}

// AvailableIn reports whether an account in country may redeem the group.
func (g Group) AvailableIn(country string) bool {
	if len(g.Countries) == 0 {
		return true
	}
	for _, c := range g.Countries {
		if strings.EqualFold(c, country) {
			return true
		}
	}
	return false
}

func (g Group) IsNoCost() bool {
	return g.BillingKind == BillingNoCost
}

// AttachContents keeps the resolved leaves that belong to this group.
func (g *Group) AttachContents(leaves map[LeafID]Leaf) {
	contents := make([]Leaf, 0, len(g.ContentIDs))
	for _, id := range g.ContentIDs.Sorted() {
		if leaf, ok := leaves[id]; ok {
			contents = append(contents, leaf)
		}
	}
	g.Contents = contents
}

// ContentsAvailable reports whether every content ID resolved to an available leaf.
func (g Group) ContentsAvailable() bool {
	if len(g.Contents) != g.ContentIDs.Len() {
		return false
	}
	for _, leaf := range g.Contents {
		if !leaf.IsAvailable() {
			return false
		}
	}
	return true
}

func (g Group) ContentParentIDs() Set[LeafID] {
	ids := NewSet[LeafID]()
	for _, leaf := range g.Contents {
		if leaf.HasParent() {
			ids.Add(leaf.ParentID)
		}
	}
	return ids
}

func (g *Group) AttachContentParents(parents map[LeafID]Leaf) {
	for i := range g.Contents {
		g.Contents[i].AttachParent(parents)
	}
}

// CatalogResult is one catalog lookup response.
type CatalogResult struct {
	Leaves        []Leaf
	Groups        []Group
	UnknownLeaves []LeafID
	UnknownGroups []GroupID
}

func (r CatalogResult) LeavesByID() map[LeafID]Leaf {
	out := make(map[LeafID]Leaf, len(r.Leaves))
	for _, leaf := range r.Leaves {
		out[leaf.ID] = leaf
	}
	return out
}

// ChangeSet is a slice of the catalog change feed.
type ChangeSet struct {
	CurrentChange uint32
	Leaves        []LeafID
	Groups        []GroupID
}
