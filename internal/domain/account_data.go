package domain

import "time"

// AccountData is the account metadata the eligibility predicates consult.
type AccountData struct {
	OwnedLeaves Set[LeafID]
	OwnedGroups Set[GroupID]
	Country     string
	// Limited accounts cannot redeem some free groups.
	Limited   bool
	FetchedAt time.Time
}
