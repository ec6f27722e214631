package ports

import (
	"context"

	"github.com/bnema/freepackages/internal/domain"
)

// Transport is the authenticated connection of one session.
type Transport interface {
	IsConnected() bool
	FetchAccountData(ctx context.Context) (domain.AccountData, error)
}

// Eligibility holds the per-session accept/reject predicates.
type Eligibility interface {
	Ready() bool
	UpdateAccountData(data domain.AccountData)

	IsRedeemableLeaf(leaf domain.Leaf) bool
	IsWantedLeaf(leaf domain.Leaf) bool
	IsRedeemablePlaytest(leaf domain.Leaf) bool
	IsWantedPlaytest(leaf domain.Leaf) bool
	IsRedeemableGroup(group domain.Group) bool
	IsWantedGroup(group domain.Group) bool
}

// Queue receives classified items. Ordering and pacing are its own business.
type Queue interface {
	Enqueue(item domain.RedemptionItem) error
	Status() string
}

type SessionRepository interface {
	GetByName(ctx context.Context, name domain.SessionKey) (domain.Session, error)
	List(ctx context.Context) ([]domain.Session, error)
	Save(ctx context.Context, session domain.Session) error
	Delete(ctx context.Context, name domain.SessionKey) error
}
