package ports

import (
	"context"

	"github.com/bnema/freepackages/internal/domain"
)

// RegistryStore persists change registries. Load returns
// domain.ErrRegistryNotFound when nothing was saved for the session.
type RegistryStore interface {
	Load(ctx context.Context, name domain.SessionKey) (*domain.ChangeRegistry, error)
	Save(ctx context.Context, name domain.SessionKey, registry *domain.ChangeRegistry) error
}

type QueueStore interface {
	LoadQueue(ctx context.Context, name domain.SessionKey) ([]domain.RedemptionItem, error)
	SaveQueue(ctx context.Context, name domain.SessionKey, items []domain.RedemptionItem) error
}
