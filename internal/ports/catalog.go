package ports

import (
	"context"

	"github.com/bnema/freepackages/internal/domain"
)

// CatalogResolver performs one remote lookup per call. An error means the
// whole lookup failed and the caller should retry on a later pass.
type CatalogResolver interface {
	Resolve(ctx context.Context, leaves []domain.LeafID, groups []domain.GroupID) (domain.CatalogResult, error)
}

type ChangeSource interface {
	FetchChanges(ctx context.Context, since uint32) (domain.ChangeSet, error)
}
