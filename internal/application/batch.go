package application

import (
	"iter"

	"github.com/bnema/freepackages/internal/domain"
)

// DefaultBatchSize is the largest combined number of identifiers the catalog
// accepts in a single lookup.
const DefaultBatchSize = 255

// Batch splits the two identifier sets into lookups of at most size
// identifiers combined. Leaves fill a batch before groups do.
func Batch(leaves domain.Set[domain.LeafID], groups domain.Set[domain.GroupID], size int) iter.Seq2[[]domain.LeafID, []domain.GroupID] {
	if size <= 0 {
		size = DefaultBatchSize
	}

	return func(yield func([]domain.LeafID, []domain.GroupID) bool) {
		leafIDs := leaves.Sorted()
		groupIDs := groups.Sorted()

		for len(leafIDs) > 0 || len(groupIDs) > 0 {
			leafCount := min(len(leafIDs), size)
			groupCount := min(len(groupIDs), size-leafCount)

			var leafBatch []domain.LeafID
			if leafCount > 0 {
				leafBatch = leafIDs[:leafCount:leafCount]
			}
			var groupBatch []domain.GroupID
			if groupCount > 0 {
				groupBatch = groupIDs[:groupCount:groupCount]
			}

			leafIDs = leafIDs[leafCount:]
			groupIDs = groupIDs[groupCount:]

			if !yield(leafBatch, groupBatch) {
				return
			}
		}
	}
}
