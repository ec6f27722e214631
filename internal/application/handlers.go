package application

import (
	"context"

	"github.com/bnema/freepackages/internal/domain"
	"github.com/bnema/freepackages/internal/logging"
	"github.com/bnema/freepackages/internal/metrics"
)

// The handlers below run once per classified item and session. Each one
// returns early, leaving the item pending, when the item is no longer
// pending in this session or the session's predicates are not loaded yet.
// Past that point the pending flag is always cleared on return.

func (s *ClassificationService) handleFreeLeaf(ctx context.Context, p *pass, h *SessionHandle, leaf domain.Leaf) {
	if !h.Registry.HasLeafChange(leaf.ID) {
		return
	}
	if h.active() && !h.Eligibility.Ready() {
		return
	}
	defer h.Registry.RemoveLeafChange(leaf.ID)

	if !h.active() {
		return
	}
	if !h.Eligibility.IsRedeemableLeaf(leaf) || !h.Eligibility.IsWantedLeaf(leaf) {
		return
	}

	s.enqueue(ctx, p, h, domain.NewLeafItem(leaf.ID))
}

func (s *ClassificationService) handlePlaytest(ctx context.Context, p *pass, h *SessionHandle, leaf domain.Leaf) {
	if !h.Registry.HasLeafChange(leaf.ID) {
		return
	}
	if h.active() && !h.Eligibility.Ready() {
		return
	}
	defer h.Registry.RemoveLeafChange(leaf.ID)

	if !h.active() || leaf.Parent == nil {
		return
	}
	if !h.Eligibility.IsRedeemablePlaytest(leaf) || !h.Eligibility.IsWantedPlaytest(leaf) {
		return
	}

	s.enqueue(ctx, p, h, domain.NewPlaytestItem(leaf.Parent.ID))
}

func (s *ClassificationService) handleFreeGroup(ctx context.Context, p *pass, h *SessionHandle, group domain.Group) {
	if !h.Registry.HasGroupChange(group.ID) {
		return
	}
	if h.active() && !h.Eligibility.Ready() {
		return
	}
	defer h.Registry.RemoveGroupChange(group.ID)

	if !h.active() {
		return
	}
	if !h.Eligibility.IsRedeemableGroup(group) || !h.Eligibility.IsWantedGroup(group) {
		return
	}

	s.enqueue(ctx, p, h, domain.NewGroupItem(group))
}

// handleNewGroup looks for DLC listed by the contents of a newly owned group
// and queues it for classification in this session.
func (s *ClassificationService) handleNewGroup(ctx context.Context, p *pass, h *SessionHandle, group domain.Group) {
	if !h.Registry.HasNewGroup(group.ID) {
		return
	}
	defer h.Registry.RemoveNewGroupChange(group.ID)

	if !h.active() || len(group.Contents) == 0 {
		return
	}

	dlc := domain.NewSet[domain.LeafID]()
	for _, leaf := range group.Contents {
		dlc.AddAll(leaf.DLC...)
	}
	if dlc.Len() == 0 {
		return
	}

	added := h.Registry.AddChanges(dlc.Sorted(), nil, nil)
	if added == 0 {
		return
	}

	p.report.Reclassified += added
	logging.Ctx(ctx).Info().
		Str("session", string(h.Name())).
		Uint32("group", uint32(group.ID)).
		Int("dlc", added).
		Msg("new group lists unclassified dlc")
	s.Trigger()
}

func (s *ClassificationService) enqueue(ctx context.Context, p *pass, h *SessionHandle, item domain.RedemptionItem) {
	if err := h.Queue.Enqueue(item); err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("session", string(h.Name())).
			Str("item", item.Key()).
			Msg("enqueue redemption item")
		return
	}

	p.report.Enqueued++
	metrics.RecordEnqueued(string(item.Kind))
	logging.Ctx(ctx).Info().
		Str("session", string(h.Name())).
		Str("item", item.Key()).
		Msg("queued redemption item")
}
