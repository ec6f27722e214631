package application

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bnema/freepackages/internal/domain"
	"github.com/bnema/freepackages/internal/logging"
	"github.com/bnema/freepackages/internal/metrics"
)

// PassReport summarizes one classification pass.
type PassReport struct {
	CorrelationID string
	Sessions      int
	PendingLeaves int
	PendingGroups int
	Batches       int
	FailedBatches int
	Discarded     int
	Unknown       int
	Enqueued      int
	Reclassified  int
	ReadyTimedOut bool
	Duration      time.Duration
}

// Empty reports whether the pass found nothing to classify.
func (r PassReport) Empty() bool {
	return r.PendingLeaves == 0 && r.PendingGroups == 0
}

type pass struct {
	handles   []*SessionHandle
	newGroups domain.Set[domain.GroupID]
	report    *PassReport
}

// discard reasons
const (
	reasonLeafNotFree         = "leaf_not_free"
	reasonGroupNotFree        = "group_not_free"
	reasonContentsUnavailable = "contents_unavailable"
	reasonUnknown             = "unknown"
)

// RunPass classifies every pending identifier of every connected session.
// Passes never overlap. An error is returned only when ctx ends the pass.
func (s *ClassificationService) RunPass(ctx context.Context) (PassReport, error) {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	ctx = logging.ContextWithNewCorrelationID(ctx)
	log := logging.Ctx(ctx)
	start := s.clock.Now()
	report := PassReport{CorrelationID: logging.CorrelationIDFromContext(ctx)}

	if !s.AwaitReady(ctx, s.opts.ReadyTimeout) {
		if err := ctx.Err(); err != nil {
			metrics.RecordPass("cancelled", s.clock.Now().Sub(start))
			return report, err
		}
		report.ReadyTimedOut = true
		metrics.ReadyTimeouts.Inc()
		log.Warn().Dur("waited", s.opts.ReadyTimeout).Msg("sessions not ready, classifying anyway")
	}

	p := &pass{handles: s.sessions.snapshot(), report: &report}
	report.Sessions = len(p.handles)

	leaves, groups, newGroups := aggregatePending(p.handles)
	groups.Union(newGroups)
	p.newGroups = newGroups
	report.PendingLeaves = leaves.Len()
	report.PendingGroups = groups.Len()

	if report.Empty() {
		report.Duration = s.clock.Now().Sub(start)
		metrics.RecordPass("empty", report.Duration)
		log.Debug().Msg("nothing pending")
		return report, nil
	}

	log.Info().
		Int("sessions", report.Sessions).
		Int("leaves", report.PendingLeaves).
		Int("groups", report.PendingGroups).
		Msg("classification pass started")

	for leafBatch, groupBatch := range Batch(leaves, groups, s.opts.BatchSize) {
		if ctx.Err() != nil {
			break
		}
		if err := s.processBatch(ctx, p, leafBatch, groupBatch); err != nil {
			log.Warn().Err(err).
				Int("leaves", len(leafBatch)).
				Int("groups", len(groupBatch)).
				Msg("batch skipped, identifiers stay pending")
		}
	}

	s.saveRegistries(ctx, p.handles)

	report.Duration = s.clock.Now().Sub(start)
	if err := ctx.Err(); err != nil {
		metrics.RecordPass("cancelled", report.Duration)
		return report, err
	}

	metrics.RecordPass("completed", report.Duration)
	log.Info().
		Int("batches", report.Batches).
		Int("failed_batches", report.FailedBatches).
		Int("discarded", report.Discarded).
		Int("unknown", report.Unknown).
		Int("enqueued", report.Enqueued).
		Dur("duration", report.Duration).
		Msg("classification pass finished")

	return report, nil
}

// aggregatePending unions the pending sets of the enabled, connected sessions.
func aggregatePending(handles []*SessionHandle) (domain.Set[domain.LeafID], domain.Set[domain.GroupID], domain.Set[domain.GroupID]) {
	leaves := domain.NewSet[domain.LeafID]()
	groups := domain.NewSet[domain.GroupID]()
	newGroups := domain.NewSet[domain.GroupID]()

	for _, h := range handles {
		if !h.active() {
			continue
		}
		l, g, n := h.Registry.Pending()
		leaves.Union(l)
		groups.Union(g)
		newGroups.Union(n)
	}

	return leaves, groups, newGroups
}

func (s *ClassificationService) processBatch(ctx context.Context, p *pass, leafIDs []domain.LeafID, groupIDs []domain.GroupID) error {
	result, err := s.catalog.Resolve(ctx, leafIDs, groupIDs)
	metrics.RecordResolve("batch", err)
	if err != nil {
		p.report.FailedBatches++
		return fmt.Errorf("resolve batch: %w", err)
	}
	p.report.Batches++

	s.scrubUnknown(p, result.UnknownLeaves, result.UnknownGroups)

	if err := s.processLeaves(ctx, p, result.Leaves); err != nil {
		return err
	}
	return s.processGroups(ctx, p, result.Groups)
}

func (s *ClassificationService) processLeaves(ctx context.Context, p *pass, resolved []domain.Leaf) error {
	leaves := make([]domain.Leaf, 0, len(resolved))
	for _, leaf := range resolved {
		if !leaf.IsFree() || !leaf.IsAvailable() {
			s.discardLeaf(p, leaf.ID, reasonLeafNotFree)
			continue
		}
		leaves = append(leaves, leaf)
	}
	if len(leaves) == 0 {
		return nil
	}

	parentIDs := domain.NewSet[domain.LeafID]()
	for _, leaf := range leaves {
		if leaf.HasParent() {
			parentIDs.Add(leaf.ParentID)
		}
	}
	parents, err := s.resolveLeaves(ctx, "parents", parentIDs)
	if err != nil {
		return fmt.Errorf("resolve leaf parents: %w", err)
	}
	for i := range leaves {
		leaves[i].AttachParent(parents)
	}

	for _, leaf := range leaves {
		for _, h := range p.handles {
			if leaf.IsPlaytest() {
				s.handlePlaytest(ctx, p, h, leaf)
			} else {
				s.handleFreeLeaf(ctx, p, h, leaf)
			}
		}
	}

	return nil
}

type groupCandidate struct {
	group domain.Group
	// free is false once the group was discarded; new groups survive a
	// discard for their DLC scan.
	free bool
}

func (s *ClassificationService) processGroups(ctx context.Context, p *pass, resolved []domain.Group) error {
	candidates := make([]groupCandidate, 0, len(resolved))
	for _, group := range resolved {
		group.IsNew = p.newGroups.Has(group.ID)

		free := group.IsFree() && group.IsAvailable()
		if !free {
			s.discardGroup(p, group.ID, reasonGroupNotFree)
			if !group.IsNew {
				continue
			}
		}
		candidates = append(candidates, groupCandidate{group: group, free: free})
	}
	if len(candidates) == 0 {
		return nil
	}

	contentIDs := domain.NewSet[domain.LeafID]()
	for _, c := range candidates {
		contentIDs.Union(c.group.ContentIDs)
	}
	contents, err := s.resolveLeaves(ctx, "contents", contentIDs)
	if err != nil {
		return fmt.Errorf("resolve group contents: %w", err)
	}

	kept := candidates[:0]
	for _, c := range candidates {
		c.group.AttachContents(contents)

		if c.free && !c.group.ContentsAvailable() && !c.group.IsNoCost() {
			s.discardGroup(p, c.group.ID, reasonContentsUnavailable)
			if !c.group.IsNew {
				continue
			}
			c.free = false
		}
		kept = append(kept, c)
	}

	parentIDs := domain.NewSet[domain.LeafID]()
	for _, c := range kept {
		parentIDs.Union(c.group.ContentParentIDs())
	}
	parents, err := s.resolveLeaves(ctx, "parents", parentIDs)
	if err != nil {
		return fmt.Errorf("resolve group content parents: %w", err)
	}

	for _, c := range kept {
		c.group.AttachContentParents(parents)
		for _, h := range p.handles {
			if c.group.IsNew {
				s.handleNewGroup(ctx, p, h, c.group)
			} else {
				s.handleFreeGroup(ctx, p, h, c.group)
			}
		}
	}

	return nil
}

// resolveLeaves looks up extra leaves needed to enrich the current batch.
// An empty request skips the round trip.
func (s *ClassificationService) resolveLeaves(ctx context.Context, stage string, ids domain.Set[domain.LeafID]) (map[domain.LeafID]domain.Leaf, error) {
	if ids.Len() == 0 {
		return map[domain.LeafID]domain.Leaf{}, nil
	}

	result, err := s.catalog.Resolve(ctx, ids.Sorted(), nil)
	metrics.RecordResolve(stage, err)
	if err != nil {
		return nil, err
	}

	return result.LeavesByID(), nil
}

func (s *ClassificationService) discardLeaf(p *pass, id domain.LeafID, reason string) {
	for _, h := range p.handles {
		h.Registry.RemoveLeafChange(id)
	}
	p.report.Discarded++
	metrics.RecordDiscard(reason)
}

func (s *ClassificationService) discardGroup(p *pass, id domain.GroupID, reason string) {
	for _, h := range p.handles {
		h.Registry.RemoveGroupChange(id)
	}
	p.report.Discarded++
	metrics.RecordDiscard(reason)
}

// scrubUnknown drops identifiers the catalog does not know from every session.
func (s *ClassificationService) scrubUnknown(p *pass, leaves []domain.LeafID, groups []domain.GroupID) {
	for _, h := range p.handles {
		for _, id := range leaves {
			h.Registry.RemoveLeafChange(id)
		}
		for _, id := range groups {
			h.Registry.RemoveGroupChange(id)
			h.Registry.RemoveNewGroupChange(id)
		}
	}

	count := len(leaves) + len(groups)
	if count == 0 {
		return
	}
	p.report.Unknown += count
	metrics.DiscardsTotal.WithLabelValues(reasonUnknown).Add(float64(count))
}

// saveRegistries persists every registry of the pass. Failures are logged;
// the in-memory state stays authoritative.
func (s *ClassificationService) saveRegistries(ctx context.Context, handles []*SessionHandle) {
	saveCtx := context.WithoutCancel(ctx)

	var g errgroup.Group
	for _, h := range handles {
		g.Go(func() error {
			s.saveRegistry(saveCtx, h)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *ClassificationService) saveRegistry(ctx context.Context, h *SessionHandle) {
	counts := h.Registry.Counts()
	metrics.SetPending(string(h.Name()), counts.Leaves, counts.Groups, counts.NewlyOwned)

	if s.store == nil {
		return
	}
	if err := s.store.Save(ctx, h.Name(), h.Registry); err != nil {
		logging.Ctx(ctx).Error().Err(err).
			Str("session", string(h.Name())).
			Msg("save change registry")
	}
}
