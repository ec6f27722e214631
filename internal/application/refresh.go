package application

import (
	"context"
	"errors"
	"time"

	"github.com/bnema/freepackages/internal/logging"
	"github.com/bnema/freepackages/internal/metrics"
)

const (
	DefaultRefreshInterval = 15 * time.Minute
	DefaultRefreshRetry    = time.Minute
)

var errDisconnected = errors.New("session is not connected")

// refreshTask periodically reloads a session's account data. It is owned by
// the session handle and stopped before the handle is replaced.
type refreshTask struct {
	cancel context.CancelFunc
	done   chan struct{}
	kick   chan struct{}
}

func (s *ClassificationService) startRefresh(h *SessionHandle) *refreshTask {
	ctx, cancel := context.WithCancel(s.baseCtx)
	task := &refreshTask{
		cancel: cancel,
		done:   make(chan struct{}),
		kick:   make(chan struct{}, 1),
	}

	go func() {
		defer close(task.done)
		s.refreshLoop(ctx, h, task.kick)
	}()

	return task
}

// requestNow asks for an immediate refresh. Requests made while one is
// already queued collapse.
func (t *refreshTask) requestNow() {
	if t == nil {
		return
	}
	select {
	case t.kick <- struct{}{}:
	default:
	}
}

func (t *refreshTask) stop() {
	t.cancel()
	<-t.done
}

func (s *ClassificationService) refreshLoop(ctx context.Context, h *SessionHandle, kick <-chan struct{}) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-kick:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		next := s.refreshInterval()
		if err := s.RefreshAccountData(ctx, h); err != nil {
			if ctx.Err() != nil {
				return
			}
			logging.Ctx(ctx).Warn().Err(err).
				Str("session", string(h.Name())).
				Dur("retry_in", s.refreshRetry()).
				Msg("refresh account data")
			next = s.refreshRetry()
		}
		timer.Reset(next)
	}
}

// RefreshAccountData fetches the session's account data, hands it to the
// eligibility predicates and applies the owned groups as an inventory delta.
func (s *ClassificationService) RefreshAccountData(ctx context.Context, h *SessionHandle) error {
	if !h.Connected() {
		metrics.RecordRefresh(errDisconnected)
		return errDisconnected
	}

	data, err := h.Transport.FetchAccountData(ctx)
	metrics.RecordRefresh(err)
	if err != nil {
		return err
	}

	wasReady := h.Eligibility.Ready()
	h.Eligibility.UpdateAccountData(data)
	h.refreshedAt.Store(s.clock.Now().UnixNano())

	logging.Ctx(ctx).Debug().
		Str("session", string(h.Name())).
		Int("owned_leaves", data.OwnedLeaves.Len()).
		Int("owned_groups", data.OwnedGroups.Len()).
		Msg("account data refreshed")

	s.observe(ctx, h, data.OwnedGroups.Sorted(), false)

	// Items skipped while the predicates were loading are still pending.
	if !wasReady && h.Eligibility.Ready() && h.Registry.Counts().Total() > 0 {
		s.Trigger()
	}

	return nil
}

func (s *ClassificationService) refreshInterval() time.Duration {
	if s.opts.RefreshInterval > 0 {
		return s.opts.RefreshInterval
	}
	return DefaultRefreshInterval
}

func (s *ClassificationService) refreshRetry() time.Duration {
	if s.opts.RefreshRetry > 0 {
		return s.opts.RefreshRetry
	}
	return DefaultRefreshRetry
}
