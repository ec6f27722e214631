package application

import (
	"context"
	"time"
)

// DefaultReadyPoll is how often AwaitReady re-checks the sessions.
const DefaultReadyPoll = time.Second

// AwaitReady blocks until every enabled, connected session reports its
// eligibility predicates ready. It returns false when maxWait elapses or ctx
// is done first. A zero maxWait waits until ctx is done.
func (s *ClassificationService) AwaitReady(ctx context.Context, maxWait time.Duration) bool {
	poll := s.opts.ReadyPoll
	if poll <= 0 {
		poll = DefaultReadyPoll
	}

	var deadline <-chan time.Time
	if maxWait > 0 {
		timer := time.NewTimer(maxWait)
		defer timer.Stop()
		deadline = timer.C
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		if s.allReady() {
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-deadline:
			return s.allReady()
		case <-ticker.C:
		}
	}
}

func (s *ClassificationService) allReady() bool {
	for _, h := range s.sessions.snapshot() {
		if !h.active() {
			continue
		}
		if h.Eligibility == nil || !h.Eligibility.Ready() {
			return false
		}
	}
	return true
}
