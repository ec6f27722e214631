package application

import (
	"fmt"
	"time"

	"github.com/bnema/freepackages/internal/domain"
)

type SessionStatus struct {
	Name      domain.SessionKey
	Enabled   bool
	Connected bool
	Ready     bool
	Seen      int
	Pending   domain.PendingCounts
	Queue     string
	// RefreshedAt is zero until account data was fetched once.
	RefreshedAt time.Time
}

// Status renders one session's queue status followed by its pending counts.
func (s *ClassificationService) Status(name domain.SessionKey) (string, error) {
	h, ok := s.sessions.get(name)
	if !ok {
		return "", domain.ErrSessionNotFound
	}

	st := statusOf(h)
	return fmt.Sprintf("%s; pending %d leaves, %d groups, %d newly owned",
		st.Queue, st.Pending.Leaves, st.Pending.Groups, st.Pending.NewlyOwned), nil
}

func (s *ClassificationService) Statuses() []SessionStatus {
	handles := s.sessions.snapshot()
	out := make([]SessionStatus, 0, len(handles))
	for _, h := range handles {
		out = append(out, statusOf(h))
	}
	return out
}

func statusOf(h *SessionHandle) SessionStatus {
	return SessionStatus{
		Name:      h.Name(),
		Enabled:   h.Session.Enabled,
		Connected: h.Connected(),
		Ready:     h.Eligibility.Ready(),
		Seen:      h.Registry.SeenCount(),
		Pending:   h.Registry.Counts(),
		Queue:     h.Queue.Status(),

		RefreshedAt: h.RefreshedAt(),
	}
}
