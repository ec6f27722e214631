package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/freepackages/internal/domain"
	"github.com/bnema/freepackages/internal/logging"
	"github.com/bnema/freepackages/internal/metrics"
	"github.com/bnema/freepackages/internal/ports"
)

type Options struct {
	BatchSize int
	// ReadyTimeout bounds the readiness barrier; zero waits indefinitely.
	ReadyTimeout    time.Duration
	ReadyPoll       time.Duration
	RefreshInterval time.Duration
	RefreshRetry    time.Duration
	// DisableRefresh skips the per-session account data refresh task.
	DisableRefresh bool
}

func DefaultOptions() Options {
	return Options{
		BatchSize:       DefaultBatchSize,
		ReadyTimeout:    120 * time.Second,
		ReadyPoll:       DefaultReadyPoll,
		RefreshInterval: DefaultRefreshInterval,
		RefreshRetry:    DefaultRefreshRetry,
	}
}

// ClassificationService owns the registered sessions and the single shared
// classification pipeline they feed.
type ClassificationService struct {
	catalog ports.CatalogResolver
	store   ports.RegistryStore
	clock   ports.Clock
	opts    Options

	sessions *sessionMap
	// addMu serializes registration; passMu serializes passes.
	addMu  sync.Mutex
	passMu sync.Mutex
	work   chan struct{}

	baseCtx    context.Context
	baseCancel context.CancelFunc
}

func NewClassificationService(catalog ports.CatalogResolver, store ports.RegistryStore, clock ports.Clock, opts Options) *ClassificationService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.ReadyPoll <= 0 {
		opts.ReadyPoll = DefaultReadyPoll
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &ClassificationService{
		catalog:    catalog,
		store:      store,
		clock:      clock,
		opts:       opts,
		sessions:   newSessionMap(),
		work:       make(chan struct{}, 1),
		baseCtx:    ctx,
		baseCancel: cancel,
	}
}

// RegisterSession adds or replaces a session. A replaced session's refresh
// task is stopped before the new one starts.
func (s *ClassificationService) RegisterSession(ctx context.Context, session domain.Session, runtime SessionRuntime) (*SessionHandle, error) {
	if err := session.Validate(); err != nil {
		return nil, fmt.Errorf("validate session: %w", err)
	}
	if runtime.Transport == nil || runtime.Eligibility == nil || runtime.Queue == nil {
		return nil, fmt.Errorf("session %q: transport, eligibility and queue are required", session.Name)
	}

	s.addMu.Lock()
	defer s.addMu.Unlock()

	if previous, ok := s.sessions.get(session.Name); ok {
		previous.close()
	}

	h := &SessionHandle{
		Session:     session,
		Transport:   runtime.Transport,
		Eligibility: runtime.Eligibility,
		Queue:       runtime.Queue,
		Registry:    s.loadRegistry(ctx, session.Name),
	}
	s.sessions.put(h)

	if !s.opts.DisableRefresh {
		h.refresh = s.startRefresh(h)
	}

	counts := h.Registry.Counts()
	metrics.SetPending(string(session.Name), counts.Leaves, counts.Groups, counts.NewlyOwned)
	logging.Info().
		Str("session", string(session.Name)).
		Int("seen", h.Registry.SeenCount()).
		Int("pending", counts.Total()).
		Msg("session registered")

	return h, nil
}

func (s *ClassificationService) loadRegistry(ctx context.Context, name domain.SessionKey) *domain.ChangeRegistry {
	if s.store == nil {
		return domain.NewChangeRegistry()
	}

	registry, err := s.store.Load(ctx, name)
	if err != nil {
		if !errors.Is(err, domain.ErrRegistryNotFound) {
			logging.Warn().Err(err).Str("session", string(name)).Msg("load change registry, starting empty")
		}
		return domain.NewChangeRegistry()
	}

	return registry
}

func (s *ClassificationService) RemoveSession(name domain.SessionKey) error {
	s.addMu.Lock()
	defer s.addMu.Unlock()

	h, ok := s.sessions.remove(name)
	if !ok {
		return domain.ErrSessionNotFound
	}
	h.close()
	metrics.ForgetSession(string(name))

	logging.Info().Str("session", string(name)).Msg("session removed")
	return nil
}

func (s *ClassificationService) Session(name domain.SessionKey) (*SessionHandle, bool) {
	return s.sessions.get(name)
}

// OnInventoryDelta applies an owned-group observation for one session. The
// first observation only seeds the seen set. Later ones queue the unseen
// groups for inspection, refresh account data and trigger a pass.
func (s *ClassificationService) OnInventoryDelta(ctx context.Context, name domain.SessionKey, observed []domain.GroupID) ([]domain.GroupID, error) {
	h, ok := s.sessions.get(name)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	return s.observe(ctx, h, observed, true), nil
}

func (s *ClassificationService) observe(ctx context.Context, h *SessionHandle, observed []domain.GroupID, refresh bool) []domain.GroupID {
	newGroups, bootstrap := h.Registry.ObserveOwned(observed)
	log := logging.Ctx(ctx).With().Str("session", string(h.Name())).Logger()

	if bootstrap {
		if len(observed) > 0 {
			log.Info().Int("groups", len(observed)).Msg("seeded owned groups")
			s.saveRegistry(ctx, h)
		}
		return nil
	}
	if len(newGroups) == 0 {
		return nil
	}

	log.Info().Int("groups", len(newGroups)).Msg("newly owned groups")
	if refresh {
		h.refresh.requestNow()
	}
	s.saveRegistry(ctx, h)
	s.Trigger()

	return newGroups
}

// AddChanges marks identifiers pending in every registered session and
// triggers a pass when anything was new.
func (s *ClassificationService) AddChanges(ctx context.Context, leaves []domain.LeafID, groups []domain.GroupID) int {
	added := 0
	for _, h := range s.sessions.snapshot() {
		n := h.Registry.AddChanges(leaves, groups, nil)
		if n > 0 {
			s.saveRegistry(ctx, h)
		}
		added += n
	}
	if added > 0 {
		s.Trigger()
	}
	return added
}

// Trigger requests a pass. It never blocks; triggers that arrive while one
// is already waiting collapse into it.
func (s *ClassificationService) Trigger() {
	select {
	case s.work <- struct{}{}:
	default:
	}
}

// Serve runs a pass for every trigger until ctx is done.
func (s *ClassificationService) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.work:
		}

		if _, err := s.RunPass(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.Warn().Err(err).Msg("classification pass")
		}
	}
}

func (s *ClassificationService) String() string {
	return "classification-pipeline"
}

// Close stops every refresh task. Registered sessions stay in place.
func (s *ClassificationService) Close() {
	s.addMu.Lock()
	defer s.addMu.Unlock()

	s.baseCancel()
	for _, h := range s.sessions.snapshot() {
		h.close()
	}
}
