package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/bnema/freepackages/internal/adapters/filter"
	"github.com/bnema/freepackages/internal/adapters/queue"
	"github.com/bnema/freepackages/internal/adapters/remote"
	statusadapter "github.com/bnema/freepackages/internal/adapters/render/status"
	badgerrepo "github.com/bnema/freepackages/internal/adapters/repo/badger"
	tomlrepo "github.com/bnema/freepackages/internal/adapters/repo/toml"
	chainstore "github.com/bnema/freepackages/internal/adapters/secrets/chain"
	"github.com/bnema/freepackages/internal/application"
	"github.com/bnema/freepackages/internal/config"
	"github.com/bnema/freepackages/internal/domain"
	"github.com/bnema/freepackages/internal/logging"
	"github.com/bnema/freepackages/internal/ports"
)

// stateStore is implemented by both state backends.
type stateStore interface {
	ports.RegistryStore
	ports.QueueStore
	Remove(ctx context.Context, name domain.SessionKey) error
}

type app struct {
	cfg            config.Config
	sessions       *application.SessionService
	sessionRepo    ports.SessionRepository
	credentials    ports.CredentialStore
	statusRenderer func([]application.SessionStatus, statusadapter.RenderOptions) (string, error)
	httpClient     *http.Client
	clock          ports.Clock
	now            func() time.Time
}

func wireApp() (*app, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	cfg, err := config.Load(viper.New(), homeDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	repo, err := tomlrepo.NewSessionRepository(cfg.SessionsPath)
	if err != nil {
		return nil, fmt.Errorf("wire session repository: %w", err)
	}

	credentials, err := chainstore.NewPassFirstWithFileFallback(cfg.CredentialsDir)
	if err != nil {
		return nil, fmt.Errorf("wire credential store chain: %w", err)
	}

	clock := ports.SystemClock{}

	return &app{
		cfg:            cfg,
		sessions:       application.NewSessionService(repo, credentials, clock),
		sessionRepo:    repo,
		credentials:    credentials,
		statusRenderer: statusadapter.Render,
		httpClient:     http.DefaultClient,
		clock:          clock,
		now:            time.Now,
	}, nil
}

// openState opens the configured state backend. The returned func releases it.
func (a *app) openState() (stateStore, func(), error) {
	switch a.cfg.StateBackend {
	case config.BackendBadger:
		store, err := badgerrepo.Open(a.cfg.StateDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open badger state: %w", err)
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logging.Warn().Err(err).Msg("close badger state")
			}
		}, nil
	default:
		store, err := tomlrepo.NewStateStore(a.cfg.StateDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open toml state: %w", err)
		}
		return store, func() {}, nil
	}
}

func (a *app) pipelineOptions() application.Options {
	opts := application.DefaultOptions()
	if a.cfg.Catalog.BatchSize > 0 {
		opts.BatchSize = a.cfg.Catalog.BatchSize
	}
	opts.ReadyTimeout = a.cfg.Pipeline.ReadyTimeout
	if a.cfg.Pipeline.ReadyPoll > 0 {
		opts.ReadyPoll = a.cfg.Pipeline.ReadyPoll
	}
	if a.cfg.Refresh.Interval > 0 {
		opts.RefreshInterval = a.cfg.Refresh.Interval
	}
	if a.cfg.Refresh.RetryInterval > 0 {
		opts.RefreshRetry = a.cfg.Refresh.RetryInterval
	}
	return opts
}

func (a *app) newCatalogClient() (*remote.CatalogClient, error) {
	return remote.NewCatalogClient(remote.CatalogConfig{
		BaseURL:           a.cfg.Catalog.BaseURL,
		CredentialRef:     a.cfg.Catalog.CredentialRef,
		RequestsPerSecond: a.cfg.Catalog.RequestsPerSecond,
		HTTPClient:        a.httpClient,
	}, a.credentials)
}

type runtimeOptions struct {
	pipeline application.Options
	// connect opens the transport of every enabled session.
	connect bool
	// only restricts the runtime to one session when set.
	only domain.SessionKey
}

// runtime is a classification pipeline with every configured session registered.
type runtime struct {
	pipeline *application.ClassificationService
	catalog  *remote.CatalogClient
	state    stateStore
	queues   map[domain.SessionKey]*queue.Queue
	release  func()
}

func (r *runtime) Close() {
	r.pipeline.Close()
	r.release()
}

func (a *app) openRuntime(ctx context.Context, opts runtimeOptions) (*runtime, error) {
	sessions, err := a.sessions.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	if opts.only != "" {
		sessions = selectSession(sessions, opts.only)
		if len(sessions) == 0 {
			return nil, fmt.Errorf("session %q: %w", opts.only, domain.ErrSessionNotFound)
		}
	}

	catalog, err := a.newCatalogClient()
	if err != nil {
		return nil, fmt.Errorf("wire catalog client: %w", err)
	}
	account, err := remote.NewAccountClient(a.cfg.Account.BaseURL, a.httpClient)
	if err != nil {
		return nil, fmt.Errorf("wire account client: %w", err)
	}

	state, release, err := a.openState()
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		pipeline: application.NewClassificationService(catalog, state, a.clock, opts.pipeline),
		catalog:  catalog,
		state:    state,
		queues:   make(map[domain.SessionKey]*queue.Queue, len(sessions)),
		release:  release,
	}

	for _, session := range sessions {
		q := queue.New(session.Name, session.QueueLimit, state, a.clock)
		if err := q.Load(ctx); err != nil {
			rt.Close()
			return nil, fmt.Errorf("load queue for session %q: %w", session.Name, err)
		}

		transport := account.NewTransport(session, a.credentials, a.clock)
		if opts.connect && session.Enabled {
			if err := transport.Connect(ctx); err != nil {
				logging.Warn().Err(err).Str("session", string(session.Name)).Msg("connect session")
			}
		}

		_, err := rt.pipeline.RegisterSession(ctx, session, application.SessionRuntime{
			Transport:   transport,
			Eligibility: filter.NewEligibility(session.Filter),
			Queue:       q,
		})
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("register session %q: %w", session.Name, err)
		}
		rt.queues[session.Name] = q
	}

	return rt, nil
}

// refreshAll fetches account data once for every connected session.
func (r *runtime) refreshAll(ctx context.Context) error {
	var errs []error
	for _, status := range r.pipeline.Statuses() {
		if !status.Connected {
			continue
		}
		h, ok := r.pipeline.Session(status.Name)
		if !ok {
			continue
		}
		if err := r.pipeline.RefreshAccountData(ctx, h); err != nil {
			errs = append(errs, fmt.Errorf("session %q: %w", status.Name, err))
		}
	}
	return errors.Join(errs...)
}

func selectSession(sessions []domain.Session, name domain.SessionKey) []domain.Session {
	for _, session := range sessions {
		if session.Name == name {
			return []domain.Session{session}
		}
	}
	return nil
}
