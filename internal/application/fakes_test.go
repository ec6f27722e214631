package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bnema/freepackages/internal/domain"
	"github.com/bnema/freepackages/internal/ports"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	connected atomic.Bool
	fetches   atomic.Int32

	mu   sync.Mutex
	data domain.AccountData
	err  error
}

func newFakeTransport(connected bool) *fakeTransport {
	t := &fakeTransport{}
	t.connected.Store(connected)
	return t
}

func (t *fakeTransport) IsConnected() bool {
	return t.connected.Load()
}

func (t *fakeTransport) FetchAccountData(context.Context) (domain.AccountData, error) {
	t.fetches.Add(1)
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.data, t.err
}

type fakeEligibility struct {
	ready  atomic.Bool
	reject atomic.Bool

	mu      sync.Mutex
	updates []domain.AccountData
}

func newFakeEligibility(ready bool) *fakeEligibility {
	e := &fakeEligibility{}
	e.ready.Store(ready)
	return e
}

func (e *fakeEligibility) Ready() bool {
	return e.ready.Load()
}

func (e *fakeEligibility) UpdateAccountData(data domain.AccountData) {
	e.mu.Lock()
	e.updates = append(e.updates, data)
	e.mu.Unlock()
	e.ready.Store(true)
}

func (e *fakeEligibility) accept() bool { return !e.reject.Load() }

func (e *fakeEligibility) IsRedeemableLeaf(domain.Leaf) bool { return e.accept() }
func (e *fakeEligibility) IsWantedLeaf(domain.Leaf) bool { return true }
func (e *fakeEligibility) IsRedeemablePlaytest(domain.Leaf) bool { return e.accept() }
func (e *fakeEligibility) IsWantedPlaytest(domain.Leaf) bool { return true }
func (e *fakeEligibility) IsRedeemableGroup(domain.Group) bool { return e.accept() }
func (e *fakeEligibility) IsWantedGroup(domain.Group) bool { return true }

type fakeQueue struct {
	mu    sync.Mutex
	items []domain.RedemptionItem
}

func (q *fakeQueue) Enqueue(item domain.RedemptionItem) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, item)
	return nil
}

func (q *fakeQueue) Status() string {
	return "queue idle"
}

func (q *fakeQueue) Items() []domain.RedemptionItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]domain.RedemptionItem(nil), q.items...)
}

// fakeCatalog resolves from fixed maps; identifiers missing from the maps are
// reported unknown.
type fakeCatalog struct {
	mu     sync.Mutex
	leaves map[domain.LeafID]domain.Leaf
	groups map[domain.GroupID]domain.Group
	err    error
	calls  int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		leaves: map[domain.LeafID]domain.Leaf{},
		groups: map[domain.GroupID]domain.Group{},
	}
}

func (c *fakeCatalog) addLeaf(leaf domain.Leaf) *fakeCatalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leaves[leaf.ID] = leaf
	return c
}

func (c *fakeCatalog) addGroup(group domain.Group) *fakeCatalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups[group.ID] = group
	return c
}

func (c *fakeCatalog) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *fakeCatalog) Resolve(_ context.Context, leaves []domain.LeafID, groups []domain.GroupID) (domain.CatalogResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls++
	if c.err != nil {
		return domain.CatalogResult{}, c.err
	}

	var result domain.CatalogResult
	for _, id := range leaves {
		if leaf, ok := c.leaves[id]; ok {
			result.Leaves = append(result.Leaves, leaf)
			continue
		}
		result.UnknownLeaves = append(result.UnknownLeaves, id)
	}
	for _, id := range groups {
		if group, ok := c.groups[id]; ok {
			result.Groups = append(result.Groups, group)
			continue
		}
		result.UnknownGroups = append(result.UnknownGroups, id)
	}

	return result, nil
}

type memRegistryStore struct {
	mu      sync.Mutex
	saved   map[domain.SessionKey]domain.RegistrySnapshot
	loadErr error
	saves   int
}

func newMemRegistryStore() *memRegistryStore {
	return &memRegistryStore{saved: map[domain.SessionKey]domain.RegistrySnapshot{}}
}

func (s *memRegistryStore) Load(_ context.Context, name domain.SessionKey) (*domain.ChangeRegistry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	snapshot, ok := s.saved[name]
	if !ok {
		return nil, domain.ErrRegistryNotFound
	}
	return domain.RestoreRegistry(snapshot), nil
}

func (s *memRegistryStore) Save(_ context.Context, name domain.SessionKey, registry *domain.ChangeRegistry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.saved[name] = registry.Snapshot()
	return nil
}

func (s *memRegistryStore) Saved(name domain.SessionKey) (domain.RegistrySnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot, ok := s.saved[name]
	return snapshot, ok
}

var errCatalogDown = errors.New("catalog unreachable")

type testSession struct {
	handle      *SessionHandle
	transport   *fakeTransport
	eligibility *fakeEligibility
	queue       *fakeQueue
}

func newTestService(t *testing.T, catalog ports.CatalogResolver, store ports.RegistryStore) *ClassificationService {
	t.Helper()

	opts := DefaultOptions()
	opts.ReadyTimeout = 50 * time.Millisecond
	opts.ReadyPoll = 5 * time.Millisecond
	opts.DisableRefresh = true

	svc := NewClassificationService(catalog, store, nil, opts)
	t.Cleanup(svc.Close)
	return svc
}

func registerTestSession(t *testing.T, svc *ClassificationService, name string, connected, ready bool) testSession {
	t.Helper()

	ts := testSession{
		transport:   newFakeTransport(connected),
		eligibility: newFakeEligibility(ready),
		queue:       &fakeQueue{},
	}
	h, err := svc.RegisterSession(context.Background(), domain.Session{Name: domain.SessionKey(name), Enabled: true}, SessionRuntime{
		Transport:   ts.transport,
		Eligibility: ts.eligibility,
		Queue:       ts.queue,
	})
	require.NoError(t, err)
	ts.handle = h
	return ts
}

// drainTrigger reports whether a pass was requested, consuming the request.
func drainTrigger(svc *ClassificationService) bool {
	select {
	case <-svc.work:
		return true
	default:
		return false
	}
}

// blockingCatalog holds every Resolve until the test releases it and records
// how many resolves ran at once.
type blockingCatalog struct {
	*fakeCatalog
	entered chan struct{}
	release chan struct{}

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newBlockingCatalog(inner *fakeCatalog) *blockingCatalog {
	return &blockingCatalog{
		fakeCatalog: inner,
		entered:     make(chan struct{}, 8),
		release:     make(chan struct{}, 8),
	}
}

func (c *blockingCatalog) Resolve(ctx context.Context, leaves []domain.LeafID, groups []domain.GroupID) (domain.CatalogResult, error) {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		peak := c.maxInFlight.Load()
		if n <= peak || c.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}

	c.entered <- struct{}{}
	select {
	case <-c.release:
	case <-ctx.Done():
		return domain.CatalogResult{}, ctx.Err()
	}

	return c.fakeCatalog.Resolve(ctx, leaves, groups)
}
