// Package queue is the default redemption queue: an in-memory FIFO that drops
// duplicates, honours the session limit and persists through a QueueStore.
package queue

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/bnema/freepackages/internal/domain"
	"github.com/bnema/freepackages/internal/logging"
	"github.com/bnema/freepackages/internal/ports"
)

const saveTimeout = 10 * time.Second

type Queue struct {
	name  domain.SessionKey
	limit int
	store ports.QueueStore
	clock ports.Clock

	mu    sync.Mutex
	items []domain.RedemptionItem
	keys  map[string]struct{}
}

var _ ports.Queue = (*Queue)(nil)

// New returns an empty queue. A nil store keeps the queue in memory only and
// a limit of zero means unlimited.
func New(name domain.SessionKey, limit int, store ports.QueueStore, clock ports.Clock) *Queue {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Queue{
		name:  name,
		limit: limit,
		store: store,
		clock: clock,
		keys:  map[string]struct{}{},
	}
}

// Load replaces the contents with the persisted items.
func (q *Queue) Load(ctx context.Context) error {
	if q.store == nil {
		return nil
	}

	items, err := q.store.LoadQueue(ctx, q.name)
	if err != nil {
		return fmt.Errorf("load queue %s: %w", q.name, err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = q.items[:0]
	clear(q.keys)
	for _, item := range items {
		if _, dup := q.keys[item.Key()]; dup {
			continue
		}
		q.keys[item.Key()] = struct{}{}
		q.items = append(q.items, item)
	}
	return nil
}

// Enqueue appends item. An item already queued is accepted without change.
func (q *Queue) Enqueue(item domain.RedemptionItem) error {
	q.mu.Lock()
	if _, dup := q.keys[item.Key()]; dup {
		q.mu.Unlock()
		return nil
	}
	if q.limit > 0 && len(q.items) >= q.limit {
		q.mu.Unlock()
		return fmt.Errorf("queue %s holds %d items: %w", q.name, q.limit, domain.ErrQueueFull)
	}
	q.keys[item.Key()] = struct{}{}
	q.items = append(q.items, item)
	snapshot := slices.Clone(q.items)
	q.mu.Unlock()

	q.persist(snapshot)
	return nil
}

// Remove drops the item with key and reports whether it was queued.
func (q *Queue) Remove(key string) bool {
	q.mu.Lock()
	if _, ok := q.keys[key]; !ok {
		q.mu.Unlock()
		return false
	}
	delete(q.keys, key)
	q.items = slices.DeleteFunc(q.items, func(item domain.RedemptionItem) bool {
		return item.Key() == key
	})
	snapshot := slices.Clone(q.items)
	q.mu.Unlock()

	q.persist(snapshot)
	return true
}

func (q *Queue) Clear() {
	q.mu.Lock()
	q.items = nil
	clear(q.keys)
	q.mu.Unlock()

	q.persist(nil)
}

func (q *Queue) Items() []domain.RedemptionItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.items)
}

// Next returns the first item whose start time has passed.
func (q *Queue) Next() (domain.RedemptionItem, bool) {
	now := q.clock.Now()

	q.mu.Lock()
	defer q.mu.Unlock()
	for _, item := range q.items {
		if !item.Gated(now) {
			return item, true
		}
	}
	return domain.RedemptionItem{}, false
}

func (q *Queue) Status() string {
	now := q.clock.Now()

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return "queue empty"
	}

	gated := 0
	for _, item := range q.items {
		if item.Gated(now) {
			gated++
		}
	}

	status := fmt.Sprintf("%d queued", len(q.items))
	if q.limit > 0 {
		status = fmt.Sprintf("%d/%d queued", len(q.items), q.limit)
	}
	if gated > 0 {
		status += fmt.Sprintf(", %d waiting for start time", gated)
	}
	return status
}

func (q *Queue) persist(items []domain.RedemptionItem) {
	if q.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := q.store.SaveQueue(ctx, q.name, items); err != nil {
		logging.Err(err).Str("session", string(q.name)).Msg("failed to save queue")
	}
}
