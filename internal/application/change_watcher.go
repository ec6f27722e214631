package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/freepackages/internal/logging"
	"github.com/bnema/freepackages/internal/ports"
)

const DefaultChangesInterval = 5 * time.Minute

// ChangeWatcher polls the catalog change feed and marks every changed
// identifier pending in every session.
type ChangeWatcher struct {
	source   ports.ChangeSource
	pipeline *ClassificationService
	interval time.Duration

	mu         sync.Mutex
	lastChange uint32
}

func NewChangeWatcher(source ports.ChangeSource, pipeline *ClassificationService, interval time.Duration) *ChangeWatcher {
	if interval <= 0 {
		interval = DefaultChangesInterval
	}
	return &ChangeWatcher{source: source, pipeline: pipeline, interval: interval}
}

// Poll fetches the changes since the last poll. The first poll only records
// the current change number. It returns how many identifiers became pending.
func (w *ChangeWatcher) Poll(ctx context.Context) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	changes, err := w.source.FetchChanges(ctx, w.lastChange)
	if err != nil {
		return 0, fmt.Errorf("fetch catalog changes: %w", err)
	}

	if w.lastChange == 0 {
		w.lastChange = changes.CurrentChange
		logging.Ctx(ctx).Info().Uint32("change", changes.CurrentChange).Msg("change feed bootstrapped")
		return 0, nil
	}
	if changes.CurrentChange <= w.lastChange {
		return 0, nil
	}

	w.lastChange = changes.CurrentChange
	added := w.pipeline.AddChanges(ctx, changes.Leaves, changes.Groups)

	logging.Ctx(ctx).Debug().
		Uint32("change", changes.CurrentChange).
		Int("leaves", len(changes.Leaves)).
		Int("groups", len(changes.Groups)).
		Int("pending", added).
		Msg("catalog changes applied")

	return added, nil
}

func (w *ChangeWatcher) LastChange() uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastChange
}

// Serve polls on the configured interval until ctx is done.
func (w *ChangeWatcher) Serve(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if _, err := w.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.Ctx(ctx).Warn().Err(err).Msg("poll catalog changes")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *ChangeWatcher) String() string {
	return "change-watcher"
}
