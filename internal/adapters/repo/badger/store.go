// Package badger keeps per-session pipeline state in an embedded BadgerDB.
package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/bnema/freepackages/internal/domain"
	"github.com/bnema/freepackages/internal/ports"
)

const (
	registryKeyPrefix = "registry:"
	queueKeyPrefix    = "queue:"
)

type registryRecord struct {
	SeenOwned       []domain.GroupID `json:"seen_owned"`
	ChangedLeaf     []domain.LeafID  `json:"changed_leaf"`
	ChangedGroup    []domain.GroupID `json:"changed_group"`
	NewlyOwnedGroup []domain.GroupID `json:"newly_owned_group"`
}

type queueRecord struct {
	Kind       domain.ItemKind `json:"kind"`
	ID         uint32          `json:"id"`
	StartTime  *time.Time      `json:"start_time,omitempty"`
	ContentIDs []domain.LeafID `json:"content_ids,omitempty"`
}

// Store implements the registry and queue stores on one database.
type Store struct {
	db *badger.DB
}

var (
	_ ports.RegistryStore = (*Store)(nil)
	_ ports.QueueStore    = (*Store)(nil)
)

func NewStore(db *badger.DB) *Store {
	return &Store{db: db}
}

// Open opens the database in dir. An empty dir opens an in-memory database.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}

	return NewStore(db), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Load(ctx context.Context, name domain.SessionKey) (*domain.ChangeRegistry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var record registryRecord
	found, err := s.get(registryKeyPrefix+string(name), &record)
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}
	if !found {
		return nil, domain.ErrRegistryNotFound
	}

	return domain.RestoreRegistry(domain.RegistrySnapshot(record)), nil
}

func (s *Store) Save(ctx context.Context, name domain.SessionKey, registry *domain.ChangeRegistry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.set(registryKeyPrefix+string(name), registryRecord(registry.Snapshot())); err != nil {
		return fmt.Errorf("save registry: %w", err)
	}
	return nil
}

func (s *Store) LoadQueue(ctx context.Context, name domain.SessionKey) ([]domain.RedemptionItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []queueRecord
	if _, err := s.get(queueKeyPrefix+string(name), &records); err != nil {
		return nil, fmt.Errorf("load queue: %w", err)
	}

	items := make([]domain.RedemptionItem, 0, len(records))
	for _, record := range records {
		item := domain.RedemptionItem{Kind: record.Kind, ID: record.ID, ContentIDs: record.ContentIDs}
		if record.StartTime != nil {
			item.StartTime = *record.StartTime
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Store) SaveQueue(ctx context.Context, name domain.SessionKey, items []domain.RedemptionItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := queueKeyPrefix + string(name)
	if len(items) == 0 {
		return s.delete(key)
	}

	records := make([]queueRecord, 0, len(items))
	for _, item := range items {
		record := queueRecord{Kind: item.Kind, ID: item.ID, ContentIDs: item.ContentIDs}
		if !item.StartTime.IsZero() {
			start := item.StartTime
			record.StartTime = &start
		}
		records = append(records, record)
	}

	if err := s.set(key, records); err != nil {
		return fmt.Errorf("save queue: %w", err)
	}
	return nil
}

// Remove deletes every key of the session.
func (s *Store) Remove(ctx context.Context, name domain.SessionKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.delete(registryKeyPrefix + string(name)); err != nil {
		return err
	}
	return s.delete(queueKeyPrefix + string(name))
}

func (s *Store) get(key string, out any) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
	return found, err
}

func (s *Store) set(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

func (s *Store) delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete %s: %w", key, err)
		}
		return nil
	})
}
