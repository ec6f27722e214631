package toml

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/bnema/freepackages/internal/domain"
	"github.com/bnema/freepackages/internal/ports"
)

// StateStore keeps one registry file and one queue file per session in a
// directory.
type StateStore struct {
	dir string
}

var (
	_ ports.RegistryStore = (*StateStore)(nil)
	_ ports.QueueStore    = (*StateStore)(nil)
)

func NewStateStore(dir string) (*StateStore, error) {
	dir, err := normalizePath(dir)
	if err != nil {
		return nil, fmt.Errorf("state dir: %w", err)
	}

	return &StateStore{dir: dir}, nil
}

func (s *StateStore) registryPath(name domain.SessionKey) string {
	return filepath.Join(s.dir, string(name)+".registry.toml")
}

func (s *StateStore) queuePath(name domain.SessionKey) string {
	return filepath.Join(s.dir, string(name)+".queue.toml")
}

func (s *StateStore) Load(ctx context.Context, name domain.SessionKey) (*domain.ChangeRegistry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.registryPath(name)
	mu := lockForPath(path)
	mu.RLock()
	defer mu.RUnlock()

	var file registryFileSchema
	found, err := readTOMLFile(path, &file)
	if err != nil {
		return nil, fmt.Errorf("registry file: %w", err)
	}
	if !found {
		return nil, domain.ErrRegistryNotFound
	}
	if err := validateVersion("registry", file.Version); err != nil {
		return nil, err
	}

	return domain.RestoreRegistry(fromRegistrySchema(file)), nil
}

func (s *StateStore) Save(ctx context.Context, name domain.SessionKey, registry *domain.ChangeRegistry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.registryPath(name)
	mu := lockForPath(path)
	mu.Lock()
	defer mu.Unlock()

	file := toRegistrySchema(registry.Snapshot())
	file.Version = currentSchemaVersion
	if err := writeTOMLFile(path, file); err != nil {
		return fmt.Errorf("registry file: %w", err)
	}
	return nil
}

// LoadQueue returns no items when nothing was saved.
func (s *StateStore) LoadQueue(ctx context.Context, name domain.SessionKey) ([]domain.RedemptionItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.queuePath(name)
	mu := lockForPath(path)
	mu.RLock()
	defer mu.RUnlock()

	var file queueFileSchema
	if _, err := readTOMLFile(path, &file); err != nil {
		return nil, fmt.Errorf("queue file: %w", err)
	}
	if err := validateVersion("queue", file.Version); err != nil {
		return nil, err
	}

	items := make([]domain.RedemptionItem, 0, len(file.Items))
	for _, entry := range file.Items {
		items = append(items, fromQueueItemSchema(entry))
	}
	return items, nil
}

func (s *StateStore) SaveQueue(ctx context.Context, name domain.SessionKey, items []domain.RedemptionItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.queuePath(name)
	mu := lockForPath(path)
	mu.Lock()
	defer mu.Unlock()

	if len(items) == 0 {
		return removeFile(path)
	}

	file := queueFileSchema{Version: currentSchemaVersion, Items: make([]queueItemSchema, 0, len(items))}
	for _, item := range items {
		file.Items = append(file.Items, toQueueItemSchema(item))
	}
	if err := writeTOMLFile(path, file); err != nil {
		return fmt.Errorf("queue file: %w", err)
	}
	return nil
}

// Remove deletes every file of the session.
func (s *StateStore) Remove(ctx context.Context, name domain.SessionKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, path := range []string{s.registryPath(name), s.queuePath(name)} {
		mu := lockForPath(path)
		mu.Lock()
		err := removeFile(path)
		mu.Unlock()
		if err != nil {
			return err
		}
	}
	return nil
}
