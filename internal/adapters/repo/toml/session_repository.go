package toml

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/bnema/freepackages/internal/domain"
	"github.com/bnema/freepackages/internal/ports"
)

// SessionRepository keeps every configured session in one TOML file.
type SessionRepository struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.SessionRepository = (*SessionRepository)(nil)

func NewSessionRepository(path string) (*SessionRepository, error) {
	path, err := normalizePath(path)
	if err != nil {
		return nil, fmt.Errorf("sessions path: %w", err)
	}

	return &SessionRepository{path: path, mu: lockForPath(path)}, nil
}

func (r *SessionRepository) Save(ctx context.Context, session domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	encoded := toSessionSchema(session)
	updated := false
	for i := range file.Sessions {
		if file.Sessions[i].Name == encoded.Name {
			file.Sessions[i] = encoded
			updated = true
			break
		}
	}
	if !updated {
		file.Sessions = append(file.Sessions, encoded)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *SessionRepository) GetByName(ctx context.Context, name domain.SessionKey) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.Session{}, err
	}

	for _, entry := range file.Sessions {
		if entry.Name == string(name) {
			return fromSessionSchema(entry), nil
		}
	}

	return domain.Session{}, domain.ErrSessionNotFound
}

// List returns the sessions sorted by name.
func (r *SessionRepository) List(ctx context.Context) ([]domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	sessions := make([]domain.Session, 0, len(file.Sessions))
	for _, entry := range file.Sessions {
		sessions = append(sessions, fromSessionSchema(entry))
	}
	slices.SortFunc(sessions, func(a, b domain.Session) int {
		return strings.Compare(string(a.Name), string(b.Name))
	})

	return sessions, nil
}

func (r *SessionRepository) Delete(ctx context.Context, name domain.SessionKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	before := len(file.Sessions)
	file.Sessions = slices.DeleteFunc(file.Sessions, func(entry sessionSchema) bool {
		return entry.Name == string(name)
	})
	if len(file.Sessions) == before {
		return domain.ErrSessionNotFound
	}

	return r.writeSchema(file)
}

func (r *SessionRepository) readSchema() (sessionsFileSchema, error) {
	var file sessionsFileSchema
	if _, err := readTOMLFile(r.path, &file); err != nil {
		return sessionsFileSchema{}, fmt.Errorf("sessions file: %w", err)
	}
	if err := validateVersion("sessions", file.Version); err != nil {
		return sessionsFileSchema{}, err
	}
	file.Version = defaultVersion(file.Version)

	return file, nil
}

func (r *SessionRepository) writeSchema(file sessionsFileSchema) error {
	file.Version = defaultVersion(file.Version)
	if err := writeTOMLFile(r.path, file); err != nil {
		return fmt.Errorf("sessions file: %w", err)
	}
	return nil
}
