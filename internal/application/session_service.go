package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/freepackages/internal/domain"
	"github.com/bnema/freepackages/internal/ports"
)

// SessionService manages configured sessions and their credentials.
type SessionService struct {
	repo  ports.SessionRepository
	store ports.CredentialStore
	clock ports.Clock
}

func NewSessionService(repo ports.SessionRepository, store ports.CredentialStore, clock ports.Clock) *SessionService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &SessionService{
		repo:  repo,
		store: store,
		clock: clock,
	}
}

// CredentialRef is the default store key of a session's credential.
func CredentialRef(name domain.SessionKey) string {
	return fmt.Sprintf("session://%s/credential", name)
}

func (s *SessionService) AddSession(ctx context.Context, session domain.Session) error {
	session.NormalizeFilter()
	if err := session.Validate(); err != nil {
		return fmt.Errorf("validate session: %w", err)
	}

	existing, err := s.repo.GetByName(ctx, session.Name)
	switch {
	case err == nil:
		if session.CredentialRef == "" {
			session.CredentialRef = existing.CredentialRef
		}
	case !errors.Is(err, domain.ErrSessionNotFound):
		return fmt.Errorf("get session by name: %w", err)
	}

	if err := s.repo.Save(ctx, session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	return nil
}

func (s *SessionService) SetEnabled(ctx context.Context, name domain.SessionKey, enabled bool) error {
	session, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return fmt.Errorf("get session by name: %w", err)
	}

	session.Enabled = enabled

	if err := s.repo.Save(ctx, session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	return nil
}

func (s *SessionService) ListSessions(ctx context.Context) ([]domain.Session, error) {
	sessions, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// RemoveSession deletes the session and then its stored credential.
func (s *SessionService) RemoveSession(ctx context.Context, name domain.SessionKey) error {
	session, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return fmt.Errorf("get session by name: %w", err)
	}

	if err := s.repo.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if session.CredentialRef == "" {
		return nil
	}
	if err := s.store.Delete(ctx, session.CredentialRef); err != nil {
		if restoreErr := s.repo.Save(ctx, session); restoreErr != nil {
			return fmt.Errorf("delete session credential and restore session: %w", errors.Join(err, restoreErr))
		}
		return fmt.Errorf("delete session credential: %w", err)
	}

	return nil
}

// SetCredential stores credential under ref and points the session at it.
// A previous credential under another ref is deleted afterwards; every
// failure rolls the session back to its previous state.
func (s *SessionService) SetCredential(ctx context.Context, name domain.SessionKey, ref string, credential domain.Credential) error {
	if ref == "" {
		ref = CredentialRef(name)
	}
	if credential.Empty() {
		return errors.New("credential access token is required")
	}

	session, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return fmt.Errorf("get session by name: %w", err)
	}
	original := session
	previousRef := session.CredentialRef

	if credential.UpdatedAt.IsZero() {
		credential.UpdatedAt = s.clock.Now().UTC()
	}
	if err := s.store.Put(ctx, ref, credential); err != nil {
		return fmt.Errorf("store session credential: %w", err)
	}

	session.CredentialRef = ref

	if err := s.repo.Save(ctx, session); err != nil {
		if rollbackErr := s.store.Delete(ctx, ref); rollbackErr != nil {
			return fmt.Errorf("save session credential and rollback stored credential: %w", errors.Join(err, rollbackErr))
		}

		return fmt.Errorf("save session credential: %w", err)
	}

	if previousRef == "" || previousRef == ref {
		return nil
	}

	if err := s.store.Delete(ctx, previousRef); err != nil {
		var rollbackErr error
		if restoreErr := s.repo.Save(ctx, original); restoreErr != nil {
			rollbackErr = errors.Join(rollbackErr, restoreErr)
		}
		if newDeleteErr := s.store.Delete(ctx, ref); newDeleteErr != nil {
			rollbackErr = errors.Join(rollbackErr, newDeleteErr)
		}
		if rollbackErr != nil {
			return fmt.Errorf("delete previous session credential and rollback credential update: %w", errors.Join(err, rollbackErr))
		}
		return fmt.Errorf("delete previous session credential: %w", err)
	}

	return nil
}

func (s *SessionService) RemoveCredential(ctx context.Context, name domain.SessionKey) error {
	session, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return fmt.Errorf("get session by name: %w", err)
	}
	if session.CredentialRef == "" {
		return nil
	}
	ref := session.CredentialRef

	session.CredentialRef = ""
	if err := s.repo.Save(ctx, session); err != nil {
		return fmt.Errorf("save session credential: %w", err)
	}

	if err := s.store.Delete(ctx, ref); err != nil {
		session.CredentialRef = ref
		if restoreErr := s.repo.Save(ctx, session); restoreErr != nil {
			return fmt.Errorf("delete session credential and restore ref: %w", errors.Join(err, restoreErr))
		}
		return fmt.Errorf("delete session credential: %w", err)
	}

	return nil
}

// Credential loads the credential the session points at.
func (s *SessionService) Credential(ctx context.Context, name domain.SessionKey) (domain.Credential, error) {
	session, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("get session by name: %w", err)
	}
	if session.CredentialRef == "" {
		return domain.Credential{}, domain.ErrCredentialNotFound
	}

	credential, err := s.store.Get(ctx, session.CredentialRef)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("get session credential: %w", err)
	}
	return credential, nil
}
