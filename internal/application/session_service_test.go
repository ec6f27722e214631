package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bnema/freepackages/internal/domain"
	"github.com/bnema/freepackages/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var credentialTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testCredential() domain.Credential {
	return domain.Credential{AccessToken: "token-1", AccountID: "7656", UpdatedAt: credentialTime}
}

func TestSessionServiceSetCredentialSuccess(t *testing.T) {
	repo := mocks.NewMockSessionRepository(t)
	store := mocks.NewMockCredentialStore(t)
	clock := mocks.NewMockClock(t)
	service := NewSessionService(repo, store, clock)

	session := domain.Session{Name: "alpha", Enabled: true}
	repo.EXPECT().GetByName(mockAnyContext(), domain.SessionKey("alpha")).Return(session, nil)
	store.EXPECT().Put(mockAnyContext(), "session://alpha/credential", testCredential()).Return(nil)
	repo.EXPECT().Save(mockAnyContext(), domain.Session{Name: "alpha", Enabled: true, CredentialRef: "session://alpha/credential"}).Return(nil)

	err := service.SetCredential(context.Background(), "alpha", "", testCredential())
	require.NoError(t, err)
}

func TestSessionServiceSetCredentialStampsUpdateTime(t *testing.T) {
	repo := mocks.NewMockSessionRepository(t)
	store := mocks.NewMockCredentialStore(t)
	clock := mocks.NewMockClock(t)
	service := NewSessionService(repo, store, clock)

	credential := testCredential()
	credential.UpdatedAt = time.Time{}
	repo.EXPECT().GetByName(mockAnyContext(), domain.SessionKey("alpha")).Return(domain.Session{Name: "alpha"}, nil)
	clock.EXPECT().Now().Return(credentialTime)
	store.EXPECT().Put(mockAnyContext(), "ref-1", testCredential()).Return(nil)
	repo.EXPECT().Save(mockAnyContext(), domain.Session{Name: "alpha", CredentialRef: "ref-1"}).Return(nil)

	require.NoError(t, service.SetCredential(context.Background(), "alpha", "ref-1", credential))
}

func TestSessionServiceSetCredentialRotationDeletesPreviousRef(t *testing.T) {
	repo := mocks.NewMockSessionRepository(t)
	store := mocks.NewMockCredentialStore(t)
	clock := mocks.NewMockClock(t)
	service := NewSessionService(repo, store, clock)

	session := domain.Session{Name: "alpha", CredentialRef: "old-ref"}
	repo.EXPECT().GetByName(mockAnyContext(), domain.SessionKey("alpha")).Return(session, nil)
	store.EXPECT().Put(mockAnyContext(), "new-ref", testCredential()).Return(nil)
	repo.EXPECT().Save(mockAnyContext(), domain.Session{Name: "alpha", CredentialRef: "new-ref"}).Return(nil)
	store.EXPECT().Delete(mockAnyContext(), "old-ref").Return(nil)

	require.NoError(t, service.SetCredential(context.Background(), "alpha", "new-ref", testCredential()))
}

func TestSessionServiceSetCredentialRollsBackWhenPreviousDeleteFails(t *testing.T) {
	repo := mocks.NewMockSessionRepository(t)
	store := mocks.NewMockCredentialStore(t)
	clock := mocks.NewMockClock(t)
	service := NewSessionService(repo, store, clock)

	deleteErr := errors.New("delete old credential failed")
	session := domain.Session{Name: "alpha", CredentialRef: "old-ref"}
	repo.EXPECT().GetByName(mockAnyContext(), domain.SessionKey("alpha")).Return(session, nil)
	store.EXPECT().Put(mockAnyContext(), "new-ref", testCredential()).Return(nil)
	repo.EXPECT().Save(mockAnyContext(), domain.Session{Name: "alpha", CredentialRef: "new-ref"}).Return(nil)
	store.EXPECT().Delete(mockAnyContext(), "old-ref").Return(deleteErr)
	repo.EXPECT().Save(mockAnyContext(), session).Return(nil)
	store.EXPECT().Delete(mockAnyContext(), "new-ref").Return(nil)

	err := service.SetCredential(context.Background(), "alpha", "new-ref", testCredential())
	require.ErrorIs(t, err, deleteErr)
}

func TestSessionServiceSetCredentialFailsWhenStorePutFails(t *testing.T) {
	repo := mocks.NewMockSessionRepository(t)
	store := mocks.NewMockCredentialStore(t)
	clock := mocks.NewMockClock(t)
	service := NewSessionService(repo, store, clock)

	putErr := errors.New("put failed")
	repo.EXPECT().GetByName(mockAnyContext(), domain.SessionKey("alpha")).Return(domain.Session{Name: "alpha"}, nil)
	store.EXPECT().Put(mockAnyContext(), "ref-1", testCredential()).Return(putErr)

	err := service.SetCredential(context.Background(), "alpha", "ref-1", testCredential())
	require.ErrorIs(t, err, putErr)
}

func TestSessionServiceSetCredentialCompensatesWhenSaveFails(t *testing.T) {
	repo := mocks.NewMockSessionRepository(t)
	store := mocks.NewMockCredentialStore(t)
	clock := mocks.NewMockClock(t)
	service := NewSessionService(repo, store, clock)

	saveErr := errors.New("save failed")
	rollbackErr := errors.New("rollback failed")
	repo.EXPECT().GetByName(mockAnyContext(), domain.SessionKey("alpha")).Return(domain.Session{Name: "alpha"}, nil)
	store.EXPECT().Put(mockAnyContext(), "ref-1", testCredential()).Return(nil)
	repo.EXPECT().Save(mockAnyContext(), domain.Session{Name: "alpha", CredentialRef: "ref-1"}).Return(saveErr)
	store.EXPECT().Delete(mockAnyContext(), "ref-1").Return(rollbackErr)

	err := service.SetCredential(context.Background(), "alpha", "ref-1", testCredential())
	require.ErrorIs(t, err, saveErr)
	require.ErrorIs(t, err, rollbackErr)
}

func TestSessionServiceSetCredentialRejectsEmptyToken(t *testing.T) {
	service := NewSessionService(mocks.NewMockSessionRepository(t), mocks.NewMockCredentialStore(t), mocks.NewMockClock(t))

	err := service.SetCredential(context.Background(), "alpha", "", domain.Credential{})
	require.Error(t, err)
}

func TestSessionServiceRemoveCredentialRestoresRefWhenDeleteFails(t *testing.T) {
	repo := mocks.NewMockSessionRepository(t)
	store := mocks.NewMockCredentialStore(t)
	clock := mocks.NewMockClock(t)
	service := NewSessionService(repo, store, clock)

	deleteErr := errors.New("delete failed")
	session := domain.Session{Name: "alpha", CredentialRef: "ref-1"}
	repo.EXPECT().GetByName(mockAnyContext(), domain.SessionKey("alpha")).Return(session, nil)
	repo.EXPECT().Save(mockAnyContext(), domain.Session{Name: "alpha"}).Return(nil).Once()
	store.EXPECT().Delete(mockAnyContext(), "ref-1").Return(deleteErr)
	repo.EXPECT().Save(mockAnyContext(), session).Return(nil).Once()

	err := service.RemoveCredential(context.Background(), "alpha")
	require.ErrorIs(t, err, deleteErr)
}

func TestSessionServiceRemoveCredentialWithoutRefIsNoop(t *testing.T) {
	repo := mocks.NewMockSessionRepository(t)
	service := NewSessionService(repo, mocks.NewMockCredentialStore(t), mocks.NewMockClock(t))

	repo.EXPECT().GetByName(mockAnyContext(), domain.SessionKey("alpha")).Return(domain.Session{Name: "alpha"}, nil)

	require.NoError(t, service.RemoveCredential(context.Background(), "alpha"))
}

func TestSessionServiceAddSessionKeepsExistingCredentialRef(t *testing.T) {
	repo := mocks.NewMockSessionRepository(t)
	service := NewSessionService(repo, mocks.NewMockCredentialStore(t), mocks.NewMockClock(t))

	repo.EXPECT().GetByName(mockAnyContext(), domain.SessionKey("alpha")).Return(domain.Session{Name: "alpha", CredentialRef: "ref-1"}, nil)
	repo.EXPECT().Save(mockAnyContext(), domain.Session{
		Name:          "alpha",
		Enabled:       true,
		CredentialRef: "ref-1",
		Filter:        domain.FilterConfig{Types: []domain.LeafType{domain.LeafTypeGame}},
	}).Return(nil)

	err := service.AddSession(context.Background(), domain.Session{
		Name:    "alpha",
		Enabled: true,
		Filter:  domain.FilterConfig{Types: []domain.LeafType{domain.LeafTypeGame, domain.LeafTypeGame}},
	})
	require.NoError(t, err)
}

func TestSessionServiceAddSessionRejectsInvalid(t *testing.T) {
	service := NewSessionService(mocks.NewMockSessionRepository(t), mocks.NewMockCredentialStore(t), mocks.NewMockClock(t))

	err := service.AddSession(context.Background(), domain.Session{Name: "a/b"})
	require.Error(t, err)
}

func TestSessionServiceRemoveSessionDeletesCredential(t *testing.T) {
	repo := mocks.NewMockSessionRepository(t)
	store := mocks.NewMockCredentialStore(t)
	service := NewSessionService(repo, store, mocks.NewMockClock(t))

	session := domain.Session{Name: "alpha", CredentialRef: "ref-1"}
	repo.EXPECT().GetByName(mockAnyContext(), domain.SessionKey("alpha")).Return(session, nil)
	repo.EXPECT().Delete(mockAnyContext(), domain.SessionKey("alpha")).Return(nil)
	store.EXPECT().Delete(mockAnyContext(), "ref-1").Return(nil)

	require.NoError(t, service.RemoveSession(context.Background(), "alpha"))
}

func TestSessionServiceSetEnabledMissingSession(t *testing.T) {
	repo := mocks.NewMockSessionRepository(t)
	service := NewSessionService(repo, mocks.NewMockCredentialStore(t), mocks.NewMockClock(t))

	repo.EXPECT().GetByName(mockAnyContext(), domain.SessionKey("ghost")).Return(domain.Session{}, domain.ErrSessionNotFound)

	err := service.SetEnabled(context.Background(), "ghost", true)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionServiceCredential(t *testing.T) {
	repo := mocks.NewMockSessionRepository(t)
	store := mocks.NewMockCredentialStore(t)
	service := NewSessionService(repo, store, mocks.NewMockClock(t))

	repo.EXPECT().GetByName(mockAnyContext(), domain.SessionKey("alpha")).Return(domain.Session{Name: "alpha", CredentialRef: "ref-1"}, nil).Once()
	store.EXPECT().Get(mockAnyContext(), "ref-1").Return(testCredential(), nil)

	credential, err := service.Credential(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Equal(t, "token-1", credential.AccessToken)

	repo.EXPECT().GetByName(mockAnyContext(), domain.SessionKey("beta")).Return(domain.Session{Name: "beta"}, nil).Once()
	_, err = service.Credential(context.Background(), "beta")
	require.ErrorIs(t, err, domain.ErrCredentialNotFound)
}

func mockAnyContext() interface{} {
	return mock.Anything
}
