package remote

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bnema/freepackages/internal/domain"
	portmocks "github.com/bnema/freepackages/internal/ports/mocks"
)

const accountRef = "session://main/credential"

func newTestTransport(t *testing.T, handler http.HandlerFunc, credential domain.Credential, credErr error) *Transport {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewAccountClient(server.URL, nil)
	require.NoError(t, err)

	credentials := portmocks.NewMockCredentialStore(t)
	credentials.EXPECT().Get(mock.Anything, accountRef).Return(credential, credErr).Maybe()

	clock := portmocks.NewMockClock(t)
	clock.EXPECT().Now().Return(time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)).Maybe()

	return client.NewTransport(domain.Session{Name: "main", CredentialRef: accountRef}, credentials, clock)
}

func TestTransportFetchAccountData(t *testing.T) {
	t.Parallel()

	transport := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/account/licenses", r.URL.Path)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		assert.Equal(t, "42", r.Header.Get("X-Account-ID"))
		_, _ = io.WriteString(w, `{"country":"DE","limited":true,"owned_leaves":[7],"owned_groups":[1,2]}`)
	}, domain.Credential{AccessToken: "token-1", AccountID: "42"}, nil)

	assert.False(t, transport.IsConnected())
	require.NoError(t, transport.Connect(context.Background()))
	assert.True(t, transport.IsConnected())

	data, err := transport.FetchAccountData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "DE", data.Country)
	assert.True(t, data.Limited)
	assert.True(t, data.OwnedLeaves.Has(7))
	assert.Equal(t, []domain.GroupID{1, 2}, data.OwnedGroups.Sorted())
	assert.Equal(t, time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC), data.FetchedAt)
}

func TestTransportUnauthorizedDisconnects(t *testing.T) {
	t.Parallel()

	transport := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, domain.Credential{AccessToken: "expired"}, nil)

	require.NoError(t, transport.Connect(context.Background()))

	_, err := transport.FetchAccountData(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, transport.IsConnected())
}

func TestTransportConnectFailures(t *testing.T) {
	t.Parallel()

	t.Run("missing credential", func(t *testing.T) {
		transport := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {}, domain.Credential{}, domain.ErrCredentialNotFound)

		err := transport.Connect(context.Background())
		require.ErrorIs(t, err, domain.ErrCredentialNotFound)
		assert.False(t, transport.IsConnected())
	})

	t.Run("empty token", func(t *testing.T) {
		transport := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {}, domain.Credential{AccountID: "42"}, nil)

		err := transport.Connect(context.Background())
		require.ErrorContains(t, err, "no access token")
	})

	t.Run("fetch while disconnected", func(t *testing.T) {
		transport := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("request must not be sent")
		}, domain.Credential{}, nil)

		_, err := transport.FetchAccountData(context.Background())
		require.ErrorContains(t, err, "not connected")
	})
}
