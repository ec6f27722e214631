package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/bnema/freepackages/internal/domain"
	"github.com/bnema/freepackages/internal/ports"
)

const accountBreakerName = "account-api"

// AccountClient is shared by the transports of every session.
type AccountClient struct {
	api *apiClient
}

func NewAccountClient(baseURL string, httpClient *http.Client) (*AccountClient, error) {
	api, err := newAPIClient(accountBreakerName, baseURL, 0, httpClient)
	if err != nil {
		return nil, err
	}
	return &AccountClient{api: api}, nil
}

type accountResponse struct {
	Country     string           `json:"country"`
	Limited     bool             `json:"limited"`
	OwnedLeaves []domain.LeafID  `json:"owned_leaves"`
	OwnedGroups []domain.GroupID `json:"owned_groups"`
}

// Transport is the connection of one session. It is connected once a
// credential was loaded and stays connected until the API rejects it.
type Transport struct {
	client      *AccountClient
	credentials ports.CredentialStore
	session     domain.Session
	clock       ports.Clock

	mu         sync.RWMutex
	credential domain.Credential
	connected  atomic.Bool
}

var _ ports.Transport = (*Transport)(nil)

func (c *AccountClient) NewTransport(session domain.Session, credentials ports.CredentialStore, clock ports.Clock) *Transport {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Transport{client: c, credentials: credentials, session: session, clock: clock}
}

// Connect loads the session credential.
func (t *Transport) Connect(ctx context.Context) error {
	if t.session.CredentialRef == "" {
		return fmt.Errorf("session %s: %w", t.session.Name, domain.ErrCredentialNotFound)
	}

	credential, err := t.credentials.Get(ctx, t.session.CredentialRef)
	if err != nil {
		return fmt.Errorf("session %s: load credential: %w", t.session.Name, err)
	}
	if credential.Empty() {
		return fmt.Errorf("session %s: credential has no access token", t.session.Name)
	}

	t.mu.Lock()
	t.credential = credential
	t.mu.Unlock()
	t.connected.Store(true)

	return nil
}

func (t *Transport) Disconnect() {
	t.connected.Store(false)
}

func (t *Transport) IsConnected() bool {
	return t.connected.Load()
}

func (t *Transport) FetchAccountData(ctx context.Context) (domain.AccountData, error) {
	if !t.IsConnected() {
		return domain.AccountData{}, fmt.Errorf("session %s is not connected", t.session.Name)
	}

	t.mu.RLock()
	credential := t.credential
	t.mu.RUnlock()

	header := map[string]string{}
	if credential.AccountID != "" {
		header["X-Account-ID"] = credential.AccountID
	}

	resp, err := call[accountResponse](ctx, t.client.api, request{
		method: http.MethodGet,
		path:   "/v1/account/licenses",
		token:  credential.AccessToken,
		header: header,
	})
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			t.Disconnect()
		}
		return domain.AccountData{}, fmt.Errorf("fetch account data for %s: %w", t.session.Name, err)
	}

	return domain.AccountData{
		OwnedLeaves: domain.NewSet(resp.OwnedLeaves...),
		OwnedGroups: domain.NewSet(resp.OwnedGroups...),
		Country:     resp.Country,
		Limited:     resp.Limited,
		FetchedAt:   t.clock.Now(),
	}, nil
}
