package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bnema/freepackages/internal/domain"
	"github.com/bnema/freepackages/internal/ports"
)

const catalogBreakerName = "catalog-api"

type CatalogConfig struct {
	BaseURL string
	// CredentialRef is optional; an empty ref sends anonymous requests.
	CredentialRef     string
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

// CatalogClient resolves identifiers and reads the change feed.
type CatalogClient struct {
	api           *apiClient
	credentials   ports.CredentialStore
	credentialRef string
}

var (
	_ ports.CatalogResolver = (*CatalogClient)(nil)
	_ ports.ChangeSource    = (*CatalogClient)(nil)
)

func NewCatalogClient(cfg CatalogConfig, credentials ports.CredentialStore) (*CatalogClient, error) {
	api, err := newAPIClient(catalogBreakerName, cfg.BaseURL, cfg.RequestsPerSecond, cfg.HTTPClient)
	if err != nil {
		return nil, err
	}
	if cfg.CredentialRef != "" && credentials == nil {
		return nil, errors.New("catalog client: credential store is required when a credential ref is set")
	}

	return &CatalogClient{api: api, credentials: credentials, credentialRef: cfg.CredentialRef}, nil
}

type resolveRequest struct {
	Leaves []domain.LeafID  `json:"leaves"`
	Groups []domain.GroupID `json:"groups"`
}

type leafPayload struct {
	ID        domain.LeafID `json:"id"`
	Name      string        `json:"name"`
	Type      string        `json:"type"`
	Available bool          `json:"available"`
	Free      bool          `json:"free"`
	Parent    domain.LeafID `json:"parent"`
	// DLC is a comma separated identifier list.
	DLC string `json:"dlc"`
}

type groupPayload struct {
	ID        domain.GroupID  `json:"id"`
	Name      string          `json:"name"`
	Available bool            `json:"available"`
	Free      bool            `json:"free"`
	Billing   string          `json:"billing"`
	Contents  []domain.LeafID `json:"contents"`
	// StartTime is a unix timestamp; zero means no gate.
	StartTime int64    `json:"start_time"`
	Countries []string `json:"only_countries"`
}

type resolveResponse struct {
	Leaves        []leafPayload    `json:"leaves"`
	Groups        []groupPayload   `json:"groups"`
	UnknownLeaves []domain.LeafID  `json:"unknown_leaves"`
	UnknownGroups []domain.GroupID `json:"unknown_groups"`
}

type changesResponse struct {
	CurrentChange uint32           `json:"current_change"`
	Leaves        []domain.LeafID  `json:"leaves"`
	Groups        []domain.GroupID `json:"groups"`
}

// Resolve performs one lookup for both identifier lists.
func (c *CatalogClient) Resolve(ctx context.Context, leaves []domain.LeafID, groups []domain.GroupID) (domain.CatalogResult, error) {
	if len(leaves) == 0 && len(groups) == 0 {
		return domain.CatalogResult{}, nil
	}

	token, err := c.token(ctx)
	if err != nil {
		return domain.CatalogResult{}, err
	}

	resp, err := call[resolveResponse](ctx, c.api, request{
		method: http.MethodPost,
		path:   "/v1/catalog/resolve",
		token:  token,
		body:   resolveRequest{Leaves: orEmpty(leaves), Groups: orEmpty(groups)},
	})
	if err != nil {
		return domain.CatalogResult{}, fmt.Errorf("resolve catalog: %w", err)
	}

	return resp.toResult(), nil
}

// FetchChanges returns the changes after since. The feed answers with only
// the current change number when since is zero.
func (c *CatalogClient) FetchChanges(ctx context.Context, since uint32) (domain.ChangeSet, error) {
	token, err := c.token(ctx)
	if err != nil {
		return domain.ChangeSet{}, err
	}

	resp, err := call[changesResponse](ctx, c.api, request{
		method: http.MethodGet,
		path:   "/v1/catalog/changes",
		query:  url.Values{"since": {strconv.FormatUint(uint64(since), 10)}},
		token:  token,
	})
	if err != nil {
		return domain.ChangeSet{}, fmt.Errorf("fetch catalog changes: %w", err)
	}

	return domain.ChangeSet{
		CurrentChange: resp.CurrentChange,
		Leaves:        resp.Leaves,
		Groups:        resp.Groups,
	}, nil
}

func (c *CatalogClient) token(ctx context.Context) (string, error) {
	if c.credentialRef == "" {
		return "", nil
	}

	credential, err := c.credentials.Get(ctx, c.credentialRef)
	if err != nil {
		return "", fmt.Errorf("load catalog credential: %w", err)
	}
	return credential.AccessToken, nil
}

func (r resolveResponse) toResult() domain.CatalogResult {
	result := domain.CatalogResult{
		Leaves:        make([]domain.Leaf, 0, len(r.Leaves)),
		Groups:        make([]domain.Group, 0, len(r.Groups)),
		UnknownLeaves: r.UnknownLeaves,
		UnknownGroups: r.UnknownGroups,
	}

	for _, leaf := range r.Leaves {
		result.Leaves = append(result.Leaves, domain.Leaf{
			ID:        leaf.ID,
			Name:      leaf.Name,
			Type:      domain.LeafType(leaf.Type),
			Available: leaf.Available,
			Free:      leaf.Free,
			ParentID:  leaf.Parent,
			DLC:       domain.ParseLeafIDList(leaf.DLC),
		})
	}

	for _, group := range r.Groups {
		converted := domain.Group{
			ID:          group.ID,
			Name:        group.Name,
			Available:   group.Available,
			Free:        group.Free,
			BillingKind: domain.BillingKind(group.Billing),
			ContentIDs:  domain.NewSet(group.Contents...),
			Countries:   group.Countries,
		}
		if group.StartTime > 0 {
			converted.StartTime = time.Unix(group.StartTime, 0).UTC()
		}
		result.Groups = append(result.Groups, converted)
	}

	return result
}

func orEmpty[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}
