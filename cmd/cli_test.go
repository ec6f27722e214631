package cmd

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionAddThenList(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "session", "add", "main", "--type", "game,dlc", "--ignore-leaf", "9")
	require.NoError(t, err)
	assert.Contains(t, stdout, "session main saved")

	_, _, err = executeCLI(t, home, "session", "add", "alt", "--disabled")
	require.NoError(t, err)

	stdout, _, err = executeCLI(t, home, "session", "list")
	require.NoError(t, err)
	assert.Equal(t, "alt\tdisabled\t-\nmain\tenabled\t-\n", stdout)

	data, err := os.ReadFile(filepath.Join(home, ".freepackages", "sessions.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "ignored_leaves = [9]")
}

func TestSessionAddRejectsInvalidInput(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "session", "add", "main", "--type", "movie")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported leaf type "movie"`)

	_, _, err = executeCLI(t, home, "session", "add", "main", "--ignore-leaf", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid identifier "abc"`)
}

func TestSessionDisableThenEnable(t *testing.T) {
	home := t.TempDir()
	_, _, err := executeCLI(t, home, "session", "add", "main")
	require.NoError(t, err)

	_, _, err = executeCLI(t, home, "session", "disable", "main")
	require.NoError(t, err)
	stdout, _, err := executeCLI(t, home, "session", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "main\tdisabled")

	_, _, err = executeCLI(t, home, "session", "enable", "main")
	require.NoError(t, err)
	stdout, _, err = executeCLI(t, home, "session", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "main\tenabled")
}

func TestAuthSetRequiresTokenFlag(t *testing.T) {
	home := t.TempDir()
	_, _, err := executeCLI(t, home, "session", "add", "main")
	require.NoError(t, err)

	_, _, err = executeCLI(t, home, "auth", "set", "--session", "main")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag(s) \"token\" not set")
}

func TestAuthSetThenListShowsCredentialRef(t *testing.T) {
	home := t.TempDir()
	_, _, err := executeCLI(t, home, "session", "add", "main")
	require.NoError(t, err)

	_, _, err = executeCLI(t, home, "auth", "set", "--session", "main", "--token", "tok-1", "--account-id", "acct-1")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "session", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "main\tenabled\tsession://main/credential")

	stdout, _, err = executeCLI(t, home, "auth", "remove", "--session", "main")
	require.NoError(t, err)
	assert.Contains(t, stdout, "credential removed from session main")

	stdout, _, err = executeCLI(t, home, "session", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "main\tenabled\t-")
}

func TestAuthSetUnknownSession(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "auth", "set", "--session", "ghost", "--token", "tok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session not found")
}

func TestChangesAddMarksPendingAndStatusShowsIt(t *testing.T) {
	home := t.TempDir()
	_, _, err := executeCLI(t, home, "session", "add", "main")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "changes", "add", "--leaf", "7,8", "--group", "50")
	require.NoError(t, err)
	assert.Contains(t, stdout, "3 identifiers newly pending")

	stdout, _, err = executeCLI(t, home, "changes", "add", "--leaf", "7")
	require.NoError(t, err)
	assert.Contains(t, stdout, "0 identifiers newly pending")

	stdout, _, err = executeCLI(t, home, "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "sessions: 1")
	assert.Contains(t, stdout, "2 leaves, 1 groups, 0 newly owned")
	assert.Contains(t, stdout, "queue empty")
}

func TestChangesAddRequiresIdentifiers(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "changes", "add")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one --leaf or --group is required")
}

func TestStatusJSONOutput(t *testing.T) {
	home := t.TempDir()
	_, _, err := executeCLI(t, home, "session", "add", "main")
	require.NoError(t, err)
	_, _, err = executeCLI(t, home, "changes", "add", "--group", "50")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "status", "--json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, "\"Name\": \"main\"")
	assert.Contains(t, stdout, "\"Groups\": 1")
}

func TestStatusUnknownSession(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "status", "--session", "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session not found")
}

func TestDeltaSeedsThenReportsNewlyOwned(t *testing.T) {
	home := t.TempDir()
	_, _, err := executeCLI(t, home, "session", "add", "main")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "delta", "--session", "main", "10", "11")
	require.NoError(t, err)
	assert.Contains(t, stdout, "seeded 2 owned groups")

	stdout, _, err = executeCLI(t, home, "delta", "--session", "main", "10", "11")
	require.NoError(t, err)
	assert.Contains(t, stdout, "no newly owned groups")

	stdout, _, err = executeCLI(t, home, "delta", "--session", "main", "10", "11", "13", "12")
	require.NoError(t, err)
	assert.Contains(t, stdout, "2 newly owned groups: 12, 13")

	stdout, _, err = executeCLI(t, home, "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "0 leaves, 0 groups, 2 newly owned")
}

func TestPassEnqueuesFreeLeafAndClearsPending(t *testing.T) {
	home := t.TempDir()
	servers := newFakeRemote(t, 200*time.Millisecond)

	_, _, err := executeCLI(t, home, "session", "add", "main")
	require.NoError(t, err)
	_, _, err = executeCLI(t, home, "auth", "set", "--session", "main", "--token", "session-token", "--account-id", "acct-1")
	require.NoError(t, err)
	_, _, err = executeCLI(t, home, "changes", "add", "--leaf", "7,8")
	require.NoError(t, err)

	stdout, stderr, err := executeCLI(t, home, "pass")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Classifying pending content")
	assert.Contains(t, stdout, "1 sessions, 2 leaves and 0 groups pending")
	assert.Contains(t, stdout, "1 enqueued")
	assert.Contains(t, stdout, "1 discarded")
	assert.Equal(t, "Bearer session-token", servers.accountHeader("Authorization"))
	assert.Equal(t, "acct-1", servers.accountHeader("X-Account-ID"))

	stdout, _, err = executeCLI(t, home, "queue", "list", "--session", "main")
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 queued")
	assert.Contains(t, stdout, "leaf/7")
	assert.NotContains(t, stdout, "leaf/8")

	stdout, _, err = executeCLI(t, home, "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "pending: none")
}

func TestPassJSONReport(t *testing.T) {
	home := t.TempDir()
	newFakeRemote(t, 0)

	_, _, err := executeCLI(t, home, "session", "add", "main")
	require.NoError(t, err)
	_, _, err = executeCLI(t, home, "auth", "set", "--session", "main", "--token", "session-token")
	require.NoError(t, err)
	_, _, err = executeCLI(t, home, "changes", "add", "--leaf", "7")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "pass", "--json")
	require.NoError(t, err)

	var report struct {
		Sessions int
		Enqueued int
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, 1, report.Sessions)
	assert.Equal(t, 1, report.Enqueued)
}

func TestPassWithoutCredentialKeepsItemsPending(t *testing.T) {
	home := t.TempDir()
	newFakeRemote(t, 0)

	_, _, err := executeCLI(t, home, "session", "add", "main")
	require.NoError(t, err)
	_, _, err = executeCLI(t, home, "changes", "add", "--leaf", "7")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "pass")
	require.NoError(t, err)
	assert.Contains(t, stdout, "nothing pending")

	stdout, _, err = executeCLI(t, home, "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 leaves, 0 groups, 0 newly owned")
}

func TestQueueRemoveAndClear(t *testing.T) {
	home := t.TempDir()
	newFakeRemote(t, 0)

	_, _, err := executeCLI(t, home, "session", "add", "main")
	require.NoError(t, err)
	_, _, err = executeCLI(t, home, "auth", "set", "--session", "main", "--token", "session-token")
	require.NoError(t, err)
	_, _, err = executeCLI(t, home, "changes", "add", "--leaf", "7", "--pass")
	require.NoError(t, err)

	_, _, err = executeCLI(t, home, "queue", "remove", "--session", "main", "leaf/99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `item "leaf/99" is not queued`)

	stdout, _, err := executeCLI(t, home, "queue", "remove", "--session", "main", "leaf/7")
	require.NoError(t, err)
	assert.Contains(t, stdout, "removed leaf/7")

	stdout, _, err = executeCLI(t, home, "queue", "clear", "--session", "main")
	require.NoError(t, err)
	assert.Contains(t, stdout, "queue cleared")

	stdout, _, err = executeCLI(t, home, "queue", "list", "--session", "main")
	require.NoError(t, err)
	assert.Equal(t, "queue empty\n", stdout)
}

func TestChangesPollAppliesFeed(t *testing.T) {
	home := t.TempDir()
	servers := newFakeRemote(t, 0)

	_, _, err := executeCLI(t, home, "session", "add", "main")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "changes", "poll", "--since", "41")
	require.NoError(t, err)
	assert.Contains(t, stdout, "change 42: 1 leaves, 1 groups, 2 identifiers newly pending")
	assert.Equal(t, "41", servers.lastSince())
}

func TestSessionRemoveDropsState(t *testing.T) {
	home := t.TempDir()
	_, _, err := executeCLI(t, home, "session", "add", "main")
	require.NoError(t, err)
	_, _, err = executeCLI(t, home, "changes", "add", "--leaf", "7")
	require.NoError(t, err)

	registry := filepath.Join(home, ".freepackages", "state", "main.registry.toml")
	_, err = os.Stat(registry)
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "session", "remove", "main")
	require.NoError(t, err)
	assert.Contains(t, stdout, "session main removed")

	_, err = os.Stat(registry)
	assert.True(t, os.IsNotExist(err))
}

func TestBadgerStateBackend(t *testing.T) {
	home := t.TempDir()
	t.Setenv("FP_STATE_BACKEND", "badger")

	_, _, err := executeCLI(t, home, "session", "add", "main")
	require.NoError(t, err)
	_, _, err = executeCLI(t, home, "changes", "add", "--group", "50,51")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "0 leaves, 2 groups, 0 newly owned")
}

func TestInvalidConfigIsReported(t *testing.T) {
	home := t.TempDir()
	t.Setenv("FP_STATE_BACKEND", "sqlite")

	_, _, err := executeCLI(t, home, "session", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported state backend "sqlite"`)
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", stdout)
}

type fakeRemote struct {
	mu      sync.Mutex
	headers http.Header
	since   string
}

func (f *fakeRemote) accountHeader(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.headers.Get(key)
}

func (f *fakeRemote) lastSince() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.since
}

// newFakeRemote serves the catalog and account APIs. Leaf 7 is a free game,
// leaf 8 is paid and the account owns nothing. Account lookups take delay.
func newFakeRemote(t *testing.T, delay time.Duration) *fakeRemote {
	t.Helper()

	f := &fakeRemote{headers: http.Header{}}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/catalog/resolve", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Leaves []uint32 `json:"leaves"`
			Groups []uint32 `json:"groups"`
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &req)

		type leaf struct {
			ID        uint32 `json:"id"`
			Type      string `json:"type"`
			Available bool   `json:"available"`
			Free      bool   `json:"free"`
		}
		resp := struct {
			Leaves        []leaf   `json:"leaves"`
			UnknownGroups []uint32 `json:"unknown_groups"`
		}{UnknownGroups: req.Groups}
		for _, id := range req.Leaves {
			resp.Leaves = append(resp.Leaves, leaf{ID: id, Type: "game", Available: true, Free: id == 7})
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("GET /v1/catalog/changes", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.since = r.URL.Query().Get("since")
		f.mu.Unlock()
		_, _ = fmt.Fprint(w, `{"current_change":42,"leaves":[7],"groups":[50]}`)
	})
	mux.HandleFunc("GET /v1/account/licenses", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(delay)
		f.mu.Lock()
		f.headers = r.Header.Clone()
		f.mu.Unlock()
		_, _ = fmt.Fprint(w, `{"country":"US","limited":false,"owned_leaves":[],"owned_groups":[]}`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	t.Setenv("FP_CATALOG_BASE_URL", server.URL)
	t.Setenv("FP_ACCOUNT_BASE_URL", server.URL)
	return f
}

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)
	t.Setenv("FP_LOG_LEVEL", "disabled")
	t.Setenv("FP_CATALOG_REQUESTS_PER_SECOND", "1000")

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}
