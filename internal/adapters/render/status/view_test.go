package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/freepackages/internal/application"
	"github.com/bnema/freepackages/internal/domain"
)

func TestRenderSingleSessionStatus(t *testing.T) {
	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	output, err := Render([]application.SessionStatus{
		{
			Name:        "main",
			Enabled:     true,
			Connected:   true,
			Ready:       true,
			Pending:     domain.PendingCounts{Leaves: 3, Groups: 1},
			Queue:       "2 queued",
			RefreshedAt: now.Add(-15 * time.Minute),
		},
	}, RenderOptions{Now: now, StaleAfter: time.Hour})

	require.NoError(t, err)
	assert.Contains(t, output, "sessions: 1 (1 connected, 1 ready)")
	assert.Contains(t, output, "pending across sessions: 3 leaves, 1 groups, 0 newly owned")
	assert.Contains(t, output, "main")
	assert.Contains(t, output, "[ready]")
	assert.Contains(t, output, "3 leaves, 1 groups, 0 newly owned")
	assert.Contains(t, output, "queue: 2 queued")
	assert.Contains(t, output, "fetched 15 minutes ago")
	assert.NotContains(t, output, "stale")
}

func TestRenderMultiSessionStates(t *testing.T) {
	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	output, err := Render([]application.SessionStatus{
		{Name: "alpha", Enabled: false, Queue: "queue empty"},
		{Name: "beta", Enabled: true, Connected: false, Queue: "queue empty"},
		{Name: "gamma", Enabled: true, Connected: true, Ready: false, Queue: "queue empty"},
		{
			Name: "delta", Enabled: true, Connected: true, Ready: true, Queue: "queue empty",
			RefreshedAt: now.Add(-3 * time.Hour),
		},
	}, RenderOptions{Now: now, StaleAfter: time.Hour})

	require.NoError(t, err)
	assert.Contains(t, output, "sessions: 4 (2 connected, 1 ready)")
	assert.NotContains(t, output, "pending across sessions")
	assert.Contains(t, output, "[disabled]")
	assert.Contains(t, output, "[disconnected]")
	assert.Contains(t, output, "[waiting for account data]")
	assert.Contains(t, output, "never fetched")
	assert.Contains(t, output, "fetched 3 hours ago")
	assert.Contains(t, output, "[stale]")
	assert.Contains(t, output, "pending: none")
}

func TestRenderNoSessions(t *testing.T) {
	output, err := Render(nil, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "sessions: 0")
	assert.Contains(t, output, "No sessions configured.")
}

func TestSummarizeCountsOnlyActiveSessionsAsConnected(t *testing.T) {
	summary := summarize([]application.SessionStatus{
		{Name: "off", Enabled: false, Connected: true, Pending: domain.PendingCounts{Leaves: 1}},
		{Name: "a", Enabled: true, Connected: true, Ready: true, Pending: domain.PendingCounts{Groups: 2}},
		{Name: "b", Enabled: true, Connected: true, Pending: domain.PendingCounts{NewlyOwned: 1}},
	})

	assert.Equal(t, 3, summary.sessions)
	assert.Equal(t, 2, summary.connected)
	assert.Equal(t, 1, summary.ready)
	assert.Equal(t, domain.PendingCounts{Leaves: 1, Groups: 2, NewlyOwned: 1}, summary.pending)
}

func TestProportionalCells(t *testing.T) {
	testCases := []struct {
		name   string
		counts []int
		width  int
		want   []int
	}{
		{name: "empty", counts: []int{0, 0, 0}, width: 10, want: []int{0, 0, 0}},
		{name: "single set", counts: []int{5, 0, 0}, width: 10, want: []int{10, 0, 0}},
		{name: "even split", counts: []int{1, 1, 0}, width: 10, want: []int{5, 5, 0}},
		{name: "tiny share keeps a cell", counts: []int{1000, 1, 0}, width: 10, want: []int{9, 1, 0}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := proportionalCells(tc.counts, tc.width)
			assert.Equal(t, tc.want, got)
			sum := 0
			for _, c := range got {
				sum += c
			}
			if tc.counts[0]+tc.counts[1]+tc.counts[2] > 0 {
				assert.Equal(t, tc.width, sum)
			}
		})
	}
}
