package secrets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/freepackages/internal/domain"
)

func TestKeyForRef(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		ref     string
		want    string
		wantErr string
	}{
		{name: "session scheme", ref: "session://main/credential", want: "freepackages/main/credential"},
		{name: "bare path", ref: "main/credential", want: "freepackages/main/credential"},
		{name: "empty", ref: "  ", wantErr: "credential ref is empty"},
		{name: "scheme only", ref: "session://", wantErr: "invalid credential ref"},
		{name: "foreign scheme", ref: "vault://main", wantErr: "invalid credential ref"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := KeyForRef(tc.ref)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	credential := domain.Credential{
		AccessToken: "token",
		AccountID:   "76561190000000001",
		Cookies:     map[string]string{"sessionid": "abc"},
		UpdatedAt:   time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC),
	}

	raw, err := Encode(credential)
	require.NoError(t, err)
	assert.Contains(t, raw, `"access_token":"token"`)

	got, err := Decode(raw + "\n")
	require.NoError(t, err)
	assert.Equal(t, credential.AccessToken, got.AccessToken)
	assert.Equal(t, credential.Cookies, got.Cookies)
	assert.True(t, credential.UpdatedAt.Equal(got.UpdatedAt))

	_, err = Decode("not json")
	require.ErrorContains(t, err, "decode credential")
}
