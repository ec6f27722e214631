// Package secrets holds the pieces shared by the credential backends.
package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/bnema/freepackages/internal/domain"
)

const refScheme = "session://"

// KeyForRef maps a credential reference to a backend key.
// "session://main/credential" becomes "freepackages/main/credential".
func KeyForRef(ref string) (string, error) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return "", errors.New("credential ref is empty")
	}

	if rest, ok := strings.CutPrefix(trimmed, refScheme); ok {
		trimmed = rest
	}
	if trimmed == "" || strings.Contains(trimmed, "://") {
		return "", fmt.Errorf("invalid credential ref %q", ref)
	}

	return "freepackages/" + trimmed, nil
}

func Encode(credential domain.Credential) (string, error) {
	data, err := json.Marshal(credential)
	if err != nil {
		return "", fmt.Errorf("encode credential: %w", err)
	}
	return string(data), nil
}

func Decode(raw string) (domain.Credential, error) {
	var credential domain.Credential
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &credential); err != nil {
		return domain.Credential{}, fmt.Errorf("decode credential: %w", err)
	}
	return credential, nil
}
