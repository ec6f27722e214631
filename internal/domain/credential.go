package domain

import "time"

// Credential is what a session needs to talk to the remote service.
type Credential struct {
	AccessToken string `json:"access_token"`
	AccountID   string `json:"account_id"`
	// Cookies are forwarded verbatim on web requests.
	Cookies   map[string]string `json:"cookies,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (c Credential) Empty() bool {
	return c.AccessToken == ""
}
