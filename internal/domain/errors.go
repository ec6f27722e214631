package domain

import "errors"

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrRegistryNotFound   = errors.New("change registry not found")
	ErrCredentialNotFound = errors.New("credential not found")
	ErrQueueFull          = errors.New("queue limit reached")
)
