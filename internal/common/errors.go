// Package common defines shared constants and sentinel errors used across
// gophvault layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorStorage  = errors.New("storage error")

	// Remote blob store failures. Never surfaced to API callers.
	ErrorRemoteStore = errors.New("remote store error")

	// Service-level errors.
	ErrorInternal   = errors.New("internal error")
	ErrorValidation = errors.New("validation error")

	// Unknown collection name in a request path or policy file.
	ErrorUnknownCollection = errors.New("unknown collection")

	// Auth errors (invalid, malformed or expired token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
