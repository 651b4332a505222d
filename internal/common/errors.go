// Package common defines shared constants and sentinel errors used across
// HealthForge components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Request rejected before any record is created.
	ErrValidation = errors.New("validation error")

	// Fatal construction/startup errors (missing signing key, missing API key).
	ErrConfiguration = errors.New("configuration error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)
