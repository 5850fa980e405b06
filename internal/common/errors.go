package common

import "errors"

// Business logic errors
var (
	// General errors
	ErrNotFound  = errors.New("resource not found")
	ErrForbidden = errors.New("forbidden")

	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")

	// Credential errors
	ErrCredentialNotFound = errors.New("credential not found")
	ErrInactiveCredential = errors.New("credential is inactive")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")

	// Configuration errors
	ErrMissingAppCredentials = errors.New("oauth app credentials are not configured")
)
