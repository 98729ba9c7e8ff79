package auth

import "errors"

var (
	// ErrInvalidToken indicates the token format is invalid or the signature
	// doesn't match.
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the token has passed its expiry.
	ErrExpiredToken = errors.New("expired authentication token")

	// ErrInvalidCredentials indicates the username or password is wrong.
	// Deliberately a single error for both cases.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
