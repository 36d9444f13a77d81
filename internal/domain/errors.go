package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking
// infrastructure details.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrBadRequest = errors.New("bad request")

	// Registration
	ErrInvalidInvitation = errors.New("invalid invitation")
	ErrRoleConflict      = errors.New("role conflict")

	// Email verification
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrPairingFailed = errors.New("pairing failed")

	// Login
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("not verified")
)
