package domain

import "errors"

var (
	// Token codec.
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrTokenExpired     = errors.New("token expired")

	// Session rotation and access guard.
	ErrNoToken        = errors.New("no refresh token")
	ErrMissingToken   = errors.New("missing access token")
	ErrInvalidToken   = errors.New("invalid token")
	ErrUnknownAccount = errors.New("unknown account")
	ErrStaleToken     = errors.New("stale refresh token")

	// Account flows.
	ErrAuthenticationFailed = errors.New("invalid email or password")
	ErrAlreadyRegistered    = errors.New("account already exists")
	ErrInvalidIdentity      = errors.New("invalid email")
	ErrEmptyCredential      = errors.New("password is empty")

	// Credential store.
	ErrAccountNotFound = errors.New("account not found")

	ErrInternal = errors.New("internal server error")
)
