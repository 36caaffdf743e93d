package domain

import (
	"time"

	"github.com/google/uuid"
)

// TokenClass separates access tokens from refresh tokens. Each class is signed
// with its own secret and carries its class in the typ claim.
type TokenClass string

const (
	AccessTokenClass  TokenClass = "access"
	RefreshTokenClass TokenClass = "refresh"
)

type TokenClaims struct {
	AccountID uuid.UUID
	Class     TokenClass
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// LiveSession is an account's currently installed refresh token.
type LiveSession struct {
	AccountID    uuid.UUID
	RefreshToken string
}
