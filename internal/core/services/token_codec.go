package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vncsmyrnk/tokenauth/internal/core/domain"
	"github.com/vncsmyrnk/tokenauth/internal/core/ports"
)

type tokenClaims struct {
	AccountID string `json:"uid"`
	Type      string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies HS256 JWTs. Expiry is checked against the
// codec clock with no leeway: a token is expired from its exp second onwards.
type TokenCodec struct {
	now func() time.Time
}

func NewTokenCodec(now func() time.Time) *TokenCodec {
	if now == nil {
		now = time.Now
	}
	return &TokenCodec{now: now}
}

var _ ports.TokenCodec = (*TokenCodec)(nil)

func (c *TokenCodec) Encode(accountID uuid.UUID, key ports.SigningKey) (string, time.Time, error) {
	const op = "services.TokenCodec.Encode"

	if len(key.Secret) == 0 {
		return "", time.Time{}, fmt.Errorf("%s: empty %s secret", op, key.Class)
	}

	now := c.now()
	claims := tokenClaims{
		AccountID: accountID.String(),
		Type:      string(key.Class),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(key.Lifetime)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	return signed, claims.ExpiresAt.UTC(), nil
}

func (c *TokenCodec) Decode(token string, key ports.SigningKey) (*domain.TokenClaims, error) {
	const op = "services.TokenCodec.Decode"

	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) {
			return key.Secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%s: %w", op, domain.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%s: %w", op, domain.ErrInvalidSignature)
	}

	if claims.Type != string(key.Class) {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrInvalidSignature)
	}

	accountID, err := uuid.Parse(claims.AccountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrInvalidSignature)
	}

	out := &domain.TokenClaims{
		AccountID: accountID,
		Class:     key.Class,
		ID:        claims.ID,
		ExpiresAt: claims.ExpiresAt.UTC(),
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.UTC()
	}

	return out, nil
}
