package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/tokenauth/internal/core/domain"
	"github.com/vncsmyrnk/tokenauth/internal/core/ports"
)

// TokenConfig holds the per-class signing secrets and lifetimes.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func (c TokenConfig) AccessKey() ports.SigningKey {
	return ports.SigningKey{Class: domain.AccessTokenClass, Secret: []byte(c.AccessSecret), Lifetime: c.AccessTTL}
}

func (c TokenConfig) RefreshKey() ports.SigningKey {
	return ports.SigningKey{Class: domain.RefreshTokenClass, Secret: []byte(c.RefreshSecret), Lifetime: c.RefreshTTL}
}

type TokenIssuer struct {
	codec ports.TokenCodec
	cfg   TokenConfig
}

func NewTokenIssuer(codec ports.TokenCodec, cfg TokenConfig) *TokenIssuer {
	return &TokenIssuer{codec: codec, cfg: cfg}
}

// Issue mints a fresh access/refresh pair. Persisting the refresh token is up
// to the caller.
func (i *TokenIssuer) Issue(accountID uuid.UUID) (*domain.TokenPair, error) {
	const op = "services.TokenIssuer.Issue"

	access, accessExp, err := i.codec.Encode(accountID, i.cfg.AccessKey())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refresh, refreshExp, err := i.codec.Encode(accountID, i.cfg.RefreshKey())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}
