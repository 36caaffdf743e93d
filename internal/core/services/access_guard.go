package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/tokenauth/internal/core/domain"
	"github.com/vncsmyrnk/tokenauth/internal/core/ports"
)

// AccessGuard verifies bearer access tokens without touching the store.
type AccessGuard struct {
	codec ports.TokenCodec
	key   ports.SigningKey
}

func NewAccessGuard(codec ports.TokenCodec, cfg TokenConfig) *AccessGuard {
	return &AccessGuard{codec: codec, key: cfg.AccessKey()}
}

// Authenticate takes the raw Authorization header value.
func (g *AccessGuard) Authenticate(authorization string) (uuid.UUID, error) {
	const op = "services.AccessGuard.Authenticate"

	token := bearerToken(authorization)
	if token == "" {
		return uuid.Nil, fmt.Errorf("%s: %w", op, domain.ErrMissingToken)
	}

	claims, err := g.codec.Decode(token, g.key)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w: %w", op, domain.ErrInvalidToken, err)
	}

	return claims.AccountID, nil
}

// bearerToken accepts "Bearer <token>" with a case-insensitive scheme.
func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
