package ports

import (
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/tokenauth/internal/core/domain"
)

// SigningKey is the signing material and lifetime of one token class.
type SigningKey struct {
	Class    domain.TokenClass
	Secret   []byte
	Lifetime time.Duration
}

type TokenCodec interface {
	Encode(accountID uuid.UUID, key SigningKey) (token string, expiresAt time.Time, err error)
	Decode(token string, key SigningKey) (*domain.TokenClaims, error)
}

type TokenIssuer interface {
	Issue(accountID uuid.UUID) (*domain.TokenPair, error)
}
