package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/tokenauth/internal/core/domain"
)

// AccountRepository is the credential store. Lookups return domain.ErrAccountNotFound
// when nothing matches and Create returns domain.ErrAlreadyRegistered on a duplicate identity.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByIdentity(ctx context.Context, identity string) (*domain.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)

	// CompareAndSwapRefreshToken atomically replaces the live refresh token of the
	// account with next, provided the stored value still equals old. An empty string
	// stands for "no live token" on both sides.
	CompareAndSwapRefreshToken(ctx context.Context, id uuid.UUID, old, next string) (bool, error)
}

type AccountService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// LiveSessionLister enumerates accounts that hold a live refresh token.
type LiveSessionLister interface {
	ListLiveSessions(ctx context.Context) ([]domain.LiveSession, error)
}

// SessionStore is a credential store that can also enumerate live sessions.
type SessionStore interface {
	AccountRepository
	LiveSessionLister
}

type SweepService interface {
	SweepExpired(ctx context.Context) (int, error)
}
