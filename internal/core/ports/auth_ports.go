package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/tokenauth/internal/core/domain"
)

type LogoutRequest struct {
	Authorization string // raw Authorization header, may be empty
	RefreshToken  string // refresh cookie value, may be empty
}

type AuthService interface {
	Register(ctx context.Context, identity, credential string) (*domain.Account, error)
	Login(ctx context.Context, identity, credential string) (*domain.TokenPair, *domain.Account, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	Logout(ctx context.Context, req LogoutRequest) error
	Authenticate(ctx context.Context, authorization string) (uuid.UUID, error)
}

// AuthMetrics records outcomes of the login and refresh flows.
type AuthMetrics interface {
	ObserveLogin(outcome string)
	ObserveRefresh(outcome string)
	ObserveLogout(outcome string)
}
