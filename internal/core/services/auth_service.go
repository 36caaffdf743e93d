package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/tokenauth/internal/core/domain"
	"github.com/vncsmyrnk/tokenauth/internal/core/ports"
	"github.com/vncsmyrnk/tokenauth/internal/logger"
)

// maxSwapAttempts bounds the compare-and-swap loops that install or clear a
// live refresh token on behalf of login and logout.
const maxSwapAttempts = 3

var errSwapContention = errors.New("refresh token kept changing")

const (
	OutcomeSuccess        = "success"
	OutcomeFailed         = "failed"
	OutcomeNoToken        = "no_token"
	OutcomeInvalidToken   = "invalid_token"
	OutcomeUnknownAccount = "unknown_account"
	OutcomeStaleToken     = "stale_token"
	OutcomeError          = "error"
)

type AuthService struct {
	accounts ports.AccountRepository
	hasher   ports.PasswordHasher
	codec    ports.TokenCodec
	issuer   ports.TokenIssuer
	rotator  *SessionRotator
	guard    *AccessGuard
	cfg      TokenConfig
	now      func() time.Time
	metrics  ports.AuthMetrics

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService wires the codec, issuer, rotator and guard around one clock.
// A nil now uses time.Now.
func NewAuthService(accounts ports.AccountRepository, hasher ports.PasswordHasher, cfg TokenConfig, now func() time.Time) *AuthService {
	if now == nil {
		now = time.Now
	}

	codec := NewTokenCodec(now)
	issuer := NewTokenIssuer(codec, cfg)

	return &AuthService{
		accounts: accounts,
		hasher:   hasher,
		codec:    codec,
		issuer:   issuer,
		rotator:  NewSessionRotator(codec, issuer, accounts, cfg),
		guard:    NewAccessGuard(codec, cfg),
		cfg:      cfg,
		now:      now,
		metrics:  nopMetrics{},
	}
}

var _ ports.AuthService = (*AuthService)(nil)

// SetMetrics installs an outcome recorder. Passing nil restores the no-op one.
func (s *AuthService) SetMetrics(m ports.AuthMetrics) {
	if m == nil {
		m = nopMetrics{}
	}
	s.metrics = m
}

func (s *AuthService) Register(ctx context.Context, identity, credential string) (*domain.Account, error) {
	const op = "services.AuthService.Register"

	normIdentity, err := normalizeIdentity(identity)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if credential == "" {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrEmptyCredential)
	}

	_, err = s.accounts.GetByIdentity(ctx, normIdentity)
	if err == nil {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrAlreadyRegistered)
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := s.hasher.Hash(credential)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	account := &domain.Account{
		ID:             uuid.New(),
		Identity:       normIdentity,
		CredentialHash: hash,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.From(ctx).Info("account_registered",
		slog.String("op", op),
		slog.String("account_id", account.ID.String()),
	)

	return account, nil
}

// Login checks the credential, issues a pair and makes its refresh token the
// account's only live one. Unknown identities and wrong credentials are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, identity, credential string) (*domain.TokenPair, *domain.Account, error) {
	const op = "services.AuthService.Login"

	pair, account, err := s.login(ctx, identity, credential)
	switch {
	case err == nil:
		s.metrics.ObserveLogin(OutcomeSuccess)
	case errors.Is(err, domain.ErrAuthenticationFailed):
		s.metrics.ObserveLogin(OutcomeFailed)
	default:
		s.metrics.ObserveLogin(OutcomeError)
		logger.From(ctx).Error("login_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return pair, account, nil
}

func (s *AuthService) login(ctx context.Context, identity, credential string) (*domain.TokenPair, *domain.Account, error) {
	normIdentity, err := normalizeIdentity(identity)
	if err != nil || credential == "" {
		return nil, nil, domain.ErrAuthenticationFailed
	}

	account, err := s.accounts.GetByIdentity(ctx, normIdentity)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			s.hasher.Compare(s.dummyCredentialHash(), credential)
			return nil, nil, domain.ErrAuthenticationFailed
		}
		return nil, nil, err
	}

	if !s.hasher.Compare(account.CredentialHash, credential) {
		return nil, nil, domain.ErrAuthenticationFailed
	}

	pair, err := s.issuer.Issue(account.ID)
	if err != nil {
		return nil, nil, err
	}

	current := account.RefreshToken
	for attempt := 0; attempt < maxSwapAttempts; attempt++ {
		swapped, err := s.accounts.CompareAndSwapRefreshToken(ctx, account.ID, current, pair.RefreshToken)
		if err != nil {
			return nil, nil, err
		}
		if swapped {
			account.RefreshToken = pair.RefreshToken
			return pair, account, nil
		}

		latest, err := s.accounts.GetByID(ctx, account.ID)
		if err != nil {
			return nil, nil, err
		}
		current = latest.RefreshToken
	}

	return nil, nil, errSwapContention
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	pair, err := s.rotator.Rotate(ctx, refreshToken)
	s.metrics.ObserveRefresh(refreshOutcome(err))
	return pair, err
}

// Logout clears the account's live refresh token. The account is taken from a
// valid bearer access token, falling back to a still-valid refresh token.
// Without either there is nothing to revoke and Logout succeeds.
func (s *AuthService) Logout(ctx context.Context, req ports.LogoutRequest) error {
	const op = "services.AuthService.Logout"

	if accountID, err := s.guard.Authenticate(req.Authorization); err == nil {
		if err := s.revokeLive(ctx, accountID); err != nil {
			s.metrics.ObserveLogout(OutcomeError)
			return fmt.Errorf("%s: %w", op, err)
		}
		s.metrics.ObserveLogout(OutcomeSuccess)
		return nil
	}

	if req.RefreshToken == "" {
		s.metrics.ObserveLogout(OutcomeNoToken)
		return nil
	}

	claims, err := s.codec.Decode(req.RefreshToken, s.cfg.RefreshKey())
	if err != nil {
		s.metrics.ObserveLogout(OutcomeInvalidToken)
		return nil
	}

	// Only the token the client holds is cleared; if it is already stale a
	// newer session exists that this caller cannot prove ownership of.
	swapped, err := s.accounts.CompareAndSwapRefreshToken(ctx, claims.AccountID, req.RefreshToken, "")
	if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		s.metrics.ObserveLogout(OutcomeError)
		return fmt.Errorf("%s: %w", op, err)
	}
	if !swapped {
		s.metrics.ObserveLogout(OutcomeStaleToken)
		return nil
	}

	s.metrics.ObserveLogout(OutcomeSuccess)
	return nil
}

func (s *AuthService) Authenticate(_ context.Context, authorization string) (uuid.UUID, error) {
	return s.guard.Authenticate(authorization)
}

func (s *AuthService) revokeLive(ctx context.Context, accountID uuid.UUID) error {
	for attempt := 0; attempt < maxSwapAttempts; attempt++ {
		account, err := s.accounts.GetByID(ctx, accountID)
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				return nil
			}
			return err
		}
		if account.RefreshToken == "" {
			return nil
		}

		swapped, err := s.accounts.CompareAndSwapRefreshToken(ctx, accountID, account.RefreshToken, "")
		if err != nil {
			return err
		}
		if swapped {
			return nil
		}
	}

	return errSwapContention
}

func (s *AuthService) dummyCredentialHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash(uuid.NewString())
	})
	return s.dummyHash
}

// normalizeIdentity trims and lower-cases an e-mail identity after checking
// it parses as an address.
func normalizeIdentity(raw string) (string, error) {
	identity := strings.TrimSpace(raw)
	if identity == "" {
		return "", domain.ErrInvalidIdentity
	}

	addr, err := mail.ParseAddress(identity)
	if err != nil || addr.Address != identity {
		return "", domain.ErrInvalidIdentity
	}

	return strings.ToLower(identity), nil
}

func refreshOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, domain.ErrNoToken):
		return OutcomeNoToken
	case errors.Is(err, domain.ErrInvalidToken):
		return OutcomeInvalidToken
	case errors.Is(err, domain.ErrUnknownAccount):
		return OutcomeUnknownAccount
	case errors.Is(err, domain.ErrStaleToken):
		return OutcomeStaleToken
	default:
		return OutcomeError
	}
}

type nopMetrics struct{}

func (nopMetrics) ObserveLogin(string)   {}
func (nopMetrics) ObserveRefresh(string) {}
func (nopMetrics) ObserveLogout(string)  {}
