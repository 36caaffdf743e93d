package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vncsmyrnk/tokenauth/internal/core/domain"
	"github.com/vncsmyrnk/tokenauth/internal/core/ports"
	"github.com/vncsmyrnk/tokenauth/internal/logger"
)

// RotationStage names the step a refresh attempt reached.
type RotationStage string

const (
	StageReceived         RotationStage = "received"
	StageSignatureChecked RotationStage = "signature_checked"
	StageAccountResolved  RotationStage = "account_resolved"
	StageLiveMatchChecked RotationStage = "live_match_checked"
	StageRotated          RotationStage = "rotated"
)

// SessionRotator exchanges a live refresh token for a new token pair and
// invalidates the presented token in the same store operation.
type SessionRotator struct {
	codec    ports.TokenCodec
	issuer   ports.TokenIssuer
	accounts ports.AccountRepository
	key      ports.SigningKey
}

func NewSessionRotator(codec ports.TokenCodec, issuer ports.TokenIssuer, accounts ports.AccountRepository, cfg TokenConfig) *SessionRotator {
	return &SessionRotator{
		codec:    codec,
		issuer:   issuer,
		accounts: accounts,
		key:      cfg.RefreshKey(),
	}
}

func (r *SessionRotator) Rotate(ctx context.Context, presented string) (*domain.TokenPair, error) {
	const op = "services.SessionRotator.Rotate"

	lg := logger.From(ctx)

	reject := func(stage RotationStage, err error) (*domain.TokenPair, error) {
		lg.Warn("refresh_rejected",
			slog.String("op", op),
			slog.String("stage", string(stage)),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if presented == "" {
		return reject(StageReceived, domain.ErrNoToken)
	}

	claims, err := r.codec.Decode(presented, r.key)
	if err != nil {
		return reject(StageReceived, fmt.Errorf("%w: %w", domain.ErrInvalidToken, err))
	}

	account, err := r.accounts.GetByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return reject(StageSignatureChecked, domain.ErrUnknownAccount)
		}
		return reject(StageSignatureChecked, err)
	}

	if !sameToken(account.RefreshToken, presented) {
		return reject(StageAccountResolved, domain.ErrStaleToken)
	}

	pair, err := r.issuer.Issue(account.ID)
	if err != nil {
		return reject(StageLiveMatchChecked, err)
	}

	swapped, err := r.accounts.CompareAndSwapRefreshToken(ctx, account.ID, presented, pair.RefreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return reject(StageLiveMatchChecked, domain.ErrUnknownAccount)
		}
		return reject(StageLiveMatchChecked, err)
	}
	if !swapped {
		// A concurrent refresh installed a new token after our match check.
		return reject(StageLiveMatchChecked, domain.ErrStaleToken)
	}

	lg.Debug("refresh_rotated",
		slog.String("op", op),
		slog.String("stage", string(StageRotated)),
		slog.String("account_id", account.ID.String()),
	)

	return pair, nil
}

// sameToken reports whether presented equals the live token. No live token
// never matches.
func sameToken(live, presented string) bool {
	if live == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(live), []byte(presented)) == 1
}
