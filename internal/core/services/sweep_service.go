package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vncsmyrnk/tokenauth/internal/core/domain"
	"github.com/vncsmyrnk/tokenauth/internal/core/ports"
	"github.com/vncsmyrnk/tokenauth/internal/logger"
)

const sweepConcurrency = 8

// SweepService clears live refresh tokens that can no longer be redeemed,
// either because they expired or because they no longer verify under the
// current refresh secret.
type SweepService struct {
	store ports.SessionStore
	codec ports.TokenCodec
	key   ports.SigningKey
}

func NewSweepService(store ports.SessionStore, cfg TokenConfig, now func() time.Time) ports.SweepService {
	return &SweepService{
		store: store,
		codec: NewTokenCodec(now),
		key:   cfg.RefreshKey(),
	}
}

// SweepExpired returns how many live tokens it cleared. A token rotated in the
// meantime is left alone since the swap only matches the value that was read.
func (s *SweepService) SweepExpired(ctx context.Context) (int, error) {
	const op = "services.SweepService.SweepExpired"

	sessions, err := s.store.ListLiveSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var cleared atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)

	for _, session := range sessions {
		if _, err := s.codec.Decode(session.RefreshToken, s.key); err == nil {
			continue
		}

		g.Go(func() error {
			swapped, err := s.store.CompareAndSwapRefreshToken(gctx, session.AccountID, session.RefreshToken, "")
			if err != nil {
				if errors.Is(err, domain.ErrAccountNotFound) {
					return nil
				}
				return fmt.Errorf("failed to clear session of %s: %w", session.AccountID, err)
			}
			if swapped {
				cleared.Add(1)
			}
			return nil
		})
	}

	err = g.Wait()
	n := int(cleared.Load())

	logger.From(ctx).Info("sessions_swept",
		slog.String("op", op),
		slog.Int("live", len(sessions)),
		slog.Int("cleared", n),
	)

	if err != nil {
		return n, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
