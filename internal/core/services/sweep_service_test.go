package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/tokenauth/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/tokenauth/internal/core/domain"
)

func TestSweepService_ClearsOnlyDeadSessions(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	repo := memory.NewAccountRepository()
	issuer := NewTokenIssuer(NewTokenCodec(clock.Now), testTokenConfig)

	stale := seedAccount(t, repo, "")
	old, err := issuer.Issue(stale.ID)
	require.NoError(t, err)
	_, err = repo.CompareAndSwapRefreshToken(ctx, stale.ID, "", old.RefreshToken)
	require.NoError(t, err)

	clock.Advance(testTokenConfig.RefreshTTL - testTokenConfig.AccessTTL)

	fresh := seedAccount(t, repo, "")
	current, err := issuer.Issue(fresh.ID)
	require.NoError(t, err)
	_, err = repo.CompareAndSwapRefreshToken(ctx, fresh.ID, "", current.RefreshToken)
	require.NoError(t, err)

	forged := seedAccount(t, repo, "not-a-token")
	idle := seedAccount(t, repo, "")

	clock.Advance(testTokenConfig.AccessTTL)

	n, err := NewSweepService(repo, testTokenConfig, clock.Now).SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range []*domain.Account{stale, forged, idle} {
		got, err := repo.GetByID(ctx, id.ID)
		require.NoError(t, err)
		assert.Empty(t, got.RefreshToken)
	}

	got, err := repo.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, current.RefreshToken, got.RefreshToken)
}

type failingLister struct {
	*memory.AccountRepository
}

func (failingLister) ListLiveSessions(context.Context) ([]domain.LiveSession, error) {
	return nil, errors.New("boom")
}

func TestSweepService_ListError(t *testing.T) {
	store := failingLister{AccountRepository: memory.NewAccountRepository()}

	n, err := NewSweepService(store, testTokenConfig, nil).SweepExpired(context.Background())
	assert.Zero(t, n)
	assert.ErrorContains(t, err, "boom")
}
