package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/tokenauth/internal/core/domain"
)

func TestAccountRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()

	acc := &domain.Account{ID: uuid.New(), Identity: "a@x.com", CredentialHash: "h"}
	require.NoError(t, repo.Create(ctx, acc))

	byIdentity, err := repo.GetByIdentity(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, byIdentity.ID)

	byID, err := repo.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", byID.Identity)

	err = repo.Create(ctx, &domain.Account{ID: uuid.New(), Identity: "a@x.com"})
	assert.ErrorIs(t, err, domain.ErrAlreadyRegistered)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	_, err = repo.GetByIdentity(ctx, "b@x.com")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAccountRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()
	acc := &domain.Account{ID: uuid.New(), Identity: "a@x.com"}
	require.NoError(t, repo.Create(ctx, acc))

	got, err := repo.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	got.RefreshToken = "mutated"

	again, err := repo.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Empty(t, again.RefreshToken)
}

func TestAccountRepository_CompareAndSwap(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()
	acc := &domain.Account{ID: uuid.New(), Identity: "a@x.com"}
	require.NoError(t, repo.Create(ctx, acc))

	ok, err := repo.CompareAndSwapRefreshToken(ctx, acc.ID, "", "r1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.CompareAndSwapRefreshToken(ctx, acc.ID, "", "r2")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.CompareAndSwapRefreshToken(ctx, acc.ID, "r1", "")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.CompareAndSwapRefreshToken(ctx, uuid.New(), "", "x")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAccountRepository_ConcurrentSwapHasSingleWinner(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()
	acc := &domain.Account{ID: uuid.New(), Identity: "a@x.com", RefreshToken: "r0"}
	require.NoError(t, repo.Create(ctx, acc))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.CompareAndSwapRefreshToken(ctx, acc.ID, "r0", uuid.NewString())
			assert.NoError(t, err)
			if ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestAccountRepository_ListLiveSessions(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()

	live := &domain.Account{ID: uuid.New(), Identity: "live@x.com", RefreshToken: "r1"}
	require.NoError(t, repo.Create(ctx, live))
	require.NoError(t, repo.Create(ctx, &domain.Account{ID: uuid.New(), Identity: "idle@x.com"}))

	sessions, err := repo.ListLiveSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.LiveSession{{AccountID: live.ID, RefreshToken: "r1"}}, sessions)
}
