package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/tokenauth/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/tokenauth/internal/core/domain"
	"github.com/vncsmyrnk/tokenauth/internal/core/ports"
)

var testTokenConfig = TokenConfig{
	AccessSecret:  "access-secret",
	RefreshSecret: "refresh-secret",
	AccessTTL:     15 * time.Minute,
	RefreshTTL:    7 * 24 * time.Hour,
}

// testClock is a settable clock shared by everything built in one test.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// spyRepository counts lookups and can run a hook before each swap.
type spyRepository struct {
	ports.AccountRepository
	getByIDCalls atomic.Int32
	beforeSwap   func(id uuid.UUID)
}

func (s *spyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	s.getByIDCalls.Add(1)
	return s.AccountRepository.GetByID(ctx, id)
}

func (s *spyRepository) CompareAndSwapRefreshToken(ctx context.Context, id uuid.UUID, old, next string) (bool, error) {
	if s.beforeSwap != nil {
		hook := s.beforeSwap
		s.beforeSwap = nil
		hook(id)
	}
	return s.AccountRepository.CompareAndSwapRefreshToken(ctx, id, old, next)
}

type recordedMetrics struct {
	mu      sync.Mutex
	logins  []string
	refresh []string
	logouts []string
}

func (m *recordedMetrics) ObserveLogin(o string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logins = append(m.logins, o)
}

func (m *recordedMetrics) ObserveRefresh(o string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refresh = append(m.refresh, o)
}

func (m *recordedMetrics) ObserveLogout(o string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logouts = append(m.logouts, o)
}

// seedAccount stores an account with the given live refresh token.
func seedAccount(t *testing.T, repo ports.AccountRepository, live string) *domain.Account {
	t.Helper()

	acc := &domain.Account{ID: uuid.New(), Identity: uuid.NewString() + "@example.com", RefreshToken: live}
	require.NoError(t, repo.Create(context.Background(), acc))
	return acc
}

func newRotatorFixture(t *testing.T) (*testClock, *TokenCodec, *TokenIssuer, *spyRepository, *SessionRotator) {
	t.Helper()

	clock := newTestClock()
	codec := NewTokenCodec(clock.Now)
	issuer := NewTokenIssuer(codec, testTokenConfig)
	repo := &spyRepository{AccountRepository: memory.NewAccountRepository()}
	rotator := NewSessionRotator(codec, issuer, repo, testTokenConfig)
	return clock, codec, issuer, repo, rotator
}
