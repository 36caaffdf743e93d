// Package memory keeps accounts in process memory. It backs local runs and
// tests; every method is safe for concurrent use.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/tokenauth/internal/core/domain"
	"github.com/vncsmyrnk/tokenauth/internal/core/ports"
)

type AccountRepository struct {
	mu         sync.RWMutex
	byID       map[uuid.UUID]domain.Account
	byIdentity map[string]uuid.UUID
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:       make(map[uuid.UUID]domain.Account),
		byIdentity: make(map[string]uuid.UUID),
	}
}

var _ ports.SessionStore = (*AccountRepository)(nil)

func (r *AccountRepository) Create(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byIdentity[account.Identity]; taken {
		return domain.ErrAlreadyRegistered
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}

	r.byID[account.ID] = *account
	r.byIdentity[account.Identity] = account.ID
	return nil
}

func (r *AccountRepository) GetByIdentity(_ context.Context, identity string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byIdentity[identity]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	account := r.byID[id]
	return &account, nil
}

func (r *AccountRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &account, nil
}

func (r *AccountRepository) CompareAndSwapRefreshToken(_ context.Context, id uuid.UUID, old, next string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.byID[id]
	if !ok {
		return false, domain.ErrAccountNotFound
	}
	if account.RefreshToken != old {
		return false, nil
	}

	account.RefreshToken = next
	r.byID[id] = account
	return true, nil
}

func (r *AccountRepository) ListLiveSessions(_ context.Context) ([]domain.LiveSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]domain.LiveSession, 0, len(r.byID))
	for id, account := range r.byID {
		if account.RefreshToken == "" {
			continue
		}
		sessions = append(sessions, domain.LiveSession{AccountID: id, RefreshToken: account.RefreshToken})
	}
	return sessions, nil
}
