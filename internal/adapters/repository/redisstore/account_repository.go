// Package redisstore stores accounts as Redis hashes. Identity uniqueness and
// refresh-token swaps run as Lua scripts so each is a single atomic command.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/vncsmyrnk/tokenauth/internal/core/domain"
	"github.com/vncsmyrnk/tokenauth/internal/core/ports"
)

const defaultPrefix = "tokenauth:"

const (
	fieldID             = "id"
	fieldIdentity       = "email"
	fieldCredentialHash = "credential_hash"
	fieldRefreshToken   = "refresh_token"
	fieldCreatedAt      = "created_at"
)

// KEYS[1] identity index, KEYS[2] account hash.
// ARGV: id, identity, credential hash, refresh token, created_at.
var createLua = redis.NewScript(`
if redis.call("SETNX", KEYS[1], ARGV[1]) == 0 then
  return 0
end
redis.call("HSET", KEYS[2],
  "id", ARGV[1],
  "email", ARGV[2],
  "credential_hash", ARGV[3],
  "refresh_token", ARGV[4],
  "created_at", ARGV[5])
return 1
`)

// KEYS[1] account hash. ARGV: expected token, next token.
// Returns -1 when the account is missing, 0 on mismatch, 1 when swapped.
var swapLua = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  return -1
end
local current = redis.call("HGET", KEYS[1], "refresh_token") or ""
if current ~= ARGV[1] then
  return 0
end
redis.call("HSET", KEYS[1], "refresh_token", ARGV[2])
return 1
`)

type AccountRepository struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewClient parses a redis:// URL and pings the server.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}

// NewAccountRepository namespaces every key under prefix ("tokenauth:" when empty).
func NewAccountRepository(rdb redis.UniversalClient, prefix string) ports.SessionStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &AccountRepository{rdb: rdb, prefix: prefix}
}

func (r *AccountRepository) accountKey(id uuid.UUID) string {
	return r.prefix + "account:" + id.String()
}

func (r *AccountRepository) identityKey(identity string) string {
	return r.prefix + "identity:" + identity
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}

	created, err := createLua.Run(ctx, r.rdb,
		[]string{r.identityKey(account.Identity), r.accountKey(account.ID)},
		account.ID.String(),
		account.Identity,
		account.CredentialHash,
		account.RefreshToken,
		account.CreatedAt.Format(time.RFC3339Nano),
	).Int64()
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	if created == 0 {
		return domain.ErrAlreadyRegistered
	}
	return nil
}

func (r *AccountRepository) GetByIdentity(ctx context.Context, identity string) (*domain.Account, error) {
	raw, err := r.rdb.Get(ctx, r.identityKey(identity)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: corrupt identity index: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	m, err := r.rdb.HGetAll(ctx, r.accountKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if len(m) == 0 {
		return nil, domain.ErrAccountNotFound
	}

	accountID, err := uuid.Parse(m[fieldID])
	if err != nil {
		return nil, fmt.Errorf("failed to get account: corrupt id: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, m[fieldCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("failed to get account: corrupt created_at: %w", err)
	}

	return &domain.Account{
		ID:             accountID,
		Identity:       m[fieldIdentity],
		CredentialHash: m[fieldCredentialHash],
		RefreshToken:   m[fieldRefreshToken],
		CreatedAt:      createdAt,
	}, nil
}

func (r *AccountRepository) CompareAndSwapRefreshToken(ctx context.Context, id uuid.UUID, old, next string) (bool, error) {
	status, err := swapLua.Run(ctx, r.rdb, []string{r.accountKey(id)}, old, next).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to swap refresh token: %w", err)
	}

	switch status {
	case -1:
		return false, domain.ErrAccountNotFound
	case 1:
		return true, nil
	default:
		return false, nil
	}
}

// ListLiveSessions walks the account hashes with SCAN, so it does not block
// the server on large keyspaces.
func (r *AccountRepository) ListLiveSessions(ctx context.Context) ([]domain.LiveSession, error) {
	var sessions []domain.LiveSession

	iter := r.rdb.Scan(ctx, 0, r.prefix+"account:*", 100).Iterator()
	for iter.Next(ctx) {
		vals, err := r.rdb.HMGet(ctx, iter.Val(), fieldID, fieldRefreshToken).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to list live sessions: %w", err)
		}

		rawID, _ := vals[0].(string)
		token, _ := vals[1].(string)
		if token == "" {
			continue
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			continue
		}
		sessions = append(sessions, domain.LiveSession{AccountID: id, RefreshToken: token})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list live sessions: %w", err)
	}
	return sessions, nil
}
