package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/vncsmyrnk/tokenauth/internal/core/domain"
	"github.com/vncsmyrnk/tokenauth/internal/core/ports"
)

const uniqueViolation = pq.ErrorCode("23505")

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) ports.SessionStore {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, email, credential_hash, refresh_token)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		RETURNING created_at
	`
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, query,
		account.ID,
		account.Identity,
		account.CredentialHash,
		account.RefreshToken,
	).Scan(&account.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrAlreadyRegistered
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *AccountRepository) GetByIdentity(ctx context.Context, identity string) (*domain.Account, error) {
	query := `
		SELECT id, email, credential_hash, refresh_token, created_at
		FROM accounts
		WHERE email = $1
	`
	return r.scanAccount(r.db.QueryRowContext(ctx, query, identity))
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `
		SELECT id, email, credential_hash, refresh_token, created_at
		FROM accounts
		WHERE id = $1
	`
	return r.scanAccount(r.db.QueryRowContext(ctx, query, id))
}

// CompareAndSwapRefreshToken relies on the row lock taken by UPDATE: of two
// concurrent swaps from the same old value only the first matches the WHERE
// clause, the second re-evaluates it against the committed row and updates nothing.
func (r *AccountRepository) CompareAndSwapRefreshToken(ctx context.Context, id uuid.UUID, old, next string) (bool, error) {
	query := `
		UPDATE accounts
		SET refresh_token = NULLIF($3, ''), updated_at = NOW()
		WHERE id = $1 AND COALESCE(refresh_token, '') = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, old, next)
	if err != nil {
		return false, fmt.Errorf("failed to swap refresh token: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to swap refresh token: %w", err)
	}
	if affected == 1 {
		return true, nil
	}

	var exists bool
	err = r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check account: %w", err)
	}
	if !exists {
		return false, domain.ErrAccountNotFound
	}
	return false, nil
}

func (r *AccountRepository) scanAccount(row *sql.Row) (*domain.Account, error) {
	account := &domain.Account{}
	var refreshToken sql.NullString
	err := row.Scan(
		&account.ID,
		&account.Identity,
		&account.CredentialHash,
		&refreshToken,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	account.RefreshToken = refreshToken.String
	return account, nil
}

func (r *AccountRepository) ListLiveSessions(ctx context.Context) ([]domain.LiveSession, error) {
	query := `
		SELECT id, refresh_token
		FROM accounts
		WHERE refresh_token IS NOT NULL
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list live sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.LiveSession
	for rows.Next() {
		var s domain.LiveSession
		if err := rows.Scan(&s.AccountID, &s.RefreshToken); err != nil {
			return nil, fmt.Errorf("failed to scan live session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
