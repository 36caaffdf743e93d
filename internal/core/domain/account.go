package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account is a registered identity together with its single live refresh token.
// An empty RefreshToken means no refresh token is live for the account.
type Account struct {
	ID             uuid.UUID `json:"id"`
	Identity       string    `json:"email"`
	CredentialHash string    `json:"-"`
	RefreshToken   string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}
