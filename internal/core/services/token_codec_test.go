package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/tokenauth/internal/core/domain"
)

func TestTokenCodec_EncodeDecode(t *testing.T) {
	clock := newTestClock()
	codec := NewTokenCodec(clock.Now)
	accountID := uuid.New()

	token, exp, err := codec.Encode(accountID, testTokenConfig.AccessKey())
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(testTokenConfig.AccessTTL), exp)

	claims, err := codec.Decode(token, testTokenConfig.AccessKey())
	require.NoError(t, err)
	assert.Equal(t, accountID, claims.AccountID)
	assert.Equal(t, domain.AccessTokenClass, claims.Class)
	assert.Equal(t, clock.Now(), claims.IssuedAt)
	assert.Equal(t, exp, claims.ExpiresAt)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenCodec_ExpiresAtEmbeddedExpiry(t *testing.T) {
	clock := newTestClock()
	codec := NewTokenCodec(clock.Now)

	token, _, err := codec.Encode(uuid.New(), testTokenConfig.AccessKey())
	require.NoError(t, err)

	clock.Advance(testTokenConfig.AccessTTL - time.Second)
	_, err = codec.Decode(token, testTokenConfig.AccessKey())
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = codec.Decode(token, testTokenConfig.AccessKey())
	assert.ErrorIs(t, err, domain.ErrTokenExpired)

	clock.Advance(time.Hour)
	_, err = codec.Decode(token, testTokenConfig.AccessKey())
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestTokenCodec_ClassesAreNotInterchangeable(t *testing.T) {
	codec := NewTokenCodec(newTestClock().Now)
	accountID := uuid.New()

	access, _, err := codec.Encode(accountID, testTokenConfig.AccessKey())
	require.NoError(t, err)
	refresh, _, err := codec.Encode(accountID, testTokenConfig.RefreshKey())
	require.NoError(t, err)

	_, err = codec.Decode(access, testTokenConfig.RefreshKey())
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)

	_, err = codec.Decode(refresh, testTokenConfig.AccessKey())
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestTokenCodec_TypeClaimCheckedEvenWithSharedSecret(t *testing.T) {
	codec := NewTokenCodec(newTestClock().Now)
	shared := TokenConfig{
		AccessSecret:  "same",
		RefreshSecret: "same",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}

	refresh, _, err := codec.Encode(uuid.New(), shared.RefreshKey())
	require.NoError(t, err)

	_, err = codec.Decode(refresh, shared.AccessKey())
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestTokenCodec_RejectsForeignTokens(t *testing.T) {
	clock := newTestClock()
	codec := NewTokenCodec(clock.Now)
	key := testTokenConfig.AccessKey()

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, tokenClaims{
		AccountID: uuid.NewString(),
		Type:      string(domain.AccessTokenClass),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
		},
	}).SignedString(key.Secret)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		AccountID: uuid.NewString(),
		Type:      string(domain.AccessTokenClass),
	}).SignedString(key.Secret)
	require.NoError(t, err)

	badAccount, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		AccountID: "not-a-uuid",
		Type:      string(domain.AccessTokenClass),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
		},
	}).SignedString(key.Secret)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"malformed", "not.a.jwt"},
		{"other algorithm", hs512},
		{"missing expiry", noExpiry},
		{"non uuid account", badAccount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Decode(tt.token, key)
			assert.ErrorIs(t, err, domain.ErrInvalidSignature)
		})
	}
}

func TestTokenCodec_WrongSecret(t *testing.T) {
	codec := NewTokenCodec(newTestClock().Now)

	token, _, err := codec.Encode(uuid.New(), testTokenConfig.AccessKey())
	require.NoError(t, err)

	key := testTokenConfig.AccessKey()
	key.Secret = []byte("someone-else")
	_, err = codec.Decode(token, key)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestTokenCodec_EmptySecret(t *testing.T) {
	codec := NewTokenCodec(nil)

	key := testTokenConfig.AccessKey()
	key.Secret = nil
	_, _, err := codec.Encode(uuid.New(), key)
	assert.Error(t, err)
}

func TestTokenCodec_SameSecondTokensDiffer(t *testing.T) {
	codec := NewTokenCodec(newTestClock().Now)
	accountID := uuid.New()

	a, _, err := codec.Encode(accountID, testTokenConfig.RefreshKey())
	require.NoError(t, err)
	b, _, err := codec.Encode(accountID, testTokenConfig.RefreshKey())
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestTokenIssuer_Issue(t *testing.T) {
	clock := newTestClock()
	codec := NewTokenCodec(clock.Now)
	issuer := NewTokenIssuer(codec, testTokenConfig)
	accountID := uuid.New()

	pair, err := issuer.Issue(accountID)
	require.NoError(t, err)

	assert.Equal(t, clock.Now().Add(testTokenConfig.AccessTTL), pair.AccessExpiresAt)
	assert.Equal(t, clock.Now().Add(testTokenConfig.RefreshTTL), pair.RefreshExpiresAt)

	access, err := codec.Decode(pair.AccessToken, testTokenConfig.AccessKey())
	require.NoError(t, err)
	assert.Equal(t, accountID, access.AccountID)

	refresh, err := codec.Decode(pair.RefreshToken, testTokenConfig.RefreshKey())
	require.NoError(t, err)
	assert.Equal(t, accountID, refresh.AccountID)
}
