package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkmart/internal/config"
	"linkmart/internal/model"
	"linkmart/pkg/apperr"
)

func newIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer(&config.JWTConfig{Secret: "test-secret", Issuer: "linkmart"})
	require.NoError(t, err)
	return issuer
}

func TestIssueAndParse(t *testing.T) {
	issuer := newIssuer(t)

	token, exp, err := issuer.Issue(Principal{UserID: 42, Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), exp, time.Minute)

	p, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), p.UserID)
	assert.True(t, p.IsAdmin())
}

func TestParseExpired(t *testing.T) {
	issuer := newIssuer(t)
	issuer.now = func() time.Time { return time.Now().Add(-8 * 24 * time.Hour) }
	token, _, err := issuer.Issue(Principal{UserID: 1, Role: model.RoleUser})
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseWrongSecret(t *testing.T) {
	token, _, err := newIssuer(t).Issue(Principal{UserID: 1, Role: model.RoleUser})
	require.NoError(t, err)

	other, err := NewTokenIssuer(&config.JWTConfig{Secret: "other", Issuer: "linkmart"})
	require.NoError(t, err)
	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsUnknownRole(t *testing.T) {
	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: "superuser",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7",
			Issuer:    "linkmart",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	token, err := raw.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = newIssuer(t).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseGarbage(t *testing.T) {
	_, err := newIssuer(t).Parse("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenIssuerNeedsSecret(t *testing.T) {
	_, err := NewTokenIssuer(&config.JWTConfig{})
	assert.Error(t, err)
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(4)
	hash, err := h.Hash("s3cret")
	require.NoError(t, err)
	assert.True(t, h.Matches(hash, "s3cret"))
	assert.False(t, h.Matches(hash, "wrong"))
}

func TestAuthorizer(t *testing.T) {
	var a Authorizer
	user := Principal{UserID: 1, Role: model.RoleUser}
	admin := Principal{UserID: 2, Role: model.RoleAdmin}

	assert.NoError(t, a.RequireRole(admin, model.RoleAdmin))
	assert.True(t, apperr.Is(a.RequireRole(user, model.RoleAdmin), apperr.KindForbidden))

	assert.NoError(t, a.CanMutate(user, 1))
	assert.NoError(t, a.CanMutate(admin, 1))
	assert.True(t, apperr.Is(a.CanMutate(user, 3), apperr.KindForbidden))
}
