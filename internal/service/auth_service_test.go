package service

import (
	"context"
	"testing"

	"linkmart/internal/auth"
	"linkmart/internal/model"
	"linkmart/internal/testutil"
	"linkmart/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newAuthService(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := testConfig()
	tokens, err := auth.NewTokenIssuer(&cfg.JWT)
	require.NoError(t, err)
	return NewAuthService(db, tokens, auth.NewPasswordHasher(bcrypt.MinCost)), db
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, &RegisterRequest{Name: "Ada", Email: " Ada@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", session.User.Email)
	assert.Equal(t, model.RoleUser, session.User.Role)
	assert.NotEqual(t, "secret1", session.User.PasswordHash)

	p, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, p.UserID)
	assert.False(t, p.IsAdmin())

	login, err := svc.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, login.User.ID)

	_, err = svc.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "wrong"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	_, err = svc.Login(ctx, &LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterRequest{Name: "A", Email: "dup@example.com", Password: "secret1"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, &RegisterRequest{Name: "B", Email: "DUP@example.com", Password: "secret2"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = svc.Register(ctx, &RegisterRequest{Name: "C", Email: "c@example.com", Password: "123"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestLoginSuspendedUser(t *testing.T) {
	svc, db := newAuthService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, &RegisterRequest{Name: "S", Email: "s@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.NoError(t, db.Model(&model.User{}).Where("id = ?", session.User.ID).
		Update("status", model.UserStatusSuspended).Error)

	_, err = svc.Login(ctx, &LoginRequest{Email: "s@example.com", Password: "secret1"})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	// tokens issued before the suspension stop working too
	_, err = svc.Authenticate(ctx, session.Token)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestCreateAdmin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()
	admin, err := svc.CreateAdmin(ctx, "Root", "root@example.com", "rootpass")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)

	session, err := svc.Login(ctx, &LoginRequest{Email: "root@example.com", Password: "rootpass"})
	require.NoError(t, err)
	p, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.True(t, p.IsAdmin())

	_, err = svc.Authenticate(ctx, "not-a-token")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}
