package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"linkmart/internal/auth"
	"linkmart/internal/model"
	"linkmart/internal/repository"
	"linkmart/pkg/apperr"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AuthService struct {
	userRepo *repository.UserRepository
	tokens   *auth.TokenIssuer
	hasher   *auth.PasswordHasher
	log      *logrus.Entry
}

func NewAuthService(db *gorm.DB, tokens *auth.TokenIssuer, hasher *auth.PasswordHasher) *AuthService {
	return &AuthService{
		userRepo: repository.NewUserRepository(db),
		tokens:   tokens,
		hasher:   hasher,
		log:      logrus.WithField("component", "AuthService"),
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

// Register always creates a plain user; admins come from CreateAdmin.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*Session, error) {
	user, err := s.createUser(ctx, req.Name, req.Email, req.Password, model.RoleUser)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// CreateAdmin is used by the command line, never over HTTP.
func (s *AuthService) CreateAdmin(ctx context.Context, name, email, password string) (*model.User, error) {
	return s.createUser(ctx, name, email, password, model.RoleAdmin)
}

func (s *AuthService) createUser(ctx context.Context, name, email, password string, role model.Role) (*model.User, error) {
	email = normalize(email)
	name = strings.TrimSpace(name)
	if name == "" || email == "" || len(password) < 6 {
		return nil, apperr.Validation("name, email and a password of at least 6 characters are required")
	}

	if _, err := s.userRepo.GetByEmail(ctx, nil, email); err == nil {
		return nil, apperr.Conflict("email already registered")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, translate(err, "")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}
	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Status:       model.UserStatusActive,
	}
	if err := s.userRepo.Create(ctx, nil, user); err != nil {
		return nil, translate(err, "")
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": role}).Info("user registered")
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*Session, error) {
	user, err := s.userRepo.GetByEmail(ctx, nil, normalize(req.Email))
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	if err != nil {
		return nil, translate(err, "")
	}
	if !s.hasher.Matches(user.PasswordHash, req.Password) {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	if user.Status == model.UserStatusSuspended {
		return nil, apperr.Forbidden("account suspended")
	}
	return s.issue(user)
}

// Authenticate resolves a bearer token to its principal. The account is
// re-read so suspensions and role changes apply to tokens already issued.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (auth.Principal, error) {
	p, err := s.tokens.Parse(raw)
	if err != nil {
		return auth.Principal{}, apperr.Unauthorized("invalid or expired token")
	}
	user, err := s.userRepo.GetByID(ctx, nil, p.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return auth.Principal{}, apperr.Unauthorized("user no longer exists")
	}
	if err != nil {
		return auth.Principal{}, translate(err, "")
	}
	if user.Status == model.UserStatusSuspended {
		return auth.Principal{}, apperr.Forbidden("account suspended")
	}
	return auth.Principal{UserID: user.ID, Role: user.Role}, nil
}

func (s *AuthService) issue(user *model.User) (*Session, error) {
	token, exp, err := s.tokens.Issue(auth.Principal{UserID: user.ID, Role: user.Role})
	if err != nil {
		return nil, apperr.Internal("issue token", err)
	}
	return &Session{Token: token, ExpiresAt: exp, User: user}, nil
}
