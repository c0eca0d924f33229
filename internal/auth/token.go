// Package auth issues and verifies bearer tokens and decides what a caller
// may do.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"linkmart/internal/config"
	"linkmart/internal/model"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Principal is the authenticated caller.
type Principal struct {
	UserID int64      `json:"user_id"`
	Role   model.Role `json:"role"`
}

func (p Principal) IsAdmin() bool {
	return p.Role == model.RoleAdmin
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs HS256 tokens carrying the subject id and role.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewTokenIssuer(cfg *config.JWTConfig) (*TokenIssuer, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &TokenIssuer{
		secret: []byte(cfg.Secret),
		ttl:    ttl,
		issuer: cfg.Issuer,
		now:    time.Now,
	}, nil
}

func (t *TokenIssuer) Issue(p Principal) (string, time.Time, error) {
	issuedAt := t.now()
	expiresAt := issuedAt.Add(t.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.UserID, 10),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (t *TokenIssuer) Parse(raw string) (Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	parsed, err := jwt.ParseWithClaims(raw, &claims{}, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return Principal{}, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return Principal{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	role := model.Role(c.Role)
	if !role.Valid() {
		return Principal{}, fmt.Errorf("%w: bad role", ErrInvalidToken)
	}
	return Principal{UserID: userID, Role: role}, nil
}
