package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/yanqian/smart-irrigation/pkg/errors"
)

const (
	tokenIssuerName  = "smart-irrigation"
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type tokenClaims struct {
	jwt.RegisteredClaims
	UserID    int64  `json:"userId"`
	Email     string `json:"email"`
	TokenType string `json:"type"`
}

// tokenIssuer signs and verifies the HS256 access/refresh pair.
type tokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func newTokenIssuer(cfg Config, now func() time.Time) *tokenIssuer {
	return &tokenIssuer{
		secret:     []byte(cfg.Secret),
		accessTTL:  cfg.TokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		now:        now,
	}
}

func (t *tokenIssuer) issuePair(user User) (LoginResponse, error) {
	access, err := t.sign(user, tokenTypeAccess, t.accessTTL)
	if err != nil {
		return LoginResponse{}, err
	}
	refresh, err := t.sign(user, tokenTypeRefresh, t.refreshTTL)
	if err != nil {
		return LoginResponse{}, err
	}
	return LoginResponse{Token: access, RefreshToken: refresh, User: toView(user)}, nil
}

func (t *tokenIssuer) sign(user User, tokenType string, ttl time.Duration) (string, error) {
	issuedAt := t.now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuerName,
			Subject:   strconv.FormatInt(user.ID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
		UserID:    user.ID,
		Email:     user.Email,
		TokenType: tokenType,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", apperrors.Wrap("auth_error", "failed to sign token", err)
	}
	return signed, nil
}

// verify parses raw and requires the given token type.
func (t *tokenIssuer) verify(raw, tokenType string) (Claims, error) {
	if raw == "" {
		return Claims{}, apperrors.Wrap("invalid_token", "token missing", nil)
	}
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuerName),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Claims{}, apperrors.Wrap("invalid_token", "token expired", err)
	case err != nil:
		return Claims{}, apperrors.Wrap("invalid_token", "token validation failed", err)
	case claims.TokenType != tokenType:
		return Claims{}, apperrors.Wrap("invalid_token", "token type mismatch", nil)
	case claims.UserID == 0:
		return Claims{}, apperrors.Wrap("invalid_token", "token has no user", nil)
	}
	return Claims{
		UserID:    claims.UserID,
		Email:     claims.Email,
		TokenType: claims.TokenType,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}, nil
}
