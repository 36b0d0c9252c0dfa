package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/yanqian/smart-irrigation/pkg/errors"
	"github.com/yanqian/smart-irrigation/pkg/util"
)

// Service exposes authentication workflows.
type Service interface {
	Signup(ctx context.Context, req SignupRequest) (LoginResponse, error)
	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)
	GoogleAuthURL(ctx context.Context, state, codeChallenge string) (string, error)
	GoogleCallback(ctx context.Context, code, codeVerifier string) (LoginResponse, error)
	ValidateToken(ctx context.Context, token string) (Claims, error)
	Refresh(ctx context.Context, refreshToken string) (LoginResponse, error)
	Profile(ctx context.Context, userID int64) (UserView, error)
	UpdateProfile(ctx context.Context, userID int64, p Profile) (UserView, error)
	ChangePassword(ctx context.Context, userID int64, req ChangePasswordRequest) error
	Logout(ctx context.Context, userID int64) error
}

type service struct {
	cfg    Config
	repo   Repository
	tokens *tokenIssuer
	logger *slog.Logger
	now    func() time.Time

	// Google ID token verifier, discovered on first use.
	verifierMu sync.Mutex
	verifier   *oidc.IDTokenVerifier
}

const (
	minPasswordLength = 6
	maxNameLength     = 50
	maxProfileField   = 100
)

// NewService wires the account workflows.
func NewService(cfg Config, repo Repository, logger *slog.Logger) Service {
	return &service{
		cfg:    cfg,
		repo:   repo,
		tokens: newTokenIssuer(cfg, util.NowUTC),
		logger: logger.With("component", "auth.service"),
		now:    util.NowUTC,
	}
}

func (s *service) Signup(ctx context.Context, req SignupRequest) (LoginResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap("invalid_input", "invalid email address", err)
	}
	name, err := normalizeName(req.Name)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap("invalid_input", err.Error(), nil)
	}
	if err := validatePassword(req.Password); err != nil {
		return LoginResponse{}, apperrors.Wrap("invalid_input", err.Error(), nil)
	}
	if _, exists, err := s.repo.GetByEmail(ctx, email); err != nil {
		return LoginResponse{}, apperrors.Wrap("auth_error", "failed to check user", err)
	} else if exists {
		return LoginResponse{}, apperrors.Wrap("email_exists", "email already registered", nil)
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		return LoginResponse{}, err
	}
	user, err := s.repo.Create(ctx, NewUser{Email: email, Name: name, PasswordHash: hash})
	switch {
	case errors.Is(err, ErrEmailExists):
		// Lost a race with a concurrent signup.
		return LoginResponse{}, apperrors.Wrap("email_exists", "email already registered", err)
	case err != nil:
		return LoginResponse{}, apperrors.Wrap("auth_error", "failed to create user", err)
	}
	s.logger.Info("farmer signed up", "user_id", user.ID)
	return s.session(user, "Signup successful")
}

func (s *service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap("invalid_input", "invalid email address", err)
	}
	if strings.TrimSpace(req.Password) == "" {
		return LoginResponse{}, apperrors.Wrap("invalid_input", "password cannot be empty", nil)
	}
	user, found, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap("auth_error", "failed to fetch user", err)
	}
	// Unknown email and wrong password look the same to the caller.
	if !found || !passwordMatches(user.PasswordHash, req.Password) {
		return LoginResponse{}, apperrors.Wrap("invalid_credentials", "invalid email or password", nil)
	}
	return s.session(user, "Login successful")
}

func (s *service) ValidateToken(_ context.Context, token string) (Claims, error) {
	return s.tokens.verify(strings.TrimSpace(token), tokenTypeAccess)
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (LoginResponse, error) {
	claims, err := s.tokens.verify(strings.TrimSpace(refreshToken), tokenTypeRefresh)
	if err != nil {
		return LoginResponse{}, err
	}
	user, err := s.loadUser(ctx, claims.UserID)
	if err != nil {
		return LoginResponse{}, err
	}
	return s.session(user, "")
}

func (s *service) Profile(ctx context.Context, userID int64) (UserView, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return UserView{}, err
	}
	return toView(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID int64, p Profile) (UserView, error) {
	name, err := normalizeName(p.Name)
	if err != nil {
		return UserView{}, apperrors.Wrap("invalid_input", err.Error(), nil)
	}
	p = Profile{Name: name, FarmName: strings.TrimSpace(p.FarmName), Location: strings.TrimSpace(p.Location)}
	if len([]rune(p.FarmName)) > maxProfileField || len([]rune(p.Location)) > maxProfileField {
		return UserView{}, apperrors.Wrap("invalid_input", fmt.Sprintf("farmName and location cannot exceed %d characters", maxProfileField), nil)
	}
	user, found, err := s.repo.UpdateProfile(ctx, userID, p, s.now())
	if err != nil {
		return UserView{}, apperrors.Wrap("auth_error", "failed to update profile", err)
	}
	if !found {
		return UserView{}, apperrors.Wrap("user_not_found", "user not found", nil)
	}
	return toView(user), nil
}

func (s *service) ChangePassword(ctx context.Context, userID int64, req ChangePasswordRequest) error {
	if strings.TrimSpace(req.CurrentPassword) == "" {
		return apperrors.Wrap("invalid_input", "current password cannot be empty", nil)
	}
	if err := validatePassword(req.NewPassword); err != nil {
		return apperrors.Wrap("invalid_input", err.Error(), nil)
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if !passwordMatches(user.PasswordHash, req.CurrentPassword) {
		return apperrors.Wrap("invalid_credentials", "current password is incorrect", nil)
	}
	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if _, err := s.repo.UpdatePassword(ctx, userID, hash, s.now()); err != nil {
		return apperrors.Wrap("auth_error", "failed to update password", err)
	}
	s.logger.Info("password changed", "user_id", userID)
	return nil
}

func (s *service) loadUser(ctx context.Context, userID int64) (User, error) {
	user, found, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return User{}, apperrors.Wrap("auth_error", "failed to load user", err)
	}
	if !found {
		return User{}, apperrors.Wrap("user_not_found", "user not found", nil)
	}
	return user, nil
}

func (s *service) session(user User, message string) (LoginResponse, error) {
	resp, err := s.tokens.issuePair(user)
	if err != nil {
		return LoginResponse{}, err
	}
	resp.Message = message
	return resp, nil
}

// buildLoginResponse issues tokens for a federated sign-in.
func (s *service) buildLoginResponse(user User) (LoginResponse, error) {
	return s.session(user, "")
}

func hashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", apperrors.Wrap("auth_error", "failed to hash password", err)
	}
	return string(hash), nil
}

func passwordMatches(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

func toView(user User) UserView {
	return UserView{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		FarmName:  user.FarmName,
		Location:  user.Location,
		CreatedAt: user.CreatedAt,
	}
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", errors.New("email cannot be empty")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return "", err
	}
	// Reject display-name forms such as "Farmer <a@b.co>".
	if addr.Address != email {
		return "", fmt.Errorf("unexpected address form %q", raw)
	}
	return email, nil
}

func normalizeName(raw string) (string, error) {
	name := strings.Join(strings.Fields(raw), " ")
	switch {
	case name == "":
		return "", errors.New("name cannot be empty")
	case len([]rune(name)) > maxNameLength:
		return "", fmt.Errorf("name cannot exceed %d characters", maxNameLength)
	}
	return name, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return nil
}
