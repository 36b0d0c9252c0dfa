package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	apperrors "github.com/yanqian/smart-irrigation/pkg/errors"
)

const (
	googleProvider  = "google"
	googleIssuer    = "https://accounts.google.com"
	googleRevokeURL = "https://oauth2.googleapis.com/revoke"
	revokeTimeout   = 10 * time.Second
	// Name shown for Google accounts that expose nothing usable.
	fallbackFarmerName = "Farmer"
)

type googleClaims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
}

// googleGrant is what a successful code exchange yields.
type googleGrant struct {
	claims       googleClaims
	refreshToken string
}

func (s *service) GoogleAuthURL(_ context.Context, state, codeChallenge string) (string, error) {
	cfg, err := s.googleOAuthConfig()
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	), nil
}

func (s *service) GoogleCallback(ctx context.Context, code, codeVerifier string) (LoginResponse, error) {
	grant, err := s.exchangeGoogleCode(ctx, code, codeVerifier)
	if err != nil {
		return LoginResponse{}, err
	}
	user, err := s.resolveGoogleUser(ctx, grant)
	if err != nil {
		return LoginResponse{}, err
	}
	return s.buildLoginResponse(user)
}

func (s *service) exchangeGoogleCode(ctx context.Context, code, codeVerifier string) (googleGrant, error) {
	cfg, err := s.googleOAuthConfig()
	if err != nil {
		return googleGrant{}, err
	}
	if strings.TrimSpace(code) == "" || strings.TrimSpace(codeVerifier) == "" {
		return googleGrant{}, apperrors.Wrap("invalid_request", "missing oauth code or verifier", nil)
	}
	token, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		return googleGrant{}, apperrors.Wrap("oauth_exchange_failed", "failed to exchange oauth code", err)
	}
	rawIDToken, _ := token.Extra("id_token").(string)
	if rawIDToken == "" {
		return googleGrant{}, apperrors.Wrap("oauth_exchange_failed", "missing id_token in oauth response", nil)
	}
	claims, err := s.verifyGoogleIDToken(ctx, rawIDToken)
	if err != nil {
		return googleGrant{}, err
	}
	switch {
	case claims.Subject == "":
		return googleGrant{}, apperrors.Wrap("auth_error", "missing google subject", nil)
	case !claims.EmailVerified:
		return googleGrant{}, apperrors.Wrap("invalid_credentials", "google account email not verified", nil)
	}
	return googleGrant{claims: claims, refreshToken: token.RefreshToken}, nil
}

// resolveGoogleUser signs in a linked account or provisions a new farmer. Accounts that
// already exist under the same email are not linked automatically.
func (s *service) resolveGoogleUser(ctx context.Context, grant googleGrant) (User, error) {
	identity, linked, err := s.repo.GetIdentity(ctx, googleProvider, grant.claims.Subject)
	if err != nil {
		return User{}, apperrors.Wrap("auth_error", "failed to fetch identity", err)
	}
	if linked {
		user, ok, err := s.repo.GetByID(ctx, identity.UserID)
		if err != nil {
			return User{}, apperrors.Wrap("auth_error", "failed to load user", err)
		}
		if !ok {
			return User{}, apperrors.Wrap("user_not_found", "user not found", nil)
		}
		// Google only returns a refresh token on consent, keep the stored one otherwise.
		if grant.refreshToken != "" {
			if err := s.saveGoogleIdentity(ctx, user.ID, grant); err != nil {
				return User{}, err
			}
		}
		return user, nil
	}

	email, err := normalizeEmail(grant.claims.Email)
	if err != nil {
		return User{}, apperrors.Wrap("invalid_input", "invalid email address", err)
	}
	if _, exists, err := s.repo.GetByEmail(ctx, email); err != nil {
		return User{}, apperrors.Wrap("auth_error", "failed to check existing user", err)
	} else if exists {
		return User{}, apperrors.Wrap("account_linking_disabled", "account linking by email is not enabled", nil)
	}
	user, err := s.provisionGoogleUser(ctx, email, googleDisplayName(grant.claims))
	if err != nil {
		return User{}, err
	}
	if err := s.saveGoogleIdentity(ctx, user.ID, grant); err != nil {
		return User{}, err
	}
	s.logger.Info("google farmer provisioned", "user_id", user.ID)
	return user, nil
}

// provisionGoogleUser stores an unusable random password so the account is Google-only
// until the farmer sets one.
func (s *service) provisionGoogleUser(ctx context.Context, email, name string) (User, error) {
	secret, err := randomToken(pkceEntropyBytes)
	if err != nil {
		return User{}, apperrors.Wrap("auth_error", "failed to generate password", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return User{}, apperrors.Wrap("auth_error", "failed to hash password", err)
	}
	user, err := s.repo.Create(ctx, NewUser{Email: email, Name: name, PasswordHash: string(hash)})
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return User{}, apperrors.Wrap("email_exists", "email already registered", err)
		}
		return User{}, apperrors.Wrap("auth_error", "failed to create user", err)
	}
	return user, nil
}

func (s *service) saveGoogleIdentity(ctx context.Context, userID int64, grant googleGrant) error {
	sealer, err := newRefreshSealer(s.cfg.Google.TokenEncryptionKey)
	if err != nil {
		return apperrors.Wrap("auth_not_configured", "invalid google token encryption key", err)
	}
	sealed, err := sealer.seal(grant.refreshToken)
	if err != nil {
		return apperrors.Wrap("auth_error", "failed to encrypt refresh token", err)
	}
	if _, err := s.repo.UpsertIdentity(ctx, Identity{
		UserID:          userID,
		Provider:        googleProvider,
		ProviderSubject: grant.claims.Subject,
		ProviderEmail:   grant.claims.Email,
		RefreshToken:    sealed,
	}); err != nil {
		return apperrors.Wrap("auth_error", "failed to persist identity", err)
	}
	return nil
}

// Logout revokes the stored Google grant. Revocation problems are logged, never returned.
func (s *service) Logout(ctx context.Context, userID int64) error {
	identity, found, err := s.repo.GetIdentityByUser(ctx, userID, googleProvider)
	if err != nil {
		return apperrors.Wrap("auth_error", "failed to fetch identity", err)
	}
	if !found || identity.RefreshToken == "" {
		return nil
	}
	sealer, err := newRefreshSealer(s.cfg.Google.TokenEncryptionKey)
	if err != nil {
		s.logger.Warn("google token key unavailable, skipping revoke", "user_id", userID, "error", err)
		return nil
	}
	refreshToken, err := sealer.open(identity.RefreshToken)
	if err != nil || refreshToken == "" {
		s.logger.Warn("stored google refresh token unreadable", "user_id", userID, "error", err)
		return nil
	}
	if err := revokeGoogleToken(ctx, refreshToken); err != nil {
		s.logger.Warn("google token revoke failed", "user_id", userID, "error", err)
	}
	return nil
}

func (s *service) googleOAuthConfig() (*oauth2.Config, error) {
	g := s.cfg.Google
	for _, v := range []string{g.ClientID, g.ClientSecret, g.RedirectURL} {
		if strings.TrimSpace(v) == "" {
			return nil, apperrors.Wrap("auth_not_configured", "google oauth is not configured", nil)
		}
	}
	if strings.TrimSpace(g.TokenEncryptionKey) == "" {
		return nil, apperrors.Wrap("auth_not_configured", "google token encryption key is missing", nil)
	}
	return &oauth2.Config{
		ClientID:     g.ClientID,
		ClientSecret: g.ClientSecret,
		RedirectURL:  g.RedirectURL,
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		Endpoint:     google.Endpoint,
	}, nil
}

// googleVerifier performs provider discovery once and reuses the verifier.
func (s *service) googleVerifier(ctx context.Context) (*oidc.IDTokenVerifier, error) {
	s.verifierMu.Lock()
	defer s.verifierMu.Unlock()
	if s.verifier != nil {
		return s.verifier, nil
	}
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, err
	}
	s.verifier = provider.Verifier(&oidc.Config{ClientID: s.cfg.Google.ClientID})
	return s.verifier, nil
}

func (s *service) verifyGoogleIDToken(ctx context.Context, rawToken string) (googleClaims, error) {
	verifier, err := s.googleVerifier(ctx)
	if err != nil {
		return googleClaims{}, apperrors.Wrap("auth_error", "failed to initialize oidc provider", err)
	}
	idToken, err := verifier.Verify(ctx, rawToken)
	if err != nil {
		return googleClaims{}, apperrors.Wrap("invalid_token", "failed to verify id token", err)
	}
	var claims googleClaims
	if err := idToken.Claims(&claims); err != nil {
		return googleClaims{}, apperrors.Wrap("invalid_token", "failed to parse id token claims", err)
	}
	if claims.Email == "" {
		return googleClaims{}, apperrors.Wrap("invalid_token", "missing email in id token", nil)
	}
	return claims, nil
}

// googleDisplayName prefers the full name, then the given name, then the email local part.
func googleDisplayName(claims googleClaims) string {
	local, _, _ := strings.Cut(claims.Email, "@")
	for _, candidate := range []string{claims.Name, claims.GivenName, local} {
		if name, err := normalizeName(candidate); err == nil {
			return name
		}
		collapsed := []rune(strings.Join(strings.Fields(candidate), " "))
		if len(collapsed) > maxNameLength {
			return string(collapsed[:maxNameLength])
		}
	}
	return fallbackFarmerName
}

func revokeGoogleToken(ctx context.Context, refreshToken string) error {
	ctx, cancel := context.WithTimeout(ctx, revokeTimeout)
	defer cancel()
	form := url.Values{"token": {refreshToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, googleRevokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("google revoke returned status %d", resp.StatusCode)
	}
	return nil
}
