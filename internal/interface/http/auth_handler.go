package http

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/smart-irrigation/internal/domain/auth"
)

// Signup creates an account and signs the user in.
func (h *Handler) Signup(c *gin.Context) {
	var req auth.SignupRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.authSvc.Signup(c.Request.Context(), req)
	if err != nil {
		fail(c, err, "signup_failed")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Login exchanges credentials for tokens.
func (h *Handler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.authSvc.Login(c.Request.Context(), req)
	if err != nil {
		fail(c, err, "login_failed")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Refresh issues a new token pair from a refresh token.
func (h *Handler) Refresh(c *gin.Context) {
	var req auth.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		fail(c, err, "refresh_failed")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GoogleLogin redirects the browser to Google's consent screen.
func (h *Handler) GoogleLogin(c *gin.Context) {
	pkce, err := auth.NewOAuthState()
	if err != nil {
		fail(c, err, "oauth_failed")
		return
	}
	target, err := h.authSvc.GoogleAuthURL(c.Request.Context(), pkce.State, pkce.CodeChallenge)
	if err != nil {
		fail(c, err, "oauth_failed")
		return
	}
	setOAuthStateCookie(c, pkce)
	c.Redirect(http.StatusFound, target)
}

// GoogleCallback completes the PKCE flow and hands tokens to the SPA.
func (h *Handler) GoogleCallback(c *gin.Context) {
	verifier, ok := consumeOAuthState(c, c.Query("state"))
	if !ok {
		abortWith(c, newAPIError(http.StatusBadRequest, "invalid_state", "oauth state mismatch", nil))
		return
	}
	resp, err := h.authSvc.GoogleCallback(c.Request.Context(), c.Query("code"), verifier)
	if err != nil {
		fail(c, err, "oauth_failed")
		return
	}
	redirect := strings.TrimSpace(h.authCfg.Google.PostLoginRedirectURL)
	if redirect == "" {
		c.JSON(http.StatusOK, resp)
		return
	}
	fragment := url.Values{}
	fragment.Set("token", resp.Token)
	fragment.Set("refreshToken", resp.RefreshToken)
	c.Redirect(http.StatusFound, redirect+"#"+fragment.Encode())
}

// Me returns the signed-in user's profile.
func (h *Handler) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	view, err := h.authSvc.Profile(c.Request.Context(), userID)
	if err != nil {
		fail(c, err, "profile_failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": view})
}

// UpdateProfile edits name, farm and location.
func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req auth.Profile
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.authSvc.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		fail(c, err, "profile_failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "user": view})
}

// ChangePassword verifies the current password and stores a new one.
func (h *Handler) ChangePassword(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req auth.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.authSvc.ChangePassword(c.Request.Context(), userID, req); err != nil {
		fail(c, err, "password_change_failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// Logout revokes linked provider tokens.
func (h *Handler) Logout(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.authSvc.Logout(c.Request.Context(), userID); err != nil {
		fail(c, err, "logout_failed")
		return
	}
	c.Status(http.StatusNoContent)
}
