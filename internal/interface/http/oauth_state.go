package http

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/smart-irrigation/internal/domain/auth"
)

const (
	oauthStateCookieName = "irrigation_oauth_state"
	oauthStateCookiePath = "/api/v1/auth/google"
	oauthStateTTL        = 5 * time.Minute
)

type pkceCookie struct {
	State    string `json:"s"`
	Verifier string `json:"v"`
}

// setOAuthStateCookie keeps the PKCE verifier on the browser between login and callback.
func setOAuthStateCookie(c *gin.Context, pkce auth.OAuthState) {
	data, _ := json.Marshal(pkceCookie{State: pkce.State, Verifier: pkce.CodeVerifier})
	writeOAuthStateCookie(c, base64.RawURLEncoding.EncodeToString(data), int(oauthStateTTL.Seconds()))
}

// consumeOAuthState clears the cookie and returns the verifier when state matches.
func consumeOAuthState(c *gin.Context, state string) (string, bool) {
	value, err := c.Cookie(oauthStateCookieName)
	writeOAuthStateCookie(c, "", -1)
	if err != nil || value == "" || state == "" {
		return "", false
	}
	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return "", false
	}
	var stored pkceCookie
	if err := json.Unmarshal(data, &stored); err != nil || stored.Verifier == "" {
		return "", false
	}
	if subtle.ConstantTimeCompare([]byte(stored.State), []byte(state)) != 1 {
		return "", false
	}
	return stored.Verifier, true
}

func writeOAuthStateCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookieName, value, maxAge, oauthStateCookiePath, "", behindTLS(c), true)
}

// behindTLS also trusts a proxy's X-Forwarded-Proto.
func behindTLS(c *gin.Context) bool {
	return c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https")
}
