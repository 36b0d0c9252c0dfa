package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/smart-irrigation/internal/domain/auth"
	apperrors "github.com/yanqian/smart-irrigation/pkg/errors"
)

// farmerKey holds the verified access token claims on the gin context.
const farmerKey = "irrigation.farmer"

var (
	errMissingBearer   = errors.New("missing authorization header")
	errMalformedBearer = errors.New("authorization header must be a bearer token")
)

// authMiddleware admits requests carrying a valid farmer access token.
func authMiddleware(svc auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abortWith(c, newAPIError(http.StatusUnauthorized, "unauthorized", err.Error(), nil))
			return
		}
		claims, err := svc.ValidateToken(c.Request.Context(), token)
		switch {
		case err == nil:
			c.Set(farmerKey, claims)
			c.Next()
		case apperrors.IsCode(err, "invalid_token"):
			abortWith(c, newAPIError(http.StatusForbidden, "invalid_token", errMessage(err), err))
		default:
			abortWith(c, newAPIError(http.StatusInternalServerError, "auth_failed", "token validation failed", err))
		}
	}
}

func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errMissingBearer
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", errMalformedBearer
	}
	return token, nil
}

// farmerClaims returns the claims set by authMiddleware.
func farmerClaims(c *gin.Context) (auth.Claims, bool) {
	v, ok := c.Get(farmerKey)
	if !ok {
		return auth.Claims{}, false
	}
	claims, ok := v.(auth.Claims)
	return claims, ok
}
