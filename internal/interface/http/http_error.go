package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yanqian/smart-irrigation/pkg/errors"
)

// apiError is the transport form of a failure: a status plus the code and message
// written in the JSON envelope.
type apiError struct {
	status  int
	code    string
	message string
	cause   error
}

func newAPIError(status int, code, message string, cause error) *apiError {
	return &apiError{status: status, code: code, message: message, cause: cause}
}

func (e *apiError) Error() string {
	if e.cause != nil {
		return e.cause.Error()
	}
	return e.message
}

func (e *apiError) Unwrap() error { return e.cause }

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func envelope(e *apiError) errorEnvelope {
	var out errorEnvelope
	out.Error.Code = e.code
	out.Error.Message = e.message
	if out.Error.Message == "" {
		out.Error.Message = e.Error()
	}
	return out
}

// statusByCode lists domain error codes that surface with their own code and status.
var statusByCode = map[string]int{
	"unauthorized":             http.StatusUnauthorized,
	"invalid_credentials":      http.StatusUnauthorized,
	"invalid_token":            http.StatusForbidden,
	"not_found":                http.StatusNotFound,
	"user_not_found":           http.StatusNotFound,
	"conflict":                 http.StatusConflict,
	"email_exists":             http.StatusConflict,
	"account_linking_disabled": http.StatusConflict,
	"invalid_record":           http.StatusUnprocessableEntity,
	"export_disabled":          http.StatusServiceUnavailable,
	"auth_not_configured":      http.StatusServiceUnavailable,
	"llm_error":                http.StatusBadGateway,
	"upstream_error":           http.StatusBadGateway,
	"oauth_exchange_failed":    http.StatusBadGateway,
}

// fromDomain maps err onto an apiError. Unknown codes are reported as fallback with 500.
func fromDomain(err error, fallback string) *apiError {
	code := apperrors.CodeOf(err)
	switch code {
	case "invalid_input", "invalid_request":
		return newAPIError(http.StatusBadRequest, "invalid_request", errMessage(err), err)
	}
	if status, ok := statusByCode[code]; ok {
		return newAPIError(status, code, errMessage(err), err)
	}
	return newAPIError(http.StatusInternalServerError, fallback, errMessage(err), err)
}

func toAPIError(err error) *apiError {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "something went wrong", err)
}

// abortWith records err for errorHandlingMiddleware and stops the chain.
func abortWith(c *gin.Context, err *apiError) {
	_ = c.Error(err)
	c.Abort()
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
