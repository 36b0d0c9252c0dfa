package http

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/smart-irrigation/internal/infra/config"
)

const (
	retryAttemptsHeader = "X-Retry-Attempts"
	retryBodyLimit      = 1 << 20
	maxRetryBackoff     = 5 * time.Second
)

var errBodyTooLarge = errors.New("request body exceeds retry limit")

// retrier replays POST requests whose handler answered with a transient 5xx.
type retrier struct {
	next    http.Handler
	cfg     config.RetryConfig
	exclude []string
	logger  *slog.Logger
}

// withRetry wraps handler unless retries are disabled. Paths under an excluded prefix
// create resources or have side effects and are never replayed.
func withRetry(handler http.Handler, cfg config.RetryConfig, logger *slog.Logger) http.Handler {
	if !cfg.Enabled || cfg.MaxAttempts <= 1 {
		return handler
	}
	exclude := make([]string, 0, len(cfg.Exclude))
	for _, p := range cfg.Exclude {
		if p = strings.TrimSpace(p); p != "" {
			exclude = append(exclude, p)
		}
	}
	return &retrier{next: handler, cfg: cfg, exclude: exclude, logger: logger.With("component", "http.retry")}
}

func (rt *retrier) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || rt.excluded(r.URL.Path) {
		rt.next.ServeHTTP(w, r)
		return
	}
	body, err := bufferBody(r)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		http.Error(w, err.Error(), status)
		return
	}

	ctx := r.Context()
	for attempt := 1; ; attempt++ {
		resp := newBufferedResponse()
		attemptReq := r.Clone(ctx)
		attemptReq.Body = io.NopCloser(bytes.NewReader(body))
		attemptReq.ContentLength = int64(len(body))
		rt.next.ServeHTTP(resp, attemptReq)

		if !transientStatus(resp.status) || attempt >= rt.cfg.MaxAttempts || ctx.Err() != nil {
			if attempt > 1 {
				resp.header.Set(retryAttemptsHeader, strconv.Itoa(attempt))
			}
			resp.flushTo(w)
			return
		}
		rt.logger.Warn("transient failure, retrying request", "path", r.URL.Path, "status", resp.status, "attempt", attempt)

		timer := time.NewTimer(rt.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			resp.flushTo(w)
			return
		case <-timer.C:
		}
	}
}

func (rt *retrier) excluded(path string) bool {
	for _, prefix := range rt.exclude {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// backoff doubles the base delay after every failed attempt.
func (rt *retrier) backoff(attempt int) time.Duration {
	d := rt.cfg.BaseBackoff << (attempt - 1)
	if d <= 0 || d > maxRetryBackoff {
		return maxRetryBackoff
	}
	return d
}

func transientStatus(status int) bool {
	switch status {
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func bufferBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, retryBodyLimit+1))
	if err != nil {
		return nil, err
	}
	if len(data) > retryBodyLimit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

// bufferedResponse holds one attempt's response until it is known to be final.
type bufferedResponse struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{header: make(http.Header)}
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

// Flush is a no-op; gin calls it on streaming writers.
func (b *bufferedResponse) Flush() {}

func (b *bufferedResponse) flushTo(w http.ResponseWriter) {
	dst := w.Header()
	for k, v := range b.header {
		dst[k] = append([]string(nil), v...)
	}
	if b.status == 0 {
		b.status = http.StatusOK
	}
	w.WriteHeader(b.status)
	_, _ = w.Write(b.body.Bytes())
}
