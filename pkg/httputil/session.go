package httputil

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/matzehuels/reqsolve/pkg/errors"
)

// DefaultTimeout is the per-request timeout applied to session requests.
const DefaultTimeout = 30 * time.Second

// Session is the single network identity for one resolution run.
//
// Every index query and artifact download of a run goes through the same
// Session so that connection pooling, the User-Agent header, and any extra
// identity headers are shared. A Session is owned by exactly one run and
// must be closed when the run ends.
type Session struct {
	client  *http.Client
	headers map[string]string
}

// NewSession creates a session identifying itself as reqsolve/version.
// Extra headers (e.g. index auth) are applied to every request.
func NewSession(version string, headers map[string]string) *Session {
	h := map[string]string{
		"User-Agent": fmt.Sprintf("reqsolve/%s", version),
		"Accept":     "application/json",
	}
	for k, v := range headers {
		h[k] = v
	}
	return &Session{
		client:  &http.Client{Timeout: DefaultTimeout},
		headers: h,
	}
}

// Do executes req with the session's headers applied.
// Transient failures are wrapped in [RetryableError] so callers can use
// [Retry] or [RetryWithBackoff] around this call.
func (s *Session) Do(req *http.Request) (*http.Response, error) {
	for k, v := range s.headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "request %s", req.URL)}
	}
	return resp, nil
}

// Get fetches url and returns the response body reader.
// The caller owns the reader and must close it. Status handling:
//   - 200: body returned
//   - 404: errors.ErrCodeNotFound
//   - 5xx: retryable network error
//   - other: network error
func (s *Session) Get(req *http.Request) (io.ReadCloser, error) {
	resp, err := s.Do(req)
	if err != nil {
		return nil, err
	}
	if err := CheckStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

// CheckStatus maps an HTTP status code to the session error taxonomy.
func CheckStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "status 404")
	case code >= 500:
		return &RetryableError{Err: errors.New(errors.ErrCodeNetwork, "status %d", code)}
	default:
		return errors.New(errors.ErrCodeNetwork, "status %d", code)
	}
}

// Close releases idle connections held by the session.
func (s *Session) Close() {
	s.client.CloseIdleConnections()
}
