package sesame

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
)

// API paths relative to the base URL.
const (
	loginPath   = "/accounts/login"
	sesamesPath = "/sesames"

	// authHeader is the vendor-specific authorization header.
	authHeader = "X-Authorization"
)

// Session owns the transport and the authentication token shared by a Client
// and every Device created from it.
//
// Token reads take a shared hold. Login and every request take an exclusive
// hold for the full round trip, so requests from one Session never overlap.
type Session struct {
	mu       sync.RWMutex
	token    string
	hasToken bool

	transport Transport
	baseURL   string
	logger    *slog.Logger
}

// NewSession creates a Session with no token.
//
// Parameters:
//   - transport: Executes HTTP requests
//   - baseURL: API root without a trailing slash (e.g. DefaultBaseURL)
//   - logger: Debug logger; nil disables logging
func NewSession(transport Transport, baseURL string, logger *slog.Logger) *Session {
	if transport == nil {
		transport = NewHTTPTransport(nil)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{
		transport: transport,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
	}
}

// Token returns the current authentication token, or ErrNotAuthenticated.
func (s *Session) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.hasToken {
		return "", ErrNotAuthenticated
	}
	return s.token, nil
}

// IsLoggedIn reports whether a token is held.
func (s *Session) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasToken
}

// BaseURL returns the API root this Session sends requests to.
func (s *Session) BaseURL() string {
	return s.baseURL
}

// Request sends an unauthenticated request under exclusive access.
//
// Parameters:
//   - ctx: Context for cancellation and deadlines
//   - method: HTTP method
//   - path: Path relative to the base URL (e.g. "/sesames")
//   - header: Extra headers, may be nil
//   - body: Request body, nil for none
//
// Returns:
//   - *Response: Status and body for any HTTP status
//   - error: Wraps ErrTransport when the round trip fails
func (s *Session) Request(ctx context.Context, method, path string, header http.Header, body []byte) (*Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.send(ctx, method, path, header, body)
}

// Login exchanges credentials for a token and stores it.
//
// On a non-200 status the server message is returned as a *RemoteError and the
// previously held token, if any, is kept.
func (s *Session) Login(ctx context.Context, email, password string) error {
	payload, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return fmt.Errorf("encoding login request: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	resp, err := s.send(ctx, http.MethodPost, loginPath, nil, payload)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return decodeRemoteError(resp.StatusCode, resp.Body)
	}

	token, err := decodeAuthToken(resp.Body)
	if err != nil {
		return err
	}

	s.token = token
	s.hasToken = true
	s.logger.Debug("sesame login succeeded")
	return nil
}

// AuthorizedRequest sends a request carrying the stored token.
//
// The logged-in check runs under a shared hold and fails with
// ErrNotAuthenticated without touching the transport. The token is re-read
// once exclusive access is held, so a concurrent Login is never observed
// half-way.
func (s *Session) AuthorizedRequest(ctx context.Context, method, path string, body []byte) (*Response, error) {
	if !s.IsLoggedIn() {
		return nil, ErrNotAuthenticated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasToken {
		return nil, ErrNotAuthenticated
	}

	header := http.Header{}
	header.Set(authHeader, s.token)
	return s.send(ctx, method, path, header, body)
}

// send performs one round trip. Caller must hold s.mu exclusively.
func (s *Session) send(ctx context.Context, method, path string, header http.Header, body []byte) (*Response, error) {
	h := header.Clone()
	if h == nil {
		h = http.Header{}
	}
	if body != nil {
		h.Set("Content-Type", "application/json")
	}
	h.Set("Accept", "application/json")

	resp, err := s.transport.Do(ctx, &Request{
		Method: method,
		URL:    s.baseURL + path,
		Header: h,
		Body:   body,
	})
	if err != nil {
		s.logger.Debug("sesame request failed", "method", method, "path", path, "error", err)
		return nil, wrapTransport(err)
	}

	s.logger.Debug("sesame request", "method", method, "path", path, "status", resp.StatusCode)
	return resp, nil
}

// wrapTransport makes sure errors from custom transports still match ErrTransport.
func wrapTransport(err error) error {
	if errors.Is(err, ErrTransport) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}
