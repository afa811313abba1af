package sesame

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Transport defaults.
const (
	// defaultTimeout bounds one request/response round trip.
	defaultTimeout = 10 * time.Second

	// maxResponseSize caps how much of a response body is read (1MB).
	maxResponseSize = 1 << 20
)

// Request is a single HTTP request handed to a Transport.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is the status and fully read body of an HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport executes HTTP requests for a Session.
//
// Implementations return an error only for failures below HTTP (connection,
// TLS, timeout). Any HTTP status, including 4xx/5xx, is a successful round trip.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// HTTPTransport is the net/http backed Transport.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates a Transport using the given http.Client.
//
// A nil client gets a fresh one with a 10 second timeout; a client without a
// timeout gets the same default.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if client.Timeout == 0 {
		client.Timeout = defaultTimeout
	}
	return &HTTPTransport{client: client}
}

// Do performs the request and reads the whole response body.
//
// Parameters:
//   - ctx: Context for cancellation and deadlines
//   - req: Request to send
//
// Returns:
//   - *Response: Status code and body for any HTTP status
//   - error: Wraps ErrTransport on network, TLS or read failure
func (t *HTTPTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %w", ErrTransport, err)
	}
	for name, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrTransport, err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}
