package sesame

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
)

// stubReply is a canned transport result.
type stubReply struct {
	status int
	body   string
	err    error
}

// stubTransport answers requests from a route table and records every call.
type stubTransport struct {
	mu       sync.Mutex
	routes   map[string]stubReply // "METHOD /path"
	requests []*Request
}

func newStubTransport() *stubTransport {
	return &stubTransport{routes: make(map[string]stubReply)}
}

func (s *stubTransport) on(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[method+" "+path] = stubReply{status: status, body: body}
}

func (s *stubTransport) fail(method, path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[method+" "+path] = stubReply{err: err}
}

func (s *stubTransport) Do(_ context.Context, req *Request) (*Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, req)
	path := strings.TrimPrefix(req.URL, testBaseURL)
	reply, ok := s.routes[req.Method+" "+path]
	if !ok {
		return &Response{StatusCode: http.StatusNotFound, Body: []byte(`{"message":"no route"}`)}, nil
	}
	if reply.err != nil {
		return nil, reply.err
	}
	return &Response{StatusCode: reply.status, Body: []byte(reply.body)}, nil
}

func (s *stubTransport) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *stubTransport) last() *Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	return s.requests[len(s.requests)-1]
}

const testBaseURL = "https://sesame.test/v1"

var errConnRefused = errors.New("dial tcp: connection refused")

// newTestClient returns a Client wired to a fresh stub transport.
func newTestClient(t *testing.T) (*Client, *stubTransport) {
	t.Helper()
	stub := newStubTransport()
	return NewClient(WithTransport(stub), WithBaseURL(testBaseURL)), stub
}

// loggedInClient returns a Client already holding token "T".
func loggedInClient(t *testing.T) (*Client, *stubTransport) {
	t.Helper()
	client, stub := newTestClient(t)
	stub.on(http.MethodPost, "/accounts/login", http.StatusOK, `{"authorization":"T"}`)
	if err := client.Login(context.Background(), "user@example.com", "secret"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	return client, stub
}
