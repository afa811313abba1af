package sesame

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the root of the Sesame cloud API.
const DefaultBaseURL = "https://api.candyhouse.co/v1"

// Client lists and looks up Sesame devices for one account.
type Client struct {
	session *Session
}

type clientOptions struct {
	transport  Transport
	httpClient *http.Client
	timeout    time.Duration
	baseURL    string
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*clientOptions)

// WithTransport sets the Transport used for all requests. It takes precedence
// over WithHTTPClient and WithTimeout.
func WithTransport(t Transport) Option {
	return func(o *clientOptions) { o.transport = t }
}

// WithHTTPClient sets the http.Client backing the default transport.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// WithTimeout sets the per-request timeout of the default transport.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

// WithBaseURL points the client at a different API root.
func WithBaseURL(u string) Option {
	return func(o *clientOptions) { o.baseURL = u }
}

// WithLogger sets the debug logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// NewClient creates a Client with a fresh, logged-out Session.
func NewClient(opts ...Option) *Client {
	o := clientOptions{baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(&o)
	}

	transport := o.transport
	if transport == nil {
		hc := o.httpClient
		if hc == nil {
			hc = &http.Client{}
		}
		if o.timeout > 0 {
			hc.Timeout = o.timeout
		}
		transport = NewHTTPTransport(hc)
	}

	return &Client{session: NewSession(transport, o.baseURL, o.logger)}
}

// Session returns the Session shared by this Client and its Devices.
func (c *Client) Session() *Session {
	return c.session
}

// IsLoggedIn reports whether the Session holds a token.
func (c *Client) IsLoggedIn() bool {
	return c.session.IsLoggedIn()
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) error {
	return c.session.Login(ctx, email, password)
}

// ListDevices returns every lock on the account.
//
// Devices are built fresh on each call and share the Client's Session.
func (c *Client) ListDevices(ctx context.Context) ([]*Device, error) {
	resp, err := c.session.AuthorizedRequest(ctx, http.MethodGet, sesamesPath, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeRemoteError(resp.StatusCode, resp.Body)
	}

	entries, err := decodeDeviceList(resp.Body)
	if err != nil {
		return nil, err
	}

	devices := make([]*Device, 0, len(entries))
	for _, e := range entries {
		devices = append(devices, NewDevice(c.session, State{
			DeviceID:   e.DeviceID,
			Nickname:   e.Nickname,
			IsUnlocked: *e.IsUnlocked,
			APIEnabled: e.APIEnabled,
			Battery:    e.Battery,
		}))
	}
	return devices, nil
}

// GetDevice fetches one lock by id.
func (c *Client) GetDevice(ctx context.Context, id string) (*Device, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidDeviceID
	}

	resp, err := c.session.AuthorizedRequest(ctx, http.MethodGet, devicePath(id), nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeRemoteError(resp.StatusCode, resp.Body)
	}

	snap, err := decodeDeviceSnapshot(resp.Body)
	if err != nil {
		return nil, err
	}

	return NewDevice(c.session, State{
		DeviceID:   id,
		Nickname:   snap.Nickname,
		IsUnlocked: *snap.IsUnlocked,
		APIEnabled: snap.APIEnabled,
		Battery:    snap.Battery,
	}), nil
}
