package lockservice

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/gray-logic-sesame/internal/audit"
	"github.com/nerrad567/gray-logic-sesame/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-sesame/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-sesame/internal/sesame"
)

// Logger defines the logging interface used by the Service.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// StatePublisher pushes lock state to the message bus. *mqtt.Client satisfies it.
type StatePublisher interface {
	PublishJSON(topic string, v any, retained bool) error
}

// MetricsWriter records lock telemetry. *influxdb.Client satisfies it.
type MetricsWriter interface {
	WriteLockState(s influxdb.LockSample)
	WriteControl(s influxdb.ControlSample)
}

// Event types delivered to listeners.
const (
	EventStateChanged = "device.state_changed"
)

// Event describes a lock whose state changed, by command or observed by polling.
type Event struct {
	Type   string       `json:"type"`
	Source string       `json:"source"`
	State  sesame.State `json:"state"`
}

// Listener receives events. It is called synchronously and must not block.
type Listener func(Event)

// Deps holds the collaborators of a Service. Client and Audit are required.
type Deps struct {
	Client   *sesame.Client
	Email    string
	Password string
	Audit    audit.Repository

	// Optional. Leave nil (not a typed nil pointer) when unavailable.
	Publisher StatePublisher
	Metrics   MetricsWriter
	Logger    Logger
}

// Service orchestrates the Sesame client for the daemon, the API and the CLI.
//
// Every lock/unlock goes through Control, which refetches the device, applies
// the transition guard, records an audit entry and fans the new state out to
// MQTT, InfluxDB and listeners. Commands for the same device are serialized.
//
// All methods are safe for concurrent use.
type Service struct {
	client    *sesame.Client
	email     string
	password  string
	audit     audit.Repository
	publisher StatePublisher
	metrics   MetricsWriter
	logger    Logger

	// deviceLocks serializes Control per device id.
	deviceLocks sync.Map // map[string]*sync.Mutex

	mu        sync.RWMutex
	lastState map[string]sesame.State
	listeners []Listener
}

// New creates a Service.
func New(deps Deps) (*Service, error) {
	if deps.Client == nil {
		return nil, fmt.Errorf("%w: sesame client", ErrMissingDependency)
	}
	if deps.Audit == nil {
		return nil, fmt.Errorf("%w: audit repository", ErrMissingDependency)
	}

	logger := deps.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return &Service{
		client:    deps.Client,
		email:     deps.Email,
		password:  deps.Password,
		audit:     deps.Audit,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		logger:    logger,
		lastState: make(map[string]sesame.State),
	}, nil
}

// OnEvent registers a listener for state change events.
func (s *Service) OnEvent(l Listener) {
	if l == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// Login authenticates the shared session with the configured credentials.
func (s *Service) Login(ctx context.Context) error {
	if s.email == "" || s.password == "" {
		return ErrNoCredentials
	}
	if err := s.client.Login(ctx, s.email, s.password); err != nil {
		return fmt.Errorf("sesame login: %w", err)
	}
	s.logger.Info("logged in to sesame cloud")
	return nil
}

// IsLoggedIn reports whether the shared session holds a token.
func (s *Service) IsLoggedIn() bool {
	return s.client.IsLoggedIn()
}

// ListDevices returns a fresh snapshot of every lock on the account.
// Each state is published and recorded; changes are announced to listeners.
func (s *Service) ListDevices(ctx context.Context) ([]sesame.State, error) {
	devices, err := s.client.ListDevices(ctx)
	if err != nil {
		return nil, err
	}

	states := make([]sesame.State, 0, len(devices))
	for _, d := range devices {
		st := d.Snapshot()
		states = append(states, st)
		s.observe(st, "poll")
	}
	return states, nil
}

// GetDevice returns a fresh snapshot of one lock.
func (s *Service) GetDevice(ctx context.Context, id string) (sesame.State, error) {
	d, err := s.client.GetDevice(ctx, id)
	if err != nil {
		return sesame.State{}, err
	}
	st := d.Snapshot()
	s.observe(st, "poll")
	return st, nil
}

// History returns the newest audit entries for one lock.
func (s *Service) History(ctx context.Context, id string, limit int) (*audit.ListResult, error) {
	if id == "" {
		return nil, sesame.ErrInvalidDeviceID
	}
	return s.audit.List(ctx, audit.Filter{
		EntityType: audit.EntitySesame,
		EntityID:   id,
		Limit:      limit,
	})
}

// observe fans a state out and emits an event when it differs from the last one seen.
func (s *Service) observe(st sesame.State, source string) {
	s.publish(st)

	s.mu.Lock()
	prev, seen := s.lastState[st.DeviceID]
	s.lastState[st.DeviceID] = st
	s.mu.Unlock()

	if seen && prev.IsUnlocked != st.IsUnlocked {
		s.emit(Event{Type: EventStateChanged, Source: source, State: st})
	}
}

// publish sends st to MQTT and InfluxDB. Failures are logged, never returned:
// the lock already is in this state.
func (s *Service) publish(st sesame.State) {
	if s.publisher != nil {
		if err := s.publisher.PublishJSON(mqtt.Topics{}.State(st.DeviceID), st, true); err != nil {
			s.logger.Warn("publishing lock state failed", "device_id", st.DeviceID, "error", err)
		}
	}
	if s.metrics != nil {
		s.metrics.WriteLockState(influxdb.LockSample{
			DeviceID:   st.DeviceID,
			Nickname:   st.Nickname,
			Unlocked:   st.IsUnlocked,
			APIEnabled: st.APIEnabled,
			Battery:    st.Battery,
		})
	}
}

func (s *Service) emit(ev Event) {
	s.mu.RLock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, l := range listeners {
		l(ev)
	}
}

// LastState returns the most recent state seen for id, if any.
func (s *Service) LastState(id string) (sesame.State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.lastState[id]
	return st, ok
}
