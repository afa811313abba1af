package lockservice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-sesame/internal/audit"
	"github.com/nerrad567/gray-logic-sesame/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-sesame/internal/sesame"
)

// Command sources recorded in the audit trail.
const (
	SourceAPI  = "api"
	SourceMQTT = "mqtt"
	SourceCLI  = "cli"
)

// auditTimeout bounds the audit write after a command, which must happen even
// when the caller's context has been cancelled.
const auditTimeout = 5 * time.Second

// Control locks or unlocks one device.
//
// The device is refetched first, so the transition guard sees server state
// rather than a stale cache. Commands for the same id run one at a time.
// Every attempt that reaches the device is audited with its outcome; a failed
// audit write is logged and does not change the result.
//
// Returns:
//   - sesame.State: the device state after a successful command
//   - error: sesame.ErrInvalidIntent, sesame.ErrInvalidDeviceID,
//     sesame.ErrNotAuthenticated, *sesame.TransitionError, *sesame.RemoteError,
//     or a transport/protocol error from the client
func (s *Service) Control(ctx context.Context, id string, intent sesame.ControlIntent, source, user string) (sesame.State, error) {
	if !intent.Valid() {
		return sesame.State{}, fmt.Errorf("%w: %s", sesame.ErrInvalidIntent, intent)
	}
	if id == "" {
		return sesame.State{}, sesame.ErrInvalidDeviceID
	}
	if source == "" {
		source = SourceAPI
	}

	mu := s.deviceLock(id)
	mu.Lock()
	defer mu.Unlock()

	device, err := s.client.GetDevice(ctx, id)
	if err == nil {
		err = device.Control(ctx, intent)
	}

	outcome := classify(err)
	s.record(ctx, id, intent, source, user, outcome, err)

	if s.metrics != nil {
		s.metrics.WriteControl(influxdb.ControlSample{
			DeviceID: id,
			Action:   intent.String(),
			Outcome:  outcome,
			Source:   source,
		})
	}

	if err != nil {
		s.logger.Warn("lock command failed",
			"device_id", id,
			"action", intent.String(),
			"source", source,
			"outcome", outcome,
			"error", err,
		)
		return sesame.State{}, err
	}

	st := device.Snapshot()
	s.publish(st)

	s.mu.Lock()
	s.lastState[id] = st
	s.mu.Unlock()

	s.emit(Event{Type: EventStateChanged, Source: source, State: st})

	s.logger.Info("lock command succeeded",
		"device_id", id,
		"action", intent.String(),
		"source", source,
	)
	return st, nil
}

// classify maps a control result to an audit outcome.
func classify(err error) string {
	switch {
	case err == nil:
		return audit.OutcomeSuccess
	case errors.Is(err, sesame.ErrInvalidTransition):
		return audit.OutcomeInvalidTransition
	case errors.Is(err, sesame.ErrRemoteRejected):
		return audit.OutcomeRejected
	default:
		return audit.OutcomeError
	}
}

func (s *Service) record(ctx context.Context, id string, intent sesame.ControlIntent, source, user, outcome string, cause error) {
	entry := &audit.AuditLog{
		Action:     intent.String(),
		EntityType: audit.EntitySesame,
		EntityID:   id,
		UserID:     user,
		Source:     source,
		Outcome:    outcome,
	}
	if cause != nil {
		entry.Error = cause.Error()
	}

	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()

	if err := s.audit.Create(auditCtx, entry); err != nil {
		s.logger.Error("writing audit entry failed", "device_id", id, "error", err)
	}
}

func (s *Service) deviceLock(id string) *sync.Mutex {
	mu, _ := s.deviceLocks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex) //nolint:forcetypeassert // only *sync.Mutex is stored
}
