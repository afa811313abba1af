package lockservice

import (
	"errors"
	"testing"

	"github.com/nerrad567/gray-logic-sesame/internal/audit"
	"github.com/nerrad567/gray-logic-sesame/internal/infrastructure/mqtt"
)

type fakeSubscriber struct {
	topic   string
	qos     byte
	handler mqtt.MessageHandler
	err     error
}

func (f *fakeSubscriber) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	f.topic, f.qos, f.handler = topic, qos, handler
	return f.err
}

func TestHandleCommand(t *testing.T) {
	h := newHarness(t, true)

	err := h.svc.HandleCommand("sesame/command/dev-1", []byte(`{"type":"unlock","user":"automation"}`))
	if err != nil {
		t.Fatalf("HandleCommand() error = %v", err)
	}
	if !h.cloud.devices["dev-1"].unlocked {
		t.Error("device was not unlocked")
	}

	logs := h.history(t, "dev-1")
	if len(logs) != 1 || logs[0].Source != SourceMQTT || logs[0].UserID != "automation" || logs[0].Outcome != audit.OutcomeSuccess {
		t.Errorf("history = %+v", logs)
	}
}

func TestHandleCommand_ReturnsControlError(t *testing.T) {
	h := newHarness(t, true)

	err := h.svc.HandleCommand("sesame/command/dev-2", []byte(`{"type":"unlock"}`))
	if err == nil || errors.Is(err, ErrInvalidCommand) {
		t.Errorf("HandleCommand() error = %v, want the transition error", err)
	}
}

func TestHandleCommand_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload string
	}{
		{"wrong topic", "sesame/state/dev-1", `{"type":"lock"}`},
		{"no device", "sesame/command/", `{"type":"lock"}`},
		{"not json", "sesame/command/dev-1", `lock`},
		{"unknown type", "sesame/command/dev-1", `{"type":"open"}`},
		{"missing type", "sesame/command/dev-1", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, true)

			err := h.svc.HandleCommand(tt.topic, []byte(tt.payload))
			if !errors.Is(err, ErrInvalidCommand) {
				t.Errorf("HandleCommand() error = %v, want ErrInvalidCommand", err)
			}
			if n := h.cloud.count("GET /sesames/"); n != 0 {
				t.Errorf("malformed command reached the cloud (%d calls)", n)
			}
		})
	}
}

func TestSubscribeCommands(t *testing.T) {
	h := newHarness(t, true)
	sub := &fakeSubscriber{}

	if err := h.svc.SubscribeCommands(sub); err != nil {
		t.Fatalf("SubscribeCommands() error = %v", err)
	}
	if sub.topic != "sesame/command/+" || sub.qos != 1 || sub.handler == nil {
		t.Fatalf("subscribed %q qos %d", sub.topic, sub.qos)
	}

	if err := sub.handler("sesame/command/dev-1", []byte(`{"type":"unlock"}`)); err != nil {
		t.Errorf("handler error = %v", err)
	}
	if !h.cloud.devices["dev-1"].unlocked {
		t.Error("command via subscription did not reach the device")
	}

	failing := &fakeSubscriber{err: mqtt.ErrNotConnected}
	if err := h.svc.SubscribeCommands(failing); !errors.Is(err, mqtt.ErrNotConnected) {
		t.Errorf("SubscribeCommands() error = %v, want ErrNotConnected", err)
	}
}
