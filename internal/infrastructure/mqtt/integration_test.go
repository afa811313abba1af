//go:build integration

package mqtt

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

// Integration tests against a real broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -count=1 -v ./internal/infrastructure/mqtt/...

func connectTest(t *testing.T, clientID string) *Client {
	t.Helper()
	cfg := testConfig()
	cfg.Broker.ClientID = clientID

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Connect(ctx, cfg)
	if err != nil {
		t.Fatalf("Connect(%s) error = %v", clientID, err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestIntegration_ConnectAndHealth(t *testing.T) {
	c := connectTest(t, "sesame-int-health")

	if !c.IsConnected() {
		t.Fatal("IsConnected() = false after Connect")
	}
	if err := c.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestIntegration_CommandRoundtrip(t *testing.T) {
	sub := connectTest(t, "sesame-int-sub")
	pub := connectTest(t, "sesame-int-pub")

	received := make(chan string, 1)
	err := sub.Subscribe(Topics{}.AllCommands(), 1, func(topic string, payload []byte) error {
		if id, ok := ParseCommandTopic(topic); ok {
			received <- id + ":" + string(payload)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if !sub.HasSubscription(Topics{}.AllCommands()) {
		t.Error("subscription not tracked")
	}

	time.Sleep(100 * time.Millisecond)

	if err := pub.Publish(Topics{}.Command("dev-1"), []byte(`{"type":"lock"}`), 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case got := <-received:
		if got != `dev-1:{"type":"lock"}` {
			t.Errorf("received %q", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for command")
	}

	if err := sub.Unsubscribe(Topics{}.AllCommands()); err != nil {
		t.Errorf("Unsubscribe() error = %v", err)
	}
	if sub.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after Unsubscribe", sub.SubscriptionCount())
	}
}

func TestIntegration_RetainedState(t *testing.T) {
	pub := connectTest(t, "sesame-int-state-pub")

	topic := Topics{}.State("int-retained")
	if err := pub.PublishJSON(topic, map[string]any{"device_id": "int-retained", "is_unlocked": false}, true); err != nil {
		t.Fatalf("PublishJSON() error = %v", err)
	}

	// A late subscriber still sees the retained state.
	sub := connectTest(t, "sesame-int-state-sub")
	received := make(chan []byte, 1)
	if err := sub.Subscribe(topic, 1, func(_ string, payload []byte) error {
		received <- payload
		return nil
	}); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	select {
	case payload := <-received:
		var state map[string]any
		if err := json.Unmarshal(payload, &state); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		if state["device_id"] != "int-retained" {
			t.Errorf("state = %v", state)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for retained state")
	}

	// Clear the retained message.
	_ = pub.Publish(topic, nil, 1, true)
}

func TestIntegration_OnConnectCallback(t *testing.T) {
	c := connectTest(t, "sesame-int-callback")

	c.SetOnConnect(func() {})
	c.SetOnDisconnect(func(error) {})
	c.SetLogger(&mockLogger{})

	c.callbackMu.RLock()
	defer c.callbackMu.RUnlock()
	if c.onConnect == nil || c.onDisconnect == nil {
		t.Error("callbacks not registered")
	}
}
