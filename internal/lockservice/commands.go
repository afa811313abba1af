package lockservice

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-sesame/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-sesame/internal/sesame"
)

// commandTimeout bounds one MQTT-triggered command, which has no caller context.
const commandTimeout = 30 * time.Second

// Subscriber registers MQTT handlers. *mqtt.Client satisfies it.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// CommandMessage is the payload on sesame/command/{deviceID}.
type CommandMessage struct {
	Type string `json:"type"` // "lock" or "unlock"
	User string `json:"user,omitempty"`
}

// SubscribeCommands routes sesame/command/+ messages to Control.
func (s *Service) SubscribeCommands(sub Subscriber) error {
	if err := sub.Subscribe(mqtt.Topics{}.AllCommands(), 1, s.HandleCommand); err != nil {
		return fmt.Errorf("subscribing to lock commands: %w", err)
	}
	s.logger.Info("listening for lock commands", "topic", mqtt.Topics{}.AllCommands())
	return nil
}

// HandleCommand is the MQTT handler for one command message.
//
// Malformed topics and payloads are rejected without touching the cloud.
func (s *Service) HandleCommand(topic string, payload []byte) error {
	id, ok := mqtt.ParseCommandTopic(topic)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidCommand, topic)
	}

	var msg CommandMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("%w: decoding payload: %w", ErrInvalidCommand, err)
	}

	intent, err := sesame.ParseIntent(msg.Type)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	_, err = s.Control(ctx, id, intent, SourceMQTT, msg.User)
	return err
}
