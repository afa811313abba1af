package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes. All bridge topics live under "sesame/".
const (
	// TopicPrefix is the root of every topic the bridge uses.
	TopicPrefix = "sesame"

	topicState   = "state"
	topicCommand = "command"
	topicSystem  = "system"
)

// Topics provides builders for the bridge's MQTT topics.
// Using these helpers keeps topic naming consistent across the codebase.
//
//	topics := mqtt.Topics{}
//	topics.State("dev-1")   // "sesame/state/dev-1"
//	topics.Command("dev-1") // "sesame/command/dev-1"
type Topics struct{}

// State returns the retained state topic of one lock.
//
// Example: sesame/state/dev-1
func (Topics) State(deviceID string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefix, topicState, deviceID)
}

// Command returns the topic other systems publish lock/unlock commands to.
//
// Example: sesame/command/dev-1
func (Topics) Command(deviceID string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefix, topicCommand, deviceID)
}

// AllStates matches every lock's state topic.
func (Topics) AllStates() string {
	return fmt.Sprintf("%s/%s/+", TopicPrefix, topicState)
}

// AllCommands matches every lock's command topic.
func (Topics) AllCommands() string {
	return fmt.Sprintf("%s/%s/+", TopicPrefix, topicCommand)
}

// SystemStatus returns the bridge status topic carrying online/offline and the LWT.
//
// Example: sesame/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/%s/status", TopicPrefix, topicSystem)
}

// ParseCommandTopic extracts the device id from a command topic.
// It returns false for any other topic or an empty id.
func ParseCommandTopic(topic string) (deviceID string, ok bool) {
	prefix := TopicPrefix + "/" + topicCommand + "/"
	if !strings.HasPrefix(topic, prefix) {
		return "", false
	}
	deviceID = strings.TrimPrefix(topic, prefix)
	if deviceID == "" || strings.ContainsAny(deviceID, "/+#") {
		return "", false
	}
	return deviceID, true
}
