// Package mqtt connects the Sesame bridge to an MQTT broker.
//
// The bridge publishes each lock's state retained on sesame/state/{deviceID}
// and consumes lock/unlock commands from sesame/command/{deviceID}. Its own
// liveness is a retained JSON status on sesame/system/status: "online" after
// every (re)connect, "offline" on a graceful Close, and the same topic is the
// broker-published Last Will when the process dies without closing.
//
// The client wraps paho.mqtt.golang with auto-reconnect, re-subscription of
// tracked topics and panic-safe handlers.
//
// # Usage
//
//	client, err := mqtt.Connect(ctx, cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllCommands(), 1,
//	    func(topic string, payload []byte) error {
//	        id, ok := mqtt.ParseCommandTopic(topic)
//	        ...
//	    })
//
// TLS (cfg.Broker.TLS) should be enabled whenever the broker is not on the
// local host: command topics can open doors.
package mqtt
