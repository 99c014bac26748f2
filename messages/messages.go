package messages

import "alabs.org/doorbell-bridge/mqtt"

type MqttMessage mqtt.Message

type MqttStatus mqtt.Status

type MqttServerConnection struct {
	Connection *mqtt.Connection
	Err        error
}

type PublishMessage struct {
	Topic   string
	Payload string
	Err     error
}

// CommandReceived is emitted for every payload seen on the control topic.
type CommandReceived struct {
	Command string
	Reply   string
	Replied bool
}
