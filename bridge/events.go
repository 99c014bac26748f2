package bridge

import (
	"encoding/json"

	"alabs.org/doorbell-bridge/status"
)

// Event names pushed to viewers.
const (
	EventStatus      = "status"
	EventMQTTMessage = "mqtt_message"
)

// Event is the frame sent on a viewer's live channel.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// MessageEvent wraps a raw device payload: {"event":"mqtt_message","data":"RINGING"}.
// Bytes that are not valid UTF-8 are sent as U+FFFD.
func MessageEvent(payload string) []byte {
	data, _ := json.Marshal(Event{Name: EventMQTTMessage, Data: payload})
	return data
}

// StatusEvent is the snapshot a viewer gets when it joins.
func StatusEvent(snapshot status.Snapshot) []byte {
	data, _ := json.Marshal(Event{Name: EventStatus, Data: snapshot})
	return data
}
