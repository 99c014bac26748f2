package commands

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"alabs.org/doorbell-bridge/messages"
	"alabs.org/doorbell-bridge/mqtt"
	"alabs.org/doorbell-bridge/status"
)

// Commands a real doorbell answers, and the status it reports back.
const (
	CommandLock   = "LOCK"
	CommandUnlock = "UNLOCK"
)

var replies = map[string]string{
	CommandLock:   status.PayloadDoorLocked,
	CommandUnlock: status.PayloadDoorUnlocked,
}

// ReplyFor returns the status payload the device publishes after command.
func ReplyFor(command string) (string, bool) {
	reply, found := replies[command]
	return reply, found
}

type Publisher interface {
	Publish(ctx context.Context, topic string, payload string) error
}

func InitConnection(ctx context.Context, options mqtt.Options) tea.Cmd {
	return func() tea.Msg {
		connection, err := mqtt.Dial(ctx, options)
		return messages.MqttServerConnection{
			Connection: connection,
			Err:        err,
		}
	}
}

func WaitForMessage(mqttMessages <-chan mqtt.Message) tea.Cmd {
	return func() tea.Msg {
		return messages.MqttMessage(<-mqttMessages)
	}
}

func WaitForStatus(mqttConnectionStatus <-chan mqtt.Status) tea.Cmd {
	return func() tea.Msg {
		return messages.MqttStatus(<-mqttConnectionStatus)
	}
}

func publishMessage(ctx context.Context, publisher Publisher, topic string, payload string) tea.Cmd {
	return func() tea.Msg {
		if err := publisher.Publish(ctx, topic, payload); err != nil {
			return messages.PublishMessage{Topic: topic, Payload: payload, Err: err}
		}
		return messages.PublishMessage{Topic: topic, Payload: payload, Err: nil}
	}
}

func PublishStatus(ctx context.Context, publisher Publisher, payload string) tea.Cmd {
	return publishMessage(ctx, publisher, mqtt.StatusTopic, payload)
}

// HandleCommand reports a control payload and, when answering is enabled for
// it, publishes the matching door status.
func HandleCommand(ctx context.Context, publisher Publisher, command string, enabled map[string]bool) tea.Cmd {
	reply, found := ReplyFor(command)
	answer := found && enabled[command]

	received := func() tea.Msg {
		return messages.CommandReceived{Command: command, Reply: reply, Replied: answer}
	}
	if !answer {
		return received
	}
	return tea.Sequence(received, PublishStatus(ctx, publisher, reply))
}
