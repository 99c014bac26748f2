package bridge

import (
	"errors"
	"fmt"
)

var (
	// ErrBrokerConnect means the first broker connection could not be made.
	// The server does not start without it.
	ErrBrokerConnect = errors.New("could not connect to MQTT broker")

	// ErrMissingCommand is returned for an absent or blank command. Nothing is published.
	ErrMissingCommand = errors.New("command is required")
)

// PublishError is returned when the broker client refused a command.
type PublishError struct {
	Topic   string
	Command string
	Err     error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("failed to publish %q to %s: %v", e.Command, e.Topic, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}
