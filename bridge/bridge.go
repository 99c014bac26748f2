package bridge

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"alabs.org/doorbell-bridge/broadcast"
	"alabs.org/doorbell-bridge/journal"
	"alabs.org/doorbell-bridge/metrics"
	"alabs.org/doorbell-bridge/mqtt"
	"alabs.org/doorbell-bridge/status"
)

type Publisher interface {
	Publish(ctx context.Context, topic string, payload string) error
}

type Recorder interface {
	Record(ctx context.Context, event journal.Event) error
}

// Outcome is what handling one inbound message did.
type Outcome struct {
	Change     status.Change
	Recognized bool
	Delivered  int
}

// Bridge relays device status to viewers and viewer commands to the device.
// A single goroutine running Run owns all state changes; Join holds the same
// lock so a new viewer sees either the state before a message together with
// that message, or the state after it without it.
type Bridge struct {
	mu          sync.Mutex
	store       *status.Store
	broadcaster *broadcast.Broadcaster
	publisher   Publisher
	journal     *journalWriter
}

// New wires the relay. recorder may be nil when no journal is configured;
// otherwise events are recorded in the background until Close.
func New(store *status.Store, broadcaster *broadcast.Broadcaster, publisher Publisher, recorder Recorder) *Bridge {
	bridge := &Bridge{
		store:       store,
		broadcaster: broadcaster,
		publisher:   publisher,
	}
	if recorder != nil {
		bridge.journal = newJournalWriter(recorder, journalQueueSize)
	}
	return bridge
}

// Close flushes queued journal events, giving up when ctx ends.
func (bridge *Bridge) Close(ctx context.Context) error {
	if bridge.journal == nil {
		return nil
	}
	return bridge.journal.close(ctx)
}

// Run consumes messages until ctx is done or the channel is closed.
func (bridge *Bridge) Run(ctx context.Context, messages <-chan mqtt.Message) error {
	log.Info().Str("event", "RelayStarted").Msg("Status relay started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("event", "RelayStopped").Msg("Status relay stopped")
			return nil
		case message, ok := <-messages:
			if !ok {
				log.Info().Str("event", "RelayStopped").Msg("Message channel closed")
				return nil
			}
			bridge.Handle(ctx, message)
		}
	}
}

// Handle applies a status payload and forwards it to every viewer. Every
// payload is forwarded, recognized or not.
func (bridge *Bridge) Handle(ctx context.Context, message mqtt.Message) Outcome {
	if !utf8.ValidString(message.Payload) {
		log.Debug().
			Str("event", "InvalidUTF8").
			Str("topic", message.Topic).
			Hex("payload", []byte(message.Payload)).
			Msg("Payload is not valid UTF-8, viewers get replacement characters")
	}

	bridge.mu.Lock()
	change, recognized := bridge.store.Apply(message.Payload)
	delivered := bridge.broadcaster.Broadcast(MessageEvent(message.Payload))
	bridge.mu.Unlock()

	metrics.StatusMessagesTotal.WithLabelValues(strconv.FormatBool(recognized)).Inc()

	logEvent := log.Info()
	if !recognized {
		logEvent = log.Debug()
	}
	logEvent.
		Str("event", "StatusReceived").
		Str("topic", message.Topic).
		Str("payload", message.Payload).
		Bool("recognized", recognized).
		Str("door", change.Snapshot.Door.String()).
		Str("alert", change.Snapshot.Alert.String()).
		Int("delivered", delivered).
		Msg("Relayed status message")

	bridge.record(journal.Event{
		Direction: journal.Inbound,
		Topic:     message.Topic,
		Payload:   message.Payload,
		CreatedAt: message.Received,
	})

	return Outcome{Change: change, Recognized: recognized, Delivered: delivered}
}

// Join registers a viewer and returns the state it should render first.
func (bridge *Bridge) Join() (status.Snapshot, *broadcast.Session) {
	bridge.mu.Lock()
	defer bridge.mu.Unlock()
	return bridge.store.Snapshot(), bridge.broadcaster.Subscribe()
}

func (bridge *Bridge) Leave(session *broadcast.Session) {
	bridge.broadcaster.Unsubscribe(session)
}

func (bridge *Bridge) Snapshot() status.Snapshot {
	return bridge.store.Snapshot()
}

func (bridge *Bridge) Sessions() int {
	return bridge.broadcaster.Len()
}

// SendCommand publishes command verbatim on the control topic. Any non-blank
// text is accepted; the device decides what it understands.
func (bridge *Bridge) SendCommand(ctx context.Context, command string) error {
	if strings.TrimSpace(command) == "" {
		metrics.CommandsTotal.WithLabelValues("rejected").Inc()
		return ErrMissingCommand
	}

	if err := bridge.publisher.Publish(ctx, mqtt.ControlTopic, command); err != nil {
		metrics.CommandsTotal.WithLabelValues("failed").Inc()
		log.Error().
			Str("error", err.Error()).
			Str("event", "CommandFailed").
			Str("command", command).
			Msg("Failed to publish command")
		return &PublishError{Topic: mqtt.ControlTopic, Command: command, Err: err}
	}

	metrics.CommandsTotal.WithLabelValues("sent").Inc()
	log.Info().
		Str("event", "CommandSent").
		Str("topic", mqtt.ControlTopic).
		Str("command", command).
		Msg("Published command")

	bridge.record(journal.Event{
		Direction: journal.Outbound,
		Topic:     mqtt.ControlTopic,
		Payload:   command,
		CreatedAt: time.Now(),
	})
	return nil
}

func (bridge *Bridge) record(event journal.Event) {
	if bridge.journal == nil {
		return
	}
	bridge.journal.enqueue(event)
}
