package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alabs.org/doorbell-bridge/broadcast"
	"alabs.org/doorbell-bridge/journal"
	"alabs.org/doorbell-bridge/metrics"
	"alabs.org/doorbell-bridge/mqtt"
	"alabs.org/doorbell-bridge/status"
)

type published struct {
	topic   string
	payload string
}

type fakePublisher struct {
	mu        sync.Mutex
	err       error
	published []published
}

func (publisher *fakePublisher) Publish(ctx context.Context, topic string, payload string) error {
	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	if publisher.err != nil {
		return publisher.err
	}
	publisher.published = append(publisher.published, published{topic: topic, payload: payload})
	return nil
}

func (publisher *fakePublisher) calls() []published {
	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	return append([]published(nil), publisher.published...)
}

type fakeRecorder struct {
	mu     sync.Mutex
	err    error
	events []journal.Event
}

func (recorder *fakeRecorder) Record(ctx context.Context, event journal.Event) error {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	recorder.events = append(recorder.events, event)
	return recorder.err
}

func (recorder *fakeRecorder) recorded() []journal.Event {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	return append([]journal.Event(nil), recorder.events...)
}

// stalledRecorder never finishes a write before its context ends.
type stalledRecorder struct {
	started chan struct{}
}

func (recorder *stalledRecorder) Record(ctx context.Context, event journal.Event) error {
	select {
	case recorder.started <- struct{}{}:
	default:
	}
	<-ctx.Done()
	return ctx.Err()
}

// flush waits for queued journal writes.
func flush(t *testing.T, bridge *Bridge) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bridge.Close(ctx))
}

func newBridge(t *testing.T) (*Bridge, *fakePublisher, *fakeRecorder) {
	t.Helper()
	publisher := &fakePublisher{}
	recorder := &fakeRecorder{}
	return New(status.NewStore(), broadcast.NewBroadcaster(64), publisher, recorder), publisher, recorder
}

func statusMessage(payload string) mqtt.Message {
	return mqtt.Message{Topic: mqtt.StatusTopic, Payload: payload, Received: time.Now()}
}

func decode(t *testing.T, frame []byte) Event {
	t.Helper()
	var event Event
	require.NoError(t, json.Unmarshal(frame, &event))
	return event
}

func TestBridge_HandleUpdatesStateAndForwards(t *testing.T) {
	bridge, _, recorder := newBridge(t)
	_, session := bridge.Join()

	outcome := bridge.Handle(context.Background(), statusMessage(status.PayloadDoorUnlocked))
	assert.True(t, outcome.Recognized)
	assert.Equal(t, 1, outcome.Delivered)
	assert.Equal(t, status.DoorField, outcome.Change.Field)
	assert.Equal(t, status.Unlocked, bridge.Snapshot().Door)

	event := decode(t, <-session.Messages())
	assert.Equal(t, EventMQTTMessage, event.Name)
	assert.Equal(t, status.PayloadDoorUnlocked, event.Data)

	flush(t, bridge)
	events := recorder.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, journal.Inbound, events[0].Direction)
	assert.Equal(t, mqtt.StatusTopic, events[0].Topic)
}

func TestBridge_UnrecognizedPayloadIsStillForwarded(t *testing.T) {
	bridge, _, _ := newBridge(t)
	_, session := bridge.Join()

	outcome := bridge.Handle(context.Background(), statusMessage("door_locked"))
	assert.False(t, outcome.Recognized)
	assert.Equal(t, status.Snapshot{Door: status.Locked, Alert: status.None}, bridge.Snapshot())

	event := decode(t, <-session.Messages())
	assert.Equal(t, "door_locked", event.Data)
}

func TestBridge_InvalidUTF8IsForwardedWithReplacement(t *testing.T) {
	bridge, _, _ := newBridge(t)
	_, session := bridge.Join()

	outcome := bridge.Handle(context.Background(), statusMessage("RING\xffING"))
	assert.False(t, outcome.Recognized)

	event := decode(t, <-session.Messages())
	assert.Equal(t, "RING\uFFFDING", event.Data)
}

func TestBridge_RunStopsOnCancel(t *testing.T) {
	bridge, _, _ := newBridge(t)
	messages := make(chan mqtt.Message)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- bridge.Run(ctx, messages) }()

	messages <- statusMessage(status.PayloadRinging)
	messages <- statusMessage(status.PayloadBurglarAlert)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
	assert.Equal(t, status.Intruder, bridge.Snapshot().Alert)
}

func TestBridge_RunStopsWhenChannelCloses(t *testing.T) {
	bridge, _, _ := newBridge(t)
	messages := make(chan mqtt.Message, 1)
	messages <- statusMessage(status.PayloadDoorUnlocked)
	close(messages)

	require.NoError(t, bridge.Run(context.Background(), messages))
	assert.Equal(t, status.Unlocked, bridge.Snapshot().Door)
}

func TestBridge_SendCommandPublishesVerbatim(t *testing.T) {
	bridge, publisher, recorder := newBridge(t)

	for _, command := range []string{"LOCK", "UNLOCK", "open the pod bay doors", " LOCK "} {
		require.NoError(t, bridge.SendCommand(context.Background(), command))
	}

	calls := publisher.calls()
	require.Len(t, calls, 4)
	for _, call := range calls {
		assert.Equal(t, mqtt.ControlTopic, call.topic)
	}
	assert.Equal(t, "open the pod bay doors", calls[2].payload)
	assert.Equal(t, " LOCK ", calls[3].payload)
	flush(t, bridge)
	events := recorder.recorded()
	require.Len(t, events, 4)
	assert.Equal(t, journal.Outbound, events[0].Direction)
}

func TestBridge_SendCommandRejectsBlank(t *testing.T) {
	bridge, publisher, _ := newBridge(t)

	for _, command := range []string{"", "   ", "\n\t"} {
		err := bridge.SendCommand(context.Background(), command)
		assert.ErrorIs(t, err, ErrMissingCommand)
	}
	assert.Empty(t, publisher.calls())
}

func TestBridge_SendCommandWrapsPublishFailure(t *testing.T) {
	bridge, publisher, recorder := newBridge(t)
	cause := errors.New("not connected")
	publisher.err = cause

	err := bridge.SendCommand(context.Background(), "LOCK")
	require.Error(t, err)

	var publishErr *PublishError
	require.ErrorAs(t, err, &publishErr)
	assert.Equal(t, "LOCK", publishErr.Command)
	assert.Equal(t, mqtt.ControlTopic, publishErr.Topic)
	assert.ErrorIs(t, err, cause)
	flush(t, bridge)
	assert.Empty(t, recorder.recorded())
}

func TestBridge_JournalFailureDoesNotAffectRelay(t *testing.T) {
	bridge, _, recorder := newBridge(t)
	recorder.err = errors.New("database is gone")
	_, session := bridge.Join()

	outcome := bridge.Handle(context.Background(), statusMessage(status.PayloadRinging))
	assert.Equal(t, 1, outcome.Delivered)
	assert.Equal(t, status.Ringing, bridge.Snapshot().Alert)
	assert.NotEmpty(t, <-session.Messages())

	assert.NoError(t, bridge.SendCommand(context.Background(), "UNLOCK"))
	flush(t, bridge)
	assert.Len(t, recorder.recorded(), 2)
}

func TestBridge_StalledJournalDoesNotDelayRelay(t *testing.T) {
	recorder := &stalledRecorder{started: make(chan struct{}, 1)}
	bridge := New(status.NewStore(), broadcast.NewBroadcaster(8), &fakePublisher{}, recorder)
	_, session := bridge.Join()

	messages := make(chan mqtt.Message, 3)
	messages <- statusMessage(status.PayloadRinging)
	messages <- statusMessage(status.PayloadDoorUnlocked)
	messages <- statusMessage(status.PayloadBurglarAlert)
	close(messages)

	start := time.Now()
	require.NoError(t, bridge.Run(context.Background(), messages))

	for _, want := range []string{status.PayloadRinging, status.PayloadDoorUnlocked, status.PayloadBurglarAlert} {
		select {
		case frame := <-session.Messages():
			assert.Equal(t, want, decode(t, frame).Data)
		case <-time.After(time.Second):
			t.Fatalf("frame %q not delivered", want)
		}
	}
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, status.Snapshot{Door: status.Unlocked, Alert: status.Intruder}, bridge.Snapshot())

	<-recorder.started
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bridge.Close(ctx), context.DeadlineExceeded)
}

func TestJournalWriter_DropsWhenQueueIsFull(t *testing.T) {
	recorder := &stalledRecorder{started: make(chan struct{}, 1)}
	writer := newJournalWriter(recorder, 1)
	before := testutil.ToFloat64(metrics.JournalDroppedTotal)

	writer.enqueue(journal.Event{Direction: journal.Inbound, Payload: status.PayloadRinging})
	<-recorder.started
	for i := 0; i < 3; i++ {
		writer.enqueue(journal.Event{Direction: journal.Inbound, Payload: status.PayloadRinging})
	}

	assert.Equal(t, before+2, testutil.ToFloat64(metrics.JournalDroppedTotal))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	writer.close(ctx)
	writer.enqueue(journal.Event{Direction: journal.Inbound, Payload: status.PayloadRinging})
	assert.Equal(t, before+2, testutil.ToFloat64(metrics.JournalDroppedTotal))
}

func TestBridge_WorksWithoutRecorder(t *testing.T) {
	bridge := New(status.NewStore(), broadcast.NewBroadcaster(4), &fakePublisher{}, nil)
	bridge.Handle(context.Background(), statusMessage(status.PayloadRinging))
	assert.NoError(t, bridge.SendCommand(context.Background(), "LOCK"))
}

func TestBridge_LeaveStopsDelivery(t *testing.T) {
	bridge, _, _ := newBridge(t)
	_, session := bridge.Join()
	assert.Equal(t, 1, bridge.Sessions())

	bridge.Leave(session)
	assert.Equal(t, 0, bridge.Sessions())
	assert.Equal(t, 0, bridge.Handle(context.Background(), statusMessage(status.PayloadRinging)).Delivered)
}

// A viewer joining while messages flow must end up with the same state as
// the store once it replays what it was sent on top of its first snapshot.
func TestBridge_JoinSeesConsistentState(t *testing.T) {
	bridge := New(status.NewStore(), broadcast.NewBroadcaster(1024), &fakePublisher{}, nil)
	payloads := []string{
		status.PayloadDoorLocked,
		status.PayloadDoorUnlocked,
		status.PayloadRinging,
		status.PayloadBurglarAlert,
		"noise",
	}

	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		for i := 0; i < 500; i++ {
			bridge.Handle(context.Background(), statusMessage(payloads[i%len(payloads)]))
		}
	}()

	type viewer struct {
		snapshot status.Snapshot
		session  *broadcast.Session
	}
	viewers := make([]viewer, 0, 20)
	for i := 0; i < 20; i++ {
		snapshot, session := bridge.Join()
		viewers = append(viewers, viewer{snapshot: snapshot, session: session})
		time.Sleep(50 * time.Microsecond)
	}
	<-relayDone

	final := bridge.Snapshot()
	for i, v := range viewers {
		replay := status.NewStore()
		replay.Apply(payloadForDoor(v.snapshot.Door))
		replay.Apply(payloadForAlert(v.snapshot.Alert))
		bridge.Leave(v.session)
		for frame := range v.session.Messages() {
			replay.Apply(fmt.Sprint(decode(t, frame).Data))
		}
		assert.Equal(t, final, replay.Snapshot(), "viewer %d", i)
	}
}

func payloadForDoor(door status.Door) string {
	if door == status.Unlocked {
		return status.PayloadDoorUnlocked
	}
	return status.PayloadDoorLocked
}

func payloadForAlert(alert status.Alert) string {
	switch alert {
	case status.Ringing:
		return status.PayloadRinging
	case status.Intruder:
		return status.PayloadBurglarAlert
	}
	return ""
}
