package broadcast

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain reads count messages from the session or fails after a second.
func drain(t *testing.T, session *Session, count int) []string {
	t.Helper()
	received := make([]string, 0, count)
	for len(received) < count {
		select {
		case message, ok := <-session.Messages():
			require.True(t, ok, "session closed after %d messages", len(received))
			received = append(received, string(message))
		case <-time.After(time.Second):
			t.Fatalf("timed out after %d of %d messages", len(received), count)
		}
	}
	return received
}

func TestBroadcaster_DeliversToEverySession(t *testing.T) {
	broadcaster := NewBroadcaster(8)
	first := broadcaster.Subscribe()
	second := broadcaster.Subscribe()
	require.Equal(t, 2, broadcaster.Len())
	assert.NotEqual(t, first.ID, second.ID)

	assert.Equal(t, 2, broadcaster.Broadcast([]byte("RINGING")))

	assert.Equal(t, []string{"RINGING"}, drain(t, first, 1))
	assert.Equal(t, []string{"RINGING"}, drain(t, second, 1))
}

func TestBroadcaster_PreservesOrder(t *testing.T) {
	broadcaster := NewBroadcaster(64)
	session := broadcaster.Subscribe()

	want := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		message := fmt.Sprintf("message-%d", i)
		want = append(want, message)
		broadcaster.Broadcast([]byte(message))
	}

	assert.Equal(t, want, drain(t, session, 50))
}

func TestBroadcaster_NoReplayForLateSessions(t *testing.T) {
	broadcaster := NewBroadcaster(8)
	broadcaster.Broadcast([]byte("early"))

	late := broadcaster.Subscribe()
	broadcaster.Broadcast([]byte("late"))

	assert.Equal(t, []string{"late"}, drain(t, late, 1))
	select {
	case message := <-late.Messages():
		t.Fatalf("unexpected message %q", message)
	default:
	}
}

func TestBroadcaster_EvictsSlowSessionWithoutBlockingOthers(t *testing.T) {
	broadcaster := NewBroadcaster(2)
	slow := broadcaster.Subscribe()
	fast := broadcaster.Subscribe()

	done := make(chan struct{})
	var fastReceived []string
	go func() {
		defer close(done)
		for message := range fast.Messages() {
			fastReceived = append(fastReceived, string(message))
			if len(fastReceived) == 5 {
				return
			}
		}
	}()

	for i := 0; i < 5; i++ {
		broadcaster.Broadcast([]byte(fmt.Sprintf("%d", i)))
		// Give the fast reader a chance to keep its buffer empty.
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("fast session was blocked")
	}
	assert.Equal(t, []string{"0", "1", "2", "3", "4"}, fastReceived)

	// The slow session kept what fit in its buffer and was then closed.
	var slowReceived []string
	for message := range slow.Messages() {
		slowReceived = append(slowReceived, string(message))
	}
	assert.Equal(t, []string{"0", "1"}, slowReceived)
	assert.Equal(t, 1, broadcaster.Len())
}

func TestBroadcaster_UnsubscribeIsIdempotent(t *testing.T) {
	broadcaster := NewBroadcaster(4)
	session := broadcaster.Subscribe()

	broadcaster.Unsubscribe(session)
	broadcaster.Unsubscribe(session)
	assert.Equal(t, 0, broadcaster.Len())

	_, ok := <-session.Messages()
	assert.False(t, ok)
	assert.Equal(t, 0, broadcaster.Broadcast([]byte("nobody")))
}

func TestBroadcaster_Close(t *testing.T) {
	broadcaster := NewBroadcaster(4)
	session := broadcaster.Subscribe()

	broadcaster.Close()
	broadcaster.Close()

	_, ok := <-session.Messages()
	assert.False(t, ok)

	after := broadcaster.Subscribe()
	_, ok = <-after.Messages()
	assert.False(t, ok)
	assert.Equal(t, 0, broadcaster.Len())

	// Unsubscribing a session that was closed by Close must not panic.
	broadcaster.Unsubscribe(session)
}

func TestBroadcaster_ConcurrentSubscribers(t *testing.T) {
	broadcaster := NewBroadcaster(128)
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session := broadcaster.Subscribe()
			defer broadcaster.Unsubscribe(session)
			time.Sleep(time.Millisecond)
		}()
	}
	for i := 0; i < 100; i++ {
		broadcaster.Broadcast([]byte("tick"))
	}
	wg.Wait()
	assert.Equal(t, 0, broadcaster.Len())
}

func TestNewBroadcaster_DefaultBuffer(t *testing.T) {
	broadcaster := NewBroadcaster(0)
	session := broadcaster.Subscribe()
	assert.Equal(t, DefaultBufferSize, cap(session.messages))
}
