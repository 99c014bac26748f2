package broadcast

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"alabs.org/doorbell-bridge/metrics"
)

const DefaultBufferSize = 16

// Session is one viewer's subscription. Messages is closed when the viewer
// unsubscribes, is evicted for falling behind, or the broadcaster closes.
type Session struct {
	ID       uuid.UUID
	messages chan []byte
}

func (session *Session) Messages() <-chan []byte {
	return session.messages
}

// Broadcaster fans each message out to every subscribed session without
// blocking on any of them.
type Broadcaster struct {
	mu         sync.Mutex
	sessions   map[uuid.UUID]*Session
	bufferSize int
	closed     bool
}

func NewBroadcaster(bufferSize int) *Broadcaster {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Broadcaster{
		sessions:   make(map[uuid.UUID]*Session),
		bufferSize: bufferSize,
	}
}

func (broadcaster *Broadcaster) Subscribe() *Session {
	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()

	session := &Session{
		ID:       uuid.New(),
		messages: make(chan []byte, broadcaster.bufferSize),
	}
	if broadcaster.closed {
		close(session.messages)
		return session
	}

	broadcaster.sessions[session.ID] = session
	metrics.ViewerSessions.Set(float64(len(broadcaster.sessions)))
	log.Debug().
		Str("event", "SessionSubscribed").
		Str("session_id", session.ID.String()).
		Int("sessions", len(broadcaster.sessions)).
		Msg("Viewer session subscribed")
	return session
}

// Unsubscribe is safe to call more than once and after eviction.
func (broadcaster *Broadcaster) Unsubscribe(session *Session) {
	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	broadcaster.remove(session.ID)
}

func (broadcaster *Broadcaster) remove(id uuid.UUID) bool {
	session, found := broadcaster.sessions[id]
	if !found {
		return false
	}
	delete(broadcaster.sessions, id)
	close(session.messages)
	metrics.ViewerSessions.Set(float64(len(broadcaster.sessions)))
	return true
}

// Broadcast queues message on every session and returns how many accepted
// it. A session whose buffer is full is evicted rather than skipped, so a
// session that stays subscribed never misses a message.
func (broadcaster *Broadcaster) Broadcast(message []byte) int {
	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()

	delivered := 0
	var slow []uuid.UUID
	for id, session := range broadcaster.sessions {
		select {
		case session.messages <- message:
			delivered++
		default:
			slow = append(slow, id)
		}
	}

	for _, id := range slow {
		if broadcaster.remove(id) {
			metrics.SlowSessionsEvicted.Inc()
			log.Warn().
				Str("event", "SessionEvicted").
				Str("session_id", id.String()).
				Msg("Evicting slow viewer session")
		}
	}

	metrics.BroadcastsTotal.Inc()
	return delivered
}

func (broadcaster *Broadcaster) Len() int {
	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	return len(broadcaster.sessions)
}

// Close ends every session. Later subscriptions come back already closed.
func (broadcaster *Broadcaster) Close() {
	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()

	if broadcaster.closed {
		return
	}
	broadcaster.closed = true
	for id := range broadcaster.sessions {
		broadcaster.remove(id)
	}
}
