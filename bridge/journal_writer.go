package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"alabs.org/doorbell-bridge/journal"
	"alabs.org/doorbell-bridge/metrics"
)

const (
	journalTimeout   = time.Second * 2
	journalQueueSize = 256
)

// journalWriter records events on its own goroutine. The relay only ever
// enqueues; when the queue is full the event is dropped and counted.
type journalWriter struct {
	recorder Recorder
	mu       sync.RWMutex
	closed   bool
	events   chan journal.Event
	done     chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc
}

func newJournalWriter(recorder Recorder, queueSize int) *journalWriter {
	ctx, cancel := context.WithCancel(context.Background())
	writer := &journalWriter{
		recorder: recorder,
		events:   make(chan journal.Event, queueSize),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
	go writer.run()
	return writer
}

func (writer *journalWriter) run() {
	defer close(writer.done)
	for event := range writer.events {
		writer.write(event)
	}
}

func (writer *journalWriter) write(event journal.Event) {
	ctx, cancel := context.WithTimeout(writer.ctx, journalTimeout)
	defer cancel()
	if err := writer.recorder.Record(ctx, event); err != nil {
		metrics.JournalErrorsTotal.Inc()
		log.Warn().
			Str("error", err.Error()).
			Str("event", "JournalWrite").
			Str("direction", string(event.Direction)).
			Msg("Failed to record event")
	}
}

func (writer *journalWriter) enqueue(event journal.Event) {
	writer.mu.RLock()
	defer writer.mu.RUnlock()
	if writer.closed {
		return
	}
	select {
	case writer.events <- event:
	default:
		metrics.JournalDroppedTotal.Inc()
		log.Warn().
			Str("event", "JournalDropped").
			Str("direction", string(event.Direction)).
			Str("payload", event.Payload).
			Msg("Journal queue full, event dropped")
	}
}

// close stops accepting events and waits for the queue to drain. When ctx
// ends first, pending writes are cancelled.
func (writer *journalWriter) close(ctx context.Context) error {
	writer.mu.Lock()
	if !writer.closed {
		writer.closed = true
		close(writer.events)
	}
	writer.mu.Unlock()

	select {
	case <-writer.done:
		writer.cancel()
		return nil
	case <-ctx.Done():
		writer.cancel()
		return ctx.Err()
	}
}
