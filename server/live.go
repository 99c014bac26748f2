package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"alabs.org/doorbell-bridge/bridge"
)

const (
	writeWait  = time.Second * 5
	pongWait   = time.Second * 60
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleWebSocket streams the joining snapshot followed by every relayed
// message until the viewer goes away or falls too far behind.
func (server *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().
			Str("error", err.Error()).
			Str("event", "WebSocketUpgrade").
			Msg("Failed to upgrade websocket")
		return
	}
	defer conn.Close()

	snapshot, session := server.bridge.Join()
	defer server.bridge.Leave(session)

	log.Info().
		Str("event", "ViewerJoined").
		Str("session_id", session.ID.String()).
		Str("transport", "websocket").
		Msg("Viewer connected")

	// The read pump only handles control frames and notices the close.
	closed := make(chan struct{})
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(messageType int, data []byte) error {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(messageType, data)
	}

	if err := write(websocket.TextMessage, bridge.StatusEvent(snapshot)); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-session.Messages():
			if !ok {
				write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "session ended"))
				log.Info().
					Str("event", "ViewerDropped").
					Str("session_id", session.ID.String()).
					Msg("Viewer session ended by broadcaster")
				return
			}
			if err := write(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			if err := write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			log.Info().
				Str("event", "ViewerLeft").
				Str("session_id", session.ID.String()).
				Msg("Viewer disconnected")
			return
		case <-r.Context().Done():
			write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
			return
		}
	}
}

// handleStream is the Server-Sent Events form of the live channel.
func (server *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	snapshot, session := server.bridge.Join()
	defer server.bridge.Leave(session)

	log.Info().
		Str("event", "ViewerJoined").
		Str("session_id", session.ID.String()).
		Str("transport", "sse").
		Msg("Viewer connected")

	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", bridge.EventStatus, bridge.StatusEvent(snapshot))
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case message, ok := <-session.Messages():
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", bridge.EventMQTTMessage, message)
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}
