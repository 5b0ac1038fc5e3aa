// Package sse fans a trajectory's stream of events out to whichever HTTP
// handler is holding the connection for it. One Stream exists per
// in-flight /chat/stream call; Hub just routes Publish calls to the right
// Stream by trajectory id.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pckassistant/graph-engine/internal/observability"
	"github.com/pckassistant/graph-engine/internal/pkg/logger"
)

// EventType is the closed set of SSE frame kinds the orchestrator emits.
type EventType string

const (
	EventTypeChunk           EventType = "chunk"
	EventTypeTrajectoryEvent EventType = "trajectory_event"
	EventTypeComplete        EventType = "complete"
	EventTypeError           EventType = "error"
)

// Message is one framed SSE record. ID is a strictly increasing decimal
// string scoped to the stream it belongs to, distinct from a trajectory's
// own event sequenceNum, so a client can resume with Last-Event-ID without
// knowing anything about trajectory internals.
type Message struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// Stream buffers every message it has ever emitted so a reconnecting
// client can replay from lastEventID, and fans new messages out over
// Outbound to whichever handler goroutine is currently attached.
type Stream struct {
	mu       sync.Mutex
	log      *logger.Logger
	seq      int64
	buffer   []Message
	Outbound chan Message
	done     chan struct{}
	closed   bool
}

func newStream(log *logger.Logger) *Stream {
	return &Stream{
		log:      log,
		Outbound: make(chan Message, 32),
		done:     make(chan struct{}),
	}
}

// Emit assigns the next sequence id, records the message for replay, and
// pushes it to the outbound channel if a reader is attached.
func (s *Stream) Emit(eventType EventType, data any) {
	s.mu.Lock()
	s.seq++
	msg := Message{ID: strconv.FormatInt(s.seq, 10), Type: eventType, Data: data}
	s.buffer = append(s.buffer, msg)
	s.mu.Unlock()

	observability.Current().IncSSEEvent(string(eventType))

	select {
	case s.Outbound <- msg:
	default:
		s.log.Warn("dropping SSE message; outbound buffer full", "type", eventType)
	}
}

// Replay returns every buffered message with an id greater than
// lastEventID, in order. An empty or unparsable lastEventID replays
// nothing (the caller is assumed to be starting fresh).
func (s *Stream) Replay(lastEventID string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	last, err := strconv.ParseInt(lastEventID, 10, 64)
	if err != nil {
		return nil
	}
	var out []Message
	for _, m := range s.buffer {
		id, _ := strconv.ParseInt(m.ID, 10, 64)
		if id > last {
			out = append(out, m)
		}
	}
	return out
}

func (s *Stream) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	close(s.done)
}

// Hub tracks one Stream per in-flight trajectory. Streams are removed once
// their handler finishes serving the HTTP response.
type Hub struct {
	mu      sync.Mutex
	log     *logger.Logger
	streams map[uuid.UUID]*Stream
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{log: log.With("component", "SSEHub"), streams: make(map[uuid.UUID]*Stream)}
}

func (h *Hub) Open(trajectoryID uuid.UUID) *Stream {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := newStream(h.log.With("trajectoryID", trajectoryID))
	h.streams[trajectoryID] = s
	return s
}

func (h *Hub) Close(trajectoryID uuid.UUID) {
	h.mu.Lock()
	s, ok := h.streams[trajectoryID]
	delete(h.streams, trajectoryID)
	h.mu.Unlock()
	if ok {
		s.Close()
	}
}

func (h *Hub) Get(trajectoryID uuid.UUID) (*Stream, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.streams[trajectoryID]
	return s, ok
}

// ServeHTTP writes stream as an SSE response, replaying buffered messages
// newer than the request's Last-Event-ID header before switching to live
// forwarding. It returns once the stream closes or the client disconnects.
func ServeHTTP(w http.ResponseWriter, r *http.Request, stream *Stream) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	lastEventID := r.Header.Get("Last-Event-ID")
	if lastEventID == "" {
		lastEventID = r.URL.Query().Get("lastEventId")
	}
	for _, msg := range stream.Replay(lastEventID) {
		writeMessage(w, msg)
	}
	flusher.Flush()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()
	ctx := r.Context()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stream.done:
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg, ok := <-stream.Outbound:
			if !ok {
				return
			}
			writeMessage(w, msg)
			flusher.Flush()
		}
	}
}

func writeMessage(w http.ResponseWriter, msg Message) {
	payload, err := json.Marshal(msg.Data)
	if err != nil {
		payload = []byte(`{}`)
	}
	fmt.Fprintf(w, "id: %s\n", msg.ID)
	fmt.Fprintf(w, "event: %s\n", msg.Type)
	fmt.Fprintf(w, "data: %s\n\n", payload)
}
