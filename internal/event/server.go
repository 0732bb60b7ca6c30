// Package event exposes the domain event bus as a server-sent-events stream
// so clients (e.g. a board UI) can react to changes without polling.
package event

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/liteplan/liteplan/internal/eventbus"
)

const subscriberBufferSize = 16

type Server struct {
	eventBus *eventbus.Bus
}

func NewServer(eventBus *eventbus.Bus) *Server {
	return &Server{eventBus: eventBus}
}

// Stream subscribes the client and writes one SSE message per bus event
// until the client disconnects. Slow clients miss events rather than block
// publishers (the bus drops on a full buffer).
func (s *Server) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	id, ch := s.eventBus.Subscribe(subscriberBufferSize)
	defer s.eventBus.Unsubscribe(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				slog.ErrorContext(ctx, "failed to marshal event", "error", err)
				continue
			}
			if _, err := w.Write([]byte("data: ")); err != nil {
				return
			}
			if _, err := w.Write(data); err != nil {
				return
			}
			if _, err := w.Write([]byte("\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
