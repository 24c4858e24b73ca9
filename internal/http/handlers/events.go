package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"dispatch-console/internal/broadcast"
	"dispatch-console/internal/logx"
)

// EventsHandler bridges broker subscriptions onto SSE connections. Managers
// get the full operation stream; a partner gets its own channel.
type EventsHandler struct {
	source eventSource
	logger logx.Logger
}

// NewEventsHandler wires the broker into an SSE endpoint.
func NewEventsHandler(logger logx.Logger, source eventSource) *EventsHandler {
	return &EventsHandler{source: source, logger: logger}
}

// Stream handles GET /events. The connection closes when the client goes
// away or when the subscriber is dropped for falling behind; a dropped client
// reconnects and re-reads current state from the regular endpoints.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(h.logger, w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(h.logger, w, r, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	channel := broadcast.ManagerChannel
	if !caller.IsManager() {
		channel = broadcast.PartnerChannel(caller.PartnerID)
	}

	sub := h.source.Subscribe(channel)
	defer h.source.Unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-sub.Events():
			if !open {
				// dropped or broker shutdown; client must resync
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				h.logger.Error("event encode failed", logx.Err(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
