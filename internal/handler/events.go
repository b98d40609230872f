package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/resbox/resbox-core/internal/bridge"
	apperrors "github.com/resbox/resbox-core/internal/errors"
	"github.com/resbox/resbox-core/internal/httputil"
	"github.com/resbox/resbox-core/internal/sse"
)

// EventsHandler streams processed orchestrator events to external UIs.
type EventsHandler struct {
	broker *sse.Broker
	ui     UI
}

func NewEventsHandler(broker *sse.Broker, ui UI) *EventsHandler {
	return &EventsHandler{broker: broker, ui: ui}
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.WriteError(w, apperrors.Internal("Streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := h.broker.Subscribe(bridge.Topic)
	defer h.broker.Unsubscribe(client)

	log.Info().
		Str("topic", bridge.Topic).
		Int("clientCount", h.broker.ClientCount(bridge.Topic)).
		Msg("sse connection established")

	// The snapshot lets a late subscriber render before the next event.
	if err := h.sendEvent(w, flusher, "state", h.ui.Snapshot()); err != nil {
		log.Debug().Err(err).Msg("failed to send initial state")
		return
	}

	ctx := r.Context()
	heartbeat := time.NewTicker(sse.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("sse connection closed by client")
			return

		case <-client.Done:
			log.Info().Msg("sse connection closed by broker")
			return

		case event := <-client.Events:
			if err := h.sendRawEvent(w, flusher, event); err != nil {
				log.Error().Err(err).Msg("failed to send event")
				return
			}

		case <-heartbeat.C:
			if _, err := fmt.Fprintf(w, ": ping\n\n"); err != nil {
				log.Debug().Msg("heartbeat failed, closing connection")
				return
			}
			flusher.Flush()
		}
	}
}

func (h *EventsHandler) sendEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return h.sendRawEvent(w, flusher, sse.Event{Type: eventType, Data: jsonData})
}

func (h *EventsHandler) sendRawEvent(w http.ResponseWriter, flusher http.Flusher, event sse.Event) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", event.Type); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", event.Data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
