// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/danielhkuo/campus-tally/directory"
	"github.com/danielhkuo/campus-tally/metrics"
	"github.com/danielhkuo/campus-tally/middleware"
	"github.com/danielhkuo/campus-tally/models"
	"github.com/danielhkuo/campus-tally/notify"
)

const DefaultHeartbeat = 15 * time.Second

// UpdatesHandler pushes "results changed" markers to viewers. Markers
// carry no counts; clients refetch results when one arrives.
type UpdatesHandler struct {
	elections directory.Directory
	hub       *notify.Hub
	metrics   *metrics.TallyMetrics
	heartbeat time.Duration
}

func NewUpdatesHandler(elections directory.Directory, hub *notify.Hub, m *metrics.TallyMetrics, heartbeat time.Duration) *UpdatesHandler {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return &UpdatesHandler{elections: elections, hub: hub, metrics: m, heartbeat: heartbeat}
}

// Stream handles GET /elections/{id}/updates and GET /elections/updates
// as server-sent events
func (h *UpdatesHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sub, ok := h.subscribe(w, r)
	if !ok {
		return
	}
	defer h.unsubscribe(sub)

	flusher, ok := w.(http.Flusher)
	if !ok {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprint(w, "data: connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			data, err := json.Marshal(models.ChangeEvent{ElectionID: ev.ElectionID, At: ev.At})
			if err != nil {
				slog.Error("failed to encode change event", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: update\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// WebSocket handles GET /elections/{id}/updates/ws. Each change is one
// JSON text message.
func (h *UpdatesHandler) WebSocket(w http.ResponseWriter, r *http.Request) {
	sub, ok := h.subscribe(w, r)
	if !ok {
		return
	}
	defer h.unsubscribe(sub)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	// Viewers never send; CloseRead cancels ctx when they go away
	ctx := conn.CloseRead(r.Context())

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C():
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			data, err := json.Marshal(models.ChangeEvent{ElectionID: ev.ElectionID, At: ev.At})
			if err != nil {
				slog.Error("failed to encode change event", "error", err)
				continue
			}
			if err := writeTimeout(ctx, conn, data, h.heartbeat); err != nil {
				if !errors.Is(err, context.Canceled) {
					slog.Info("websocket viewer dropped", "subscription_id", sub.ID, "error", err)
				}
				return
			}
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, h.heartbeat)
			err := conn.Ping(pctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

// subscribe validates the election id, if any, and registers a subscription
func (h *UpdatesHandler) subscribe(w http.ResponseWriter, r *http.Request) (*notify.Subscription, bool) {
	electionID := r.PathValue("id")
	if electionID == "" {
		return h.track(h.hub.Subscribe()), true
	}

	if _, err := h.elections.Election(r.Context(), electionID); err != nil {
		writeDirectoryError(w, err, electionID)
		return nil, false
	}
	return h.track(h.hub.Subscribe(electionID)), true
}

func (h *UpdatesHandler) track(sub *notify.Subscription) *notify.Subscription {
	if h.metrics != nil {
		h.metrics.Subscribers.Inc()
	}
	return sub
}

func (h *UpdatesHandler) unsubscribe(sub *notify.Subscription) {
	if dropped := sub.Dropped(); dropped > 0 {
		slog.Info("viewer fell behind", "subscription_id", sub.ID, "dropped", dropped)
	}
	sub.Close()
	if h.metrics != nil {
		h.metrics.Subscribers.Dec()
	}
}

func writeTimeout(ctx context.Context, conn *websocket.Conn, data []byte, d time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}
