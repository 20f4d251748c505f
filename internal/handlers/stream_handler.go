package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/anonto42/research-hub/backend/internal/events"
	"github.com/anonto42/research-hub/backend/internal/projection"
	"github.com/labstack/echo/v4"
)

// StreamHandler serves real-time updates over Server-Sent Events. Each
// connection holds exactly one broker subscription, released when the
// client disconnects.
type StreamHandler struct {
	broker    *events.Broker
	projector *projection.Projector
}

// NewStreamHandler creates a new StreamHandler
func NewStreamHandler(broker *events.Broker, projector *projection.Projector) *StreamHandler {
	return &StreamHandler{broker: broker, projector: projector}
}

// RegisterStreamRoutes registers SSE routes
func (h *StreamHandler) RegisterStreamRoutes(g *echo.Group) {
	g.GET("/stream", h.Stream)
	g.GET("/stream/incoming-requests", h.StreamIncomingRequests)
}

// Stream pushes every event addressed to the caller as it happens
func (h *StreamHandler) Stream(c echo.Context) error {
	uid := getUIDFromContext(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	flusher, err := sseStart(c)
	if err != nil {
		return err
	}

	sub := h.broker.Subscribe(uid)
	defer sub.Close()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-sub.C:
			if !ok {
				return nil
			}
			if err := sseWrite(c, flusher, event.Type, event.Data); err != nil {
				return nil
			}
		}
	}
}

// StreamIncomingRequests pushes the live incoming follow-request view: an
// immediate snapshot, then a fresh one after every change
func (h *StreamHandler) StreamIncomingRequests(c echo.Context) error {
	uid := getUIDFromContext(c)
	if uid == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	flusher, err := sseStart(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	views, stop := h.projector.WatchIncomingRequests(ctx, uid)
	defer stop()

	for view := range views {
		data, err := json.Marshal(view)
		if err != nil {
			continue
		}
		if err := sseWrite(c, flusher, "incoming_requests", data); err != nil {
			return nil
		}
	}
	return nil
}

func sseStart(c echo.Context) (http.Flusher, error) {
	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Streaming not supported")
	}
	flusher.Flush()
	return flusher, nil
}

func sseWrite(c echo.Context, flusher http.Flusher, eventType string, data []byte) error {
	if _, err := fmt.Fprintf(c.Response(), "event: %s\ndata: %s\n\n", eventType, data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
