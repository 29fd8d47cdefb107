package handlers

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/netfleet/backend/internal/core/ports"
	"github.com/netfleet/backend/internal/infrastructure/logger"
)

// EventsHandler streams one task's event feed over a WebSocket. Recent
// history is replayed first; the socket closes after the terminal event.
type EventsHandler struct {
	runner ports.TaskRunner
	bus    ports.Broadcaster
	logger *logger.Logger
}

func NewEventsHandler(runner ports.TaskRunner, bus ports.Broadcaster, logger *logger.Logger) *EventsHandler {
	return &EventsHandler{runner: runner, bus: bus, logger: logger}
}

func (h *EventsHandler) Handle(c *websocket.Conn) {
	taskID := c.Params("id")

	if _, err := h.runner.Get(taskID); err != nil {
		h.logger.Warnw("events_task_not_found", "task_id", taskID)
		c.WriteJSON(map[string]string{"error": "task not found"})
		c.Close()
		return
	}

	sub := h.bus.Subscribe(taskID)
	defer sub.Close()

	h.logger.Infow("events_subscriber_attached", "task_id", taskID)

	// Drain client frames so we notice a disconnect while we only write.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				// Terminal event delivered; close the stream cleanly.
				c.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "task finished"))
				c.Close()
				h.logger.Infow("events_stream_finished", "task_id", taskID)
				return
			}
			if err := c.WriteJSON(ev); err != nil {
				h.logger.Warnw("events_write_failed", "task_id", taskID, "error", err)
				c.Close()
				return
			}
		case <-gone:
			h.logger.Infow("events_subscriber_detached", "task_id", taskID)
			return
		}
	}
}
