package realtime

import (
	"strings"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

type RealtimeController struct {
	Hub    *Hub
	Logger *zap.Logger
}

func NewRealtimeController(hub *Hub, logger *zap.Logger) *RealtimeController {
	return &RealtimeController{Hub: hub, Logger: logger}
}

// HandleWebSocket streams changes for ?tables=a,b until the client goes away
func (h *RealtimeController) HandleWebSocket(c *websocket.Conn) {
	var tables []string
	if raw := c.Query("tables"); raw != "" {
		tables = strings.Split(raw, ",")
	}

	sub := h.Hub.Subscribe(tables...)
	defer sub.Close()

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
		case <-gone:
			return
		case change, ok := <-sub.C:
			if !ok {
				return
			}
			if err := c.WriteJSON(change); err != nil {
				h.Logger.Debug("realtime write failed", zap.Error(err))
				return
			}
		}
	}
}
