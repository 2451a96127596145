package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"ocp-installer-helper/internal/pkg/logger"
	"ocp-installer-helper/internal/service"
)

const writeWait = 10 * time.Second

// StreamHandler pushes mirror task output to the browser over a websocket.
type StreamHandler struct {
	tasks    *service.MirrorTaskService
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewStreamHandler accepts websocket upgrades from allowedOrigins and from
// clients that send no Origin header.
func NewStreamHandler(tasks *service.MirrorTaskService, allowedOrigins []string, logger *logger.Logger) *StreamHandler {
	return &StreamHandler{
		tasks: tasks,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || lo.Contains(allowedOrigins, origin) || lo.Contains(allowedOrigins, "*")
			},
		},
		logger: logger,
	}
}

func (h *StreamHandler) Stream(c *gin.Context) {
	taskID := c.Param("taskId")
	history, lines, cancel, err := h.tasks.Subscribe(taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	defer cancel()

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warnf("websocket upgrade failed: %v", err)
		return
	}
	defer ws.Close()

	// The client only listens; a read error means it went away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(line string) bool {
		_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := ws.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			h.logger.With("task", taskID).Warnf("websocket write failed: %v", err)
			return false
		}
		return true
	}

	for _, line := range history {
		if !send(line) {
			return
		}
	}

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				_ = ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "task finished"),
					time.Now().Add(writeWait))
				return
			}
			if !send(line) {
				return
			}
		case <-gone:
			return
		}
	}
}
