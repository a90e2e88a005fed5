package handler

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pablogaravito/psm1-exam-simulator/internal/service"
	"github.com/rs/zerolog"
)

const keepAliveInterval = 30 * time.Second

// MonitorHandler streams attempt events over Server-Sent Events, for
// clients that only need to watch the countdown.
type MonitorHandler struct {
	examService *service.ExamService
	log         zerolog.Logger
}

func NewMonitorHandler(examService *service.ExamService, log zerolog.Logger) *MonitorHandler {
	return &MonitorHandler{
		examService: examService,
		log:         log.With().Str("component", "monitor_handler").Logger(),
	}
}

// ExamEventsSSE godoc
// GET /api/v1/exam/events
func (h *MonitorHandler) ExamEventsSSE(c *gin.Context) {
	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	events, unsubscribe := h.examService.Subscribe()
	defer unsubscribe()

	// Initial snapshot so a late watcher sees the clock immediately.
	if st, err := h.examService.State(); err == nil {
		h.write(c, "state", st)
	}

	keepAliveTicker := time.NewTicker(keepAliveInterval)
	defer keepAliveTicker.Stop()

	pingPayload, _ := json.Marshal(map[string]string{"type": "ping"})

	h.log.Debug().Msg("Watcher attached")

	for {
		select {
		case <-reqCtx.Done():
			h.log.Debug().Msg("Watcher detached")
			return

		case ev, ok := <-events:
			if !ok {
				return
			}
			h.write(c, string(ev.Type), ev)

		case <-keepAliveTicker.C:
			c.Writer.Write([]byte("data: "))
			c.Writer.Write(pingPayload)
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}

func (h *MonitorHandler) write(c *gin.Context, event string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		h.log.Error().Err(err).Msg("Encode event")
		return
	}
	c.Writer.Write([]byte("event: " + event + "\n"))
	c.Writer.Write([]byte("data: "))
	c.Writer.Write(data)
	c.Writer.Write([]byte("\n\n"))
	c.Writer.Flush()
}
