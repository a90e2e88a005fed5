package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pablogaravito/psm1-exam-simulator/internal/model"
	"github.com/pablogaravito/psm1-exam-simulator/internal/response"
	"github.com/pablogaravito/psm1-exam-simulator/internal/service"
	"github.com/pablogaravito/psm1-exam-simulator/internal/validator"
	ws "github.com/pablogaravito/psm1-exam-simulator/internal/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams the attempt over a WebSocket: timer ticks and
// submissions are pushed, and gestures can be sent back on the same socket.
type WSHandler struct {
	examService *service.ExamService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(examService *service.ExamService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		examService: examService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// ExamStream godoc
// WS /ws/v1/exam/stream
// Upgrades to WebSocket for the live countdown and in-band gestures.
func (h *WSHandler) ExamStream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	w := ws.NewWriter(conn)
	wsLog := h.log.With().Str("remote", c.ClientIP()).Logger()
	wsLog.Info().Msg("Client connected")

	events, unsubscribe := h.examService.Subscribe()
	defer unsubscribe()

	go func() {
		for ev := range events {
			msg := ws.FromServiceEvent(ev)
			if msg == nil {
				continue
			}
			if err := w.WriteTyped(msg); err != nil {
				wsLog.Debug().Err(err).Msg("Event push failed")
				return
			}
		}
	}()

	if err := h.sendState(w); err != nil {
		wsLog.Debug().Err(err).Msg("Initial state write failed")
		return
	}

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		if err := h.dispatch(w, &msg, wsLog); err != nil {
			wsLog.Debug().Err(err).Str("action", string(msg.Action)).Msg("Reply write failed")
			return
		}
	}
}

// dispatch runs one gesture and writes its reply. A non-nil error means the
// socket can no longer be written to.
func (h *WSHandler) dispatch(w *ws.Writer, msg *ws.RequestPayload, log zerolog.Logger) error {
	switch msg.Action {
	case ws.ActionPing:
		return w.WriteTyped(ws.PongResponse{Event: ws.EventPong})
	case ws.ActionState:
		return h.sendState(w)
	case ws.ActionSelect:
		return h.handleSelect(w, msg)
	case ws.ActionFlag:
		return h.handleFlag(w, msg)
	case ws.ActionNavigate:
		return h.handleNavigate(w, msg)
	case ws.ActionSubmit:
		return h.handleSubmit(w, msg)
	default:
		log.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
		return w.WriteError(string(response.ErrInvalidPayload), "unknown action: "+string(msg.Action), nil)
	}
}

func (h *WSHandler) sendState(w *ws.Writer) error {
	st, err := h.examService.State()
	return h.reply(w, st, err)
}

func (h *WSHandler) handleSelect(w *ws.Writer, msg *ws.RequestPayload) error {
	if msg.Question == nil || msg.Option == nil {
		return w.WriteError(string(response.ErrValidation), "question and option are required", nil)
	}
	st, err := h.examService.SelectOption(*msg.Question, *msg.Option)
	return h.reply(w, st, err)
}

func (h *WSHandler) handleFlag(w *ws.Writer, msg *ws.RequestPayload) error {
	if msg.Question == nil {
		return w.WriteError(string(response.ErrValidation), "question is required", nil)
	}
	st, err := h.examService.ToggleFlag(*msg.Question)
	return h.reply(w, st, err)
}

func (h *WSHandler) handleNavigate(w *ws.Writer, msg *ws.RequestPayload) error {
	req := model.NavigateRequest{Action: msg.Move, Index: msg.Index}
	if fields := validator.Struct(&req); fields != nil {
		return w.WriteError(string(response.ErrValidation), response.GetMessage(response.ErrValidation), fields)
	}
	st, err := h.examService.Navigate(req)
	return h.reply(w, st, err)
}

// handleSubmit answers with a confirmation request or leaves the summary to
// the event pump, which every connected client receives.
func (h *WSHandler) handleSubmit(w *ws.Writer, msg *ws.RequestPayload) error {
	res, err := h.examService.Submit(msg.Force)
	if err != nil {
		return h.reply(w, nil, err)
	}
	switch {
	case res.ConfirmationRequired:
		return w.WriteTyped(ws.ConfirmResponse{Event: ws.EventConfirm, Unanswered: res.Unanswered})
	case res.AlreadySubmitted:
		return w.WriteTyped(ws.SubmittedResponse{Event: ws.EventSubmitted, Summary: res.Summary})
	}
	return nil
}

func (h *WSHandler) reply(w *ws.Writer, st *service.ExamState, err error) error {
	if err != nil {
		_, code := StatusFor(err)
		return w.WriteError(string(code), response.GetMessage(code), nil)
	}
	return w.WriteTyped(ws.StateResponse{Event: ws.EventState, State: st})
}
