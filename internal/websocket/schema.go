package websocket

import (
	"github.com/pablogaravito/psm1-exam-simulator/internal/exam"
	"github.com/pablogaravito/psm1-exam-simulator/internal/model"
	"github.com/pablogaravito/psm1-exam-simulator/internal/service"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing     Action = "ping"
	ActionState    Action = "state"
	ActionSelect   Action = "select"
	ActionFlag     Action = "flag"
	ActionNavigate Action = "navigate"
	ActionSubmit   Action = "submit"
)

// RequestPayload is every client message. Only the fields relevant to the
// action are read.
type RequestPayload struct {
	Action   Action               `json:"action"`
	Question *int                 `json:"question,omitempty"`
	Option   *int                 `json:"option,omitempty"`
	Move     model.NavigateAction `json:"move,omitempty"`
	Index    *int                 `json:"index,omitempty"`
	Force    bool                 `json:"force,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError         Event = "error"
	EventPong          Event = "pong"
	EventState         Event = "state"
	EventTick          Event = "tick"
	EventConfirm       Event = "confirm_submit"
	EventSubmitted     Event = "submitted"
	EventAutoSubmitted Event = "auto_submitted"
	EventStarted       Event = "started"
	EventRestarted     Event = "restarted"
)

type StateResponse struct {
	Event Event              `json:"event"`
	State *service.ExamState `json:"state"`
}

type TickResponse struct {
	Event Event          `json:"event"`
	Tick  exam.TickEvent `json:"tick"`
}

type ConfirmResponse struct {
	Event      Event `json:"event"`
	Unanswered int   `json:"unanswered"`
}

type SubmittedResponse struct {
	Event   Event         `json:"event"`
	Summary *exam.Summary `json:"summary"`
}

type LifecycleResponse struct {
	Event     Event  `json:"event"`
	AttemptID string `json:"attempt_id"`
}

type ErrorResponse struct {
	Event  Event             `json:"event"`
	Code   string            `json:"code,omitempty"`
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

// FromServiceEvent converts a pushed service event to its wire form.
func FromServiceEvent(ev service.Event) interface{} {
	switch ev.Type {
	case service.EventTick:
		if ev.Tick == nil {
			return nil
		}
		return TickResponse{Event: EventTick, Tick: *ev.Tick}
	case service.EventSubmitted:
		return SubmittedResponse{Event: EventSubmitted, Summary: ev.Summary}
	case service.EventAutoSubmitted:
		return SubmittedResponse{Event: EventAutoSubmitted, Summary: ev.Summary}
	case service.EventStarted:
		return LifecycleResponse{Event: EventStarted, AttemptID: ev.AttemptID.String()}
	case service.EventRestarted:
		return LifecycleResponse{Event: EventRestarted, AttemptID: ev.AttemptID.String()}
	}
	return nil
}
