package service

import (
	"github.com/google/uuid"
	"github.com/pablogaravito/psm1-exam-simulator/internal/exam"
)

// EventType names a change pushed to subscribers.
type EventType string

const (
	EventStarted       EventType = "started"
	EventTick          EventType = "tick"
	EventSubmitted     EventType = "submitted"
	EventAutoSubmitted EventType = "auto_submitted"
	EventRestarted     EventType = "restarted"
)

// eventBuffer bounds how far a slow subscriber may lag before events
// addressed to it are dropped.
const eventBuffer = 32

// Event is pushed to subscribers when the attempt changes on its own
// (timer) or through another front-end.
type Event struct {
	Type      EventType       `json:"type"`
	AttemptID uuid.UUID       `json:"attempt_id"`
	Tick      *exam.TickEvent `json:"tick,omitempty"`
	Summary   *exam.Summary   `json:"summary,omitempty"`
}

// Subscribe registers a listener. The returned function unsubscribes and
// may be called more than once.
func (s *ExamService) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Event, eventBuffer)
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			close(c)
			delete(s.subs, id)
		}
	}
}

func (s *ExamService) publishLocked(ev Event) {
	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.log.Warn().Int("subscriber", id).Str("event", string(ev.Type)).Msg("Subscriber lagging, event dropped")
		}
	}
}
