package exam

import (
	"fmt"
	"sort"
	"time"

	"github.com/pablogaravito/psm1-exam-simulator/internal/model"
)

// State enumerates the lifecycle states of a Session.
type State string

const (
	StateSetup      State = "SETUP"
	StateInProgress State = "IN_PROGRESS"
	StateSubmitted  State = "SUBMITTED"
)

// Result is the scored outcome of one question.
type Result string

const (
	ResultUnscored  Result = "unscored"
	ResultCorrect   Result = "correct"
	ResultIncorrect Result = "incorrect"
)

// TimerLevel is the visual urgency of the countdown.
type TimerLevel string

const (
	TimerNormal   TimerLevel = ""
	TimerWarning  TimerLevel = "warning"
	TimerCritical TimerLevel = "critical"
)

// Countdown thresholds, in seconds remaining.
const (
	WarningThreshold  = 600
	CriticalThreshold = 300
)

// Clock returns the current time. Tests substitute a fake.
type Clock func() time.Time

// SessionOption customises a Session at construction.
type SessionOption func(*Session)

// WithClock sets the clock used for start and submission timestamps.
func WithClock(c Clock) SessionOption {
	return func(s *Session) {
		if c != nil {
			s.now = c
		}
	}
}

// Session holds the mutable state of one exam attempt. It is not safe for
// concurrent use; callers serialise every operation.
type Session struct {
	questions []model.ExamQuestion
	current   int
	answers   [][]int
	flags     []bool
	results   []Result

	timed        bool
	remaining    int
	timerStopped bool
	timerLevel   TimerLevel

	startedAt   time.Time
	submittedAt time.Time
	state       State
	summary     *Summary

	now Clock
}

// NewSession creates a session in the Setup state. The question slice is
// owned by the session from here on.
func NewSession(questions []model.ExamQuestion, opts ...SessionOption) *Session {
	s := &Session{
		questions: questions,
		state:     StateSetup,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start moves the session to InProgress. A timeLimitSeconds of zero or less
// runs the attempt untimed.
func (s *Session) Start(timeLimitSeconds int) error {
	if s.state != StateSetup {
		return ErrAlreadyStarted
	}
	if len(s.questions) == 0 {
		return ErrNoQuestions
	}

	n := len(s.questions)
	s.answers = make([][]int, n)
	s.flags = make([]bool, n)
	s.results = make([]Result, n)
	for i := range s.results {
		s.results[i] = ResultUnscored
	}

	s.current = 0
	s.startedAt = s.now()
	s.state = StateInProgress

	if timeLimitSeconds > 0 {
		s.timed = true
		s.remaining = timeLimitSeconds
	}
	return nil
}

// SelectOption records a gesture on an option. Single-answer questions keep
// exactly the chosen option; multiple-answer questions toggle it.
// After submission the call is silently ignored.
func (s *Session) SelectOption(questionIndex, optionIndex int) error {
	if err := s.checkQuestion(questionIndex); err != nil {
		return err
	}
	q := &s.questions[questionIndex]
	if optionIndex < 0 || optionIndex >= len(q.Options) {
		return fmt.Errorf("%w: option %d of %d", ErrIndexOutOfRange, optionIndex, len(q.Options))
	}
	if s.state == StateSubmitted {
		return nil
	}

	if !q.MultipleCorrect {
		s.answers[questionIndex] = []int{optionIndex}
		return nil
	}

	sel := s.answers[questionIndex]
	pos := sort.SearchInts(sel, optionIndex)
	if pos < len(sel) && sel[pos] == optionIndex {
		s.answers[questionIndex] = append(sel[:pos:pos], sel[pos+1:]...)
		return nil
	}

	next := make([]int, 0, len(sel)+1)
	next = append(next, sel[:pos]...)
	next = append(next, optionIndex)
	next = append(next, sel[pos:]...)
	s.answers[questionIndex] = next
	return nil
}

// ToggleFlag flips the review flag of a question. Ignored after submission.
func (s *Session) ToggleFlag(questionIndex int) error {
	if err := s.checkQuestion(questionIndex); err != nil {
		return err
	}
	if s.state == StateSubmitted {
		return nil
	}
	s.flags[questionIndex] = !s.flags[questionIndex]
	return nil
}

// GoTo moves to the given question. It stays valid after submission so the
// attempt can be reviewed; out of range indices are rejected, never clamped.
func (s *Session) GoTo(index int) error {
	if err := s.checkQuestion(index); err != nil {
		return err
	}
	s.current = index
	return nil
}

// Next moves forward one question; no-op on the last one.
func (s *Session) Next() error {
	if s.state == StateSetup {
		return ErrNotStarted
	}
	if s.current < len(s.questions)-1 {
		s.current++
	}
	return nil
}

// Previous moves back one question; no-op on the first one.
func (s *Session) Previous() error {
	if s.state == StateSetup {
		return ErrNotStarted
	}
	if s.current > 0 {
		s.current--
	}
	return nil
}

// TickEvent describes the effect of one timer tick.
type TickEvent struct {
	Applied       bool       `json:"applied"`
	Remaining     int        `json:"remaining_seconds"`
	Display       string     `json:"display"`
	Crossed       TimerLevel `json:"crossed,omitempty"`
	AutoSubmitted bool       `json:"auto_submitted"`
	Summary       *Summary   `json:"summary,omitempty"`
}

// Tick advances the countdown by one second. When it reaches zero the
// attempt is submitted without confirmation. Ticks on an untimed, stopped
// or submitted session have no effect.
func (s *Session) Tick() TickEvent {
	if s.state != StateInProgress || !s.timed || s.timerStopped {
		return TickEvent{Remaining: s.remaining, Display: FormatClock(s.remaining)}
	}

	s.remaining--
	ev := TickEvent{Applied: true, Remaining: s.remaining, Display: FormatClock(s.remaining)}

	switch s.remaining {
	case WarningThreshold:
		s.timerLevel = TimerWarning
		ev.Crossed = TimerWarning
	case CriticalThreshold:
		s.timerLevel = TimerCritical
		ev.Crossed = TimerCritical
	}

	if s.remaining <= 0 {
		s.remaining = 0
		ev.Remaining = 0
		ev.Display = FormatClock(0)
		s.finish()
		ev.AutoSubmitted = true
		ev.Summary = s.summary
	}
	return ev
}

// SubmitOutcome reports what a Submit call did.
type SubmitOutcome struct {
	ConfirmationRequired bool     `json:"confirmation_required"`
	Unanswered           int      `json:"unanswered"`
	AlreadySubmitted     bool     `json:"already_submitted"`
	Summary              *Summary `json:"summary,omitempty"`
}

// Submit finishes the attempt. Without force and with unanswered questions
// it only reports the count and leaves the session untouched, so the caller
// can ask for confirmation and call again with force set.
func (s *Session) Submit(force bool) (SubmitOutcome, error) {
	switch s.state {
	case StateSetup:
		return SubmitOutcome{}, ErrNotStarted
	case StateSubmitted:
		return SubmitOutcome{AlreadySubmitted: true, Summary: s.summary}, nil
	}

	unanswered := s.UnansweredCount()
	if !force && unanswered > 0 {
		return SubmitOutcome{ConfirmationRequired: true, Unanswered: unanswered}, nil
	}

	s.finish()
	return SubmitOutcome{Unanswered: unanswered, Summary: s.summary}, nil
}

// finish stops the timer, freezes the attempt and scores it.
func (s *Session) finish() {
	s.timerStopped = true
	s.submittedAt = s.now()
	s.state = StateSubmitted

	summary := Score(s.questions, s.answers, s.startedAt, s.submittedAt)
	s.results = summary.Results
	s.summary = &summary
}

func (s *Session) checkQuestion(index int) error {
	if s.state == StateSetup {
		return ErrNotStarted
	}
	if index < 0 || index >= len(s.questions) {
		return fmt.Errorf("%w: question %d of %d", ErrIndexOutOfRange, index, len(s.questions))
	}
	return nil
}

// ─── Read accessors ──────────────────────────────────────────────────────

func (s *Session) State() State         { return s.state }
func (s *Session) Submitted() bool      { return s.state == StateSubmitted }
func (s *Session) CurrentIndex() int    { return s.current }
func (s *Session) Len() int             { return len(s.questions) }
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Question returns the question at index i.
func (s *Session) Question(i int) (model.ExamQuestion, error) {
	if i < 0 || i >= len(s.questions) {
		return model.ExamQuestion{}, fmt.Errorf("%w: question %d of %d", ErrIndexOutOfRange, i, len(s.questions))
	}
	return s.questions[i], nil
}

// Selection returns a copy of the selected option indices for question i,
// in ascending order. Nil means unanswered.
func (s *Session) Selection(i int) []int {
	if i < 0 || i >= len(s.answers) || len(s.answers[i]) == 0 {
		return nil
	}
	out := make([]int, len(s.answers[i]))
	copy(out, s.answers[i])
	return out
}

// Flagged reports whether question i is flagged for review.
func (s *Session) Flagged(i int) bool {
	return i >= 0 && i < len(s.flags) && s.flags[i]
}

// Result returns the scored outcome of question i; unscored before submission.
func (s *Session) Result(i int) Result {
	if i < 0 || i >= len(s.results) {
		return ResultUnscored
	}
	return s.results[i]
}

// Remaining returns the seconds left and whether the attempt is timed.
func (s *Session) Remaining() (int, bool) {
	return s.remaining, s.timed
}

// TimerLevel returns the urgency level reached by the countdown so far.
func (s *Session) TimerLevel() TimerLevel { return s.timerLevel }

// Summary returns the score summary, or nil before submission.
func (s *Session) Summary() *Summary { return s.summary }

// AnsweredCount returns how many questions have a non-empty selection.
func (s *Session) AnsweredCount() int {
	n := 0
	for _, a := range s.answers {
		if len(a) > 0 {
			n++
		}
	}
	return n
}

// UnansweredCount returns how many questions have no selection.
func (s *Session) UnansweredCount() int {
	return len(s.answers) - s.AnsweredCount()
}
