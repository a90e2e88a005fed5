package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pablogaravito/psm1-exam-simulator/internal/exam"
	"github.com/pablogaravito/psm1-exam-simulator/internal/model"
	"github.com/pablogaravito/psm1-exam-simulator/internal/worker"
	"github.com/rs/zerolog"
)

// Domain Errors
var (
	ErrNoActiveExam = errors.New("no exam in progress")
	ErrNotSubmitted = errors.New("exam has not been submitted")
)

// BankProvider returns the shared question bank.
type BankProvider interface {
	Bank(ctx context.Context) (*model.Bank, error)
}

// ExamService owns the single exam attempt held by the process. Every
// stimulus (HTTP request, socket message, CLI command, timer tick) goes
// through mu, so the session sees them one at a time.
type ExamService struct {
	bank         BankProvider
	rng          exam.Rand
	clock        exam.Clock
	tickInterval time.Duration
	log          zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	attempt *attempt
	subs    map[int]chan Event
	nextSub int
}

type attempt struct {
	id      uuid.UUID
	config  model.ExamConfig
	session *exam.Session
	timer   *worker.TickWorker
}

// ExamServiceOption customises an ExamService.
type ExamServiceOption func(*ExamService)

// WithRand sets the random source used for selection and shuffling.
func WithRand(rng exam.Rand) ExamServiceOption {
	return func(s *ExamService) { s.rng = rng }
}

// WithClock sets the clock used for attempt timestamps.
func WithClock(c exam.Clock) ExamServiceOption {
	return func(s *ExamService) { s.clock = c }
}

// WithTickInterval sets the countdown interval. Zero disables the timer
// goroutine; the countdown then only moves through Tick.
func WithTickInterval(d time.Duration) ExamServiceOption {
	return func(s *ExamService) { s.tickInterval = d }
}

// NewExamService creates a new ExamService.
func NewExamService(bank BankProvider, log zerolog.Logger, opts ...ExamServiceOption) *ExamService {
	ctx, cancel := context.WithCancel(context.Background())
	s := &ExamService{
		bank:         bank,
		rng:          exam.DefaultRand,
		clock:        time.Now,
		tickInterval: worker.DefaultTickInterval,
		log:          log.With().Str("component", "exam_service").Logger(),
		ctx:          ctx,
		cancel:       cancel,
		subs:         make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ─── Snapshots ──────────────────────────────────────────────────────────────

// ExamState is a read-only snapshot of the attempt for presentation.
type ExamState struct {
	AttemptID  uuid.UUID          `json:"attempt_id"`
	Status     exam.State         `json:"status"`
	Config     model.ExamConfig   `json:"config"`
	Question   *exam.QuestionView `json:"question,omitempty"`
	Navigation []exam.NavItem     `json:"navigation"`
	Progress   exam.Progress      `json:"progress"`
	Summary    *exam.Summary      `json:"summary,omitempty"`
}

// StartResult is returned by Start.
type StartResult struct {
	State     *ExamState `json:"state"`
	Requested int        `json:"requested"`
	Selected  int        `json:"selected"`
	Shortfall int        `json:"shortfall"`
	Message   string     `json:"message,omitempty"`
}

// SubmitResult is returned by Submit.
type SubmitResult struct {
	exam.SubmitOutcome
	State *ExamState `json:"state"`
}

func (a *attempt) snapshot() *ExamState {
	st := &ExamState{
		AttemptID:  a.id,
		Status:     a.session.State(),
		Config:     a.config,
		Navigation: a.session.Navigation(),
		Progress:   a.session.Progress(),
		Summary:    a.session.Summary(),
	}
	if view, err := a.session.CurrentView(); err == nil {
		st.Question = &view
	}
	return st
}

// ─── Lifecycle ──────────────────────────────────────────────────────────────

// Start builds a new attempt from cfg, replacing any current one. When the
// bank cannot satisfy the requested count the attempt still starts with
// what is available and the shortfall is reported.
func (s *ExamService) Start(ctx context.Context, cfg model.ExamConfig) (*StartResult, error) {
	if cfg.QuestionCount <= 0 || cfg.TimeLimitMinutes < 0 {
		return nil, fmt.Errorf("%w: question_count=%d time_limit_minutes=%d",
			exam.ErrInvalidConfig, cfg.QuestionCount, cfg.TimeLimitMinutes)
	}

	b, err := s.bank.Bank(ctx)
	if err != nil {
		return nil, err
	}

	// The random source is not assumed to be safe for concurrent use.
	s.mu.Lock()
	defer s.mu.Unlock()

	selector := exam.NewSelector(s.rng)
	records, err := selector.Select(b.Records, cfg.QuestionCount, cfg.Difficulty)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, exam.ErrNoQuestions
	}

	questions, err := selector.Prepare(records)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBankUnavailable, err)
	}

	session := exam.NewSession(questions, exam.WithClock(s.clock))
	if err := session.Start(cfg.TimeLimitSeconds()); err != nil {
		return nil, err
	}

	a := &attempt{id: uuid.New(), config: cfg, session: session}
	s.discardLocked()
	s.attempt = a
	if cfg.TimeLimitSeconds() > 0 && s.tickInterval > 0 {
		id := a.id
		a.timer = worker.NewTickWorker(s.tickInterval, func() bool { return s.tick(id) }, s.log)
		go a.timer.Start(s.ctx)
	}

	res := &StartResult{
		State:     a.snapshot(),
		Requested: cfg.QuestionCount,
		Selected:  len(questions),
		Shortfall: cfg.QuestionCount - len(questions),
	}
	if res.Shortfall > 0 {
		res.Message = fmt.Sprintf("Only %d questions available with selected criteria.", len(questions))
		s.log.Warn().
			Int("requested", res.Requested).
			Int("selected", res.Selected).
			Str("difficulty", string(cfg.Difficulty)).
			Msg("Not enough questions for requested count")
	}

	s.log.Info().
		Str("attempt_id", a.id.String()).
		Int("questions", len(questions)).
		Int("time_limit_minutes", cfg.TimeLimitMinutes).
		Str("difficulty", string(cfg.Difficulty)).
		Msg("Exam started")

	s.publishLocked(Event{Type: EventStarted, AttemptID: a.id})
	return res, nil
}

// Restart discards the current attempt and returns to setup.
func (s *ExamService) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attempt == nil {
		return
	}
	id := s.attempt.id
	s.discardLocked()
	s.log.Info().Str("attempt_id", id.String()).Msg("Exam restarted")
	s.publishLocked(Event{Type: EventRestarted, AttemptID: id})
}

// Shutdown stops any running timer. The service must not be used afterwards.
func (s *ExamService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.discardLocked()
	s.cancel()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
}

func (s *ExamService) discardLocked() {
	if s.attempt == nil {
		return
	}
	if s.attempt.timer != nil {
		s.attempt.timer.Stop()
	}
	s.attempt = nil
}

// ─── Gestures ───────────────────────────────────────────────────────────────

// State returns a snapshot of the current attempt.
func (s *ExamService) State() (*ExamState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attempt == nil {
		return nil, ErrNoActiveExam
	}
	return s.attempt.snapshot(), nil
}

// SelectOption records an option gesture on a question.
func (s *ExamService) SelectOption(questionIndex, optionIndex int) (*ExamState, error) {
	return s.apply(func(a *attempt) error {
		return a.session.SelectOption(questionIndex, optionIndex)
	})
}

// ToggleFlag flips the review flag of a question.
func (s *ExamService) ToggleFlag(questionIndex int) (*ExamState, error) {
	return s.apply(func(a *attempt) error {
		return a.session.ToggleFlag(questionIndex)
	})
}

// Navigate moves the cursor as requested.
func (s *ExamService) Navigate(req model.NavigateRequest) (*ExamState, error) {
	return s.apply(func(a *attempt) error {
		switch req.Action {
		case model.NavigateNext:
			return a.session.Next()
		case model.NavigatePrevious:
			return a.session.Previous()
		case model.NavigateGoTo:
			if req.Index == nil {
				return fmt.Errorf("%w: missing index", exam.ErrIndexOutOfRange)
			}
			return a.session.GoTo(*req.Index)
		}
		return fmt.Errorf("unknown navigate action %q", req.Action)
	})
}

// Review jumps back to the first question of a submitted attempt.
func (s *ExamService) Review() (*ExamState, error) {
	return s.apply(func(a *attempt) error {
		if !a.session.Submitted() {
			return ErrNotSubmitted
		}
		return a.session.GoTo(0)
	})
}

func (s *ExamService) apply(fn func(a *attempt) error) (*ExamState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attempt == nil {
		return nil, ErrNoActiveExam
	}
	if err := fn(s.attempt); err != nil {
		return nil, err
	}
	return s.attempt.snapshot(), nil
}

// Submit finishes the attempt. Without force and with unanswered questions
// the result only carries the confirmation request.
func (s *ExamService) Submit(force bool) (*SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.attempt
	if a == nil {
		return nil, ErrNoActiveExam
	}

	outcome, err := a.session.Submit(force)
	if err != nil {
		return nil, err
	}

	if !outcome.ConfirmationRequired && !outcome.AlreadySubmitted {
		if a.timer != nil {
			a.timer.Stop()
		}
		s.logSubmitted(a, "manual")
		s.publishLocked(Event{Type: EventSubmitted, AttemptID: a.id, Summary: outcome.Summary})
	}

	return &SubmitResult{SubmitOutcome: outcome, State: a.snapshot()}, nil
}

// Results returns the score summary of a submitted attempt.
func (s *ExamService) Results() (*exam.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attempt == nil {
		return nil, ErrNoActiveExam
	}
	summary := s.attempt.session.Summary()
	if summary == nil {
		return nil, ErrNotSubmitted
	}
	return summary, nil
}

// ─── Timer ──────────────────────────────────────────────────────────────────

// Tick advances the countdown of the current attempt by one second. The
// timer goroutine calls it through tick; it is exported for front-ends that
// drive the clock themselves.
func (s *ExamService) Tick() (exam.TickEvent, error) {
	s.mu.Lock()
	id := uuid.Nil
	if s.attempt != nil {
		id = s.attempt.id
	}
	s.mu.Unlock()

	if id == uuid.Nil {
		return exam.TickEvent{}, ErrNoActiveExam
	}
	ev, _ := s.tickAttempt(id)
	return ev, nil
}

func (s *ExamService) tick(id uuid.UUID) bool {
	_, more := s.tickAttempt(id)
	return more
}

// tickAttempt applies one tick if id is still the current attempt. It
// reports whether the countdown should keep running.
func (s *ExamService) tickAttempt(id uuid.UUID) (exam.TickEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.attempt
	if a == nil || a.id != id {
		return exam.TickEvent{}, false
	}

	ev := a.session.Tick()
	if !ev.Applied {
		return ev, false
	}

	s.publishLocked(Event{Type: EventTick, AttemptID: id, Tick: &ev})

	if ev.Crossed != exam.TimerNormal {
		s.log.Info().
			Str("attempt_id", id.String()).
			Str("level", string(ev.Crossed)).
			Int("remaining_seconds", ev.Remaining).
			Msg("Timer threshold crossed")
	}

	if ev.AutoSubmitted {
		if a.timer != nil {
			a.timer.Stop()
		}
		s.logSubmitted(a, "timeout")
		s.publishLocked(Event{Type: EventAutoSubmitted, AttemptID: id, Summary: ev.Summary})
		return ev, false
	}
	return ev, true
}

func (s *ExamService) logSubmitted(a *attempt, reason string) {
	summary := a.session.Summary()
	if summary == nil {
		return
	}
	s.log.Info().
		Str("attempt_id", a.id.String()).
		Str("reason", reason).
		Int("correct", summary.CorrectCount).
		Int("total", summary.TotalCount).
		Float64("percentage", summary.Percentage).
		Bool("passed", summary.Passed).
		Msg("Exam submitted")
}
