package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pablogaravito/psm1-exam-simulator/internal/bank"
	"github.com/pablogaravito/psm1-exam-simulator/internal/exam"
	"github.com/pablogaravito/psm1-exam-simulator/internal/model"
	"github.com/rs/zerolog"
)

type staticBank struct {
	bank  *model.Bank
	err   error
	calls int
}

func (b *staticBank) Bank(context.Context) (*model.Bank, error) {
	b.calls++
	return b.bank, b.err
}

func buildBank(t *testing.T, easy, medium, hard int) *model.Bank {
	t.Helper()
	var records []model.QuestionRecord
	add := func(d model.Difficulty, n int) {
		for i := 0; i < n; i++ {
			r, err := bank.Encode(model.Question{
				Difficulty: d,
				Text:       fmt.Sprintf("%s question %d", d, i),
				Options: []model.Option{
					{Text: "right", Correct: true},
					{Text: "wrong", Correct: false},
				},
			})
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			records = append(records, r)
		}
	}
	add(model.DifficultyEasy, easy)
	add(model.DifficultyMedium, medium)
	add(model.DifficultyHard, hard)
	return &model.Bank{Records: records}
}

func newTestService(t *testing.T, b BankProvider) *ExamService {
	t.Helper()
	svc := NewExamService(b, zerolog.Nop(),
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithTickInterval(0),
	)
	t.Cleanup(svc.Shutdown)
	return svc
}

// correctOption returns the index of the first correct option of question i.
func correctOption(t *testing.T, svc *ExamService, i int) int {
	t.Helper()
	svc.mu.Lock()
	defer svc.mu.Unlock()
	q, err := svc.attempt.session.Question(i)
	if err != nil {
		t.Fatalf("question %d: %v", i, err)
	}
	return q.CorrectIndices()[0]
}

func drain(ch <-chan Event) []Event {
	var out []Event
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestExamService_StartAndState(t *testing.T) {
	svc := newTestService(t, &staticBank{bank: buildBank(t, 5, 3, 2)})

	if _, err := svc.State(); !errors.Is(err, ErrNoActiveExam) {
		t.Fatalf("state before start: err = %v", err)
	}

	res, err := svc.Start(context.Background(), model.ExamConfig{QuestionCount: 5, TimeLimitMinutes: 10, Difficulty: model.FilterMixed})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if res.Selected != 5 || res.Shortfall != 0 || res.Message != "" {
		t.Errorf("start result = %+v", res)
	}
	st := res.State
	if st.Status != exam.StateInProgress || st.AttemptID == uuid.Nil {
		t.Errorf("state = %+v", st)
	}
	if st.Question == nil || st.Question.Number != 1 {
		t.Errorf("question = %+v", st.Question)
	}
	if !st.Progress.Timed || st.Progress.Clock != "10:00" {
		t.Errorf("progress = %+v", st.Progress)
	}
	if len(st.Navigation) != 5 {
		t.Errorf("navigation has %d cells", len(st.Navigation))
	}
}

func TestExamService_StartShortfall(t *testing.T) {
	svc := newTestService(t, &staticBank{bank: buildBank(t, 2, 0, 0)})

	res, err := svc.Start(context.Background(), model.ExamConfig{QuestionCount: 10, Difficulty: model.FilterEasy})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if res.Selected != 2 || res.Shortfall != 8 {
		t.Errorf("selected %d shortfall %d", res.Selected, res.Shortfall)
	}
	if res.Message != "Only 2 questions available with selected criteria." {
		t.Errorf("message = %q", res.Message)
	}
}

func TestExamService_StartErrors(t *testing.T) {
	tests := []struct {
		name string
		bank *staticBank
		cfg  model.ExamConfig
		want error
	}{
		{
			name: "no matching questions",
			bank: &staticBank{bank: buildBank(t, 3, 0, 0)},
			cfg:  model.ExamConfig{QuestionCount: 5, Difficulty: model.FilterHard},
			want: exam.ErrNoQuestions,
		},
		{
			name: "bank unavailable",
			bank: &staticBank{err: fmt.Errorf("%w: boom", ErrBankUnavailable)},
			cfg:  model.ExamConfig{QuestionCount: 5, Difficulty: model.FilterAll},
			want: ErrBankUnavailable,
		},
		{
			name: "zero count",
			bank: &staticBank{bank: buildBank(t, 3, 0, 0)},
			cfg:  model.ExamConfig{QuestionCount: 0, Difficulty: model.FilterAll},
			want: exam.ErrInvalidConfig,
		},
		{
			name: "negative time",
			bank: &staticBank{bank: buildBank(t, 3, 0, 0)},
			cfg:  model.ExamConfig{QuestionCount: 1, TimeLimitMinutes: -1, Difficulty: model.FilterAll},
			want: exam.ErrInvalidConfig,
		},
		{
			name: "unknown filter",
			bank: &staticBank{bank: buildBank(t, 3, 0, 0)},
			cfg:  model.ExamConfig{QuestionCount: 1, Difficulty: "legendary"},
			want: exam.ErrUnknownFilter,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(t, tc.bank)
			_, err := svc.Start(context.Background(), tc.cfg)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if _, err := svc.State(); !errors.Is(err, ErrNoActiveExam) {
				t.Errorf("failed start left an attempt behind")
			}
		})
	}
}

func TestExamService_GesturesAndSubmit(t *testing.T) {
	svc := newTestService(t, &staticBank{bank: buildBank(t, 3, 0, 0)})
	if _, err := svc.Start(context.Background(), model.ExamConfig{QuestionCount: 3, Difficulty: model.FilterAll}); err != nil {
		t.Fatalf("start: %v", err)
	}

	st, err := svc.SelectOption(0, correctOption(t, svc, 0))
	if err != nil || st.Progress.Answered != 1 {
		t.Fatalf("select: %+v, %v", st, err)
	}
	if st, err = svc.ToggleFlag(1); err != nil || !st.Navigation[1].Flagged {
		t.Fatalf("flag: %v", err)
	}

	idx := 2
	st, err = svc.Navigate(model.NavigateRequest{Action: model.NavigateGoTo, Index: &idx})
	if err != nil || st.Question.Index != 2 {
		t.Fatalf("goto: %v", err)
	}
	if st, _ = svc.Navigate(model.NavigateRequest{Action: model.NavigatePrevious}); st.Question.Index != 1 {
		t.Errorf("previous landed on %d", st.Question.Index)
	}
	if st, _ = svc.Navigate(model.NavigateRequest{Action: model.NavigateNext}); st.Question.Index != 2 {
		t.Errorf("next landed on %d", st.Question.Index)
	}

	bad := 7
	if _, err := svc.Navigate(model.NavigateRequest{Action: model.NavigateGoTo, Index: &bad}); !errors.Is(err, exam.ErrIndexOutOfRange) {
		t.Errorf("goto 7: err = %v", err)
	}
	if _, err := svc.SelectOption(0, 9); !errors.Is(err, exam.ErrIndexOutOfRange) {
		t.Errorf("select option 9: err = %v", err)
	}

	if _, err := svc.Results(); !errors.Is(err, ErrNotSubmitted) {
		t.Errorf("results before submit: err = %v", err)
	}
	if _, err := svc.Review(); !errors.Is(err, ErrNotSubmitted) {
		t.Errorf("review before submit: err = %v", err)
	}

	res, err := svc.Submit(false)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.ConfirmationRequired || res.Unanswered != 2 || res.State.Status != exam.StateInProgress {
		t.Fatalf("unconfirmed submit = %+v", res.SubmitOutcome)
	}

	res, err = svc.Submit(true)
	if err != nil {
		t.Fatalf("forced submit: %v", err)
	}
	if res.Summary == nil || res.Summary.CorrectCount != 1 || res.State.Status != exam.StateSubmitted {
		t.Fatalf("forced submit = %+v", res.SubmitOutcome)
	}

	sum, err := svc.Results()
	if err != nil || sum.Percentage != 33.3 || sum.Passed {
		t.Errorf("results = %+v, %v", sum, err)
	}

	st, err = svc.Review()
	if err != nil || st.Question.Index != 0 {
		t.Fatalf("review: %v", err)
	}
	if st.Question.Options[correctOption(t, svc, 0)].Status != exam.OptionCorrect {
		t.Errorf("review colouring = %+v", st.Question.Options)
	}

	res, err = svc.Submit(true)
	if err != nil || !res.AlreadySubmitted || res.Summary != sum {
		t.Errorf("second submit = %+v, %v", res, err)
	}
}

func TestExamService_TickAutoSubmits(t *testing.T) {
	svc := newTestService(t, &staticBank{bank: buildBank(t, 2, 0, 0)})
	events, unsubscribe := svc.Subscribe()
	defer unsubscribe()

	if _, err := svc.Start(context.Background(), model.ExamConfig{QuestionCount: 2, TimeLimitMinutes: 1, Difficulty: model.FilterAll}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := drain(events); len(got) != 1 || got[0].Type != EventStarted {
		t.Fatalf("events after start = %+v", got)
	}

	var last exam.TickEvent
	for i := 0; i < 60; i++ {
		ev, err := svc.Tick()
		if err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		last = ev
		drain(events)
	}
	if !last.AutoSubmitted || last.Remaining != 0 {
		t.Fatalf("last tick = %+v", last)
	}

	st, _ := svc.State()
	if st.Status != exam.StateSubmitted || st.Summary == nil {
		t.Fatalf("state after timeout = %+v", st)
	}

	ev, err := svc.Tick()
	if err != nil || ev.Applied {
		t.Errorf("tick after timeout = %+v, %v", ev, err)
	}
}

func TestExamService_AutoSubmitEvents(t *testing.T) {
	svc := newTestService(t, &staticBank{bank: buildBank(t, 1, 0, 0)})
	if _, err := svc.Start(context.Background(), model.ExamConfig{QuestionCount: 1, TimeLimitMinutes: 1, Difficulty: model.FilterAll}); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 59; i++ {
		_, _ = svc.Tick()
	}

	events, unsubscribe := svc.Subscribe()
	defer unsubscribe()
	_, _ = svc.Tick()

	got := drain(events)
	if len(got) != 2 || got[0].Type != EventTick || got[1].Type != EventAutoSubmitted {
		t.Fatalf("events = %+v, want tick then auto_submitted", got)
	}
	if got[1].Summary == nil || got[1].Summary.TotalCount != 1 {
		t.Errorf("summary = %+v", got[1].Summary)
	}
}

func TestExamService_StaleTickIgnored(t *testing.T) {
	svc := newTestService(t, &staticBank{bank: buildBank(t, 2, 0, 0)})
	cfg := model.ExamConfig{QuestionCount: 1, TimeLimitMinutes: 1, Difficulty: model.FilterAll}

	first, err := svc.Start(context.Background(), cfg)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.Start(context.Background(), cfg); err != nil {
		t.Fatalf("restart: %v", err)
	}

	if more := svc.tick(first.State.AttemptID); more {
		t.Error("tick for a replaced attempt asked to continue")
	}
	st, _ := svc.State()
	if st.Progress.Remaining != 60 {
		t.Errorf("stale tick changed the countdown to %d", st.Progress.Remaining)
	}
}

func TestExamService_RestartAndShutdown(t *testing.T) {
	svc := NewExamService(&staticBank{bank: buildBank(t, 2, 0, 0)}, zerolog.Nop(), WithTickInterval(0))
	events, _ := svc.Subscribe()

	if _, err := svc.Start(context.Background(), model.ExamConfig{QuestionCount: 1, Difficulty: model.FilterAll}); err != nil {
		t.Fatalf("start: %v", err)
	}
	svc.Restart()
	if _, err := svc.State(); !errors.Is(err, ErrNoActiveExam) {
		t.Errorf("state after restart: %v", err)
	}
	if _, err := svc.Submit(true); !errors.Is(err, ErrNoActiveExam) {
		t.Errorf("submit after restart: %v", err)
	}
	if _, err := svc.Tick(); !errors.Is(err, ErrNoActiveExam) {
		t.Errorf("tick after restart: %v", err)
	}

	svc.Shutdown()
	got := drain(events)
	if len(got) != 2 || got[0].Type != EventStarted || got[1].Type != EventRestarted {
		t.Errorf("events = %+v", got)
	}
	if _, ok := <-events; ok {
		t.Error("subscriber channel not closed by shutdown")
	}
}

func TestExamService_UnsubscribeIsIdempotent(t *testing.T) {
	svc := newTestService(t, &staticBank{bank: buildBank(t, 1, 0, 0)})
	_, unsubscribe := svc.Subscribe()
	unsubscribe()
	unsubscribe()

	if _, err := svc.Start(context.Background(), model.ExamConfig{QuestionCount: 1, Difficulty: model.FilterAll}); err != nil {
		t.Fatalf("start after unsubscribe: %v", err)
	}
}

func TestExamService_TimerGoroutine(t *testing.T) {
	svc := NewExamService(&staticBank{bank: buildBank(t, 1, 0, 0)}, zerolog.Nop(), WithTickInterval(5*time.Millisecond))
	defer svc.Shutdown()

	events, unsubscribe := svc.Subscribe()
	defer unsubscribe()

	if _, err := svc.Start(context.Background(), model.ExamConfig{QuestionCount: 1, TimeLimitMinutes: 1, Difficulty: model.FilterAll}); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Type == EventTick {
				st, _ := svc.State()
				if st.Progress.Remaining >= 60 {
					t.Fatalf("tick event without countdown: %+v", st.Progress)
				}
				return
			}
		case <-deadline:
			t.Fatal("no tick from the timer goroutine")
		}
	}
}
