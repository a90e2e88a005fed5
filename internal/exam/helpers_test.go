package exam

import (
	"fmt"
	"testing"
	"time"

	"github.com/pablogaravito/psm1-exam-simulator/internal/bank"
	"github.com/pablogaravito/psm1-exam-simulator/internal/model"
)

// identityRand makes Shuffle keep the input order.
type identityRand struct{}

func (identityRand) IntN(n int) int { return n - 1 }

func opt(text string, correct bool) model.Option {
	return model.Option{Text: text, Correct: correct}
}

func mustRecord(t *testing.T, d model.Difficulty, text string, options ...model.Option) model.QuestionRecord {
	t.Helper()
	correct := 0
	for _, o := range options {
		if o.Correct {
			correct++
		}
	}
	r, err := bank.Encode(model.Question{
		Difficulty:      d,
		Text:            text,
		Options:         options,
		MultipleCorrect: correct > 1,
	})
	if err != nil {
		t.Fatalf("encode %q: %v", text, err)
	}
	return r
}

// makeRecords builds a bank with the given number of questions per difficulty.
func makeRecords(t *testing.T, easy, medium, hard int) []model.QuestionRecord {
	t.Helper()
	var out []model.QuestionRecord
	add := func(d model.Difficulty, n int) {
		for i := 0; i < n; i++ {
			out = append(out, mustRecord(t, d, fmt.Sprintf("%s-%d", d, i),
				opt("right", true), opt("wrong", false), opt("also wrong", false)))
		}
	}
	add(model.DifficultyEasy, easy)
	add(model.DifficultyMedium, medium)
	add(model.DifficultyHard, hard)
	return out
}

func singleQuestion(text string) model.ExamQuestion {
	return model.ExamQuestion{
		Difficulty: model.DifficultyEasy,
		Text:       text,
		Options:    []model.Option{opt("A", true), opt("B", false), opt("C", false)},
	}
}

func multiQuestion(text string) model.ExamQuestion {
	return model.ExamQuestion{
		Difficulty:      model.DifficultyHard,
		Text:            text,
		Options:         []model.Option{opt("A", true), opt("B", false), opt("C", true)},
		MultipleCorrect: true,
	}
}

// fakeClock advances only when told to.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func startedSession(t *testing.T, timeLimit int, questions ...model.ExamQuestion) (*Session, *fakeClock) {
	t.Helper()
	clk := newFakeClock()
	s := NewSession(questions, WithClock(clk.Now))
	if err := s.Start(timeLimit); err != nil {
		t.Fatalf("start: %v", err)
	}
	return s, clk
}
