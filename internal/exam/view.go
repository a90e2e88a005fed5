package exam

import (
	"fmt"
	"math"
)

// OptionStatus is the review colouring of an option after submission.
type OptionStatus string

const (
	OptionNone      OptionStatus = ""
	OptionCorrect   OptionStatus = "correct"
	OptionIncorrect OptionStatus = "incorrect"
	OptionMissed    OptionStatus = "missed"
)

// NavStatus is the summary-grid state of one question.
type NavStatus string

const (
	NavNone          NavStatus = ""
	NavCurrent       NavStatus = "current"
	NavCorrectAnswer NavStatus = "correct-answer"
	NavWrong         NavStatus = "wrong"
	NavFlagged       NavStatus = "flagged"
	NavAnswered      NavStatus = "answered"
)

// OptionView is one option as rendered for the current question.
type OptionView struct {
	Index    int          `json:"index"`
	Text     string       `json:"text"`
	Selected bool         `json:"selected"`
	Status   OptionStatus `json:"status,omitempty"`
}

// Controls tells the presentation which gestures make sense right now.
type Controls struct {
	CanPrevious bool `json:"can_previous"`
	CanNext     bool `json:"can_next"`
	CanSubmit   bool `json:"can_submit"`
	CanFlag     bool `json:"can_flag"`
}

// QuestionView is the current question with its per-option state.
type QuestionView struct {
	Index      int          `json:"index"`
	Number     int          `json:"number"`
	Total      int          `json:"total"`
	Text       string       `json:"question_text"`
	InputType  string       `json:"input_type"`
	Difficulty string       `json:"difficulty"`
	Flagged    bool         `json:"flagged"`
	Options    []OptionView `json:"options"`
	Controls   Controls     `json:"controls"`
}

// NavItem is one cell of the navigation grid.
type NavItem struct {
	Index    int       `json:"index"`
	Number   int       `json:"number"`
	Status   NavStatus `json:"status"`
	Current  bool      `json:"current"`
	Flagged  bool      `json:"flagged"`
	Answered bool      `json:"answered"`
	Result   Result    `json:"result"`
}

// Progress summarises how far the attempt has come.
type Progress struct {
	Position   int        `json:"position"`
	Total      int        `json:"total"`
	Answered   int        `json:"answered"`
	Percent    float64    `json:"percent"`
	Label      string     `json:"label"`
	Timed      bool       `json:"timed"`
	Remaining  int        `json:"remaining_seconds"`
	Clock      string     `json:"clock,omitempty"`
	TimerLevel TimerLevel `json:"timer_level,omitempty"`
}

// CurrentView renders the question under the cursor.
func (s *Session) CurrentView() (QuestionView, error) {
	if s.state == StateSetup {
		return QuestionView{}, ErrNotStarted
	}

	idx := s.current
	q := s.questions[idx]
	submitted := s.state == StateSubmitted

	inputType := "radio"
	if q.MultipleCorrect {
		inputType = "checkbox"
	}

	selected := make(map[int]bool, len(s.answers[idx]))
	for _, o := range s.answers[idx] {
		selected[o] = true
	}

	options := make([]OptionView, len(q.Options))
	for i, opt := range q.Options {
		ov := OptionView{Index: i, Text: opt.Text, Selected: selected[i]}
		if submitted {
			ov.Status = optionStatus(selected[i], opt.Correct)
		}
		options[i] = ov
	}

	last := len(s.questions) - 1
	return QuestionView{
		Index:      idx,
		Number:     idx + 1,
		Total:      len(s.questions),
		Text:       q.Text,
		InputType:  inputType,
		Difficulty: string(q.Difficulty),
		Flagged:    s.flags[idx],
		Options:    options,
		Controls: Controls{
			CanPrevious: idx > 0,
			CanNext:     idx < last,
			CanSubmit:   !submitted && idx == last,
			CanFlag:     !submitted,
		},
	}, nil
}

func optionStatus(selected, correct bool) OptionStatus {
	switch {
	case selected && correct:
		return OptionCorrect
	case selected && !correct:
		return OptionIncorrect
	case !selected && correct:
		return OptionMissed
	}
	return OptionNone
}

// Navigation renders the navigation grid. Each cell shows the first
// matching status of: current, scored result, flagged, answered.
func (s *Session) Navigation() []NavItem {
	if s.state == StateSetup {
		return nil
	}

	items := make([]NavItem, len(s.questions))
	for i := range s.questions {
		item := NavItem{
			Index:    i,
			Number:   i + 1,
			Current:  i == s.current,
			Flagged:  s.flags[i],
			Answered: len(s.answers[i]) > 0,
			Result:   s.results[i],
		}

		switch {
		case item.Current:
			item.Status = NavCurrent
		case s.state == StateSubmitted && item.Result == ResultCorrect:
			item.Status = NavCorrectAnswer
		case s.state == StateSubmitted && item.Result == ResultIncorrect:
			item.Status = NavWrong
		case item.Flagged:
			item.Status = NavFlagged
		case item.Answered:
			item.Status = NavAnswered
		}
		items[i] = item
	}
	return items
}

// Progress reports position, answered count and the countdown. Percent is
// measured against the displayed position, so the last question is 100%.
func (s *Session) Progress() Progress {
	total := len(s.questions)
	p := Progress{
		Total:     total,
		Answered:  s.AnsweredCount(),
		Timed:     s.timed,
		Remaining: s.remaining,
	}
	if s.state != StateSetup && total > 0 {
		p.Position = s.current + 1
		p.Percent = math.Round(float64(p.Position)*1000/float64(total)) / 10
	}
	p.Label = fmt.Sprintf("%d/%d", p.Position, total)
	if s.timed {
		p.Clock = FormatClock(s.remaining)
		p.TimerLevel = s.timerLevel
	}
	return p
}

// FormatClock renders seconds as M:SS with zero-padded seconds.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
