package model

// DifficultyFilter selects which bank records are eligible for an exam.
type DifficultyFilter string

const (
	FilterAll    DifficultyFilter = "all"
	FilterEasy   DifficultyFilter = "easy"
	FilterMedium DifficultyFilter = "medium"
	FilterHard   DifficultyFilter = "hard"
	FilterMixed  DifficultyFilter = "mixed"
)

// ExamConfig is the configuration accepted when an exam is started.
type ExamConfig struct {
	QuestionCount    int              `json:"question_count" binding:"required,min=1,max=1000"`
	TimeLimitMinutes int              `json:"time_limit_minutes" binding:"min=0,max=600"`
	Difficulty       DifficultyFilter `json:"difficulty" binding:"required,oneof=all easy medium hard mixed"`
}

// TimeLimitSeconds converts the configured limit; zero means untimed.
func (c ExamConfig) TimeLimitSeconds() int {
	if c.TimeLimitMinutes <= 0 {
		return 0
	}
	return c.TimeLimitMinutes * 60
}

// SubmitRequest is the payload for submitting an exam.
type SubmitRequest struct {
	Force bool `json:"force"`
}

// NavigateAction enumerates the navigation gestures.
type NavigateAction string

const (
	NavigateNext     NavigateAction = "next"
	NavigatePrevious NavigateAction = "previous"
	NavigateGoTo     NavigateAction = "goto"
)

// NavigateRequest is the payload for moving between questions.
// Index is only read for the goto action.
type NavigateRequest struct {
	Action NavigateAction `json:"action" binding:"required,oneof=next previous goto"`
	Index  *int           `json:"index" binding:"required_if=Action goto"`
}
