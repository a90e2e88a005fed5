package model

// Difficulty enumerates the difficulty tags a bank record may carry.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the known difficulty tags.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// BankDocument is the persisted question bank as served by a loader.
type BankDocument struct {
	Questions []QuestionRecord `json:"questions"`
}

// QuestionRecord is a single bank entry. Data holds the base64 encoded
// QuestionPayload; MultipleCorrect is optional and derived from the payload
// when absent.
type QuestionRecord struct {
	Difficulty      Difficulty `json:"difficulty"`
	Data            string     `json:"data"`
	MultipleCorrect *bool      `json:"multipleCorrect,omitempty"`
}

// QuestionPayload is the decoded form of QuestionRecord.Data.
type QuestionPayload struct {
	Question string   `json:"question"`
	Options  []Option `json:"options"`
}

// Option is one answer choice of a question.
type Option struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question is a decoded bank record.
type Question struct {
	Difficulty      Difficulty
	Text            string
	Options         []Option
	MultipleCorrect bool
}

// ExamQuestion is a Question whose option order has been fixed for one attempt.
type ExamQuestion struct {
	Difficulty      Difficulty `json:"difficulty"`
	Text            string     `json:"question_text"`
	Options         []Option   `json:"options"`
	MultipleCorrect bool       `json:"multiple_correct"`
}

// CorrectIndices returns the positions of the correct options in ascending order.
func (q *ExamQuestion) CorrectIndices() []int {
	idx := make([]int, 0, len(q.Options))
	for i, opt := range q.Options {
		if opt.Correct {
			idx = append(idx, i)
		}
	}
	return idx
}

// Bank is a loaded, validated question bank. It is read-only once built and
// may be shared between attempts.
type Bank struct {
	Records []QuestionRecord
}

// CountByDifficulty returns how many records carry each difficulty tag.
func (b *Bank) CountByDifficulty() map[Difficulty]int {
	counts := make(map[Difficulty]int, 3)
	for _, r := range b.Records {
		counts[r.Difficulty]++
	}
	return counts
}
