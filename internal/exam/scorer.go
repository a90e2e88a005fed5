package exam

import (
	"math"
	"time"

	"github.com/pablogaravito/psm1-exam-simulator/internal/model"
)

// PassPercentage is the minimum score, in percent, that passes the exam.
const PassPercentage = 85.0

// Summary is the outcome of a submitted attempt.
type Summary struct {
	CorrectCount     int      `json:"correct_count"`
	IncorrectCount   int      `json:"incorrect_count"`
	TotalCount       int      `json:"total_count"`
	Percentage       float64  `json:"percentage"`
	Passed           bool     `json:"passed"`
	TimeSpentSeconds int      `json:"time_spent_seconds"`
	TimeSpent        string   `json:"time_spent"`
	Results          []Result `json:"results"`
}

// Score grades every question all-or-nothing: a question counts only when
// the selection equals the set of correct options exactly.
func Score(questions []model.ExamQuestion, answers [][]int, startedAt, submittedAt time.Time) Summary {
	results := make([]Result, len(questions))
	correct := 0

	for i := range questions {
		var sel []int
		if i < len(answers) {
			sel = answers[i]
		}
		if IsCorrect(&questions[i], sel) {
			results[i] = ResultCorrect
			correct++
		} else {
			results[i] = ResultIncorrect
		}
	}

	total := len(questions)
	pct := Percentage(correct, total)

	spent := int(submittedAt.Sub(startedAt) / time.Second)
	if spent < 0 {
		spent = 0
	}

	return Summary{
		CorrectCount:     correct,
		IncorrectCount:   total - correct,
		TotalCount:       total,
		Percentage:       pct,
		Passed:           Passed(pct),
		TimeSpentSeconds: spent,
		TimeSpent:        FormatClock(spent),
		Results:          results,
	}
}

// IsCorrect reports whether selection matches the correct options of q.
// Duplicate indices in selection never count twice.
func IsCorrect(q *model.ExamQuestion, selection []int) bool {
	want := q.CorrectIndices()
	if len(want) == 0 {
		return false
	}

	got := make(map[int]struct{}, len(selection))
	for _, idx := range selection {
		got[idx] = struct{}{}
	}
	if len(got) != len(want) {
		return false
	}
	for _, idx := range want {
		if _, ok := got[idx]; !ok {
			return false
		}
	}
	return true
}

// Percentage returns 100*correct/total rounded to one decimal place.
func Percentage(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(correct)*1000/float64(total)) / 10
}

// Passed applies the fixed pass threshold.
func Passed(percentage float64) bool {
	return percentage >= PassPercentage
}
