package exam

import (
	"fmt"

	"github.com/pablogaravito/psm1-exam-simulator/internal/bank"
	"github.com/pablogaravito/psm1-exam-simulator/internal/model"
)

// Mixed exam composition, in tenths of the requested count.
// Medium receives whatever is left after easy and hard are taken.
const (
	mixedEasyTenths = 3
	mixedHardTenths = 2
)

// MixedSplit returns the per-difficulty counts for a mixed exam of count
// questions: floor(30%) easy, floor(20%) hard and the remainder medium.
func MixedSplit(count int) (easy, medium, hard int) {
	if count <= 0 {
		return 0, 0, 0
	}
	easy = count * mixedEasyTenths / 10
	hard = count * mixedHardTenths / 10
	medium = count - easy - hard
	return easy, medium, hard
}

// Selector picks and prepares the questions of one attempt.
type Selector struct {
	rng Rand
}

// NewSelector creates a Selector. A nil rng uses DefaultRand.
func NewSelector(rng Rand) *Selector {
	if rng == nil {
		rng = DefaultRand
	}
	return &Selector{rng: rng}
}

// Select returns at most count records matching filter. Returning fewer than
// requested is not an error; callers compare the length against count.
// The mixed filter concatenates easy, medium and hard picks in that order.
func (s *Selector) Select(records []model.QuestionRecord, count int, filter model.DifficultyFilter) ([]model.QuestionRecord, error) {
	if count <= 0 {
		return []model.QuestionRecord{}, nil
	}

	switch filter {
	case model.FilterAll:
		return take(Shuffle(records, s.rng), count), nil

	case model.FilterEasy, model.FilterMedium, model.FilterHard:
		matching := byDifficulty(records, model.Difficulty(filter))
		return take(Shuffle(matching, s.rng), count), nil

	case model.FilterMixed:
		easyCount, mediumCount, hardCount := MixedSplit(count)

		easy := take(Shuffle(byDifficulty(records, model.DifficultyEasy), s.rng), easyCount)
		medium := take(Shuffle(byDifficulty(records, model.DifficultyMedium), s.rng), mediumCount)
		hard := take(Shuffle(byDifficulty(records, model.DifficultyHard), s.rng), hardCount)

		out := make([]model.QuestionRecord, 0, len(easy)+len(medium)+len(hard))
		out = append(out, easy...)
		out = append(out, medium...)
		out = append(out, hard...)
		return out, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, filter)
	}
}

// Prepare decodes the selected records and shuffles each question's options.
// Every call yields fresh copies; the records are left untouched.
func (s *Selector) Prepare(records []model.QuestionRecord) ([]model.ExamQuestion, error) {
	questions := make([]model.ExamQuestion, 0, len(records))
	for i := range records {
		q, err := bank.Decode(records[i])
		if err != nil {
			return nil, fmt.Errorf("decode question %d: %w", i, err)
		}
		questions = append(questions, model.ExamQuestion{
			Difficulty:      q.Difficulty,
			Text:            q.Text,
			Options:         Shuffle(q.Options, s.rng),
			MultipleCorrect: q.MultipleCorrect,
		})
	}
	return questions, nil
}

func byDifficulty(records []model.QuestionRecord, d model.Difficulty) []model.QuestionRecord {
	out := make([]model.QuestionRecord, 0, len(records))
	for _, r := range records {
		if r.Difficulty == d {
			out = append(out, r)
		}
	}
	return out
}

func take[T any](in []T, n int) []T {
	if n < len(in) {
		return in[:n]
	}
	return in
}
