package exam

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/pablogaravito/psm1-exam-simulator/internal/model"
)

func TestMixedSplit(t *testing.T) {
	tests := []struct {
		count              int
		easy, medium, hard int
	}{
		{count: 0},
		{count: -3},
		{count: 1, easy: 0, medium: 1, hard: 0},
		{count: 5, easy: 1, medium: 3, hard: 1},
		{count: 10, easy: 3, medium: 5, hard: 2},
		{count: 80, easy: 24, medium: 40, hard: 16},
		{count: 100, easy: 30, medium: 50, hard: 20},
		{count: 7, easy: 2, medium: 4, hard: 1},
	}
	for _, tc := range tests {
		easy, medium, hard := MixedSplit(tc.count)
		if easy != tc.easy || medium != tc.medium || hard != tc.hard {
			t.Errorf("MixedSplit(%d) = %d/%d/%d, want %d/%d/%d",
				tc.count, easy, medium, hard, tc.easy, tc.medium, tc.hard)
		}
		if tc.count > 0 && easy+medium+hard != tc.count {
			t.Errorf("MixedSplit(%d) sums to %d", tc.count, easy+medium+hard)
		}
	}
}

func countByDifficulty(records []model.QuestionRecord) map[model.Difficulty]int {
	b := model.Bank{Records: records}
	return b.CountByDifficulty()
}

func TestSelect_CountAndFilter(t *testing.T) {
	records := makeRecords(t, 5, 3, 2)
	sel := NewSelector(rand.New(rand.NewPCG(1, 1)))

	tests := []struct {
		name   string
		count  int
		filter model.DifficultyFilter
		want   map[model.Difficulty]int
	}{
		{name: "all bounded by count", count: 4, filter: model.FilterAll},
		{name: "all bounded by bank", count: 50, filter: model.FilterAll},
		{name: "easy only", count: 4, filter: model.FilterEasy, want: map[model.Difficulty]int{model.DifficultyEasy: 4}},
		{name: "hard shortfall", count: 5, filter: model.FilterHard, want: map[model.Difficulty]int{model.DifficultyHard: 2}},
		{name: "medium exact", count: 3, filter: model.FilterMedium, want: map[model.Difficulty]int{model.DifficultyMedium: 3}},
		{name: "mixed five", count: 5, filter: model.FilterMixed, want: map[model.Difficulty]int{
			model.DifficultyEasy: 1, model.DifficultyMedium: 3, model.DifficultyHard: 1,
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := sel.Select(records, tc.count, tc.filter)
			if err != nil {
				t.Fatalf("select: %v", err)
			}
			if len(got) > tc.count {
				t.Fatalf("got %d questions, more than requested %d", len(got), tc.count)
			}
			if len(got) > len(records) {
				t.Fatalf("got %d questions, bank has %d", len(got), len(records))
			}
			if tc.filter == model.FilterAll {
				want := min(tc.count, len(records))
				if len(got) != want {
					t.Errorf("len = %d, want %d", len(got), want)
				}
				return
			}
			counts := countByDifficulty(got)
			for d, n := range tc.want {
				if counts[d] != n {
					t.Errorf("%s = %d, want %d", d, counts[d], n)
				}
			}
			for d, n := range counts {
				if tc.want[d] == 0 && n > 0 {
					t.Errorf("unexpected %d %s questions", n, d)
				}
			}
		})
	}
}

func TestSelect_MixedOrderIsEasyMediumHard(t *testing.T) {
	records := makeRecords(t, 6, 6, 6)
	got, err := NewSelector(rand.New(rand.NewPCG(5, 5))).Select(records, 10, model.FilterMixed)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("len = %d, want 10", len(got))
	}
	want := []model.Difficulty{
		model.DifficultyEasy, model.DifficultyEasy, model.DifficultyEasy,
		model.DifficultyMedium, model.DifficultyMedium, model.DifficultyMedium, model.DifficultyMedium, model.DifficultyMedium,
		model.DifficultyHard, model.DifficultyHard,
	}
	for i, r := range got {
		if r.Difficulty != want[i] {
			t.Errorf("position %d: %s, want %s", i, r.Difficulty, want[i])
		}
	}
}

func TestSelect_MixedHundred(t *testing.T) {
	records := makeRecords(t, 40, 60, 30)
	got, err := NewSelector(rand.New(rand.NewPCG(3, 9))).Select(records, 100, model.FilterMixed)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(got) != 100 {
		t.Fatalf("len = %d, want 100", len(got))
	}

	counts := countByDifficulty(got)
	if counts[model.DifficultyEasy] != 30 || counts[model.DifficultyMedium] != 50 || counts[model.DifficultyHard] != 20 {
		t.Errorf("counts = %v, want easy 30 medium 50 hard 20", counts)
	}
	for i, r := range got {
		want := model.DifficultyMedium
		switch {
		case i < 30:
			want = model.DifficultyEasy
		case i >= 80:
			want = model.DifficultyHard
		}
		if r.Difficulty != want {
			t.Fatalf("position %d: %s, want %s", i, r.Difficulty, want)
		}
	}
}

func TestSelect_MixedShortfallIsNotBackfilled(t *testing.T) {
	records := makeRecords(t, 10, 1, 0)
	got, err := NewSelector(nil).Select(records, 10, model.FilterMixed)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	counts := countByDifficulty(got)
	if counts[model.DifficultyEasy] != 3 || counts[model.DifficultyMedium] != 1 || counts[model.DifficultyHard] != 0 {
		t.Errorf("counts = %v, want easy 3 medium 1 hard 0", counts)
	}
}

func TestSelect_NoDuplicates(t *testing.T) {
	records := makeRecords(t, 20, 0, 0)
	got, err := NewSelector(rand.New(rand.NewPCG(8, 8))).Select(records, 20, model.FilterEasy)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	seen := map[string]bool{}
	for _, r := range got {
		if seen[r.Data] {
			t.Fatalf("record selected twice")
		}
		seen[r.Data] = true
	}
}

func TestSelect_Errors(t *testing.T) {
	records := makeRecords(t, 1, 1, 1)
	sel := NewSelector(nil)

	if _, err := sel.Select(records, 3, "legendary"); !errors.Is(err, ErrUnknownFilter) {
		t.Errorf("unknown filter: err = %v, want ErrUnknownFilter", err)
	}
	got, err := sel.Select(records, 0, model.FilterAll)
	if err != nil || len(got) != 0 {
		t.Errorf("zero count: got %d, %v", len(got), err)
	}
	got, err = sel.Select(nil, 5, model.FilterMixed)
	if err != nil || len(got) != 0 {
		t.Errorf("empty bank: got %d, %v", len(got), err)
	}
}

func TestPrepare_DecodesAndKeepsOptions(t *testing.T) {
	records := []model.QuestionRecord{
		mustRecord(t, model.DifficultyMedium, "What is a Sprint?",
			opt("A container event", true), opt("A phase", false), opt("A release", false)),
		mustRecord(t, model.DifficultyHard, "Pick two",
			opt("A", true), opt("B", false), opt("C", true)),
	}
	qs, err := NewSelector(identityRand{}).Prepare(records)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("len = %d, want 2", len(qs))
	}
	if qs[0].Text != "What is a Sprint?" || qs[0].MultipleCorrect {
		t.Errorf("first question = %+v", qs[0])
	}
	if !qs[1].MultipleCorrect || len(qs[1].CorrectIndices()) != 2 {
		t.Errorf("second question should be multi-answer with two correct options: %+v", qs[1])
	}
}

func TestPrepare_ShuffleDoesNotTouchBank(t *testing.T) {
	records := []model.QuestionRecord{
		mustRecord(t, model.DifficultyEasy, "q", opt("1", true), opt("2", false), opt("3", false), opt("4", false)),
	}
	before := records[0].Data

	sel := NewSelector(rand.New(rand.NewPCG(11, 13)))
	for i := 0; i < 20; i++ {
		qs, err := sel.Prepare(records)
		if err != nil {
			t.Fatalf("prepare: %v", err)
		}
		if len(qs[0].Options) != 4 || len(qs[0].CorrectIndices()) != 1 {
			t.Fatalf("options = %+v", qs[0].Options)
		}
	}
	if records[0].Data != before {
		t.Errorf("bank record mutated")
	}
}

func TestPrepare_InvalidRecord(t *testing.T) {
	_, err := NewSelector(nil).Prepare([]model.QuestionRecord{{Difficulty: model.DifficultyEasy, Data: "%%%"}})
	if err == nil {
		t.Fatal("expected an error for an undecodable record")
	}
}
