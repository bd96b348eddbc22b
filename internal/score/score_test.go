package score

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prepline/examroom/internal/model"
)

func choiceQuestions(correct ...string) []model.Question {
	qs := make([]model.Question, len(correct))
	for i, c := range correct {
		qs[i] = model.Question{
			ID:            i + 1,
			Type:          model.QuestionTypeChoice,
			Options:       []string{"w", "x", "y", "z"},
			CorrectAnswer: c,
		}
	}
	return qs
}

func TestCalculateLocal(t *testing.T) {
	// total=4, answers {1:A, 2:B}, only question 1's key matches.
	qs := choiceQuestions("A", "C", "D", "D")
	answers := map[int]model.Answer{
		1: {Value: "A"},
		2: {Value: "B"},
	}

	s := Calculate(qs, answers, nil)

	assert.Equal(t, 1, s.CorrectCount)
	assert.Equal(t, 1, s.IncorrectCount)
	assert.Equal(t, 2, s.OmittedCount)
	assert.Equal(t, 4, s.TotalQuestions)
}

func TestCalculateIsCaseSensitive(t *testing.T) {
	qs := choiceQuestions("A")
	s := Calculate(qs, map[int]model.Answer{1: {Value: "a"}}, nil)
	assert.Equal(t, 0, s.CorrectCount)
	assert.Equal(t, 1, s.IncorrectCount)
}

func TestCalculateBlankNeverAutoScored(t *testing.T) {
	qs := []model.Question{{
		ID:            1,
		Type:          model.QuestionTypeBlank,
		Blanks:        []model.BlankSlot{{BlankID: "1"}},
		CorrectAnswer: "42",
	}}
	s := Calculate(qs, map[int]model.Answer{1: {Blanks: map[string]string{"1": "42"}}}, nil)

	// Answered but not auto-gradable: counts as incorrect locally, never correct.
	assert.Equal(t, 0, s.CorrectCount)
	assert.Equal(t, 1, s.IncorrectCount)
	assert.Equal(t, 0, s.OmittedCount)
}

func TestCalculatePrefersServerResults(t *testing.T) {
	qs := choiceQuestions("A", "B", "C")
	// Local grading would find zero correct; server says otherwise.
	results := []AnswerResult{
		{UserAnswer: "A", IsCorrect: true},
		{UserAnswer: "D", IsCorrect: false},
		{UserAnswer: "", IsCorrect: false},
	}

	s := Calculate(qs, nil, results)

	assert.Equal(t, 1, s.CorrectCount)
	assert.Equal(t, 1, s.IncorrectCount)
	assert.Equal(t, 1, s.OmittedCount)
}

func TestCalculateDeterministic(t *testing.T) {
	qs := choiceQuestions("A", "B", "C", "D", "A")
	answers := map[int]model.Answer{1: {Value: "A"}, 3: {Value: "C"}, 4: {Value: "A"}}

	first := Calculate(qs, answers, nil)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Calculate(qs, answers, nil))
	}
}

func TestScaledScoreBounds(t *testing.T) {
	tests := []struct {
		name    string
		correct int
		total   int
	}{
		{"none correct", 0, 10},
		{"all correct", 10, 10},
		{"half correct", 5, 10},
		{"empty set", 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			keys := make([]string, tc.total)
			answers := map[int]model.Answer{}
			for i := range keys {
				keys[i] = "A"
				if i < tc.correct {
					answers[i+1] = model.Answer{Value: "A"}
				}
			}
			s := Calculate(choiceQuestions(keys...), answers, nil)

			assert.GreaterOrEqual(t, s.VerbalScaled, 200)
			assert.LessOrEqual(t, s.VerbalScaled, 800)
			assert.GreaterOrEqual(t, s.QuantScaled, 200)
			assert.LessOrEqual(t, s.QuantScaled, 800)
			assert.Equal(t, s.VerbalScaled+s.QuantScaled, s.TotalScaled)
		})
	}
}

func TestScaledScoreExtremes(t *testing.T) {
	// All correct maps to the ceiling on both sections.
	qs := choiceQuestions("A", "A", "A", "A", "A")
	answers := map[int]model.Answer{}
	for i := 1; i <= 5; i++ {
		answers[i] = model.Answer{Value: "A"}
	}
	s := Calculate(qs, answers, nil)
	assert.Equal(t, 800, s.VerbalScaled)
	assert.Equal(t, 800, s.QuantScaled)
	assert.Equal(t, 1600, s.TotalScaled)

	// Nothing answered maps to the floor.
	s = Calculate(qs, nil, nil)
	assert.Equal(t, 200, s.VerbalScaled)
	assert.Equal(t, 200, s.QuantScaled)
	assert.Equal(t, 400, s.TotalScaled)
}
