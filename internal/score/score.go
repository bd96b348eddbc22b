// Package score derives a ScoreSummary from a session's question list and
// answer map, or from server-supplied per-answer results when present.
// Calculation is a pure function of its inputs and is recomputed on demand.
package score

import "github.com/prepline/examroom/internal/model"

// AnswerResult is one server-graded answer as returned by the submission
// endpoint. An empty UserAnswer means the question was omitted.
type AnswerResult struct {
	UserAnswer string `json:"userAnswer"`
	IsCorrect  bool   `json:"isCorrect"`
}

// Calculate builds the summary. Non-empty serverResults take precedence
// over local grading; otherwise only CHOICE questions are auto-scored, by
// exact case-sensitive comparison against the correct answer. BLANK and
// other free-text types are never graded locally.
func Calculate(questions []model.Question, answers map[int]model.Answer, serverResults []AnswerResult) model.ScoreSummary {
	if len(serverResults) > 0 {
		return fromServerResults(questions, serverResults)
	}
	return fromLocalAnswers(questions, answers)
}

func fromServerResults(questions []model.Question, results []AnswerResult) model.ScoreSummary {
	s := model.ScoreSummary{TotalQuestions: len(questions)}
	vTotal := verbalCount(s.TotalQuestions)

	var verbalCorrect, quantCorrect int
	for i, r := range results {
		switch {
		case r.UserAnswer == "":
			s.OmittedCount++
		case r.IsCorrect:
			s.CorrectCount++
			if i < vTotal {
				verbalCorrect++
			} else {
				quantCorrect++
			}
		default:
			s.IncorrectCount++
		}
	}

	applyScale(&s, verbalCorrect, quantCorrect)
	return s
}

func fromLocalAnswers(questions []model.Question, answers map[int]model.Answer) model.ScoreSummary {
	s := model.ScoreSummary{TotalQuestions: len(questions)}
	vTotal := verbalCount(s.TotalQuestions)

	answered := 0
	var verbalCorrect, quantCorrect int
	for i, q := range questions {
		a, ok := answers[q.ID]
		if !ok || a.IsEmpty() {
			continue
		}
		answered++
		if q.Type == model.QuestionTypeChoice && q.CorrectAnswer != "" && a.Value == q.CorrectAnswer {
			s.CorrectCount++
			if i < vTotal {
				verbalCorrect++
			} else {
				quantCorrect++
			}
		}
	}

	s.IncorrectCount = answered - s.CorrectCount
	s.OmittedCount = s.TotalQuestions - answered
	applyScale(&s, verbalCorrect, quantCorrect)
	return s
}
