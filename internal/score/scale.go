package score

import (
	"math"

	"github.com/prepline/examroom/internal/model"
)

// Section scaling constants. Positionally, the first 60% of a section's
// questions count toward the verbal sub-score and the remainder toward
// quant; each sub-score maps its correct ratio linearly onto 200–800.
// A display approximation only — there is no conversion table.
const (
	scaledFloor   = 200
	scaledCeiling = 800
	verbalWeight  = 0.6
)

// verbalCount returns how many of total questions belong to the verbal
// section under the fixed 60/40 split.
func verbalCount(total int) int {
	return int(math.Round(float64(total) * verbalWeight))
}

// applyScale fills in the derived 200–800 sub-scores from per-section
// correct counts.
func applyScale(s *model.ScoreSummary, verbalCorrect, quantCorrect int) {
	vTotal := verbalCount(s.TotalQuestions)
	qTotal := s.TotalQuestions - vTotal

	s.VerbalScaled = scaleOne(verbalCorrect, vTotal)
	s.QuantScaled = scaleOne(quantCorrect, qTotal)
	s.TotalScaled = s.VerbalScaled + s.QuantScaled
}

func scaleOne(correct, total int) int {
	if total <= 0 {
		return scaledFloor
	}
	ratio := float64(correct) / float64(total)
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return scaledFloor + int(math.Round(ratio*(scaledCeiling-scaledFloor)))
}
