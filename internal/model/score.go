package model

// ScoreSummary is derived on demand from the question list and answer map
// (or from server-supplied per-answer results) and never stored
// independently of its inputs.
//
// The scaled section scores come from a fixed linear mapping of the
// correct ratio onto 200–800 with a 60/40 verbal/quant split. That mapping
// is a display approximation, not a psychometric model.
type ScoreSummary struct {
	CorrectCount   int `json:"correct_count"`
	IncorrectCount int `json:"incorrect_count"`
	OmittedCount   int `json:"omitted_count"`
	TotalQuestions int `json:"total_questions"`
	VerbalScaled   int `json:"verbal_scaled"`
	QuantScaled    int `json:"quant_scaled"`
	TotalScaled    int `json:"total_scaled"`
}
