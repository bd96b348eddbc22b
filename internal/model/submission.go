package model

// SubmissionRecord is one row of the submission batch sent upstream.
// Field names follow the submission endpoint's wire format, which uses the
// backend's own identifiers — never the session-internal dense ids.
type SubmissionRecord struct {
	AnswerID      string `json:"answerId"`
	QuestionID    string `json:"questionId"`
	UserAnswer    string `json:"userAnswer"`
	TimeConsuming int    `json:"timeConsuming"`
}
