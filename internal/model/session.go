package model

// SessionState enumerates the screens of one exam-taking session.
// Answering is the only state in which the timer runs and navigation or
// answer operations are valid; Answering → Finished is one-way.
type SessionState string

const (
	StateSelectingTimeMode SessionState = "SELECTING_TIME_MODE"
	StateBriefing          SessionState = "BRIEFING"
	StatePreparing         SessionState = "PREPARING"
	StateAnswering         SessionState = "ANSWERING"
	StateEndConfirming     SessionState = "END_CONFIRMING"
	StateFinished          SessionState = "FINISHED"
)

// TimeMode selects whether the countdown clock runs.
type TimeMode string

const (
	TimeModeTimed   TimeMode = "TIMED"
	TimeModeUntimed TimeMode = "UNTIMED"
)

// CreateSessionRequest is the payload for opening a new session.
type CreateSessionRequest struct {
	SectionID string `json:"section_id" binding:"required,min=1,max=64"`
}

// SelectTimeModeRequest is the payload for picking timed/untimed mode.
type SelectTimeModeRequest struct {
	Mode TimeMode `json:"mode" binding:"required,oneof=TIMED UNTIMED"`
}

// NavigateRequest is the payload for jumping to a question by position.
type NavigateRequest struct {
	QuestionID int `json:"question_id" binding:"required,min=1"`
}

// AnswerRequest is the payload for recording the current question's answer.
type AnswerRequest struct {
	Value  string            `json:"value" binding:"omitempty,max=2000"`
	Blanks map[string]string `json:"blanks" binding:"omitempty"`
}

// SelectionRequest is the payload for capturing a text selection.
type SelectionRequest struct {
	Text string `json:"text" binding:"omitempty,max=2000"`
	X    int    `json:"x" binding:"min=0"`
	Y    int    `json:"y" binding:"min=0"`
}

// HighlightRequest is the payload for creating a highlight from the
// pending selection.
type HighlightRequest struct {
	Marker string `json:"marker" binding:"required,oneof=underline yellow red green blue"`
}

// SaveNoteRequest is the payload for saving a note composed over the
// pending selection.
type SaveNoteRequest struct {
	Body string `json:"body" binding:"omitempty,max=5000"`
}
