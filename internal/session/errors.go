package session

import "errors"

// Domain errors. State-machine violations are caller bugs surfaced as
// typed errors; fetch failures stay inside the Preparing error sub-state.
var (
	ErrInvalidTransition = errors.New("operation not valid in current session state")
	ErrNotAnswering      = errors.New("session is not in the answering state")
	ErrNotFinished       = errors.New("session has not finished")
	ErrNoQuestionData    = errors.New("question data not loaded")
)
