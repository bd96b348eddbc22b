package session

import (
	"github.com/google/uuid"

	"github.com/prepline/examroom/internal/model"
	"github.com/prepline/examroom/internal/textfmt"
)

// Snapshot is the read-only projection of session state consumed by the
// REST state endpoint and the WebSocket monitor stream.
type Snapshot struct {
	SessionID        uuid.UUID          `json:"session_id"`
	State            model.SessionState `json:"state"`
	Mode             model.TimeMode     `json:"mode,omitempty"`
	SectionName      string             `json:"section_name,omitempty"`
	TotalQuestions   int                `json:"total_questions"`
	CurrentQuestion  int                `json:"current_question"`
	AnsweredCount    int                `json:"answered_count"`
	MarkedQuestions  []int              `json:"marked_questions,omitempty"`
	Timed            bool               `json:"timed"`
	RemainingSeconds int                `json:"remaining_seconds"`
	Clock            string             `json:"clock"`
	LoadError        string             `json:"load_error,omitempty"`
}

// Snapshot captures the current state without mutating anything.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SessionID: s.id,
		State:     s.state,
		Mode:      s.mode,
	}
	if s.loadErr != nil {
		snap.LoadError = s.loadErr.Error()
	}
	if s.section != nil {
		snap.SectionName = s.section.Name
		snap.TotalQuestions = len(s.section.Questions)
	}
	if s.progress != nil {
		snap.CurrentQuestion = s.progress.Current()
		snap.AnsweredCount = s.progress.AnsweredCount()
		snap.MarkedQuestions = s.progress.MarkedIDs()
	}
	if s.timer != nil {
		snap.Timed = s.timer.Timed()
		snap.RemainingSeconds = s.timer.Remaining()
		snap.Clock = s.timer.Clock()
	}
	return snap
}

// QuestionView is the question in view, rendered for display. The correct
// answer and analysis stay server-side until the session has finished.
type QuestionView struct {
	ID                  int                    `json:"id"`
	Type                model.QuestionType     `json:"type"`
	RenderedPrompt      string                 `json:"rendered_prompt"`
	RenderedDescription string                 `json:"rendered_description,omitempty"`
	Images              []model.QuestionImage  `json:"images,omitempty"`
	Options             []string               `json:"options,omitempty"`
	Blanks              []model.BlankSlot      `json:"blanks,omitempty"`
	Answer              model.Answer           `json:"answer"`
	Marked              bool                   `json:"marked"`
	Highlights          []model.Highlight      `json:"highlights,omitempty"`
	Notes               []NoteView             `json:"notes,omitempty"`
	Selection           *model.SelectionAnchor `json:"selection,omitempty"`
}

// NoteView is a note with its collapsed preview precomputed.
type NoteView struct {
	model.Note
	Preview string `json:"preview"`
}

// CurrentView renders the question in view with its annotations overlaid.
func (s *Session) CurrentView() (QuestionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.StateAnswering && s.state != model.StateEndConfirming {
		return QuestionView{}, ErrNotAnswering
	}

	q := s.section.Questions[s.progress.Current()-1]
	answer, _ := s.progress.Answer(q.ID)

	view := QuestionView{
		ID:             q.ID,
		Type:           q.Type,
		RenderedPrompt: s.annotations.RenderFormattedText(q.PromptText, q.ID),
		Images:         q.Images,
		Options:        q.Options,
		Blanks:         q.Blanks,
		Answer:         answer,
		Marked:         s.progress.IsMarked(q.ID),
		Highlights:     s.annotations.Highlights(q.ID),
		Selection:      s.annotations.Selection(),
	}
	if q.DescriptionText != "" {
		view.RenderedDescription = s.annotations.RenderFormattedText(q.DescriptionText, q.ID)
	}
	for _, n := range s.annotations.Notes(q.ID) {
		view.Notes = append(view.Notes, NoteView{Note: n, Preview: n.Preview()})
	}
	return view, nil
}

// ─── Report ────────────────────────────────────────────────────────

// QuestionReport is the per-question line of the final report.
type QuestionReport struct {
	QuestionID       int    `json:"question_id"`
	Answered         bool   `json:"answered"`
	UserAnswer       string `json:"user_answer,omitempty"`
	CorrectAnswer    string `json:"correct_answer,omitempty"`
	RenderedAnalysis string `json:"rendered_analysis,omitempty"`
	Marked           bool   `json:"marked"`
	TimeSeconds      int    `json:"time_seconds"`
	TimeDisplay      string `json:"time_display"`
}

// Report is the final score report rendered from in-memory state.
type Report struct {
	SessionID        uuid.UUID          `json:"session_id"`
	SectionName      string             `json:"section_name,omitempty"`
	Summary          model.ScoreSummary `json:"summary"`
	Questions        []QuestionReport   `json:"questions"`
	TotalTimeSeconds int                `json:"total_time_seconds"`
	TotalTimeDisplay string             `json:"total_time_display"`
}

// Report builds the final report. Only valid once the session finished.
func (s *Session) Report() (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.StateFinished {
		return Report{}, ErrNotFinished
	}

	rep := Report{
		SessionID:   s.id,
		SectionName: s.section.Name,
		Summary:     *s.summary,
	}

	for _, q := range s.section.Questions {
		answer, _ := s.progress.Answer(q.ID)
		seconds := s.progress.ElapsedSeconds(q.ID)
		line := QuestionReport{
			QuestionID:    q.ID,
			Answered:      !answer.IsEmpty(),
			UserAnswer:    answer.SubmissionValue(),
			CorrectAnswer: q.CorrectAnswer,
			Marked:        s.progress.IsMarked(q.ID),
			TimeSeconds:   seconds,
			TimeDisplay:   textfmt.FormatClock(seconds),
		}
		if q.Analysis != "" {
			line.RenderedAnalysis = s.annotations.RenderFormattedText(q.Analysis, q.ID)
		}
		rep.Questions = append(rep.Questions, line)
		rep.TotalTimeSeconds += seconds
	}
	rep.TotalTimeDisplay = textfmt.FormatDuration(rep.TotalTimeSeconds)
	return rep, nil
}

// ─── Annotation operations ─────────────────────────────────────────
// All annotation operations silently no-op on missing targets; only the
// session-state precondition is an error.

// CaptureSelection records (or clears) the pending text selection.
func (s *Session) CaptureSelection(text string, x, y int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.StateAnswering {
		return ErrNotAnswering
	}
	s.annotations.CaptureSelection(text, x, y)
	return nil
}

// ClearSelection drops the pending selection.
func (s *Session) ClearSelection() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.StateAnswering {
		return ErrNotAnswering
	}
	s.annotations.ClearSelection()
	return nil
}

// AddHighlight highlights the pending selection on the question in view.
func (s *Session) AddHighlight(marker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.StateAnswering {
		return ErrNotAnswering
	}
	if marker == model.MarkerUnderline {
		s.annotations.AddUnderline(s.progress.Current())
	} else {
		s.annotations.AddHighlight(s.progress.Current(), marker)
	}
	return nil
}

// RemoveHighlight deletes the highlight matching the pending selection.
func (s *Session) RemoveHighlight() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.StateAnswering {
		return ErrNotAnswering
	}
	s.annotations.RemoveHighlight(s.progress.Current())
	return nil
}

// SaveNote saves a note over the pending selection; empty bodies cancel.
func (s *Session) SaveNote(body string) (model.Note, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.StateAnswering {
		return model.Note{}, false, ErrNotAnswering
	}
	note, ok := s.annotations.SaveNote(s.progress.Current(), body)
	return note, ok, nil
}

// ToggleNoteExpansion flips a note's expansion.
func (s *Session) ToggleNoteExpansion(noteID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.StateAnswering {
		return ErrNotAnswering
	}
	s.annotations.ToggleNoteExpansion(noteID)
	return nil
}

// DeleteNote removes a note; unknown ids are a no-op.
func (s *Session) DeleteNote(noteID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.StateAnswering {
		return ErrNotAnswering
	}
	s.annotations.DeleteNote(noteID)
	return nil
}
