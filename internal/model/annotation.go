package model

import "github.com/google/uuid"

// Highlight markers. MarkerUnderline renders as an underline; everything
// else is treated as a background color class.
const (
	MarkerUnderline = "underline"
	MarkerYellow    = "yellow"
	MarkerRed       = "red"
	MarkerGreen     = "green"
	MarkerBlue      = "blue"
)

// NotePreviewLimit is the collapsed-note preview length in runes.
const NotePreviewLimit = 25

// SelectionAnchor is a captured text selection with its screen anchor,
// queried by the presentation layer to position the contextual menu.
type SelectionAnchor struct {
	Text string `json:"text"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// Highlight is a session-scoped text annotation attached to one question.
type Highlight struct {
	ID         uuid.UUID `json:"id"`
	QuestionID int       `json:"question_id"`
	Text       string    `json:"text"`
	Marker     string    `json:"marker"`
}

// Note is a free-form annotation created from a text selection.
type Note struct {
	ID           uuid.UUID       `json:"id"`
	QuestionID   int             `json:"question_id"`
	SelectedText string          `json:"selected_text"`
	Body         string          `json:"body"`
	Anchor       SelectionAnchor `json:"anchor"`
	Expanded     bool            `json:"expanded"`
}

// Preview returns the collapsed one-line form of the selected text,
// truncated with an ellipsis past NotePreviewLimit runes.
func (n Note) Preview() string {
	runes := []rune(n.SelectedText)
	if len(runes) <= NotePreviewLimit {
		return n.SelectedText
	}
	return string(runes[:NotePreviewLimit]) + "…"
}
