// Package annotate implements the highlight and note engine operating over
// each question's rendered text. Every operation is best-effort: missing
// targets are silent no-ops, never errors — annotations are not
// critical-path actions.
package annotate

import (
	"fmt"
	"html"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prepline/examroom/internal/mathtext"
	"github.com/prepline/examroom/internal/model"
	"github.com/prepline/examroom/internal/textfmt"
)

// Engine holds one session's annotations and its pending text selection.
type Engine struct {
	highlights []model.Highlight
	notes      []model.Note
	selection  *model.SelectionAnchor
	math       *mathtext.Loader
	log        zerolog.Logger
}

// NewEngine creates an empty annotation engine.
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{
		math: mathtext.NewLoader(nil, log),
		log:  log.With().Str("component", "annotate").Logger(),
	}
}

// CaptureSelection records a non-empty text selection with its screen
// anchor. A selection that collapses to the empty string clears the
// pending selection (and thereby hides the contextual menu).
func (e *Engine) CaptureSelection(text string, x, y int) {
	if strings.TrimSpace(text) == "" {
		e.selection = nil
		return
	}
	e.selection = &model.SelectionAnchor{Text: text, X: x, Y: y}
}

// Selection returns a copy of the pending selection, or nil.
func (e *Engine) Selection() *model.SelectionAnchor {
	if e.selection == nil {
		return nil
	}
	s := *e.selection
	return &s
}

// ClearSelection drops the pending selection.
func (e *Engine) ClearSelection() { e.selection = nil }

// AddHighlight creates a highlight from the pending selection, scoped to
// questionID, then clears the selection. No selection, no highlight.
func (e *Engine) AddHighlight(questionID int, marker string) {
	if e.selection == nil {
		return
	}
	e.highlights = append(e.highlights, model.Highlight{
		ID:         uuid.New(),
		QuestionID: questionID,
		Text:       e.selection.Text,
		Marker:     marker,
	})
	e.selection = nil
}

// AddUnderline is AddHighlight with the underline marker.
func (e *Engine) AddUnderline(questionID int) {
	e.AddHighlight(questionID, model.MarkerUnderline)
}

// RemoveHighlight deletes the highlight for questionID whose text exactly
// matches the pending selection. No match, no-op.
func (e *Engine) RemoveHighlight(questionID int) {
	if e.selection == nil {
		return
	}
	for i, h := range e.highlights {
		if h.QuestionID == questionID && h.Text == e.selection.Text {
			e.highlights = append(e.highlights[:i], e.highlights[i+1:]...)
			e.selection = nil
			return
		}
	}
}

// SaveNote creates a note from the pending selection. A body that trims to
// empty cancels silently. The pending selection is cleared either way.
func (e *Engine) SaveNote(questionID int, body string) (model.Note, bool) {
	sel := e.selection
	e.selection = nil

	if sel == nil || strings.TrimSpace(body) == "" {
		return model.Note{}, false
	}

	note := model.Note{
		ID:           uuid.New(),
		QuestionID:   questionID,
		SelectedText: sel.Text,
		Body:         strings.TrimSpace(body),
		Anchor:       *sel,
	}
	e.notes = append(e.notes, note)
	return note, true
}

// ToggleNoteExpansion flips a note between collapsed and expanded.
// Expanding re-applies the visual marker over matching rendered text;
// collapsing removes it (see RenderFormattedText). Unknown ids no-op.
func (e *Engine) ToggleNoteExpansion(noteID uuid.UUID) {
	for i := range e.notes {
		if e.notes[i].ID == noteID {
			e.notes[i].Expanded = !e.notes[i].Expanded
			return
		}
	}
}

// DeleteNote removes a note and its applied marker. Idempotent: deleting a
// note that does not exist (or twice) is a no-op.
func (e *Engine) DeleteNote(noteID uuid.UUID) {
	for i, n := range e.notes {
		if n.ID == noteID {
			e.notes = append(e.notes[:i], e.notes[i+1:]...)
			return
		}
	}
}

// Highlights returns the highlights scoped to questionID in registration
// order.
func (e *Engine) Highlights(questionID int) []model.Highlight {
	var out []model.Highlight
	for _, h := range e.highlights {
		if h.QuestionID == questionID {
			out = append(out, h)
		}
	}
	return out
}

// Notes returns the notes scoped to questionID in creation order.
func (e *Engine) Notes(questionID int) []model.Note {
	var out []model.Note
	for _, n := range e.notes {
		if n.QuestionID == questionID {
			out = append(out, n)
		}
	}
	return out
}

// RenderFormattedText applies the markup formatter and math span wrapping
// to text, then overlays
// the question's highlights and expanded-note markers as styled spans.
//
// Overlay is by exact substring replacement: for repeated or re-highlighted
// fragments the last-registered annotation wins (earlier ones for the same
// text are superseded before application, so spans never nest).
func (e *Engine) RenderFormattedText(text string, questionID int) string {
	rendered := e.math.Apply(textfmt.FormatText(text))

	for _, h := range lastPerText(e.Highlights(questionID)) {
		escaped := html.EscapeString(h.Text)
		span := highlightSpan(h)
		rendered = strings.ReplaceAll(rendered, escaped, span)
	}

	for _, n := range e.Notes(questionID) {
		if !n.Expanded {
			continue
		}
		escaped := html.EscapeString(n.SelectedText)
		marker := fmt.Sprintf(`<mark class="note-anchor" data-note-id="%s">%s</mark>`, n.ID, escaped)
		rendered = strings.ReplaceAll(rendered, escaped, marker)
	}

	return rendered
}

// lastPerText keeps only the last-registered highlight for each exact
// text fragment.
func lastPerText(highlights []model.Highlight) []model.Highlight {
	last := make(map[string]int, len(highlights))
	for i, h := range highlights {
		last[h.Text] = i
	}
	out := make([]model.Highlight, 0, len(last))
	for i, h := range highlights {
		if last[h.Text] == i {
			out = append(out, h)
		}
	}
	return out
}

func highlightSpan(h model.Highlight) string {
	escaped := html.EscapeString(h.Text)
	if h.Marker == model.MarkerUnderline {
		return fmt.Sprintf(`<span class="annotation-underline" data-annotation-id="%s">%s</span>`, h.ID, escaped)
	}
	return fmt.Sprintf(`<span class="annotation-highlight annotation-%s" data-annotation-id="%s">%s</span>`, h.Marker, h.ID, escaped)
}
