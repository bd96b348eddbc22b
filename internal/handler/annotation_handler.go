package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/prepline/examroom/internal/model"
	"github.com/prepline/examroom/internal/response"
	"github.com/prepline/examroom/internal/service"
	"github.com/prepline/examroom/internal/session"
	"github.com/prepline/examroom/internal/validator"
)

// AnnotationHandler drives selections, highlights and notes on the
// question in view. Every mutation responds with the re-rendered view so
// the client repaints in one round trip.
type AnnotationHandler struct {
	sessions *service.SessionService
}

// NewAnnotationHandler creates a new AnnotationHandler.
func NewAnnotationHandler(sessions *service.SessionService) *AnnotationHandler {
	return &AnnotationHandler{sessions: sessions}
}

// CaptureSelection godoc
// PUT /api/v1/sessions/:session_id/selection
// Records the pending text selection; blank text clears it.
func (h *AnnotationHandler) CaptureSelection(c *gin.Context) {
	sess, ok := resolveSession(c, h.sessions)
	if !ok {
		return
	}

	var req model.SelectionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := sess.CaptureSelection(req.Text, req.X, req.Y); err != nil {
		failFromSession(c, err)
		return
	}
	viewOK(c, sess)
}

// AddHighlight godoc
// POST /api/v1/sessions/:session_id/highlights
// Converts the pending selection into a highlight.
func (h *AnnotationHandler) AddHighlight(c *gin.Context) {
	sess, ok := resolveSession(c, h.sessions)
	if !ok {
		return
	}

	var req model.HighlightRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := sess.AddHighlight(req.Marker); err != nil {
		failFromSession(c, err)
		return
	}
	viewOK(c, sess)
}

// RemoveHighlight godoc
// DELETE /api/v1/sessions/:session_id/highlights
// Deletes the highlight whose text matches the pending selection.
func (h *AnnotationHandler) RemoveHighlight(c *gin.Context) {
	sess, ok := resolveSession(c, h.sessions)
	if !ok {
		return
	}

	if err := sess.RemoveHighlight(); err != nil {
		failFromSession(c, err)
		return
	}
	viewOK(c, sess)
}

// SaveNote godoc
// POST /api/v1/sessions/:session_id/notes
// Saves a note over the pending selection. An empty body cancels the
// composer without creating anything.
func (h *AnnotationHandler) SaveNote(c *gin.Context) {
	sess, ok := resolveSession(c, h.sessions)
	if !ok {
		return
	}

	var req model.SaveNoteRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	note, saved, err := sess.SaveNote(req.Body)
	if err != nil {
		failFromSession(c, err)
		return
	}

	view, err := sess.CurrentView()
	if err != nil {
		failFromSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"saved": saved,
		"note":  note,
		"view":  view,
	})
}

// ToggleNote godoc
// POST /api/v1/sessions/:session_id/notes/:note_id/toggle
func (h *AnnotationHandler) ToggleNote(c *gin.Context) {
	sess, ok := resolveSession(c, h.sessions)
	if !ok {
		return
	}

	noteID, ok := parseNoteID(c)
	if !ok {
		return
	}

	if err := sess.ToggleNoteExpansion(noteID); err != nil {
		failFromSession(c, err)
		return
	}
	viewOK(c, sess)
}

// DeleteNote godoc
// DELETE /api/v1/sessions/:session_id/notes/:note_id
func (h *AnnotationHandler) DeleteNote(c *gin.Context) {
	sess, ok := resolveSession(c, h.sessions)
	if !ok {
		return
	}

	noteID, ok := parseNoteID(c)
	if !ok {
		return
	}

	if err := sess.DeleteNote(noteID); err != nil {
		failFromSession(c, err)
		return
	}
	viewOK(c, sess)
}

func viewOK(c *gin.Context, sess *session.Session) {
	view, err := sess.CurrentView()
	if err != nil {
		failFromSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func parseNoteID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("note_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
