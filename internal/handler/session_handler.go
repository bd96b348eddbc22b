package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prepline/examroom/internal/middleware"
	"github.com/prepline/examroom/internal/model"
	"github.com/prepline/examroom/internal/question"
	"github.com/prepline/examroom/internal/response"
	"github.com/prepline/examroom/internal/service"
	"github.com/prepline/examroom/internal/session"
	"github.com/prepline/examroom/internal/validator"
)

// SessionHandler drives the exam-taking session lifecycle over REST.
type SessionHandler struct {
	sessions *service.SessionService
	tickets  *service.TicketService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions *service.SessionService, tickets *service.TicketService) *SessionHandler {
	return &SessionHandler{sessions: sessions, tickets: tickets}
}

// CreateSession godoc
// POST /api/v1/sessions
// Opens a session on the time-mode selection screen and mints its ticket.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req model.CreateSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sess := h.sessions.Create(req.SectionID)

	ticket, err := h.tickets.Issue(sess.ID())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"session_id": sess.ID(),
		"ticket":     ticket,
		"state":      sess.State(),
	})
}

// GetState godoc
// GET /api/v1/sessions/:session_id
// Returns the session snapshot.
func (h *SessionHandler) GetState(c *gin.Context) {
	sess, ok := h.resolve(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, sess.Snapshot())
}

// SelectTimeMode godoc
// POST /api/v1/sessions/:session_id/time-mode
func (h *SessionHandler) SelectTimeMode(c *gin.Context) {
	sess, ok := h.resolve(c)
	if !ok {
		return
	}

	var req model.SelectTimeModeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := sess.SelectTimeMode(req.Mode); err != nil {
		h.failFromSession(c, err)
		return
	}
	h.snapshotOK(c, sess)
}

// AcknowledgeBriefing godoc
// POST /api/v1/sessions/:session_id/briefing/ack
// Leaves the briefing screen and loads question data. A load failure
// keeps the session retryable; the snapshot carries the error.
func (h *SessionHandler) AcknowledgeBriefing(c *gin.Context) {
	sess, ok := h.resolve(c)
	if !ok {
		return
	}

	if err := sess.AcknowledgeBriefing(); err != nil {
		h.failFromSession(c, err)
		return
	}
	h.snapshotOK(c, sess)
}

// RetryLoad godoc
// POST /api/v1/sessions/:session_id/retry
func (h *SessionHandler) RetryLoad(c *gin.Context) {
	sess, ok := h.resolve(c)
	if !ok {
		return
	}

	if err := sess.RetryLoad(); err != nil {
		h.failFromSession(c, err)
		return
	}
	h.snapshotOK(c, sess)
}

// GetCurrentQuestion godoc
// GET /api/v1/sessions/:session_id/question
// Returns the question in view, rendered with annotations.
func (h *SessionHandler) GetCurrentQuestion(c *gin.Context) {
	sess, ok := h.resolve(c)
	if !ok {
		return
	}

	view, err := sess.CurrentView()
	if err != nil {
		h.failFromSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// SetAnswer godoc
// PUT /api/v1/sessions/:session_id/answer
func (h *SessionHandler) SetAnswer(c *gin.Context) {
	sess, ok := h.resolve(c)
	if !ok {
		return
	}

	var req model.AnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := sess.SetAnswer(model.Answer{Value: req.Value, Blanks: req.Blanks}); err != nil {
		h.failFromSession(c, err)
		return
	}
	h.snapshotOK(c, sess)
}

// ToggleReviewMark godoc
// POST /api/v1/sessions/:session_id/mark
func (h *SessionHandler) ToggleReviewMark(c *gin.Context) {
	sess, ok := h.resolve(c)
	if !ok {
		return
	}

	if err := sess.ToggleReviewMark(); err != nil {
		h.failFromSession(c, err)
		return
	}
	h.snapshotOK(c, sess)
}

// Navigate godoc
// POST /api/v1/sessions/:session_id/navigate
// Jumps to a question by its 1-based position.
func (h *SessionHandler) Navigate(c *gin.Context) {
	sess, ok := h.resolve(c)
	if !ok {
		return
	}

	var req model.NavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := sess.GoTo(req.QuestionID); err != nil {
		h.failFromSession(c, err)
		return
	}
	h.snapshotOK(c, sess)
}

// NavigateNext godoc
// POST /api/v1/sessions/:session_id/next
func (h *SessionHandler) NavigateNext(c *gin.Context) {
	sess, ok := h.resolve(c)
	if !ok {
		return
	}

	if err := sess.GoToNext(); err != nil {
		h.failFromSession(c, err)
		return
	}
	h.snapshotOK(c, sess)
}

// NavigatePrevious godoc
// POST /api/v1/sessions/:session_id/previous
func (h *SessionHandler) NavigatePrevious(c *gin.Context) {
	sess, ok := h.resolve(c)
	if !ok {
		return
	}

	if err := sess.GoToPrevious(); err != nil {
		h.failFromSession(c, err)
		return
	}
	h.snapshotOK(c, sess)
}

// RequestEnd godoc
// POST /api/v1/sessions/:session_id/end
func (h *SessionHandler) RequestEnd(c *gin.Context) {
	sess, ok := h.resolve(c)
	if !ok {
		return
	}

	if err := sess.RequestEnd(); err != nil {
		h.failFromSession(c, err)
		return
	}
	h.snapshotOK(c, sess)
}

// CancelEnd godoc
// POST /api/v1/sessions/:session_id/end/cancel
func (h *SessionHandler) CancelEnd(c *gin.Context) {
	sess, ok := h.resolve(c)
	if !ok {
		return
	}

	if err := sess.CancelEnd(); err != nil {
		h.failFromSession(c, err)
		return
	}
	h.snapshotOK(c, sess)
}

// ConfirmEnd godoc
// POST /api/v1/sessions/:session_id/end/confirm
// Submits the answers and finishes the session.
func (h *SessionHandler) ConfirmEnd(c *gin.Context) {
	sess, ok := h.resolve(c)
	if !ok {
		return
	}

	if err := sess.ConfirmEnd(c.Request.Context()); err != nil {
		h.failFromSession(c, err)
		return
	}

	h.sessions.CacheReport(c.Request.Context(), sess)
	h.sessions.PublishSnapshot(c.Request.Context(), sess)
	h.snapshotOK(c, sess)
}

// GetReport godoc
// GET /api/v1/sessions/:session_id/report
// Serves the report from the live session, falling back to the cache for
// evicted sessions.
func (h *SessionHandler) GetReport(c *gin.Context) {
	id, ok := middleware.GetSessionID(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTicketRequired)
		return
	}

	sess, err := h.sessions.Get(id)
	if err == nil {
		rep, err := sess.Report()
		if err != nil {
			h.failFromSession(c, err)
			return
		}
		response.Success(c, http.StatusOK, rep)
		return
	}

	cached, err := h.sessions.CachedReport(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		return
	}
	response.Success(c, http.StatusOK, cached)
}

// CloseSession godoc
// DELETE /api/v1/sessions/:session_id
// Evicts the session, caching its report if finished.
func (h *SessionHandler) CloseSession(c *gin.Context) {
	id, ok := middleware.GetSessionID(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTicketRequired)
		return
	}

	if err := h.sessions.Close(c.Request.Context(), id); err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"closed": true})
}

// ─── Internal helpers ──────────────────────────────────────────────

func (h *SessionHandler) resolve(c *gin.Context) (*session.Session, bool) {
	return resolveSession(c, h.sessions)
}

func (h *SessionHandler) snapshotOK(c *gin.Context, sess *session.Session) {
	h.sessions.PublishSnapshot(c.Request.Context(), sess)
	response.Success(c, http.StatusOK, sess.Snapshot())
}

func (h *SessionHandler) failFromSession(c *gin.Context, err error) {
	failFromSession(c, err)
}

// resolveSession extracts the authenticated session from the ticket
// context. Shared by the session, annotation and websocket handlers.
func resolveSession(c *gin.Context, sessions *service.SessionService) (*session.Session, bool) {
	id, ok := middleware.GetSessionID(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrTicketRequired)
		return nil, false
	}

	sess, err := sessions.Get(id)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		return nil, false
	}
	return sess, true
}

// failFromSession maps engine errors onto API error codes.
func failFromSession(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidTransition):
		response.Fail(c, http.StatusConflict, response.ErrInvalidTransition)
	case errors.Is(err, session.ErrNotAnswering):
		response.Fail(c, http.StatusConflict, response.ErrNotAnswering)
	case errors.Is(err, session.ErrNotFinished):
		response.Fail(c, http.StatusConflict, response.ErrNotFinished)
	case errors.Is(err, session.ErrQuestionOutOfRange):
		response.Fail(c, http.StatusBadRequest, response.ErrQuestionOutOfRange)
	case errors.Is(err, question.ErrNoValidQuestions):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrNoQuestions)
	default:
		// Load failures surface as a retryable section error.
		response.Fail(c, http.StatusBadGateway, response.ErrSectionUnavailable)
	}
}
