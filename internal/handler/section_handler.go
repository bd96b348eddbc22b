package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prepline/examroom/internal/repository"
	"github.com/prepline/examroom/internal/response"
	"github.com/prepline/examroom/internal/service"
)

// SectionHandler manages the question bank.
type SectionHandler struct {
	sections *service.SectionService
}

// NewSectionHandler creates a new SectionHandler.
func NewSectionHandler(sections *service.SectionService) *SectionHandler {
	return &SectionHandler{sections: sections}
}

// ListSections godoc
// GET /api/v1/sections
// Returns section ids and names for the picker.
func (h *SectionHandler) ListSections(c *gin.Context) {
	sections, err := h.sections.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if sections == nil {
		sections = []repository.SectionRow{}
	}
	response.Success(c, http.StatusOK, gin.H{"sections": sections})
}

// ImportSection godoc
// PUT /api/v1/sections/:section_id
// Stores a raw question payload. The payload is validated by running it
// through normalization; it must yield at least one question.
func (h *SectionHandler) ImportSection(c *gin.Context) {
	id := c.Param("section_id")
	if id == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var body struct {
		Name    string          `json:"name"`
		Payload json.RawMessage `json:"payload" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	count, err := h.sections.Import(c.Request.Context(), id, body.Name, body.Payload)
	if err != nil {
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrNoQuestions)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"section_id": id,
		"questions":  count,
	})
}
