package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/prepline/examroom/internal/response"
	"github.com/prepline/examroom/internal/service"
)

const (
	// ContextKeySessionID is the Gin context key for the ticket's session id.
	ContextKeySessionID = "session_id"
)

// RequireTicket validates a session ticket from the Authorization header
// and checks that it matches the :session_id path parameter, so a ticket
// for one session can never drive another.
func RequireTicket(tickets *service.TicketService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := extractAndValidateTicket(c, tickets)
		if err != nil {
			abortTicket(c, err)
			return
		}

		if param := c.Param("session_id"); param != "" && param != sessionID.String() {
			response.AbortFail(c, http.StatusForbidden, response.ErrTicketInvalid)
			return
		}

		c.Set(ContextKeySessionID, sessionID)
		c.Next()
	}
}

// RequireTicketWS validates a ticket from the query param ?ticket=...
// Used for WebSocket upgrade requests, which cannot send headers.
func RequireTicketWS(tickets *service.TicketService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.Query("ticket")
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTicketRequired)
			return
		}

		sessionID, err := tickets.Validate(tokenStr)
		if err != nil {
			abortTicket(c, err)
			return
		}

		if param := c.Param("session_id"); param != "" && param != sessionID.String() {
			response.AbortFail(c, http.StatusForbidden, response.ErrTicketInvalid)
			return
		}

		c.Set(ContextKeySessionID, sessionID)
		c.Next()
	}
}

// GetSessionID retrieves the authenticated session id from the Gin context.
func GetSessionID(c *gin.Context) (uuid.UUID, bool) {
	val, exists := c.Get(ContextKeySessionID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := val.(uuid.UUID)
	return id, ok
}

func extractAndValidateTicket(c *gin.Context, tickets *service.TicketService) (uuid.UUID, error) {
	tokenStr := ""

	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			tokenStr = parts[1]
		}
	}

	if tokenStr == "" {
		tokenStr = c.Query("ticket")
	}

	if tokenStr == "" {
		return uuid.Nil, service.ErrTicketInvalid
	}

	return tickets.Validate(tokenStr)
}

func abortTicket(c *gin.Context, err error) {
	if errors.Is(err, service.ErrTicketExpired) {
		response.AbortFail(c, http.StatusUnauthorized, response.ErrTicketExpired)
		return
	}
	response.AbortFail(c, http.StatusUnauthorized, response.ErrTicketInvalid)
}
