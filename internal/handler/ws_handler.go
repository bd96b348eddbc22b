package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/prepline/examroom/internal/model"
	"github.com/prepline/examroom/internal/service"
	"github.com/prepline/examroom/internal/session"
	ws "github.com/prepline/examroom/internal/websocket"
)

// snapshotInterval drives the countdown clock on the client.
const snapshotInterval = time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams session snapshots over WebSocket so the client's
// clock and progress strip stay live without polling.
type WSHandler struct {
	sessions *service.SessionService
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessions *service.SessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessions: sessions,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/sessions/:session_id/stream
// Upgrades to WebSocket and pushes a snapshot every second plus whenever
// the client asks. Closes once the session finishes.
func (h *WSHandler) SessionStream(c *gin.Context) {
	sess, ok := resolveSession(c, h.sessions)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("session_id", sess.ID().String()).Logger()
	wsLog.Info().Msg("Monitor connected")

	// Reader goroutine feeds client actions; the main loop owns writes.
	// Its send must also select on the write loop's exit signal: when the
	// stream ends first (session finished, write error) nobody receives
	// from actions, and the reader's own done channel cannot release a
	// send the reader itself is parked on.
	actions := make(chan ws.Action)
	done := make(chan struct{})
	writerGone := make(chan struct{})
	defer close(writerGone)
	go func() {
		defer close(done)
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				} else {
					wsLog.Debug().Msg("Connection closed")
				}
				return
			}
			select {
			case actions <- msg.Action:
			case <-writerGone:
				return
			}
		}
	}()

	ticker := time.NewTicker(snapshotInterval)
	defer ticker.Stop()

	finished := false
	for {
		select {
		case <-done:
			return

		case action := <-actions:
			switch action {
			case ws.ActionPing:
				ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			case ws.ActionSnapshot:
				if err := h.writeSnapshot(conn, sess, &finished); err != nil {
					return
				}
			default:
				wsLog.Warn().Str("action", string(action)).Msg("Unknown action")
				ws.WriteError(conn, "unknown action: "+string(action))
			}

		case <-ticker.C:
			if err := h.writeSnapshot(conn, sess, &finished); err != nil {
				return
			}
			if finished {
				wsLog.Info().Msg("Session finished, closing stream")
				return
			}
		}
	}
}

// writeSnapshot pushes the state and, on the transition into the final
// state, a one-shot finished event.
func (h *WSHandler) writeSnapshot(conn *websocket.Conn, sess *session.Session, finished *bool) error {
	snap := sess.Snapshot()
	if err := ws.WriteTyped(conn, ws.SnapshotResponse{Event: ws.EventSnapshot, Snapshot: snap}); err != nil {
		return err
	}
	if snap.State == model.StateFinished && !*finished {
		*finished = true
		return ws.WriteTyped(conn, ws.FinishedResponse{Event: ws.EventFinished})
	}
	return nil
}
