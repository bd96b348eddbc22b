package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepline/examroom/internal/config"
	"github.com/prepline/examroom/internal/middleware"
	"github.com/prepline/examroom/internal/model"
	"github.com/prepline/examroom/internal/score"
	"github.com/prepline/examroom/internal/service"
	"github.com/prepline/examroom/internal/session"
)

type wsFakeSource struct{ payload json.RawMessage }

func (f *wsFakeSource) FetchSection(context.Context, string) (json.RawMessage, error) {
	return f.payload, nil
}

type wsFakeSink struct{}

func (wsFakeSink) SubmitBatch(context.Context, session.SubmissionBatch) ([]score.AnswerResult, error) {
	return nil, nil
}

func wsSectionPayload() json.RawMessage {
	raw, _ := json.Marshal([]map[string]any{{
		"answerId": "ans-1",
		"question": map[string]any{
			"questionId":      "orig-1",
			"questionType":    "CHOICE",
			"questionContent": "Prompt",
			"options":         []string{"alpha", "beta", "gamma", "delta"},
		},
	}})
	return raw
}

// wsTestServer hosts the stream behind a stub that injects the session id
// the ticket middleware would normally resolve.
func wsTestServer(t *testing.T) (*httptest.Server, *session.Session) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{DefaultTimedSeconds: 10}
	svc := service.NewSessionService(cfg, &wsFakeSource{payload: wsSectionPayload()}, wsFakeSink{}, nil, zerolog.Nop())
	sess := svc.Create("sec-1")
	t.Cleanup(sess.Close)

	require.NoError(t, sess.SelectTimeMode(model.TimeModeUntimed))
	require.NoError(t, sess.AcknowledgeBriefing())

	h := NewWSHandler(svc, zerolog.Nop(), nil)
	r := gin.New()
	r.GET("/stream", func(c *gin.Context) {
		c.Set(middleware.ContextKeySessionID, sess.ID())
	}, h.SessionStream)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, sess
}

func wsDial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSessionStreamSnapshotAndPong(t *testing.T) {
	srv, _ := wsTestServer(t)
	conn := wsDial(t, srv)

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "snapshot"}))
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	var snap struct {
		Event    string           `json:"event"`
		Snapshot session.Snapshot `json:"snapshot"`
	}
	require.NoError(t, conn.ReadJSON(&snap))
	assert.Equal(t, "snapshot", snap.Event)
	assert.Equal(t, model.StateAnswering, snap.Snapshot.State)
	assert.Equal(t, 1, snap.Snapshot.TotalQuestions)

	// The periodic snapshot can interleave with the pong.
	require.NoError(t, conn.WriteJSON(map[string]string{"action": "ping"}))
	sawPong := false
	for i := 0; i < 5 && !sawPong; i++ {
		var evt map[string]any
		require.NoError(t, conn.ReadJSON(&evt))
		sawPong = evt["event"] == "pong"
	}
	assert.True(t, sawPong)
}

func TestSessionStreamClosesAfterFinish(t *testing.T) {
	srv, sess := wsTestServer(t)
	require.NoError(t, sess.RequestEnd())
	require.NoError(t, sess.ConfirmEnd(context.Background()))

	conn := wsDial(t, srv)

	sawFinished := false
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		var evt map[string]any
		if err := conn.ReadJSON(&evt); err != nil {
			break
		}
		if evt["event"] == "finished" {
			sawFinished = true
		}
	}
	assert.True(t, sawFinished, "finished event never arrived before close")
}

func TestSessionStreamReaderExitsWithStream(t *testing.T) {
	srv, sess := wsTestServer(t)
	require.NoError(t, sess.RequestEnd())
	require.NoError(t, sess.ConfirmEnd(context.Background()))

	before := runtime.NumGoroutine()

	conn := wsDial(t, srv)

	// Keep actions in flight so one is mid-send on the server when the
	// stream ends; the server-side reader must still exit.
	go func() {
		for {
			if err := conn.WriteJSON(map[string]string{"action": "ping"}); err != nil {
				return
			}
		}
	}()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		var evt map[string]any
		if err := conn.ReadJSON(&evt); err != nil {
			break
		}
	}
	conn.Close()

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+2
	}, 3*time.Second, 50*time.Millisecond, "stream goroutines did not wind down")
}
