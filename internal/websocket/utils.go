package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

// A stalled client must not block the snapshot ticker, so writes are
// bounded tightly. Reads are lenient: a quiet taker is normal between
// actions.
const (
	writeDeadline = 10 * time.Second
	readDeadline  = 5 * time.Minute
)

// WriteTyped sends one typed event frame with a write deadline applied.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return conn.WriteJSON(v)
}

// WriteError sends a typed error event.
func WriteError(conn *websocket.Conn, errMsg string) error {
	return WriteTyped(conn, ErrorResponse{Event: EventError, Error: errMsg})
}

// ReadJSON decodes the next frame into v with a read deadline applied.
func ReadJSON(conn *websocket.Conn, v interface{}) error {
	_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
	return conn.ReadJSON(v)
}
