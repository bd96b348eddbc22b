package middleware

import (
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// Responses under this size go out uncompressed; rendered question views
// and reports are the payloads worth compressing.
const brotliMinBytes = 1024

// Brotli compresses responses for clients that advertise br support.
// The decision to compress is deferred until the body reaches the size
// threshold, so small envelopes skip the encoder entirely. Streaming
// surfaces (SSE metrics, WebSocket upgrades) are passed through untouched.
func Brotli() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isStreaming(c) || !clientAcceptsBr(c) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")

		w := &brWriter{ResponseWriter: c.Writer}
		c.Writer = w
		defer w.close(c)

		c.Next()
	}
}

type brWriter struct {
	gin.ResponseWriter
	pending []byte
	enc     *brotli.Writer
}

func (w *brWriter) Write(p []byte) (int, error) {
	if w.enc != nil {
		return w.enc.Write(p)
	}

	w.pending = append(w.pending, p...)
	if len(w.pending) < brotliMinBytes {
		return len(p), nil
	}

	// Threshold crossed: commit to compression for the rest of the body.
	w.ResponseWriter.Header().Set("Content-Encoding", "br")
	w.ResponseWriter.Header().Del("Content-Length")
	w.enc = brotli.NewWriterLevel(w.ResponseWriter, brotli.DefaultCompression)
	if _, err := w.enc.Write(w.pending); err != nil {
		return len(p), err
	}
	w.pending = nil
	return len(p), nil
}

func (w *brWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Flush drains any buffered bytes uncompressed and forwards the flush.
// Handlers that flush are streaming and must not be buffered.
func (w *brWriter) Flush() {
	if len(w.pending) > 0 {
		_, _ = w.ResponseWriter.Write(w.pending)
		w.pending = nil
	}
	w.ResponseWriter.Flush()
}

func (w *brWriter) close(c *gin.Context) {
	if w.enc != nil {
		if err := w.enc.Close(); err != nil {
			_ = c.Error(err)
		}
		return
	}
	if len(w.pending) > 0 {
		if _, err := w.ResponseWriter.Write(w.pending); err != nil {
			_ = c.Error(err)
		}
		w.pending = nil
	}
}

func isStreaming(c *gin.Context) bool {
	if strings.Contains(c.GetHeader("Accept"), "text/event-stream") {
		return true
	}
	return strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}

func clientAcceptsBr(c *gin.Context) bool {
	for _, enc := range strings.Split(c.GetHeader("Accept-Encoding"), ",") {
		if strings.TrimSpace(strings.ToLower(enc)) == "br" {
			return true
		}
	}
	return false
}
