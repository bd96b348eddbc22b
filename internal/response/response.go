package response

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Envelope is the shape of every JSON response. Data and Error are
// mutually exclusive; Meta is always present so clients can correlate
// any response with the server logs by request id.
type Envelope struct {
	Data  interface{} `json:"data"`
	Error *ErrorBody  `json:"error,omitempty"`
	Meta  Meta        `json:"meta"`
}

// ErrorBody carries a machine-readable code, its human message, and
// optional per-field validation detail.
type ErrorBody struct {
	Code    ErrCode           `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Meta correlates a response with the request that produced it.
type Meta struct {
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// Success writes data inside the envelope.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Envelope{Data: data, Meta: meta(c)})
}

// Fail writes an error envelope with the code's canonical message.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	c.JSON(statusCode, envelopeFor(c, code, nil))
}

// FailWithFields is Fail with per-field validation messages attached.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, fields map[string]string) {
	c.JSON(statusCode, envelopeFor(c, code, fields))
}

// AbortFail is Fail from middleware: it also stops the handler chain.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	c.AbortWithStatusJSON(statusCode, envelopeFor(c, code, nil))
}

func envelopeFor(c *gin.Context, code ErrCode, fields map[string]string) Envelope {
	return Envelope{
		Error: &ErrorBody{Code: code, Message: GetMessage(code), Fields: fields},
		Meta:  meta(c),
	}
}

func meta(c *gin.Context) Meta {
	id := requestIDFrom(c)
	if id == "" {
		// Middleware not applied on this route; still give the client an id.
		id = uuid.New().String()
	}
	return Meta{
		RequestID: id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
