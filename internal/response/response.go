package response

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Data     any        `json:"data"`
	Error    *ErrorBody `json:"error,omitempty"`
	Metadata Metadata   `json:"metadata"`
}

// ErrorBody describes a failed request. Fields maps a request path such as
// "majors[0].title" to what was wrong with it.
type ErrorBody struct {
	Code    ErrCode           `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Metadata carries the request ID and the server time of the answer.
type Metadata struct {
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// Success writes data with the given status.
func Success(c *gin.Context, status int, data any) {
	c.JSON(status, envelope(c, data, nil))
}

// Fail writes an error with the default message for code.
func Fail(c *gin.Context, status int, code ErrCode) {
	c.JSON(status, envelope(c, nil, &ErrorBody{Code: code, Message: GetMessage(code)}))
}

// FailWithMessage writes an error whose message replaces the default one,
// e.g. to name the snapshot field that was rejected.
func FailWithMessage(c *gin.Context, status int, code ErrCode, message string) {
	c.JSON(status, envelope(c, nil, &ErrorBody{Code: code, Message: message}))
}

// FailWithFields writes an error with per-field details.
func FailWithFields(c *gin.Context, status int, code ErrCode, fields map[string]string) {
	c.JSON(status, envelope(c, nil, &ErrorBody{Code: code, Message: GetMessage(code), Fields: fields}))
}

// AbortFail stops the handler chain and writes an error.
func AbortFail(c *gin.Context, status int, code ErrCode) {
	c.AbortWithStatusJSON(status, envelope(c, nil, &ErrorBody{Code: code, Message: GetMessage(code)}))
}

func envelope(c *gin.Context, data any, errBody *ErrorBody) Response {
	id := RequestID(c)
	if id == "" {
		id = uuid.NewString()
	}
	return Response{
		Data:  data,
		Error: errBody,
		Metadata: Metadata{
			RequestID: id,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}
}
