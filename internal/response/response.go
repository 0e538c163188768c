package response

import (
	"github.com/gin-gonic/gin"
)

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the standardized API response envelope.
type Response struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Data    interface{}       `json:"data"`
	Details string            `json:"details,omitempty"`
	Code    ErrCode           `json:"code,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ────────────────────────────────────────────────────────────────────────────
// Helper builders
// ────────────────────────────────────────────────────────────────────────────

// Success sends a successful JSON response with the given status code and data.
func Success(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	})
}

// Fail sends an error response with an error code and no field-level details.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	c.JSON(statusCode, errorBody(code, ""))
}

// FailWithDetails sends an error response carrying a details string.
func FailWithDetails(c *gin.Context, statusCode int, code ErrCode, details string) {
	c.JSON(statusCode, errorBody(code, details))
}

// FailWithFields sends an error response with field-level validation details.
// Details holds the first field message so clients that display a single
// message have one to show.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, fields map[string]string) {
	body := errorBody(code, FirstMessage(fields))
	body.Fields = fields
	c.JSON(statusCode, body)
}

// AbortFail aborts the middleware chain and sends an error response.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	c.AbortWithStatusJSON(statusCode, errorBody(code, ""))
}

// FirstMessage returns the message of the alphabetically first field so the
// choice is stable across requests.
func FirstMessage(fields map[string]string) string {
	first := ""
	for k := range fields {
		if first == "" || k < first {
			first = k
		}
	}
	if first == "" {
		return ""
	}
	return fields[first]
}

// ────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ────────────────────────────────────────────────────────────────────────────

func errorBody(code ErrCode, details string) Response {
	return Response{
		Status:  StatusError,
		Message: GetMessage(code),
		Data:    nil,
		Details: details,
		Code:    code,
	}
}
