package middleware

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/logger"
	"github.com/stemsi/qbank-backend/internal/response"
)

// APIErrorLogger records request-scoped failures.
type APIErrorLogger interface {
	LogAPIError(err error, rc logger.RequestContext)
}

// PanicError wraps a value recovered from a handler panic.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string     { return fmt.Sprintf("panic: %v", e.Value) }
func (e *PanicError) ErrorName() string { return "UnknownError" }

// Recovery turns handler panics into a generic 500 envelope. The panic and
// its stack go to the error log only.
func Recovery(errLog APIErrorLogger, log zerolog.Logger) gin.HandlerFunc {
	log = log.With().Str("component", "recovery").Logger()
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		err := &PanicError{Value: recovered}
		errLog.LogAPIError(err, logger.RequestContext{
			Path:       c.Request.URL.Path,
			Method:     c.Request.Method,
			StatusCode: http.StatusInternalServerError,
			RequestID:  response.RequestID(c),
		})
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Recovered from panic")
		response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
	})
}
