package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/qbank-backend/internal/logger"
	"github.com/stemsi/qbank-backend/internal/response"
	"github.com/stemsi/qbank-backend/internal/service"
)

// failWithOutcome renders a service error in the envelope using the status
// chosen by service.OutcomeOf.
func failWithOutcome(c *gin.Context, err error) {
	out := service.OutcomeOf(err)
	response.FailWithDetails(c, out.Error.Code, errCodeFor(err, out.Error.Code), out.Error.Details)
}

// failAndLog is failWithOutcome for services that leave logging to the
// caller. Server-side failures are written to the error log first.
func failAndLog(c *gin.Context, errLog service.APIErrorLogger, err error) {
	if out := service.OutcomeOf(err); out.Error.Code >= http.StatusInternalServerError {
		errLog.LogAPIError(err, requestContext(c, out.Error.Code, nil))
	}
	failWithOutcome(c, err)
}

func errCodeFor(err error, status int) response.ErrCode {
	switch {
	case errors.Is(err, service.ErrUnknownKind):
		return response.ErrUnknownKind
	case errors.Is(err, service.ErrInvalidCredentials):
		return response.ErrInvalidCredentials
	case errors.Is(err, service.ErrPersistence):
		return response.ErrPersistence
	}

	switch status {
	case http.StatusBadRequest:
		return response.ErrValidation
	case http.StatusUnauthorized:
		return response.ErrTokenInvalid
	case http.StatusNotFound:
		return response.ErrNotFound
	case http.StatusConflict:
		return response.ErrConflict
	default:
		return response.ErrInternal
	}
}

// requestContext describes the current request for error log entries.
func requestContext(c *gin.Context, status int, body []byte) logger.RequestContext {
	rc := logger.RequestContext{
		Path:       c.Request.URL.Path,
		Method:     c.Request.Method,
		StatusCode: status,
		RequestID:  response.RequestID(c),
	}
	if len(body) > 0 {
		if json.Valid(body) {
			rc.Body = json.RawMessage(body)
		} else {
			rc.Body = string(body)
		}
	}
	return rc
}
