package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/qbank-backend/internal/middleware"
	"github.com/stemsi/qbank-backend/internal/model"
	"github.com/stemsi/qbank-backend/internal/response"
	"github.com/stemsi/qbank-backend/internal/service"
	"github.com/stemsi/qbank-backend/internal/validator"
)

// ExamSessionHandler handles the exam-taking session endpoints.
type ExamSessionHandler struct {
	sessionService *service.ExamSessionService
	errLog         service.APIErrorLogger
}

// NewExamSessionHandler creates a new ExamSessionHandler.
func NewExamSessionHandler(sessionService *service.ExamSessionService, errLog service.APIErrorLogger) *ExamSessionHandler {
	return &ExamSessionHandler{sessionService: sessionService, errLog: errLog}
}

// StartSession godoc
// POST /api/sessions
// Records that the authenticated user started a test.
func (h *ExamSessionHandler) StartSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.StartSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessionService.Start(c.Request.Context(), claims.Email, req.TestID)
	if err != nil {
		failAndLog(c, h.errLog, err)
		return
	}

	response.Success(c, http.StatusCreated, "Session started", gin.H{"session": session})
}

// ListSessions godoc
// GET /api/sessions
// Lists the authenticated user's sessions, newest first.
func (h *ExamSessionHandler) ListSessions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessions, err := h.sessionService.List(c.Request.Context(), claims.Email)
	if err != nil {
		failAndLog(c, h.errLog, err)
		return
	}

	response.Success(c, http.StatusOK, "", gin.H{"sessions": sessions})
}
