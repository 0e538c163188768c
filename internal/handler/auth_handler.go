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

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
	errLog      service.APIErrorLogger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, userService *service.UserService, errLog service.APIErrorLogger) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService, errLog: errLog}
}

// Register godoc
// POST /api/auth/register
// Creates an account and returns a token for it.
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.userService.Register(c.Request.Context(), req)
	if err != nil {
		failAndLog(c, h.errLog, err)
		return
	}

	response.Success(c, http.StatusCreated, "User registered successfully", res)
}

// Login godoc
// POST /api/auth/login
// Validates email + password and returns a JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.userService.Login(c.Request.Context(), req)
	if err != nil {
		failAndLog(c, h.errLog, err)
		return
	}

	response.Success(c, http.StatusOK, "Login successful", res)
}

// Logout godoc
// POST /api/auth/logout
// Revokes the token used for this request.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.RevokeSession(c.Request.Context(), claims); err != nil {
		h.errLog.LogAPIError(err, requestContext(c, http.StatusInternalServerError, nil))
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, "Logged out", gin.H{})
}

// Me godoc
// GET /api/auth/me
// Returns the currently authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	user, err := h.userService.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		failAndLog(c, h.errLog, err)
		return
	}

	response.Success(c, http.StatusOK, "", gin.H{"user": user})
}
