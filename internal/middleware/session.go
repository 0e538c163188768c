package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/qbank-backend/internal/response"
	"github.com/stemsi/qbank-backend/internal/service"
)

// CheckSession rejects tokens whose id is no longer registered in the
// session store, i.e. tokens that were logged out. Must run after RequireJWT.
func CheckSession(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if err := authService.ValidateSession(c.Request.Context(), claims); err != nil {
			if errors.Is(err, service.ErrSessionRevoked) {
				response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionRevoked)
				return
			}
			response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}

		c.Next()
	}
}
