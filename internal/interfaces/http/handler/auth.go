package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ima-69/E-commerce-MERN-sub000/internal/infrastructure/auth"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/interfaces/http/middleware"
)

// AuthHandler exposes the caller's identity and token revocation. Tokens are
// issued by the identity service; this service only verifies them.
type AuthHandler struct {
	BaseHandler
	blacklist auth.TokenBlacklist
	logger    *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(blacklist auth.TokenBlacklist, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		blacklist: blacklist,
		logger:    logger,
	}
}

// CurrentUserResponse is the identity carried by the caller's token
type CurrentUserResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LogoutResponse represents the logout response
type LogoutResponse struct {
	Message string `json:"message"`
}

// Logout godoc
// @Summary      User logout
// @Description  Revoke the current access token until it expires
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[LogoutResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if claims.ID != "" && h.blacklist != nil {
		ttl := claims.GetRemainingTTL()
		if ttl > 0 {
			if err := h.blacklist.AddToBlacklist(c.Request.Context(), claims.ID, ttl); err != nil {
				h.logger.Error("failed to revoke token", zap.String("user_id", claims.UserID), zap.Error(err))
				h.InternalError(c, "Failed to revoke token")
				return
			}
		}
	}

	h.Success(c, LogoutResponse{Message: "Logged out successfully"})
}

// GetCurrentUser godoc
// @Summary      Get current user
// @Description  Returns the identity carried by the caller's access token
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[CurrentUserResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	id, ok := h.requireIdentity(c)
	if !ok {
		return
	}

	resp := CurrentUserResponse{
		UserID: id.UserID,
		Email:  id.Email,
		Name:   id.Name,
		Role:   id.Role,
	}
	if claims := middleware.GetJWTClaims(c); claims != nil && claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time
	}
	h.Success(c, resp)
}
