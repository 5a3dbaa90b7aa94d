package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/storefront-auth-api/internal/middleware"
	"github.com/noah-isme/storefront-auth-api/internal/models"
	"github.com/noah-isme/storefront-auth-api/pkg/response"
)

type sessionRevoker interface {
	RevokeSession(ctx context.Context, actor models.Identity, userID string, meta models.RequestMeta) error
}

// AdminHandler exposes administrative session controls.
type AdminHandler struct {
	service sessionRevoker
	logger  *zap.Logger
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(svc sessionRevoker, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{service: svc, logger: logger}
}

// RevokeSession godoc
// @Summary Revoke a user's session
// @Description Delete the user's live refresh token so it can no longer be exchanged
// @Tags Admin
// @Produce json
// @Param id path string true "User ID"
// @Success 204
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /admin/users/{id}/session [delete]
func (h *AdminHandler) RevokeSession(c *gin.Context) {
	err := h.service.RevokeSession(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"), requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	response.NoContent(c)
}
