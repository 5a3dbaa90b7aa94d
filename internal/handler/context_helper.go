package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/storefront-auth-api/internal/models"
	appErrors "github.com/noah-isme/storefront-auth-api/pkg/errors"
	"github.com/noah-isme/storefront-auth-api/pkg/logger"
	"github.com/noah-isme/storefront-auth-api/pkg/response"
)

func requestMeta(c *gin.Context) models.RequestMeta {
	return models.RequestMeta{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}

// respondError writes err to the client. Server-side failures are logged with
// their cause, which never reaches the response body.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	appErr := appErrors.FromError(err)
	if appErr.Status >= 500 {
		logger.WithContext(c.Request.Context(), log).Error("request failed",
			zap.String("code", appErr.Code),
			zap.String("path", c.FullPath()),
			zap.Error(appErr.Unwrap()),
		)
	}
	response.Error(c, appErr)
}
