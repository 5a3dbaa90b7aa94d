package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/storefront-auth-api/internal/models"
	appErrors "github.com/noah-isme/storefront-auth-api/pkg/errors"
	"github.com/noah-isme/storefront-auth-api/pkg/response"
)

// Credential cookie names.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// ContextIdentityKey is the gin context key storing the resolved models.Identity.
const ContextIdentityKey = "identity"

// IdentityResolver turns an access token into the identity it belongs to.
type IdentityResolver interface {
	Authenticate(ctx context.Context, accessToken string) (models.Identity, error)
}

// Protect requires a valid access token and attaches the caller's identity.
// The token is read from the access cookie, falling back to a Bearer header.
func Protect(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := resolver.Authenticate(c.Request.Context(), AccessToken(c))
		if err != nil {
			response.Abort(c, err)
			return
		}
		c.Set(ContextIdentityKey, identity)
		c.Next()
	}
}

// RequireAdmin admits only administrators. It must run after Protect.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch CurrentIdentity(c).Level {
		case models.AccessAdministrator:
			c.Next()
		case models.AccessStandard:
			response.Abort(c, appErrors.ErrForbidden)
		case models.AccessAnonymous:
			response.Abort(c, appErrors.Clone(appErrors.ErrUnauthorized, "not authorized, no token"))
		default:
			response.Abort(c, appErrors.ErrForbidden)
		}
	}
}

// CurrentIdentity returns the identity attached by Protect, or the anonymous
// identity when none is present.
func CurrentIdentity(c *gin.Context) models.Identity {
	value, exists := c.Get(ContextIdentityKey)
	if !exists {
		return models.Identity{}
	}
	identity, ok := value.(models.Identity)
	if !ok {
		return models.Identity{}
	}
	return identity
}

// AccessToken extracts the access token from the request.
func AccessToken(c *gin.Context) string {
	if token, err := c.Cookie(AccessTokenCookie); err == nil && token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
