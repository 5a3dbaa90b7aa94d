package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/storefront-auth-api/internal/middleware"
)

// CookieOptions holds the attributes shared by both credential cookies.
type CookieOptions struct {
	Domain     string
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (o CookieOptions) setAccess(c *gin.Context, token string) {
	o.set(c, middleware.AccessTokenCookie, token, int(o.AccessTTL/time.Second))
}

func (o CookieOptions) setRefresh(c *gin.Context, token string) {
	o.set(c, middleware.RefreshTokenCookie, token, int(o.RefreshTTL/time.Second))
}

func (o CookieOptions) clear(c *gin.Context) {
	o.set(c, middleware.AccessTokenCookie, "", -1)
	o.set(c, middleware.RefreshTokenCookie, "", -1)
}

func (o CookieOptions) set(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(name, value, maxAge, "/", o.Domain, o.Secure, true)
}
