package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/storefront-auth-api/internal/models"
	appErrors "github.com/noah-isme/storefront-auth-api/pkg/errors"
)

type stubResolver struct {
	identities map[string]models.Identity
	seen       []string
}

func (s *stubResolver) Authenticate(ctx context.Context, token string) (models.Identity, error) {
	s.seen = append(s.seen, token)
	identity, ok := s.identities[token]
	if !ok {
		return models.Identity{}, appErrors.ErrUnauthorized
	}
	return identity, nil
}

func newGateRouter(resolver IdentityResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/me", Protect(resolver), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentIdentity(c).User.ID)
	})
	router.GET("/admin", Protect(resolver), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func TestProtectReadsCookieThenHeader(t *testing.T) {
	resolver := &stubResolver{identities: map[string]models.Identity{
		"cookie-token": {User: models.UserInfo{ID: "u-cookie"}, Level: models.AccessStandard},
		"header-token": {User: models.UserInfo{ID: "u-header"}, Level: models.AccessStandard},
	}}
	router := newGateRouter(resolver)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "cookie-token"})
	req.Header.Set("Authorization", "Bearer header-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "u-cookie" {
		t.Fatalf("expected cookie identity, got %d %q", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "bearer header-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "u-header" {
		t.Fatalf("expected header identity, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestProtectRejectsMissingOrInvalidToken(t *testing.T) {
	resolver := &stubResolver{identities: map[string]models.Identity{}}
	router := newGateRouter(resolver)

	for _, header := range []string{"", "Basic abc", "Bearer unknown"} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
	if resolver.seen[0] != "" || resolver.seen[1] != "" || resolver.seen[2] != "unknown" {
		t.Fatalf("unexpected tokens passed to resolver: %v", resolver.seen)
	}
}

func TestRequireAdmin(t *testing.T) {
	resolver := &stubResolver{identities: map[string]models.Identity{
		"admin":    {User: models.UserInfo{ID: "a"}, Level: models.AccessAdministrator},
		"standard": {User: models.UserInfo{ID: "s"}, Level: models.AccessStandard},
	}}
	router := newGateRouter(resolver)

	cases := map[string]int{
		"admin":    http.StatusNoContent,
		"standard": http.StatusForbidden,
		"":         http.StatusUnauthorized,
	}
	for token, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if token != "" {
			req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("token %q: expected %d, got %d", token, want, rec.Code)
		}
	}
}

func TestRequireAdminWithoutProtect(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	RequireAdmin()(c)
	if !c.IsAborted() || rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected anonymous request to be rejected, got %d", rec.Code)
	}
}
