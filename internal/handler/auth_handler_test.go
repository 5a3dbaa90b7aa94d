package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/storefront-auth-api/internal/middleware"
	"github.com/noah-isme/storefront-auth-api/internal/models"
	appErrors "github.com/noah-isme/storefront-auth-api/pkg/errors"
)

type fakeAuthSrv struct {
	result       *models.AuthResult
	refresh      *models.RefreshResult
	err          error
	lastRefresh  string
	lastLogout   string
	lastSignup   models.SignupRequest
	lastMeta     models.RequestMeta
	logoutCalled bool
}

func (f *fakeAuthSrv) Signup(_ context.Context, req models.SignupRequest, meta models.RequestMeta) (*models.AuthResult, error) {
	f.lastSignup = req
	f.lastMeta = meta
	return f.result, f.err
}

func (f *fakeAuthSrv) Login(_ context.Context, _ models.LoginRequest, meta models.RequestMeta) (*models.AuthResult, error) {
	f.lastMeta = meta
	return f.result, f.err
}

func (f *fakeAuthSrv) Refresh(_ context.Context, token string) (*models.RefreshResult, error) {
	f.lastRefresh = token
	return f.refresh, f.err
}

func (f *fakeAuthSrv) Logout(_ context.Context, token string, _ models.RequestMeta) error {
	f.logoutCalled = true
	f.lastLogout = token
	return f.err
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

var testCookies = CookieOptions{Domain: "shop.example.com", Secure: true, AccessTTL: 15 * time.Minute, RefreshTTL: 7 * 24 * time.Hour}

func sampleResult() *models.AuthResult {
	return &models.AuthResult{
		User:   models.UserInfo{ID: "u1", Name: "Ana", Email: "a@x.com", Role: models.RoleStandard},
		Tokens: models.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"},
	}
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func newAuthContext(method, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.Header.Set("User-Agent", "handler-test")
	return c, rec
}

func TestSignupSetsCredentialCookies(t *testing.T) {
	srv := &fakeAuthSrv{result: sampleResult()}
	h := NewAuthHandler(srv, testCookies, nil)

	c, rec := newAuthContext(http.MethodPost, `{"name":"Ana","email":"a@x.com","password":"secret1"}`)
	h.Signup(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "secret1", srv.lastSignup.Password)
	assert.Equal(t, "handler-test", srv.lastMeta.UserAgent)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	access := cookieByName(rec, middleware.AccessTokenCookie)
	require.NotNil(t, access)
	assert.Equal(t, "access-1", access.Value)
	assert.Equal(t, 900, access.MaxAge)
	assert.True(t, access.HttpOnly)
	assert.True(t, access.Secure)
	assert.Equal(t, http.SameSiteStrictMode, access.SameSite)
	assert.Equal(t, "/", access.Path)

	refresh := cookieByName(rec, middleware.RefreshTokenCookie)
	require.NotNil(t, refresh)
	assert.Equal(t, "refresh-1", refresh.Value)
	assert.Equal(t, 7*24*3600, refresh.MaxAge)
	assert.True(t, refresh.HttpOnly)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "a@x.com", envelope.Data["email"])
	assert.Equal(t, "standard", envelope.Data["role"])
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "refresh-1")
}

func TestSignupMalformedBody(t *testing.T) {
	h := NewAuthHandler(&fakeAuthSrv{}, testCookies, nil)

	c, rec := newAuthContext(http.MethodPost, `{"name":`)
	h.Signup(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginErrorsMapToStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{appErrors.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{appErrors.ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
		{appErrors.WrapAs(appErrors.ErrSessionStoreUnavailable, errors.New("dial tcp: connection refused")), http.StatusInternalServerError, "SESSION_STORE_UNAVAILABLE"},
	}
	for _, tc := range cases {
		h := NewAuthHandler(&fakeAuthSrv{err: tc.err}, testCookies, nil)
		c, rec := newAuthContext(http.MethodPost, `{"email":"a@x.com","password":"secret1"}`)
		h.Login(c)

		assert.Equal(t, tc.status, rec.Code)
		var envelope errorEnvelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
		assert.Equal(t, tc.code, envelope.Error.Code)
		assert.NotContains(t, rec.Body.String(), "connection refused")
		assert.Nil(t, cookieByName(rec, middleware.AccessTokenCookie))
	}
}

func TestLogoutClearsCookiesEvenOnFailure(t *testing.T) {
	for _, err := range []error{nil, appErrors.WrapAs(appErrors.ErrSessionStoreUnavailable, errors.New("timeout"))} {
		srv := &fakeAuthSrv{err: err}
		h := NewAuthHandler(srv, testCookies, nil)

		c, rec := newAuthContext(http.MethodPost, "")
		c.Request.AddCookie(&http.Cookie{Name: middleware.RefreshTokenCookie, Value: "refresh-1"})
		h.Logout(c)

		assert.Equal(t, "refresh-1", srv.lastLogout)
		for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
			cleared := cookieByName(rec, name)
			require.NotNil(t, cleared, name)
			assert.Empty(t, cleared.Value)
			assert.Less(t, cleared.MaxAge, 0)
		}
		if err == nil {
			assert.Equal(t, http.StatusOK, rec.Code)
		} else {
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
		}
	}
}

func TestLogoutWithoutCookie(t *testing.T) {
	srv := &fakeAuthSrv{}
	h := NewAuthHandler(srv, testCookies, nil)

	c, rec := newAuthContext(http.MethodPost, "")
	h.Logout(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, srv.logoutCalled)
	assert.Empty(t, srv.lastLogout)
}

func TestRefreshSetsOnlyAccessCookie(t *testing.T) {
	srv := &fakeAuthSrv{refresh: &models.RefreshResult{AccessToken: "access-2"}}
	h := NewAuthHandler(srv, testCookies, nil)

	c, rec := newAuthContext(http.MethodPost, "")
	c.Request.AddCookie(&http.Cookie{Name: middleware.RefreshTokenCookie, Value: "refresh-1"})
	h.Refresh(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "refresh-1", srv.lastRefresh)
	access := cookieByName(rec, middleware.AccessTokenCookie)
	require.NotNil(t, access)
	assert.Equal(t, "access-2", access.Value)
	assert.Nil(t, cookieByName(rec, middleware.RefreshTokenCookie))
}

func TestRefreshFailures(t *testing.T) {
	for _, base := range []*appErrors.Error{appErrors.ErrMissingToken, appErrors.ErrInvalidToken, appErrors.ErrSessionRevoked} {
		h := NewAuthHandler(&fakeAuthSrv{err: appErrors.Clone(base, "")}, testCookies, nil)
		c, rec := newAuthContext(http.MethodPost, "")
		h.Refresh(c)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, base.Code)
	}
}

func TestProfile(t *testing.T) {
	h := NewAuthHandler(&fakeAuthSrv{}, testCookies, nil)

	c, rec := newAuthContext(http.MethodGet, "")
	h.Profile(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = newAuthContext(http.MethodGet, "")
	c.Set(middleware.ContextIdentityKey, models.Identity{User: models.UserInfo{ID: "u1", Email: "a@x.com"}, Level: models.AccessStandard})
	h.Profile(c)
	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "u1", envelope.Data["id"])
}

type responseEnvelope struct {
	Data map[string]interface{} `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}
