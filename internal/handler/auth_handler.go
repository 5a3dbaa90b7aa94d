package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/storefront-auth-api/internal/middleware"
	"github.com/noah-isme/storefront-auth-api/internal/models"
	appErrors "github.com/noah-isme/storefront-auth-api/pkg/errors"
	"github.com/noah-isme/storefront-auth-api/pkg/response"
)

type authService interface {
	Signup(ctx context.Context, req models.SignupRequest, meta models.RequestMeta) (*models.AuthResult, error)
	Login(ctx context.Context, req models.LoginRequest, meta models.RequestMeta) (*models.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*models.RefreshResult, error)
	Logout(ctx context.Context, refreshToken string, meta models.RequestMeta) error
}

// MessageResponse is the body of endpoints that only acknowledge an action.
type MessageResponse struct {
	Message string `json:"message"`
}

// AuthHandler wires HTTP endpoints to the session manager.
type AuthHandler struct {
	service authService
	cookies CookieOptions
	logger  *zap.Logger
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, cookies CookieOptions, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{service: svc, cookies: cookies, logger: logger}
}

// Signup godoc
// @Summary Register a new account
// @Description Create a user and open a session; credentials are set as HTTP-only cookies
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.SignupRequest true "Signup payload"
// @Success 201 {object} response.Envelope{data=models.UserInfo}
// @Failure 400 {object} response.Envelope
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid signup payload"))
		return
	}

	res, err := h.service.Signup(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.cookies.setAccess(c, res.Tokens.AccessToken)
	h.cookies.setRefresh(c, res.Tokens.RefreshToken)
	response.Created(c, res.User)
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate user by email and password; credentials are set as HTTP-only cookies
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope{data=models.UserInfo}
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	res, err := h.service.Login(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.cookies.setAccess(c, res.Tokens.AccessToken)
	h.cookies.setRefresh(c, res.Tokens.RefreshToken)
	response.JSON(c, http.StatusOK, res.User)
}

// Logout godoc
// @Summary Logout current session
// @Description Revoke the refresh token cookie's session and clear both credential cookies
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope{data=MessageResponse}
// @Failure 500 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken, _ := c.Cookie(middleware.RefreshTokenCookie)
	err := h.service.Logout(c.Request.Context(), refreshToken, requestMeta(c))

	h.cookies.clear(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	response.JSON(c, http.StatusOK, MessageResponse{Message: "logged out successfully"})
}

// Refresh godoc
// @Summary Refresh access token
// @Description Exchange the refresh token cookie for a new access token cookie
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope{data=MessageResponse}
// @Failure 401 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /auth/refresh-token [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, _ := c.Cookie(middleware.RefreshTokenCookie)
	res, err := h.service.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.cookies.setAccess(c, res.AccessToken)
	response.JSON(c, http.StatusOK, MessageResponse{Message: "token refreshed successfully"})
}

// Profile godoc
// @Summary Current user
// @Description Return the identity attached to the access token
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope{data=models.UserInfo}
// @Failure 401 {object} response.Envelope
// @Router /auth/profile [get]
func (h *AuthHandler) Profile(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)
	if !identity.Authenticated() {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, identity.User)
}
