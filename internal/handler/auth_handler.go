package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/tuition-roster/internal/middleware"
	"github.com/noah-isme/tuition-roster/internal/models"
	"github.com/noah-isme/tuition-roster/internal/session"
	"github.com/noah-isme/tuition-roster/pkg/config"
	appErrors "github.com/noah-isme/tuition-roster/pkg/errors"
	"github.com/noah-isme/tuition-roster/pkg/response"
)

type sessionIssuer interface {
	SignIn(ctx context.Context, username, password string) (*session.Holder, *models.AdminIdentity, *session.Token, error)
}

type auditRecorder interface {
	Record(ctx context.Context, action, resource, resourceID string, details map[string]interface{})
}

// AuthHandler manages console sign-in.
type AuthHandler struct {
	sessions sessionIssuer
	audit    auditRecorder
	validate *validator.Validate
	cookie   config.SessionConfig
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(sessions sessionIssuer, audit auditRecorder, validate *validator.Validate, cookie config.SessionConfig) *AuthHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &AuthHandler{sessions: sessions, audit: audit, validate: validate, cookie: cookie}
}

type loginResponse struct {
	Token     string               `json:"token"`
	ExpiresAt string               `json:"expires_at"`
	Admin     models.AdminIdentity `json:"admin"`
}

type meResponse struct {
	Admin    models.AdminIdentity `json:"admin"`
	Greeting string               `json:"greeting"`
}

// Login godoc
// @Summary Admin login
// @Description Authenticate an admin and open a session slot
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login request"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidCredentials, ""))
		return
	}

	_, identity, token, err := h.sessions.SignIn(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setCookie(c, token.Value, int(h.cookie.TTL.Seconds()))
	ctx := session.WithIdentity(c.Request.Context(), identity)
	h.record(ctx, models.AuditActionLogin, identity.ID)

	response.JSON(c, http.StatusOK, loginResponse{
		Token:     token.Value,
		ExpiresAt: token.ExpiresAt.UTC().Format(http.TimeFormat),
		Admin:     *identity,
	})
}

// Logout godoc
// @Summary Admin logout
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	holder := middleware.CurrentHolder(c)
	if holder == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	identity := holder.Current()
	if err := holder.SignOut(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	if identity != nil {
		h.record(c.Request.Context(), models.AuditActionLogout, identity.ID)
	}
	h.setCookie(c, "", -1)
	response.NoContent(c)
}

// Me godoc
// @Summary Current admin
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	holder := middleware.CurrentHolder(c)
	if holder == nil || holder.Current() == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	identity := *holder.Current()
	response.JSON(c, http.StatusOK, meResponse{Admin: identity, Greeting: greeting(identity)})
}

func greeting(identity models.AdminIdentity) string {
	name := identity.FullName
	if name == "" {
		name = identity.Username
	}
	return "Welcome, " + name
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	if h.cookie.CookieName == "" {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.CookieName, value, maxAge, "/", "", h.cookie.Secure, true)
}

func (h *AuthHandler) record(ctx context.Context, action, adminID string) {
	if h.audit == nil {
		return
	}
	h.audit.Record(ctx, action, models.AuditResourceSession, adminID, nil)
}
