package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tuition-roster/internal/middleware"
	"github.com/noah-isme/tuition-roster/internal/models"
	"github.com/noah-isme/tuition-roster/internal/session"
	"github.com/noah-isme/tuition-roster/pkg/config"
	appErrors "github.com/noah-isme/tuition-roster/pkg/errors"
)

type fixedAuthenticator struct{}

func (fixedAuthenticator) Authenticate(_ context.Context, username, password string) (*models.AdminIdentity, error) {
	if username == "admin" && password == "admin123" {
		return &models.AdminIdentity{ID: "adm-1", Username: "admin", FullName: "Asha Menon"}, nil
	}
	return nil, appErrors.ErrInvalidCredentials
}

type auditCall struct {
	action     string
	resourceID string
	actor      string
}

type fakeAudit struct {
	calls []auditCall
}

func (f *fakeAudit) Record(ctx context.Context, action, _ string, resourceID string, _ map[string]interface{}) {
	call := auditCall{action: action, resourceID: resourceID}
	if identity := session.IdentityFrom(ctx); identity != nil {
		call.actor = identity.Username
	}
	f.calls = append(f.calls, call)
}

func newAuthRouter(t *testing.T) (*gin.Engine, *fakeAudit) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.SessionConfig{KeyPrefix: "roster:session:", Secret: "secret", TTL: time.Hour, CookieName: "roster_session"}
	manager := session.NewManager(session.NewMemoryStore(), fixedAuthenticator{}, cfg, nil)
	audit := &fakeAudit{}
	handler := NewAuthHandler(manager, audit, nil, cfg)

	router := gin.New()
	router.POST("/auth/login", handler.Login)
	secured := router.Group("/auth", middleware.Session(manager, cfg.CookieName))
	secured.POST("/logout", handler.Logout)
	secured.GET("/me", handler.Me)
	return router, audit
}

func login(t *testing.T, router *gin.Engine, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	payload, _ := json.Marshal(models.LoginRequest{Username: username, Password: password})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthHandlerLoginMeLogout(t *testing.T) {
	router, audit := newAuthRouter(t)

	rec := login(t, router, "admin", "admin123")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data loginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Data.Token)
	assert.Equal(t, "adm-1", body.Data.Admin.ID)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "roster_session=")

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+body.Data.Token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome, Asha Menon")

	req = httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+body.Data.Token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+body.Data.Token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	require.Len(t, audit.calls, 2)
	assert.Equal(t, auditCall{action: "LOGIN", resourceID: "adm-1", actor: "admin"}, audit.calls[0])
	assert.Equal(t, auditCall{action: "LOGOUT", resourceID: "adm-1", actor: "admin"}, audit.calls[1])
}

func TestAuthHandlerLoginFailuresAreUniform(t *testing.T) {
	router, audit := newAuthRouter(t)

	cases := []struct{ username, password string }{
		{"admin", "wrong"},
		{"ghost", "admin123"},
		{"", ""},
	}
	for _, tc := range cases {
		rec := login(t, router, tc.username, tc.password)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		var env struct {
			Error errorBody `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)
		assert.Equal(t, "invalid credentials", env.Error.Message)
	}
	assert.Empty(t, audit.calls)
}

func TestGreetingFallsBackToUsername(t *testing.T) {
	assert.Equal(t, "Welcome, admin", greeting(models.AdminIdentity{Username: "admin"}))
}
