package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"studiobook/internal/database/dbtest"
	"studiobook/internal/domain/audit"
	"studiobook/internal/domain/ratelimit"
	"studiobook/internal/middleware"
	"studiobook/internal/pkg/jwt"
)

type testEnv struct {
	db      *gorm.DB
	service *Service
	tokens  *jwt.Service
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	db := dbtest.Open(t, &Admin{}, &audit.Log{}, &ratelimit.Window{})
	tokens := jwt.New("test-secret", time.Hour)
	svc := NewService(NewRepository(db), tokens, ratelimit.NewLimiter(db, nil), audit.NewRecorder(db, nil), nil)
	return &testEnv{db: db, service: svc, tokens: tokens}
}

func (e *testEnv) createAdmin(t *testing.T, email, password string) *Admin {
	t.Helper()
	a, err := e.service.Create(context.Background(), CreateRequest{Email: email, Password: password, Name: "Admin Studio"})
	require.NoError(t, err)
	return a
}

func TestLogin_Success(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	created := e.createAdmin(t, "admin@studio.test", "rahasia123")

	resp, err := e.service.Login(ctx, LoginRequest{Email: " Admin@Studio.test ", Password: "rahasia123"}, audit.Meta{IP: "127.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, created.ID, resp.Admin.ID)
	require.NotNil(t, resp.Admin.LastLoginAt)

	claims, err := e.tokens.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, claims.AdminID)
	assert.Equal(t, string(RoleAdmin), claims.Role)

	logs, err := audit.NewRecorder(e.db, nil).List(ctx, audit.Filter{EntityType: audit.EntityAdmin, EntityID: created.ID})
	require.NoError(t, err)
	var actions []audit.Action
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	assert.Contains(t, actions, audit.ActionLogin)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	a := e.createAdmin(t, "admin@studio.test", "rahasia123")

	_, err := e.service.Login(ctx, LoginRequest{Email: "admin@studio.test", Password: "salah"}, audit.Meta{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = e.service.Login(ctx, LoginRequest{Email: "nobody@studio.test", Password: "rahasia123"}, audit.Meta{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = e.service.Login(ctx, LoginRequest{Email: "", Password: ""}, audit.Meta{})
	assert.ErrorIs(t, err, ErrMissingCredentials)

	require.NoError(t, e.db.Model(&Admin{}).Where("id = ?", a.ID).Update("is_active", false).Error)
	_, err = e.service.Login(ctx, LoginRequest{Email: "admin@studio.test", Password: "rahasia123"}, audit.Meta{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = e.service.Me(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLogin_RateLimitedAndResetOnSuccess(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	e.createAdmin(t, "admin@studio.test", "rahasia123")
	meta := audit.Meta{IP: "10.0.0.7"}

	for i := 0; i < 4; i++ {
		_, err := e.service.Login(ctx, LoginRequest{Email: "admin@studio.test", Password: "salah"}, meta)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err := e.service.Login(ctx, LoginRequest{Email: "admin@studio.test", Password: "rahasia123"}, meta)
	require.NoError(t, err)

	// the counter was cleared, so five more attempts fit into the window
	for i := 0; i < 5; i++ {
		_, err := e.service.Login(ctx, LoginRequest{Email: "admin@studio.test", Password: "salah"}, meta)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err = e.service.Login(ctx, LoginRequest{Email: "admin@studio.test", Password: "rahasia123"}, meta)
	var rerr *RateLimitError
	require.True(t, errors.As(err, &rerr))
	assert.Contains(t, rerr.RetryAfter, "menit")

	// another address is counted separately
	_, err = e.service.Login(ctx, LoginRequest{Email: "admin@studio.test", Password: "rahasia123"}, audit.Meta{IP: "10.0.0.8"})
	assert.NoError(t, err)
}

func TestCreate(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	e.createAdmin(t, "admin@studio.test", "rahasia123")

	_, err := e.service.Create(ctx, CreateRequest{Email: "ADMIN@studio.test", Password: "rahasia123", Name: "Dup"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = e.service.Create(ctx, CreateRequest{Email: "new@studio.test", Password: "short", Name: "New"})
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = e.service.Create(ctx, CreateRequest{Email: "new@studio.test", Password: "rahasia123", Name: "New", Role: "OWNER"})
	assert.ErrorIs(t, err, ErrInvalidRole)

	a, created, err := e.service.Ensure(ctx, CreateRequest{Email: "admin@studio.test", Password: "other-pass", Name: "X"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "admin@studio.test", a.Email)

	a, created, err = e.service.Ensure(ctx, CreateRequest{Email: "super@studio.test", Password: "rahasia123", Name: "Super", Role: RoleSuperAdmin})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, RoleSuperAdmin, a.Role)
	assert.True(t, a.IsActive)
}

func TestHandler_LoginAndMe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	e := setup(t)
	e.createAdmin(t, "admin@studio.test", "rahasia123")

	h := NewHandler(e.service)
	r := gin.New()
	api := r.Group("/api/admin")
	h.RegisterPublicRoutes(api)
	protected := api.Group("", middleware.JWTAuth(e.tokens), middleware.AdminOnly())
	h.RegisterRoutes(protected)

	body, _ := json.Marshal(map[string]string{"email": "admin@studio.test", "password": "rahasia123"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	var login struct {
		Success bool          `json:"success"`
		Data    LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.True(t, login.Success)
	require.NotEmpty(t, login.Data.AccessToken)
	assert.NotContains(t, w.Body.String(), "passwordHash")

	req := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Data.AccessToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "admin@studio.test")

	body, _ = json.Marshal(map[string]string{"email": "admin@studio.test", "password": "salah"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
