package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zaqqye/realty_backend/internal/middleware"
	"github.com/zaqqye/realty_backend/internal/models"
	"github.com/zaqqye/realty_backend/internal/ratelimit"
	"github.com/zaqqye/realty_backend/internal/testutil"
)

const secret = "test-secret"

func sign(t *testing.T, claims middleware.Claims) string {
	t.Helper()
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func TestParseTokenRoles(t *testing.T) {
	cases := []struct {
		name     string
		appRole  string
		wantRole string
	}{
		{"visitor", "", "user"},
		{"admin", "Admin", "admin"},
		{"editor", "editor", "editor"},
		{"unknown role", "superuser", "user"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tok := sign(t, middleware.Claims{
				Email:            "a@example.com",
				Role:             "authenticated",
				AppMetadata:      middleware.AppMetadata{Role: tc.appRole},
				RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"},
			})
			u, err := middleware.ParseToken(secret, tok)
			require.NoError(t, err)
			assert.Equal(t, tc.wantRole, u.Role)
			assert.Equal(t, "u1", u.ID)
		})
	}
}

func TestParseTokenRejects(t *testing.T) {
	expired := sign(t, middleware.Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}})
	_, err := middleware.ParseToken(secret, expired)
	assert.Error(t, err)

	noSubject := sign(t, middleware.Claims{Email: "a@example.com"})
	_, err = middleware.ParseToken(secret, noSubject)
	assert.Error(t, err)

	other := sign(t, middleware.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}})
	_, err = middleware.ParseToken("another-secret", other)
	assert.Error(t, err)
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		u, _ := middleware.CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": u.ID, "role": u.Role})
	})
	r.GET("/x", handlers...)
	return r
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareChecksStaffAccounts(t *testing.T) {
	db := testutil.NewDB(t)
	active := models.StaffUser{Email: "on@example.com", Role: "admin", Active: true}
	inactive := models.StaffUser{Email: "off@example.com", Role: "admin", Active: false}
	require.NoError(t, db.Create(&active).Error)
	require.NoError(t, db.Create(&inactive).Error)

	cfg := middleware.AuthConfig{JWTSecret: secret}
	r := newEngine(middleware.AuthMiddleware(db, cfg), middleware.RequireRoles("admin"))

	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)

	staffToken := func(id string) string {
		return sign(t, middleware.Claims{
			AppMetadata:      middleware.AppMetadata{Provider: "staff", Role: "admin"},
			Staff:            true,
			RegisteredClaims: jwt.RegisteredClaims{Subject: id},
		})
	}
	assert.Equal(t, http.StatusOK, get(r, staffToken(active.ID)).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, staffToken(inactive.ID)).Code)

	visitor := sign(t, middleware.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "visitor-1"}})
	assert.Equal(t, http.StatusForbidden, get(r, visitor).Code)
}

func TestStaffRoleComesFromAccount(t *testing.T) {
	db := testutil.NewDB(t)
	staff := models.StaffUser{Email: "ed@example.com", Role: "admin", Active: true}
	require.NoError(t, db.Create(&staff).Error)

	tok := sign(t, middleware.Claims{
		AppMetadata:      middleware.AppMetadata{Provider: "staff", Role: "admin"},
		Staff:            true,
		RegisteredClaims: jwt.RegisteredClaims{Subject: staff.ID},
	})
	cfg := middleware.AuthConfig{JWTSecret: secret}
	adminOnly := newEngine(middleware.AuthMiddleware(db, cfg), middleware.RequireRoles("admin"))
	editors := newEngine(middleware.AuthMiddleware(db, cfg), middleware.RequireRoles("editor"))

	require.Equal(t, http.StatusOK, get(adminOnly, tok).Code)

	require.NoError(t, db.Model(&staff).Update("role", "editor").Error)
	assert.Equal(t, http.StatusForbidden, get(adminOnly, tok).Code)
	w := get(editors, tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"`+staff.ID+`","role":"editor"}`, w.Body.String())
}

func TestRequireRolesLetsAdminThrough(t *testing.T) {
	cfg := middleware.AuthConfig{JWTSecret: secret}
	r := newEngine(middleware.AuthMiddleware(nil, cfg), middleware.RequireRoles("editor"))

	admin := sign(t, middleware.Claims{
		AppMetadata:      middleware.AppMetadata{Role: "admin"},
		RegisteredClaims: jwt.RegisteredClaims{Subject: "a1"},
	})
	editor := sign(t, middleware.Claims{
		AppMetadata:      middleware.AppMetadata{Role: "editor"},
		RegisteredClaims: jwt.RegisteredClaims{Subject: "e1"},
	})
	visitor := sign(t, middleware.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "v1"}})

	assert.Equal(t, http.StatusOK, get(r, admin).Code)
	assert.Equal(t, http.StatusOK, get(r, editor).Code)
	assert.Equal(t, http.StatusForbidden, get(r, visitor).Code)
}

func TestOptionalAuthNeverRejects(t *testing.T) {
	r := newEngine(middleware.OptionalAuth(nil, middleware.AuthConfig{JWTSecret: secret}))

	w := get(r, "garbage")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"","role":""}`, w.Body.String())

	tok := sign(t, middleware.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "v1"}})
	assert.JSONEq(t, `{"id":"v1","role":"user"}`, get(r, tok).Body.String())
}

func TestRateLimitReturnsRetryAfter(t *testing.T) {
	r := newEngine(middleware.RateLimit(ratelimit.New(2, time.Minute)))

	assert.Equal(t, http.StatusOK, get(r, "").Code)
	assert.Equal(t, http.StatusOK, get(r, "").Code)
	w := get(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}
