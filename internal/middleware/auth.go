package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/zaqqye/realty_backend/internal/models"
)

const userKey = "user"

type AuthConfig struct {
	JWTSecret    string
	JWTExpiresIn time.Duration
}

// AppMetadata mirrors the Supabase app_metadata claim. Roles "admin" and "editor" grant CMS access.
type AppMetadata struct {
	Provider string `json:"provider,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Claims covers Supabase access tokens and the staff tokens this service issues.
type Claims struct {
	Email       string      `json:"email"`
	Role        string      `json:"role"`
	AppMetadata AppMetadata `json:"app_metadata"`
	Staff       bool        `json:"staff,omitempty"`
	jwt.RegisteredClaims
}

// AuthUser is the identity attached to the request context.
type AuthUser struct {
	ID    string
	Email string
	Role  string
	Staff bool
}

func (u AuthUser) IsAdmin() bool {
	return u.Role == "admin"
}

func (u AuthUser) CanEditContent() bool {
	return u.Role == "admin" || u.Role == "editor"
}

// SetUser attaches u as the request identity.
func SetUser(c *gin.Context, u AuthUser) {
	c.Set(userKey, u)
}

func CurrentUser(c *gin.Context) (AuthUser, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return AuthUser{}, false
	}
	u, ok := v.(AuthUser)
	return u, ok
}

// ParseToken validates an HS256 token and returns the identity it carries.
func ParseToken(secret, tokenStr string) (AuthUser, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return AuthUser{}, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return AuthUser{}, errors.New("token has no subject")
	}
	return AuthUser{ID: claims.Subject, Email: claims.Email, Role: normalizeRole(claims.AppMetadata.Role), Staff: claims.Staff}, nil
}

func normalizeRole(role string) string {
	switch r := strings.ToLower(strings.TrimSpace(role)); r {
	case "admin", "editor":
		return r
	}
	return "user"
}

func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if auth != "" && strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[len("Bearer "):])
	}
	// browsers cannot set headers on websocket upgrades
	return strings.TrimSpace(c.Query("token"))
}

func authenticate(c *gin.Context, db *gorm.DB, cfg AuthConfig) (AuthUser, int, string) {
	tokenStr := bearerToken(c)
	if tokenStr == "" {
		return AuthUser{}, http.StatusUnauthorized, "missing or invalid authorization header"
	}
	user, err := ParseToken(cfg.JWTSecret, tokenStr)
	if err != nil {
		return AuthUser{}, http.StatusUnauthorized, "invalid token"
	}
	if user.Staff {
		var staff models.StaffUser
		if err := db.Where("id = ? AND active = ?", user.ID, true).First(&staff).Error; err != nil {
			return AuthUser{}, http.StatusUnauthorized, "user not found or inactive"
		}
		// the stored role wins over the one signed into the token
		user.Email = staff.Email
		user.Role = normalizeRole(staff.Role)
	}
	return user, 0, ""
}

func AuthMiddleware(db *gorm.DB, cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, status, msg := authenticate(c, db, cfg)
		if status != 0 {
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
			return
		}
		SetUser(c, user)
		c.Next()
	}
}

// OptionalAuth attaches the user when a valid token is present and never rejects the request.
func OptionalAuth(db *gorm.DB, cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, status, _ := authenticate(c, db, cfg); status == 0 {
			SetUser(c, user)
		}
		c.Next()
	}
}

func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := map[string]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if _, ok := allowed[user.Role]; !ok {
			// allow admin to pass any role-gate
			if !user.IsAdmin() {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
		}
		c.Next()
	}
}
