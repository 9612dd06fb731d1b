package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/zaqqye/realty_backend/internal/middleware"
	"github.com/zaqqye/realty_backend/internal/models"
	"github.com/zaqqye/realty_backend/internal/utils"
)

// AuthController handles staff sign-in. Site visitors sign in with Supabase and only
// present its tokens here.
type AuthController struct {
	DB           *gorm.DB
	AccessSecret string
	AccessTTL    time.Duration
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (a *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.StaffUser
	if err := a.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if !user.Active || !utils.CheckPassword(user.Password, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := a.IssueToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(a.AccessTTL.Seconds()),
		"role":         user.Role,
	})
}

func (a *AuthController) Me(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	out := gin.H{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"staff":   user.Staff,
	}
	if user.Staff {
		var staff models.StaffUser
		if err := a.DB.Where("id = ?", user.ID).First(&staff).Error; err == nil {
			out["full_name"] = staff.FullName
			out["created_at"] = staff.CreatedAt
		}
	}
	c.JSON(http.StatusOK, out)
}

// Logout is stateless: the client discards the token.
func (a *AuthController) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// IssueToken signs a staff access token in the same shape Supabase uses, so one middleware
// verifies both.
func (a *AuthController) IssueToken(user models.StaffUser) (string, error) {
	now := time.Now().UTC()
	claims := middleware.Claims{
		Email:       user.Email,
		Role:        "authenticated",
		AppMetadata: middleware.AppMetadata{Provider: "staff", Role: user.Role},
		Staff:       true,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "realty_backend",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.AccessTTL)),
			Subject:   user.ID,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.AccessSecret))
}
