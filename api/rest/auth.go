package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/merlinhq/avalon-server/cache"
	"github.com/merlinhq/avalon-server/config"
	mw "github.com/merlinhq/avalon-server/middleware"
	"github.com/merlinhq/avalon-server/model"
)

// AuthHandler handles authentication REST endpoints.
type AuthHandler struct {
	db    *gorm.DB
	cache cache.Cache
	sec   config.SecurityConfig
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *gorm.DB, c cache.Cache, sec config.SecurityConfig) *AuthHandler {
	return &AuthHandler{db: db, cache: c, sec: sec}
}

type loginRequest struct {
	Username string `json:"username" binding:"required,min=2,max=32"`
	Password string `json:"password" binding:"required,min=4,max=64"`
}

// Login handles POST /api/auth/login.
// Auto-registers on first login if the username does not exist; the
// tracker is a household tool, not an identity provider.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var acc model.Account
	err := h.db.Where("username = ?", req.Username).First(&acc).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
		if hashErr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		acc = model.Account{
			Username:     req.Username,
			PasswordHash: string(hash),
			Status:       1,
		}
		if createErr := h.db.Create(&acc).Error; createErr != nil {
			if isUniqueViolation(createErr) {
				c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
			}
			return
		}
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	default:
		if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		if acc.Status == 0 {
			c.JSON(http.StatusForbidden, gin.H{"error": "account disabled"})
			return
		}
	}

	token, err := mw.GenerateToken(acc.ID, h.sec.JWTSecret, h.sec.JWTTTLH)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	_ = h.cache.Set(ctx, "session:"+token, strconv.FormatInt(acc.ID, 10), h.sec.JWTTTLH)

	now := time.Now()
	_ = h.db.Model(&acc).Updates(map[string]interface{}{
		"last_login_at": now,
		"last_login_ip": c.ClientIP(),
	}).Error

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"account_id": acc.ID,
	})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	tokenStr := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if tokenStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	_ = h.cache.Del(ctx, "session:"+tokenStr)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// isUniqueViolation detects duplicate-key errors from common database drivers.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") ||
		strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "already exists")
}
