package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/merlinhq/avalon-server/model"
	"github.com/merlinhq/avalon-server/scheduler"
)

// AdminHandler serves operational endpoints behind the admin key and
// IP whitelist.
type AdminHandler struct {
	db     *gorm.DB
	sched  *scheduler.Scheduler
	logger *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(db *gorm.DB, sched *scheduler.Scheduler, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{db: db, sched: sched, logger: logger}
}

// AdminAuth requires the X-Admin-Key header to match the configured key.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" || c.GetHeader("X-Admin-Key") != adminKey {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// Metrics handles GET /api/admin/metrics: table row counts.
func (h *AdminHandler) Metrics(c *gin.Context) {
	var games, unfinished, events, accounts int64
	db := h.db.WithContext(c.Request.Context())
	if err := db.Model(&model.GameRecord{}).Count(&games).Error; err != nil {
		h.logger.Error("metrics query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	db.Model(&model.GameRecord{}).Where("finished_at IS NULL").Count(&unfinished)
	db.Model(&model.GameEvent{}).Count(&events)
	db.Model(&model.Account{}).Count(&accounts)

	c.JSON(http.StatusOK, gin.H{
		"games":            games,
		"unfinished_games": unfinished,
		"game_events":      events,
		"accounts":         accounts,
	})
}

// Tasks handles GET /api/admin/tasks: names of live scheduler tickers.
func (h *AdminHandler) Tasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tickers": h.sched.ListTickers()})
}
