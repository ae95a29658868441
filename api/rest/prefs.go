package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	mw "github.com/merlinhq/avalon-server/middleware"
	"github.com/merlinhq/avalon-server/model"
)

// PrefsHandler stores per-account display preferences as a flat
// key/value map (sort order, rules visibility, and so on).
type PrefsHandler struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPrefsHandler creates a new PrefsHandler.
func NewPrefsHandler(db *gorm.DB, logger *zap.Logger) *PrefsHandler {
	return &PrefsHandler{db: db, logger: logger}
}

// List handles GET /api/preferences.
func (h *PrefsHandler) List(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	var prefs []model.Preference
	if err := h.db.WithContext(c.Request.Context()).
		Where("account_id = ?", accountID).
		Find(&prefs).Error; err != nil {
		h.logger.Error("list preferences failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	out := make(map[string]string, len(prefs))
	for _, p := range prefs {
		out[p.Key] = p.Value
	}
	c.JSON(http.StatusOK, gin.H{"preferences": out})
}

type setPrefRequest struct {
	Value string `json:"value" binding:"max=256"`
}

// Set handles PUT /api/preferences/:key. Upserts the value for the
// calling account.
func (h *PrefsHandler) Set(c *gin.Context) {
	key := c.Param("key")
	if key == "" || len(key) > 64 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid preference key"})
		return
	}
	var req setPrefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pref := model.Preference{
		AccountID: mw.GetAccountID(c),
		Key:       key,
		Value:     req.Value,
	}
	err := h.db.WithContext(c.Request.Context()).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&pref).Error
	if err != nil {
		h.logger.Error("set preference failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{key: req.Value})
}
