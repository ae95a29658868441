package rest

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/merlinhq/avalon-server/game/rules"
	"github.com/merlinhq/avalon-server/store"
)

// ShareHandler exports games as self-contained share payloads and
// imports them back. The payload is the snapshot JSON, base64url
// encoded so it survives being pasted into a link.
type ShareHandler struct {
	gw     *store.Gateway
	logger *zap.Logger
}

// NewShareHandler creates a new ShareHandler.
func NewShareHandler(gw *store.Gateway, logger *zap.Logger) *ShareHandler {
	return &ShareHandler{gw: gw, logger: logger}
}

// Export handles GET /api/games/:id/share.
func (h *ShareHandler) Export(c *gin.Context) {
	rec, err := h.gw.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("get game failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return
	}

	payload := base64.URLEncoding.EncodeToString(rec.Snapshot)
	c.JSON(http.StatusOK, gin.H{
		"game_id": rec.ID,
		"payload": payload,
	})
}

type importRequest struct {
	Payload string `json:"payload" binding:"required"`
}

// Import handles POST /api/games/import. The payload is validated
// before insert; an id collision means the game is already here.
func (h *ShareHandler) Import(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	raw, err := base64.URLEncoding.DecodeString(req.Payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payload is not valid base64"})
		return
	}
	game, err := store.DecodeSnapshot(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payload is not a game snapshot"})
		return
	}
	if game.ID == "" || !rules.ValidPlayerCount(game.NumPlayers()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "snapshot failed validation"})
		return
	}

	existing, err := h.gw.Get(c.Request.Context(), game.ID)
	if err != nil {
		h.logger.Error("get game failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "game already imported"})
		return
	}

	if err := h.gw.Insert(c.Request.Context(), game); err != nil {
		h.logger.Error("import insert failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"game_id": game.ID})
}
