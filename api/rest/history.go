package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/merlinhq/avalon-server/game/session"
	"github.com/merlinhq/avalon-server/gamelog"
	"github.com/merlinhq/avalon-server/store"
)

// HistoryHandler serves the stored game archive.
type HistoryHandler struct {
	gw     *store.Gateway
	mgr    *session.Manager
	log    *gamelog.Service
	logger *zap.Logger
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(gw *store.Gateway, mgr *session.Manager, log *gamelog.Service, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{gw: gw, mgr: mgr, log: log, logger: logger}
}

// List handles GET /api/games: metadata for every stored game, newest
// first, snapshots omitted.
func (h *HistoryHandler) List(c *gin.Context) {
	recs, err := h.gw.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list games failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	out := make([]gin.H, 0, len(recs))
	for _, rec := range recs {
		out = append(out, gin.H{
			"id":          rec.ID,
			"name":        rec.Name,
			"num_players": rec.NumPlayers,
			"status":      rec.Status,
			"result":      rec.Result,
			"started_at":  rec.StartedAt,
			"finished_at": rec.FinishedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"games": out})
}

// Get handles GET /api/games/:id: the full decoded snapshot.
func (h *HistoryHandler) Get(c *gin.Context) {
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

	game, err := store.DecodeSnapshot(rec.Snapshot)
	if err != nil {
		h.logger.Error("decode snapshot failed", zap.String("game_id", rec.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "corrupt snapshot"})
		return
	}
	c.JSON(http.StatusOK, game)
}

// Delete handles DELETE /api/games/:id. If the game is the active one,
// any pending debounced save is cancelled and the session is cleared.
func (h *HistoryHandler) Delete(c *gin.Context) {
	gameID := c.Param("id")
	rec, err := h.gw.Get(c.Request.Context(), gameID)
	if err != nil {
		h.logger.Error("get game failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return
	}

	h.mgr.Drop(gameID)
	if err := h.gw.Delete(c.Request.Context(), gameID); err != nil {
		h.logger.Error("delete game failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": gameID})
}

// Timeline handles GET /api/games/:id/timeline: the event journal for
// one game, oldest first.
func (h *HistoryHandler) Timeline(c *gin.Context) {
	events, err := h.log.Timeline(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("timeline query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
