package sse

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/merlinhq/avalon-server/cache"
	"github.com/merlinhq/avalon-server/config"
	"github.com/merlinhq/avalon-server/game/session"
	mw "github.com/merlinhq/avalon-server/middleware"
)

// Handler streams live game events to clients over Server-Sent Events.
// EventSource cannot set headers, so auth rides a token query param.
type Handler struct {
	pubsub cache.PubSub
	cache  cache.Cache
	sec    config.SecurityConfig
	logger *zap.Logger
}

// NewHandler creates an SSE Handler.
func NewHandler(pubsub cache.PubSub, c cache.Cache, sec config.SecurityConfig, logger *zap.Logger) *Handler {
	return &Handler{pubsub: pubsub, cache: c, sec: sec, logger: logger}
}

// Stream handles GET /api/events?token=...
func (h *Handler) Stream(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	claims, err := mw.ParseToken(token, h.sec.JWTSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	ok, err := h.cache.Exists(c.Request.Context(), "session:"+token)
	if err != nil || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
		return
	}

	msgs, cancel, err := h.pubsub.Subscribe(c.Request.Context(), session.EventChannel)
	if err != nil {
		h.logger.Error("sse subscribe failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	fmt.Fprintf(c.Writer, "event: connected\ndata: {\"account_id\":%d}\n\n", claims.AccountID)
	c.Writer.Flush()

	keepalive := time.NewTicker(25 * time.Second)
	defer keepalive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, open := <-msgs:
			if !open {
				return false
			}
			fmt.Fprintf(w, "event: game\ndata: %s\n\n", msg.Payload)
			return true
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
