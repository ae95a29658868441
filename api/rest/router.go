package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/merlinhq/avalon-server/cache"
	"github.com/merlinhq/avalon-server/config"
	mw "github.com/merlinhq/avalon-server/middleware"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth    *AuthHandler
	Game    *GameHandler
	History *HistoryHandler
	Share   *ShareHandler
	Prefs   *PrefsHandler
	Admin   *AdminHandler
}

// Register mounts all REST routes on the engine. Game and history
// routes sit behind token auth; admin routes additionally require the
// admin key and whitelist.
func Register(r *gin.Engine, h Handlers, c cache.Cache, cfg *config.Config) {
	sec := cfg.Security
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/logout", h.Auth.Logout)

	authed := api.Group("", mw.Auth(sec, c))
	{
		authed.GET("/rules", h.Game.Rules)

		game := authed.Group("/game")
		{
			game.POST("", h.Game.Create)
			game.GET("", h.Game.Current)
			game.POST("/quests/:qid/start", h.Game.StartQuest)
			game.POST("/quests/:qid/select", h.Game.Select)
			game.POST("/quests/:qid/teams/:tid/start", h.Game.StartTeam)
			game.PATCH("/quests/:qid/teams/:tid", h.Game.UpdateTeam)
			game.POST("/quests/:qid/teams/:tid/finish", h.Game.FinishTeam)
			game.PUT("/quests/:qid/result", h.Game.RecordResult)
			game.DELETE("/quests/:qid/result", h.Game.ClearResult)
			game.POST("/assassin", h.Game.Assassin)
			game.POST("/finish", h.Game.Finish)
		}

		games := authed.Group("/games")
		{
			games.GET("", h.History.List)
			games.POST("/import", h.Share.Import)
			games.GET("/:id", h.History.Get)
			games.DELETE("/:id", h.History.Delete)
			games.GET("/:id/timeline", h.History.Timeline)
			games.GET("/:id/share", h.Share.Export)
		}

		prefs := authed.Group("/preferences")
		{
			prefs.GET("", h.Prefs.List)
			prefs.PUT("/:key", h.Prefs.Set)
		}
	}

	admin := api.Group("/admin", mw.IPWhitelist(sec.AdminIPs), AdminAuth(cfg.Server.AdminKey))
	{
		admin.GET("/metrics", h.Admin.Metrics)
		admin.GET("/tasks", h.Admin.Tasks)
	}
}
