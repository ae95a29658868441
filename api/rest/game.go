package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/merlinhq/avalon-server/game/engine"
	"github.com/merlinhq/avalon-server/game/rules"
	"github.com/merlinhq/avalon-server/game/session"
	"github.com/merlinhq/avalon-server/gamelog"
	mw "github.com/merlinhq/avalon-server/middleware"
)

// GameHandler exposes the active game and its engine operations.
type GameHandler struct {
	mgr    *session.Manager
	log    *gamelog.Service
	logger *zap.Logger
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(mgr *session.Manager, log *gamelog.Service, logger *zap.Logger) *GameHandler {
	return &GameHandler{mgr: mgr, log: log, logger: logger}
}

type createGameRequest struct {
	Name    string   `json:"name" binding:"max=64"`
	Players []string `json:"players" binding:"required"`
}

// Create handles POST /api/game. It replaces the active game with a
// fresh one for the given roster.
func (h *GameHandler) Create(c *gin.Context) {
	var req createGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	game, err := h.mgr.StartNew(c.Request.Context(), req.Name, req.Players)
	if err != nil {
		if errors.Is(err, session.ErrInvalidPlayerCount) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("create game failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	h.log.Record(gamelog.Entry{
		GameID:  game.ID,
		TraceID: mw.GetTraceID(c),
		Action:  "game_started",
		Detail:  gin.H{"players": len(game.Players), "name": game.Name},
	})
	c.JSON(http.StatusCreated, game)
}

// Current handles GET /api/game.
func (h *GameHandler) Current(c *gin.Context) {
	err := h.mgr.View(func(g *engine.Game) error {
		c.JSON(http.StatusOK, g)
		return nil
	})
	if errors.Is(err, session.ErrNoActiveGame) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active game"})
	}
}

// StartQuest handles POST /api/game/quests/:qid/start.
func (h *GameHandler) StartQuest(c *gin.Context) {
	questID := c.Param("qid")
	var questIndex int
	err := h.mgr.Apply("quest_started", func(g *engine.Game) error {
		q := g.Quest(questID)
		if q == nil {
			return errQuestNotFound
		}
		questIndex = q.Index
		g.StartQuest(questID)
		return nil
	})
	if !h.applied(c, err) {
		return
	}
	h.journal(c, "quest_started", &questIndex, nil, nil)
	h.respondWithGame(c)
}

// Select handles POST /api/game/quests/:qid/select (UI cursor only).
func (h *GameHandler) Select(c *gin.Context) {
	questID := c.Param("qid")
	err := h.mgr.Apply("quest_selected", func(g *engine.Game) error {
		if !g.SelectQuest(questID) {
			return errQuestNotFound
		}
		return nil
	})
	if !h.applied(c, err) {
		return
	}
	h.respondWithGame(c)
}

// StartTeam handles POST /api/game/quests/:qid/teams/:tid/start.
func (h *GameHandler) StartTeam(c *gin.Context) {
	questID, teamID := c.Param("qid"), c.Param("tid")
	var questIndex, teamIndex int
	err := h.mgr.Apply("team_started", func(g *engine.Game) error {
		t := g.Team(questID, teamID)
		if t == nil {
			return errTeamNotFound
		}
		questIndex, teamIndex = t.QuestIndex, t.Index
		g.StartTeam(questID, teamID)
		return nil
	})
	if !h.applied(c, err) {
		return
	}
	h.journal(c, "team_started", &questIndex, &teamIndex, nil)
	h.respondWithGame(c)
}

type updateTeamRequest struct {
	LeaderID  *string           `json:"leader_id"`
	MemberIDs []string          `json:"member_ids"`
	Votes     map[string]string `json:"votes"`
}

// UpdateTeam handles PATCH /api/game/quests/:qid/teams/:tid.
// Each provided field replaces the team's field wholesale.
func (h *GameHandler) UpdateTeam(c *gin.Context) {
	questID, teamID := c.Param("qid"), c.Param("tid")
	var req updateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var questIndex, teamIndex int
	err := h.mgr.Apply("team_updated", func(g *engine.Game) error {
		t := g.Team(questID, teamID)
		if t == nil {
			return errTeamNotFound
		}
		questIndex, teamIndex = t.QuestIndex, t.Index

		upd := engine.TeamUpdate{LeaderID: req.LeaderID}
		if req.MemberIDs != nil {
			members, err := resolveMembers(g, req.MemberIDs)
			if err != nil {
				return err
			}
			upd.Members = members
		}
		if req.Votes != nil {
			votes, err := parseVotes(g, req.Votes)
			if err != nil {
				return err
			}
			upd.Votes = votes
		}
		g.UpdateTeam(questID, teamID, upd)
		return nil
	})
	if !h.applied(c, err) {
		return
	}
	h.journal(c, "team_updated", &questIndex, &teamIndex, nil)
	h.respondWithGame(c)
}

// FinishTeam handles POST /api/game/quests/:qid/teams/:tid/finish.
// The current vote map is tallied and stored; repeat calls recompute.
func (h *GameHandler) FinishTeam(c *gin.Context) {
	questID, teamID := c.Param("qid"), c.Param("tid")
	var questIndex, teamIndex int
	var result engine.TeamResult
	err := h.mgr.Apply("team_finished", func(g *engine.Game) error {
		t := g.Team(questID, teamID)
		if t == nil {
			return errTeamNotFound
		}
		questIndex, teamIndex = t.QuestIndex, t.Index
		g.FinishTeam(questID, teamID)
		result = *t.Result
		return nil
	})
	if !h.applied(c, err) {
		return
	}
	h.journal(c, "team_finished", &questIndex, &teamIndex, gin.H{
		"is_approved":    result.IsApproved,
		"approved_count": result.ApprovedCount,
		"rejected_count": result.RejectedCount,
	})
	c.JSON(http.StatusOK, gin.H{"result": result})
}

type questResultRequest struct {
	FailCount *int `json:"fail_count" binding:"required"`
}

// RecordResult handles PUT /api/game/quests/:qid/result.
func (h *GameHandler) RecordResult(c *gin.Context) {
	questID := c.Param("qid")
	var req questResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var questIndex int
	var gameFinished bool
	var status engine.GameStatus
	var result engine.QuestResult
	err := h.mgr.Apply("quest_result_recorded", func(g *engine.Game) error {
		q := g.Quest(questID)
		if q == nil {
			return errQuestNotFound
		}
		questIndex = q.Index
		gameFinished, _ = g.RecordQuestResult(questID, *req.FailCount)
		status = g.Status
		result = *q.Result
		return nil
	})
	if !h.applied(c, err) {
		return
	}
	h.journal(c, "quest_result_recorded", &questIndex, nil, gin.H{
		"type":       result.Type,
		"fail_count": result.FailCount,
	})
	c.JSON(http.StatusOK, gin.H{
		"result":        result,
		"game_finished": gameFinished,
		"game_status":   status,
	})
}

// ClearResult handles DELETE /api/game/quests/:qid/result.
func (h *GameHandler) ClearResult(c *gin.Context) {
	questID := c.Param("qid")
	var questIndex int
	err := h.mgr.Apply("quest_result_cleared", func(g *engine.Game) error {
		q := g.Quest(questID)
		if q == nil {
			return errQuestNotFound
		}
		questIndex = q.Index
		g.ClearQuestResult(questID)
		return nil
	})
	if !h.applied(c, err) {
		return
	}
	h.journal(c, "quest_result_cleared", &questIndex, nil, nil)
	h.respondWithGame(c)
}

// Assassin handles POST /api/game/assassin: the externally triggered
// early-assassination state.
func (h *GameHandler) Assassin(c *gin.Context) {
	err := h.mgr.Apply("early_assassin", func(g *engine.Game) error {
		g.SetEarlyAssassin()
		return nil
	})
	if !h.applied(c, err) {
		return
	}
	h.journal(c, "early_assassin", nil, nil, nil)
	h.respondWithGame(c)
}

type finishGameRequest struct {
	Result string `json:"result"`
}

// Finish handles POST /api/game/finish. An omitted result defaults to
// a good win by failed assassination.
func (h *GameHandler) Finish(c *gin.Context) {
	var req finishGameRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var result *engine.GameResult
	if req.Result != "" {
		r := engine.GameResult(req.Result)
		switch r {
		case engine.GoodWinFailedAssassination, engine.EvilWinByQuest, engine.EvilWinByAssassination:
			result = &r
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown game result"})
			return
		}
	}

	err := h.mgr.Apply("game_finished", func(g *engine.Game) error {
		g.Finish(result)
		return nil
	})
	if !h.applied(c, err) {
		return
	}
	h.journal(c, "game_finished", nil, nil, gin.H{"result": req.Result})
	h.respondWithGame(c)
}

// Rules handles GET /api/rules?players=N: the team size and required
// fails table for a roster size.
func (h *GameHandler) Rules(c *gin.Context) {
	var query struct {
		Players int `form:"players" binding:"required,min=5,max=10"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	teamSizes := make([]int, rules.QuestsPerGame)
	requiredFails := make([]int, rules.QuestsPerGame)
	for q := 0; q < rules.QuestsPerGame; q++ {
		teamSizes[q], _ = rules.TeamSize(query.Players, q)
		requiredFails[q], _ = rules.RequiredFails(query.Players, q)
	}
	c.JSON(http.StatusOK, gin.H{
		"players":        query.Players,
		"team_sizes":     teamSizes,
		"required_fails": requiredFails,
	})
}

// ---- helpers ----

var (
	errQuestNotFound = errors.New("quest not found")
	errTeamNotFound  = errors.New("team not found")
	errUnknownPlayer = errors.New("unknown player id")
	errBadVote       = errors.New("vote must be approve or reject")
)

// applied maps Apply errors onto HTTP responses and reports whether the
// mutation went through.
func (h *GameHandler) applied(c *gin.Context, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, session.ErrNoActiveGame):
		c.JSON(http.StatusNotFound, gin.H{"error": "no active game"})
	case errors.Is(err, errQuestNotFound), errors.Is(err, errTeamNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, errUnknownPlayer), errors.Is(err, errBadVote):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("game mutation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
	return false
}

func (h *GameHandler) respondWithGame(c *gin.Context) {
	_ = h.mgr.View(func(g *engine.Game) error {
		c.JSON(http.StatusOK, g)
		return nil
	})
}

func (h *GameHandler) journal(c *gin.Context, action string, questIndex, teamIndex *int, detail interface{}) {
	h.log.Record(gamelog.Entry{
		GameID:     h.mgr.ActiveID(),
		TraceID:    mw.GetTraceID(c),
		Action:     action,
		QuestIndex: questIndex,
		TeamIndex:  teamIndex,
		Detail:     detail,
	})
}

func resolveMembers(g *engine.Game, memberIDs []string) ([]engine.Player, error) {
	byID := make(map[string]engine.Player, len(g.Players))
	for _, p := range g.Players {
		byID[p.ID] = p
	}
	members := make([]engine.Player, 0, len(memberIDs))
	for _, id := range memberIDs {
		p, ok := byID[id]
		if !ok {
			return nil, errUnknownPlayer
		}
		members = append(members, p)
	}
	return members, nil
}

func parseVotes(g *engine.Game, raw map[string]string) (map[string]engine.Vote, error) {
	byID := make(map[string]bool, len(g.Players))
	for _, p := range g.Players {
		byID[p.ID] = true
	}
	votes := make(map[string]engine.Vote, len(raw))
	for voter, v := range raw {
		if !byID[voter] {
			return nil, errUnknownPlayer
		}
		vote := engine.Vote(v)
		if vote != engine.VoteApprove && vote != engine.VoteReject {
			return nil, errBadVote
		}
		votes[voter] = vote
	}
	return votes, nil
}
