package rest_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merlinhq/avalon-server/game/engine"
)

func TestCreateGame(t *testing.T) {
	s := newTestServer(t)

	game := createGame(t, s)
	assert.Len(t, game.Players, 7)
	assert.Len(t, game.Quests, 5)
	assert.Equal(t, engine.GameInProgress, game.Status)
	assert.Equal(t, engine.StatusInProgress, game.Quests[0].Status)
}

func TestCreateGame_BadRosterSize(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/game", gin.H{"players": []string{"Ana", "Ben"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCurrent_NoActiveGame(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/game", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStartQuest_UnknownID(t *testing.T) {
	s := newTestServer(t)
	createGame(t, s)

	w := s.do(t, http.MethodPost, "/api/game/quests/not-a-quest/start", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTeamVoteFlow(t *testing.T) {
	s := newTestServer(t)
	game := createGame(t, s)
	quest := game.Quests[0]
	team := quest.Teams[0]

	w := s.do(t, http.MethodPost,
		fmt.Sprintf("/api/game/quests/%s/teams/%s/start", quest.ID, team.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Leader plus a full vote round: four approvals beat three rejections.
	votes := gin.H{}
	for i, p := range game.Players {
		if i < 4 {
			votes[p.ID] = "approve"
		} else {
			votes[p.ID] = "reject"
		}
	}
	w = s.do(t, http.MethodPatch,
		fmt.Sprintf("/api/game/quests/%s/teams/%s", quest.ID, team.ID),
		gin.H{"leader_id": game.Players[0].ID, "votes": votes})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	updated := decodeGame(t, w)
	assert.Equal(t, game.Players[0].ID, updated.Quests[0].Teams[0].LeaderID)
	assert.Len(t, updated.Quests[0].Teams[0].VotesByVoter, 7)

	w = s.do(t, http.MethodPost,
		fmt.Sprintf("/api/game/quests/%s/teams/%s/finish", quest.ID, team.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Result engine.TeamResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Result.IsApproved)
	assert.Equal(t, 4, resp.Result.ApprovedCount)
	assert.Equal(t, 3, resp.Result.RejectedCount)
}

func TestUpdateTeam_UnknownVoter(t *testing.T) {
	s := newTestServer(t)
	game := createGame(t, s)
	quest := game.Quests[0]
	team := quest.Teams[0]

	w := s.do(t, http.MethodPatch,
		fmt.Sprintf("/api/game/quests/%s/teams/%s", quest.ID, team.ID),
		gin.H{"votes": gin.H{"ghost-player": "approve"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateTeam_BadVoteValue(t *testing.T) {
	s := newTestServer(t)
	game := createGame(t, s)
	quest := game.Quests[0]
	team := quest.Teams[0]

	w := s.do(t, http.MethodPatch,
		fmt.Sprintf("/api/game/quests/%s/teams/%s", quest.ID, team.ID),
		gin.H{"votes": gin.H{game.Players[0].ID: "maybe"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func recordResult(t *testing.T, s *testServer, questID string, failCount int) (finished bool, status engine.GameStatus) {
	t.Helper()
	w := s.do(t, http.MethodPut,
		fmt.Sprintf("/api/game/quests/%s/result", questID),
		gin.H{"fail_count": failCount})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		GameFinished bool              `json:"game_finished"`
		GameStatus   engine.GameStatus `json:"game_status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.GameFinished, resp.GameStatus
}

func TestThreeSuccessesFinishesGame(t *testing.T) {
	s := newTestServer(t)
	game := createGame(t, s)

	finished, _ := recordResult(t, s, game.Quests[0].ID, 0)
	assert.False(t, finished)
	finished, _ = recordResult(t, s, game.Quests[1].ID, 0)
	assert.False(t, finished)
	finished, status := recordResult(t, s, game.Quests[2].ID, 0)
	assert.True(t, finished)
	assert.Equal(t, engine.GameThreeSuccesses, status)
}

func TestFourthQuestNeedsTwoFailsWithSevenPlayers(t *testing.T) {
	s := newTestServer(t)
	game := createGame(t, s)
	fourth := game.Quests[3]

	w := s.do(t, http.MethodPut,
		fmt.Sprintf("/api/game/quests/%s/result", fourth.ID),
		gin.H{"fail_count": 1})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Result engine.QuestResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, engine.QuestSuccess, resp.Result.Type)

	w = s.do(t, http.MethodPut,
		fmt.Sprintf("/api/game/quests/%s/result", fourth.ID),
		gin.H{"fail_count": 2})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, engine.QuestFail, resp.Result.Type)
}

func TestClearResult(t *testing.T) {
	s := newTestServer(t)
	game := createGame(t, s)

	recordResult(t, s, game.Quests[0].ID, 0)
	w := s.do(t, http.MethodDelete,
		fmt.Sprintf("/api/game/quests/%s/result", game.Quests[0].ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	updated := decodeGame(t, w)
	assert.Nil(t, updated.Quests[0].Result)
	assert.Equal(t, engine.GameInProgress, updated.Status)
}

func TestAssassinThenFinish(t *testing.T) {
	s := newTestServer(t)
	createGame(t, s)

	w := s.do(t, http.MethodPost, "/api/game/assassin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, engine.GameEarlyAssassin, decodeGame(t, w).Status)

	w = s.do(t, http.MethodPost, "/api/game/finish",
		gin.H{"result": "evil_win_by_assassination"})
	require.Equal(t, http.StatusOK, w.Code)

	finished := decodeGame(t, w)
	assert.Equal(t, engine.GameComplete, finished.Status)
	require.NotNil(t, finished.Result)
	assert.Equal(t, engine.EvilWinByAssassination, *finished.Result)
	assert.NotNil(t, finished.FinishedAt)
}

func TestFinish_DefaultResult(t *testing.T) {
	s := newTestServer(t)
	createGame(t, s)

	w := s.do(t, http.MethodPost, "/api/game/finish", gin.H{})
	require.Equal(t, http.StatusOK, w.Code)

	finished := decodeGame(t, w)
	require.NotNil(t, finished.Result)
	assert.Equal(t, engine.GoodWinFailedAssassination, *finished.Result)
}

func TestFinish_UnknownResult(t *testing.T) {
	s := newTestServer(t)
	createGame(t, s)

	w := s.do(t, http.MethodPost, "/api/game/finish", gin.H{"result": "nobody_wins"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRulesEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/rules?players=7", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Players       int   `json:"players"`
		TeamSizes     []int `json:"team_sizes"`
		RequiredFails []int `json:"required_fails"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []int{2, 3, 3, 4, 4}, resp.TeamSizes)
	assert.Equal(t, []int{1, 1, 1, 2, 1}, resp.RequiredFails)
}

func TestRulesEndpoint_BadPlayerCount(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/rules?players=3", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnauthenticated(t *testing.T) {
	s := newTestServer(t)
	s.token = "not-a-token"

	w := s.do(t, http.MethodGet, "/api/game", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
