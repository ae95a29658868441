package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/merlinhq/avalon-server/game/rules"
)

// Game is the aggregate root: one tracked game of Avalon. All engine
// operations are plain synchronous in-memory mutations on this value;
// the host serializes access and persists snapshots after mutations.
type Game struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	StartedAt       time.Time   `json:"started_at"`
	FinishedAt      *time.Time  `json:"finished_at,omitempty"`
	Players         []Player    `json:"players"`
	Quests          []*Quest    `json:"quests"`
	Status          GameStatus  `json:"status"`
	Result          *GameResult `json:"result,omitempty"`
	SelectedQuestID string      `json:"selected_quest_id,omitempty"`
}

// NewGame creates a fresh game for the given roster and starts the first
// quest's first team slot. The roster is fixed for the game's lifetime.
// An empty name gets an auto-generated label from the start time.
func NewGame(name string, players []Player) *Game {
	now := time.Now()
	if name == "" {
		name = fmt.Sprintf("Avalon %s", now.Format("2006-01-02 15:04"))
	}
	g := &Game{
		ID:        uuid.New().String(),
		Name:      name,
		StartedAt: now,
		Players:   append([]Player(nil), players...),
		Quests:    make([]*Quest, 0, rules.QuestsPerGame),
		Status:    GameInProgress,
	}
	for i := 0; i < rules.QuestsPerGame; i++ {
		g.Quests = append(g.Quests, newQuest(i, len(players)))
	}
	first := g.Quests[0]
	g.StartQuest(first.ID)
	g.SelectedQuestID = first.ID
	return g
}

// NumPlayers returns the roster size.
func (g *Game) NumPlayers() int { return len(g.Players) }

// Quest returns the quest with the given ID, or nil.
func (g *Game) Quest(questID string) *Quest {
	for _, q := range g.Quests {
		if q.ID == questID {
			return q
		}
	}
	return nil
}

// QuestByIndex returns the quest at the given index, or nil.
func (g *Game) QuestByIndex(index int) *Quest {
	if index < 0 || index >= len(g.Quests) {
		return nil
	}
	return g.Quests[index]
}

// Team resolves a team within a quest, or nil if either ID is unknown.
func (g *Game) Team(questID, teamID string) *Team {
	q := g.Quest(questID)
	if q == nil {
		return nil
	}
	return q.team(teamID)
}

// StartQuest moves a quest into play and opens its first team slot.
// Unknown IDs are a safe no-op; the return value reports whether the
// mutation applied. Callers must not start a quest whose predecessor
// is unfinished; the engine does not enforce sequencing.
func (g *Game) StartQuest(questID string) bool {
	q := g.Quest(questID)
	if q == nil {
		return false
	}
	q.Status = StatusInProgress
	first := q.Teams[0]
	first.Status = StatusInProgress
	q.SelectedTeamID = first.ID
	return true
}

// StartTeam opens the given team slot and records it as the quest's
// selected team. Used when a rejected proposal moves play to the next
// slot within the same quest.
func (g *Game) StartTeam(questID, teamID string) bool {
	q := g.Quest(questID)
	if q == nil {
		return false
	}
	t := q.team(teamID)
	if t == nil {
		return false
	}
	t.Status = StatusInProgress
	q.SelectedTeamID = t.ID
	return true
}

// UpdateTeam applies a partial update to a team proposal. Unknown IDs
// are a safe no-op reported via the return value.
func (g *Game) UpdateTeam(questID, teamID string, upd TeamUpdate) bool {
	t := g.Team(questID, teamID)
	if t == nil {
		return false
	}
	t.apply(upd)
	return true
}

// FinishTeam closes voting on a team: the current vote map is tallied
// and stored as the team's result. Idempotent - calling it again simply
// recomputes from the current votes.
func (g *Game) FinishTeam(questID, teamID string) bool {
	t := g.Team(questID, teamID)
	if t == nil {
		return false
	}
	t.finish(time.Now())
	return true
}

// RecordQuestResult finishes a quest with the given fail-card count and
// re-derives the game status. The first return value reports whether
// the game just reached three successes or three fails; the second
// reports whether the quest ID resolved. FailCount is stored as given -
// bounds against team size are the caller's responsibility.
func (g *Game) RecordQuestResult(questID string, failCount int) (finished bool, ok bool) {
	q := g.Quest(questID)
	if q == nil {
		return false, false
	}
	resultType := QuestSuccess
	if failCount >= q.RequiredFails() {
		resultType = QuestFail
	}
	q.Status = StatusFinished
	q.Result = &QuestResult{Type: resultType, FailCount: failCount}
	return g.refreshStatus(), true
}

// ClearQuestResult reverts a finished quest to in-progress and drops its
// result so the user can re-edit it. The game status is re-derived so no
// stale win state survives the clear.
func (g *Game) ClearQuestResult(questID string) bool {
	q := g.Quest(questID)
	if q == nil {
		return false
	}
	q.Status = StatusInProgress
	q.Result = nil
	g.refreshStatus()
	return true
}

// refreshStatus recounts quest outcomes from scratch and derives the
// game status. It is idempotent and order-independent. Terminal states
// set outside the counting logic (complete, early assassin) are left
// alone.
func (g *Game) refreshStatus() bool {
	if g.Status == GameComplete || g.Status == GameEarlyAssassin {
		return false
	}
	successes, fails := 0, 0
	for _, q := range g.Quests {
		if q.Result == nil {
			continue
		}
		switch q.Result.Type {
		case QuestSuccess:
			successes++
		case QuestFail:
			fails++
		}
	}
	switch {
	case successes >= 3:
		g.Status = GameThreeSuccesses
		return true
	case fails >= 3:
		g.Status = GameThreeFails
		return true
	default:
		g.Status = GameInProgress
		return false
	}
}

// SetEarlyAssassin marks the game as ended early by an assassination
// attempt. This is an external trigger only - never derived from quest
// counting.
func (g *Game) SetEarlyAssassin() {
	g.Status = GameEarlyAssassin
}

// Finish completes the game. A nil result defaults to a good win by
// failed assassination, matching the tracked game's original contract.
func (g *Game) Finish(result *GameResult) {
	g.Status = GameComplete
	if result == nil {
		r := GoodWinFailedAssassination
		result = &r
	}
	g.Result = result
	now := time.Now()
	g.FinishedAt = &now
}

// SelectQuest records the quest slot currently displayed. UI cursor
// state only; not gameplay-relevant.
func (g *Game) SelectQuest(questID string) bool {
	if g.Quest(questID) == nil {
		return false
	}
	g.SelectedQuestID = questID
	return true
}
