package engine

import (
	"github.com/google/uuid"

	"github.com/merlinhq/avalon-server/game/rules"
)

// QuestResult records the outcome of a finished quest. FailCount is the
// number of fail cards revealed during mission execution; the type is
// derived by comparing it to the required-fails threshold.
type QuestResult struct {
	Type      QuestResultType `json:"type"`
	FailCount int             `json:"fail_count"`
}

// Quest is one of the five missions. It owns five team proposal slots,
// consumed in order as proposals are rejected.
type Quest struct {
	ID             string       `json:"id"`
	Index          int          `json:"index"`
	NumPlayers     int          `json:"num_players"`
	Status         Status       `json:"status"`
	Teams          []*Team      `json:"teams"`
	SelectedTeamID string       `json:"selected_team_id,omitempty"`
	Result         *QuestResult `json:"result,omitempty"`
}

func newQuest(index, numPlayers int) *Quest {
	q := &Quest{
		ID:         uuid.New().String(),
		Index:      index,
		NumPlayers: numPlayers,
		Status:     StatusNotStarted,
		Teams:      make([]*Team, 0, rules.TeamsPerQuest),
	}
	for i := 0; i < rules.TeamsPerQuest; i++ {
		q.Teams = append(q.Teams, newTeam(index, i))
	}
	return q
}

// RequiredTeamSize returns the team size this quest demands.
func (q *Quest) RequiredTeamSize() int {
	size, _ := rules.TeamSize(q.NumPlayers, q.Index)
	return size
}

// RequiredFails returns the sabotage threshold for this quest.
func (q *Quest) RequiredFails() int {
	fails, _ := rules.RequiredFails(q.NumPlayers, q.Index)
	return fails
}

func (q *Quest) team(teamID string) *Team {
	for _, t := range q.Teams {
		if t.ID == teamID {
			return t
		}
	}
	return nil
}

// SelectedTeam returns the team slot currently in play, or nil.
func (q *Quest) SelectedTeam() *Team {
	return q.team(q.SelectedTeamID)
}
