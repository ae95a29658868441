package engine

import (
	"time"

	"github.com/google/uuid"
)

// TeamResult records the decided vote on a team proposal.
// It exists iff the team is finished; the counts are always the tally
// of the vote map at the moment the team was finished.
type TeamResult struct {
	IsApproved    bool      `json:"is_approved"`
	ApprovedCount int       `json:"approved_count"`
	RejectedCount int       `json:"rejected_count"`
	DecidedAt     time.Time `json:"decided_at"`
}

// Team is one proposal-and-vote round within a quest. A quest has five
// slots consumed in ascending order; a rejected slot is never reopened.
type Team struct {
	ID           string          `json:"id"`
	QuestIndex   int             `json:"quest_index"`
	Index        int             `json:"index"`
	Status       Status          `json:"status"`
	LeaderID     string          `json:"leader_id,omitempty"`
	Members      []Player        `json:"members,omitempty"`
	VotesByVoter map[string]Vote `json:"votes_by_voter,omitempty"`
	Result       *TeamResult     `json:"result,omitempty"`
}

func newTeam(questIndex, index int) *Team {
	return &Team{
		ID:           uuid.New().String(),
		QuestIndex:   questIndex,
		Index:        index,
		Status:       StatusNotStarted,
		VotesByVoter: make(map[string]Vote),
	}
}

// TeamUpdate is a partial update to a team proposal. A nil field leaves
// the corresponding team field unchanged; a non-nil field replaces it
// wholesale (the vote map included - no element-level merge).
type TeamUpdate struct {
	LeaderID *string
	Members  []Player
	Votes    map[string]Vote
}

func (t *Team) apply(upd TeamUpdate) {
	if upd.LeaderID != nil {
		t.LeaderID = *upd.LeaderID
	}
	if upd.Members != nil {
		t.Members = append([]Player(nil), upd.Members...)
	}
	if upd.Votes != nil {
		votes := make(map[string]Vote, len(upd.Votes))
		for voter, v := range upd.Votes {
			votes[voter] = v
		}
		t.VotesByVoter = votes
	}
}

// finish tallies the current votes and marks the team finished.
// Calling it again recomputes from the current vote map.
func (t *Team) finish(now time.Time) {
	tally := CountVotes(t.VotesByVoter)
	t.Status = StatusFinished
	t.Result = &TeamResult{
		IsApproved:    tally.IsApproved,
		ApprovedCount: tally.ApprovedCount,
		RejectedCount: tally.RejectedCount,
		DecidedAt:     now,
	}
}
