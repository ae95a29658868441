package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountVotes_Empty(t *testing.T) {
	tally := CountVotes(nil)
	assert.Equal(t, 0, tally.ApprovedCount)
	assert.Equal(t, 0, tally.RejectedCount)
	assert.False(t, tally.IsApproved)
}

func TestCountVotes_Majority(t *testing.T) {
	votes := map[string]Vote{
		"p1": VoteApprove,
		"p2": VoteApprove,
		"p3": VoteReject,
	}
	tally := CountVotes(votes)
	assert.Equal(t, 2, tally.ApprovedCount)
	assert.Equal(t, 1, tally.RejectedCount)
	assert.True(t, tally.IsApproved)
}

func TestCountVotes_TieRejects(t *testing.T) {
	votes := map[string]Vote{
		"p1": VoteApprove,
		"p2": VoteApprove,
		"p3": VoteApprove,
		"p4": VoteReject,
		"p5": VoteReject,
		"p6": VoteReject,
	}
	tally := CountVotes(votes)
	assert.Equal(t, 3, tally.ApprovedCount)
	assert.Equal(t, 3, tally.RejectedCount)
	assert.False(t, tally.IsApproved)
}

func TestCountVotes_CountsSumToDistinctVoters(t *testing.T) {
	votes := map[string]Vote{
		"p1": VoteApprove,
		"p2": VoteReject,
		"p3": VoteReject,
		"p4": VoteApprove,
		"p5": VoteApprove,
	}
	tally := CountVotes(votes)
	assert.Equal(t, len(votes), tally.ApprovedCount+tally.RejectedCount)
}

func TestCountVotes_LastWriteWins(t *testing.T) {
	votes := map[string]Vote{"p1": VoteApprove}
	votes["p1"] = VoteReject // a revote replaces, never double-counts
	tally := CountVotes(votes)
	assert.Equal(t, 0, tally.ApprovedCount)
	assert.Equal(t, 1, tally.RejectedCount)
}
