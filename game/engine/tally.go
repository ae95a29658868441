package engine

// VoteTally is the outcome of counting a team proposal's votes.
// A strict majority of approvals passes the proposal; ties reject.
type VoteTally struct {
	ApprovedCount int  `json:"approved_count"`
	RejectedCount int  `json:"rejected_count"`
	IsApproved    bool `json:"is_approved"`
}

// CountVotes tallies a vote map. The map is keyed by voter ID, so a
// player can never be counted twice. An empty map yields a rejection.
func CountVotes(votes map[string]Vote) VoteTally {
	var t VoteTally
	for _, v := range votes {
		switch v {
		case VoteApprove:
			t.ApprovedCount++
		case VoteReject:
			t.RejectedCount++
		}
	}
	t.IsApproved = t.ApprovedCount > t.RejectedCount
	return t
}
