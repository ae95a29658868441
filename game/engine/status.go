package engine

// Status is the lifecycle state shared by quests and team proposals.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

// GameStatus is the lifecycle state of a game.
type GameStatus string

const (
	GameInitial        GameStatus = "initial"
	GameInProgress     GameStatus = "in_progress"
	GameThreeSuccesses GameStatus = "three_successes"
	GameThreeFails     GameStatus = "three_fails"
	GameEarlyAssassin  GameStatus = "early_assassin"
	GameComplete       GameStatus = "complete"
)

// GameResult is the end-game outcome.
type GameResult string

const (
	GoodWinFailedAssassination GameResult = "good_win_failed_assassination"
	EvilWinByQuest             GameResult = "evil_win_by_quest"
	EvilWinByAssassination     GameResult = "evil_win_by_assassination"
)

// QuestResultType classifies a finished quest.
type QuestResultType string

const (
	QuestSuccess QuestResultType = "success"
	QuestFail    QuestResultType = "fail"
)

// Vote is a single player's stance on a team proposal.
type Vote string

const (
	VoteApprove Vote = "approve"
	VoteReject  Vote = "reject"
)
