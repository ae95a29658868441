package rules

import "errors"

// ErrInvalidQuestIndex is returned when a quest index is outside [0, QuestsPerGame).
var ErrInvalidQuestIndex = errors.New("rules: quest index out of range")

const (
	// QuestsPerGame is the number of quests in a game of Avalon.
	QuestsPerGame = 5
	// TeamsPerQuest is the number of team proposal attempts per quest.
	TeamsPerQuest = 5
	// MinPlayers and MaxPlayers bound the supported roster size.
	MinPlayers = 5
	MaxPlayers = 10
)

// teamSizes maps player count to the required team size per quest.
// Counts 8-10 share a single table; that table also serves as the
// fallback for out-of-range counts (hosts validate [5,10] up front).
var teamSizes = map[int][QuestsPerGame]int{
	5: {2, 3, 2, 3, 3},
	6: {2, 3, 4, 3, 4},
	7: {2, 3, 3, 4, 4},
}

var defaultTeamSizes = [QuestsPerGame]int{3, 4, 4, 5, 5}

// TeamSize returns how many players the leader must put on the team
// for the given quest.
func TeamSize(numPlayers, questIndex int) (int, error) {
	if questIndex < 0 || questIndex >= QuestsPerGame {
		return 0, ErrInvalidQuestIndex
	}
	if sizes, ok := teamSizes[numPlayers]; ok {
		return sizes[questIndex], nil
	}
	return defaultTeamSizes[questIndex], nil
}

// RequiredFails returns how many fail votes sabotage the given quest.
// Every quest needs one fail, except the fourth quest (index 3) which
// needs two when seven or more players are seated.
func RequiredFails(numPlayers, questIndex int) (int, error) {
	if questIndex < 0 || questIndex >= QuestsPerGame {
		return 0, ErrInvalidQuestIndex
	}
	if questIndex == 3 && numPlayers >= 7 {
		return 2, nil
	}
	return 1, nil
}

// ValidPlayerCount reports whether the roster size is playable.
func ValidPlayerCount(numPlayers int) bool {
	return numPlayers >= MinPlayers && numPlayers <= MaxPlayers
}
