package model

import (
	"time"

	"gorm.io/datatypes"
)

// GameRecord is the stored form of a tracked game. The full aggregate
// (players, quests, teams, votes) round-trips through the Snapshot JSON
// column; the remaining columns exist so games can be queried without
// decoding snapshots.
type GameRecord struct {
	ID         string         `gorm:"primaryKey;size:36" json:"id"`
	Name       string         `gorm:"size:64;not null" json:"name"`
	NumPlayers int            `gorm:"not null" json:"num_players"`
	Status     string         `gorm:"index:idx_game_status;size:24;not null" json:"status"`
	Result     string         `gorm:"size:40" json:"result,omitempty"`
	Snapshot   datatypes.JSON `json:"snapshot"`
	StartedAt  time.Time      `gorm:"not null" json:"started_at"`
	FinishedAt *time.Time     `gorm:"index:idx_game_finished" json:"finished_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (GameRecord) TableName() string { return "games" }
