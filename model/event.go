package model

import (
	"time"

	"gorm.io/datatypes"
)

// GameEvent is one journal entry in a game's timeline: which engine
// operation ran, against which quest/team, with what payload.
type GameEvent struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	GameID     string         `gorm:"index:idx_event_game;size:36;not null" json:"game_id"`
	TraceID    string         `gorm:"size:36" json:"trace_id"`
	Action     string         `gorm:"size:48;not null" json:"action"`
	QuestIndex *int           `json:"quest_index,omitempty"`
	TeamIndex  *int           `json:"team_index,omitempty"`
	Detail     datatypes.JSON `json:"detail"`
	CreatedAt  time.Time      `gorm:"index:idx_event_created;autoCreateTime:milli" json:"created_at"`
}

func (GameEvent) TableName() string { return "game_events" }
