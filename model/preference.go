package model

import "time"

// Preference stores one opaque key/value preference per account
// (dark mode and friends). Values are raw strings; the server never
// interprets them.
type Preference struct {
	AccountID int64     `gorm:"primaryKey" json:"account_id"`
	Key       string    `gorm:"primaryKey;size:64" json:"key"`
	Value     string    `gorm:"size:256" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Preference) TableName() string { return "preferences" }
