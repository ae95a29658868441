package model

import "time"

// Account is one signed-in device/user of the tracker.
type Account struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:32;not null" json:"username"`
	PasswordHash string     `gorm:"size:64;not null" json:"-"`
	Status       int        `gorm:"default:1" json:"status"` // 0=disabled 1=normal
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	LastLoginIP  string     `gorm:"size:45" json:"last_login_ip"`
}
