// Package models defines the GORM models persisted by Marquee.
package models

import "time"

// ConversationTurn is one recorded message in a bot conversation, either a
// user event or a bot reply. Turns are append-only and ordered by sequence
// within a conversation.
type ConversationTurn struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	Conversation string `gorm:"size:64;not null;index"`
	Sequence     int    `gorm:"not null"`
	Role         string `gorm:"size:16;not null"` // "user" or "bot"
	UserName     string `gorm:"size:64"`
	Content      string `gorm:"type:text"`
	CreatedAt    time.Time
}
