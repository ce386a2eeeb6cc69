package models

import "time"

// RefreshToken is a long-lived, single-use credential tied to a user.
// A token is valid only while a row exists and ExpiresAt is in the future;
// every successful refresh replaces the row (rotation), and logout deletes
// all rows belonging to the user.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Token     string    `gorm:"size:64;not null;uniqueIndex" json:"-"`
	UserID    string    `gorm:"type:char(36);index;not null" json:"-"`
	ExpiresAt time.Time `gorm:"index;not null" json:"-"`
	CreatedAt time.Time `json:"-"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
