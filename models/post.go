package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post holds the raw markdown source of an article. Sanitized HTML is
// derived at read time and never persisted.
type Post struct {
	ID         string     `gorm:"type:char(36);primaryKey" json:"id"`
	Title      string     `gorm:"size:255;not null" json:"title"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	AuthorID   string     `gorm:"type:char(36);index;not null" json:"author_id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Author     User       `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Categories []Category `gorm:"many2many:post_categories;" json:"categories"`
	Comments   []Comment  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"comments,omitempty"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
