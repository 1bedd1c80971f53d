package models

import "time"

// MaxCommentLength bounds comment bodies.
const MaxCommentLength = 2000

// Comment is a reply attached to exactly one parent resource.
type Comment struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	ResourceType ResourceType `gorm:"type:varchar(20);not null;index:idx_comment_parent" json:"resource_type"`
	ResourceID   uint         `gorm:"not null;index:idx_comment_parent" json:"resource_id"`
	UserID       uint         `gorm:"not null;index" json:"user_id"`
	Owner        *UserSummary `gorm:"foreignKey:UserID;-:migration" json:"owner,omitempty"`
	Content      string       `gorm:"type:text;not null" json:"content"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (c *Comment) OwnerID() uint { return c.UserID }
