package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ForumCategory groups forum threads.
type ForumCategory string

const (
	ForumCategoryGeneral  ForumCategory = "general"
	ForumCategoryTrading  ForumCategory = "trading"
	ForumCategoryNews     ForumCategory = "news"
	ForumCategoryHelp     ForumCategory = "help"
	ForumCategoryOffTopic ForumCategory = "off-topic"
)

// ForumStatus controls whether a thread accepts replies.
type ForumStatus string

const (
	ForumStatusOpen   ForumStatus = "open"
	ForumStatusLocked ForumStatus = "locked"
)

// ForumPost is a discussion thread.
type ForumPost struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	UserID        uint                        `gorm:"not null;index" json:"user_id"`
	Owner         *UserSummary                `gorm:"foreignKey:UserID;-:migration" json:"owner,omitempty"`
	Title         string                      `gorm:"size:200;not null" json:"title"`
	Content       string                      `gorm:"type:text;not null" json:"content"`
	Category      ForumCategory               `gorm:"type:varchar(32);not null;default:'general';index" json:"category"`
	Status        ForumStatus                 `gorm:"type:varchar(20);not null;default:'open'" json:"status"`
	Pinned        bool                        `gorm:"not null;default:false;index" json:"pinned"`
	Images        datatypes.JSONSlice[string] `json:"images"`
	Reactions     ReactionSummary             `gorm:"-" json:"reactions"`
	CommentsCount int64                       `gorm:"-" json:"comments_count"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
	DeletedAt     gorm.DeletedAt              `gorm:"index" json:"-"`
}

// TableName keeps forum threads apart from any future blog posts.
func (ForumPost) TableName() string {
	return "forum_posts"
}

func (p *ForumPost) OwnerID() uint         { return p.UserID }
func (p *ForumPost) Attachments() []string { return p.Images }
func (p *ForumPost) Kind() ResourceType    { return ResourceForumPost }
func (p *ForumPost) ResourceID() uint      { return p.ID }

// SetEngagement attaches the reaction summary and comment count for responses.
func (p *ForumPost) SetEngagement(reactions ReactionSummary, comments int64) {
	p.Reactions = reactions
	p.CommentsCount = comments
}

// IsLocked reports whether new comments are rejected.
func (p *ForumPost) IsLocked() bool {
	return p.Status == ForumStatusLocked
}
