package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EventType classifies community events.
type EventType string

const (
	EventTypeGiveaway   EventType = "giveaway"
	EventTypeTournament EventType = "tournament"
	EventTypeTradeFair  EventType = "trade-fair"
	EventTypeCommunity  EventType = "community"
)

// EventStatus tracks an event's schedule state.
type EventStatus string

const (
	EventStatusUpcoming  EventStatus = "upcoming"
	EventStatusActive    EventStatus = "active"
	EventStatusEnded     EventStatus = "ended"
	EventStatusCancelled EventStatus = "cancelled"
)

// Event is a giveaway, tournament or other scheduled community happening.
type Event struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	UserID        uint                        `gorm:"not null;index" json:"user_id"`
	Owner         *UserSummary                `gorm:"foreignKey:UserID;-:migration" json:"owner,omitempty"`
	Title         string                      `gorm:"size:200;not null" json:"title"`
	Description   string                      `gorm:"type:text" json:"description"`
	EventType     EventType                   `gorm:"type:varchar(20);not null;index" json:"event_type"`
	Prize         string                      `gorm:"size:200" json:"prize"`
	StartsAt      time.Time                   `gorm:"not null;index" json:"starts_at"`
	EndsAt        *time.Time                  `json:"ends_at,omitempty"`
	Status        EventStatus                 `gorm:"type:varchar(20);not null;default:'upcoming';index" json:"status"`
	Images        datatypes.JSONSlice[string] `json:"images"`
	Reactions     ReactionSummary             `gorm:"-" json:"reactions"`
	CommentsCount int64                       `gorm:"-" json:"comments_count"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
	DeletedAt     gorm.DeletedAt              `gorm:"index" json:"-"`
}

func (e *Event) OwnerID() uint         { return e.UserID }
func (e *Event) Attachments() []string { return e.Images }
func (e *Event) Kind() ResourceType    { return ResourceEvent }
func (e *Event) ResourceID() uint      { return e.ID }

// SetEngagement attaches the reaction summary and comment count for responses.
func (e *Event) SetEngagement(reactions ReactionSummary, comments int64) {
	e.Reactions = reactions
	e.CommentsCount = comments
}
