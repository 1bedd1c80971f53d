package models

import "time"

// ReactionKind is the stored value of a user's reaction.
type ReactionKind string

const (
	ReactionUp   ReactionKind = "up"
	ReactionDown ReactionKind = "down"
	ReactionLike ReactionKind = "like"
)

// ReactionState is the caller's reaction after a toggle.
type ReactionState string

const (
	ReactionStateNone  ReactionState = "none"
	ReactionStateUp    ReactionState = "up"
	ReactionStateDown  ReactionState = "down"
	ReactionStateLiked ReactionState = "liked"
)

// StateFor converts a stored kind into the state reported to clients.
func StateFor(kind ReactionKind) ReactionState {
	switch kind {
	case ReactionUp:
		return ReactionStateUp
	case ReactionDown:
		return ReactionStateDown
	case ReactionLike:
		return ReactionStateLiked
	default:
		return ReactionStateNone
	}
}

// Reaction is a vote or like. At most one row exists per (resource, user).
type Reaction struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	ResourceType ResourceType `gorm:"type:varchar(20);not null;uniqueIndex:idx_reaction_target_user" json:"resource_type"`
	ResourceID   uint         `gorm:"not null;uniqueIndex:idx_reaction_target_user" json:"resource_id"`
	UserID       uint         `gorm:"not null;uniqueIndex:idx_reaction_target_user;index" json:"user_id"`
	Kind         ReactionKind `gorm:"type:varchar(8);not null" json:"kind"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// ReactionSummary is the aggregate returned after every toggle and on reads.
type ReactionSummary struct {
	Up    int64         `json:"up"`
	Down  int64         `json:"down"`
	Likes int64         `json:"likes"`
	Score int64         `json:"score"`
	State ReactionState `json:"state,omitempty"`
}
