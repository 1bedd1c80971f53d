package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TradeCategory groups trade listings.
type TradeCategory string

const (
	TradeCategoryLimiteds    TradeCategory = "limiteds"
	TradeCategoryAccessories TradeCategory = "accessories"
	TradeCategoryGear        TradeCategory = "gear"
	TradeCategoryEventItems  TradeCategory = "event-items"
	TradeCategoryGamepasses  TradeCategory = "gamepasses"
)

// TradeStatus tracks a trade through negotiation.
type TradeStatus string

const (
	TradeStatusOpen      TradeStatus = "open"
	TradeStatusPending   TradeStatus = "pending"
	TradeStatusCompleted TradeStatus = "completed"
	TradeStatusCancelled TradeStatus = "cancelled"
)

// Trade is a listing offering one item in exchange for another.
type Trade struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	UserID        uint                        `gorm:"not null;index" json:"user_id"`
	Owner         *UserSummary                `gorm:"foreignKey:UserID;-:migration" json:"owner,omitempty"`
	ItemOffered   string                      `gorm:"size:200;not null" json:"item_offered"`
	ItemRequested string                      `gorm:"size:200" json:"item_requested"`
	Description   string                      `gorm:"type:text" json:"description"`
	Category      TradeCategory               `gorm:"type:varchar(32);not null;index" json:"category"`
	Status        TradeStatus                 `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	Images        datatypes.JSONSlice[string] `json:"images"`
	Reactions     ReactionSummary             `gorm:"-" json:"reactions"`
	CommentsCount int64                       `gorm:"-" json:"comments_count"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
	DeletedAt     gorm.DeletedAt              `gorm:"index" json:"-"`
}

func (t *Trade) OwnerID() uint         { return t.UserID }
func (t *Trade) Attachments() []string { return t.Images }
func (t *Trade) Kind() ResourceType    { return ResourceTrade }
func (t *Trade) ResourceID() uint      { return t.ID }

// SetEngagement attaches the reaction summary and comment count for responses.
func (t *Trade) SetEngagement(reactions ReactionSummary, comments int64) {
	t.Reactions = reactions
	t.CommentsCount = comments
}
