package models

import (
	"time"

	"gorm.io/gorm"
)

// WishlistPriority ranks how badly an item is wanted.
type WishlistPriority string

const (
	WishlistPriorityHigh   WishlistPriority = "high"
	WishlistPriorityMedium WishlistPriority = "medium"
	WishlistPriorityLow    WishlistPriority = "low"
)

// WishlistStatus tracks whether the item is still sought.
type WishlistStatus string

const (
	WishlistStatusWanted   WishlistStatus = "wanted"
	WishlistStatusAcquired WishlistStatus = "acquired"
)

// DefaultMaxPrice is stored when the owner gives no price.
const DefaultMaxPrice = "Negotiable"

// WishlistItem is an item a user wants to acquire. NameKey holds the
// lowercased name so the partial unique index enforces case-insensitive
// uniqueness per owner among live rows.
type WishlistItem struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	UserID      uint             `gorm:"not null;index;uniqueIndex:idx_wishlist_owner_name,where:deleted_at IS NULL" json:"user_id"`
	Owner       *UserSummary     `gorm:"foreignKey:UserID;-:migration" json:"owner,omitempty"`
	ItemName    string           `gorm:"size:120;not null" json:"item_name"`
	NameKey     string           `gorm:"size:120;not null;uniqueIndex:idx_wishlist_owner_name,where:deleted_at IS NULL" json:"-"`
	Description string           `gorm:"type:text" json:"description"`
	MaxPrice    string           `gorm:"size:64;not null;default:'Negotiable'" json:"max_price"`
	Priority    WishlistPriority `gorm:"type:varchar(10);not null;default:'medium'" json:"priority"`
	Status      WishlistStatus   `gorm:"type:varchar(20);not null;default:'wanted'" json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`
}

func (w *WishlistItem) OwnerID() uint         { return w.UserID }
func (w *WishlistItem) Attachments() []string { return nil }
func (w *WishlistItem) Kind() ResourceType    { return ResourceWishlistItem }
func (w *WishlistItem) ResourceID() uint      { return w.ID }
