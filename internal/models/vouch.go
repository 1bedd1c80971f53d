package models

import "time"

// Vouch is one member's rating of another after a trade.
type Vouch struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	VoucherID uint         `gorm:"not null;uniqueIndex:idx_vouch_pair" json:"voucher_id"`
	Voucher   *UserSummary `gorm:"foreignKey:VoucherID;-:migration" json:"voucher,omitempty"`
	TargetID  uint         `gorm:"not null;uniqueIndex:idx_vouch_pair;index" json:"target_id"`
	Rating    int          `gorm:"not null" json:"rating"`
	Comment   string       `gorm:"type:text" json:"comment"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
