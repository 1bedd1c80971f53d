package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is a user's privilege level. Banned is a terminal-until-unbanned state.
type Role string

const (
	RoleUser      Role = "user"
	RoleVerified  Role = "verified"
	RoleMiddleman Role = "middleman"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
	RoleBanned    Role = "banned"
)

// Roles lists every assignable role.
var Roles = []Role{RoleUser, RoleVerified, RoleMiddleman, RoleModerator, RoleAdmin, RoleBanned}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	for _, candidate := range Roles {
		if r == candidate {
			return true
		}
	}
	return false
}

// IsStaff reports whether r carries moderation authority.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleModerator
}

// User represents a member of the trading community.
type User struct {
	ID                    uint            `gorm:"primaryKey" json:"id"`
	Username              string          `gorm:"size:32;uniqueIndex;not null" json:"username"`
	Email                 string          `gorm:"size:255;uniqueIndex;not null" json:"email,omitempty"`
	Password              string          `gorm:"not null" json:"-"`
	Bio                   string          `gorm:"type:text" json:"bio"`
	Avatar                string          `json:"avatar"`
	Role                  Role            `gorm:"type:varchar(20);not null;default:'user';index" json:"role"`
	CredibilityScore      decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0" json:"credibility_score"`
	VouchCount            int             `gorm:"not null;default:0" json:"vouch_count"`
	IsActive              bool            `gorm:"not null;default:true" json:"is_active"`
	BannedReason          string          `gorm:"type:text" json:"banned_reason,omitempty"`
	BannedAt              *time.Time      `json:"banned_at,omitempty"`
	BannedByID            *uint           `json:"banned_by_id,omitempty"`
	VerificationRequested bool            `gorm:"not null;default:false;index" json:"verification_requested"`
	MiddlemanRequested    bool            `gorm:"not null;default:false;index" json:"middleman_requested"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// IsBanned reports whether the account carries the banned role.
func (u *User) IsBanned() bool {
	return u.Role == RoleBanned
}

// UserSummary is the public owner profile preloaded onto resources.
type UserSummary struct {
	ID               uint            `json:"id"`
	Username         string          `json:"username"`
	Avatar           string          `json:"avatar"`
	Role             Role            `json:"role"`
	CredibilityScore decimal.Decimal `json:"credibility_score"`
}

// TableName points UserSummary reads at the users table.
func (UserSummary) TableName() string {
	return "users"
}

// Session is one issued credential. A token is only honoured while its
// session row exists.
type Session struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	TokenID   string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	UserAgent string    `gorm:"size:255" json:"user_agent"`
	IP        string    `gorm:"size:64" json:"ip"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// CallerIdentity is the authenticated principal for one request.
type CallerIdentity struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}
