package models

import "time"

// ReportReason classifies why content was reported.
type ReportReason string

const (
	ReportReasonSpam          ReportReason = "spam"
	ReportReasonScam          ReportReason = "scam"
	ReportReasonHarassment    ReportReason = "harassment"
	ReportReasonInappropriate ReportReason = "inappropriate"
	ReportReasonOther         ReportReason = "other"
)

// ReportStatus tracks moderator review.
type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "pending"
	ReportStatusReviewed ReportStatus = "reviewed"
	ReportStatusResolved ReportStatus = "resolved"
)

// Report is one user's complaint about a target.
type Report struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	ReporterID     uint         `gorm:"not null;index" json:"reporter_id"`
	Reporter       *UserSummary `gorm:"foreignKey:ReporterID;-:migration" json:"reporter,omitempty"`
	TargetType     ResourceType `gorm:"type:varchar(20);not null;index:idx_report_target" json:"target_type"`
	TargetID       uint         `gorm:"not null;index:idx_report_target" json:"target_id"`
	ReportedUserID *uint        `gorm:"index" json:"reported_user_id,omitempty"`
	Reason         ReportReason `gorm:"type:varchar(20);not null" json:"reason"`
	Details        string       `gorm:"type:text" json:"details"`
	Status         ReportStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ResolvedByID   *uint        `json:"resolved_by_id,omitempty"`
	ResolvedAt     *time.Time   `json:"resolved_at,omitempty"`
	ResolutionNote string       `gorm:"type:text" json:"resolution_note,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Severity is derived from the number of reports against one target.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

const (
	severityHighThreshold   = 5
	severityMediumThreshold = 3
)

// SeverityFor is the only place report counts are turned into severity.
func SeverityFor(count int64) Severity {
	switch {
	case count >= severityHighThreshold:
		return SeverityHigh
	case count >= severityMediumThreshold:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Rank orders severities so filters can ask for "at least".
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// MinCount is the smallest report count that yields s.
func (s Severity) MinCount() int64 {
	switch s {
	case SeverityHigh:
		return severityHighThreshold
	case SeverityMedium:
		return severityMediumThreshold
	default:
		return 1
	}
}

// FlaggedTarget is one row of the moderation queue.
type FlaggedTarget struct {
	TargetType     ResourceType `json:"target_type"`
	TargetID       uint         `json:"target_id"`
	ReportedUserID *uint        `json:"reported_user_id,omitempty"`
	ReportCount    int64        `json:"report_count"`
	LatestReportAt time.Time    `json:"latest_report_at"`
	Severity       Severity     `json:"severity"`
}
