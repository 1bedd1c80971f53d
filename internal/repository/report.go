package repository

import (
	"context"
	"fmt"
	"time"

	"tradehub/internal/models"

	"gorm.io/gorm"
)

// ReportFilter narrows report listings and the flagged queue.
type ReportFilter struct {
	Status      models.ReportStatus
	TargetType  models.ResourceType
	MinSeverity models.Severity
}

// ReportRepository defines persistence operations for moderation reports.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uint) (*models.Report, error)
	HasPending(ctx context.Context, reporterID uint, targetType models.ResourceType, targetID uint) (bool, error)
	List(ctx context.Context, filter ReportFilter, page models.PageRequest) ([]models.Report, int64, error)
	Flagged(ctx context.Context, filter ReportFilter, page models.PageRequest) ([]models.FlaggedTarget, int64, error)
	ListForTarget(ctx context.Context, targetType models.ResourceType, targetID uint) ([]models.Report, error)
	ListAgainstUser(ctx context.Context, userID uint, limit int) ([]models.Report, error)
	// Resolve stamps one report, and optionally every pending report on the
	// same target, with the outcome.
	Resolve(ctx context.Context, report *models.Report, status models.ReportStatus, resolverID uint, note string, sameTarget bool) error
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return translateWriteError(err, "You already reported this")
	}
	return nil
}

func (r *reportRepository) GetByID(ctx context.Context, id uint) (*models.Report, error) {
	var report models.Report
	if err := r.db.WithContext(ctx).Preload("Reporter").First(&report, id).Error; err != nil {
		return nil, translateReadError(err, "Report", id)
	}
	return &report, nil
}

func (r *reportRepository) HasPending(ctx context.Context, reporterID uint, targetType models.ResourceType, targetID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Report{}).
		Where("reporter_id = ? AND target_type = ? AND target_id = ? AND status = ?",
			reporterID, targetType, targetID, models.ReportStatusPending).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *reportRepository) filtered(ctx context.Context, filter ReportFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Report{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.TargetType != "" {
		query = query.Where("target_type = ?", filter.TargetType)
	}
	return query
}

func (r *reportRepository) List(ctx context.Context, filter ReportFilter, page models.PageRequest) ([]models.Report, int64, error) {
	page = page.Normalize()
	query := r.filtered(ctx, filter)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var reports []models.Report
	if err := query.Preload("Reporter").
		Order("created_at DESC").Order("id DESC").
		Limit(page.Limit).Offset(page.Offset()).
		Find(&reports).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return reports, total, nil
}

type flaggedRow struct {
	TargetType     models.ResourceType
	TargetID       uint
	ReportedUserID *uint
	ReportCount    int64
	LatestReportAt aggregateTime
}

// aggregateTime scans MAX(timestamp) results, which SQLite returns as text.
type aggregateTime struct {
	time.Time
}

var aggregateTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (t *aggregateTime) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into time", value)
	}
}

func (t *aggregateTime) parse(raw string) error {
	for _, layout := range aggregateTimeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized time format %q", raw)
}

// Flagged groups reports by target. Severity is derived from the count via
// models.SeverityFor; MinSeverity filters on the matching count threshold.
func (r *reportRepository) Flagged(ctx context.Context, filter ReportFilter, page models.PageRequest) ([]models.FlaggedTarget, int64, error) {
	page = page.Normalize()

	grouped := r.filtered(ctx, filter).
		Select("target_type, target_id, MAX(reported_user_id) AS reported_user_id, COUNT(*) AS report_count, MAX(created_at) AS latest_report_at").
		Group("target_type, target_id")
	if filter.MinSeverity != "" {
		grouped = grouped.Having("COUNT(*) >= ?", filter.MinSeverity.MinCount())
	}

	var total int64
	if err := r.db.WithContext(ctx).Table("(?) AS flagged", grouped.Session(&gorm.Session{})).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var rows []flaggedRow
	if err := grouped.
		Order("report_count DESC").
		Order("latest_report_at DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Scan(&rows).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	flagged := make([]models.FlaggedTarget, 0, len(rows))
	for _, row := range rows {
		flagged = append(flagged, models.FlaggedTarget{
			TargetType:     row.TargetType,
			TargetID:       row.TargetID,
			ReportedUserID: row.ReportedUserID,
			ReportCount:    row.ReportCount,
			LatestReportAt: row.LatestReportAt.Time,
			Severity:       models.SeverityFor(row.ReportCount),
		})
	}
	return flagged, total, nil
}

func (r *reportRepository) ListForTarget(ctx context.Context, targetType models.ResourceType, targetID uint) ([]models.Report, error) {
	var reports []models.Report
	if err := r.db.WithContext(ctx).Preload("Reporter").
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("created_at DESC").
		Find(&reports).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reports, nil
}

func (r *reportRepository) ListAgainstUser(ctx context.Context, userID uint, limit int) ([]models.Report, error) {
	if limit <= 0 || limit > models.MaxPageLimit {
		limit = models.DefaultPageLimit
	}
	var reports []models.Report
	if err := r.db.WithContext(ctx).Preload("Reporter").
		Where("reported_user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&reports).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reports, nil
}

func (r *reportRepository) Resolve(ctx context.Context, report *models.Report, status models.ReportStatus, resolverID uint, note string, sameTarget bool) error {
	now := time.Now().UTC()
	fields := map[string]any{
		"status":          status,
		"resolved_by_id":  resolverID,
		"resolved_at":     now,
		"resolution_note": note,
	}

	query := r.db.WithContext(ctx).Model(&models.Report{})
	if sameTarget {
		query = query.Where("id = ? OR (target_type = ? AND target_id = ? AND status = ?)",
			report.ID, report.TargetType, report.TargetID, models.ReportStatusPending)
	} else {
		query = query.Where("id = ?", report.ID)
	}
	if err := query.Updates(fields).Error; err != nil {
		return models.NewInternalError(err)
	}

	report.Status = status
	report.ResolvedByID = &resolverID
	report.ResolvedAt = &now
	report.ResolutionNote = note
	return nil
}
