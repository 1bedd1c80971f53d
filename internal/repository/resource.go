package repository

import (
	"context"
	"strings"

	"tradehub/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sort orders accepted by resource listings.
const (
	SortNew = "new"
	SortOld = "old"
	SortTop = "top"
)

// ResourceFilter narrows a resource listing. Empty fields are ignored.
type ResourceFilter struct {
	OwnerID   uint
	Category  string
	Status    string
	Priority  string
	EventType string
	Search    string
	Sort      string
}

// resourceStore holds the query plumbing shared by every owned resource kind.
type resourceStore[T any] struct {
	db           *gorm.DB
	kind         models.ResourceType
	table        string
	searchFields []string
	filterFields []filterField
	pinnedFirst  bool
}

// filterField maps a column to the ResourceFilter value that constrains it.
type filterField struct {
	column string
	value  func(ResourceFilter) string
}

func (s *resourceStore[T]) create(ctx context.Context, item *T, conflictMessage string) error {
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return translateWriteError(err, conflictMessage)
	}
	return s.db.WithContext(ctx).Preload("Owner").First(item).Error
}

func (s *resourceStore[T]) getByID(ctx context.Context, id uint) (*T, error) {
	var item T
	if err := s.db.WithContext(ctx).Preload("Owner").First(&item, id).Error; err != nil {
		return nil, translateReadError(err, s.kind.Label(), id)
	}
	return &item, nil
}

func (s *resourceStore[T]) list(ctx context.Context, filter ResourceFilter, page models.PageRequest) ([]*T, int64, error) {
	page = page.Normalize()

	query := s.db.WithContext(ctx).Model(new(T))
	if filter.OwnerID != 0 {
		query = query.Where(s.table+".user_id = ?", filter.OwnerID)
	}
	for _, field := range s.filterFields {
		if v := field.value(filter); v != "" {
			query = query.Where(s.table+"."+field.column+" = ?", v)
		}
	}
	if term := strings.TrimSpace(filter.Search); term != "" && len(s.searchFields) > 0 {
		like := "%" + strings.ToLower(term) + "%"
		conditions := make([]string, 0, len(s.searchFields))
		args := make([]any, 0, len(s.searchFields))
		for _, field := range s.searchFields {
			conditions = append(conditions, "LOWER("+s.table+"."+field+") LIKE ?")
			args = append(args, like)
		}
		query = query.Where(strings.Join(conditions, " OR "), args...)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var items []*T
	err := s.applySort(query, filter.Sort).
		Preload("Owner").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&items).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return items, total, nil
}

// applySort appends the ORDER BY clause for the requested sort type.
func (s *resourceStore[T]) applySort(db *gorm.DB, sort string) *gorm.DB {
	if sort == SortTop {
		// An expression replaces every other ORDER BY column, so pinning is
		// folded into the same expression.
		prefix := ""
		if s.pinnedFirst {
			prefix = s.table + ".pinned DESC, "
		}
		return db.Order(clause.OrderBy{Expression: clause.Expr{
			SQL: prefix + "(SELECT COALESCE(SUM(CASE reactions.kind WHEN 'down' THEN -1 ELSE 1 END), 0) " +
				"FROM reactions WHERE reactions.resource_type = ? AND reactions.resource_id = " + s.table + ".id) DESC, " +
				s.table + ".created_at DESC",
			Vars:               []any{string(s.kind)},
			WithoutParentheses: true,
		}})
	}
	if s.pinnedFirst {
		db = db.Order(s.table + ".pinned DESC")
	}
	if sort == SortOld {
		return db.Order(s.table + ".created_at ASC").Order(s.table + ".id ASC")
	}
	return db.Order(s.table + ".created_at DESC").Order(s.table + ".id DESC")
}

// updateFields writes only the given columns; ownership columns are never touched.
func (s *resourceStore[T]) updateFields(ctx context.Context, id uint, fields map[string]any, conflictMessage string) (*T, error) {
	delete(fields, "user_id")
	delete(fields, "id")
	if len(fields) > 0 {
		result := s.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(fields)
		if result.Error != nil {
			return nil, translateWriteError(result.Error, conflictMessage)
		}
		if result.RowsAffected == 0 {
			return nil, models.NewNotFoundError(s.kind.Label(), id)
		}
	}
	return s.getByID(ctx, id)
}
