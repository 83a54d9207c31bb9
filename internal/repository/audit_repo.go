package repository

import (
	"context"
	"strings"

	"bloodcare/internal/model"

	"gorm.io/gorm"
)

// AuditFilter narrows the audit trail. Empty fields match everything.
type AuditFilter struct {
	Action     string `form:"action"`
	ActorEmail string `form:"actorEmail"`
	EntityID   string `form:"entityId"` // history of a single request, issue or user
}

type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, filter AuditFilter, page, limit int) ([]model.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Log joins the caller's transaction so an entry exists only if the change it describes was committed
func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	entry.ActorEmail = strings.ToLower(strings.TrimSpace(entry.ActorEmail))
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, filter AuditFilter, page, limit int) ([]model.AuditLog, int64, error) {
	query := GetDB(ctx, r.db).Model(&model.AuditLog{})
	if filter.Action != "" {
		query = query.Where("action = ?", strings.ToUpper(strings.TrimSpace(filter.Action)))
	}
	if filter.ActorEmail != "" {
		query = query.Where("actor_email = ?", strings.ToLower(strings.TrimSpace(filter.ActorEmail)))
	}
	if filter.EntityID != "" {
		query = query.Where("entity_id = ?", strings.TrimSpace(filter.EntityID))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// id breaks ties between entries written in the same transaction
	var logs []model.AuditLog
	if err := query.Preload("User").
		Order("created_at desc").Order("id").
		Offset((page - 1) * limit).Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
