package repository

import (
	"context"

	"github.com/teblo/teblo/internal/audit/domain"
	"github.com/teblo/teblo/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *domain.AuditLog) error
	List(ctx context.Context, db *gorm.DB, userID string, req domain.ListAuditLogRequest) ([]*domain.AuditLog, error)
}

type repo struct{}

func Provide() Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.AuditLog) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, userID string, req domain.ListAuditLogRequest) ([]*domain.AuditLog, error) {
	var entries []*domain.AuditLog
	stmt := db.WithContext(ctx).
		Model(&domain.AuditLog{}).
		Where("user_id = ?", userID)
	if req.Action != "" {
		stmt = stmt.Where("action = ?", req.Action)
	}
	if req.TargetType != "" {
		stmt = stmt.Where("target_type = ?", req.TargetType)
	}
	if req.TargetID != "" {
		stmt = stmt.Where("target_id = ?", req.TargetID)
	}
	if req.StartAt != nil {
		stmt = stmt.Where("created_at >= ?", *req.StartAt)
	}
	if req.EndAt != nil {
		stmt = stmt.Where("created_at <= ?", *req.EndAt)
	}
	if req.PageToken != "" {
		cursor, err := pagination.DecodeTypedCursor(req.PageToken)
		if err != nil {
			return nil, domain.ErrInvalidPageToken
		}
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	if req.PageSize > 0 {
		stmt = stmt.Limit(req.PageSize + 1)
	}
	err := stmt.
		Order("created_at desc, id desc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
