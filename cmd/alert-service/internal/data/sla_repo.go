package data

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"alerthub/cmd/alert-service/internal/domain"
)

type violationRepo struct {
	db *gorm.DB
}

// NewViolationRepository 创建违约仓储
func NewViolationRepository(db *gorm.DB) domain.ViolationRepository {
	return &violationRepo{db: db}
}

func (r *violationRepo) Create(ctx context.Context, violation *domain.SLAViolation) error {
	return r.db.WithContext(ctx).Create(violation).Error
}

func (r *violationRepo) ListByTenant(ctx context.Context, tenantID string, start, end time.Time) ([]*domain.SLAViolation, error) {
	var violations []*domain.SLAViolation
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if !start.IsZero() {
		query = query.Where("detected_at >= ?", start)
	}
	if !end.IsZero() {
		query = query.Where("detected_at <= ?", end)
	}
	err := query.Order("detected_at DESC").Find(&violations).Error
	return violations, err
}

type slaStatusRepo struct {
	db *gorm.DB
}

// NewSLAStatusRepository 创建 SLA 状态快照仓储
func NewSLAStatusRepository(db *gorm.DB) domain.SLAStatusRepository {
	return &slaStatusRepo{db: db}
}

func (r *slaStatusRepo) Create(ctx context.Context, snapshot *domain.SLAStatusSnapshot) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}

func (r *slaStatusRepo) Latest(ctx context.Context, tenantID string) (*domain.SLAStatusSnapshot, error) {
	var snapshot domain.SLAStatusSnapshot
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("checked_at DESC").
		First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}
