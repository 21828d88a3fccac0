package data

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"alerthub/cmd/alert-service/internal/domain"
)

type alertRepo struct {
	db *gorm.DB
}

// NewAlertRepository 创建告警仓储
func NewAlertRepository(db *gorm.DB) domain.AlertRepository {
	return &alertRepo{db: db}
}

func (r *alertRepo) Create(ctx context.Context, alert *domain.Alert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *alertRepo) Update(ctx context.Context, alert *domain.Alert) error {
	return r.db.WithContext(ctx).Save(alert).Error
}

func (r *alertRepo) GetByID(ctx context.Context, id string) (*domain.Alert, error) {
	var alert domain.Alert
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&alert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrAlertNotFound
	}
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *alertRepo) ListByTenant(ctx context.Context, tenantID string, limit int) ([]*domain.Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	var alerts []*domain.Alert
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("triggered_at DESC").
		Limit(limit).
		Find(&alerts).Error
	return alerts, err
}
