package data

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"alerthub/cmd/alert-service/internal/domain"
)

type ruleRepo struct {
	db *gorm.DB
}

// NewRuleRepository 创建规则仓储
func NewRuleRepository(db *gorm.DB) domain.RuleRepository {
	return &ruleRepo{db: db}
}

func (r *ruleRepo) Create(ctx context.Context, rule *domain.AlertRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *ruleRepo) Update(ctx context.Context, rule *domain.AlertRule) error {
	return r.db.WithContext(ctx).Save(rule).Error
}

func (r *ruleRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.AlertRule{}, "id = ?", id).Error
}

func (r *ruleRepo) GetByID(ctx context.Context, id string) (*domain.AlertRule, error) {
	var rule domain.AlertRule
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrRuleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *ruleRepo) ListByTenant(ctx context.Context, tenantID string) ([]*domain.AlertRule, error) {
	var rules []*domain.AlertRule
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&rules).Error
	return rules, err
}

func (r *ruleRepo) ListAll(ctx context.Context) ([]*domain.AlertRule, error) {
	var rules []*domain.AlertRule
	err := r.db.WithContext(ctx).Find(&rules).Error
	return rules, err
}
