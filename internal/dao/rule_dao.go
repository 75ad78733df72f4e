package dao

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"marketplace-recon-api/internal/constant"
	"marketplace-recon-api/internal/dal"
	reconmodel "marketplace-recon-api/internal/model/recon"
)

type RuleDao struct {
	DB *gorm.DB
}

func NewRuleDao() *RuleDao {
	if dal.ReconDB == nil {
		log.Panic("[FATAL] dal.ReconDB is nil - database not initialized")
	}
	return &RuleDao{DB: dal.ReconDB}
}

func NewRuleDaoWithDB(db *gorm.DB) *RuleDao {
	return &RuleDao{DB: db}
}

func (r *RuleDao) ListEnabled(ctx context.Context) ([]reconmodel.Rule, error) {
	if err := checkDB(r.DB, "RuleDao"); err != nil {
		return nil, err
	}
	var out []reconmodel.Rule
	if err := r.DB.WithContext(ctx).Where("enabled = ?", true).Order("priority DESC, id ASC").Find(&out).Error; err != nil {
		return nil, constant.Wrap(constant.CodeDatabaseError, fmt.Errorf("list rules: %w", err))
	}
	return out, nil
}

func (r *RuleDao) List(ctx context.Context) ([]reconmodel.Rule, error) {
	if err := checkDB(r.DB, "RuleDao"); err != nil {
		return nil, err
	}
	var out []reconmodel.Rule
	if err := r.DB.WithContext(ctx).Order("priority DESC, id ASC").Find(&out).Error; err != nil {
		return nil, constant.Wrap(constant.CodeDatabaseError, fmt.Errorf("list rules: %w", err))
	}
	return out, nil
}

func (r *RuleDao) GetByID(ctx context.Context, id uint64) (*reconmodel.Rule, error) {
	if err := checkDB(r.DB, "RuleDao"); err != nil {
		return nil, err
	}
	var m reconmodel.Rule
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, constant.Wrap(constant.CodeDatabaseError, fmt.Errorf("query failed: %w", err))
	}
	return &m, nil
}

func (r *RuleDao) Create(ctx context.Context, m *reconmodel.Rule) error {
	if err := checkDB(r.DB, "RuleDao"); err != nil {
		return err
	}
	if err := r.DB.WithContext(ctx).Create(m).Error; err != nil {
		return constant.Wrap(constant.CodeDatabaseError, fmt.Errorf("insert rule: %w", err))
	}
	return nil
}

// Save 整行保存（含 false/空值字段）
func (r *RuleDao) Save(ctx context.Context, m *reconmodel.Rule) error {
	if err := checkDB(r.DB, "RuleDao"); err != nil {
		return err
	}
	if err := r.DB.WithContext(ctx).Save(m).Error; err != nil {
		return constant.Wrap(constant.CodeDatabaseError, fmt.Errorf("save rule: %w", err))
	}
	return nil
}
