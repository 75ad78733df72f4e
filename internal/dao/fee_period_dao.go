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

type FeePeriodDao struct {
	DB *gorm.DB
}

// 工厂方法：默认使用 dal.ReconDB
func NewFeePeriodDao() *FeePeriodDao {
	if dal.ReconDB == nil {
		log.Panic("[FATAL] dal.ReconDB is nil - database not initialized")
	}
	return &FeePeriodDao{DB: dal.ReconDB}
}

func NewFeePeriodDaoWithDB(db *gorm.DB) *FeePeriodDao {
	return &FeePeriodDao{DB: db}
}

// ListByMarketplace 按 valid_from 倒序返回全部区间
func (r *FeePeriodDao) ListByMarketplace(ctx context.Context, marketplace string) ([]reconmodel.FeePeriod, error) {
	if err := checkDB(r.DB, "FeePeriodDao"); err != nil {
		return nil, err
	}
	var out []reconmodel.FeePeriod
	err := r.DB.WithContext(ctx).
		Where("marketplace = ?", marketplace).
		Order("valid_from DESC, id DESC").
		Find(&out).Error
	if err != nil {
		return nil, constant.Wrap(constant.CodeDatabaseError, fmt.Errorf("list fee periods: %w", err))
	}
	return out, nil
}

func (r *FeePeriodDao) GetByID(ctx context.Context, id uint64) (*reconmodel.FeePeriod, error) {
	if err := checkDB(r.DB, "FeePeriodDao"); err != nil {
		return nil, err
	}
	var p reconmodel.FeePeriod
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, constant.Wrap(constant.CodeDatabaseError, fmt.Errorf("query failed: %w", err))
	}
	return &p, nil
}

func (r *FeePeriodDao) Create(ctx context.Context, p *reconmodel.FeePeriod) error {
	if err := checkDB(r.DB, "FeePeriodDao"); err != nil {
		return err
	}
	if err := r.DB.WithContext(ctx).Create(p).Error; err != nil {
		return constant.Wrap(constant.CodeDatabaseError, fmt.Errorf("insert fee period: %w", err))
	}
	return nil
}

// Update 按主键整行更新（marketplace 不允许修改，由调用方保证）
func (r *FeePeriodDao) Update(ctx context.Context, p *reconmodel.FeePeriod) error {
	if err := checkDB(r.DB, "FeePeriodDao"); err != nil {
		return err
	}
	res := r.DB.WithContext(ctx).Model(&reconmodel.FeePeriod{}).Where("id = ?", p.ID).
		Select("valid_from", "valid_to", "commission_percent", "service_fee_percent", "payment_fee_percent",
			"fixed_fee_per_order", "fixed_fee_per_product", "shipping_fee_percent", "ads_fee_percent", "notes").
		Updates(p)
	if res.Error != nil {
		return constant.Wrap(constant.CodeDatabaseError, fmt.Errorf("update fee period: %w", res.Error))
	}
	if res.RowsAffected == 0 {
		return constant.NewError(constant.CodeFeePeriodNotFound)
	}
	return nil
}
