package dao

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"marketplace-recon-api/internal/constant"
	"marketplace-recon-api/internal/dal"
	erpmodel "marketplace-recon-api/internal/model/erp"
)

// ErpOrderDao ERP 订单只读索引
type ErpOrderDao struct {
	DB *gorm.DB
}

// 工厂方法：默认使用 dal.ErpDB
func NewErpOrderDao() *ErpOrderDao {
	if dal.ErpDB == nil {
		log.Panic("[FATAL] dal.ErpDB is nil - database not initialized")
	}
	return &ErpOrderDao{DB: dal.ErpDB}
}

func NewErpOrderDaoWithDB(db *gorm.DB) *ErpOrderDao {
	return &ErpOrderDao{DB: db}
}

func (r *ErpOrderDao) Get(ctx context.Context, id string) (*erpmodel.ErpOrder, error) {
	if err := checkDB(r.DB, "ErpOrderDao"); err != nil {
		return nil, err
	}
	var m erpmodel.ErpOrder
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, constant.Wrap(constant.CodeDatabaseError, fmt.Errorf("query erp order: %w", err))
	}
	return &m, nil
}

// ListCreatedBetween 回溯窗口内的订单；渠道名称不规范，由调用方按渠道过滤
func (r *ErpOrderDao) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]erpmodel.ErpOrder, error) {
	if err := checkDB(r.DB, "ErpOrderDao"); err != nil {
		return nil, err
	}
	var out []erpmodel.ErpOrder
	err := r.DB.WithContext(ctx).
		Where("created_at >= ? AND created_at <= ?", from, to).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, constant.Wrap(constant.CodeDatabaseError, fmt.Errorf("list erp orders: %w", err))
	}
	return out, nil
}

// FindByExternalID 平台订单号反查 ERP 订单，取最早一条
func (r *ErpOrderDao) FindByExternalID(ctx context.Context, externalIDs []string) (*erpmodel.ErpOrder, error) {
	if err := checkDB(r.DB, "ErpOrderDao"); err != nil {
		return nil, err
	}
	if len(externalIDs) == 0 {
		return nil, nil
	}
	var m erpmodel.ErpOrder
	err := r.DB.WithContext(ctx).Where("external_order_id IN ?", externalIDs).Order("created_at ASC").First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, constant.Wrap(constant.CodeDatabaseError, fmt.Errorf("query erp order: %w", err))
	}
	return &m, nil
}
