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

type OrderLinkDao struct {
	DB *gorm.DB
}

func NewOrderLinkDao() *OrderLinkDao {
	if dal.ReconDB == nil {
		log.Panic("[FATAL] dal.ReconDB is nil - database not initialized")
	}
	return &OrderLinkDao{DB: dal.ReconDB}
}

func NewOrderLinkDaoWithDB(db *gorm.DB) *OrderLinkDao {
	return &OrderLinkDao{DB: db}
}

// GetByMarketplaceOrder 不存在返回 nil, nil
func (r *OrderLinkDao) GetByMarketplaceOrder(ctx context.Context, marketplace, mpOrderID string) (*reconmodel.OrderLink, error) {
	if err := checkDB(r.DB, "OrderLinkDao"); err != nil {
		return nil, err
	}
	var m reconmodel.OrderLink
	err := r.DB.WithContext(ctx).
		Where("marketplace = ? AND marketplace_order_id = ?", marketplace, mpOrderID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, constant.Wrap(constant.CodeDatabaseError, fmt.Errorf("query link: %w", err))
	}
	return &m, nil
}

// ListByErpOrder 一个 ERP 订单可对应多条关联（分笔支付、退款）
func (r *OrderLinkDao) ListByErpOrder(ctx context.Context, erpOrderID string) ([]reconmodel.OrderLink, error) {
	if err := checkDB(r.DB, "OrderLinkDao"); err != nil {
		return nil, err
	}
	var out []reconmodel.OrderLink
	if err := r.DB.WithContext(ctx).Where("erp_order_id = ?", erpOrderID).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, constant.Wrap(constant.CodeDatabaseError, fmt.Errorf("list links: %w", err))
	}
	return out, nil
}

// Create 唯一键冲突映射为 ErrLinkConflict，已有关联不会被覆盖
func (r *OrderLinkDao) Create(ctx context.Context, m *reconmodel.OrderLink) error {
	if err := checkDB(r.DB, "OrderLinkDao"); err != nil {
		return err
	}
	err := r.DB.WithContext(ctx).Create(m).Error
	if IsDuplicateKey(err) {
		return constant.Errorf(constant.CodeLinkConflict, "%s/%s 已关联", m.Marketplace, m.MarketplaceOrderID)
	}
	if err != nil {
		return constant.Wrap(constant.CodeDatabaseError, fmt.Errorf("insert link: %w", err))
	}
	return nil
}

// Delete 只删除关联本身，不触碰订单与结算记录
func (r *OrderLinkDao) Delete(ctx context.Context, id uint64) error {
	if err := checkDB(r.DB, "OrderLinkDao"); err != nil {
		return err
	}
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&reconmodel.OrderLink{})
	if res.Error != nil {
		return constant.Wrap(constant.CodeDatabaseError, fmt.Errorf("delete link: %w", res.Error))
	}
	if res.RowsAffected == 0 {
		return constant.NewError(constant.CodeLinkNotFound)
	}
	return nil
}
