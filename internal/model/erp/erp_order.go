package erpmodel

import (
	"time"

	"github.com/shopspring/decimal"
)

// ErpOrder ERP 销售订单（只读）
type ErpOrder struct {
	ID              string          `gorm:"column:id;primaryKey" json:"id"`
	ExternalOrderID *string         `gorm:"column:external_order_id" json:"external_order_id"`
	TotalValue      decimal.Decimal `gorm:"column:total_value;type:decimal(14,2)" json:"total_value"`
	Channel         string          `gorm:"column:channel" json:"channel"`
	ProductCount    int             `gorm:"column:product_count" json:"product_count"`
	CreatedAt       time.Time       `gorm:"column:created_at" json:"created_at"`
}

func (ErpOrder) TableName() string {
	return "erp_order"
}
