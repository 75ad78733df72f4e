package reconmodel

import "time"

const (
	ConfidenceExact     = "exact"
	ConfidenceHeuristic = "heuristic"
	ConfidenceManual    = "manual"
)

// OrderLink 平台订单 -> ERP 订单，(marketplace, marketplace_order_id) 唯一
type OrderLink struct {
	ID                 uint64    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Marketplace        string    `gorm:"size:32;not null;uniqueIndex:uk_order_link_mp_order,priority:1" json:"marketplace"`
	MarketplaceOrderID string    `gorm:"size:96;not null;uniqueIndex:uk_order_link_mp_order,priority:2" json:"marketplace_order_id"`
	ErpOrderID         string    `gorm:"size:64;not null;index" json:"erp_order_id"`
	Confidence         string    `gorm:"size:16;not null" json:"confidence"`
	LinkedBy           string    `gorm:"size:64" json:"linked_by"`
	Notes              string    `gorm:"size:512" json:"notes"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (OrderLink) TableName() string {
	return "order_link"
}
