package reconmodel

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeePeriod 平台费率区间，只追加不删除，历史订单按当时区间复算
type FeePeriod struct {
	ID                 uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Marketplace        string          `gorm:"size:32;not null;index:idx_fee_period_mp_from,priority:1" json:"marketplace"`
	ValidFrom          time.Time       `gorm:"type:date;not null;index:idx_fee_period_mp_from,priority:2" json:"valid_from"`
	ValidTo            *time.Time      `gorm:"type:date" json:"valid_to"` // nil = 长期有效
	CommissionPercent  decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"commission_percent"`
	ServiceFeePercent  decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"service_fee_percent"`
	PaymentFeePercent  decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"payment_fee_percent"`
	FixedFeePerOrder   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"fixed_fee_per_order"`
	FixedFeePerProduct decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"fixed_fee_per_product"`
	ShippingFeePercent decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"shipping_fee_percent"`
	AdsFeePercent      decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"ads_fee_percent"`
	Notes              string          `gorm:"size:512" json:"notes"`
	CreatedBy          string          `gorm:"size:64" json:"created_by"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (FeePeriod) TableName() string {
	return "marketplace_fee_period"
}
