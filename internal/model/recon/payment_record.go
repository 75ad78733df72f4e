package reconmodel

import (
	"time"

	"github.com/shopspring/decimal"

	"marketplace-recon-api/internal/dto"
)

const (
	FeeSourceReported   = "reported"
	FeeSourceCalculated = "calculated"
)

// 净额来源：明细自带或由费用明细推算
const (
	NetSourceReported   = "reported"
	NetSourceCalculated = "calculated"
)

// PaymentRecord 平台结算明细，(marketplace, marketplace_order_id) 唯一；
// 同一订单的调整/退款/提现使用带后缀的 marketplace_order_id
type PaymentRecord struct {
	ID                     uint64              `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Marketplace            string              `gorm:"size:32;not null;uniqueIndex:uk_payment_mp_order,priority:1" json:"marketplace"`
	MarketplaceOrderID     string              `gorm:"size:96;not null;uniqueIndex:uk_payment_mp_order,priority:2" json:"marketplace_order_id"`
	BaseOrderID            string              `gorm:"size:96;not null;index" json:"base_order_id"`
	TransactionType        string              `gorm:"size:64" json:"transaction_type"`
	TransactionDescription string              `gorm:"size:512" json:"transaction_description"`
	PaymentDate            time.Time           `gorm:"not null" json:"payment_date"`
	GrossAmount            decimal.Decimal     `gorm:"type:decimal(14,2);not null" json:"gross_amount"`
	NetAmount              decimal.Decimal     `gorm:"type:decimal(14,2);not null" json:"net_amount"`
	NetSource              string              `gorm:"size:16" json:"net_source"`
	ReportedSettlement     decimal.NullDecimal `gorm:"type:decimal(14,2)" json:"reported_settlement"`
	FeeBreakdown           *dto.FeeBreakdown   `gorm:"type:json;serializer:json" json:"fee_breakdown"`
	FeeSource              string              `gorm:"size:16" json:"fee_source"`
	IsExpense              bool                `gorm:"not null" json:"is_expense"`
	Skipped                bool                `gorm:"not null" json:"skipped"`
	FlaggedForReview       bool                `gorm:"not null" json:"flagged_for_review"`
	ReviewNote             string              `gorm:"size:255" json:"review_note"`
	Category               string              `gorm:"size:64" json:"category"`
	Tags                   []string            `gorm:"type:json;serializer:json" json:"tags"`
	ErpOrderID             *string             `gorm:"size:64;index" json:"erp_order_id"`
	MatchConfidence        string              `gorm:"size:16" json:"match_confidence"`
	MatchedAt              *time.Time          `json:"matched_at"`
	CreatedAt              time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PaymentRecord) TableName() string {
	return "payment_record"
}
