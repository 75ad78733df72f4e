package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// 事件路由键
const (
	TopicAutoLinkSummary   = "recon.autolink.summary"
	TopicIngestSummary     = "recon.ingest.summary"
	TopicToleranceMismatch = "recon.tolerance.mismatch"
	TopicAmbiguousMatch    = "recon.link.ambiguous"
	TopicStatementDraft    = "recon.statement.draft"
)

// ToleranceMismatchEvent 净额与平台结算不一致
type ToleranceMismatchEvent struct {
	ErpOrderID         string          `json:"erp_order_id"`
	Marketplace        string          `json:"marketplace"`
	MarketplaceOrderID string          `json:"marketplace_order_id"`
	Computed           decimal.Decimal `json:"computed"`
	Reported           decimal.Decimal `json:"reported"`
	Difference         decimal.Decimal `json:"difference"`
	Tolerance          decimal.Decimal `json:"tolerance"`
	DetectedAt         time.Time       `json:"detected_at"`
}
