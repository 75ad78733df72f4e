package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// 同一订单上独立经济事件的类型
const (
	EventKindSale       = ""
	EventKindAdjustment = "ajuste"
	EventKindRefund     = "reembolso"
	EventKindWithdrawal = "retirada"
)

// PaymentDraft 标准化后的结算明细，厂商格式解析不在本服务内
type PaymentDraft struct {
	Marketplace            string           `json:"marketplace"`
	MarketplaceOrderID     string           `json:"marketplace_order_id"`
	EventKind              string           `json:"event_kind"`
	Date                   time.Time        `json:"date"`
	GrossAmount            decimal.Decimal  `json:"gross_amount"`
	NetAmount              decimal.Decimal  `json:"net_amount"`
	TransactionType        string           `json:"transaction_type"`
	TransactionDescription string           `json:"transaction_description"`
	ErpOrderID             *string          `json:"erp_order_id,omitempty"`
	ProductCount           int              `json:"product_count"`
	IsKit                  bool             `json:"is_kit"`
	Fees                   *FeeBreakdown    `json:"fees,omitempty"` // 平台已报告的费用
	FeeFlags               FeeFlags         `json:"fee_flags"`
	Overrides              *FeeOverrides    `json:"overrides,omitempty"`
	ReportedSettlement     *decimal.Decimal `json:"reported_settlement,omitempty"`
}

// IngestError 单笔导入失败
type IngestError struct {
	Marketplace        string `json:"marketplace"`
	MarketplaceOrderID string `json:"marketplace_order_id"`
	Code               int    `json:"code"`
	Message            string `json:"message"`
}

// BatchSummary 导入批次汇总
type BatchSummary struct {
	Processed  int           `json:"processed"`
	Inserted   int           `json:"inserted"`
	Updated    int           `json:"updated"`
	Linked     int           `json:"linked"`
	Skipped    int           `json:"skipped"`
	Mismatches int           `json:"mismatches"`
	Errors     []IngestError `json:"errors"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// NetPosition ERP 订单净额
type NetPosition struct {
	ErpOrderID string          `json:"erp_order_id"`
	Net        decimal.Decimal `json:"net"`
	Records    int             `json:"records"`
}
