package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketplaceOrder 平台订单索引中的订单
type MarketplaceOrder struct {
	ID            string          `json:"id"`
	Marketplace   string          `json:"marketplace"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	CreatedAt     time.Time       `json:"created_at"`
	RecipientName string          `json:"recipient_name"`
}

type LinkReq struct {
	Marketplace        string `json:"marketplace" binding:"required"`
	MarketplaceOrderID string `json:"marketplace_order_id" binding:"required"`
	ErpOrderID         string `json:"erp_order_id" binding:"required"`
	Confidence         string `json:"confidence"`
	Notes              string `json:"notes"`
}

type AutoLinkReq struct {
	Marketplace *string `json:"marketplace"`
	DaysBack    int     `json:"days_back"`
}

// AmbiguousMatch 启发式匹配出现多个候选，等待人工处理
type AmbiguousMatch struct {
	ErpOrderID   string   `json:"erp_order_id"`
	Marketplace  string   `json:"marketplace"`
	CandidateIDs []string `json:"candidate_ids"`
}

// LinkError 单笔关联失败
type LinkError struct {
	ErpOrderID string `json:"erp_order_id"`
	Code       int    `json:"code"`
	Message    string `json:"message"`
}

// AutoLinkSummary 自动关联批次汇总
type AutoLinkSummary struct {
	Marketplace        string           `json:"marketplace,omitempty"`
	DaysBack           int              `json:"days_back"`
	TotalProcessed     int              `json:"total_processed"`
	TotalLinked        int              `json:"total_linked"`
	TotalAlreadyLinked int              `json:"total_already_linked"`
	TotalNotFound      int              `json:"total_not_found"`
	TotalAmbiguous     int              `json:"total_ambiguous"`
	Errors             []LinkError      `json:"errors"`
	Ambiguous          []AmbiguousMatch `json:"ambiguous"`
	StartedAt          time.Time        `json:"started_at"`
	FinishedAt         time.Time        `json:"finished_at"`
}
