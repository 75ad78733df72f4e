package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"marketplace-recon-api/internal/dto"
	"marketplace-recon-api/internal/ledger"
)

// Ledger 由 ledger.Service 实现
type Ledger interface {
	IngestBatch(ctx context.Context, src ledger.StatementSource) (dto.BatchSummary, error)
	NetPosition(ctx context.Context, erpOrderID string) (dto.NetPosition, error)
}

type LedgerHandler struct {
	svc Ledger
}

func NewLedgerHandler(svc Ledger) *LedgerHandler {
	return &LedgerHandler{svc: svc}
}

// Ingest 请求体为标准化结算明细数组，单笔失败见 data.errors
func (h *LedgerHandler) Ingest(c *gin.Context) {
	var drafts []dto.PaymentDraft
	if err := c.ShouldBindJSON(&drafts); err != nil {
		badRequest(c, err)
		return
	}
	sum, err := h.svc.IngestBatch(c.Request.Context(), ledger.NewSliceSource(drafts))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, sum)
}

func (h *LedgerHandler) NetPosition(c *gin.Context) {
	pos, err := h.svc.NetPosition(c.Request.Context(), c.Param("erpOrderId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, pos)
}
