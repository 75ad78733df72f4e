package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"marketplace-recon-api/internal/dto"
	reconmodel "marketplace-recon-api/internal/model/recon"
)

// OrderLinker 由 linker.Service 实现
type OrderLinker interface {
	Link(ctx context.Context, req dto.LinkReq, linkedBy string) (*reconmodel.OrderLink, error)
	Unlink(ctx context.Context, linkID uint64, operator string) error
	AutoLink(ctx context.Context, marketplace *string, daysBack int) (dto.AutoLinkSummary, error)
}

type LinkHandler struct {
	svc OrderLinker
}

func NewLinkHandler(svc OrderLinker) *LinkHandler {
	return &LinkHandler{svc: svc}
}

func (h *LinkHandler) Link(c *gin.Context) {
	var req dto.LinkReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	l, err := h.svc.Link(c.Request.Context(), req, operator(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, l)
}

func (h *LinkHandler) Unlink(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.svc.Unlink(c.Request.Context(), id, operator(c)); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"id": id})
}

// AutoLink 同步执行并返回批次汇总
func (h *LinkHandler) AutoLink(c *gin.Context) {
	var req dto.AutoLinkReq
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	sum, err := h.svc.AutoLink(c.Request.Context(), req.Marketplace, req.DaysBack)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, sum)
}
