package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"marketplace-recon-api/internal/dto"
	reconmodel "marketplace-recon-api/internal/model/recon"
	"marketplace-recon-api/internal/rules"
)

// RuleAdmin 由 rules.Service 实现
type RuleAdmin interface {
	Create(ctx context.Context, req dto.RuleReq, operator string) (*reconmodel.Rule, error)
	Update(ctx context.Context, id uint64, req dto.RuleReq, operator string) (*reconmodel.Rule, error)
	Disable(ctx context.Context, id uint64, operator string) error
	List(ctx context.Context) (rules.RuleList, error)
	Process(tx dto.TransactionInput, marketplace string) rules.Result
	Test(req dto.RuleTestReq) (rules.TestResult, error)
}

type RuleHandler struct {
	svc RuleAdmin
}

func NewRuleHandler(svc RuleAdmin) *RuleHandler {
	return &RuleHandler{svc: svc}
}

func (h *RuleHandler) Create(c *gin.Context) {
	var req dto.RuleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	r, err := h.svc.Create(c.Request.Context(), req, operator(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, r)
}

func (h *RuleHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var req dto.RuleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	r, err := h.svc.Update(c.Request.Context(), id, req, operator(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, r)
}

// Disable 规则只停用不删除
func (h *RuleHandler) Disable(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.svc.Disable(c.Request.Context(), id, operator(c)); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"id": id, "enabled": false})
}

func (h *RuleHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, list)
}

// Validate 与入库前的校验使用同一个 rules.ValidateRule
func (h *RuleHandler) Validate(c *gin.Context) {
	var req dto.RuleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := rules.ValidateRule(rules.FromReq(req)); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"valid": true})
}

func (h *RuleHandler) Test(c *gin.Context) {
	var req dto.RuleTestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.svc.Test(req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, res)
}

func (h *RuleHandler) Process(c *gin.Context) {
	var req dto.RuleProcessReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ok(c, h.svc.Process(req.Transaction, req.Marketplace))
}
