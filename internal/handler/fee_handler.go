package handler

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"marketplace-recon-api/internal/dto"
	"marketplace-recon-api/internal/fee"
	reconmodel "marketplace-recon-api/internal/model/recon"
	"marketplace-recon-api/internal/utils/timeutil"
)

// FeeAdmin 由 fee.Resolver 实现
type FeeAdmin interface {
	Resolve(ctx context.Context, marketplace string, date time.Time) (dto.FeeConfig, error)
	ListPeriods(ctx context.Context, marketplace string) ([]reconmodel.FeePeriod, error)
	CreatePeriod(ctx context.Context, req dto.FeePeriodReq, operator string) (*reconmodel.FeePeriod, error)
	UpdatePeriod(ctx context.Context, id uint64, req dto.FeePeriodReq, operator string) (*reconmodel.FeePeriod, error)
}

type FeeCalculator interface {
	Calculate(ctx context.Context, in dto.FeeInput) (dto.FeeBreakdown, error)
}

// SettingsAdmin 由 system.ConfigSystem 实现
type SettingsAdmin interface {
	MarketplaceSettings(ctx context.Context, marketplace string) (*dto.MarketplaceSettings, error)
	SaveMarketplaceSettings(ctx context.Context, marketplace string, settings dto.MarketplaceSettings, operator string) error
}

type FeeHandler struct {
	periods  FeeAdmin
	calc     FeeCalculator
	settings SettingsAdmin
}

func NewFeeHandler(periods FeeAdmin, calc FeeCalculator, settings SettingsAdmin) *FeeHandler {
	return &FeeHandler{periods: periods, calc: calc, settings: settings}
}

func (h *FeeHandler) CreatePeriod(c *gin.Context) {
	var req dto.FeePeriodReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.periods.CreatePeriod(c.Request.Context(), req, operator(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, p)
}

func (h *FeeHandler) UpdatePeriod(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var req dto.FeePeriodReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.periods.UpdatePeriod(c.Request.Context(), id, req, operator(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, p)
}

func (h *FeeHandler) ListPeriods(c *gin.Context) {
	list, err := h.periods.ListPeriods(c.Request.Context(), c.Query("marketplace"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, list)
}

// Resolve date 缺省为业务时区当天
func (h *FeeHandler) Resolve(c *gin.Context) {
	date := time.Now().In(timeutil.Location())
	if s := strings.TrimSpace(c.Query("date")); s != "" {
		d, err := timeutil.ParseDate(s)
		if err != nil {
			badRequest(c, err)
			return
		}
		date = d
	}
	cfg, err := h.periods.Resolve(c.Request.Context(), c.Query("marketplace"), date)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, cfg)
}

func (h *FeeHandler) Calculate(c *gin.Context) {
	var in dto.FeeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	if in.OrderDate.IsZero() {
		in.OrderDate = time.Now()
	}
	out, err := h.calc.Calculate(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, out)
}

// GetSettings 未配置时返回内置默认值
func (h *FeeHandler) GetSettings(c *gin.Context) {
	mp := fee.NormalizeMarketplace(c.Param("marketplace"))
	s, err := h.settings.MarketplaceSettings(c.Request.Context(), mp)
	if err != nil {
		fail(c, err)
		return
	}
	if s == nil {
		d := fee.DefaultSettings(mp)
		s = &d
	}
	ok(c, s)
}

func (h *FeeHandler) SaveSettings(c *gin.Context) {
	var s dto.MarketplaceSettings
	if err := c.ShouldBindJSON(&s); err != nil {
		badRequest(c, err)
		return
	}
	mp := fee.NormalizeMarketplace(c.Param("marketplace"))
	if err := h.settings.SaveMarketplaceSettings(c.Request.Context(), mp, s, operator(c)); err != nil {
		fail(c, err)
		return
	}
	ok(c, s)
}
