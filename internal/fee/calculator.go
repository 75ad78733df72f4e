package fee

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"marketplace-recon-api/internal/constant"
	"marketplace-recon-api/internal/dto"
	"marketplace-recon-api/internal/utils/timeutil"
)

// ConfigResolver 由 *Resolver 实现
type ConfigResolver interface {
	Resolve(ctx context.Context, marketplace string, date time.Time) (dto.FeeConfig, error)
}

// SettingsProvider 平台全局设置，未配置返回 nil；由 *system.ConfigSystem 实现
type SettingsProvider interface {
	MarketplaceSettings(ctx context.Context, marketplace string) (*dto.MarketplaceSettings, error)
}

type Calculator struct {
	resolver ConfigResolver
	settings SettingsProvider
	log      logrus.FieldLogger
}

// NewCalculator settings 为 nil 时全部使用内置设置
func NewCalculator(resolver ConfigResolver, settings SettingsProvider, log logrus.FieldLogger) *Calculator {
	return &Calculator{resolver: resolver, settings: settings, log: log}
}

func pct(base, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate).Div(hundred).Round(2)
}

// Calculate 计算单笔订单的完整费用明细。对固定配置是纯函数
func (c *Calculator) Calculate(ctx context.Context, in dto.FeeInput) (dto.FeeBreakdown, error) {
	if err := validateInput(in); err != nil {
		return dto.FeeBreakdown{}, err
	}
	mp := NormalizeMarketplace(in.Marketplace)
	cfg, err := c.resolver.Resolve(ctx, mp, in.OrderDate)
	if err != nil {
		return dto.FeeBreakdown{}, err
	}
	settings := c.settingsFor(ctx, mp)

	ov := in.Overrides
	if ov == nil {
		ov = &dto.FeeOverrides{}
	}
	var overridden []string
	pick := func(name string, base decimal.Decimal, o *decimal.Decimal) decimal.Decimal {
		if o != nil {
			overridden = append(overridden, name)
			return *o
		}
		return base
	}

	gross := in.OrderValue
	units := in.ProductCount
	if in.IsKit || units < 1 {
		units = 1
	}

	out := dto.FeeBreakdown{
		Marketplace:  mp,
		OrderDate:    in.OrderDate,
		GrossValue:   gross,
		Units:        units,
		ConfigSource: cfg.Source,
		PeriodID:     cfg.PeriodID,
	}

	// 佣金：显式标记优先，否则取平台是否参加包邮计划
	usesFreeShipping := settings.ParticipatesInFreeShipping
	if in.Flags.UsesFreeShipping != nil {
		usesFreeShipping = *in.Flags.UsesFreeShipping
	}
	out.CommissionBasis = dto.CommissionBasisBase
	commissionRate := cfg.CommissionPercent
	if usesFreeShipping && settings.FreeShippingCommission != nil {
		commissionRate = *settings.FreeShippingCommission
		out.CommissionBasis = dto.CommissionBasisFreeShipping
	}
	out.CommissionRate = pick("commission_percent", commissionRate, ov.CommissionPercent)
	out.ServiceRate = pick("service_fee_percent", cfg.ServiceFeePercent, ov.ServiceFeePercent)
	out.PaymentRate = pick("payment_fee_percent", cfg.PaymentFeePercent, ov.PaymentFeePercent)
	out.ShippingRate = pick("shipping_fee_percent", cfg.ShippingFeePercent, ov.ShippingFeePercent)
	out.AdsRate = pick("ads_fee_percent", cfg.AdsFeePercent, ov.AdsFeePercent)

	perOrder := cfg.FixedFeePerOrder
	if perOrder.IsZero() && len(settings.FixedCostTiers) > 0 {
		perOrder = tierCost(settings, gross)
	}
	out.FixedFeePerOrder = pick("fixed_fee_per_order", perOrder, ov.FixedFeePerOrder)
	out.FixedFeePerProduct = pick("fixed_fee_per_product", cfg.FixedFeePerProduct, ov.FixedFeePerProduct)

	out.CommissionFee = pick("commission_fee", pct(gross, out.CommissionRate), ov.CommissionFee)
	out.ServiceFee = pick("service_fee", pct(gross, out.ServiceRate), ov.ServiceFee)
	out.PaymentFee = pick("payment_fee", pct(gross, out.PaymentRate), ov.PaymentFee)
	out.ShippingFee = pick("shipping_fee", pct(gross, out.ShippingRate), ov.ShippingFee)
	out.AdsFee = pick("ads_fee", pct(gross, out.AdsRate), ov.AdsFee)
	out.FixedOrderFee = pick("fixed_order_fee", out.FixedFeePerOrder.Round(2), ov.FixedOrderFee)
	out.FixedProductFee = pick("fixed_product_fee", out.FixedFeePerProduct.Mul(decimal.NewFromInt(int64(units))).Round(2), ov.FixedProductFee)

	// 活动费只在活动订单上出现
	if in.Flags.IsCampaignOrder {
		name, rate, inWindow := campaignRate(settings, in.OrderDate)
		rate = pick("campaign_fee_percent", rate, ov.CampaignFeePercent)
		amount := pick("campaign_fee", pct(gross, rate), ov.CampaignFee)
		out.CampaignName = name
		out.InCampaignWindow = inWindow
		out.CampaignRate = &rate
		out.CampaignFee = &amount
	}

	total := out.CommissionFee.
		Add(out.ServiceFee).
		Add(out.PaymentFee).
		Add(out.FixedOrderFee).
		Add(out.FixedProductFee).
		Add(out.ShippingFee).
		Add(out.AdsFee)
	if out.CampaignFee != nil {
		total = total.Add(*out.CampaignFee)
	}
	out.TotalFees = total
	out.NetValue = gross.Sub(total)
	out.Overridden = overridden
	return out, nil
}

func validateInput(in dto.FeeInput) error {
	var problems []string
	if NormalizeMarketplace(in.Marketplace) == "" {
		problems = append(problems, "marketplace is required")
	}
	if in.OrderValue.IsNegative() {
		problems = append(problems, "order_value must be >= 0")
	}
	if in.ProductCount < 0 {
		problems = append(problems, "product_count must be >= 0")
	}
	if len(problems) > 0 {
		return constant.Errorf(constant.CodeInvalidParams, "%v", problems).WithData(problems)
	}
	return nil
}

func (c *Calculator) settingsFor(ctx context.Context, mp string) dto.MarketplaceSettings {
	if c.settings == nil {
		return DefaultSettings(mp)
	}
	s, err := c.settings.MarketplaceSettings(ctx, mp)
	if err != nil {
		c.log.WithError(err).WithField("marketplace", mp).Warn("平台设置读取失败，使用内置设置")
		return DefaultSettings(mp)
	}
	if s == nil {
		return DefaultSettings(mp)
	}
	return *s
}

// campaignRate 先匹配启用中的具名活动，再按旧的活动窗口取高/默认费率；日期按日历日闭区间比较
func campaignRate(s dto.MarketplaceSettings, orderDate time.Time) (string, decimal.Decimal, bool) {
	day := timeutil.BusinessDate(orderDate)
	within := func(start, end time.Time) bool {
		return !day.Before(timeutil.BusinessDate(start)) && !day.After(timeutil.BusinessDate(end))
	}
	for _, cp := range s.Campaigns {
		if cp.Active && within(cp.Start, cp.End) {
			return cp.Name, cp.FeeRate, true
		}
	}
	if s.CampaignStart != nil && s.CampaignEnd != nil && within(*s.CampaignStart, *s.CampaignEnd) {
		return "", s.CampaignFeeHigh, true
	}
	return "", s.CampaignFeeDefault, false
}

// tierCost 按订单金额取固定费用档位，低于半价线时减半
func tierCost(s dto.MarketplaceSettings, gross decimal.Decimal) decimal.Decimal {
	cost := decimal.Zero
	for _, t := range s.FixedCostTiers {
		if t.Min != nil && gross.LessThan(*t.Min) {
			continue
		}
		if t.Max != nil && !gross.LessThan(*t.Max) {
			continue
		}
		cost = t.Cost
		break
	}
	if s.HalfFixedCostBelow != nil && gross.LessThan(*s.HalfFixedCostBelow) {
		cost = cost.Div(decimal.NewFromInt(2))
	}
	return cost
}
