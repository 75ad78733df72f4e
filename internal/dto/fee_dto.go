package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MarketplaceShopee       = "shopee"
	MarketplaceMercadoLivre = "mercado_livre"
	MarketplaceMagalu       = "magalu"
)

// Marketplaces 已支持的平台
var Marketplaces = []string{MarketplaceShopee, MarketplaceMercadoLivre, MarketplaceMagalu}

func IsKnownMarketplace(mp string) bool {
	for _, m := range Marketplaces {
		if m == mp {
			return true
		}
	}
	return false
}

const (
	FeeConfigSourcePeriod  = "period"
	FeeConfigSourceDefault = "default"
)

// FeeConfig 某平台某日生效的费率
type FeeConfig struct {
	Marketplace        string          `json:"marketplace"`
	CommissionPercent  decimal.Decimal `json:"commission_percent"`
	ServiceFeePercent  decimal.Decimal `json:"service_fee_percent"`
	PaymentFeePercent  decimal.Decimal `json:"payment_fee_percent"`
	FixedFeePerOrder   decimal.Decimal `json:"fixed_fee_per_order"`
	FixedFeePerProduct decimal.Decimal `json:"fixed_fee_per_product"`
	ShippingFeePercent decimal.Decimal `json:"shipping_fee_percent"`
	AdsFeePercent      decimal.Decimal `json:"ads_fee_percent"`
	Source             string          `json:"source"`
	PeriodID           uint64          `json:"period_id,omitempty"`
}

// FeeFlags UsesFreeShipping 为 nil 时取平台全局设置
type FeeFlags struct {
	UsesFreeShipping *bool `json:"uses_free_shipping,omitempty"`
	IsCampaignOrder  bool  `json:"is_campaign_order"`
}

// FeeOverrides 手工覆盖：费率覆盖按公式重算该项，金额覆盖直接替换该项；同一项两者都有时金额优先
type FeeOverrides struct {
	CommissionPercent  *decimal.Decimal `json:"commission_percent,omitempty"`
	ServiceFeePercent  *decimal.Decimal `json:"service_fee_percent,omitempty"`
	PaymentFeePercent  *decimal.Decimal `json:"payment_fee_percent,omitempty"`
	CampaignFeePercent *decimal.Decimal `json:"campaign_fee_percent,omitempty"`
	ShippingFeePercent *decimal.Decimal `json:"shipping_fee_percent,omitempty"`
	AdsFeePercent      *decimal.Decimal `json:"ads_fee_percent,omitempty"`
	FixedFeePerOrder   *decimal.Decimal `json:"fixed_fee_per_order,omitempty"`
	FixedFeePerProduct *decimal.Decimal `json:"fixed_fee_per_product,omitempty"`

	CommissionFee   *decimal.Decimal `json:"commission_fee,omitempty"`
	ServiceFee      *decimal.Decimal `json:"service_fee,omitempty"`
	PaymentFee      *decimal.Decimal `json:"payment_fee,omitempty"`
	CampaignFee     *decimal.Decimal `json:"campaign_fee,omitempty"`
	FixedOrderFee   *decimal.Decimal `json:"fixed_order_fee,omitempty"`
	FixedProductFee *decimal.Decimal `json:"fixed_product_fee,omitempty"`
	ShippingFee     *decimal.Decimal `json:"shipping_fee,omitempty"`
	AdsFee          *decimal.Decimal `json:"ads_fee,omitempty"`
}

// FeeInput 单笔费用计算入参
type FeeInput struct {
	Marketplace  string          `json:"marketplace" binding:"required"`
	OrderValue   decimal.Decimal `json:"order_value"`
	ProductCount int             `json:"product_count"`
	IsKit        bool            `json:"is_kit"`
	OrderDate    time.Time       `json:"order_date"`
	Flags        FeeFlags        `json:"flags"`
	Overrides    *FeeOverrides   `json:"overrides,omitempty"`
}

const (
	CommissionBasisBase         = "base"
	CommissionBasisFreeShipping = "free_shipping"
)

// FeeBreakdown 费用明细，所有费率与金额均保留用于审计
type FeeBreakdown struct {
	Marketplace string          `json:"marketplace"`
	OrderDate   time.Time       `json:"order_date"`
	GrossValue  decimal.Decimal `json:"gross_value"`
	Units       int             `json:"units"`

	CommissionBasis    string           `json:"commission_basis"`
	CommissionRate     decimal.Decimal  `json:"commission_rate"`
	ServiceRate        decimal.Decimal  `json:"service_rate"`
	PaymentRate        decimal.Decimal  `json:"payment_rate"`
	CampaignRate       *decimal.Decimal `json:"campaign_rate,omitempty"`
	CampaignName       string           `json:"campaign_name,omitempty"`
	InCampaignWindow   bool             `json:"in_campaign_window"`
	FixedFeePerOrder   decimal.Decimal  `json:"fixed_fee_per_order"`
	FixedFeePerProduct decimal.Decimal  `json:"fixed_fee_per_product"`
	ShippingRate       decimal.Decimal  `json:"shipping_rate"`
	AdsRate            decimal.Decimal  `json:"ads_rate"`

	CommissionFee   decimal.Decimal  `json:"commission_fee"`
	ServiceFee      decimal.Decimal  `json:"service_fee"`
	PaymentFee      decimal.Decimal  `json:"payment_fee"`
	CampaignFee     *decimal.Decimal `json:"campaign_fee,omitempty"`
	FixedOrderFee   decimal.Decimal  `json:"fixed_order_fee"`
	FixedProductFee decimal.Decimal  `json:"fixed_product_fee"`
	ShippingFee     decimal.Decimal  `json:"shipping_fee"`
	AdsFee          decimal.Decimal  `json:"ads_fee"`

	TotalFees decimal.Decimal `json:"total_fees"`
	NetValue  decimal.Decimal `json:"net_value"`

	Overridden   []string `json:"overridden,omitempty"`
	ConfigSource string   `json:"config_source"`
	PeriodID     uint64   `json:"period_id,omitempty"`
}

// Campaign 平台活动，区间首尾均包含
type Campaign struct {
	Name    string          `json:"name"`
	FeeRate decimal.Decimal `json:"fee_rate"`
	Start   time.Time       `json:"start"`
	End     time.Time       `json:"end"`
	Active  bool            `json:"active"`
}

// FixedCostTier 按订单金额分档的固定费用，Min 含 Max 不含
type FixedCostTier struct {
	Min  *decimal.Decimal `json:"min,omitempty"`
	Max  *decimal.Decimal `json:"max,omitempty"`
	Cost decimal.Decimal  `json:"cost"`
}

// MarketplaceSettings 平台全局设置（非时间区间类）
type MarketplaceSettings struct {
	FreeShippingCommission     *decimal.Decimal `json:"free_shipping_commission,omitempty"`
	ParticipatesInFreeShipping bool             `json:"participates_in_free_shipping"`
	CampaignFeeDefault         decimal.Decimal  `json:"campaign_fee_default"`
	CampaignFeeHigh            decimal.Decimal  `json:"campaign_fee_high"`
	CampaignStart              *time.Time       `json:"campaign_start,omitempty"`
	CampaignEnd                *time.Time       `json:"campaign_end,omitempty"`
	Campaigns                  []Campaign       `json:"campaigns,omitempty"`
	FixedCostTiers             []FixedCostTier  `json:"fixed_cost_tiers,omitempty"`
	HalfFixedCostBelow         *decimal.Decimal `json:"half_fixed_cost_below,omitempty"`
}

// FeePeriodReq 新增/修改费率区间，日期格式 2006-01-02
type FeePeriodReq struct {
	Marketplace        string          `json:"marketplace" binding:"required"`
	ValidFrom          string          `json:"valid_from" binding:"required"`
	ValidTo            string          `json:"valid_to"`
	CommissionPercent  decimal.Decimal `json:"commission_percent"`
	ServiceFeePercent  decimal.Decimal `json:"service_fee_percent"`
	PaymentFeePercent  decimal.Decimal `json:"payment_fee_percent"`
	FixedFeePerOrder   decimal.Decimal `json:"fixed_fee_per_order"`
	FixedFeePerProduct decimal.Decimal `json:"fixed_fee_per_product"`
	ShippingFeePercent decimal.Decimal `json:"shipping_fee_percent"`
	AdsFeePercent      decimal.Decimal `json:"ads_fee_percent"`
	Notes              string          `json:"notes"`
}
