package fee

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"marketplace-recon-api/internal/dto"
	"marketplace-recon-api/internal/utils/timeutil"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func dp(v string) *decimal.Decimal {
	x := d(v)
	return &x
}

// NormalizeMarketplace 统一小写，去空格
func NormalizeMarketplace(mp string) string {
	return strings.ToLower(strings.TrimSpace(mp))
}

// DefaultFeeConfig 没有匹配区间时的内置费率，未知平台按 shopee 处理
func DefaultFeeConfig(marketplace string) dto.FeeConfig {
	cfg := dto.FeeConfig{
		Marketplace:        marketplace,
		CommissionPercent:  decimal.Zero,
		ServiceFeePercent:  decimal.Zero,
		PaymentFeePercent:  decimal.Zero,
		FixedFeePerOrder:   decimal.Zero,
		FixedFeePerProduct: decimal.Zero,
		ShippingFeePercent: decimal.Zero,
		AdsFeePercent:      decimal.Zero,
		Source:             dto.FeeConfigSourceDefault,
	}
	switch marketplace {
	case dto.MarketplaceMagalu:
		cfg.CommissionPercent = d("16")
	case dto.MarketplaceMercadoLivre:
		cfg.CommissionPercent = d("17")
	default:
		cfg.CommissionPercent = d("20")
		cfg.ServiceFeePercent = d("2")
		cfg.FixedFeePerProduct = d("4")
	}
	return cfg
}

// DefaultSettings 平台全局设置未配置时的取值
func DefaultSettings(marketplace string) dto.MarketplaceSettings {
	switch marketplace {
	case dto.MarketplaceShopee:
		loc := timeutil.Location()
		start := time.Date(2024, time.November, 1, 0, 0, 0, 0, loc)
		end := time.Date(2024, time.December, 31, 23, 59, 59, 0, loc)
		return dto.MarketplaceSettings{
			FreeShippingCommission:     dp("20"),
			ParticipatesInFreeShipping: false,
			CampaignFeeDefault:         d("2.5"),
			CampaignFeeHigh:            d("3.5"),
			CampaignStart:              &start,
			CampaignEnd:                &end,
		}
	case dto.MarketplaceMercadoLivre:
		return dto.MarketplaceSettings{
			FixedCostTiers: []dto.FixedCostTier{
				{Max: dp("79"), Cost: d("5")},
				{Min: dp("79"), Max: dp("140"), Cost: d("9")},
				{Min: dp("140"), Cost: d("13")},
			},
			HalfFixedCostBelow: dp("12.50"),
		}
	default:
		return dto.MarketplaceSettings{}
	}
}
