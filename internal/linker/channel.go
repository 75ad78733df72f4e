package linker

import (
	"strings"

	"marketplace-recon-api/internal/dto"
)

// MarketplaceForChannel ERP 渠道名 -> 平台
func MarketplaceForChannel(channel string) (string, bool) {
	c := strings.ToLower(strings.TrimSpace(channel))
	switch {
	case c == "":
		return "", false
	case strings.Contains(c, "shopee"):
		return dto.MarketplaceShopee, true
	case strings.Contains(c, "mercado"), strings.Contains(c, "meli"):
		return dto.MarketplaceMercadoLivre, true
	case strings.Contains(c, "magalu"), strings.Contains(c, "magazine"):
		return dto.MarketplaceMagalu, true
	}
	return "", false
}

const magaluPrefix = "LU-"

// NormalizeOrderID 平台订单号规范化：去空格，magalu 去掉 LU- 前缀
func NormalizeOrderID(marketplace, id string) string {
	id = strings.TrimSpace(id)
	if marketplace == dto.MarketplaceMagalu && len(id) > len(magaluPrefix) && strings.EqualFold(id[:len(magaluPrefix)], magaluPrefix) {
		id = id[len(magaluPrefix):]
	}
	return id
}

// externalIDVariants ERP 中外部单号可能带或不带前缀
func externalIDVariants(marketplace, id string) []string {
	if marketplace == dto.MarketplaceMagalu {
		return []string{id, magaluPrefix + id}
	}
	return []string{id}
}
