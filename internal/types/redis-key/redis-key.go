package rediskey

import (
	"fmt"

	"marketplace-recon-api/internal/config"
)

// 配置表数据 redis key（hash，field = config_key）
func SysConfigKey() string {
	return config.C.Project.Name + ":system:config"
}

// 费率区间缓存（按平台，value = 区间列表 JSON，带过期时间）
func FeePeriodKey(marketplace string) string {
	return fmt.Sprintf("%s:fee:periods:%s", config.C.Project.Name, marketplace)
}

// 平台访问令牌
func MarketplaceTokenKey(marketplace string) string {
	return fmt.Sprintf("%s:marketplace:token:%s", config.C.Project.Name, marketplace)
}

// 平台接口成功率
func MarketplaceHealthKey(marketplace string) string {
	return fmt.Sprintf("%s:marketplace:success_rate:%s", config.C.Project.Name, marketplace)
}

// 平台接口熔断标记
func MarketplaceDisabledKey(marketplace string) string {
	return fmt.Sprintf("%s:marketplace:disabled:%s", config.C.Project.Name, marketplace)
}
