package health

import (
	"context"
	"time"

	rediskey "marketplace-recon-api/internal/types/redis-key"
)

// Store 成功率与熔断标记的存储，由 marketplace.RedisKV 实现
type Store interface {
	GetFloat(ctx context.Context, key string) (float64, bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Manager 按平台记录接口成功率，低于阈值时熔断 BreakerTTL
type Manager struct {
	Store      Store
	Strategy   SuccessRateStrategy
	Threshold  float64 // 熔断阈值，例如 30.0
	TTL        time.Duration
	BreakerTTL time.Duration
	// OnTrip 熔断触发回调（告警），可为空
	OnTrip func(marketplace string, rate float64)
}

func (m *Manager) Update(ctx context.Context, marketplace string, success bool) (float64, error) {
	key := rediskey.MarketplaceHealthKey(marketplace)

	currentRate, ok, err := m.Store.GetFloat(ctx, key)
	if err != nil || !ok {
		currentRate = 100.0
	}

	newRate := m.Strategy.Update(currentRate, success)
	if newRate < m.Threshold {
		// 熔断标记
		_ = m.Store.Set(ctx, rediskey.MarketplaceDisabledKey(marketplace), 1, m.BreakerTTL)
		if m.OnTrip != nil {
			m.OnTrip(marketplace, newRate)
		}
		// 熔断后成功率回到满值，熔断到期即重新试探
		newRate = 100.0
	}

	// 更新成功率缓存
	return newRate, m.Store.Set(ctx, key, newRate, m.TTL)
}

func (m *Manager) IsDisabled(ctx context.Context, marketplace string) bool {
	ok, err := m.Store.Exists(ctx, rediskey.MarketplaceDisabledKey(marketplace))
	return err == nil && ok
}
