package system

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"marketplace-recon-api/internal/config"
	"marketplace-recon-api/internal/constant"
	"marketplace-recon-api/internal/dto"
	rediskey "marketplace-recon-api/internal/types/redis-key"
)

const (
	// 平台全局费率设置 key 前缀，完整 key 为 fee.settings.<marketplace>
	FeeSettingsKeyPrefix = "fee.settings."
	// Telegram 异常通知群
	TelegramNotifyKey = "sys.telegram.notify.group"
)

func FeeSettingsKey(marketplace string) string {
	return FeeSettingsKeyPrefix + marketplace
}

// ConfigStore sys_config 表读写
type ConfigStore interface {
	GetByKey(ctx context.Context, key string) (*dto.ConfigDetailResponse, error)
	Upsert(ctx context.Context, key, name, value, operator string) error
}

// ConfigSystem sys_config 读取，redis hash 做缓存；cache 为 nil 时直接读库
type ConfigSystem struct {
	store ConfigStore
	cache HashCache
	log   logrus.FieldLogger
}

func NewConfigSystem(store ConfigStore, cache HashCache, log logrus.FieldLogger) *ConfigSystem {
	return &ConfigSystem{store: store, cache: cache, log: log}
}

// GetConfigByConfigKey 直接读库，不存在返回 nil
func (s *ConfigSystem) GetConfigByConfigKey(ctx context.Context, configKey string) (*dto.ConfigDetailResponse, error) {
	return s.store.GetByKey(ctx, configKey)
}

// GetConfigCacheByConfigKey 根据参数 key 获取参数配置，缓存优先
func (s *ConfigSystem) GetConfigCacheByConfigKey(ctx context.Context, configKey string) (*dto.ConfigDetailResponse, error) {
	// 缓存不为空不从数据库读取，减少数据库压力
	if s.cache != nil {
		cached, ok, err := s.cache.HGet(ctx, rediskey.SysConfigKey(), configKey)
		if err != nil {
			s.log.WithError(err).WithField("key", configKey).Warn("sys_config 缓存读取失败")
		}
		if ok {
			var cfg dto.ConfigDetailResponse
			if err := json.Unmarshal([]byte(cached), &cfg); err == nil {
				return &cfg, nil
			}
		}
	}

	// 从数据库读取配置并且记录到缓存
	cfg, err := s.GetConfigByConfigKey(ctx, configKey)
	if err != nil {
		return nil, constant.Wrap(constant.CodeDatabaseError, err)
	}
	if cfg != nil && cfg.ConfigId > 0 && s.cache != nil {
		b, _ := json.Marshal(cfg)
		if err := s.cache.HSet(ctx, rediskey.SysConfigKey(), configKey, string(b)); err != nil {
			s.log.WithError(err).WithField("key", configKey).Warn("sys_config 缓存写入失败")
		}
	}
	return cfg, nil
}

// SetConfig 写库后删除缓存
func (s *ConfigSystem) SetConfig(ctx context.Context, key, name, value, operator string) error {
	if err := s.store.Upsert(ctx, key, name, value, operator); err != nil {
		return constant.Wrap(constant.CodeDatabaseError, err)
	}
	if s.cache != nil {
		if err := s.cache.HDel(ctx, rediskey.SysConfigKey(), key); err != nil {
			s.log.WithError(err).WithField("key", key).Warn("sys_config 缓存删除失败")
		}
	}
	return nil
}

// MarketplaceSettings 平台全局费率设置，未配置返回 nil
func (s *ConfigSystem) MarketplaceSettings(ctx context.Context, marketplace string) (*dto.MarketplaceSettings, error) {
	cfg, err := s.GetConfigCacheByConfigKey(ctx, FeeSettingsKey(marketplace))
	if err != nil {
		return nil, err
	}
	if cfg == nil || strings.TrimSpace(cfg.ConfigValue) == "" {
		return nil, nil
	}
	var out dto.MarketplaceSettings
	if err := json.Unmarshal([]byte(cfg.ConfigValue), &out); err != nil {
		return nil, constant.Wrap(constant.CodeParamsFormatError, fmt.Errorf("decode %s: %w", cfg.ConfigKey, err))
	}
	return &out, nil
}

// SaveMarketplaceSettings 覆盖写入平台设置
func (s *ConfigSystem) SaveMarketplaceSettings(ctx context.Context, marketplace string, settings dto.MarketplaceSettings, operator string) error {
	if !dto.IsKnownMarketplace(marketplace) {
		return constant.Errorf(constant.CodeMarketplaceUnknown, "未知平台: %s", marketplace)
	}
	b, err := json.Marshal(settings)
	if err != nil {
		return constant.Wrap(constant.CodeParamsFormatError, err)
	}
	return s.SetConfig(ctx, FeeSettingsKey(marketplace), marketplace+" 费率设置", string(b), operator)
}

// BotChatID Telegram 异常报错群，库中未配置时取配置文件
func (s *ConfigSystem) BotChatID(ctx context.Context) string {
	cfg, err := s.GetConfigCacheByConfigKey(ctx, TelegramNotifyKey)
	if err == nil && cfg != nil && cfg.ConfigValue != "" {
		return cfg.ConfigValue
	}
	return config.C.Notify.TelegramChatID
}
