package marketplace

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"marketplace-recon-api/internal/config"
	"marketplace-recon-api/internal/constant"
	rediskey "marketplace-recon-api/internal/types/redis-key"
)

// CredentialProvider 平台访问令牌；Refresh 强制换取新令牌
type CredentialProvider interface {
	Token(ctx context.Context, marketplace string) (string, error)
	Refresh(ctx context.Context, marketplace string) (string, error)
}

// TokenStore 由 RedisKV 实现
type TokenStore interface {
	GetString(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type tokenResp struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	Error       string `json:"error"`
}

// RedisCredentialProvider 令牌缓存在 redis，过期前 60 秒视为失效
type RedisCredentialProvider struct {
	store TokenStore
	http  *resty.Client
	apis  map[string]config.MarketplaceAPICfg
	log   logrus.FieldLogger

	mu sync.Mutex
}

func NewCredentialProvider(store TokenStore, apis map[string]config.MarketplaceAPICfg, timeout time.Duration, log logrus.FieldLogger) *RedisCredentialProvider {
	return &RedisCredentialProvider{
		store: store,
		http:  resty.New().SetTimeout(timeout),
		apis:  apis,
		log:   log,
	}
}

func (p *RedisCredentialProvider) Token(ctx context.Context, marketplace string) (string, error) {
	tok, ok, err := p.store.GetString(ctx, rediskey.MarketplaceTokenKey(marketplace))
	if err != nil {
		p.log.WithError(err).WithField("marketplace", marketplace).Warn("令牌缓存读取失败")
	}
	if ok && tok != "" {
		return tok, nil
	}
	return p.Refresh(ctx, marketplace)
}

// Refresh client_credentials 换取令牌并写入缓存
func (p *RedisCredentialProvider) Refresh(ctx context.Context, marketplace string) (string, error) {
	api, ok := p.apis[marketplace]
	if !ok || api.TokenURL == "" {
		return "", constant.Errorf(constant.CodeUpstreamTokenExpired, "%s 未配置令牌地址", marketplace)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var out tokenResp
	resp, err := p.http.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetFormData(map[string]string{
			"grant_type":    "client_credentials",
			"client_id":     api.ClientID,
			"client_secret": api.ClientSecret,
		}).
		SetResult(&out).
		SetError(&out).
		Post(api.TokenURL)
	if err != nil {
		return "", constant.Wrap(constant.CodeUpstreamError, fmt.Errorf("refresh %s token: %w", marketplace, err))
	}
	if resp.IsError() || out.AccessToken == "" {
		return "", constant.Errorf(constant.CodeUpstreamTokenExpired, "%s 令牌刷新失败: status=%d error=%s", marketplace, resp.StatusCode(), out.Error)
	}

	ttl := time.Duration(out.ExpiresIn)*time.Second - time.Minute
	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := p.store.Set(ctx, rediskey.MarketplaceTokenKey(marketplace), out.AccessToken, ttl); err != nil {
		p.log.WithError(err).WithField("marketplace", marketplace).Warn("令牌缓存写入失败")
	}
	p.log.WithFields(logrus.Fields{"marketplace": marketplace, "ttl": ttl.String()}).Info("平台令牌已刷新")
	return out.AccessToken, nil
}
