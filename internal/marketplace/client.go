package marketplace

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"marketplace-recon-api/internal/config"
	"marketplace-recon-api/internal/constant"
	"marketplace-recon-api/internal/dto"
	"marketplace-recon-api/internal/marketplace/health"
	"marketplace-recon-api/internal/utils"
)

// OrderIndex 平台订单只读索引
type OrderIndex interface {
	// Get 不存在返回 nil, nil
	Get(ctx context.Context, id string) (*dto.MarketplaceOrder, error)
	FindCandidates(ctx context.Context, amount, epsilon decimal.Decimal, from, to time.Time) ([]dto.MarketplaceOrder, error)
}

type orderJSON struct {
	ID            utils.StringOrNumber `json:"id"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	CreatedAt     time.Time            `json:"created_at"`
	RecipientName string               `json:"recipient_name"`
}

type orderListJSON struct {
	Orders []orderJSON `json:"orders"`
}

func (o orderJSON) toDTO(mp string) dto.MarketplaceOrder {
	return dto.MarketplaceOrder{
		ID:            o.ID.String(),
		Marketplace:   mp,
		TotalAmount:   o.TotalAmount,
		CreatedAt:     o.CreatedAt,
		RecipientName: o.RecipientName,
	}
}

// Client 单个平台的订单接口；令牌失效时刷新一次并重试一次
type Client struct {
	marketplace   string
	http          *resty.Client
	creds         CredentialProvider
	health        *health.Manager
	retryTimes    int
	retryInterval time.Duration
	log           logrus.FieldLogger
}

type ClientOptions struct {
	BaseURL       string
	Timeout       time.Duration
	RetryTimes    int
	RetryInterval time.Duration
}

func NewClient(marketplace string, opt ClientOptions, creds CredentialProvider, hm *health.Manager, log logrus.FieldLogger) *Client {
	if opt.Timeout <= 0 {
		opt.Timeout = 10 * time.Second
	}
	return &Client{
		marketplace:   marketplace,
		http:          resty.New().SetBaseURL(strings.TrimRight(opt.BaseURL, "/")).SetTimeout(opt.Timeout),
		creds:         creds,
		health:        hm,
		retryTimes:    opt.RetryTimes,
		retryInterval: opt.RetryInterval,
		log:           log.WithField("marketplace", marketplace),
	}
}

// NewIndexes 按配置为每个平台创建客户端
func NewIndexes(cfg config.UpstreamCfg, creds CredentialProvider, hm *health.Manager, log logrus.FieldLogger) map[string]OrderIndex {
	out := make(map[string]OrderIndex, len(cfg.Marketplaces))
	for mp, api := range cfg.Marketplaces {
		if api.BaseURL == "" {
			continue
		}
		out[mp] = NewClient(mp, ClientOptions{
			BaseURL:       api.BaseURL,
			Timeout:       time.Duration(cfg.Timeout.RequestSec) * time.Second,
			RetryTimes:    cfg.Retry.Times,
			RetryInterval: time.Duration(cfg.Retry.IntervalMs) * time.Millisecond,
		}, creds, hm, log)
	}
	return out
}

func tokenRejected(resp *resty.Response) bool {
	code := resp.StatusCode()
	return code == http.StatusUnauthorized || code == http.StatusForbidden ||
		strings.Contains(resp.String(), "invalid_access_token")
}

// 部分平台返回的 Content-Type 不规范，统一按 JSON 解析
func (c *Client) newRequest(ctx context.Context, token string) *resty.Request {
	return c.http.R().SetContext(ctx).SetAuthToken(token).ForceContentType("application/json")
}

// send 单次调用：401/403 时刷新令牌重发一次，仍失败则不再重试
func (c *Client) send(ctx context.Context, build func(r *resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	token, err := c.creds.Token(ctx, c.marketplace)
	if err != nil {
		return nil, utils.Permanent(err)
	}
	resp, err := build(c.newRequest(ctx, token))
	if err != nil {
		return nil, constant.Wrap(constant.CodeUpstreamTimeout, err)
	}
	if !tokenRejected(resp) {
		return resp, nil
	}

	c.log.WithField("status", resp.StatusCode()).Warn("令牌失效，刷新后重试")
	token, err = c.creds.Refresh(ctx, c.marketplace)
	if err != nil {
		return nil, utils.Permanent(err)
	}
	resp, err = build(c.newRequest(ctx, token))
	if err != nil {
		return nil, constant.Wrap(constant.CodeUpstreamTimeout, err)
	}
	if tokenRejected(resp) {
		return nil, utils.Permanent(constant.Errorf(constant.CodeUpstreamTokenExpired, "%s 令牌刷新后仍被拒绝", c.marketplace))
	}
	return resp, nil
}

// call 熔断判断 + 有限重试 + 健康度记录；notFoundOK 时 404 视为成功
func (c *Client) call(ctx context.Context, notFoundOK bool, build func(r *resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	if c.health != nil && c.health.IsDisabled(ctx, c.marketplace) {
		return nil, constant.Errorf(constant.CodeUpstreamCircuitOpen, "%s 接口已熔断", c.marketplace)
	}

	var out *resty.Response
	err := utils.DoWithRetry(ctx, c.retryTimes, c.retryInterval, func() error {
		resp, err := c.send(ctx, build)
		if err != nil {
			return err
		}
		code := resp.StatusCode()
		switch {
		case code == http.StatusNotFound && notFoundOK:
		case code == http.StatusTooManyRequests:
			return constant.Errorf(constant.CodeUpstreamRateLimit, "%s 限流", c.marketplace)
		case code >= 500:
			return constant.Errorf(constant.CodeUpstreamError, "%s 接口异常: status=%d", c.marketplace, code)
		case code >= 400:
			return utils.Permanent(constant.Errorf(constant.CodeUpstreamError, "%s 请求被拒绝: status=%d", c.marketplace, code))
		}
		out = resp
		return nil
	})

	if c.health != nil {
		if _, herr := c.health.Update(ctx, c.marketplace, err == nil); herr != nil {
			c.log.WithError(herr).Warn("接口健康度记录失败")
		}
	}
	if err != nil {
		if constant.CodeOf(err) == constant.CodeSystemError {
			err = constant.Wrap(constant.CodeUpstreamError, err)
		}
		return nil, err
	}
	return out, nil
}

func (c *Client) Get(ctx context.Context, id string) (*dto.MarketplaceOrder, error) {
	var body orderJSON
	resp, err := c.call(ctx, true, func(r *resty.Request) (*resty.Response, error) {
		return r.SetResult(&body).SetPathParam("id", id).Get("/orders/{id}")
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() == http.StatusNotFound || body.ID == "" {
		return nil, nil
	}
	o := body.toDTO(c.marketplace)
	return &o, nil
}

// FindCandidates 服务端按金额与时间过滤，本地再按同样条件过滤一次
func (c *Client) FindCandidates(ctx context.Context, amount, epsilon decimal.Decimal, from, to time.Time) ([]dto.MarketplaceOrder, error) {
	var body orderListJSON
	_, err := c.call(ctx, false, func(r *resty.Request) (*resty.Response, error) {
		return r.SetResult(&body).SetQueryParams(map[string]string{
			"min_amount":   amount.Sub(epsilon).StringFixed(2),
			"max_amount":   amount.Add(epsilon).StringFixed(2),
			"created_from": from.UTC().Format(time.RFC3339),
			"created_to":   to.UTC().Format(time.RFC3339),
		}).Get("/orders")
	})
	if err != nil {
		return nil, fmt.Errorf("find candidates: %w", err)
	}
	out := make([]dto.MarketplaceOrder, 0, len(body.Orders))
	for _, o := range body.Orders {
		if o.TotalAmount.Sub(amount).Abs().GreaterThan(epsilon) {
			continue
		}
		if o.CreatedAt.Before(from) || o.CreatedAt.After(to) {
			continue
		}
		out = append(out, o.toDTO(c.marketplace))
	}
	return out, nil
}
