package fee

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"marketplace-recon-api/internal/constant"
	"marketplace-recon-api/internal/dto"
	reconmodel "marketplace-recon-api/internal/model/recon"
	rediskey "marketplace-recon-api/internal/types/redis-key"
	"marketplace-recon-api/internal/utils/timeutil"
)

// PeriodStore 费率区间持久化，由 dao.FeePeriodDao 实现
type PeriodStore interface {
	ListByMarketplace(ctx context.Context, marketplace string) ([]reconmodel.FeePeriod, error)
	GetByID(ctx context.Context, id uint64) (*reconmodel.FeePeriod, error)
	Create(ctx context.Context, p *reconmodel.FeePeriod) error
	Update(ctx context.Context, p *reconmodel.FeePeriod) error
}

// PeriodCache 二级缓存，每个平台一个带过期时间的字符串键，由 marketplace.RedisKV 实现
type PeriodCache interface {
	GetString(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type cacheEntry struct {
	periods []reconmodel.FeePeriod
	expires time.Time
}

// Resolver 按 (平台, 日期) 解析生效费率。
// 本地缓存按平台保存完整区间列表，redis 为二级缓存；TTL 只影响性能，写操作显式失效。
// gens 为每个平台的失效代数，加载期间发生失效时加载结果不回写任何缓存
type Resolver struct {
	store PeriodStore
	cache PeriodCache
	ttl   time.Duration
	log   logrus.FieldLogger
	now   func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
	gens    map[string]uint64
}

func NewResolver(store PeriodStore, cache PeriodCache, ttl time.Duration, log logrus.FieldLogger) *Resolver {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Resolver{
		store:   store,
		cache:   cache,
		ttl:     ttl,
		log:     log,
		now:     time.Now,
		entries: map[string]cacheEntry{},
		gens:    map[string]uint64{},
	}
}

// Resolve 不因缺少配置或存储故障而失败，兜底返回内置默认值；只有 ctx 取消时返回错误
func (r *Resolver) Resolve(ctx context.Context, marketplace string, date time.Time) (dto.FeeConfig, error) {
	if err := ctx.Err(); err != nil {
		return dto.FeeConfig{}, err
	}
	mp := NormalizeMarketplace(marketplace)

	periods, err := r.periods(ctx, mp)
	if err != nil {
		r.log.WithError(err).WithField("marketplace", mp).Warn("费率区间加载失败，使用默认费率")
		return DefaultFeeConfig(mp), nil
	}
	if p, ok := match(periods, timeutil.BusinessDate(date)); ok {
		return toConfig(mp, p), nil
	}
	return DefaultFeeConfig(mp), nil
}

// match 取 valid_from <= day 且 (valid_to 为空或 >= day) 中 valid_from 最大的一条
func match(periods []reconmodel.FeePeriod, day timeutil.Date) (reconmodel.FeePeriod, bool) {
	for _, p := range periods {
		if timeutil.DateOf(p.ValidFrom).After(day) {
			continue
		}
		if p.ValidTo != nil && timeutil.DateOf(*p.ValidTo).Before(day) {
			continue
		}
		return p, true
	}
	return reconmodel.FeePeriod{}, false
}

func toConfig(mp string, p reconmodel.FeePeriod) dto.FeeConfig {
	return dto.FeeConfig{
		Marketplace:        mp,
		CommissionPercent:  p.CommissionPercent,
		ServiceFeePercent:  p.ServiceFeePercent,
		PaymentFeePercent:  p.PaymentFeePercent,
		FixedFeePerOrder:   p.FixedFeePerOrder,
		FixedFeePerProduct: p.FixedFeePerProduct,
		ShippingFeePercent: p.ShippingFeePercent,
		AdsFeePercent:      p.AdsFeePercent,
		Source:             dto.FeeConfigSourcePeriod,
		PeriodID:           p.ID,
	}
}

// sortPeriods valid_from 倒序，同日按 id 倒序
func sortPeriods(ps []reconmodel.FeePeriod) {
	sort.SliceStable(ps, func(i, j int) bool {
		a, b := timeutil.DateOf(ps[i].ValidFrom), timeutil.DateOf(ps[j].ValidFrom)
		if !a.Equal(b) {
			return a.After(b)
		}
		return ps[i].ID > ps[j].ID
	})
}

func (r *Resolver) periods(ctx context.Context, mp string) ([]reconmodel.FeePeriod, error) {
	now := r.now()
	r.mu.RLock()
	e, ok := r.entries[mp]
	gen := r.gens[mp]
	r.mu.RUnlock()
	if ok && now.Before(e.expires) {
		return e.periods, nil
	}

	ps, ok := r.fromRedis(ctx, mp)
	if !ok {
		var err error
		ps, err = r.store.ListByMarketplace(ctx, mp)
		if err != nil {
			return nil, err
		}
		sortPeriods(ps)
		if r.current(mp, gen) {
			r.toRedis(ctx, mp, ps)
			// 写入与失效交错时撤回刚写入的旧列表
			if !r.current(mp, gen) {
				r.dropRedis(ctx, mp)
			}
		}
	}

	r.mu.Lock()
	if r.gens[mp] == gen {
		r.entries[mp] = cacheEntry{periods: ps, expires: now.Add(r.ttl)}
	}
	r.mu.Unlock()
	return ps, nil
}

func (r *Resolver) current(mp string, gen uint64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gens[mp] == gen
}

func (r *Resolver) fromRedis(ctx context.Context, mp string) ([]reconmodel.FeePeriod, bool) {
	if r.cache == nil {
		return nil, false
	}
	raw, ok, err := r.cache.GetString(ctx, rediskey.FeePeriodKey(mp))
	if err != nil {
		r.log.WithError(err).WithField("marketplace", mp).Warn("费率区间 redis 读取失败")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var ps []reconmodel.FeePeriod
	if err := json.Unmarshal([]byte(raw), &ps); err != nil {
		return nil, false
	}
	sortPeriods(ps)
	return ps, true
}

func (r *Resolver) toRedis(ctx context.Context, mp string, ps []reconmodel.FeePeriod) {
	if r.cache == nil {
		return
	}
	b, err := json.Marshal(ps)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, rediskey.FeePeriodKey(mp), string(b), r.ttl); err != nil {
		r.log.WithError(err).WithField("marketplace", mp).Warn("费率区间 redis 写入失败")
	}
}

func (r *Resolver) dropRedis(ctx context.Context, mp string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Del(ctx, rediskey.FeePeriodKey(mp)); err != nil {
		r.log.WithError(err).WithField("marketplace", mp).Warn("费率区间 redis 失效失败")
	}
}

// Invalidate 递增失效代数并清除本地与 redis 缓存
func (r *Resolver) Invalidate(ctx context.Context, marketplace string) {
	mp := NormalizeMarketplace(marketplace)
	r.mu.Lock()
	r.gens[mp]++
	delete(r.entries, mp)
	r.mu.Unlock()
	r.dropRedis(ctx, mp)
}

// ListPeriods 直接读库，后台展示用
func (r *Resolver) ListPeriods(ctx context.Context, marketplace string) ([]reconmodel.FeePeriod, error) {
	mp := NormalizeMarketplace(marketplace)
	if !dto.IsKnownMarketplace(mp) {
		return nil, constant.Errorf(constant.CodeMarketplaceUnknown, "未知平台: %s", marketplace)
	}
	ps, err := r.store.ListByMarketplace(ctx, mp)
	if err != nil {
		return nil, err
	}
	sortPeriods(ps)
	return ps, nil
}

// CreatePeriod 校验 -> 重叠检查 -> 落库 -> 失效
func (r *Resolver) CreatePeriod(ctx context.Context, req dto.FeePeriodReq, operator string) (*reconmodel.FeePeriod, error) {
	p, err := BuildPeriod(req)
	if err != nil {
		return nil, err
	}
	existing, err := r.store.ListByMarketplace(ctx, p.Marketplace)
	if err != nil {
		return nil, err
	}
	if err := CheckOverlap(*p, existing); err != nil {
		return nil, err
	}
	p.CreatedBy = operator
	if err := r.store.Create(ctx, p); err != nil {
		return nil, err
	}
	r.Invalidate(ctx, p.Marketplace)
	r.log.WithFields(logrus.Fields{"marketplace": p.Marketplace, "id": p.ID, "operator": operator}).Info("费率区间已新增")
	return p, nil
}

// UpdatePeriod 平台不可修改
func (r *Resolver) UpdatePeriod(ctx context.Context, id uint64, req dto.FeePeriodReq, operator string) (*reconmodel.FeePeriod, error) {
	cur, err := r.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, constant.NewError(constant.CodeFeePeriodNotFound)
	}
	p, err := BuildPeriod(req)
	if err != nil {
		return nil, err
	}
	if p.Marketplace != cur.Marketplace {
		return nil, constant.Errorf(constant.CodeInvalidParams, "marketplace cannot change (%s -> %s)", cur.Marketplace, p.Marketplace)
	}
	p.ID = cur.ID
	p.CreatedBy = cur.CreatedBy
	p.CreatedAt = cur.CreatedAt

	existing, err := r.store.ListByMarketplace(ctx, p.Marketplace)
	if err != nil {
		return nil, err
	}
	if err := CheckOverlap(*p, existing); err != nil {
		return nil, err
	}
	if err := r.store.Update(ctx, p); err != nil {
		return nil, err
	}
	r.Invalidate(ctx, p.Marketplace)
	r.log.WithFields(logrus.Fields{"marketplace": p.Marketplace, "id": p.ID, "operator": operator}).Info("费率区间已修改")
	return p, nil
}
