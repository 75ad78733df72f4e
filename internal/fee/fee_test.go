package fee

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-recon-api/internal/constant"
	"marketplace-recon-api/internal/dto"
	"marketplace-recon-api/internal/logger"
	rediskey "marketplace-recon-api/internal/types/redis-key"
	reconmodel "marketplace-recon-api/internal/model/recon"
	"marketplace-recon-api/internal/utils/timeutil"
)

type memPeriods struct {
	rows  []reconmodel.FeePeriod
	lists int
	err   error
}

func (m *memPeriods) ListByMarketplace(_ context.Context, mp string) ([]reconmodel.FeePeriod, error) {
	m.lists++
	if m.err != nil {
		return nil, m.err
	}
	var out []reconmodel.FeePeriod
	for _, p := range m.rows {
		if p.Marketplace == mp {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPeriods) GetByID(_ context.Context, id uint64) (*reconmodel.FeePeriod, error) {
	for _, p := range m.rows {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memPeriods) Create(_ context.Context, p *reconmodel.FeePeriod) error {
	p.ID = uint64(len(m.rows) + 1)
	m.rows = append(m.rows, *p)
	return nil
}

func (m *memPeriods) Update(_ context.Context, p *reconmodel.FeePeriod) error {
	for i := range m.rows {
		if m.rows[i].ID == p.ID {
			m.rows[i] = *p
			return nil
		}
	}
	return constant.NewError(constant.CodeFeePeriodNotFound)
}

type memKV struct {
	mu   sync.Mutex
	vals map[string]string
	ttls map[string]time.Duration
}

func newMemKV() *memKV {
	return &memKV{vals: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memKV) GetString(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vals[key]
	return v, ok, nil
}

func (m *memKV) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return nil
}

func (m *memKV) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vals, key)
	delete(m.ttls, key)
	return nil
}

func (m *memKV) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.vals[key]
	return ok
}

// gatedPeriods 第一次读库取到结果后阻塞，直到 release 关闭
type gatedPeriods struct {
	*memPeriods
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedPeriods) ListByMarketplace(ctx context.Context, mp string) ([]reconmodel.FeePeriod, error) {
	ps, err := g.memPeriods.ListByMarketplace(ctx, mp)
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	return ps, err
}

func day(y int, m time.Month, dd int) time.Time {
	return time.Date(y, m, dd, 0, 0, 0, 0, timeutil.Location())
}

func ptr(t time.Time) *time.Time { return &t }

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func decp(v string) *decimal.Decimal {
	x := dec(v)
	return &x
}

func boolp(b bool) *bool { return &b }

func adjacentPeriods() *memPeriods {
	return &memPeriods{rows: []reconmodel.FeePeriod{
		{ID: 1, Marketplace: dto.MarketplaceShopee, ValidFrom: day(2024, 1, 1), ValidTo: ptr(day(2024, 6, 30)), CommissionPercent: dec("14")},
		{ID: 2, Marketplace: dto.MarketplaceShopee, ValidFrom: day(2024, 7, 1), CommissionPercent: dec("18")},
	}}
}

func TestResolve_PeriodBoundary(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(adjacentPeriods(), nil, time.Minute, logger.Discard())

	cfg, err := r.Resolve(ctx, "shopee", day(2024, 6, 30).Add(20*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cfg.PeriodID)
	assert.Equal(t, dto.FeeConfigSourcePeriod, cfg.Source)

	cfg, err = r.Resolve(ctx, "shopee", day(2024, 7, 1))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), cfg.PeriodID)
	assert.True(t, cfg.CommissionPercent.Equal(dec("18")))

	// 区间之前回落到默认
	cfg, err = r.Resolve(ctx, "shopee", day(2023, 12, 31))
	require.NoError(t, err)
	assert.Equal(t, dto.FeeConfigSourceDefault, cfg.Source)
}

func TestResolve_OverlapLatestValidFromWins(t *testing.T) {
	store := &memPeriods{rows: []reconmodel.FeePeriod{
		{ID: 1, Marketplace: dto.MarketplaceMagalu, ValidFrom: day(2024, 1, 1), CommissionPercent: dec("10")},
		{ID: 2, Marketplace: dto.MarketplaceMagalu, ValidFrom: day(2024, 3, 1), CommissionPercent: dec("12")},
	}}
	r := NewResolver(store, nil, time.Minute, logger.Discard())
	cfg, err := r.Resolve(context.Background(), dto.MarketplaceMagalu, day(2024, 5, 5))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), cfg.PeriodID)
}

func TestResolve_Defaults(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(&memPeriods{}, nil, time.Minute, logger.Discard())

	cfg, _ := r.Resolve(ctx, "amazon", day(2024, 1, 1))
	assert.True(t, cfg.CommissionPercent.Equal(dec("20")))
	assert.True(t, cfg.ServiceFeePercent.Equal(dec("2")))
	assert.True(t, cfg.FixedFeePerProduct.Equal(dec("4")))

	cfg, _ = r.Resolve(ctx, dto.MarketplaceMagalu, day(2024, 1, 1))
	assert.True(t, cfg.CommissionPercent.Equal(dec("16")))

	cfg, _ = r.Resolve(ctx, dto.MarketplaceMercadoLivre, day(2024, 1, 1))
	assert.True(t, cfg.CommissionPercent.Equal(dec("17")))
}

func TestResolve_StoreFailureFallsBack(t *testing.T) {
	r := NewResolver(&memPeriods{err: errors.New("db down")}, nil, time.Minute, logger.Discard())
	cfg, err := r.Resolve(context.Background(), dto.MarketplaceShopee, day(2024, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, dto.FeeConfigSourceDefault, cfg.Source)
}

func TestResolve_CacheAndInvalidate(t *testing.T) {
	ctx := context.Background()
	store := adjacentPeriods()
	cache := newMemKV()
	r := NewResolver(store, cache, time.Minute, logger.Discard())

	_, _ = r.Resolve(ctx, "shopee", day(2024, 2, 1))
	_, _ = r.Resolve(ctx, "shopee", day(2024, 8, 1))
	assert.Equal(t, 1, store.lists)

	// 本地过期后由 redis 命中
	now := time.Now()
	r.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, _ = r.Resolve(ctx, "shopee", day(2024, 2, 1))
	assert.Equal(t, 1, store.lists)

	store.rows[1].CommissionPercent = dec("19")
	r.Invalidate(ctx, "shopee")
	cfg, _ := r.Resolve(ctx, "shopee", day(2024, 8, 1))
	assert.Equal(t, 2, store.lists)
	assert.True(t, cfg.CommissionPercent.Equal(dec("19")))
}

func TestResolve_RedisEntryHasTTL(t *testing.T) {
	cache := newMemKV()
	r := NewResolver(adjacentPeriods(), cache, 3*time.Minute, logger.Discard())
	_, _ = r.Resolve(context.Background(), "shopee", day(2024, 2, 1))

	key := rediskey.FeePeriodKey(dto.MarketplaceShopee)
	require.True(t, cache.has(key))
	assert.Equal(t, 3*time.Minute, cache.ttls[key])
}

func TestResolve_InvalidateDuringLoadDiscardsStaleList(t *testing.T) {
	ctx := context.Background()
	store := &gatedPeriods{
		memPeriods: &memPeriods{},
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	cache := newMemKV()
	r := NewResolver(store, cache, time.Minute, logger.Discard())

	done := make(chan dto.FeeConfig)
	go func() {
		cfg, _ := r.Resolve(ctx, "shopee", day(2024, 8, 1))
		done <- cfg
	}()

	<-store.entered
	require.NoError(t, store.Create(ctx, &reconmodel.FeePeriod{
		Marketplace: dto.MarketplaceShopee, ValidFrom: day(2024, 7, 1), CommissionPercent: dec("18"),
	}))
	r.Invalidate(ctx, "shopee")
	close(store.release)

	// 失效前开始的加载仍返回旧结果，但不写入任何缓存
	inflight := <-done
	assert.Equal(t, dto.FeeConfigSourceDefault, inflight.Source)
	assert.False(t, cache.has(rediskey.FeePeriodKey(dto.MarketplaceShopee)))

	cfg, _ := r.Resolve(ctx, "shopee", day(2024, 8, 1))
	assert.Equal(t, dto.FeeConfigSourcePeriod, cfg.Source)
	assert.True(t, cfg.CommissionPercent.Equal(dec("18")))

	// 本地过期后 redis 中也是新列表
	later := time.Now().Add(2 * time.Minute)
	r.now = func() time.Time { return later }
	cfg, _ = r.Resolve(ctx, "shopee", day(2024, 8, 1))
	assert.True(t, cfg.CommissionPercent.Equal(dec("18")))
}

func TestCreatePeriod_RejectsOverlap(t *testing.T) {
	ctx := context.Background()
	store := &memPeriods{}
	r := NewResolver(store, nil, time.Minute, logger.Discard())

	_, err := r.CreatePeriod(ctx, dto.FeePeriodReq{Marketplace: "shopee", ValidFrom: "2024-01-01", ValidTo: "2024-06-30", CommissionPercent: dec("14")}, "admin")
	require.NoError(t, err)

	_, err = r.CreatePeriod(ctx, dto.FeePeriodReq{Marketplace: "shopee", ValidFrom: "2024-06-30", CommissionPercent: dec("18")}, "admin")
	require.Error(t, err)
	assert.ErrorIs(t, err, constant.ErrValidation)
	assert.Equal(t, constant.CodeFeePeriodOverlap, constant.CodeOf(err))

	p, err := r.CreatePeriod(ctx, dto.FeePeriodReq{Marketplace: "shopee", ValidFrom: "2024-07-01", CommissionPercent: dec("18")}, "admin")
	require.NoError(t, err)
	assert.Nil(t, p.ValidTo)

	// 开放区间之后再追加也算重叠
	_, err = r.CreatePeriod(ctx, dto.FeePeriodReq{Marketplace: "shopee", ValidFrom: "2030-01-01"}, "admin")
	assert.ErrorIs(t, err, constant.ErrValidation)
}

func TestCreatePeriod_InvalidatesCache(t *testing.T) {
	ctx := context.Background()
	store := &memPeriods{}
	r := NewResolver(store, newMemKV(), time.Hour, logger.Discard())

	cfg, _ := r.Resolve(ctx, "magalu", day(2024, 5, 1))
	require.Equal(t, dto.FeeConfigSourceDefault, cfg.Source)

	_, err := r.CreatePeriod(ctx, dto.FeePeriodReq{Marketplace: "magalu", ValidFrom: "2024-01-01", CommissionPercent: dec("11")}, "admin")
	require.NoError(t, err)

	cfg, _ = r.Resolve(ctx, "magalu", day(2024, 5, 1))
	assert.Equal(t, dto.FeeConfigSourcePeriod, cfg.Source)
	assert.True(t, cfg.CommissionPercent.Equal(dec("11")))
}

func TestUpdatePeriod(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(adjacentPeriods(), nil, time.Minute, logger.Discard())

	_, err := r.UpdatePeriod(ctx, 99, dto.FeePeriodReq{Marketplace: "shopee", ValidFrom: "2024-01-01"}, "admin")
	assert.ErrorIs(t, err, constant.ErrNotFound)

	// 修改自身不与自身冲突
	p, err := r.UpdatePeriod(ctx, 2, dto.FeePeriodReq{Marketplace: "shopee", ValidFrom: "2024-07-01", CommissionPercent: dec("21")}, "admin")
	require.NoError(t, err)
	assert.True(t, p.CommissionPercent.Equal(dec("21")))

	_, err = r.UpdatePeriod(ctx, 2, dto.FeePeriodReq{Marketplace: "magalu", ValidFrom: "2024-07-01"}, "admin")
	assert.ErrorIs(t, err, constant.ErrValidation)
}

func TestBuildPeriod_CollectsProblems(t *testing.T) {
	_, err := BuildPeriod(dto.FeePeriodReq{
		Marketplace:       "x",
		ValidFrom:         "2024-05-01",
		ValidTo:           "2024-04-01",
		CommissionPercent: dec("120"),
		FixedFeePerOrder:  dec("-1"),
	})
	require.Error(t, err)
	var ce *constant.CustomError
	require.True(t, errors.As(err, &ce))
	problems, ok := ce.Data().([]string)
	require.True(t, ok)
	assert.Len(t, problems, 4)
}

// ---- calculator ----

type staticResolver struct{ cfg dto.FeeConfig }

func (s staticResolver) Resolve(_ context.Context, mp string, _ time.Time) (dto.FeeConfig, error) {
	c := s.cfg
	c.Marketplace = mp
	return c, nil
}

type staticSettings map[string]*dto.MarketplaceSettings

func (s staticSettings) MarketplaceSettings(_ context.Context, mp string) (*dto.MarketplaceSettings, error) {
	return s[mp], nil
}

func baseConfig() dto.FeeConfig {
	return dto.FeeConfig{
		CommissionPercent:  dec("14"),
		ServiceFeePercent:  dec("2"),
		FixedFeePerProduct: dec("4"),
		Source:             dto.FeeConfigSourcePeriod,
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	c := NewCalculator(staticResolver{baseConfig()}, nil, logger.Discard())
	in := dto.FeeInput{Marketplace: "shopee", OrderValue: dec("100"), ProductCount: 1, OrderDate: day(2024, 3, 3),
		Flags: dto.FeeFlags{UsesFreeShipping: boolp(true)}}

	a, err := c.Calculate(context.Background(), in)
	require.NoError(t, err)
	b, err := c.Calculate(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.True(t, a.TotalFees.Equal(a.CommissionFee.Add(a.ServiceFee).Add(a.FixedProductFee)))
	assert.True(t, a.NetValue.Equal(a.GrossValue.Sub(a.TotalFees)))
}

func TestCalculate_FreeShippingIncreasesCommission(t *testing.T) {
	c := NewCalculator(staticResolver{baseConfig()}, nil, logger.Discard())
	in := dto.FeeInput{Marketplace: "shopee", OrderValue: dec("100"), ProductCount: 1, OrderDate: day(2024, 3, 3)}

	in.Flags.UsesFreeShipping = boolp(false)
	off, err := c.Calculate(context.Background(), in)
	require.NoError(t, err)
	in.Flags.UsesFreeShipping = boolp(true)
	on, err := c.Calculate(context.Background(), in)
	require.NoError(t, err)

	assert.True(t, on.CommissionFee.GreaterThan(off.CommissionFee))
	assert.Equal(t, dto.CommissionBasisFreeShipping, on.CommissionBasis)
	assert.Equal(t, dto.CommissionBasisBase, off.CommissionBasis)
}

func TestCalculate_FreeShippingFallsBackToSetting(t *testing.T) {
	fs := dec("22")
	settings := staticSettings{"shopee": {FreeShippingCommission: &fs, ParticipatesInFreeShipping: true}}
	c := NewCalculator(staticResolver{baseConfig()}, settings, logger.Discard())

	out, err := c.Calculate(context.Background(), dto.FeeInput{Marketplace: "shopee", OrderValue: dec("100"), ProductCount: 1, OrderDate: day(2024, 3, 3)})
	require.NoError(t, err)
	assert.True(t, out.CommissionRate.Equal(fs))

	// 显式 false 覆盖全局设置
	out, err = c.Calculate(context.Background(), dto.FeeInput{Marketplace: "shopee", OrderValue: dec("100"), ProductCount: 1, OrderDate: day(2024, 3, 3),
		Flags: dto.FeeFlags{UsesFreeShipping: boolp(false)}})
	require.NoError(t, err)
	assert.True(t, out.CommissionRate.Equal(dec("14")))
}

func TestCalculate_CampaignWindowInclusive(t *testing.T) {
	c := NewCalculator(staticResolver{baseConfig()}, nil, logger.Discard())
	calc := func(at time.Time, campaign bool) dto.FeeBreakdown {
		out, err := c.Calculate(context.Background(), dto.FeeInput{Marketplace: "shopee", OrderValue: dec("100"), ProductCount: 1,
			OrderDate: at, Flags: dto.FeeFlags{IsCampaignOrder: campaign}})
		require.NoError(t, err)
		return out
	}

	for _, at := range []time.Time{day(2024, 11, 1), day(2024, 12, 31), day(2024, 12, 31).Add(23 * time.Hour)} {
		out := calc(at, true)
		require.NotNil(t, out.CampaignRate)
		assert.True(t, out.CampaignRate.Equal(dec("3.5")), at.String())
		assert.True(t, out.InCampaignWindow)
	}

	out := calc(day(2024, 10, 31), true)
	assert.True(t, out.CampaignRate.Equal(dec("2.5")))
	assert.False(t, out.InCampaignWindow)

	out = calc(day(2024, 11, 15), false)
	assert.Nil(t, out.CampaignFee)
	assert.Nil(t, out.CampaignRate)
}

func TestCalculate_NamedCampaignFirst(t *testing.T) {
	s := DefaultSettings("shopee")
	s.Campaigns = []dto.Campaign{
		{Name: "inactive", FeeRate: dec("9"), Start: day(2024, 11, 1), End: day(2024, 11, 30), Active: false},
		{Name: "11.11", FeeRate: dec("6"), Start: day(2024, 11, 11), End: day(2024, 11, 11), Active: true},
	}
	c := NewCalculator(staticResolver{baseConfig()}, staticSettings{"shopee": &s}, logger.Discard())

	out, err := c.Calculate(context.Background(), dto.FeeInput{Marketplace: "shopee", OrderValue: dec("100"), ProductCount: 1,
		OrderDate: day(2024, 11, 11).Add(15 * time.Hour), Flags: dto.FeeFlags{IsCampaignOrder: true}})
	require.NoError(t, err)
	assert.Equal(t, "11.11", out.CampaignName)
	assert.True(t, out.CampaignFee.Equal(dec("6")))

	out, err = c.Calculate(context.Background(), dto.FeeInput{Marketplace: "shopee", OrderValue: dec("100"), ProductCount: 1,
		OrderDate: day(2024, 11, 12), Flags: dto.FeeFlags{IsCampaignOrder: true}})
	require.NoError(t, err)
	assert.Equal(t, "", out.CampaignName)
	assert.True(t, out.CampaignRate.Equal(dec("3.5")))
}

func TestCalculate_EndToEndOverrides(t *testing.T) {
	store := &memPeriods{rows: []reconmodel.FeePeriod{
		{ID: 7, Marketplace: "shopee", ValidFrom: day(2024, 1, 1), CommissionPercent: dec("20")},
	}}
	r := NewResolver(store, nil, time.Minute, logger.Discard())
	c := NewCalculator(r, nil, logger.Discard())

	out, err := c.Calculate(context.Background(), dto.FeeInput{
		Marketplace:  "shopee",
		OrderValue:   dec("86.21"),
		ProductCount: 2,
		OrderDate:    day(2024, 5, 10),
		Flags:        dto.FeeFlags{UsesFreeShipping: boolp(false)},
		Overrides: &dto.FeeOverrides{
			CommissionPercent:  decp("14"),
			FixedFeePerProduct: decp("4"),
		},
	})
	require.NoError(t, err)
	assert.InDelta(t, 20.07, out.TotalFees.InexactFloat64(), 0.01)
	assert.InDelta(t, 66.14, out.NetValue.InexactFloat64(), 0.01)
	assert.ElementsMatch(t, []string{"commission_percent", "fixed_fee_per_product"}, out.Overridden)
	assert.Equal(t, uint64(7), out.PeriodID)
}

func TestCalculate_AmountOverrideBeatsRate(t *testing.T) {
	c := NewCalculator(staticResolver{baseConfig()}, nil, logger.Discard())
	out, err := c.Calculate(context.Background(), dto.FeeInput{Marketplace: "shopee", OrderValue: dec("100"), ProductCount: 1,
		OrderDate: day(2024, 3, 3),
		Overrides: &dto.FeeOverrides{CommissionPercent: decp("10"), CommissionFee: decp("1.23")}})
	require.NoError(t, err)
	assert.True(t, out.CommissionFee.Equal(dec("1.23")))
	assert.True(t, out.CommissionRate.Equal(dec("10")))
	assert.True(t, out.TotalFees.Equal(dec("1.23").Add(out.ServiceFee).Add(out.FixedProductFee)))
}

func TestCalculate_KitCountsOneUnit(t *testing.T) {
	c := NewCalculator(staticResolver{baseConfig()}, nil, logger.Discard())
	out, err := c.Calculate(context.Background(), dto.FeeInput{Marketplace: "shopee", OrderValue: dec("100"), ProductCount: 3, IsKit: true, OrderDate: day(2024, 3, 3)})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Units)
	assert.True(t, out.FixedProductFee.Equal(dec("4")))
}

func TestCalculate_MercadoLivreTiers(t *testing.T) {
	c := NewCalculator(staticResolver{dto.FeeConfig{CommissionPercent: dec("17"), Source: dto.FeeConfigSourceDefault}}, nil, logger.Discard())
	cases := map[string]string{"10": "2.5", "50": "5", "79": "9", "139.99": "9", "140": "13", "500": "13"}
	for gross, want := range cases {
		out, err := c.Calculate(context.Background(), dto.FeeInput{Marketplace: "mercado_livre", OrderValue: dec(gross), ProductCount: 1, OrderDate: day(2024, 3, 3)})
		require.NoError(t, err)
		assert.True(t, out.FixedOrderFee.Equal(dec(want)), "gross %s got %s", gross, out.FixedOrderFee)
	}
}

func TestCalculate_Validation(t *testing.T) {
	c := NewCalculator(staticResolver{baseConfig()}, nil, logger.Discard())
	_, err := c.Calculate(context.Background(), dto.FeeInput{Marketplace: "shopee", OrderValue: dec("-1"), ProductCount: -2})
	assert.ErrorIs(t, err, constant.ErrValidation)
}
