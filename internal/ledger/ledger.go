package ledger

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"marketplace-recon-api/internal/constant"
	"marketplace-recon-api/internal/dto"
	"marketplace-recon-api/internal/event"
	"marketplace-recon-api/internal/idgen"
	"marketplace-recon-api/internal/linker"
	erpmodel "marketplace-recon-api/internal/model/erp"
	reconmodel "marketplace-recon-api/internal/model/recon"
	"marketplace-recon-api/internal/rules"
	"marketplace-recon-api/internal/utils"
)

// RecordStore 由 dao.PaymentRecordDao 实现
type RecordStore interface {
	Upsert(ctx context.Context, m *reconmodel.PaymentRecord) (bool, error)
	GetByKey(ctx context.Context, marketplace, mpOrderID string) (*reconmodel.PaymentRecord, error)
	ListByBaseOrder(ctx context.Context, marketplace, baseOrderID string) ([]reconmodel.PaymentRecord, error)
	SumNet(ctx context.Context, erpOrderID string) (decimal.Decimal, int, error)
}

// OrderResolver 由 linker.Service 实现
type OrderResolver interface {
	ResolveForPayment(ctx context.Context, marketplace, mpOrderID string) (*reconmodel.OrderLink, error)
}

type ErpOrders interface {
	Get(ctx context.Context, id string) (*erpmodel.ErpOrder, error)
}

type FeeCalculator interface {
	Calculate(ctx context.Context, in dto.FeeInput) (dto.FeeBreakdown, error)
}

// Tagger 由 rules.Engine 实现
type Tagger interface {
	Process(tx dto.TransactionInput, marketplace string) rules.Result
}

// Alerter 运营告警，由 notify.Telegram 实现
type Alerter interface {
	ToleranceMismatch(ctx context.Context, ev dto.ToleranceMismatchEvent) error
}

type Options struct {
	Tolerance  decimal.Decimal
	BatchSize  int
	BatchDelay time.Duration
}

type Service struct {
	records RecordStore
	links   OrderResolver
	erp     ErpOrders
	calc    FeeCalculator
	tagger  Tagger
	pub     event.Publisher
	alert   Alerter
	newID   idgen.Generator
	now     func() time.Time
	opt     Options
	log     logrus.FieldLogger
}

type Deps struct {
	Records   RecordStore
	Links     OrderResolver
	ErpOrders ErpOrders
	Fees      FeeCalculator
	Tagger    Tagger
	Publisher event.Publisher
	Alerter   Alerter
	NewID     idgen.Generator
}

func NewService(d Deps, opt Options, log logrus.FieldLogger) *Service {
	if opt.Tolerance.IsZero() {
		opt.Tolerance = decimal.RequireFromString("0.05")
	}
	if d.Publisher == nil {
		d.Publisher = event.Nop{}
	}
	return &Service{
		records: d.Records,
		links:   d.Links,
		erp:     d.ErpOrders,
		calc:    d.Fees,
		tagger:  d.Tagger,
		pub:     d.Publisher,
		alert:   d.Alerter,
		newID:   d.NewID,
		now:     time.Now,
		opt:     opt,
		log:     log,
	}
}

// ingestResult 单笔导入结果，用于批次汇总
type ingestResult struct {
	record   *reconmodel.PaymentRecord
	inserted bool
	linked   bool
	mismatch bool
}

// Ingest 单笔结算明细入账；同键重复导入视为更正，原地更新
func (s *Service) Ingest(ctx context.Context, d dto.PaymentDraft) (*reconmodel.PaymentRecord, error) {
	r, err := s.ingest(ctx, d)
	if err != nil {
		return nil, err
	}
	return r.record, nil
}

func validateDraft(d dto.PaymentDraft) error {
	var problems []string
	if !dto.IsKnownMarketplace(d.Marketplace) {
		problems = append(problems, "unknown marketplace: "+d.Marketplace)
	}
	if d.MarketplaceOrderID == "" {
		problems = append(problems, "marketplace_order_id is required")
	}
	if d.Date.IsZero() {
		problems = append(problems, "date is required")
	}
	if d.ProductCount < 0 {
		problems = append(problems, "product_count must be >= 0")
	}
	if len(problems) > 0 {
		return constant.Errorf(constant.CodeInvalidParams, "%s", strings.Join(problems, "; ")).WithData(problems)
	}
	return nil
}

func (s *Service) ingest(ctx context.Context, d dto.PaymentDraft) (ingestResult, error) {
	d.Marketplace = strings.ToLower(strings.TrimSpace(d.Marketplace))
	d.MarketplaceOrderID = strings.TrimSpace(d.MarketplaceOrderID)
	if err := validateDraft(d); err != nil {
		return ingestResult{}, err
	}

	key := d.MarketplaceOrderID
	if kind := KindOf(d); kind != dto.EventKindSale && !hasSuffix(key) {
		k, err := s.nextEventKey(ctx, d, kind)
		if err != nil {
			return ingestResult{}, err
		}
		key = k
	}
	baseID := BaseOrderID(key)
	log := s.log.WithFields(logrus.Fields{"marketplace": d.Marketplace, "marketplace_order_id": key})

	rec := &reconmodel.PaymentRecord{
		ID:                     s.newID(),
		Marketplace:            d.Marketplace,
		MarketplaceOrderID:     key,
		BaseOrderID:            baseID,
		TransactionType:        d.TransactionType,
		TransactionDescription: d.TransactionDescription,
		PaymentDate:            d.Date,
		GrossAmount:            d.GrossAmount,
		NetAmount:              d.NetAmount,
		NetSource:              reconmodel.NetSourceReported,
	}
	if d.ReportedSettlement != nil {
		rec.ReportedSettlement = decimal.NewNullDecimal(*d.ReportedSettlement)
	}

	// 关联 ERP 订单
	var res ingestResult
	if d.ErpOrderID != nil && strings.TrimSpace(*d.ErpOrderID) != "" {
		id := strings.TrimSpace(*d.ErpOrderID)
		rec.ErpOrderID = &id
		rec.MatchConfidence = reconmodel.ConfidenceManual
	} else if s.links != nil {
		link, err := s.links.ResolveForPayment(ctx, d.Marketplace, baseID)
		if err != nil {
			return ingestResult{}, err
		}
		if link != nil {
			id := link.ErpOrderID
			rec.ErpOrderID = &id
			rec.MatchConfidence = link.Confidence
			res.linked = true
		}
	}
	if rec.ErpOrderID != nil {
		t := s.now()
		rec.MatchedAt = &t
	}

	// 费用：平台已报告的优先，否则按费率计算
	if d.Fees != nil {
		fb := *d.Fees
		rec.FeeBreakdown = &fb
		rec.FeeSource = reconmodel.FeeSourceReported
	} else if s.calc != nil && d.GrossAmount.IsPositive() {
		in := dto.FeeInput{
			Marketplace:  d.Marketplace,
			OrderValue:   d.GrossAmount,
			ProductCount: d.ProductCount,
			IsKit:        d.IsKit,
			OrderDate:    d.Date,
			Flags:        d.FeeFlags,
			Overrides:    d.Overrides,
		}
		if rec.ErpOrderID != nil && s.erp != nil {
			o, err := s.erp.Get(ctx, *rec.ErpOrderID)
			if err != nil {
				log.WithError(err).Warn("ERP 订单读取失败，按明细数据计算费用")
			} else if o != nil {
				if o.ProductCount > 0 {
					in.ProductCount = o.ProductCount
				}
				in.OrderDate = o.CreatedAt
			}
		}
		fb, err := s.calc.Calculate(ctx, in)
		if err != nil {
			log.WithError(err).Warn("费用计算失败，记录不含费用明细")
		} else {
			rec.FeeBreakdown = &fb
			rec.FeeSource = reconmodel.FeeSourceCalculated
		}
	}
	if rec.NetAmount.IsZero() && !rec.GrossAmount.IsZero() && rec.FeeBreakdown != nil {
		rec.NetAmount = rec.FeeBreakdown.NetValue
		rec.NetSource = reconmodel.NetSourceCalculated
	}

	// 标签
	amount := rec.NetAmount
	if amount.IsZero() {
		amount = rec.GrossAmount
	}
	tags := s.tagger.Process(dto.TransactionInput{
		MarketplaceOrderID:     key,
		TransactionDescription: d.TransactionDescription,
		TransactionType:        d.TransactionType,
		Amount:                 amount.InexactFloat64(),
	}, d.Marketplace)
	rec.Tags = tags.Tags
	rec.IsExpense = tags.IsExpense
	rec.Skipped = tags.Skipped
	rec.FlaggedForReview = tags.FlaggedForReview
	rec.ReviewNote = tags.ReviewNote
	rec.Category = tags.Category

	inserted, err := s.records.Upsert(ctx, rec)
	if err != nil {
		return ingestResult{}, err
	}
	res.inserted = inserted
	res.record = rec
	if !inserted {
		// 更新时返回库中的记录（id 与创建时间保持不变）
		if stored, err := s.records.GetByKey(ctx, rec.Marketplace, rec.MarketplaceOrderID); err == nil && stored != nil {
			res.record = stored
		}
	}

	if rec.ErpOrderID != nil && d.ReportedSettlement != nil {
		res.mismatch = s.checkTolerance(ctx, rec, *d.ReportedSettlement)
	}
	return res, nil
}

// nextEventKey 未带后缀的非销售事件按已入账的同类事件续编序号；
// 与已入账事件内容一致时视为重复投递，沿用原键
func (s *Service) nextEventKey(ctx context.Context, d dto.PaymentDraft, kind string) (string, error) {
	base := d.MarketplaceOrderID
	stored, err := s.records.ListByBaseOrder(ctx, d.Marketplace, base)
	if err != nil {
		return "", err
	}
	last := 0
	for i := range stored {
		n, ok := eventSeq(stored[i].MarketplaceOrderID, base, kind)
		if !ok {
			continue
		}
		if sameEvent(stored[i], d) {
			return stored[i].MarketplaceOrderID, nil
		}
		if n > last {
			last = n
		}
	}
	return EventKey(base, kind, last+1), nil
}

func sameEvent(r reconmodel.PaymentRecord, d dto.PaymentDraft) bool {
	if !r.PaymentDate.Truncate(time.Second).Equal(d.Date.Truncate(time.Second)) {
		return false
	}
	if !r.GrossAmount.Equal(d.GrossAmount) || r.TransactionDescription != d.TransactionDescription {
		return false
	}
	if d.NetAmount.IsZero() && r.NetSource == reconmodel.NetSourceCalculated {
		return true
	}
	return r.NetAmount.Equal(d.NetAmount)
}

// checkTolerance 净额与平台结算比对；不一致只告警，记录保持原样
func (s *Service) checkTolerance(ctx context.Context, rec *reconmodel.PaymentRecord, reported decimal.Decimal) bool {
	net, n, err := s.records.SumNet(ctx, *rec.ErpOrderID)
	if err != nil {
		s.log.WithError(err).WithField("erp_order_id", *rec.ErpOrderID).Error("净额汇总失败，跳过容差校验")
		return false
	}
	diff := net.Sub(reported)
	if diff.Abs().LessThanOrEqual(s.opt.Tolerance) {
		return false
	}

	ev := dto.ToleranceMismatchEvent{
		ErpOrderID:         *rec.ErpOrderID,
		Marketplace:        rec.Marketplace,
		MarketplaceOrderID: rec.MarketplaceOrderID,
		Computed:           net,
		Reported:           reported,
		Difference:         diff,
		Tolerance:          s.opt.Tolerance,
		DetectedAt:         s.now(),
	}
	s.log.WithFields(logrus.Fields{
		"erp_order_id":         ev.ErpOrderID,
		"marketplace":          ev.Marketplace,
		"marketplace_order_id": ev.MarketplaceOrderID,
		"computed":             net.StringFixed(2),
		"reported":             reported.StringFixed(2),
		"difference":           diff.StringFixed(2),
		"records":              n,
	}).Warn("ToleranceMismatch 净额与平台结算不一致")
	event.PublishAsync(s.pub, s.log, dto.TopicToleranceMismatch, ev)

	if s.alert != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := s.alert.ToleranceMismatch(ctx, ev); err != nil {
				s.log.WithError(err).Warn("对账差异告警发送失败")
			}
		}()
	}
	return true
}

// IngestBatch 读完来源后分批入账，单笔失败计入 Errors 不中断批次
func (s *Service) IngestBatch(ctx context.Context, src StatementSource) (dto.BatchSummary, error) {
	summary := dto.BatchSummary{Errors: []dto.IngestError{}, StartedAt: s.now()}

	var drafts []dto.PaymentDraft
	for {
		d, ok, err := src.Next(ctx)
		if err != nil {
			return summary, err
		}
		if !ok {
			break
		}
		drafts = append(drafts, d)
	}
	drafts = AssignEventKeys(drafts)

	var mu sync.Mutex
	err := utils.RunBatches(ctx, drafts, s.opt.BatchSize, s.opt.BatchDelay, func(ctx context.Context, d dto.PaymentDraft) {
		r, err := s.ingest(ctx, d)

		mu.Lock()
		defer mu.Unlock()
		summary.Processed++
		if err != nil {
			summary.Errors = append(summary.Errors, dto.IngestError{
				Marketplace:        d.Marketplace,
				MarketplaceOrderID: d.MarketplaceOrderID,
				Code:               constant.CodeOf(err),
				Message:            err.Error(),
			})
			return
		}
		if r.inserted {
			summary.Inserted++
		} else {
			summary.Updated++
		}
		if r.linked {
			summary.Linked++
		}
		if r.record.Skipped {
			summary.Skipped++
		}
		if r.mismatch {
			summary.Mismatches++
		}
	})
	summary.FinishedAt = s.now()

	s.log.WithFields(logrus.Fields{
		"processed":  summary.Processed,
		"inserted":   summary.Inserted,
		"updated":    summary.Updated,
		"linked":     summary.Linked,
		"skipped":    summary.Skipped,
		"mismatches": summary.Mismatches,
		"errors":     len(summary.Errors),
	}).Info("结算明细导入完成")
	event.PublishAsync(s.pub, s.log, dto.TopicIngestSummary, summary)
	return summary, err
}

// NetPosition ERP 订单当前净额
func (s *Service) NetPosition(ctx context.Context, erpOrderID string) (dto.NetPosition, error) {
	erpOrderID = strings.TrimSpace(erpOrderID)
	if erpOrderID == "" {
		return dto.NetPosition{}, constant.Errorf(constant.CodeMissingParams, "erp_order_id is required")
	}
	net, n, err := s.records.SumNet(ctx, erpOrderID)
	if err != nil {
		return dto.NetPosition{}, err
	}
	return dto.NetPosition{ErpOrderID: erpOrderID, Net: net, Records: n}, nil
}

var _ OrderResolver = (*linker.Service)(nil)
var _ Tagger = (*rules.Engine)(nil)
