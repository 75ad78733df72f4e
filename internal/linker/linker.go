package linker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"marketplace-recon-api/internal/constant"
	"marketplace-recon-api/internal/dto"
	"marketplace-recon-api/internal/event"
	"marketplace-recon-api/internal/idgen"
	"marketplace-recon-api/internal/marketplace"
	erpmodel "marketplace-recon-api/internal/model/erp"
	reconmodel "marketplace-recon-api/internal/model/recon"
	"marketplace-recon-api/internal/utils"
)

// LinkStore 由 dao.OrderLinkDao 实现
type LinkStore interface {
	GetByMarketplaceOrder(ctx context.Context, marketplace, mpOrderID string) (*reconmodel.OrderLink, error)
	ListByErpOrder(ctx context.Context, erpOrderID string) ([]reconmodel.OrderLink, error)
	Create(ctx context.Context, m *reconmodel.OrderLink) error
	Delete(ctx context.Context, id uint64) error
}

// ErpOrderIndex ERP 订单只读索引，由 dao.ErpOrderDao 实现
type ErpOrderIndex interface {
	Get(ctx context.Context, id string) (*erpmodel.ErpOrder, error)
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]erpmodel.ErpOrder, error)
	FindByExternalID(ctx context.Context, externalIDs []string) (*erpmodel.ErpOrder, error)
}

type Options struct {
	Epsilon         decimal.Decimal
	Window          time.Duration
	DefaultDaysBack int
	BatchSize       int
	BatchDelay      time.Duration
}

const (
	maxDaysBack   = 90
	linkedByAuto  = "auto_link"
	linkedByRecon = "ledger"
)

type Service struct {
	links   LinkStore
	erp     ErpOrderIndex
	indexes map[string]marketplace.OrderIndex
	pub     event.Publisher
	newID   idgen.Generator
	now     func() time.Time
	opt     Options
	log     logrus.FieldLogger

	exact     Strategy
	heuristic Strategy

	// OnAmbiguous 多候选待人工处理时回调，可为空
	OnAmbiguous func(m dto.AmbiguousMatch)
}

func NewService(links LinkStore, erp ErpOrderIndex, indexes map[string]marketplace.OrderIndex, pub event.Publisher, newID idgen.Generator, opt Options, log logrus.FieldLogger) *Service {
	if opt.Epsilon.IsZero() {
		opt.Epsilon = decimal.RequireFromString("0.01")
	}
	if opt.Window <= 0 {
		opt.Window = 36 * time.Hour
	}
	if opt.DefaultDaysBack <= 0 {
		opt.DefaultDaysBack = 7
	}
	if pub == nil {
		pub = event.Nop{}
	}
	s := &Service{
		links:   links,
		erp:     erp,
		indexes: indexes,
		pub:     pub,
		newID:   newID,
		now:     time.Now,
		opt:     opt,
		log:     log,
	}
	s.exact = &ExactStrategy{svc: s}
	s.heuristic = &HeuristicStrategy{svc: s, epsilon: opt.Epsilon, window: opt.Window}
	return s
}

func (s *Service) index(mp string) (marketplace.OrderIndex, error) {
	idx, ok := s.indexes[mp]
	if !ok || idx == nil {
		return nil, constant.Errorf(constant.CodeUpstreamError, "%s 未配置订单接口", mp)
	}
	return idx, nil
}

func validConfidence(c string) bool {
	switch c {
	case reconmodel.ConfidenceExact, reconmodel.ConfidenceHeuristic, reconmodel.ConfidenceManual:
		return true
	}
	return false
}

// Link 手工关联；已存在的关联是权威的，须先解除
func (s *Service) Link(ctx context.Context, req dto.LinkReq, linkedBy string) (*reconmodel.OrderLink, error) {
	mp := strings.ToLower(strings.TrimSpace(req.Marketplace))
	mpOrderID := NormalizeOrderID(mp, req.MarketplaceOrderID)
	erpID := strings.TrimSpace(req.ErpOrderID)
	confidence := req.Confidence
	if confidence == "" {
		confidence = reconmodel.ConfidenceManual
	}

	var problems []string
	if !dto.IsKnownMarketplace(mp) {
		problems = append(problems, "unknown marketplace: "+req.Marketplace)
	}
	if mpOrderID == "" {
		problems = append(problems, "marketplace_order_id is required")
	}
	if erpID == "" {
		problems = append(problems, "erp_order_id is required")
	}
	if !validConfidence(confidence) {
		problems = append(problems, "confidence must be exact, heuristic or manual")
	}
	if len(problems) > 0 {
		return nil, constant.Errorf(constant.CodeInvalidParams, "%s", strings.Join(problems, "; ")).WithData(problems)
	}

	existing, err := s.links.GetByMarketplaceOrder(ctx, mp, mpOrderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, constant.Errorf(constant.CodeLinkConflict, "%s/%s 已关联 ERP 订单 %s", mp, mpOrderID, existing.ErpOrderID).WithData(existing)
	}

	o, err := s.erp.Get(ctx, erpID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, constant.Errorf(constant.CodeErpOrderNotFound, "ERP 订单不存在: %s", erpID)
	}

	link := &reconmodel.OrderLink{
		ID:                 s.newID(),
		Marketplace:        mp,
		MarketplaceOrderID: mpOrderID,
		ErpOrderID:         erpID,
		Confidence:         confidence,
		LinkedBy:           linkedBy,
		Notes:              req.Notes,
	}
	if err := s.links.Create(ctx, link); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"marketplace": mp, "marketplace_order_id": mpOrderID, "erp_order_id": erpID,
		"confidence": confidence, "linked_by": linkedBy,
	}).Info("订单已关联")
	return link, nil
}

// Unlink 只删除关联，订单与结算记录不动
func (s *Service) Unlink(ctx context.Context, linkID uint64, operator string) error {
	if err := s.links.Delete(ctx, linkID); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"link_id": linkID, "operator": operator}).Info("订单关联已解除")
	return nil
}

// createAuto 自动关联写入；并发写入同一平台订单时以唯一键冲突为准
func (s *Service) createAuto(ctx context.Context, mp, mpOrderID, erpID, confidence string) result {
	link := &reconmodel.OrderLink{
		ID:                 s.newID(),
		Marketplace:        mp,
		MarketplaceOrderID: mpOrderID,
		ErpOrderID:         erpID,
		Confidence:         confidence,
		LinkedBy:           linkedByAuto,
	}
	err := s.links.Create(ctx, link)
	if errors.Is(err, constant.ErrLinkConflict) {
		existing, gerr := s.links.GetByMarketplaceOrder(ctx, mp, mpOrderID)
		if gerr != nil {
			return result{outcome: outcomeError, err: gerr}
		}
		return result{outcome: outcomeAlreadyLinked, link: existing}
	}
	if err != nil {
		return result{outcome: outcomeError, err: err}
	}
	return result{outcome: outcomeLinked, link: link}
}

// linkOne 精确策略优先，启发式只在没有外部单号时使用
func (s *Service) linkOne(ctx context.Context, o erpmodel.ErpOrder, mp string) result {
	if s.exact.Applicable(o) {
		return s.exact.Link(ctx, o, mp)
	}
	return s.heuristic.Link(ctx, o, mp)
}

// AutoLink 回溯 daysBack 天内的 ERP 订单并尝试关联；单笔失败只计入 errors
func (s *Service) AutoLink(ctx context.Context, mpFilter *string, daysBack int) (dto.AutoLinkSummary, error) {
	if daysBack <= 0 {
		daysBack = s.opt.DefaultDaysBack
	}
	if daysBack > maxDaysBack {
		return dto.AutoLinkSummary{}, constant.Errorf(constant.CodeParamsRangeError, "days_back 不能超过 %d", maxDaysBack)
	}
	filter := ""
	if mpFilter != nil && strings.TrimSpace(*mpFilter) != "" {
		filter = strings.ToLower(strings.TrimSpace(*mpFilter))
		if !dto.IsKnownMarketplace(filter) {
			return dto.AutoLinkSummary{}, constant.Errorf(constant.CodeMarketplaceUnknown, "未知平台: %s", *mpFilter)
		}
	}

	now := s.now()
	summary := dto.AutoLinkSummary{
		Marketplace: filter,
		DaysBack:    daysBack,
		Errors:      []dto.LinkError{},
		Ambiguous:   []dto.AmbiguousMatch{},
		StartedAt:   now,
	}

	orders, err := s.erp.ListCreatedBetween(ctx, now.AddDate(0, 0, -daysBack), now)
	if err != nil {
		return summary, err
	}

	var mu sync.Mutex
	err = utils.RunBatches(ctx, orders, s.opt.BatchSize, s.opt.BatchDelay, func(ctx context.Context, o erpmodel.ErpOrder) {
		mp, ok := MarketplaceForChannel(o.Channel)
		if filter != "" && (!ok || mp != filter) {
			return
		}

		var r result
		if !ok {
			r = result{outcome: outcomeNotFound}
		} else {
			r = s.linkOne(ctx, o, mp)
		}

		mu.Lock()
		defer mu.Unlock()
		summary.TotalProcessed++
		switch r.outcome {
		case outcomeLinked:
			summary.TotalLinked++
		case outcomeAlreadyLinked:
			summary.TotalAlreadyLinked++
		case outcomeNotFound:
			summary.TotalNotFound++
		case outcomeAmbiguous:
			summary.TotalAmbiguous++
			summary.Ambiguous = append(summary.Ambiguous, *r.ambiguous)
			event.PublishAsync(s.pub, s.log, dto.TopicAmbiguousMatch, r.ambiguous)
			if s.OnAmbiguous != nil {
				s.OnAmbiguous(*r.ambiguous)
			}
		case outcomeError:
			summary.Errors = append(summary.Errors, dto.LinkError{
				ErpOrderID: o.ID,
				Code:       constant.CodeOf(r.err),
				Message:    r.err.Error(),
			})
		}
	})
	summary.FinishedAt = s.now()

	s.log.WithFields(logrus.Fields{
		"marketplace":    filter,
		"days_back":      daysBack,
		"processed":      summary.TotalProcessed,
		"linked":         summary.TotalLinked,
		"already_linked": summary.TotalAlreadyLinked,
		"not_found":      summary.TotalNotFound,
		"ambiguous":      summary.TotalAmbiguous,
		"errors":         len(summary.Errors),
	}).Info("自动关联完成")
	event.PublishAsync(s.pub, s.log, dto.TopicAutoLinkSummary, summary)
	return summary, err
}

// ResolveForPayment 结算明细入账时查找关联；没有关联时按外部单号反查 ERP 订单并建立精确关联
func (s *Service) ResolveForPayment(ctx context.Context, mp, mpOrderID string) (*reconmodel.OrderLink, error) {
	mp = strings.ToLower(strings.TrimSpace(mp))
	id := NormalizeOrderID(mp, mpOrderID)
	if id == "" {
		return nil, nil
	}
	link, err := s.links.GetByMarketplaceOrder(ctx, mp, id)
	if err != nil || link != nil {
		return link, err
	}

	o, err := s.erp.FindByExternalID(ctx, externalIDVariants(mp, id))
	if err != nil || o == nil {
		return nil, err
	}
	link = &reconmodel.OrderLink{
		ID:                 s.newID(),
		Marketplace:        mp,
		MarketplaceOrderID: id,
		ErpOrderID:         o.ID,
		Confidence:         reconmodel.ConfidenceExact,
		LinkedBy:           linkedByRecon,
	}
	err = s.links.Create(ctx, link)
	if errors.Is(err, constant.ErrLinkConflict) {
		return s.links.GetByMarketplaceOrder(ctx, mp, id)
	}
	if err != nil {
		return nil, err
	}
	return link, nil
}
