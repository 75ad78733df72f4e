package linker

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"marketplace-recon-api/internal/constant"
	"marketplace-recon-api/internal/dto"
	erpmodel "marketplace-recon-api/internal/model/erp"
	reconmodel "marketplace-recon-api/internal/model/recon"
)

type outcome int

const (
	outcomeLinked outcome = iota
	outcomeAlreadyLinked
	outcomeNotFound
	outcomeAmbiguous
	outcomeError
)

type result struct {
	outcome   outcome
	link      *reconmodel.OrderLink
	ambiguous *dto.AmbiguousMatch
	err       error
}

// Strategy 关联策略，两种策略产出同样的 OrderLink，只有 confidence 不同
type Strategy interface {
	Name() string
	Applicable(o erpmodel.ErpOrder) bool
	Link(ctx context.Context, o erpmodel.ErpOrder, mp string) result
}

// ExactStrategy ERP 订单带有外部单号时，按单号在平台索引中精确查找
type ExactStrategy struct {
	svc *Service
}

func (s *ExactStrategy) Name() string { return reconmodel.ConfidenceExact }

func (s *ExactStrategy) Applicable(o erpmodel.ErpOrder) bool {
	return o.ExternalOrderID != nil && strings.TrimSpace(*o.ExternalOrderID) != ""
}

func (s *ExactStrategy) Link(ctx context.Context, o erpmodel.ErpOrder, mp string) result {
	id := NormalizeOrderID(mp, *o.ExternalOrderID)
	existing, err := s.svc.links.GetByMarketplaceOrder(ctx, mp, id)
	if err != nil {
		return result{outcome: outcomeError, err: err}
	}
	if existing != nil {
		return result{outcome: outcomeAlreadyLinked, link: existing}
	}

	idx, err := s.svc.index(mp)
	if err != nil {
		return result{outcome: outcomeError, err: err}
	}
	mo, err := idx.Get(ctx, id)
	if err != nil {
		return result{outcome: outcomeError, err: err}
	}
	if mo == nil {
		return result{outcome: outcomeNotFound}
	}
	return s.svc.createAuto(ctx, mp, id, o.ID, reconmodel.ConfidenceExact)
}

// HeuristicStrategy 无外部单号时按金额与创建时间匹配，仅唯一候选时关联
type HeuristicStrategy struct {
	svc     *Service
	epsilon decimal.Decimal
	window  time.Duration
}

func (s *HeuristicStrategy) Name() string { return reconmodel.ConfidenceHeuristic }

func (s *HeuristicStrategy) Applicable(o erpmodel.ErpOrder) bool {
	return true
}

func (s *HeuristicStrategy) Link(ctx context.Context, o erpmodel.ErpOrder, mp string) result {
	// 已有关联的 ERP 订单不再重新评估
	prior, err := s.svc.links.ListByErpOrder(ctx, o.ID)
	if err != nil {
		return result{outcome: outcomeError, err: err}
	}
	for i := range prior {
		if prior[i].Marketplace == mp {
			return result{outcome: outcomeAlreadyLinked, link: &prior[i]}
		}
	}

	idx, err := s.svc.index(mp)
	if err != nil {
		return result{outcome: outcomeError, err: err}
	}
	candidates, err := idx.FindCandidates(ctx, o.TotalValue, s.epsilon, o.CreatedAt.Add(-s.window), o.CreatedAt.Add(s.window))
	if err != nil {
		return result{outcome: outcomeError, err: err}
	}

	// 先按金额与时间窗口计数，已被关联的候选同样计入
	var matched []string
	for _, c := range candidates {
		if c.TotalAmount.Sub(o.TotalValue).Abs().GreaterThan(s.epsilon) {
			continue
		}
		if d := c.CreatedAt.Sub(o.CreatedAt); d > s.window || d < -s.window {
			continue
		}
		matched = append(matched, NormalizeOrderID(mp, c.ID))
	}

	switch len(matched) {
	case 0:
		return result{outcome: outcomeNotFound}
	case 1:
		l, err := s.svc.links.GetByMarketplaceOrder(ctx, mp, matched[0])
		if err != nil {
			return result{outcome: outcomeError, err: err}
		}
		if l != nil {
			// 唯一候选已属于其他 ERP 订单
			return result{outcome: outcomeNotFound}
		}
		return s.svc.createAuto(ctx, mp, matched[0], o.ID, reconmodel.ConfidenceHeuristic)
	default:
		am := &dto.AmbiguousMatch{ErpOrderID: o.ID, Marketplace: mp, CandidateIDs: matched}
		return result{
			outcome:   outcomeAmbiguous,
			ambiguous: am,
			err:       constant.Errorf(constant.CodeAmbiguousMatch, "ERP 订单 %s 有 %d 个候选", o.ID, len(matched)).WithData(am),
		}
	}
}
