package rules

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"marketplace-recon-api/internal/constant"
	"marketplace-recon-api/internal/dto"
	reconmodel "marketplace-recon-api/internal/model/recon"
)

// RuleStore 由 dao.RuleDao 实现
type RuleStore interface {
	ListEnabled(ctx context.Context) ([]reconmodel.Rule, error)
	List(ctx context.Context) ([]reconmodel.Rule, error)
	GetByID(ctx context.Context, id uint64) (*reconmodel.Rule, error)
	Create(ctx context.Context, m *reconmodel.Rule) error
	Save(ctx context.Context, m *reconmodel.Rule) error
}

// Service 自定义规则管理：先校验后落库，落库后重载引擎
type Service struct {
	store  RuleStore
	engine *Engine
	log    logrus.FieldLogger
}

func NewService(store RuleStore, engine *Engine, log logrus.FieldLogger) *Service {
	return &Service{store: store, engine: engine, log: log}
}

func (s *Service) Engine() *Engine { return s.engine }

// Reload 从库中加载启用的规则
func (s *Service) Reload(ctx context.Context) error {
	rows, err := s.store.ListEnabled(ctx)
	if err != nil {
		return err
	}
	custom := make([]Rule, 0, len(rows))
	for _, m := range rows {
		custom = append(custom, FromModel(m))
	}
	n := s.engine.Load(custom)
	s.log.WithFields(logrus.Fields{"custom": len(rows), "active": n}).Info("规则已加载")
	return nil
}

// reloadAfterWrite 写库已成功，重载失败只记日志，引擎保留旧快照
func (s *Service) reloadAfterWrite(ctx context.Context, id uint64) {
	if err := s.Reload(ctx); err != nil {
		s.log.WithError(err).WithField("rule_id", id).Warn("规则重载失败")
	}
}

func applyRule(m *reconmodel.Rule, r Rule) {
	m.Name = r.Name
	m.Pattern = r.Pattern
	m.Tags = normalizeTags(r.Tags)
	m.Priority = r.Priority
	m.Marketplaces = normalizeScope(r.Marketplaces)
	m.MarkExpense = r.MarkExpense
	m.MarkIncome = r.MarkIncome
	m.Skip = r.Skip
	m.FlagReview = r.FlagReview
	m.ReviewNote = r.ReviewNote
	m.Category = r.Category
}

func (s *Service) Create(ctx context.Context, req dto.RuleReq, operator string) (*reconmodel.Rule, error) {
	r := FromReq(req)
	if err := ValidateRule(r); err != nil {
		return nil, err
	}
	m := &reconmodel.Rule{Enabled: true, CreatedBy: operator}
	if req.Enabled != nil {
		m.Enabled = *req.Enabled
	}
	applyRule(m, r)
	if err := s.store.Create(ctx, m); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"rule_id": m.ID, "operator": operator}).Info("规则已新增")
	s.reloadAfterWrite(ctx, m.ID)
	return m, nil
}

func (s *Service) Update(ctx context.Context, id uint64, req dto.RuleReq, operator string) (*reconmodel.Rule, error) {
	m, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, constant.NewError(constant.CodeRuleNotFound)
	}
	r := FromReq(req)
	if err := ValidateRule(r); err != nil {
		return nil, err
	}
	applyRule(m, r)
	if req.Enabled != nil {
		m.Enabled = *req.Enabled
	}
	m.UpdatedAt = time.Now()
	if err := s.store.Save(ctx, m); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"rule_id": m.ID, "operator": operator}).Info("规则已修改")
	s.reloadAfterWrite(ctx, m.ID)
	return m, nil
}

// Disable 规则只停用不删除
func (s *Service) Disable(ctx context.Context, id uint64, operator string) error {
	m, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if m == nil {
		return constant.NewError(constant.CodeRuleNotFound)
	}
	if !m.Enabled {
		return nil
	}
	m.Enabled = false
	if err := s.store.Save(ctx, m); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"rule_id": m.ID, "operator": operator}).Info("规则已停用")
	s.reloadAfterWrite(ctx, m.ID)
	return nil
}

// RuleList 内置规则与自定义规则
type RuleList struct {
	System []Rule            `json:"system"`
	Custom []reconmodel.Rule `json:"custom"`
}

func (s *Service) List(ctx context.Context) (RuleList, error) {
	rows, err := s.store.List(ctx)
	if err != nil {
		return RuleList{}, err
	}
	return RuleList{System: SystemRules(), Custom: rows}, nil
}

// Process 当前快照打标
func (s *Service) Process(tx dto.TransactionInput, marketplace string) Result {
	return s.engine.Process(tx, marketplace)
}

// Test 候选规则试跑
func (s *Service) Test(req dto.RuleTestReq) (TestResult, error) {
	return TestRule(FromReq(req.Rule), req.Samples, req.Marketplace, s.log)
}
