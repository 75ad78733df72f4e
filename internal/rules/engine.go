package rules

import (
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"marketplace-recon-api/internal/dto"
)

// Result 单笔交易的打标结果
type Result struct {
	Tags             []string `json:"tags"`
	IsExpense        bool     `json:"is_expense"`
	IsIncome         bool     `json:"is_income"`
	Skipped          bool     `json:"skipped"`
	FlaggedForReview bool     `json:"flagged_for_review"`
	ReviewNote       string   `json:"review_note,omitempty"`
	Category         string   `json:"category,omitempty"`
	MatchedRules     []string `json:"matched_rules"`
	RulesEvaluated   int      `json:"rules_evaluated"`
}

// Engine 规则集快照只读，Load 整体替换
type Engine struct {
	withSystem        bool
	internalTransfers map[string]struct{}
	log               logrus.FieldLogger

	mu         sync.RWMutex
	strategies []MatchStrategy
}

// NewEngine internalTransfers 为内部转账类交易类型，命中即 skipped
func NewEngine(internalTransfers []string, log logrus.FieldLogger) *Engine {
	e := newEngine(true, internalTransfers, log)
	e.Load(nil)
	return e
}

func newEngine(withSystem bool, internalTransfers []string, log logrus.FieldLogger) *Engine {
	it := make(map[string]struct{}, len(internalTransfers))
	for _, t := range internalTransfers {
		it[NormalizeText(t)] = struct{}{}
	}
	return &Engine{withSystem: withSystem, internalTransfers: it, log: log}
}

// Load 编译内置规则与自定义规则并替换快照；非法的自定义规则跳过并记录
func (e *Engine) Load(custom []Rule) int {
	var compiled []MatchStrategy
	if e.withSystem {
		for _, r := range SystemRules() {
			s, err := Compile(r)
			if err != nil {
				e.log.WithError(err).WithField("rule", r.Name).Error("内置规则编译失败")
				continue
			}
			compiled = append(compiled, s)
		}
	}
	for _, r := range custom {
		r.IsSystemRule = false
		s, err := Compile(r)
		if err != nil {
			e.log.WithError(err).WithFields(logrus.Fields{"rule_id": r.ID, "rule": r.Name}).Warn("自定义规则无效，已跳过")
			continue
		}
		compiled = append(compiled, s)
	}
	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].Rule().Priority > compiled[j].Rule().Priority
	})

	e.mu.Lock()
	e.strategies = compiled
	e.mu.Unlock()
	return len(compiled)
}

// Rules 当前生效规则，按优先级倒序
func (e *Engine) Rules() []Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Rule, 0, len(e.strategies))
	for _, s := range e.strategies {
		out = append(out, s.Rule())
	}
	return out
}

// Process 范围内的每条规则都会被评估，标签取并集，不存在先命中先返回
func (e *Engine) Process(tx dto.TransactionInput, marketplace string) Result {
	e.mu.RLock()
	strategies := e.strategies
	e.mu.RUnlock()

	text := NormalizeText(tx.TransactionDescription + " " + tx.TransactionType)
	res := Result{IsExpense: tx.Amount < 0}

	var tags []string
	expenseRule, incomeRule := false, false
	for _, s := range strategies {
		r := s.Rule()
		if !r.InScope(marketplace) {
			continue
		}
		res.RulesEvaluated++
		if !s.Match(text) {
			continue
		}
		res.MatchedRules = append(res.MatchedRules, r.Name)
		tags = append(tags, r.Tags...)
		if r.MarkExpense {
			expenseRule = true
		}
		if r.MarkIncome {
			incomeRule = true
		}
		if r.Skip {
			res.Skipped = true
		}
		if r.FlagReview {
			res.FlaggedForReview = true
			if res.ReviewNote == "" {
				res.ReviewNote = r.ReviewNote
			}
		}
		if res.Category == "" {
			res.Category = r.Category
		}
	}

	switch {
	case expenseRule:
		res.IsExpense = true
	case incomeRule:
		res.IsExpense = false
		res.IsIncome = true
	}
	if _, ok := e.internalTransfers[NormalizeText(tx.TransactionType)]; ok && strings.TrimSpace(tx.TransactionType) != "" {
		res.Skipped = true
	}
	res.Tags = normalizeTags(tags)
	return res
}
