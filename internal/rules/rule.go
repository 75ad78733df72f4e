package rules

import (
	"regexp"
	"strings"

	"marketplace-recon-api/internal/dto"
	reconmodel "marketplace-recon-api/internal/model/recon"
)

// ScopeAll 规则或调用方不限平台
const ScopeAll = "all"

// Rule 标签规则定义
type Rule struct {
	ID           uint64   `json:"id,omitempty"`
	Name         string   `json:"name"`
	Pattern      string   `json:"pattern"`
	Tags         []string `json:"tags"`
	Priority     int      `json:"priority"`
	Marketplaces []string `json:"marketplaces,omitempty"`
	MarkExpense  bool     `json:"mark_expense"`
	MarkIncome   bool     `json:"mark_income"`
	Skip         bool     `json:"skip"`
	FlagReview   bool     `json:"flag_review"`
	ReviewNote   string   `json:"review_note,omitempty"`
	Category     string   `json:"category,omitempty"`
	IsSystemRule bool     `json:"is_system_rule"`
}

// InScope 规则未限定平台，或调用方要求全部，或平台在规则范围内
func (r Rule) InScope(marketplace string) bool {
	mp := strings.ToLower(strings.TrimSpace(marketplace))
	if len(r.Marketplaces) == 0 || mp == "" || mp == ScopeAll {
		return true
	}
	for _, m := range r.Marketplaces {
		if m == ScopeAll || m == mp {
			return true
		}
	}
	return false
}

// MatchStrategy 已编译的规则
type MatchStrategy interface {
	Match(text string) bool
	Rule() Rule
}

// SystemRule 内置规则
type SystemRule struct {
	rule Rule
	re   *regexp.Regexp
}

func (s *SystemRule) Match(text string) bool { return s.re.MatchString(text) }
func (s *SystemRule) Rule() Rule             { return s.rule }

// CustomRule 管理员自定义规则
type CustomRule struct {
	rule Rule
	re   *regexp.Regexp
}

func (c *CustomRule) Match(text string) bool { return c.re.MatchString(text) }
func (c *CustomRule) Rule() Rule             { return c.rule }

// Compile 校验并编译规则；匹配时不再编译
func Compile(r Rule) (MatchStrategy, error) {
	if err := ValidateRule(r); err != nil {
		return nil, err
	}
	r.Tags = normalizeTags(r.Tags)
	r.Marketplaces = normalizeScope(r.Marketplaces)
	re := regexp.MustCompile(compilablePattern(r.Pattern))
	if r.IsSystemRule {
		return &SystemRule{rule: r, re: re}, nil
	}
	return &CustomRule{rule: r, re: re}, nil
}

// 模式与匹配文本做同样的去音标处理，并忽略大小写
func compilablePattern(p string) string {
	return "(?i)" + StripDiacritics(p)
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]struct{}{}
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func normalizeScope(mps []string) []string {
	var out []string
	for _, m := range mps {
		m = strings.ToLower(strings.TrimSpace(m))
		if m == ScopeAll {
			return nil
		}
		if m != "" {
			out = append(out, m)
		}
	}
	return out
}

// FromModel 数据库规则 -> 引擎规则
func FromModel(m reconmodel.Rule) Rule {
	return Rule{
		ID:           m.ID,
		Name:         m.Name,
		Pattern:      m.Pattern,
		Tags:         m.Tags,
		Priority:     m.Priority,
		Marketplaces: m.Marketplaces,
		MarkExpense:  m.MarkExpense,
		MarkIncome:   m.MarkIncome,
		Skip:         m.Skip,
		FlagReview:   m.FlagReview,
		ReviewNote:   m.ReviewNote,
		Category:     m.Category,
	}
}

// FromReq 请求 -> 引擎规则
func FromReq(req dto.RuleReq) Rule {
	return Rule{
		Name:         strings.TrimSpace(req.Name),
		Pattern:      req.Pattern,
		Tags:         req.Tags,
		Priority:     req.Priority,
		Marketplaces: req.Marketplaces,
		MarkExpense:  req.MarkExpense,
		MarkIncome:   req.MarkIncome,
		Skip:         req.Skip,
		FlagReview:   req.FlagReview,
		ReviewNote:   req.ReviewNote,
		Category:     req.Category,
	}
}
