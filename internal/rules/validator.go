package rules

import (
	"regexp"
	"strings"

	"marketplace-recon-api/internal/constant"
	"marketplace-recon-api/internal/dto"
)

// ValidateRule 规则生效前校验，所有问题一次性返回；后台接口复用同一函数
func ValidateRule(r Rule) error {
	var problems []string
	if strings.TrimSpace(r.Name) == "" {
		problems = append(problems, "name is required")
	}
	if strings.TrimSpace(r.Pattern) == "" {
		problems = append(problems, "pattern is required")
	} else if _, err := regexp.Compile(compilablePattern(r.Pattern)); err != nil {
		problems = append(problems, "pattern does not compile: "+err.Error())
	}
	if r.Priority < 0 {
		problems = append(problems, "priority must be >= 0")
	}
	if len(normalizeTags(r.Tags)) == 0 {
		problems = append(problems, "at least one non-blank tag is required")
	}
	if r.MarkExpense && r.MarkIncome {
		problems = append(problems, "mark_expense and mark_income are exclusive")
	}
	for _, m := range normalizeScope(r.Marketplaces) {
		if !dto.IsKnownMarketplace(m) {
			problems = append(problems, "unknown marketplace: "+m)
		}
	}
	if len(problems) > 0 {
		return constant.Errorf(constant.CodeRuleInvalid, "%s", strings.Join(problems, "; ")).WithData(problems)
	}
	return nil
}
