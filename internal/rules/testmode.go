package rules

import (
	"github.com/sirupsen/logrus"

	"marketplace-recon-api/internal/dto"
)

// SampleResult 试跑单条结果
type SampleResult struct {
	Transaction dto.TransactionInput `json:"transaction"`
	Matched     bool                 `json:"matched"`
	Tags        []string             `json:"tags"`
}

type TestResult struct {
	Results    []SampleResult `json:"results"`
	MatchCount int            `json:"match_count"`
	Total      int            `json:"total"`
	MatchRate  float64        `json:"match_rate"`
}

// TestRule 只装载候选规则（不含内置规则）对样本试跑
func TestRule(r Rule, samples []dto.TransactionInput, marketplace string, log logrus.FieldLogger) (TestResult, error) {
	if err := ValidateRule(r); err != nil {
		return TestResult{}, err
	}
	e := newEngine(false, nil, log)
	e.Load([]Rule{r})

	out := TestResult{Total: len(samples), Results: make([]SampleResult, 0, len(samples))}
	for _, tx := range samples {
		res := e.Process(tx, marketplace)
		matched := len(res.MatchedRules) > 0
		if matched {
			out.MatchCount++
		}
		out.Results = append(out.Results, SampleResult{Transaction: tx, Matched: matched, Tags: res.Tags})
	}
	if out.Total > 0 {
		out.MatchRate = float64(out.MatchCount) / float64(out.Total)
	}
	return out, nil
}
