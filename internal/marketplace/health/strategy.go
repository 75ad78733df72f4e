package health

import "strings"

type SuccessRateStrategy interface {
	Update(current float64, success bool) float64
}

// NewStrategy 按名称选择策略，未知名称使用 EWMA
func NewStrategy(name string, alpha float64) SuccessRateStrategy {
	switch strings.ToLower(name) {
	case "decay":
		return &DecayStrategy{Factor: 1 - alpha}
	case "sliding":
		return &SlidingStrategy{StepUp: alpha * 50, StepDown: alpha * 100}
	default:
		return &EWMAStrategy{Alpha: alpha}
	}
}
