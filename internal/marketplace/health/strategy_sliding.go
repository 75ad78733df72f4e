package health

// 滑动窗口策略，成功加 StepUp，失败减 StepDown
type SlidingStrategy struct {
	StepUp   float64
	StepDown float64
}

func (s *SlidingStrategy) Update(current float64, success bool) float64 {
	if success {
		return clamp(current + s.StepUp)
	}
	return clamp(current - s.StepDown)
}

func clamp(v float64) float64 {
	if v > 100 {
		return 100
	}
	if v < 0 {
		return 0
	}
	return v
}
