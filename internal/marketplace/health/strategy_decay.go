package health

// 衰减策略，每次失败按 Factor 衰减，成功保持
type DecayStrategy struct {
	Factor float64 // e.g. 0.8
}

func (d *DecayStrategy) Update(current float64, success bool) float64 {
	if success {
		return current
	}
	return clamp(current * d.Factor)
}
