package health

// 趋势平滑，rate = alpha*本次 + (1-alpha)*历史
type EWMAStrategy struct {
	Alpha float64 // e.g. 0.2
}

func (e *EWMAStrategy) Update(current float64, success bool) float64 {
	var value float64
	if success {
		value = 100
	}
	return e.Alpha*value + (1-e.Alpha)*current
}
