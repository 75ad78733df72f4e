package constant

// 平台接口错误码 (3xxx)
const (
	// CodeUpstreamError 平台接口通用错误，重试耗尽后记录到批次错误列表
	CodeUpstreamError = 3000

	// CodeUpstreamTimeout 平台接口超时
	CodeUpstreamTimeout = 3001

	// CodeUpstreamTokenExpired 访问令牌过期，刷新一次后仍失败
	CodeUpstreamTokenExpired = 3004

	// CodeUpstreamRateLimit 平台接口限流
	CodeUpstreamRateLimit = 3008

	// CodeUpstreamCircuitOpen 平台成功率过低，短时熔断
	CodeUpstreamCircuitOpen = 3016
)
