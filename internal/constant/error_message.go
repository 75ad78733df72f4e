package constant

// ErrorInfo 错误信息结构
type ErrorInfo struct {
	CN string `json:"cn"` // 中文错误信息
	EN string `json:"en"` // 英文错误信息
}

// ErrorMessages 错误信息映射
var ErrorMessages = map[int]ErrorInfo{
	// 系统错误
	CodeSuccess:            {"操作成功", "Success"},
	CodeSystemError:        {"系统错误", "System error"},
	CodeDatabaseError:      {"数据库错误", "Database error"},
	CodeRedisError:         {"缓存错误", "Cache error"},
	CodeMQError:            {"消息发布失败", "Message publish failed"},
	CodeServiceUnavailable: {"服务暂不可用", "Service unavailable"},
	CodeTimeout:            {"处理超时", "Timeout"},

	// 参数错误
	CodeInvalidParams:     {"参数校验失败", "Validation failed"},
	CodeMissingParams:     {"缺少必要参数", "Missing parameters"},
	CodeParamsFormatError: {"参数格式错误", "Invalid parameter format"},
	CodeParamsRangeError:  {"参数超出范围", "Parameter out of range"},
	CodeNotFound:          {"资源不存在", "Not found"},

	// 认证
	CodeUnauthorized: {"未授权访问", "Unauthorized"},
	CodeAccessDenied: {"访问被拒绝", "Access denied"},

	// 订单关联
	CodeLinkNotFound:     {"关联记录不存在", "Order link not found"},
	CodeLinkConflict:     {"平台订单已关联，请先解除关联", "Order already linked"},
	CodeErpOrderNotFound: {"ERP 订单不存在", "ERP order not found"},
	CodeChannelUnknown:   {"无法识别的销售渠道", "Unknown sales channel"},
	CodeMarketplaceOrder: {"平台订单不存在", "Marketplace order not found"},

	// 费率
	CodeFeePeriodNotFound:  {"费率区间不存在", "Fee period not found"},
	CodeFeePeriodOverlap:   {"费率区间与已有区间重叠", "Fee period overlaps an existing period"},
	CodeMarketplaceUnknown: {"未知平台", "Unknown marketplace"},

	// 规则
	CodeRuleNotFound: {"规则不存在", "Rule not found"},
	CodeRuleInvalid:  {"规则校验失败", "Invalid rule"},

	// 对账
	CodeReconProcessFail:     {"对账处理失败", "Reconciliation failed"},
	CodeAmbiguousMatch:       {"存在多个候选订单，需人工核对", "Ambiguous match"},
	CodeReconNoData:          {"暂无对账数据", "No reconciliation data"},
	CodeToleranceMismatch:    {"净额与结算金额不一致", "Net position mismatch"},
	CodePaymentRecordMissing: {"对账记录不存在", "Payment record not found"},

	// 平台接口
	CodeUpstreamError:        {"平台接口错误", "Marketplace API error"},
	CodeUpstreamTimeout:      {"平台接口超时", "Marketplace API timeout"},
	CodeUpstreamTokenExpired: {"平台令牌失效", "Marketplace credential expired"},
	CodeUpstreamRateLimit:    {"平台接口限流", "Marketplace API rate limited"},
	CodeUpstreamCircuitOpen:  {"平台接口熔断中", "Marketplace API circuit open"},
}
