package constant

// 业务级错误码 (2xxx)

// 订单关联
const (
	CodeLinkNotFound     = 2100 // 关联记录不存在
	CodeLinkConflict     = 2101 // 该平台订单已关联 ERP 订单，需先解除关联
	CodeErpOrderNotFound = 2102 // ERP 订单不存在
	CodeChannelUnknown   = 2103 // ERP 渠道无法映射到平台
	CodeMarketplaceOrder = 2104 // 平台订单索引中不存在该订单
)

// 费率配置
const (
	CodeFeePeriodNotFound  = 2200 // 费率区间不存在
	CodeFeePeriodOverlap   = 2201 // 费率区间与已有区间重叠
	CodeMarketplaceUnknown = 2202 // 未知平台
)

// 规则
const (
	CodeRuleNotFound = 2300 // 规则不存在
	CodeRuleInvalid  = 2301 // 规则校验失败（正则无法编译、优先级为负、标签为空）
)

// 对账相关错误码
const (
	CodeReconProcessFail     = 2800 // 对账处理失败，可重试
	CodeAmbiguousMatch       = 2801 // 启发式匹配存在多个候选，需人工核对
	CodeReconNoData          = 2804 // 暂无对账数据
	CodeToleranceMismatch    = 2805 // 净额与平台结算金额差异超出容差
	CodePaymentRecordMissing = 2806 // 对账记录不存在
)
