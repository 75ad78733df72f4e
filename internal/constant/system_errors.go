package constant

// 系统级错误码 (1xxx)
const (
	CodeSuccess            = 0    // 操作成功
	CodeSystemError        = 1000 // 系统内部错误
	CodeDatabaseError      = 1001 // 数据库操作失败，包括连接失败、查询错误、唯一键冲突以外的写入异常
	CodeRedisError         = 1002 // Redis 缓存读写失败，缓存失败不影响费率计算正确性
	CodeMQError            = 1003 // RabbitMQ 发布失败
	CodeServiceUnavailable = 1004 // 服务暂时不可用
	CodeTimeout            = 1005 // 请求处理超时
)

// 参数错误码
const (
	CodeInvalidParams     = 1100 // 参数校验失败，规则/费率区间/导入明细在持久化前被拒绝
	CodeMissingParams     = 1101 // 缺少必要参数
	CodeParamsFormatError = 1102 // 参数格式错误（日期、金额）
	CodeParamsRangeError  = 1104 // 参数范围错误（百分比、优先级、回溯天数）
	CodeNotFound          = 1105 // 资源不存在，具体资源见 2xxx 子码
)

// 认证错误码
const (
	CodeUnauthorized = 1200 // 内部接口 token 缺失或错误
	CodeAccessDenied = 1204 // 来源 IP 不在内网白名单
)
