package constant

// 上下文键
const (
	// UserField 认证中间件写入的当前用户ID键
	UserField = "current_user_id"
)

// 请求头
const (
	HeaderUserID    = "X-User-ID"
	HeaderRequestID = "X-Request-ID"
)

// 告警类型
const (
	AlertTypePrivate = "PRIVATE_ALERT"
	AlertTypePublic  = "PUBLIC_ALERT"
)
