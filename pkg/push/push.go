package push

import (
	"context"
	"strings"
)

// Message 单条推送消息
type Message struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Sound string            `json:"sound,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

// Outcome 单条消息的投递结果
type Outcome struct {
	Status  string `json:"status"` // "ok" 或 "error"
	Message string `json:"message,omitempty"`
}

// Provider 推送服务商客户端，便于替换/注入（适配真实 SDK）
type Provider interface {
	// SendBatch 批量发送，按输入顺序返回逐条结果
	SendBatch(ctx context.Context, messages []Message) ([]Outcome, error)
}

// 客户端无原生推送能力时上报的占位令牌
const placeholderToken = "unknown"

// tokenPrefix Expo推送令牌前缀
const tokenPrefix = "ExponentPushToken["

// ValidToken 校验推送令牌形态
// 空值、占位值与不带服务商前缀的值都视为不可用，调用方静默跳过
func ValidToken(token string) bool {
	token = strings.TrimSpace(token)
	if token == "" || strings.EqualFold(token, placeholderToken) || strings.EqualFold(token, "null") {
		return false
	}
	return strings.HasPrefix(token, tokenPrefix) && strings.HasSuffix(token, "]")
}
