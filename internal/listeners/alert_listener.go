package listeners

import (
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"GuardLink/internal/alert"
	"GuardLink/internal/models"
	"GuardLink/pkg/logger"
	"GuardLink/pkg/util"
)

// RegisterAlertListeners 注册告警事件监听器，进程启动时调用一次
func RegisterAlertListeners() {
	util.Sig().Connect(models.SigAlertTriggered, onAlertTriggered)
}

// onAlertTriggered 告警触发后的审计日志
// 告警载荷本身不落库，这条结构化日志就是事后追溯的依据
func onAlertTriggered(sender any, params ...any) {
	payload, ok := sender.(alert.Payload)
	if !ok {
		return
	}

	resolved, delivered := 0, 0
	if len(params) > 0 {
		resolved = cast.ToInt(params[0])
	}
	if len(params) > 1 {
		delivered = cast.ToInt(params[1])
	}

	logger.Info("alert audit",
		zap.String("type", payload.Type),
		zap.String("origin", payload.UserID),
		zap.Float64("latitude", payload.Latitude),
		zap.Float64("longitude", payload.Longitude),
		zap.String("triggered_at", payload.Timestamp),
		zap.Int("recipients_resolved", resolved),
		zap.Int("realtime_delivered", delivered))
}
