package alert

import (
	"go.uber.org/zap"

	"GuardLink/pkg/logger"
)

// Spawner 后台任务启动函数，测试中可注入同步实现
type Spawner func(name string, fn func())

// Detach 启动带独立错误边界的后台任务
//
// 任务从不被调用方join，panic与错误只记日志，
// 保证主链路的响应时间不受副作用影响
func Detach(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("detached task panicked",
					zap.String("task", name),
					zap.Any("panic", r))
			}
		}()
		fn()
	}()
}
