package alert

import "context"

// Recorder 告警留痕钩子
//
// 是否为审计/分析持久化每次告警尚无定论，当前实现不落库，
// 钩子保留给将来接入
type Recorder interface {
	Record(ctx context.Context, payload Payload, recipientCount int) error
}

// NopRecorder 默认的空实现
type NopRecorder struct{}

// Record 什么都不做
func (NopRecorder) Record(ctx context.Context, payload Payload, recipientCount int) error {
	return nil
}
