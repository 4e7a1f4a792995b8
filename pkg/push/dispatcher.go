package push

import (
	"context"

	"go.uber.org/zap"

	"GuardLink/pkg/logger"
)

// 服务商单次请求允许的最大消息数
const defaultBatchSize = 100

// Dispatcher 推送分发器
//
// 推送是备份通道：没有重试，一批失败只影响这一批，
// 失败的消息永久丢失，调用方不感知投递结果
type Dispatcher struct {
	provider  Provider
	batchSize int
}

// NewDispatcher 创建推送分发器
func NewDispatcher(provider Provider, batchSize int) *Dispatcher {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Dispatcher{provider: provider, batchSize: batchSize}
}

// Send 发送单条推送，令牌不可用时静默跳过
func (d *Dispatcher) Send(ctx context.Context, token, title, body string, data map[string]string) {
	d.Dispatch(ctx, []Message{{To: token, Title: title, Body: body, Sound: "default", Data: data}})
}

// Dispatch 过滤无效令牌后分批发送，返回实际尝试投递的消息数
//
// 形态不合法的令牌在进入服务商客户端之前就被丢弃，不算错误
func (d *Dispatcher) Dispatch(ctx context.Context, messages []Message) int {
	if d.provider == nil {
		logger.Warn("push provider not configured, dropping messages",
			zap.Int("count", len(messages)))
		return 0
	}

	eligible := make([]Message, 0, len(messages))
	for _, m := range messages {
		if !ValidToken(m.To) {
			continue
		}
		eligible = append(eligible, m)
	}
	if len(eligible) == 0 {
		return 0
	}

	attempted := 0
	for start := 0; start < len(eligible); start += d.batchSize {
		end := start + d.batchSize
		if end > len(eligible) {
			end = len(eligible)
		}
		batch := eligible[start:end]

		// 一批失败不阻止后续批次
		outcomes, err := d.provider.SendBatch(ctx, batch)
		if err != nil {
			logger.Error("push batch failed",
				zap.Int("batch_size", len(batch)),
				zap.Error(err))
			continue
		}
		attempted += len(batch)

		for i, outcome := range outcomes {
			if outcome.Status != "" && outcome.Status != "ok" {
				logger.Warn("push message rejected by provider",
					zap.Int("index", start+i),
					zap.String("status", outcome.Status),
					zap.String("detail", outcome.Message))
			}
		}
	}
	return attempted
}
