package alert

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"GuardLink/internal/models"
	"GuardLink/internal/presence"
	"GuardLink/internal/proximity"
	"GuardLink/pkg/errors"
	"GuardLink/pkg/geo"
	"GuardLink/pkg/logger"
	"GuardLink/pkg/metrics"
	"GuardLink/pkg/push"
	"GuardLink/pkg/util"
)

// DefaultPublicRadiusKm 公共告警默认搜索半径
const DefaultPublicRadiusKm = 3.0

// Orchestrator 告警扇出协调器
//
// 接收者解析是同步的（决定响应体）；推送与嵌套公共告警是
// 分离的后台任务，主链路响应时间与推送服务商速度无关。
// 扇出一旦开始就运行到结束，调用方无法取消
type Orchestrator struct {
	identity   IdentityResolver
	membership MembershipResolver
	presence   presence.Registry
	searcher   proximity.Searcher
	dispatcher *push.Dispatcher
	recorder   Recorder
	metrics    *metrics.Metrics

	radiusKm float64
	spawn    Spawner
	now      func() time.Time
}

// Option 协调器可选配置
type Option func(*Orchestrator)

// WithRadiusKm 覆盖公共告警搜索半径
func WithRadiusKm(radiusKm float64) Option {
	return func(o *Orchestrator) {
		if radiusKm > 0 {
			o.radiusKm = radiusKm
		}
	}
}

// WithRecorder 注入告警留痕钩子
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithMetrics 注入业务指标
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithSpawner 覆盖后台任务启动方式（测试用）
func WithSpawner(s Spawner) Option {
	return func(o *Orchestrator) { o.spawn = s }
}

// WithClock 覆盖时间源（测试用）
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator 创建告警扇出协调器
func NewOrchestrator(
	identity IdentityResolver,
	membership MembershipResolver,
	registry presence.Registry,
	searcher proximity.Searcher,
	dispatcher *push.Dispatcher,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		identity:   identity,
		membership: membership,
		presence:   registry,
		searcher:   searcher,
		dispatcher: dispatcher,
		recorder:   NopRecorder{},
		radiusKm:   DefaultPublicRadiusKm,
		spawn:      Detach,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// TriggerPrivate 触发私密告警（守护人 + 圈内成员）
//
// 身份解析失败时整个告警中止；之后任何单接收者的投递失败
// 都被吞掉，不改变最终结果
func (o *Orchestrator) TriggerPrivate(ctx context.Context, userID string, lat, lon float64) (*PrivateResult, error) {
	stage := StageReceived
	o.traceStage(TypePrivate, userID, stage)

	origin, err := o.identity.Resolve(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(errors.NotFound("alert origin user not found"), err.Error())
	}

	// 隔离的副作用：从同一原点坐标触发公共告警
	// 里面的任何失败只记日志，不影响私密告警的结果和耗时
	o.spawn("nested-public-alert", func() {
		if _, nestedErr := o.TriggerPublic(context.Background(), userID, lat, lon); nestedErr != nil {
			logger.Warn("nested public alert failed",
				zap.String("origin", userID),
				zap.Error(nestedErr))
		}
	})

	recipients, err := o.membership.Resolve(ctx, userID)
	if err != nil {
		// 无守护关系不是错误；解析层故障才会走到这里
		return nil, errors.Wrap(err, "resolve alert recipients")
	}
	stage = StageRecipientsResolved
	o.traceStage(TypePrivate, userID, stage)

	payload := newPayload(TypePrivate, origin, lat, lon, o.now())

	// 实时通道：同步入队，不等确认
	delivered := 0
	for _, recipient := range recipients {
		handle, online := o.presence.Lookup(recipient.ID)
		if !online {
			continue
		}
		if sendErr := handle.SendEvent(TypePrivate, payload); sendErr != nil {
			o.observeDeliveryError("realtime")
			logger.Warn("realtime delivery failed",
				zap.String("recipient", recipient.ID),
				zap.Error(errors.Delivery(sendErr, "realtime send failed")))
			continue
		}
		delivered++
	}
	stage = StageDispatched
	o.traceStage(TypePrivate, userID, stage)

	// 推送通道：后台发送，永不join
	messages := o.pushMessages(payload, recipients)
	if len(messages) > 0 {
		o.spawn("private-alert-push", func() {
			o.dispatcher.Dispatch(context.Background(), messages)
		})
	}

	result := &PrivateResult{Success: true, NotifiedCount: len(recipients)}
	o.finish(ctx, stage, payload, len(recipients), delivered)
	return result, nil
}

// TriggerPublic 触发公共告警（按物理距离发现的陌生帮助者）
func (o *Orchestrator) TriggerPublic(ctx context.Context, userID string, lat, lon float64) (*PublicResult, error) {
	stage := StageReceived
	o.traceStage(TypePublic, userID, stage)

	originPoint := geo.Point{Lat: lat, Lon: lon}
	if !originPoint.Valid() {
		return nil, errors.Validation("invalid origin coordinates")
	}

	origin, err := o.identity.Resolve(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(errors.NotFound("alert origin user not found"), err.Error())
	}

	matches, err := o.searcher.Query(ctx, originPoint, o.radiusKm, userID)
	if err != nil {
		return nil, errors.Wrap(err, "proximity search")
	}
	stage = StageRecipientsResolved
	o.traceStage(TypePublic, userID, stage)

	result := &PublicResult{Success: true, Helpers: make([]HelperRef, 0, len(matches))}
	if len(matches) == 0 {
		// 附近无人不是错误
		return result, nil
	}

	// 每个帮助者的载荷带各自的距离，距离一律从告警原点现算
	base := newPayload(TypePublic, origin, lat, lon, o.now())
	messages := make([]push.Message, 0, len(matches))
	delivered := 0

	for _, match := range matches {
		distance := match.DistanceKm
		payload := base
		payload.DistanceKm = &distance

		result.Helpers = append(result.Helpers, HelperRef{UserID: match.UserID, DistanceKm: distance})

		if handle, online := o.presence.Lookup(match.UserID); online {
			if sendErr := handle.SendEvent(TypePublic, payload); sendErr != nil {
				o.observeDeliveryError("realtime")
				logger.Warn("realtime delivery failed",
					zap.String("recipient", match.UserID),
					zap.Error(errors.Delivery(sendErr, "realtime send failed")))
			} else {
				delivered++
			}
		}

		messages = append(messages, push.Message{
			To:    match.PushToken,
			Title: "Someone nearby needs help",
			Body:  fmt.Sprintf("%s raised an SOS about %.2f km from you", origin.Name, distance),
			Sound: "default",
			Data: map[string]string{
				"type":       TypePublic,
				"userId":     origin.ID,
				"distanceKm": fmt.Sprintf("%.2f", distance),
			},
		})
	}
	stage = StageDispatched
	o.traceStage(TypePublic, userID, stage)

	result.HelpersNotified = len(matches)

	o.spawn("public-alert-push", func() {
		o.dispatcher.Dispatch(context.Background(), messages)
	})

	o.finish(ctx, stage, base, len(matches), delivered)
	return result, nil
}

// pushMessages 为携带可用令牌的接收者构造推送消息
// 令牌形态校验在分发器里完成，这里只排除明显的空值
func (o *Orchestrator) pushMessages(payload Payload, recipients []Recipient) []push.Message {
	messages := make([]push.Message, 0, len(recipients))
	for _, r := range recipients {
		if r.PushToken == "" {
			continue
		}
		messages = append(messages, push.Message{
			To:    r.PushToken,
			Title: "Emergency alert",
			Body:  fmt.Sprintf("%s needs your help right now", payload.UserName),
			Sound: "default",
			Data: map[string]string{
				"type":   payload.Type,
				"userId": payload.UserID,
			},
		})
	}
	return messages
}

// traceStage 记录单次告警调用的阶段推进
func (o *Orchestrator) traceStage(alertType, userID, stage string) {
	logger.Debug("alert stage",
		zap.String("type", alertType),
		zap.String("origin", userID),
		zap.String("stage", stage))
}

// finish 收尾：指标、信号与留痕钩子
func (o *Orchestrator) finish(ctx context.Context, stage string, payload Payload, resolved, delivered int) {
	stage = StageDone

	if o.metrics != nil {
		o.metrics.ObserveAlert(payload.Type)
		o.metrics.ObserveRecipients("realtime", delivered)
		o.metrics.ObserveRecipients("resolved", resolved)
	}

	util.Sig().Emit(models.SigAlertTriggered, payload, resolved, delivered)

	if err := o.recorder.Record(ctx, payload, resolved); err != nil {
		logger.Warn("alert recorder failed", zap.Error(err))
	}

	logger.Info("alert dispatched",
		zap.String("type", payload.Type),
		zap.String("origin", payload.UserID),
		zap.String("stage", stage),
		zap.Int("resolved", resolved),
		zap.Int("realtime_delivered", delivered))
}

func (o *Orchestrator) observeDeliveryError(channel string) {
	if o.metrics != nil {
		o.metrics.ObserveDeliveryError(channel)
	}
}
