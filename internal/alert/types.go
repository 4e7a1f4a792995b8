package alert

import (
	"context"
	"time"

	"GuardLink/pkg/constant"
)

// Identity 已解析的触发者身份
type Identity struct {
	ID   string `json:"userId"`
	Name string `json:"userName"`
}

// Recipient 告警接收者（守护人或圈内成员）
type Recipient struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	PushToken string `json:"pushToken"`
}

// Payload 告警事件载荷，逐次构造，从不落库
//
// DistanceKm 只在公共告警中出现：每个帮助者需要各自的
// “距你X公里”数字，私密告警保持不带距离的统一载荷
type Payload struct {
	Type       string   `json:"type"`
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	UserID     string   `json:"userId"`
	UserName   string   `json:"userName"`
	Timestamp  string   `json:"timestamp"` // ISO8601
	DistanceKm *float64 `json:"distanceKm,omitempty"`
}

// HelperRef 公共告警响应中的帮助者条目
type HelperRef struct {
	UserID     string  `json:"userId"`
	DistanceKm float64 `json:"distanceKm"`
}

// PrivateResult 私密告警结果
// NotifiedCount 统计的是解析出的接收者，不是确认送达数
type PrivateResult struct {
	Success       bool `json:"success"`
	NotifiedCount int  `json:"notifiedCount"`
}

// PublicResult 公共告警结果
type PublicResult struct {
	Success         bool        `json:"success"`
	HelpersNotified int         `json:"helpersNotified"`
	Helpers         []HelperRef `json:"helpers"`
}

// IdentityResolver 身份协作方：解析触发者身份，失败则整个告警中止
type IdentityResolver interface {
	Resolve(ctx context.Context, userID string) (Identity, error)
}

// MembershipResolver 守护关系协作方
// 返回触发者所有守护关系与守护圈共同成员的去重并集，不含触发者本人
type MembershipResolver interface {
	Resolve(ctx context.Context, userID string) ([]Recipient, error)
}

// 每次告警调用的阶段机：无跨阶段重试，单阶段失败只影响该阶段
const (
	StageReceived           = "RECEIVED"
	StageRecipientsResolved = "RECIPIENTS_RESOLVED"
	StageDispatched         = "DISPATCHED"
	StageDone               = "DONE"
)

// newPayload 构造告警载荷，距离字段由调用方按接收者填入
func newPayload(alertType string, origin Identity, lat, lon float64, at time.Time) Payload {
	return Payload{
		Type:      alertType,
		Latitude:  lat,
		Longitude: lon,
		UserID:    origin.ID,
		UserName:  origin.Name,
		Timestamp: at.UTC().Format(time.RFC3339),
	}
}

// 告警类型别名，载荷与下行事件共用
const (
	TypePrivate = constant.AlertTypePrivate
	TypePublic  = constant.AlertTypePublic
)
