package models

import "time"

// User 用户档案
type User struct {
	ID        string `gorm:"primaryKey;size:36"`
	Name      string `gorm:"size:128"`
	Phone     string `gorm:"size:32"`
	PushToken string `gorm:"size:256"` // 客户端不支持原生推送时为占位值
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TrustedContact 一对一守护关系（守护人有权接收对方的告警）
type TrustedContact struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"size:36;index:idx_trusted_pair"`
	ContactID string `gorm:"size:36;index:idx_trusted_pair"`
	Status    string `gorm:"size:16"` // "active" "pending" "revoked"
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Group 多人守护圈，圈内成员互为告警接收者
type Group struct {
	ID        string `gorm:"primaryKey;size:36"`
	Name      string `gorm:"size:128"`
	OwnerID   string `gorm:"size:36;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GroupMember 守护圈成员
type GroupMember struct {
	ID        uint   `gorm:"primaryKey"`
	GroupID   string `gorm:"size:36;index"`
	UserID    string `gorm:"size:36;index"`
	CreatedAt time.Time
}

// Location 用户最近一次位置样本，每用户一行，后写覆盖
// 核心链路不校验新鲜度，只区分有无坐标
type Location struct {
	UserID     string  `gorm:"primaryKey;size:36"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Speed      float64 `json:"speed"`
	RecordedAt time.Time
}

// TrustedContactStatusActive 生效中的守护关系
const TrustedContactStatusActive = "active"

// 业务信号
const (
	// SigAlertTriggered 告警触发后发出
	// sender为告警载荷，参数依次为解析出的接收者数与实时送达数
	SigAlertTriggered = "alert:triggered"
)

// AllModels 用于自动迁移
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&TrustedContact{},
		&Group{},
		&GroupMember{},
		&Location{},
	}
}
