package presence

import (
	"GuardLink/pkg/metrics"
	"GuardLink/pkg/websocket"
)

// HubListener 把WebSocket连接生命周期同步进在线表
type HubListener struct {
	registry Registry
	hub      *websocket.Hub
	metrics  *metrics.Metrics
}

// NewHubListener 创建生命周期监听器
func NewHubListener(registry Registry, hub *websocket.Hub, m *metrics.Metrics) *HubListener {
	return &HubListener{registry: registry, hub: hub, metrics: m}
}

// OnConnect 连接建立，写入在线表
func (l *HubListener) OnConnect(conn *websocket.Connection) {
	l.registry.Register(conn.UserID, conn)
	if l.metrics != nil {
		l.metrics.SetConnections(l.hub.GetConnectionCount())
	}
}

// OnDisconnect 连接断开，按句柄清理在线表
func (l *HubListener) OnDisconnect(conn *websocket.Connection) {
	l.registry.Unregister(conn)
	if l.metrics != nil {
		l.metrics.SetConnections(l.hub.GetConnectionCount())
	}
}
