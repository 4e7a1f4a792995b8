package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Event 服务端推送给客户端的事件
type Event struct {
	Event     string      `json:"event"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// InboundMessage 客户端上行消息
type InboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// LifecycleListener 连接生命周期监听器
// 在线状态目录（presence）通过它感知连接的建立与断开
type LifecycleListener interface {
	OnConnect(conn *Connection)
	OnDisconnect(conn *Connection)
}

// MessageHandler 上行业务消息处理函数（如位置上报）
type MessageHandler func(conn *Connection, msg InboundMessage)

// Hub 管理所有WebSocket连接
type Hub struct {
	// 注册的连接
	connections map[string]*Connection
	// 注册连接通道
	register chan *Connection
	// 注销连接通道
	unregister chan *Connection
	// 连接计数
	connectionCount int64
	// 配置
	config *Config
	// 生命周期监听器
	listeners []LifecycleListener
	// 上行消息处理器
	onMessage MessageHandler
	// 互斥锁
	mu sync.RWMutex
	// 上下文
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub 创建新的Hub实例
func NewHub(config *Config) *Hub {
	if config == nil {
		config = DefaultConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())

	hub := &Hub{
		connections: make(map[string]*Connection),
		register:    make(chan *Connection, 256),
		unregister:  make(chan *Connection, 256),
		config:      config,
		ctx:         ctx,
		cancel:      cancel,
	}

	go hub.run()
	return hub
}

// AddLifecycleListener 注册生命周期监听器，需在接受连接之前调用
func (h *Hub) AddLifecycleListener(l LifecycleListener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, l)
}

// SetMessageHandler 设置上行消息处理器
func (h *Hub) SetMessageHandler(handler MessageHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onMessage = handler
}

// run Hub主循环
func (h *Hub) run() {
	ticker := time.NewTicker(h.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case conn := <-h.register:
			h.registerConnection(conn)
		case conn := <-h.unregister:
			h.unregisterConnection(conn)
		case <-ticker.C:
			h.checkHeartbeats()
		}
	}
}

// registerConnection 注册连接
func (h *Hub) registerConnection(conn *Connection) {
	h.mu.Lock()

	// 检查最大连接数
	if atomic.LoadInt64(&h.connectionCount) >= h.config.MaxConnections {
		h.mu.Unlock()
		conn.Conn.Close()
		logrus.Warnf("达到最大连接数限制: %d", h.config.MaxConnections)
		return
	}

	h.connections[conn.ID] = conn
	atomic.AddInt64(&h.connectionCount, 1)
	listeners := h.listeners
	h.mu.Unlock()

	for _, l := range listeners {
		l.OnConnect(conn)
	}

	logrus.Infof("WebSocket连接已注册: %s, 用户: %s, 当前连接数: %d",
		conn.ID, conn.UserID, atomic.LoadInt64(&h.connectionCount))
}

// unregisterConnection 注销连接
// 断连事件只携带连接句柄，由监听器按句柄清理在线目录
//
// Send通道从不close：告警扇出可能拿着刚断连用户的句柄正在投递，
// 只标记死亡让trySend拒绝写入，避免向已关闭通道发送
func (h *Hub) unregisterConnection(conn *Connection) {
	h.mu.Lock()
	if _, exists := h.connections[conn.ID]; !exists {
		h.mu.Unlock()
		return
	}
	delete(h.connections, conn.ID)
	atomic.AddInt64(&h.connectionCount, -1)
	listeners := h.listeners
	h.mu.Unlock()

	for _, l := range listeners {
		l.OnDisconnect(conn)
	}

	conn.markDead()
	if conn.Conn != nil {
		conn.Conn.Close()
	}
	logrus.Infof("WebSocket连接已注销: %s, 当前连接数: %d",
		conn.ID, atomic.LoadInt64(&h.connectionCount))
}

// checkHeartbeats 检查心跳
func (h *Hub) checkHeartbeats() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	now := time.Now()
	for _, conn := range h.connections {
		conn.mu.RLock()
		lastPing := conn.LastPing
		conn.mu.RUnlock()
		if now.Sub(lastPing) > h.config.ConnectionTimeout {
			logrus.Warnf("连接 %s 心跳超时，准备关闭", conn.ID)
			conn.markDead()
			conn.Conn.Close()
		}
	}
}

// GetConnectionCount 获取当前连接数
func (h *Hub) GetConnectionCount() int64 {
	return atomic.LoadInt64(&h.connectionCount)
}

// Context 返回Hub生命周期上下文
func (h *Hub) Context() context.Context {
	return h.ctx
}

// Close 关闭Hub
func (h *Hub) Close() {
	h.cancel()

	// 关闭所有连接
	h.mu.Lock()
	for _, conn := range h.connections {
		conn.Conn.Close()
	}
	h.mu.Unlock()

	logrus.Info("WebSocket Hub已关闭")
}

// trySend 背压策略：缓冲区满时按配置丢弃或限时等待
// 已注销的连接直接拒绝，调用方按单接收者投递失败处理
func (h *Hub) trySend(conn *Connection, data []byte) error {
	if !conn.Alive() {
		return ErrConnectionClosed
	}
	if h.config.DropOnFull {
		select {
		case conn.Send <- data:
			return nil
		default:
			return ErrSendBufferFull
		}
	}
	timeout := h.config.SendTimeout
	if timeout <= 0 {
		timeout = 50 * time.Millisecond
	}
	select {
	case conn.Send <- data:
		return nil
	case <-time.After(timeout):
		return ErrSendBufferFull
	}
}
