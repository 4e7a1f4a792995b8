package util

import "sync"

// SignalHandler 信号处理函数，sender 为事件发起对象
type SignalHandler func(sender any, params ...any)

// SignalHub 进程内信号总线，用于解耦业务事件与监听器
type SignalHub struct {
	mu       sync.RWMutex
	handlers map[string][]SignalHandler
}

var sigHub = &SignalHub{handlers: make(map[string][]SignalHandler)}

// Sig 获取全局信号总线
func Sig() *SignalHub {
	return sigHub
}

// Connect 注册信号监听器
func (h *SignalHub) Connect(name string, handler SignalHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[name] = append(h.handlers[name], handler)
}

// Emit 同步触发信号，监听器内部自行决定是否异步处理
func (h *SignalHub) Emit(name string, sender any, params ...any) {
	h.mu.RLock()
	handlers := make([]SignalHandler, len(h.handlers[name]))
	copy(handlers, h.handlers[name])
	h.mu.RUnlock()

	for _, handler := range handlers {
		handler(sender, params...)
	}
}
