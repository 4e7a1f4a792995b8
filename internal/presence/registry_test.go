package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHandle 测试用句柄
type fakeHandle struct {
	name string
}

func (f *fakeHandle) SendEvent(event string, payload interface{}) error { return nil }

func TestRegisterOverwrites(t *testing.T) {
	registry := NewMemoryRegistry()

	h1 := &fakeHandle{name: "h1"}
	h2 := &fakeHandle{name: "h2"}

	// 后注册的连接覆盖先注册的
	registry.Register("user_1", h1)
	registry.Register("user_1", h2)

	handle, ok := registry.Lookup("user_1")
	require.True(t, ok)
	assert.Same(t, h2, handle)
	assert.Equal(t, 1, registry.Count())
}

func TestUnregisterByHandle(t *testing.T) {
	registry := NewMemoryRegistry()

	h1 := &fakeHandle{name: "h1"}
	h2 := &fakeHandle{name: "h2"}
	registry.Register("user_1", h1)
	registry.Register("user_1", h2)

	// 按当前句柄注销后查不到
	registry.Unregister(h2)
	_, ok := registry.Lookup("user_1")
	assert.False(t, ok)
	assert.Equal(t, 0, registry.Count())
}

func TestUnregisterStaleHandleKeepsNewConnection(t *testing.T) {
	registry := NewMemoryRegistry()

	h1 := &fakeHandle{name: "h1"}
	h2 := &fakeHandle{name: "h2"}
	registry.Register("user_1", h1)
	registry.Register("user_1", h2)

	// 旧连接的迟到断连事件不能下线新连接
	registry.Unregister(h1)

	handle, ok := registry.Lookup("user_1")
	require.True(t, ok)
	assert.Same(t, h2, handle)
}

func TestLookupUnknownUser(t *testing.T) {
	registry := NewMemoryRegistry()
	_, ok := registry.Lookup("nobody")
	assert.False(t, ok)
}

func TestUnregisterUnknownHandleIsNoop(t *testing.T) {
	registry := NewMemoryRegistry()
	registry.Register("user_1", &fakeHandle{name: "h1"})

	registry.Unregister(&fakeHandle{name: "stranger"})
	assert.Equal(t, 1, registry.Count())
}
