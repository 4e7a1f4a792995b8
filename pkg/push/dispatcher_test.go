package push

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeProvider 记录收到的批次，可按批次序号注入失败
type fakeProvider struct {
	batches   [][]Message
	failBatch int // 第N批返回错误（从1开始），0表示不失败
}

func (f *fakeProvider) SendBatch(ctx context.Context, messages []Message) ([]Outcome, error) {
	f.batches = append(f.batches, messages)
	if f.failBatch == len(f.batches) {
		return nil, errors.New("provider unavailable")
	}
	outcomes := make([]Outcome, len(messages))
	for i := range outcomes {
		outcomes[i] = Outcome{Status: "ok"}
	}
	return outcomes, nil
}

func TestValidToken(t *testing.T) {
	assert.True(t, ValidToken("ExponentPushToken[xxxxxxxxxxxxxxxxxxxxxx]"))

	// 空值、占位值与畸形令牌一律不可用
	assert.False(t, ValidToken(""))
	assert.False(t, ValidToken("   "))
	assert.False(t, ValidToken("unknown"))
	assert.False(t, ValidToken("Unknown"))
	assert.False(t, ValidToken("null"))
	assert.False(t, ValidToken("fcm_token_123"))
	assert.False(t, ValidToken("ExponentPushToken[missing-bracket"))
}

func TestDispatchSkipsInvalidTokensSilently(t *testing.T) {
	provider := &fakeProvider{}
	d := NewDispatcher(provider, 10)

	attempted := d.Dispatch(context.Background(), []Message{
		{To: "unknown", Title: "t"},
		{To: "", Title: "t"},
		{To: "ExponentPushToken[abc]", Title: "t"},
	})

	// 占位令牌不报错也不触达服务商
	assert.Equal(t, 1, attempted)
	assert.Len(t, provider.batches, 1)
	assert.Len(t, provider.batches[0], 1)
	assert.Equal(t, "ExponentPushToken[abc]", provider.batches[0][0].To)
}

func TestDispatchAllInvalidNeverReachesProvider(t *testing.T) {
	provider := &fakeProvider{}
	d := NewDispatcher(provider, 10)

	attempted := d.Dispatch(context.Background(), []Message{
		{To: "unknown"}, {To: "null"}, {To: "garbage"},
	})

	assert.Equal(t, 0, attempted)
	assert.Empty(t, provider.batches)
}

func TestDispatchBatching(t *testing.T) {
	provider := &fakeProvider{}
	d := NewDispatcher(provider, 2)

	msgs := make([]Message, 5)
	for i := range msgs {
		msgs[i] = Message{To: "ExponentPushToken[tok]", Title: "t"}
	}

	attempted := d.Dispatch(context.Background(), msgs)
	assert.Equal(t, 5, attempted)
	assert.Len(t, provider.batches, 3) // 2+2+1
}

func TestDispatchBatchFailureIsolated(t *testing.T) {
	// 第二批失败，第一、三批照常发送
	provider := &fakeProvider{failBatch: 2}
	d := NewDispatcher(provider, 2)

	msgs := make([]Message, 6)
	for i := range msgs {
		msgs[i] = Message{To: "ExponentPushToken[tok]", Title: "t"}
	}

	attempted := d.Dispatch(context.Background(), msgs)
	assert.Equal(t, 4, attempted)
	assert.Len(t, provider.batches, 3)
}

func TestDispatchWithoutProvider(t *testing.T) {
	d := NewDispatcher(nil, 0)
	attempted := d.Dispatch(context.Background(), []Message{{To: "ExponentPushToken[tok]"}})
	assert.Equal(t, 0, attempted)
}
