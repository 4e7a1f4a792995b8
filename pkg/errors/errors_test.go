package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCodes(t *testing.T) {
	assert.Equal(t, CodeValidation, GetCode(Validation("bad coords")))
	assert.Equal(t, CodeNotFound, GetCode(NotFound("no such user")))
	assert.Equal(t, CodeDelivery, GetCode(Delivery(assert.AnError, "send failed")))

	// 外部错误没有业务码
	assert.Equal(t, 0, GetCode(assert.AnError))
	assert.Equal(t, 0, GetCode(nil))
}

func TestWrapPreservesCode(t *testing.T) {
	inner := Delivery(assert.AnError, "realtime send failed")
	wrapped := Wrap(inner, "deliver to recipient")

	// 包装不改变错误码，原始错误可追溯
	assert.Equal(t, CodeDelivery, GetCode(wrapped))
	assert.Equal(t, "deliver to recipient", GetMessage(wrapped))
	assert.Equal(t, assert.AnError, Cause(wrapped))

	assert.Nil(t, Wrap(nil, "noop"))
}

func TestCodePredicates(t *testing.T) {
	assert.True(t, IsValidation(Validation("x")))
	assert.True(t, IsNotFound(NotFound("x")))
	assert.False(t, IsValidation(NotFound("x")))
	assert.False(t, IsNotFound(assert.AnError))
}
