package errors

import (
	"fmt"
	"runtime"
	"strings"
)

// 错误码，与HTTP状态对齐
const (
	CodeValidation = 400 // 参数/坐标校验失败
	CodeNotFound   = 404 // 身份无法解析
	CodeInternal   = 500 // 内部错误（含隔离边界内吞掉的错误）
	CodeDelivery   = 502 // 单个接收者投递失败，不影响整体结果
)

// Error represents a coded error with stack trace
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"` // 原始错误，不序列化
	Stack   string `json:"stack,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements the errors.Wrapper interface
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new error
func New(message string) *Error {
	return &Error{Code: CodeInternal, Message: message, Stack: captureStack()}
}

// Errorf creates a new formatted error
func Errorf(format string, args ...interface{}) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...), Stack: captureStack()}
}

// WithCode creates a new error with code
func WithCode(code int, message string) *Error {
	return &Error{Code: code, Message: message, Stack: captureStack()}
}

// WithCodef creates a new error with code and formatted message
func WithCodef(code int, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Stack: captureStack()}
}

// Validation 参数校验错误
func Validation(message string) *Error {
	return &Error{Code: CodeValidation, Message: message, Stack: captureStack()}
}

// NotFound 资源不存在错误
func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message, Stack: captureStack()}
}

// Delivery 单接收者投递错误，调用方记录后跳过
func Delivery(err error, message string) *Error {
	return &Error{Code: CodeDelivery, Message: message, Err: err, Stack: captureStack()}
}

// Wrap wraps an error with message
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}
	code := CodeInternal
	if e, ok := err.(*Error); ok {
		code = e.Code
	}
	return &Error{Code: code, Message: message, Err: err, Stack: captureStack()}
}

// Wrapf wraps an error with formatted message
func Wrapf(err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// GetCode returns the error code, 0 for foreign errors
func GetCode(err error) int {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return 0
}

// IsValidation reports whether err carries the validation code
func IsValidation(err error) bool { return GetCode(err) == CodeValidation }

// IsNotFound reports whether err carries the not-found code
func IsNotFound(err error) bool { return GetCode(err) == CodeNotFound }

// GetMessage returns the error message
func GetMessage(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// Cause returns the underlying error
func Cause(err error) error {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Err != nil {
			err = e.Err
		} else {
			return err
		}
	}
	return err
}

// captureStack captures the current stack trace
func captureStack() string {
	buf := make([]byte, 1024)
	n := runtime.Stack(buf, false)
	stack := string(buf[:n])

	// 移除顶部几行（captureStack 与构造函数本身的调用帧）
	lines := strings.Split(stack, "\n")
	if len(lines) > 6 {
		stack = strings.Join(lines[6:], "\n")
	}
	return strings.TrimSpace(stack)
}

// Format implements fmt.Formatter
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "%s", e.Error())
			if e.Stack != "" {
				fmt.Fprintf(s, "\n%s", e.Stack)
			}
			return
		}
		fallthrough
	case 's':
		fmt.Fprintf(s, "%s", e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}
