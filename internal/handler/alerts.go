package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"GuardLink/internal/alert"
	"GuardLink/pkg/constant"
	"GuardLink/pkg/errors"
	"GuardLink/pkg/response"
)

// AlertTrigger 告警触发入口，由扇出协调器实现
type AlertTrigger interface {
	TriggerPrivate(ctx context.Context, userID string, lat, lon float64) (*alert.PrivateResult, error)
	TriggerPublic(ctx context.Context, userID string, lat, lon float64) (*alert.PublicResult, error)
}

// AlertHandler 告警触发接口
type AlertHandler struct {
	trigger AlertTrigger
}

// NewAlertHandler 创建告警处理器
func NewAlertHandler(trigger AlertTrigger) *AlertHandler {
	return &AlertHandler{trigger: trigger}
}

// alertRequest 告警请求体
// 坐标用指针以区分"传了0"和"没传"，缺失即校验失败
type alertRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// TriggerPrivate POST /api/alert/private
// 同步返回解析出的接收者数量，推送在后台继续
func (h *AlertHandler) TriggerPrivate(c *gin.Context) {
	var req alertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailWithStatus(c, http.StatusBadRequest, "latitude and longitude are required")
		return
	}

	userID := c.GetString(constant.UserField)
	result, err := h.trigger.TriggerPrivate(c.Request.Context(), userID, *req.Latitude, *req.Longitude)
	if err != nil {
		response.FailWithStatus(c, statusFor(err), errors.GetMessage(err))
		return
	}

	// 响应体形状是客户端契约的一部分，不套统一信封
	c.JSON(http.StatusOK, result)
}

// TriggerPublic POST /api/alert/public
func (h *AlertHandler) TriggerPublic(c *gin.Context) {
	var req alertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailWithStatus(c, http.StatusBadRequest, "latitude and longitude are required")
		return
	}

	userID := c.GetString(constant.UserField)
	result, err := h.trigger.TriggerPublic(c.Request.Context(), userID, *req.Latitude, *req.Longitude)
	if err != nil {
		response.FailWithStatus(c, statusFor(err), errors.GetMessage(err))
		return
	}

	c.JSON(http.StatusOK, result)
}

// statusFor 业务错误码直接对齐HTTP状态
func statusFor(err error) int {
	if code := errors.GetCode(err); code >= 400 && code < 600 {
		return code
	}
	return http.StatusInternalServerError
}
