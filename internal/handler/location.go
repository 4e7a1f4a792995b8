package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"GuardLink/internal/models"
	"GuardLink/pkg/constant"
	"GuardLink/pkg/geo"
	"GuardLink/pkg/logger"
	"GuardLink/pkg/response"
	"GuardLink/pkg/websocket"
)

// LocationWriter 位置写入接口
type LocationWriter interface {
	Upsert(ctx context.Context, loc models.Location) error
}

// LocationHandler 位置上报接口
// 同一份写入逻辑同时服务HTTP上报与WebSocket上行消息
type LocationHandler struct {
	store LocationWriter
}

// NewLocationHandler 创建位置处理器
func NewLocationHandler(store LocationWriter) *LocationHandler {
	return &LocationHandler{store: store}
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	Speed     float64  `json:"speed"`
}

// Update POST /api/location
func (h *LocationHandler) Update(c *gin.Context) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailWithStatus(c, http.StatusBadRequest, "latitude and longitude are required")
		return
	}

	point := geo.Point{Lat: *req.Latitude, Lon: *req.Longitude}
	if !point.Valid() {
		response.FailWithStatus(c, http.StatusBadRequest, "coordinates out of range")
		return
	}

	userID := c.GetString(constant.UserField)
	err := h.store.Upsert(c.Request.Context(), models.Location{
		UserID:    userID,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Speed:     req.Speed,
	})
	if err != nil {
		response.FailWithStatus(c, http.StatusInternalServerError, "failed to record location")
		return
	}

	response.Success(c, "location updated", nil)
}

// WSMessageHandler 处理WebSocket上行的位置消息
// 格式错误的消息只记日志丢弃，不断开连接
func (h *LocationHandler) WSMessageHandler() websocket.MessageHandler {
	return func(conn *websocket.Connection, msg websocket.InboundMessage) {
		if msg.Type != websocket.MessageTypeLocation {
			return
		}

		var req locationRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil || req.Latitude == nil || req.Longitude == nil {
			logger.Debug("malformed location message",
				zap.String("user", conn.UserID))
			return
		}

		point := geo.Point{Lat: *req.Latitude, Lon: *req.Longitude}
		if !point.Valid() {
			logger.Debug("location message out of range",
				zap.String("user", conn.UserID))
			return
		}

		err := h.store.Upsert(context.Background(), models.Location{
			UserID:    conn.UserID,
			Latitude:  *req.Latitude,
			Longitude: *req.Longitude,
			Speed:     req.Speed,
		})
		if err != nil {
			logger.Warn("websocket location upsert failed",
				zap.String("user", conn.UserID),
				zap.Error(err))
		}
	}
}
