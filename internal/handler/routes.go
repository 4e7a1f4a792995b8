package handler

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"GuardLink/pkg/metrics"
	"GuardLink/pkg/middleware"
	"GuardLink/pkg/websocket"
)

// Deps 路由装配依赖
type Deps struct {
	DB        *gorm.DB
	Trigger   AlertTrigger
	Locations LocationWriter
	Hub       *websocket.Hub
	Metrics   *metrics.Metrics

	// 告警接口限流，形如 "10-M"
	AlertRateLimit string
}

// NewRouter 组装HTTP路由
//
// /health 与 /metrics 开放；业务接口都在身份中间件之后，
// 告警接口额外叠加按用户限流
func NewRouter(deps Deps) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery())
	if deps.Metrics != nil {
		r.Use(deps.Metrics.GinMiddleware())
	}

	system := NewSystemHandler(deps.DB)
	r.GET("/health", system.Health)
	r.GET("/metrics", metrics.Handler())

	authed := r.Group("/", middleware.Identity())

	websocket.RegisterRoutes(authed, websocket.NewHandler(deps.Hub))

	api := authed.Group("/api")
	api.POST("/location", NewLocationHandler(deps.Locations).Update)

	limit, err := middleware.RateLimiter(middleware.RateLimiterConfig{Rate: deps.AlertRateLimit})
	if err != nil {
		return nil, err
	}

	alerts := api.Group("/alert", limit)
	alertHandler := NewAlertHandler(deps.Trigger)
	alerts.POST("/private", alertHandler.TriggerPrivate)
	alerts.POST("/public", alertHandler.TriggerPublic)

	return r, nil
}
