package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"GuardLink/pkg/constant"
)

// RateLimiterConfig 限流配置
//
// Rate 形如 "10-M"（每分钟10次）。告警接口按用户限流，
// 防止误触或恶意脚本刷爆推送通道
type RateLimiterConfig struct {
	Rate        string `json:"rate" env:"ALERT_RATE_LIMIT"`
	DenyStatus  int    `json:"deny_status"`
	DenyMessage string `json:"deny_message"`
}

// RateLimiter 基于内存存储的按用户限流中间件
func RateLimiter(cfg RateLimiterConfig) (gin.HandlerFunc, error) {
	if cfg.Rate == "" {
		cfg.Rate = "10-M"
	}
	if cfg.DenyStatus == 0 {
		cfg.DenyStatus = http.StatusTooManyRequests
	}
	if cfg.DenyMessage == "" {
		cfg.DenyMessage = "too many alerts, slow down"
	}

	rate, err := limiter.NewRateFromFormatted(cfg.Rate)
	if err != nil {
		return nil, err
	}

	instance := limiter.New(memory.NewStore(), rate)

	return func(c *gin.Context) {
		// 优先按已解析的用户身份限流，匿名请求退回IP
		key := c.GetString(constant.UserField)
		if key == "" {
			key = c.ClientIP()
		}

		limiterCtx, err := instance.Get(c.Request.Context(), key)
		if err != nil {
			c.Next()
			return
		}

		if limiterCtx.Reached {
			c.AbortWithStatusJSON(cfg.DenyStatus, gin.H{"error": cfg.DenyMessage})
			return
		}
		c.Next()
	}, nil
}
