package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"GuardLink/pkg/constant"
)

// Identity 身份中间件
//
// 会话校验由上游身份服务完成，这里只读取它注入的用户ID头，
// 写入请求上下文供告警链路解析触发者身份
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(constant.HeaderUserID)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
			return
		}
		c.Set(constant.UserField, userID)
		c.Next()
	}
}
