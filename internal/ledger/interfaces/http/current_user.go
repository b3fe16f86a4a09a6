package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/response"
)

// currentUserID 从网关注入的请求头中取当前用户
// 认证由上游协作方完成，这里只消费其结果
func currentUserID(c *gin.Context) string {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		response.ErrorWithStatus(c, http.StatusUnauthorized, "missing user identity", "")
	}
	return userID
}
