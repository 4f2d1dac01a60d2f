package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"

	"github.com/xigua-wiki/usage-reporter/internal/pkg/response"
)

// RateLimiter 进程内速率限制器。报表端点背后是对上游网关的真实拉取，
// 限流保护的是上游而不是本服务。
type RateLimiter struct {
	cache  *gocache.Cache
	prefix string
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		cache:  gocache.New(time.Minute, 5*time.Minute),
		prefix: "rate_limit:",
	}
}

// Limit 返回速率限制中间件
// key: 限制类型标识
// limit: 时间窗口内最大请求数
// window: 时间窗口
func (r *RateLimiter) Limit(key string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		cacheKey := r.prefix + key + ":" + c.ClientIP()

		// Add 仅在键不存在时写入，存在则转为原子自增
		if err := r.cache.Add(cacheKey, int64(1), window); err != nil {
			count, incErr := r.cache.IncrementInt64(cacheKey, 1)
			if incErr == nil && count > int64(limit) {
				response.Error(c, http.StatusTooManyRequests, "请求过于频繁，请稍后再试")
				c.Abort()
				return
			}
		}
		c.Next()
	}
}
