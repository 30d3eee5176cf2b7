package logger

import (
	"context"
	"fmt"
	log "log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
)

// SetupGin 挂载访问日志与 panic 恢复，日志走全局 slog 并带上 trace_id
func SetupGin(r *gin.Engine, skipPaths ...string) {
	r.Use(AccessLog(skipPaths...))
	r.Use(gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		log.ErrorContext(requestContext(c), "GIN_PANIC", "path", c.Request.URL.Path, "panic", fmt.Sprint(recovered))
		c.AbortWithStatus(http.StatusInternalServerError)
	}))
}

// AccessLog 请求结束后记录一条访问日志，5xx 记为 error
func AccessLog(skipPaths ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if slices.Contains(skipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := log.LevelInfo
		if status >= http.StatusInternalServerError {
			level = log.LevelError
		}
		log.Log(requestContext(c), level, "GIN_ACCESS",
			"method", c.Request.Method,
			"route", c.FullPath(),
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"status", status,
			"latency", time.Since(start),
		)
	}
}

// requestContext TraceMiddleware 之前的 panic 也能拿到 gin 中保存的 trace_id
func requestContext(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	if _, ok := ctx.Value(TraceIDKey).(string); ok {
		return ctx
	}
	if id := c.GetString(string(TraceIDKey)); id != "" {
		return context.WithValue(ctx, TraceIDKey, id)
	}
	return ctx
}
