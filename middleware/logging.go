package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/inkpress/inkpress/utils"
)

// RequestLogger records every request with method, path, status and latency.
func RequestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		path := ctx.Request.URL.Path
		if raw := ctx.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		ctx.Next()

		if utils.Logger == nil {
			return
		}
		fields := []zap.Field{
			zap.String("method", ctx.Request.Method),
			zap.String("path", path),
			zap.Int("status", ctx.Writer.Status()),
			zap.String("client_ip", ctx.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		}
		switch {
		case ctx.Writer.Status() >= 500:
			utils.Logger.Error("request completed", fields...)
		case ctx.Writer.Status() >= 400:
			utils.Logger.Warn("request completed", fields...)
		default:
			utils.Logger.Info("request completed", fields...)
		}
	}
}

// Recovery converts panics into a 500 response and logs the stack via zap.
func Recovery() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				if utils.Logger != nil {
					utils.Logger.Error("panic recovered",
						zap.Any("error", r),
						zap.String("path", ctx.Request.URL.Path),
						zap.Stack("stacktrace"),
					)
				}
				utils.Error(ctx, http.StatusInternalServerError, 50000, "internal server error")
				ctx.Abort()
			}
		}()
		ctx.Next()
	}
}
