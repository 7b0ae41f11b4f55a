package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	"tracker/internal/logging"
)

// requestLogger logs one line per request after it is served.
func requestLogger(log logging.Interface) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		started := time.Now()
		ctx.Next()

		status := ctx.Writer.Status()
		line := "%s %s %d %s"
		args := []interface{}{ctx.Request.Method, ctx.Request.URL.Path, status, time.Since(started).Round(time.Millisecond)}
		if status >= 500 {
			log.Warnf(line, args...)
			return
		}
		log.Debugf(line, args...)
	}
}

func errorLogger(log logging.Interface) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Next()

		for _, ginErr := range ctx.Errors {
			log.Errorf("unhandled HTTP error: %v", ginErr)
		}
	}
}
