package middleware

import (
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

// SentryRecover 上报 panic 后继续向外抛，由 gin.Recovery 返回 500
func SentryRecover() gin.HandlerFunc {
	return func(c *gin.Context) {
		hub := sentry.CurrentHub().Clone()
		hub.Scope().SetRequest(c.Request)
		hub.Scope().SetTag("request_id", GetRequestID(c))
		defer func() {
			if err := recover(); err != nil {
				hub.RecoverWithContext(c.Request.Context(), err)
				panic(err)
			}
		}()
		c.Next()
	}
}
