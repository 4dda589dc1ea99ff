package router

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/d60-Lab/trustcircle/config"
	_ "github.com/d60-Lab/trustcircle/internal/api/docs"
	"github.com/d60-Lab/trustcircle/internal/api/handler"
	"github.com/d60-Lab/trustcircle/internal/api/middleware"
	"github.com/d60-Lab/trustcircle/pkg/response"
)

func Setup(cfg *config.Config, db *gorm.DB, h *handler.Handler) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.SentryRecover(),
		otelgin.Middleware(cfg.Tracing.ServiceName),
		middleware.AccessLog(),
		gzip.Gzip(gzip.DefaultCompression),
	)

	r.GET("/health", func(c *gin.Context) {
		if db != nil {
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(c.Request.Context())
			}
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, response.Response{Code: http.StatusServiceUnavailable, Message: "database unavailable"})
				return
			}
		}
		response.Success(c, gin.H{"status": "ok"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateBurst))
	h.Register(v1)
	return r
}
