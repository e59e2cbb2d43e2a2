package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/blog-newsletter/internal/transport/http/handler"
	"github.com/ErlanBelekov/blog-newsletter/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

func NewRouter(logger *slog.Logger, subscribeHandler *handler.SubscribeHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.NewWithConfig(logger, sloggin.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
		WithRequestID:    false, // request_id comes from the context handler
	}))
	r.Use(middleware.Metrics())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	api := r.Group("/api")
	api.POST("/:provider", subscribeHandler.Subscribe)
	api.GET("/:provider/confirm", subscribeHandler.Confirm)

	return r
}
