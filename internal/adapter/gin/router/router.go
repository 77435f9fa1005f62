package router

import (
	"net/http"

	"user-registration-service/internal/adapter/gin/handler"
	"user-registration-service/internal/adapter/gin/middleware"
	"user-registration-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Options controls router-wide behaviour.
type Options struct {
	ServiceName   string
	Mode          string // gin.ReleaseMode, gin.DebugMode or gin.TestMode
	SecureHeaders bool
	AllowedHosts  []string
	IsDevelopment bool
}

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(userHandler *handler.UserHandler, opts Options, log *zap.Logger) *gin.Engine {
	mode := opts.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	router := gin.New()

	// Global middleware
	router.Use(logger.RequestIDMiddleware())
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	if opts.SecureHeaders {
		router.Use(middleware.SecureHeaders(middleware.SecureOptions{
			AllowedHosts:  opts.AllowedHosts,
			IsDevelopment: opts.IsDevelopment,
		}))
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": opts.ServiceName,
		})
	})

	users := router.Group("/users")
	{
		users.GET("", userHandler.ListUsers)
		users.POST("", userHandler.CreateUser)
		users.GET("/:id", userHandler.GetUser)
		users.PUT("/:id", userHandler.UpdateUser)
		users.DELETE("/:id", userHandler.DeleteUser)
	}

	return router
}
