package server

import (
	"net/http"
	"time"

	ginhandler "user-registration-service/internal/adapter/gin/handler"
	ginrouter "user-registration-service/internal/adapter/gin/router"
	"user-registration-service/internal/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupGinServer creates and configures the Gin REST API server
func SetupGinServer(handler *ginhandler.UserHandler, cfg *config.Config, addr string, l *zap.Logger) *http.Server {
	mode := gin.DebugMode
	if cfg.IsProduction() {
		mode = gin.ReleaseMode
	}

	// Setup Gin router with all middleware and routes
	router := ginrouter.SetupRouter(handler, ginrouter.Options{
		ServiceName:   cfg.Logger.ServiceName,
		Mode:          mode,
		SecureHeaders: cfg.App.SecureHeadersEnabled,
		AllowedHosts:  cfg.App.AllowedHosts,
		IsDevelopment: !cfg.IsProduction(),
	}, l)

	l.Info("Gin REST API configured", zap.String("address", addr), zap.String("mode", mode))

	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
