package handlers

import (
	"wan_failover/internal/config"
	"wan_failover/internal/logger"
	"wan_failover/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires the HTTP layer to services, auth, and rate limiting.
type Handler struct {
	services *service.Service
	log      *logger.Logger

	apiToken       string
	controlLimiter *clientLimiter
	statusLimiter  *clientLimiter
}

// NewHandler constructs the HTTP handler with its dependencies.
func NewHandler(services *service.Service, cfg *config.Config, log *logger.Logger) *Handler {
	return &Handler{
		services:       services,
		log:            log,
		apiToken:       cfg.APIToken,
		controlLimiter: newClientLimiter(cfg.ControlRatePerHour),
		statusLimiter:  newClientLimiter(cfg.StatusRatePerHour),
	}
}

// InitRoutes builds and returns the Gin router with all routes registered.
//
// The mutating control operation carries its own low rate ceiling; the
// read-only routes share the higher status ceiling, so UI polling never
// starves control calls and vice versa.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Public endpoints
	router.GET("/health", h.health)
	router.GET("/modes", h.getModes)

	// Authenticated endpoints
	router.GET("/control", h.tokenAuthMiddleware, h.controlLimiter.middleware, h.control)
	router.GET("/status", h.tokenAuthMiddleware, h.statusLimiter.middleware, h.getStatus)
	router.GET("/events", h.tokenAuthMiddleware, h.statusLimiter.middleware, h.getEvents)
	router.GET("/ws", h.tokenAuthMiddleware, h.wsConnect)

	return router
}
