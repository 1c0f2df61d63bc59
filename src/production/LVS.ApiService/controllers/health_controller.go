package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	health "gitlab.com/maplesense1/lvs.livestock_server/src/production/LVS.ApiService/health"
)

// HealthController exposes liveness and readiness probes for the
// API service itself.
type HealthController struct {
	checker *health.HealthChecker
}

// NewHealthController creates a new health controller.
func NewHealthController(checker *health.HealthChecker) *HealthController {
	return &HealthController{checker: checker}
}

// RegisterRoutes registers the probe routes with Gin.
func (c *HealthController) RegisterRoutes(router *gin.Engine) {
	probes := router.Group("/health")
	{
		probes.GET("/live", c.Live)
		probes.GET("/ready", c.Ready)
	}
}

// Live answers as long as the process is serving: GET /health/live
func (c *HealthController) Live(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready checks both datastores before answering: GET /health/ready
func (c *HealthController) Ready(ctx *gin.Context) {
	status := c.checker.GetHealthStatus(ctx.Request.Context())

	code := http.StatusOK
	if status["status"] != "ok" {
		code = http.StatusServiceUnavailable
	}
	ctx.JSON(code, status)
}
