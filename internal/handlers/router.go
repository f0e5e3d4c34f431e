package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/module-grading-service/internal/services"
	"github.com/SAP-F-2025/module-grading-service/internal/utils"
	"github.com/SAP-F-2025/module-grading-service/internal/validator"
)

type HandlerManager struct {
	gradingHandler *GradingHandler
	serviceManager services.ServiceManager
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	v *validator.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		gradingHandler: NewGradingHandler(serviceManager.Grading(), serviceManager.Sync(), v, logger),
		serviceManager: serviceManager,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.healthCheck)

	v1 := router.Group("/api/v1")
	{
		users := v1.Group("/courses/:course_id/assignments/:assignment_id/users/:user_id")
		{
			users.POST("/grade", hm.gradingHandler.SyncGrade)
			users.GET("/breakdown", hm.gradingHandler.GetBreakdown)
		}

		v1.POST("/sweep", hm.gradingHandler.TriggerSweep)
	}
}

func (hm *HandlerManager) healthCheck(c *gin.Context) {
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"error":     err.Error(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "module-grading-service",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
