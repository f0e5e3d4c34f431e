package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/module-grading-service/internal/repositories"
	"github.com/SAP-F-2025/module-grading-service/internal/services"
	"github.com/SAP-F-2025/module-grading-service/internal/utils"
	"github.com/SAP-F-2025/module-grading-service/internal/validator"
)

type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// LogRequest logs with the request-scoped logger so entries carry the
// request ID.
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.LoggerFromContext(c, h.logger).Info(msg, args...)
}

// handleServiceError maps service errors onto HTTP status codes.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, services.ErrAssignmentNotFound) || repositories.IsNotFoundError(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Resource not found"})
	case errors.As(err, &verrs):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: verrs,
		})
	case services.IsConfigurationError(err):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Assignment is not set up for grading",
			Details: err.Error(),
		})
	default:
		utils.LoggerFromContext(c, h.logger).Error("Unhandled service error", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
}

// requireParam aborts with 400 when a path parameter is missing.
func (h *BaseHandler) requireParam(c *gin.Context, name string) (string, bool) {
	value := c.Param(name)
	if value == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Missing path parameter: " + name})
		return "", false
	}
	return value, true
}
