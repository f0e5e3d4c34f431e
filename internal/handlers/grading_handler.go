package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/module-grading-service/internal/services"
	"github.com/SAP-F-2025/module-grading-service/internal/utils"
	"github.com/SAP-F-2025/module-grading-service/internal/validator"
)

type GradingHandler struct {
	BaseHandler
	gradingService services.GradingService
	syncService    services.SyncService
	validator      *validator.Validator

	sweepTimeout time.Duration
}

func NewGradingHandler(
	gradingService services.GradingService,
	syncService services.SyncService,
	v *validator.Validator,
	logger utils.Logger,
) *GradingHandler {
	return &GradingHandler{
		BaseHandler:    NewBaseHandler(logger),
		gradingService: gradingService,
		syncService:    syncService,
		validator:      v,
		sweepTimeout:   2 * time.Hour,
	}
}

// GradeResponse is the wire shape for a computed grade.
type GradeResponse struct {
	UserID       string `json:"user_id"`
	CourseID     string `json:"course_id"`
	AssignmentID string `json:"assignment_id"`

	TotalScore      float64 `json:"total_score"`
	EngagementScore float64 `json:"engagement_score"`
	QuizScore       float64 `json:"quiz_score"`
	OnTimeScore     float64 `json:"on_time_score"`

	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`

	// Synced is true when the score was pushed to the external
	// gradebook during this request.
	Synced bool `json:"synced"`
}

func newGradeResponse(courseID, assignmentID, userID string, result *services.GradeResult, synced bool) GradeResponse {
	return GradeResponse{
		UserID:          userID,
		CourseID:        courseID,
		AssignmentID:    assignmentID,
		TotalScore:      result.TotalScore,
		EngagementScore: result.Breakdown.EngagementScore,
		QuizScore:       result.Breakdown.QuizScore,
		OnTimeScore:     result.Breakdown.OnTimeScore,
		CompletedAt:     result.Breakdown.CompletedAt,
		DueAt:           result.DueAt,
		Synced:          synced,
	}
}

// SyncGrade grades one user on one assignment and pushes the result.
func (h *GradingHandler) SyncGrade(c *gin.Context) {
	courseID, ok := h.requireParam(c, "course_id")
	if !ok {
		return
	}
	assignmentID, ok := h.requireParam(c, "assignment_id")
	if !ok {
		return
	}
	userID, ok := h.requireParam(c, "user_id")
	if !ok {
		return
	}

	var req validator.SyncGradeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid request payload",
				Details: err.Error(),
			})
			return
		}
	}

	h.LogRequest(c, "Syncing grade",
		"course_id", courseID, "assignment_id", assignmentID, "user_id", userID, "force", req.Force)

	assignment, err := h.gradingService.LookupAssignment(c.Request.Context(), courseID, assignmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	result, err := h.gradingService.GradeOne(c.Request.Context(), userID, assignment, services.GradeOptions{
		Force:          req.Force,
		SendExternally: true,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if result == nil {
		c.JSON(http.StatusOK, SuccessResponse{Message: "Grade already up to date"})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Data: newGradeResponse(courseID, assignmentID, userID, result, true),
	})
}

// GetBreakdown computes the current grade without pushing anything.
func (h *GradingHandler) GetBreakdown(c *gin.Context) {
	courseID, ok := h.requireParam(c, "course_id")
	if !ok {
		return
	}
	assignmentID, ok := h.requireParam(c, "assignment_id")
	if !ok {
		return
	}
	userID, ok := h.requireParam(c, "user_id")
	if !ok {
		return
	}

	assignment, err := h.gradingService.LookupAssignment(c.Request.Context(), courseID, assignmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	result, err := h.gradingService.ComputeBreakdown(c.Request.Context(), userID, assignment)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Data: newGradeResponse(courseID, assignmentID, userID, result, false),
	})
}

// TriggerSweep starts a full batch sweep in the background. The request
// returns immediately; progress is observable through logs and events.
func (h *GradingHandler) TriggerSweep(c *gin.Context) {
	h.LogRequest(c, "Manual sweep triggered")

	logger := utils.LoggerFromContext(c, h.logger)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.sweepTimeout)
		defer cancel()

		if err := h.syncService.SweepPrograms(ctx); err != nil {
			logger.Error("Manual sweep failed", "error", err)
		}
	}()

	c.JSON(http.StatusAccepted, SuccessResponse{Message: "Sweep started"})
}
