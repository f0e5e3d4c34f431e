package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/module-grading-service/internal/events"
	"github.com/SAP-F-2025/module-grading-service/internal/gradebook"
	"github.com/SAP-F-2025/module-grading-service/internal/models"
	"github.com/SAP-F-2025/module-grading-service/internal/repositories"
	"github.com/SAP-F-2025/module-grading-service/internal/validator"
)

type gradingService struct {
	db         *gorm.DB
	repo       repositories.Repository
	gradebook  gradebook.Client
	calculator *GradeCalculator
	events     events.EventPublisher
	logger     *slog.Logger
	validator  *validator.Validator

	// gradingUserID is the identity this service grades as. A submission
	// last graded by anyone else counts as a manual override.
	gradingUserID string
	now           func() time.Time
}

func NewGradingService(
	db *gorm.DB,
	repo repositories.Repository,
	gbClient gradebook.Client,
	calculator *GradeCalculator,
	publisher events.EventPublisher,
	logger *slog.Logger,
	v *validator.Validator,
	gradingUserID string,
) GradingService {
	return &gradingService{
		db:            db,
		repo:          repo,
		gradebook:     gbClient,
		calculator:    calculator,
		events:        publisher,
		logger:        logger,
		validator:     v,
		gradingUserID: gradingUserID,
		now:           time.Now,
	}
}

func (s *gradingService) LookupAssignment(ctx context.Context, courseID, assignmentID string) (*models.Assignment, error) {
	if courseID == "" || assignmentID == "" {
		return nil, NewValidationError("assignment_id", "course and assignment IDs are required", assignmentID)
	}

	assignment, err := s.repo.Roster().GetAssignment(ctx, nil, assignmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment.ExternalCourseID != courseID {
		return nil, ErrAssignmentNotFound
	}
	return assignment, nil
}

func (s *gradingService) ComputeBreakdown(ctx context.Context, userID string, assignment *models.Assignment) (*GradeResult, error) {
	overrides, err := s.fetchOverrides(ctx, assignment)
	if err != nil {
		return nil, err
	}

	dueAt, err := s.resolveUserDue(ctx, userID, assignment, overrides)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.compute(ctx, userID, assignment, dueAt)
	if err != nil {
		return nil, err
	}

	return &GradeResult{
		TotalScore: breakdown.TotalScore(),
		Breakdown:  breakdown,
		DueAt:      dueAt,
	}, nil
}

func (s *gradingService) NeedsGrading(ctx context.Context, userID string, assignment *models.Assignment) (bool, error) {
	submission, err := s.gradebook.GetSubmission(ctx, assignment.ExternalCourseID, assignment.ExternalID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to get submission: %w", err)
	}

	overrides, err := s.fetchOverrides(ctx, assignment)
	if err != nil {
		return false, err
	}
	return s.needsGrading(ctx, userID, assignment, submission, overrides)
}

// GradeOne is the full per-user pipeline. A nil result with a nil error
// means nothing needed to be pushed.
func (s *gradingService) GradeOne(ctx context.Context, userID string, assignment *models.Assignment, opts GradeOptions) (*GradeResult, error) {
	log := s.logger.With(
		"user_id", userID,
		"assignment_id", assignment.ExternalID,
		"course_id", assignment.ExternalCourseID)

	submission := opts.Prefetched
	if submission == nil {
		sub, err := s.gradebook.GetSubmission(ctx, assignment.ExternalCourseID, assignment.ExternalID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to get submission: %w", err)
		}
		submission = sub
	}

	overrides := opts.Overrides
	if !opts.OverridesFetched {
		var err error
		overrides, err = s.fetchOverrides(ctx, assignment)
		if err != nil {
			return nil, err
		}
	}

	if !opts.Force {
		need, err := s.needsGrading(ctx, userID, assignment, submission, overrides)
		if err != nil {
			return nil, err
		}
		if !need {
			log.Debug("Grading not needed, skipping")
			return nil, nil
		}
	}

	dueAt, err := s.resolveUserDue(ctx, userID, assignment, overrides)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.compute(ctx, userID, assignment, dueAt)
	if err != nil {
		return nil, err
	}

	result := &GradeResult{
		TotalScore: breakdown.TotalScore(),
		Breakdown:  breakdown,
		DueAt:      dueAt,
	}

	// Grades only ever go up. An equal or lower score is never pushed,
	// which keeps manual corrections and concurrent pushes from being
	// clobbered.
	if submission != nil && submission.Score != nil && result.TotalScore <= *submission.Score {
		log.Debug("Computed score does not improve on current grade, skipping push",
			"computed", result.TotalScore,
			"current", *submission.Score)
		return nil, nil
	}

	if !opts.SendExternally {
		return result, nil
	}

	if err := s.gradebook.UpdateGrade(ctx, assignment.ExternalCourseID, assignment.ExternalID, userID, result.TotalScore); err != nil {
		return nil, fmt.Errorf("failed to push grade: %w", err)
	}

	if err := s.FinalizeSync(ctx, assignment, map[string]*GradeResult{userID: result}); err != nil {
		return nil, fmt.Errorf("grade pushed but bookkeeping failed: %w", err)
	}

	if err := s.events.PublishGradeSynced(ctx, &events.GradeSyncedEvent{
		CourseID:     assignment.ExternalCourseID,
		AssignmentID: assignment.ExternalID,
		Scores:       map[string]float64{userID: result.TotalScore},
		SyncedAt:     s.now(),
	}); err != nil {
		log.Error("Failed to publish grade synced event", "error", err)
	}

	log.Info("Grade pushed", "score", result.TotalScore)
	return result, nil
}

// FinalizeSync runs the post-push bookkeeping for any number of users in
// one transaction: interactions flip to processed, and users who
// finished at or before their due date get sticky on-time credit.
func (s *gradingService) FinalizeSync(ctx context.Context, assignment *models.Assignment, outcomes map[string]*GradeResult) error {
	if len(outcomes) == 0 {
		return nil
	}

	userIDs := make([]string, 0, len(outcomes))
	for userID := range outcomes {
		userIDs = append(userIDs, userID)
	}

	return s.repo.WithTransaction(ctx, func(r repositories.Repository) error {
		if err := r.Interaction().MarkProcessedBatch(ctx, nil, userIDs, assignment.ExternalID); err != nil {
			return fmt.Errorf("failed to mark interactions processed: %w", err)
		}

		for userID, result := range outcomes {
			if !completedOnTime(result.Breakdown.CompletedAt, result.DueAt, s.now()) {
				continue
			}
			if err := r.GradeCache().SetOnTimeCredit(ctx, nil, userID, assignment.ExternalID, true); err != nil {
				return fmt.Errorf("failed to persist on-time credit for user %s: %w", userID, err)
			}
		}
		return nil
	})
}
