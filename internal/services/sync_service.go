package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/module-grading-service/internal/events"
	"github.com/SAP-F-2025/module-grading-service/internal/gradebook"
	"github.com/SAP-F-2025/module-grading-service/internal/models"
	"github.com/SAP-F-2025/module-grading-service/internal/repositories"
)

// SyncConfig tunes the batch sweep.
type SyncConfig struct {
	// TrailingWindow keeps grading stragglers for programs that already
	// ended, for this long past their end date.
	TrailingWindow time.Duration

	// Workers bounds how many assignments are graded concurrently
	// within one course.
	Workers int
}

type syncService struct {
	repo      repositories.Repository
	gradebook gradebook.Client
	grading   GradingService
	events    events.EventPublisher
	logger    *slog.Logger
	config    SyncConfig
	now       func() time.Time
}

func NewSyncService(
	repo repositories.Repository,
	gbClient gradebook.Client,
	grading GradingService,
	publisher events.EventPublisher,
	logger *slog.Logger,
	config SyncConfig,
) SyncService {
	if config.Workers <= 0 {
		config.Workers = 4
	}
	return &syncService{
		repo:      repo,
		gradebook: gbClient,
		grading:   grading,
		events:    publisher,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

// SweepPrograms is the nightly entry point. Failures are isolated per
// course and per assignment; one bad assignment never aborts a sweep.
func (s *syncService) SweepPrograms(ctx context.Context) error {
	started := s.now()

	programs, err := s.repo.Roster().ActivePrograms(ctx, nil, s.config.TrailingWindow)
	if err != nil {
		return fmt.Errorf("failed to list active programs: %w", err)
	}

	for _, program := range programs {
		courses, err := s.repo.Roster().CoursesByProgram(ctx, nil, program.ID)
		if err != nil {
			s.logger.Error("Failed to list courses, skipping program",
				"program_id", program.ExternalID, "error", err)
			continue
		}
		for _, course := range courses {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.sweepCourse(ctx, course)
		}
	}

	s.logger.Info("Sweep finished",
		"programs", len(programs),
		"duration_ms", s.now().Sub(started).Milliseconds())
	return nil
}

// sweepCourse grades every assignment in the course that has at least
// one unprocessed interaction.
func (s *syncService) sweepCourse(ctx context.Context, course *models.Course) {
	log := s.logger.With("course_id", course.ExternalID)

	assignmentIDs, err := s.repo.Interaction().AssignmentIDsWithUnprocessed(ctx, nil, course.ExternalID)
	if err != nil {
		log.Error("Failed to find assignments with unprocessed interactions", "error", err)
		return
	}
	if len(assignmentIDs) == 0 {
		return
	}

	userIDs, err := s.repo.Roster().EnrolledUserIDs(ctx, nil, course.ID)
	if err != nil {
		log.Error("Failed to list enrolled users", "error", err)
		return
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.config.Workers)
	for _, externalID := range assignmentIDs {
		assignment, err := s.repo.Roster().GetAssignment(ctx, nil, externalID)
		if err != nil {
			log.Error("Failed to load assignment, skipping", "assignment_id", externalID, "error", err)
			continue
		}

		wg.Add(1)
		go func(a *models.Assignment) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := s.GradeAssignment(ctx, a, userIDs); err != nil {
				log.Error("Failed to grade assignment", "assignment_id", a.ExternalID, "error", err)
			}
		}(assignment)
	}
	wg.Wait()
}

// GradeAssignment grades all users against one assignment: one bulk
// submission fetch up front, at most one bulk push at the end.
func (s *syncService) GradeAssignment(ctx context.Context, assignment *models.Assignment, userIDs []string) error {
	log := s.logger.With(
		"assignment_id", assignment.ExternalID,
		"course_id", assignment.ExternalCourseID)

	submissions, err := s.gradebook.GetSubmissions(ctx, assignment.ExternalCourseID, assignment.ExternalID)
	if err != nil {
		return fmt.Errorf("failed to get submissions: %w", err)
	}

	overrides, err := s.gradebook.GetDeadlineOverrides(ctx, assignment.ExternalID)
	if err != nil {
		return fmt.Errorf("failed to get deadline overrides: %w", err)
	}

	outcomes := make(map[string]*GradeResult)
	scores := make(map[string]float64)
	for _, userID := range userIDs {
		sub := submissions[userID]
		if sub == nil {
			sub = &gradebook.Submission{UserID: userID}
		}

		result, err := s.grading.GradeOne(ctx, userID, assignment, GradeOptions{
			Prefetched:       sub,
			Overrides:        overrides,
			OverridesFetched: true,
		})
		if err != nil {
			if IsConfigurationError(err) {
				log.Warn("Assignment misconfigured for user, skipping", "user_id", userID, "error", err)
			} else {
				log.Error("Failed to grade user, skipping", "user_id", userID, "error", err)
			}
			continue
		}
		if result != nil {
			outcomes[userID] = result
			scores[userID] = result.TotalScore
		}
	}

	if len(scores) == 0 {
		log.Debug("No grade changes to push")
		return nil
	}

	if err := s.gradebook.UpdateGrades(ctx, assignment.ExternalCourseID, assignment.ExternalID, scores); err != nil {
		return fmt.Errorf("failed to push grades: %w", err)
	}

	if err := s.grading.FinalizeSync(ctx, assignment, outcomes); err != nil {
		return fmt.Errorf("grades pushed but bookkeeping failed: %w", err)
	}

	if err := s.events.PublishGradeSynced(ctx, &events.GradeSyncedEvent{
		CourseID:     assignment.ExternalCourseID,
		AssignmentID: assignment.ExternalID,
		Scores:       scores,
		SyncedAt:     s.now(),
	}); err != nil {
		log.Error("Failed to publish grade synced event", "error", err)
	}

	log.Info("Grades pushed", "users_graded", len(scores), "users_considered", len(userIDs))
	return nil
}
