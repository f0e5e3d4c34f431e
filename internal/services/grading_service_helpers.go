package services

import (
	"context"
	"fmt"
	"time"

	"github.com/SAP-F-2025/module-grading-service/internal/gradebook"
	"github.com/SAP-F-2025/module-grading-service/internal/models"
	"github.com/SAP-F-2025/module-grading-service/internal/repositories"
)

// compute fetches the user's history and scores it against the
// assignment's module version.
func (s *gradingService) compute(ctx context.Context, userID string, assignment *models.Assignment, dueAt *time.Time) (models.GradeBreakdown, error) {
	quizSize, err := quizSize(assignment)
	if err != nil {
		return models.GradeBreakdown{}, err
	}

	interactions, err := s.repo.Interaction().GetByUserAssignment(ctx, nil, userID, assignment.ExternalID)
	if err != nil {
		return models.GradeBreakdown{}, fmt.Errorf("failed to get interactions: %w", err)
	}

	return s.calculator.Compute(interactions, dueAt, quizSize, assignment.PointsPossible)
}

// needsGrading decides whether the user's grade should be recomputed.
// The rules are checked in order; the first one that fires decides.
func (s *gradingService) needsGrading(ctx context.Context, userID string, assignment *models.Assignment, submission *gradebook.Submission, overrides []gradebook.DeadlineOverride) (bool, error) {
	interactions, err := s.repo.Interaction().GetByUserAssignment(ctx, nil, userID, assignment.ExternalID)
	if err != nil {
		return false, fmt.Errorf("failed to get interactions: %w", err)
	}

	// Never opened the module: grade (a zero) only once the deadline has
	// passed. The first push flips interactions processed, but with no
	// rows there is nothing to flip, so the monotonic guard is what
	// keeps later sweeps from re-pushing.
	if len(interactions) == 0 {
		due, err := s.resolveUserDue(ctx, userID, assignment, overrides)
		if err != nil {
			return false, err
		}
		return due == nil || !due.After(s.now()), nil
	}

	// A manual grade entered by a human must be superseded by the next
	// computed pass.
	if gradebook.IsManuallyGraded(submission, s.gradingUserID) {
		return true, nil
	}

	for _, in := range interactions {
		if in.Unprocessed {
			return true, nil
		}
	}

	// Everything processed. The only remaining reason to regrade is a
	// completion that has not yet earned on-time credit but could under
	// a deadline extension granted after the fact.
	completedAt := firstCompletionAt(interactions)
	if completedAt == nil {
		return false, nil
	}

	cached, err := s.repo.GradeCache().Get(ctx, nil, userID, assignment.ExternalID)
	if err != nil && !repositories.IsNotFoundError(err) {
		return false, fmt.Errorf("failed to get grade cache: %w", err)
	}
	if cached != nil && cached.OnTimeCreditReceived {
		return false, nil
	}

	due, err := s.resolveUserDue(ctx, userID, assignment, overrides)
	if err != nil {
		return false, err
	}
	return completedOnTime(completedAt, due, s.now()), nil
}

// fetchOverrides pulls the assignment's deadline overrides from the
// external gradebook.
func (s *gradingService) fetchOverrides(ctx context.Context, assignment *models.Assignment) ([]gradebook.DeadlineOverride, error) {
	overrides, err := s.gradebook.GetDeadlineOverrides(ctx, assignment.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get deadline overrides: %w", err)
	}
	return overrides, nil
}

// resolveUserDue resolves already-fetched overrides against the user's
// section memberships.
func (s *gradingService) resolveUserDue(ctx context.Context, userID string, assignment *models.Assignment, overrides []gradebook.DeadlineOverride) (*time.Time, error) {
	if len(overrides) == 0 {
		return nil, nil
	}

	sections, err := s.repo.Roster().UserSections(ctx, nil, assignment.CourseID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user sections: %w", err)
	}

	return ResolveDueDate(userID, sections, overrides), nil
}

// quizSize reads the module's question count off the preloaded version.
func quizSize(assignment *models.Assignment) (int, error) {
	if assignment.ModuleVersionID == nil || assignment.ModuleVersion == nil {
		return 0, ErrNoModuleVersion
	}
	return assignment.ModuleVersion.QuizSize, nil
}

// firstCompletionAt returns when the user first hit full progress, or
// nil if they never did. History is oldest first.
func firstCompletionAt(interactions []*models.Interaction) *time.Time {
	for _, in := range interactions {
		if in.IsFullProgress() {
			at := in.CreatedAt
			return &at
		}
	}
	return nil
}

// completedOnTime applies the "due now" convention: with no due date
// configured, the deadline is the moment of evaluation, so any recorded
// completion counts as on time.
func completedOnTime(completedAt, dueAt *time.Time, now time.Time) bool {
	if completedAt == nil {
		return false
	}
	if dueAt == nil {
		return !completedAt.After(now)
	}
	return !completedAt.After(*dueAt)
}
