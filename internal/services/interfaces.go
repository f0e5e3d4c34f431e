package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/module-grading-service/internal/gradebook"
	"github.com/SAP-F-2025/module-grading-service/internal/models"
)

// GradeOptions tunes a single GradeOne call.
type GradeOptions struct {
	// Force skips the needs-grading check and always recomputes.
	Force bool

	// SendExternally pushes the grade and finalizes bookkeeping inside
	// GradeOne. Batch callers leave it false, collect results and push
	// in bulk instead.
	SendExternally bool

	// Prefetched carries a submission fetched in bulk so GradeOne does
	// not issue a per-user gradebook read. Nil means fetch on demand.
	Prefetched *gradebook.Submission

	// Overrides carries the assignment's deadline overrides fetched in
	// bulk. OverridesFetched distinguishes "fetched, none exist" from
	// "fetch on demand".
	Overrides        []gradebook.DeadlineOverride
	OverridesFetched bool
}

// GradeResult is the outcome of grading one user on one assignment.
// GradeOne returns nil instead of a result when there is nothing to
// push (not needed, or the score would not improve).
type GradeResult struct {
	TotalScore float64
	Breakdown  models.GradeBreakdown

	// DueAt is the effective due date used during computation. Nil
	// means no due date was configured and "due now" semantics applied.
	DueAt *time.Time
}

// GradingService grades a single user on a single assignment.
type GradingService interface {
	// LookupAssignment resolves an assignment by its external course
	// and assignment identifiers. Returns ErrAssignmentNotFound when
	// either does not match.
	LookupAssignment(ctx context.Context, courseID, assignmentID string) (*models.Assignment, error)

	// ComputeBreakdown resolves the user's effective due date and
	// computes the weighted breakdown. Read-only, no external pushes.
	ComputeBreakdown(ctx context.Context, userID string, assignment *models.Assignment) (*GradeResult, error)

	// NeedsGrading reports whether the user's grade on the assignment
	// should be recomputed.
	NeedsGrading(ctx context.Context, userID string, assignment *models.Assignment) (bool, error)

	// GradeOne runs the full per-user pipeline: needs-grading check,
	// due date resolution, computation and the monotonic push guard.
	GradeOne(ctx context.Context, userID string, assignment *models.Assignment, opts GradeOptions) (*GradeResult, error)

	// FinalizeSync records the aftermath of a successful push: marks
	// the users' interactions processed and persists on-time credit
	// for completions that beat their due date. Runs in one
	// transaction.
	FinalizeSync(ctx context.Context, assignment *models.Assignment, outcomes map[string]*GradeResult) error
}

// SyncService drives bulk grading across courses and assignments.
type SyncService interface {
	// GradeAssignment grades every given user against one assignment
	// with a single bulk submission fetch and at most one bulk grade
	// push.
	GradeAssignment(ctx context.Context, assignment *models.Assignment, userIDs []string) error

	// SweepPrograms walks every active program and grades each
	// assignment that has unprocessed interactions.
	SweepPrograms(ctx context.Context) error
}

// ServiceManager wires and owns all service instances.
type ServiceManager interface {
	Grading() GradingService
	Sync() SyncService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
