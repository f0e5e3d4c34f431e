// Package gradebook is the adapter for the external gradebook the platform
// pushes grades into. The grading services depend only on the Client
// interface; the REST implementation and the redis-cached decorator live
// alongside it.
package gradebook

import (
	"context"
	"time"
)

// Submission is the external gradebook's current state for one user on
// one assignment.
type Submission struct {
	UserID string `json:"user_id"`
	// Score is nil when the assignment has never been graded for the user.
	Score *float64 `json:"score"`
	// GraderID identifies who last graded the submission; empty when
	// ungraded.
	GraderID string `json:"grader_id"`
}

// DeadlineOverride is a due-date exception fetched per assignment. Exactly
// one of SectionID or UserIDs is populated.
type DeadlineOverride struct {
	SectionID string    `json:"section_id,omitempty"`
	UserIDs   []string  `json:"user_ids,omitempty"`
	DueAt     time.Time `json:"due_at"`
}

type Client interface {
	// GetSubmission is the single-user lookup used by the synchronous path.
	GetSubmission(ctx context.Context, courseID, assignmentID, userID string) (*Submission, error)

	// GetSubmissions is the bulk lookup used by the batch path, one call
	// covering every enrolled user.
	GetSubmissions(ctx context.Context, courseID, assignmentID string) (map[string]*Submission, error)

	GetDeadlineOverrides(ctx context.Context, assignmentID string) ([]DeadlineOverride, error)

	UpdateGrade(ctx context.Context, courseID, assignmentID, userID string, score float64) error

	// UpdateGrades pushes all changed scores for an assignment in one call.
	UpdateGrades(ctx context.Context, courseID, assignmentID string, scores map[string]float64) error
}

// IsManuallyGraded reports whether the submission was graded out-of-band
// by someone other than the service's own grading identity.
func IsManuallyGraded(sub *Submission, gradingUserID string) bool {
	if sub == nil || sub.GraderID == "" {
		return false
	}
	return sub.GraderID != gradingUserID
}
