package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/module-grading-service/internal/models"
)

// ===== DOMAIN REPOSITORY INTERFACES =====

// InteractionRepository reads and flips the append-only interaction log.
// Appending rows is owned by the upstream telemetry ingester; Create is
// the seam it writes through.
type InteractionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, interaction *models.Interaction) error

	// GetByUserAssignment returns the full interaction history, oldest
	// first. Grading always reads the full history, not just unprocessed
	// rows.
	GetByUserAssignment(ctx context.Context, tx *gorm.DB, userID, assignmentID string) ([]*models.Interaction, error)

	HasUnprocessed(ctx context.Context, tx *gorm.DB, userID, assignmentID string) (bool, error)

	// AssignmentIDsWithUnprocessed returns the external assignment IDs in a
	// course that have at least one unprocessed interaction, so sweeps can
	// skip everything else.
	AssignmentIDsWithUnprocessed(ctx context.Context, tx *gorm.DB, courseID string) ([]string, error)

	MarkProcessed(ctx context.Context, tx *gorm.DB, userID, assignmentID string) error
	MarkProcessedBatch(ctx context.Context, tx *gorm.DB, userIDs []string, assignmentID string) error
}

type GradeCacheRepository interface {
	// Get returns the cache row for (user, assignment) or a not-found
	// error when no grading pass has created it yet.
	Get(ctx context.Context, tx *gorm.DB, userID, assignmentID string) (*models.ModuleGradeCache, error)

	// SetOnTimeCredit upserts the cache row with the given credit state.
	SetOnTimeCredit(ctx context.Context, tx *gorm.DB, userID, assignmentID string, received bool) error
}

type RosterRepository interface {
	// ActivePrograms returns programs that are currently running or start
	// in the future, plus programs that ended within the trailing window.
	ActivePrograms(ctx context.Context, tx *gorm.DB, trailing time.Duration) ([]*models.Program, error)

	CoursesByProgram(ctx context.Context, tx *gorm.DB, programID uint) ([]*models.Course, error)

	// GetAssignment resolves an assignment by its external gradebook
	// identifier, preloading the linked module version.
	GetAssignment(ctx context.Context, tx *gorm.DB, externalID string) (*models.Assignment, error)

	EnrolledUserIDs(ctx context.Context, tx *gorm.DB, courseID uint) ([]string, error)

	// UserSections returns the external section IDs the user is enrolled
	// in for the assignment's course, used for deadline-override matching.
	UserSections(ctx context.Context, tx *gorm.DB, courseID uint, userID string) ([]string, error)
}

// ===== SHARED FILTER STRUCTS =====

type InteractionFilters struct {
	Verb        *models.InteractionVerb `json:"verb"`
	Unprocessed *bool                   `json:"unprocessed"`
	DateFrom    *time.Time              `json:"date_from"`
	DateTo      *time.Time              `json:"date_to"`
	Limit       int                     `json:"limit"`
	Offset      int                     `json:"offset"`
}
