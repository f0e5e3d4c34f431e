package models

import (
	"math"
	"time"
)

// GradeBreakdown is the three-part weighted grade for a (user, assignment),
// each component already expressed in absolute points. Immutable once
// built by the calculator.
type GradeBreakdown struct {
	EngagementScore float64 `json:"engagement_score"`
	QuizScore       float64 `json:"quiz_score"`
	OnTimeScore     float64 `json:"on_time_score"`

	// CompletedAt is the creation time of the first-ever interaction that
	// reached 100% progress, independent of the due-date cutoff. Used for
	// on-time credit caching, never shown on its own.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TotalScore is the sum of the three components rounded to one decimal.
func (b GradeBreakdown) TotalScore() float64 {
	return math.Round((b.EngagementScore+b.QuizScore+b.OnTimeScore)*10) / 10
}

// ModuleGradeCache remembers, per (user, assignment), whether on-time
// credit has already been earned and pushed. It keeps earned credit sticky
// across later deadline extensions and is only ever written after a
// confirmed external push.
type ModuleGradeCache struct {
	ID                   uint   `json:"id" gorm:"primaryKey"`
	UserID               string `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_grade_cache_user_assignment"`
	AssignmentID         string `json:"assignment_id" gorm:"not null;size:64;uniqueIndex:idx_grade_cache_user_assignment"`
	OnTimeCreditReceived bool   `json:"on_time_credit_received"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
