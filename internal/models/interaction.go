package models

import (
	"strings"
	"time"
)

type InteractionVerb string

const (
	VerbProgressed InteractionVerb = "progressed"
	VerbAnswered   InteractionVerb = "answered"
)

// FullProgress is the progress value reported when a learner has seen the
// whole module.
const FullProgress = 100

// Interaction is one observed engagement or quiz-answer event for a
// (user, assignment, activity), appended by the telemetry ingester and
// consumed by the grading engine. Rows start unprocessed and are flipped
// to processed only after the resulting grade has been pushed externally.
type Interaction struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	UserID       string          `json:"user_id" gorm:"not null;size:255;index:idx_interaction_user_assignment"`
	CourseID     string          `json:"course_id" gorm:"not null;size:64;index"`
	AssignmentID string          `json:"assignment_id" gorm:"not null;size:64;index:idx_interaction_user_assignment"`
	ActivityID   string          `json:"activity_id" gorm:"not null;size:512"`
	Verb         InteractionVerb `json:"verb" gorm:"not null;size:16"`

	// Progress is set for progressed events (0-100).
	Progress *int `json:"progress"`
	// Success is set for answered events.
	Success *bool `json:"success"`

	Unprocessed bool `json:"unprocessed" gorm:"default:true;index"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// QuestionKey returns the question identity for an answered interaction:
// the activity identifier with the trailing _<timestamp> attempt suffix
// removed. Repeated attempts at the same question share one key.
func (i *Interaction) QuestionKey() string {
	if idx := strings.LastIndex(i.ActivityID, "_"); idx > 0 {
		return i.ActivityID[:idx]
	}
	return i.ActivityID
}

// IsFullProgress reports whether this is a progressed event at 100%.
func (i *Interaction) IsFullProgress() bool {
	return i.Verb == VerbProgressed && i.Progress != nil && *i.Progress == FullProgress
}
