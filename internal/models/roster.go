package models

import "time"

// Roster mirror: programs, courses, assignments and enrollments discovered
// from the platform. The grading engine only reads these; discovery and
// refresh are owned by the surrounding platform.

type Program struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ExternalID string    `json:"external_id" gorm:"not null;size:64;uniqueIndex"`
	Name       string    `json:"name" gorm:"size:255"`
	StartsAt   time.Time `json:"starts_at" gorm:"index"`
	EndsAt     time.Time `json:"ends_at" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Courses []Course `json:"courses,omitempty" gorm:"foreignKey:ProgramID"`
}

type Course struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	ProgramID uint   `json:"program_id" gorm:"not null;index"`
	// ExternalID is the course identifier used by the external gradebook.
	ExternalID string `json:"external_id" gorm:"not null;size:64;uniqueIndex"`
	Name       string `json:"name" gorm:"size:255"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Program     Program      `json:"program" gorm:"foreignKey:ProgramID"`
	Assignments []Assignment `json:"assignments,omitempty" gorm:"foreignKey:CourseID"`
}

// ModuleVersion describes the e-learning module content an assignment is
// linked to, in particular how many quiz questions it carries. An
// assignment without a linked version cannot be quiz-graded.
type ModuleVersion struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Key      string `json:"key" gorm:"not null;size:255;uniqueIndex"`
	QuizSize int    `json:"quiz_size" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Assignment struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	CourseID uint `json:"course_id" gorm:"not null;index"`
	// ExternalID is the assignment identifier used by the external gradebook.
	ExternalID string `json:"external_id" gorm:"not null;size:64;uniqueIndex"`
	// ExternalCourseID is denormalized so grading never needs a join to
	// address the gradebook.
	ExternalCourseID string `json:"external_course_id" gorm:"not null;size:64"`
	Name             string `json:"name" gorm:"size:255"`

	// PointsPossible is the fixed total the weighted components are scaled
	// against for this assignment type.
	PointsPossible  float64 `json:"points_possible" gorm:"not null"`
	ModuleVersionID *uint   `json:"module_version_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Course        Course         `json:"course" gorm:"foreignKey:CourseID"`
	ModuleVersion *ModuleVersion `json:"module_version,omitempty" gorm:"foreignKey:ModuleVersionID"`
}

type Enrollment struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	CourseID  uint   `json:"course_id" gorm:"not null;uniqueIndex:idx_enrollment_course_user"`
	UserID    string `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_enrollment_course_user"`
	SectionID string `json:"section_id" gorm:"size:64;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Course Course `json:"course" gorm:"foreignKey:CourseID"`
}
