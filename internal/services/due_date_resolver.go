package services

import (
	"slices"
	"time"

	"github.com/SAP-F-2025/module-grading-service/internal/gradebook"
)

// ResolveDueDate picks the effective due date for a user from the
// assignment's deadline overrides. When more than one override matches
// the most generous (latest) deadline wins. Returns nil when no
// override applies, which downstream treats as "due now".
func ResolveDueDate(userID string, sections []string, overrides []gradebook.DeadlineOverride) *time.Time {
	var latest *time.Time
	for _, o := range overrides {
		if !overrideApplies(o, userID, sections) {
			continue
		}
		if latest == nil || o.DueAt.After(*latest) {
			due := o.DueAt
			latest = &due
		}
	}
	return latest
}

// A section-scoped override applies through membership; an ad-hoc
// override names its users directly.
func overrideApplies(o gradebook.DeadlineOverride, userID string, sections []string) bool {
	if o.SectionID != "" {
		return slices.Contains(sections, o.SectionID)
	}
	return slices.Contains(o.UserIDs, userID)
}
