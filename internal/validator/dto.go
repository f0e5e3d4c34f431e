package validator

// SyncGradeRequest is the body of the synchronous grade-sync endpoint,
// triggered by module completion callbacks or an explicit staff action.
type SyncGradeRequest struct {
	// Force bypasses the needs-grading check, used when a human explicitly
	// asks for a recomputation.
	Force bool `json:"force"`
}
