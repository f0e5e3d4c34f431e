package services

import (
	"fmt"
	"math"
	"time"

	"github.com/SAP-F-2025/module-grading-service/internal/models"
)

// DefaultPointsPossible is used when an assignment reports no point
// value of its own.
const DefaultPointsPossible = 10.0

// GradeWeights splits the total grade between the three components.
// They must sum to exactly 1.
type GradeWeights struct {
	Engagement float64
	Quiz       float64
	OnTime     float64
}

var DefaultGradeWeights = GradeWeights{
	Engagement: 0.4,
	Quiz:       0.4,
	OnTime:     0.2,
}

func (w GradeWeights) Sum() float64 {
	return w.Engagement + w.Quiz + w.OnTime
}

func (w GradeWeights) Validate() error {
	if w.Engagement < 0 || w.Quiz < 0 || w.OnTime < 0 {
		return NewValidationError("weights", "grade weights must not be negative", w)
	}
	if math.Abs(w.Sum()-1.0) > 1e-9 {
		return NewValidationError("weights", fmt.Sprintf("grade weights must sum to 1.0, got %v", w.Sum()), w)
	}
	return nil
}

// GradeCalculator turns a user's interaction history into a weighted
// breakdown. It is stateless and safe for concurrent use.
type GradeCalculator struct {
	weights GradeWeights
	now     func() time.Time
}

func NewGradeCalculator(weights GradeWeights) (*GradeCalculator, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &GradeCalculator{weights: weights, now: time.Now}, nil
}

// Compute scores one user's full interaction history for one
// assignment. Interactions must be ordered oldest first. A nil dueAt
// means the module is treated as due at the moment of computation.
//
// quizSize is the module's question count. Zero switches to
// engagement-only mode where the quiz weight folds into engagement;
// zero combined with recorded answers is a configuration error.
func (c *GradeCalculator) Compute(interactions []*models.Interaction, dueAt *time.Time, quizSize int, pointsPossible float64) (models.GradeBreakdown, error) {
	if pointsPossible <= 0 {
		pointsPossible = DefaultPointsPossible
	}

	var breakdown models.GradeBreakdown
	if len(interactions) == 0 {
		return breakdown, nil
	}

	// Latest answer per question wins; the history is oldest first so
	// a plain overwrite keeps the most recent attempt.
	latestAnswers := make(map[string]*models.Interaction)
	maxProgress := 0
	for _, in := range interactions {
		switch in.Verb {
		case models.VerbProgressed:
			if in.Progress != nil && *in.Progress > maxProgress {
				maxProgress = *in.Progress
			}
			if breakdown.CompletedAt == nil && in.IsFullProgress() {
				at := in.CreatedAt
				breakdown.CompletedAt = &at
			}
		case models.VerbAnswered:
			latestAnswers[in.QuestionKey()] = in
		}
	}

	quizAbsent := quizSize <= 0
	if quizAbsent && len(latestAnswers) > 0 {
		return models.GradeBreakdown{}, ErrQuizSizeUnknown
	}

	engagementWeight := c.weights.Engagement
	if quizAbsent {
		engagementWeight += c.weights.Quiz
	}
	breakdown.EngagementScore = float64(maxProgress) / float64(models.FullProgress) * engagementWeight * pointsPossible

	if !quizAbsent {
		correct := 0
		for _, in := range latestAnswers {
			if in.Success != nil && *in.Success {
				correct++
			}
		}
		breakdown.QuizScore = float64(correct) / float64(quizSize) * c.weights.Quiz * pointsPossible
	}

	due := dueAt
	if due == nil {
		now := c.now()
		due = &now
	}
	if lastBeforeDue := latestProgressBefore(interactions, *due); lastBeforeDue != nil && lastBeforeDue.IsFullProgress() {
		breakdown.OnTimeScore = c.weights.OnTime * pointsPossible
	}

	return breakdown, nil
}

// latestProgressBefore returns the most recent PROGRESSED interaction
// recorded at or before the cutoff, or nil if none exists.
func latestProgressBefore(interactions []*models.Interaction, cutoff time.Time) *models.Interaction {
	var latest *models.Interaction
	for _, in := range interactions {
		if in.Verb != models.VerbProgressed || in.CreatedAt.After(cutoff) {
			continue
		}
		if latest == nil || in.CreatedAt.After(latest.CreatedAt) {
			latest = in
		}
	}
	return latest
}
