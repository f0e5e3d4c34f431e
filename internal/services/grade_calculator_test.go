package services

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/SAP-F-2025/module-grading-service/internal/models"
)

var calcBase = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func progressedAt(at time.Time, progress int) *models.Interaction {
	return &models.Interaction{
		Verb:       models.VerbProgressed,
		ActivityID: "module-intro",
		Progress:   &progress,
		CreatedAt:  at,
	}
}

func answeredAt(at time.Time, activityID string, correct bool) *models.Interaction {
	return &models.Interaction{
		Verb:       models.VerbAnswered,
		ActivityID: activityID,
		Success:    &correct,
		CreatedAt:  at,
	}
}

func newTestCalculator(t *testing.T) *GradeCalculator {
	t.Helper()
	calc, err := NewGradeCalculator(DefaultGradeWeights)
	if err != nil {
		t.Fatalf("NewGradeCalculator: %v", err)
	}
	return calc
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestGradeWeightsValidate(t *testing.T) {
	if err := DefaultGradeWeights.Validate(); err != nil {
		t.Fatalf("default weights should validate, got %v", err)
	}
	if !approxEqual(DefaultGradeWeights.Sum(), 1.0) {
		t.Fatalf("default weights sum = %v, want 1.0", DefaultGradeWeights.Sum())
	}

	bad := GradeWeights{Engagement: 0.5, Quiz: 0.4, OnTime: 0.2}
	if err := bad.Validate(); err == nil {
		t.Fatal("weights summing to 1.1 should not validate")
	}
	if _, err := NewGradeCalculator(bad); err == nil {
		t.Fatal("NewGradeCalculator should reject invalid weights")
	}
}

func TestComputeEmptyHistory(t *testing.T) {
	calc := newTestCalculator(t)

	breakdown, err := calc.Compute(nil, nil, 2, 10)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got := breakdown.TotalScore(); got != 0 {
		t.Fatalf("empty history total = %v, want 0", got)
	}
	if breakdown.CompletedAt != nil {
		t.Fatal("empty history should have no completion time")
	}
}

func TestComputeWorkedExample(t *testing.T) {
	calc := newTestCalculator(t)
	due := calcBase.Add(24 * time.Hour)

	// Halfway through the module, one of two questions right, never
	// finished: 2.0 engagement + 2.0 quiz + 0 on-time of 10 points.
	interactions := []*models.Interaction{
		progressedAt(calcBase, 50),
		answeredAt(calcBase.Add(time.Minute), "q1_1741597200", true),
		answeredAt(calcBase.Add(2*time.Minute), "q2_1741597260", false),
	}

	breakdown, err := calc.Compute(interactions, &due, 2, 10)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !approxEqual(breakdown.EngagementScore, 2.0) {
		t.Errorf("engagement = %v, want 2.0", breakdown.EngagementScore)
	}
	if !approxEqual(breakdown.QuizScore, 2.0) {
		t.Errorf("quiz = %v, want 2.0", breakdown.QuizScore)
	}
	if breakdown.OnTimeScore != 0 {
		t.Errorf("on-time = %v, want 0", breakdown.OnTimeScore)
	}
	if got := breakdown.TotalScore(); got != 4.0 {
		t.Errorf("total = %v, want 4.0", got)
	}
}

func TestComputeFullCreditNoQuiz(t *testing.T) {
	calc := newTestCalculator(t)
	due := calcBase.Add(24 * time.Hour)

	// Quiz-less module: the quiz weight folds into engagement, so full
	// progress before the deadline is a perfect score.
	interactions := []*models.Interaction{
		progressedAt(calcBase, 100),
	}

	breakdown, err := calc.Compute(interactions, &due, 0, 10)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !approxEqual(breakdown.EngagementScore, 8.0) {
		t.Errorf("engagement = %v, want 8.0", breakdown.EngagementScore)
	}
	if !approxEqual(breakdown.OnTimeScore, 2.0) {
		t.Errorf("on-time = %v, want 2.0", breakdown.OnTimeScore)
	}
	if got := breakdown.TotalScore(); got != 10.0 {
		t.Errorf("total = %v, want 10.0", got)
	}
	if breakdown.CompletedAt == nil || !breakdown.CompletedAt.Equal(calcBase) {
		t.Errorf("completed at = %v, want %v", breakdown.CompletedAt, calcBase)
	}
}

func TestComputeMostRecentAnswerWins(t *testing.T) {
	calc := newTestCalculator(t)
	due := calcBase.Add(24 * time.Hour)

	// Same question attempted twice; only the later attempt counts.
	interactions := []*models.Interaction{
		answeredAt(calcBase, "q1_1741597200", false),
		answeredAt(calcBase.Add(time.Hour), "q1_1741600800", true),
	}

	breakdown, err := calc.Compute(interactions, &due, 2, 10)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !approxEqual(breakdown.QuizScore, 2.0) {
		t.Errorf("quiz = %v, want 2.0 (latest attempt correct)", breakdown.QuizScore)
	}

	// Flipping the order flips the outcome.
	interactions = []*models.Interaction{
		answeredAt(calcBase, "q1_1741597200", true),
		answeredAt(calcBase.Add(time.Hour), "q1_1741600800", false),
	}
	breakdown, err = calc.Compute(interactions, &due, 2, 10)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if breakdown.QuizScore != 0 {
		t.Errorf("quiz = %v, want 0 (latest attempt wrong)", breakdown.QuizScore)
	}
}

func TestComputeOnTimeBoundary(t *testing.T) {
	calc := newTestCalculator(t)
	due := calcBase

	// Completion exactly at the deadline still earns on-time credit.
	breakdown, err := calc.Compute([]*models.Interaction{progressedAt(due, 100)}, &due, 0, 10)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !approxEqual(breakdown.OnTimeScore, 2.0) {
		t.Errorf("on-time at boundary = %v, want 2.0", breakdown.OnTimeScore)
	}

	// One second late does not.
	breakdown, err = calc.Compute([]*models.Interaction{progressedAt(due.Add(time.Second), 100)}, &due, 0, 10)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if breakdown.OnTimeScore != 0 {
		t.Errorf("on-time past boundary = %v, want 0", breakdown.OnTimeScore)
	}
}

func TestComputeRegressedProgressBeforeDue(t *testing.T) {
	calc := newTestCalculator(t)
	due := calcBase.Add(time.Hour)

	// Engagement keeps the high-water mark, but on-time looks at the
	// latest progress event before the deadline.
	interactions := []*models.Interaction{
		progressedAt(calcBase, 100),
		progressedAt(calcBase.Add(30*time.Minute), 40),
	}

	breakdown, err := calc.Compute(interactions, &due, 0, 10)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !approxEqual(breakdown.EngagementScore, 8.0) {
		t.Errorf("engagement = %v, want 8.0", breakdown.EngagementScore)
	}
	if breakdown.OnTimeScore != 0 {
		t.Errorf("on-time = %v, want 0 (latest state before due is 40%%)", breakdown.OnTimeScore)
	}
}

func TestComputeNilDueMeansDueNow(t *testing.T) {
	calc := newTestCalculator(t)
	calc.now = func() time.Time { return calcBase.Add(time.Hour) }

	breakdown, err := calc.Compute([]*models.Interaction{progressedAt(calcBase, 100)}, nil, 0, 10)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !approxEqual(breakdown.OnTimeScore, 2.0) {
		t.Errorf("on-time with no due date = %v, want 2.0", breakdown.OnTimeScore)
	}
}

func TestComputeAnswersWithoutQuizSize(t *testing.T) {
	calc := newTestCalculator(t)
	due := calcBase.Add(time.Hour)

	interactions := []*models.Interaction{
		answeredAt(calcBase, "q1_1741597200", true),
	}

	if _, err := calc.Compute(interactions, &due, 0, 10); !errors.Is(err, ErrQuizSizeUnknown) {
		t.Fatalf("Compute error = %v, want ErrQuizSizeUnknown", err)
	}
}

func TestComputeDefaultsPointsPossible(t *testing.T) {
	calc := newTestCalculator(t)
	due := calcBase.Add(time.Hour)

	breakdown, err := calc.Compute([]*models.Interaction{progressedAt(calcBase, 100)}, &due, 0, 0)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got := breakdown.TotalScore(); got != 10.0 {
		t.Errorf("total with zero points possible = %v, want %v", got, DefaultPointsPossible)
	}
}
