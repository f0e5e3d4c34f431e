package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/module-grading-service/internal/events"
	"github.com/SAP-F-2025/module-grading-service/internal/gradebook"
	"github.com/SAP-F-2025/module-grading-service/internal/models"
	"github.com/SAP-F-2025/module-grading-service/internal/repositories"
	"github.com/SAP-F-2025/module-grading-service/internal/validator"
)

// ===== repository fakes =====

type fakeInteractionRepo struct {
	mu   sync.Mutex
	rows []*models.Interaction
}

func (f *fakeInteractionRepo) Create(ctx context.Context, tx *gorm.DB, in *models.Interaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, in)
	return nil
}

func (f *fakeInteractionRepo) GetByUserAssignment(ctx context.Context, tx *gorm.DB, userID, assignmentID string) ([]*models.Interaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Interaction
	for _, r := range f.rows {
		if r.UserID == userID && r.AssignmentID == assignmentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeInteractionRepo) HasUnprocessed(ctx context.Context, tx *gorm.DB, userID, assignmentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.UserID == userID && r.AssignmentID == assignmentID && r.Unprocessed {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeInteractionRepo) AssignmentIDsWithUnprocessed(ctx context.Context, tx *gorm.DB, courseID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, r := range f.rows {
		if r.CourseID == courseID && r.Unprocessed && !seen[r.AssignmentID] {
			seen[r.AssignmentID] = true
			out = append(out, r.AssignmentID)
		}
	}
	return out, nil
}

func (f *fakeInteractionRepo) MarkProcessed(ctx context.Context, tx *gorm.DB, userID, assignmentID string) error {
	return f.MarkProcessedBatch(ctx, tx, []string{userID}, assignmentID)
}

func (f *fakeInteractionRepo) MarkProcessedBatch(ctx context.Context, tx *gorm.DB, userIDs []string, assignmentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	users := make(map[string]bool, len(userIDs))
	for _, u := range userIDs {
		users[u] = true
	}
	for _, r := range f.rows {
		if r.AssignmentID == assignmentID && users[r.UserID] {
			r.Unprocessed = false
		}
	}
	return nil
}

func (f *fakeInteractionRepo) unprocessedCount(userID, assignmentID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.rows {
		if r.UserID == userID && r.AssignmentID == assignmentID && r.Unprocessed {
			n++
		}
	}
	return n
}

type fakeGradeCacheRepo struct {
	mu   sync.Mutex
	rows map[string]*models.ModuleGradeCache
}

func cacheKey(userID, assignmentID string) string {
	return userID + "|" + assignmentID
}

func (f *fakeGradeCacheRepo) Get(ctx context.Context, tx *gorm.DB, userID, assignmentID string) (*models.ModuleGradeCache, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[cacheKey(userID, assignmentID)]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return row, nil
}

func (f *fakeGradeCacheRepo) SetOnTimeCredit(ctx context.Context, tx *gorm.DB, userID, assignmentID string, received bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := cacheKey(userID, assignmentID)
	if row, ok := f.rows[key]; ok {
		row.OnTimeCreditReceived = received
		return nil
	}
	f.rows[key] = &models.ModuleGradeCache{
		UserID:               userID,
		AssignmentID:         assignmentID,
		OnTimeCreditReceived: received,
	}
	return nil
}

func (f *fakeGradeCacheRepo) hasCredit(userID, assignmentID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[cacheKey(userID, assignmentID)]
	return ok && row.OnTimeCreditReceived
}

type fakeRosterRepo struct {
	programs    []*models.Program
	courses     map[uint][]*models.Course
	assignments map[string]*models.Assignment
	enrolled    map[uint][]string
	sections    map[string][]string
}

func sectionKey(courseID uint, userID string) string {
	return fmt.Sprintf("%d|%s", courseID, userID)
}

func (f *fakeRosterRepo) ActivePrograms(ctx context.Context, tx *gorm.DB, trailing time.Duration) ([]*models.Program, error) {
	cutoff := time.Now().Add(-trailing)
	var out []*models.Program
	for _, p := range f.programs {
		if p.EndsAt.After(cutoff) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRosterRepo) CoursesByProgram(ctx context.Context, tx *gorm.DB, programID uint) ([]*models.Course, error) {
	return f.courses[programID], nil
}

func (f *fakeRosterRepo) GetAssignment(ctx context.Context, tx *gorm.DB, externalID string) (*models.Assignment, error) {
	a, ok := f.assignments[externalID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return a, nil
}

func (f *fakeRosterRepo) EnrolledUserIDs(ctx context.Context, tx *gorm.DB, courseID uint) ([]string, error) {
	return f.enrolled[courseID], nil
}

func (f *fakeRosterRepo) UserSections(ctx context.Context, tx *gorm.DB, courseID uint, userID string) ([]string, error) {
	return f.sections[sectionKey(courseID, userID)], nil
}

type fakeRepo struct {
	interactions *fakeInteractionRepo
	grades       *fakeGradeCacheRepo
	roster       *fakeRosterRepo
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		interactions: &fakeInteractionRepo{},
		grades:       &fakeGradeCacheRepo{rows: make(map[string]*models.ModuleGradeCache)},
		roster: &fakeRosterRepo{
			courses:     make(map[uint][]*models.Course),
			assignments: make(map[string]*models.Assignment),
			enrolled:    make(map[uint][]string),
			sections:    make(map[string][]string),
		},
	}
}

func (f *fakeRepo) Interaction() repositories.InteractionRepository { return f.interactions }
func (f *fakeRepo) GradeCache() repositories.GradeCacheRepository   { return f.grades }
func (f *fakeRepo) Roster() repositories.RosterRepository           { return f.roster }

func (f *fakeRepo) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(f)
}

func (f *fakeRepo) Ping(ctx context.Context) error { return nil }
func (f *fakeRepo) Close() error                   { return nil }

// seed appends interactions for one user on one assignment, all
// unprocessed.
func (f *fakeRepo) seed(t *testing.T, userID, courseID, assignmentID string, ins ...*models.Interaction) {
	t.Helper()
	for _, in := range ins {
		in.UserID = userID
		in.CourseID = courseID
		in.AssignmentID = assignmentID
		in.Unprocessed = true
		if err := f.interactions.Create(context.Background(), nil, in); err != nil {
			t.Fatalf("seed interaction: %v", err)
		}
	}
}

// ===== gradebook fake =====

type gradeCall struct {
	courseID, assignmentID, userID string
	score                          float64
}

type bulkCall struct {
	courseID, assignmentID string
	scores                 map[string]float64
}

type fakeGradebook struct {
	mu          sync.Mutex
	submissions map[string]map[string]*gradebook.Submission
	overrides   map[string][]gradebook.DeadlineOverride
	gradeCalls  []gradeCall
	bulkCalls   []bulkCall
	failBulk    map[string]error
}

func newFakeGradebook() *fakeGradebook {
	return &fakeGradebook{
		submissions: make(map[string]map[string]*gradebook.Submission),
		overrides:   make(map[string][]gradebook.DeadlineOverride),
		failBulk:    make(map[string]error),
	}
}

func (f *fakeGradebook) setSubmission(assignmentID, userID string, score float64, graderID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submissions[assignmentID] == nil {
		f.submissions[assignmentID] = make(map[string]*gradebook.Submission)
	}
	f.submissions[assignmentID][userID] = &gradebook.Submission{
		UserID:   userID,
		Score:    &score,
		GraderID: graderID,
	}
}

func (f *fakeGradebook) GetSubmission(ctx context.Context, courseID, assignmentID, userID string) (*gradebook.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submissions[assignmentID][userID], nil
}

func (f *fakeGradebook) GetSubmissions(ctx context.Context, courseID, assignmentID string) (map[string]*gradebook.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]*gradebook.Submission)
	for userID, sub := range f.submissions[assignmentID] {
		out[userID] = sub
	}
	return out, nil
}

func (f *fakeGradebook) GetDeadlineOverrides(ctx context.Context, assignmentID string) ([]gradebook.DeadlineOverride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overrides[assignmentID], nil
}

func (f *fakeGradebook) UpdateGrade(ctx context.Context, courseID, assignmentID, userID string, score float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gradeCalls = append(f.gradeCalls, gradeCall{courseID, assignmentID, userID, score})
	f.storeScore(assignmentID, userID, score)
	return nil
}

func (f *fakeGradebook) UpdateGrades(ctx context.Context, courseID, assignmentID string, scores map[string]float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failBulk[assignmentID]; err != nil {
		return err
	}
	f.bulkCalls = append(f.bulkCalls, bulkCall{courseID, assignmentID, scores})
	for userID, score := range scores {
		f.storeScore(assignmentID, userID, score)
	}
	return nil
}

// storeScore mirrors pushed grades back into the fake's submission
// state. Callers must hold the mutex.
func (f *fakeGradebook) storeScore(assignmentID, userID string, score float64) {
	if f.submissions[assignmentID] == nil {
		f.submissions[assignmentID] = make(map[string]*gradebook.Submission)
	}
	s := score
	sub := f.submissions[assignmentID][userID]
	if sub == nil {
		sub = &gradebook.Submission{UserID: userID}
		f.submissions[assignmentID][userID] = sub
	}
	sub.Score = &s
}

// ===== fixtures =====

const testGradingUserID = "grading-bot"

type gradingFixture struct {
	repo   *fakeRepo
	gb     *fakeGradebook
	events *events.MockEventPublisher
	calc   *GradeCalculator
	svc    *gradingService
}

func newGradingFixture(t *testing.T) *gradingFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	calc, err := NewGradeCalculator(DefaultGradeWeights)
	if err != nil {
		t.Fatalf("NewGradeCalculator: %v", err)
	}

	repo := newFakeRepo()
	gb := newFakeGradebook()
	publisher := events.NewMockEventPublisher(logger)

	svc := NewGradingService(nil, repo, gb, calc, publisher, logger, validator.New(), testGradingUserID).(*gradingService)

	return &gradingFixture{repo: repo, gb: gb, events: publisher, calc: calc, svc: svc}
}

// freezeNow pins both the service and calculator clocks.
func (fx *gradingFixture) freezeNow(now time.Time) {
	fx.svc.now = func() time.Time { return now }
	fx.calc.now = fx.svc.now
}

// quizAssignment builds an assignment with a preloaded module version.
func quizAssignment(externalID, externalCourseID string, courseID uint, quizSize int) *models.Assignment {
	mvID := uint(1)
	return &models.Assignment{
		ID:               1,
		CourseID:         courseID,
		ExternalID:       externalID,
		ExternalCourseID: externalCourseID,
		PointsPossible:   10,
		ModuleVersionID:  &mvID,
		ModuleVersion:    &models.ModuleVersion{ID: mvID, QuizSize: quizSize},
	}
}
