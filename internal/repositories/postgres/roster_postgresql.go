package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/module-grading-service/internal/cache"
	"github.com/SAP-F-2025/module-grading-service/internal/models"
	"github.com/SAP-F-2025/module-grading-service/internal/repositories"
)

type RosterPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewRosterPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.RosterRepository {
	return &RosterPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (r *RosterPostgreSQL) ActivePrograms(ctx context.Context, tx *gorm.DB, trailing time.Duration) ([]*models.Program, error) {
	db := r.getDB(tx)
	cutoff := time.Now().Add(-trailing)

	var programs []*models.Program
	if err := db.WithContext(ctx).
		Where("ends_at >= ?", cutoff).
		Order("starts_at ASC").
		Find(&programs).Error; err != nil {
		return nil, err
	}
	return programs, nil
}

func (r *RosterPostgreSQL) CoursesByProgram(ctx context.Context, tx *gorm.DB, programID uint) ([]*models.Course, error) {
	db := r.getDB(tx)
	var courses []*models.Course
	if err := db.WithContext(ctx).
		Where("program_id = ?", programID).
		Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *RosterPostgreSQL) GetAssignment(ctx context.Context, tx *gorm.DB, externalID string) (*models.Assignment, error) {
	db := r.getDB(tx)
	var assignment models.Assignment
	err := db.WithContext(ctx).
		Preload("ModuleVersion").
		Where("external_id = ?", externalID).
		First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

func (r *RosterPostgreSQL) EnrolledUserIDs(ctx context.Context, tx *gorm.DB, courseID uint) ([]string, error) {
	// Enrollments are refreshed out-of-band, so a short-lived cache saves a
	// query per assignment during sweeps. Transactions bypass the cache.
	if tx == nil {
		cacheKey := fmt.Sprintf("enrolled:%d", courseID)
		var cached []string
		if err := r.cacheManager.Roster.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}

		userIDs, err := r.enrolledUserIDs(ctx, r.db, courseID)
		if err != nil {
			return nil, err
		}
		_ = r.cacheManager.Roster.Set(ctx, cacheKey, userIDs, cache.RosterCacheConfig.TTL)
		return userIDs, nil
	}

	return r.enrolledUserIDs(ctx, tx, courseID)
}

func (r *RosterPostgreSQL) enrolledUserIDs(ctx context.Context, db *gorm.DB, courseID uint) ([]string, error) {
	var userIDs []string
	err := db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("course_id = ?", courseID).
		Order("user_id ASC").
		Pluck("user_id", &userIDs).Error
	return userIDs, err
}

func (r *RosterPostgreSQL) UserSections(ctx context.Context, tx *gorm.DB, courseID uint, userID string) ([]string, error) {
	db := r.getDB(tx)
	var sections []string
	err := db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("course_id = ? AND user_id = ? AND section_id <> ''", courseID, userID).
		Pluck("section_id", &sections).Error
	return sections, err
}

func (r *RosterPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
