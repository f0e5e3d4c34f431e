package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/module-grading-service/internal/models"
	"github.com/SAP-F-2025/module-grading-service/internal/repositories"
)

type GradeCachePostgreSQL struct {
	db *gorm.DB
}

func NewGradeCachePostgreSQL(db *gorm.DB) repositories.GradeCacheRepository {
	return &GradeCachePostgreSQL{db: db}
}

func (r *GradeCachePostgreSQL) Get(ctx context.Context, tx *gorm.DB, userID, assignmentID string) (*models.ModuleGradeCache, error) {
	db := r.getDB(tx)
	var row models.ModuleGradeCache
	err := db.WithContext(ctx).
		Where("user_id = ? AND assignment_id = ?", userID, assignmentID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *GradeCachePostgreSQL) SetOnTimeCredit(ctx context.Context, tx *gorm.DB, userID, assignmentID string, received bool) error {
	db := r.getDB(tx)
	row := models.ModuleGradeCache{
		UserID:               userID,
		AssignmentID:         assignmentID,
		OnTimeCreditReceived: received,
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "assignment_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"on_time_credit_received", "updated_at"}),
		}).
		Create(&row).Error
}

func (r *GradeCachePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
