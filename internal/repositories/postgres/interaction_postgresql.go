package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/module-grading-service/internal/models"
	"github.com/SAP-F-2025/module-grading-service/internal/repositories"
)

type InteractionPostgreSQL struct {
	db *gorm.DB
}

func NewInteractionPostgreSQL(db *gorm.DB) repositories.InteractionRepository {
	return &InteractionPostgreSQL{db: db}
}

func (r *InteractionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, interaction *models.Interaction) error {
	db := r.getDB(tx)
	return db.WithContext(ctx).Create(interaction).Error
}

func (r *InteractionPostgreSQL) GetByUserAssignment(ctx context.Context, tx *gorm.DB, userID, assignmentID string) ([]*models.Interaction, error) {
	db := r.getDB(tx)
	var interactions []*models.Interaction
	if err := db.WithContext(ctx).
		Where("user_id = ? AND assignment_id = ?", userID, assignmentID).
		Order("created_at ASC, id ASC").
		Find(&interactions).Error; err != nil {
		return nil, err
	}
	return interactions, nil
}

func (r *InteractionPostgreSQL) HasUnprocessed(ctx context.Context, tx *gorm.DB, userID, assignmentID string) (bool, error) {
	db := r.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.Interaction{}).
		Where("user_id = ? AND assignment_id = ? AND unprocessed = ?", userID, assignmentID, true).
		Count(&count).Error
	return count > 0, err
}

func (r *InteractionPostgreSQL) AssignmentIDsWithUnprocessed(ctx context.Context, tx *gorm.DB, courseID string) ([]string, error) {
	db := r.getDB(tx)
	var assignmentIDs []string
	err := db.WithContext(ctx).
		Model(&models.Interaction{}).
		Distinct("assignment_id").
		Where("course_id = ? AND unprocessed = ?", courseID, true).
		Pluck("assignment_id", &assignmentIDs).Error
	return assignmentIDs, err
}

func (r *InteractionPostgreSQL) MarkProcessed(ctx context.Context, tx *gorm.DB, userID, assignmentID string) error {
	db := r.getDB(tx)
	return db.WithContext(ctx).
		Model(&models.Interaction{}).
		Where("user_id = ? AND assignment_id = ? AND unprocessed = ?", userID, assignmentID, true).
		Update("unprocessed", false).Error
}

func (r *InteractionPostgreSQL) MarkProcessedBatch(ctx context.Context, tx *gorm.DB, userIDs []string, assignmentID string) error {
	if len(userIDs) == 0 {
		return nil
	}
	db := r.getDB(tx)
	return db.WithContext(ctx).
		Model(&models.Interaction{}).
		Where("user_id IN ? AND assignment_id = ? AND unprocessed = ?", userIDs, assignmentID, true).
		Update("unprocessed", false).Error
}

func (r *InteractionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
