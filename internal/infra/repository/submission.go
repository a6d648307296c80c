package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/amberflux/lorepo/internal/domain"
	"github.com/amberflux/lorepo/internal/infra/database/models"
)

type SubmissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func convertSubmission(m models.Submission) domain.Submission {
	return domain.Submission{
		LearningObjectID: m.LearningObjectID,
		Collection:       m.Collection,
		Timestamp:        m.CDate,
		CancelDate:       m.CancelDate,
	}
}

func (r *SubmissionRepository) Record(ctx context.Context, submission domain.Submission) error {
	return r.db.WithContext(ctx).Create(&models.Submission{
		LearningObjectID: submission.LearningObjectID,
		Collection:       submission.Collection,
	}).Error
}

// RecordCancellation stamps the most recent open submission for the object.
func (r *SubmissionRepository) RecordCancellation(ctx context.Context, learningObjectID string, at time.Time) error {

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		var m models.Submission
		err := tx.Where("learning_object_id = ? AND cancel_date IS NULL", learningObjectID).
			Order("c_date DESC").
			Take(&m).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ResourceError{Reason: domain.ReasonNotFound, Message: "no open submission"}
			}
			return err
		}

		return tx.Model(&models.Submission{}).
			Where("id = ?", m.ID).
			Update("cancel_date", at).Error
	})
}

func (r *SubmissionRepository) FetchRecent(ctx context.Context, learningObjectID string) (domain.Submission, error) {

	var m models.Submission
	err := r.db.WithContext(ctx).
		Where("learning_object_id = ?", learningObjectID).
		Order("c_date DESC").
		Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Submission{}, domain.ResourceError{Reason: domain.ReasonNotFound, Message: "no submission"}
		}
		return domain.Submission{}, err
	}

	return convertSubmission(m), nil
}

func (r *SubmissionRepository) Fetch(ctx context.Context, collection, learningObjectID string) (domain.Submission, error) {

	var m models.Submission
	err := r.db.WithContext(ctx).
		Where("learning_object_id = ? AND collection = ?", learningObjectID, collection).
		Order("c_date DESC").
		Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Submission{}, domain.ResourceError{Reason: domain.ReasonNotFound, Message: "no submission"}
		}
		return domain.Submission{}, err
	}

	return convertSubmission(m), nil
}
