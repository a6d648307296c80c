package repository

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"github.com/amberflux/lorepo/internal/domain"
	"github.com/amberflux/lorepo/internal/infra/database/models"
)

type LearningObjectRepository struct {
	db *gorm.DB
}

func NewLearningObjectRepository(db *gorm.DB) *LearningObjectRepository {
	return &LearningObjectRepository{db: db}
}

func statusStrings(statuses []domain.Status) []string {
	strs := make([]string, 0, len(statuses))
	for _, status := range statuses {
		strs = append(strs, string(status))
	}
	return strs
}

func (r *LearningObjectRepository) convert(ctx context.Context, m models.LearningObject, full bool) (domain.LearningObject, error) {

	object := domain.LearningObject{
		ID:          m.ID,
		CUID:        m.CUID,
		Name:        m.Name,
		Description: m.Description,
		Author: domain.User{
			Username:      m.Author.Username,
			Name:          m.Author.Name,
			Email:         m.Author.Email,
			EmailVerified: m.Author.EmailVerified,
		},
		Collection: m.Collection,
		Status:     domain.Status(m.Status),
		Revision:   m.Revision,
		Date:       m.Date,
	}
	if object.Author.Username == "" {
		object.Author.Username = m.AuthorID
	}

	if m.Outcomes != "" {
		if err := json.Unmarshal([]byte(m.Outcomes), &object.Outcomes); err != nil {
			return domain.LearningObject{}, err
		}
	}

	if !full {
		return object, nil
	}

	var contributors []models.User
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN learning_object_contributors ON learning_object_contributors.username = users.username").
		Where("learning_object_contributors.learning_object_id = ?", m.ID).
		Find(&contributors).Error
	if err != nil {
		return domain.LearningObject{}, err
	}
	for _, contributor := range contributors {
		object.Contributors = append(object.Contributors, domain.User{
			Username:      contributor.Username,
			Name:          contributor.Name,
			Email:         contributor.Email,
			EmailVerified: contributor.EmailVerified,
		})
	}

	var childRows []models.LearningObject
	err = r.db.WithContext(ctx).
		Model(&models.LearningObject{}).
		Joins("JOIN learning_object_children ON learning_object_children.child_id = learning_objects.id").
		Where("learning_object_children.parent_id = ?", m.ID).
		Order("learning_object_children.rank ASC").
		Find(&childRows).Error
	if err != nil {
		return domain.LearningObject{}, err
	}
	for _, child := range childRows {
		object.Children = append(object.Children, domain.LearningObjectSummary{
			ID:         child.ID,
			CUID:       child.CUID,
			Name:       child.Name,
			Status:     domain.Status(child.Status),
			Collection: child.Collection,
			Date:       child.Date,
		})
	}

	return object, nil
}

func (r *LearningObjectRepository) Fetch(ctx context.Context, id string, full bool) (domain.LearningObject, error) {

	var m models.LearningObject
	err := r.db.WithContext(ctx).Preload("Author").Where("id = ?", id).Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.LearningObject{}, domain.ResourceError{Reason: domain.ReasonNotFound, Message: "learning object not found: " + id}
		}
		return domain.LearningObject{}, err
	}

	return r.convert(ctx, m, full)
}

func (r *LearningObjectRepository) FetchByOwner(ctx context.Context, id, username string) (domain.LearningObject, error) {

	var m models.LearningObject
	err := r.db.WithContext(ctx).Preload("Author").
		Where("id = ? AND author_id = ?", id, username).
		Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.LearningObject{}, domain.ResourceError{Reason: domain.ReasonNotFound, Message: "learning object not found: " + id}
		}
		return domain.LearningObject{}, err
	}

	return r.convert(ctx, m, true)
}

func (r *LearningObjectRepository) FetchRevision(ctx context.Context, id string, revision int, summary bool) (domain.LearningObject, error) {

	var m models.LearningObject
	err := r.db.WithContext(ctx).Preload("Author").
		Where("id = ? AND revision = ?", id, revision).
		Take(&m).Error
	if err == nil {
		return r.convert(ctx, m, !summary)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.LearningObject{}, err
	}

	// not the working revision; look in the released snapshots
	var released models.ReleasedLearningObject
	err = r.db.WithContext(ctx).
		Where("id = ? AND revision = ?", id, revision).
		Take(&released).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.LearningObject{}, domain.ResourceError{Reason: domain.ReasonNotFound, Message: "revision not found"}
		}
		return domain.LearningObject{}, err
	}

	var object domain.LearningObject
	if err := json.Unmarshal([]byte(released.Document), &object); err != nil {
		return domain.LearningObject{}, err
	}
	if summary {
		object.Children = nil
		object.Contributors = nil
		object.Outcomes = nil
	}
	return object, nil
}

func (r *LearningObjectRepository) Edit(ctx context.Context, id string, updates domain.LearningObjectUpdates) error {

	assignments := map[string]any{}
	if updates.Status != nil {
		assignments["status"] = string(*updates.Status)
	}
	if updates.Collection != nil {
		assignments["collection"] = *updates.Collection
	}
	if updates.Revision != nil {
		assignments["revision"] = *updates.Revision
	}
	if updates.Date != nil {
		assignments["date"] = *updates.Date
	}
	if len(assignments) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).
		Model(&models.LearningObject{}).
		Where("id = ?", id).
		Updates(assignments)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ResourceError{Reason: domain.ReasonNotFound, Message: "learning object not found: " + id}
	}

	return nil
}

func (r *LearningObjectRepository) EditMany(ctx context.Context, ids []string, updates domain.LearningObjectUpdates) error {

	if len(ids) == 0 {
		return nil
	}

	assignments := map[string]any{}
	if updates.Status != nil {
		assignments["status"] = string(*updates.Status)
	}
	if updates.Collection != nil {
		assignments["collection"] = *updates.Collection
	}
	if updates.Revision != nil {
		assignments["revision"] = *updates.Revision
	}
	if updates.Date != nil {
		assignments["date"] = *updates.Date
	}
	if len(assignments) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).
		Model(&models.LearningObject{}).
		Where("id IN ?", ids).
		Updates(assignments).Error
}

func (r *LearningObjectRepository) FindParentID(ctx context.Context, childID string) (string, error) {

	var edge models.LearningObjectChild
	err := r.db.WithContext(ctx).Where("child_id = ?", childID).Take(&edge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domain.ResourceError{Reason: domain.ReasonNotFound, Message: "no parent"}
		}
		return "", err
	}

	return edge.ParentID, nil
}

func (r *LearningObjectRepository) FindParentIDs(ctx context.Context, childID string) ([]string, error) {

	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.LearningObjectChild{}).
		Where("child_id = ?", childID).
		Pluck("parent_id", &ids).Error
	if err != nil {
		return nil, err
	}

	return ids, nil
}

func (r *LearningObjectRepository) FetchParents(ctx context.Context, query domain.ParentQuery, full bool) ([]domain.LearningObject, error) {

	tx := r.db.WithContext(ctx).
		Model(&models.LearningObject{}).
		Preload("Author").
		Joins("JOIN learning_object_children ON learning_object_children.parent_id = learning_objects.id").
		Where("learning_object_children.child_id = ?", query.ChildID)

	if len(query.Statuses) > 0 {
		tx = tx.Where("learning_objects.status IN ?", statusStrings(query.Statuses))
	}
	if len(query.Collections) > 0 {
		tx = tx.Where("learning_objects.collection IN ?", query.Collections)
	}

	var rows []models.LearningObject
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}

	parents := make([]domain.LearningObject, 0, len(rows))
	for _, row := range rows {
		parent, err := r.convert(ctx, row, full)
		if err != nil {
			return nil, err
		}
		parents = append(parents, parent)
	}

	return parents, nil
}

func (r *LearningObjectRepository) LoadChildren(ctx context.Context, id string, statuses []domain.Status) ([]domain.LearningObject, error) {

	tx := r.db.WithContext(ctx).
		Model(&models.LearningObject{}).
		Preload("Author").
		Joins("JOIN learning_object_children ON learning_object_children.child_id = learning_objects.id").
		Where("learning_object_children.parent_id = ?", id).
		Order("learning_object_children.rank ASC")

	if len(statuses) > 0 {
		tx = tx.Where("learning_objects.status IN ?", statusStrings(statuses))
	}

	var rows []models.LearningObject
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}

	children := make([]domain.LearningObject, 0, len(rows))
	for _, row := range rows {
		child, err := r.convert(ctx, row, false)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	return children, nil
}
