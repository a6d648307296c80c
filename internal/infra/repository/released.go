package repository

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"

	"golang.org/x/crypto/sha3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/amberflux/lorepo/internal/domain"
	"github.com/amberflux/lorepo/internal/infra/database/models"
)

type ReleasedRepository struct {
	db *gorm.DB
}

func NewReleasedRepository(db *gorm.DB) *ReleasedRepository {
	return &ReleasedRepository{db: db}
}

// Add stores a release snapshot, superseding any previous release of the same
// object. The child edges are rewritten so parent lookups always reflect the
// latest release.
func (r *ReleasedRepository) Add(ctx context.Context, object domain.LearningObject) error {

	document, err := json.Marshal(object)
	if err != nil {
		return err
	}

	digest := sha3.Sum256(document)

	snapshot := models.ReleasedLearningObject{
		ID:          object.ID,
		CUID:        object.CUID,
		Name:        object.Name,
		AuthorID:    object.Author.Username,
		Collection:  object.Collection,
		Revision:    object.Revision,
		Version:     object.Version,
		Date:        object.Date,
		Document:    string(document),
		Fingerprint: hex.EncodeToString(digest[:]),
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"cuid":        snapshot.CUID,
				"name":        snapshot.Name,
				"author_id":   snapshot.AuthorID,
				"collection":  snapshot.Collection,
				"revision":    snapshot.Revision,
				"version":     snapshot.Version,
				"date":        snapshot.Date,
				"document":    snapshot.Document,
				"fingerprint": snapshot.Fingerprint,
			}),
		}).Create(&snapshot).Error
		if err != nil {
			return err
		}

		err = tx.Where("parent_id = ?", object.ID).
			Delete(&models.ReleasedLearningObjectChild{}).Error
		if err != nil {
			return err
		}

		for i, child := range object.Children {
			err = tx.Create(&models.ReleasedLearningObjectChild{
				ParentID: object.ID,
				ChildID:  child.ID,
				Rank:     i,
			}).Error
			if err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *ReleasedRepository) Fetch(ctx context.Context, id string, full bool) (domain.LearningObject, error) {

	var snapshot models.ReleasedLearningObject
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.LearningObject{}, domain.ResourceError{Reason: domain.ReasonNotFound, Message: "no released copy: " + id}
		}
		return domain.LearningObject{}, err
	}

	var object domain.LearningObject
	if err := json.Unmarshal([]byte(snapshot.Document), &object); err != nil {
		return domain.LearningObject{}, err
	}
	if !full {
		object.Children = nil
		object.Contributors = nil
		object.Outcomes = nil
	}

	return object, nil
}

func (r *ReleasedRepository) FetchParents(ctx context.Context, childID string, full bool) ([]domain.LearningObject, error) {

	var snapshots []models.ReleasedLearningObject
	err := r.db.WithContext(ctx).
		Model(&models.ReleasedLearningObject{}).
		Joins("JOIN released_learning_object_children ON released_learning_object_children.parent_id = released_learning_objects.id").
		Where("released_learning_object_children.child_id = ?", childID).
		Find(&snapshots).Error
	if err != nil {
		return nil, err
	}

	parents := make([]domain.LearningObject, 0, len(snapshots))
	for _, snapshot := range snapshots {
		var object domain.LearningObject
		if err := json.Unmarshal([]byte(snapshot.Document), &object); err != nil {
			return nil, err
		}
		if !full {
			object.Children = nil
			object.Contributors = nil
			object.Outcomes = nil
		}
		parents = append(parents, object)
	}

	return parents, nil
}
