package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/amberflux/lorepo/internal/domain"
	"github.com/amberflux/lorepo/internal/infra/database/models"
)

type ChangelogRepository struct {
	db *gorm.DB
}

func NewChangelogRepository(db *gorm.DB) *ChangelogRepository {
	return &ChangelogRepository{db: db}
}

func (r *ChangelogRepository) Append(ctx context.Context, entry domain.Changelog) error {
	return r.db.WithContext(ctx).Create(&models.Changelog{
		ID:     entry.ID,
		CUID:   entry.CUID,
		Author: entry.Author,
		Text:   entry.Text,
	}).Error
}

func (r *ChangelogRepository) List(ctx context.Context, cuid string, before *time.Time) ([]domain.Changelog, error) {

	tx := r.db.WithContext(ctx).
		Model(&models.Changelog{}).
		Where("cuid = ?", cuid).
		Order("c_date DESC")
	if before != nil {
		tx = tx.Where("c_date <= ?", *before)
	}

	var rows []models.Changelog
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]domain.Changelog, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, domain.Changelog{
			ID:     row.ID,
			CUID:   row.CUID,
			Author: row.Author,
			Text:   row.Text,
			Date:   row.CDate,
		})
	}

	return entries, nil
}
