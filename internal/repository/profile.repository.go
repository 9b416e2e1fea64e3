package repository

import (
	"context"
	"errors"

	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/nimasrn/split-ledger/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository struct {
	*pg.DB
}

func NewProfileRepository(db *pg.DB) *ProfileRepository {
	return &ProfileRepository{
		db,
	}
}

func (r *ProfileRepository) Get(ctx context.Context, id string) (*model.Profile, error) {
	var entity ProfileEntity
	if err := r.Read(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toProfileModel(&entity), nil
}

func (r *ProfileRepository) Upsert(ctx context.Context, p model.Profile) error {
	return r.Write(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"full_name", "email", "updated_at"}),
		}).
		Create(&ProfileEntity{ID: p.ID, FullName: p.FullName, Email: p.Email}).
		Error
}

// ListIDs returns every known profile id in a stable order.
func (r *ProfileRepository) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.Read(ctx).Model(&ProfileEntity{}).Order("id ASC").Pluck("id", &ids).Error
	return ids, err
}
