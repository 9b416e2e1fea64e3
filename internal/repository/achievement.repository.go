package repository

import (
	"context"
	"errors"

	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/nimasrn/split-ledger/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AchievementRepository struct {
	*pg.DB
}

func NewAchievementRepository(db *pg.DB) *AchievementRepository {
	return &AchievementRepository{
		db,
	}
}

func (r *AchievementRepository) ListByTrigger(ctx context.Context, trigger model.Trigger) ([]model.Achievement, error) {
	var entities []*AchievementEntity
	if err := r.Read(ctx).Where("trigger_event = ?", string(trigger)).Order("id ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	achievements := make([]model.Achievement, 0, len(entities))
	for _, e := range entities {
		achievements = append(achievements, *toAchievementModel(e))
	}
	return achievements, nil
}

func (r *AchievementRepository) ListUnlockedIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	var ids []string
	err := r.Read(ctx).
		Model(&UserAchievementEntity{}).
		Where("user_id = ?", userID).
		Pluck("achievement_id", &ids).
		Error
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// Unlock records the pair once. A second insert for the same pair returns
// ErrAlreadyUnlocked.
func (r *AchievementRepository) Unlock(ctx context.Context, userID, achievementID string) (*model.UserAchievement, error) {
	entity := &UserAchievementEntity{UserID: userID, AchievementID: achievementID}
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyUnlocked
		}
		return nil, err
	}
	ua := toUserAchievementModel(entity)
	return &ua, nil
}

// ListUnlocked returns the user's unlocks with achievement details, newest first.
func (r *AchievementRepository) ListUnlocked(ctx context.Context, userID string) ([]model.UserAchievement, error) {
	var entities []*UserAchievementEntity
	err := r.Read(ctx).
		Preload("Achievement").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	unlocked := make([]model.UserAchievement, 0, len(entities))
	for _, e := range entities {
		unlocked = append(unlocked, toUserAchievementModel(e))
	}
	return unlocked, nil
}

func (r *AchievementRepository) Get(ctx context.Context, id string) (*model.Achievement, error) {
	var entity AchievementEntity
	if err := r.Read(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toAchievementModel(&entity), nil
}

// Seed upserts the catalog by id.
func (r *AchievementRepository) Seed(ctx context.Context, catalog []model.Achievement) error {
	if len(catalog) == 0 {
		return nil
	}
	entities := make([]*AchievementEntity, 0, len(catalog))
	for _, a := range catalog {
		entities = append(entities, toAchievementEntity(a))
	}
	return r.Write(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "description", "emoji", "scope", "trigger_event", "condition", "updated_at"}),
		}).
		Create(&entities).
		Error
}
