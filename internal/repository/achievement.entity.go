package repository

import (
	"time"

	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/nimasrn/split-ledger/pkg/pg"
)

type AchievementEntity struct {
	ID           string          `gorm:"column:id;primaryKey"`
	Title        string          `gorm:"column:title;not null"`
	Description  string          `gorm:"column:description"`
	Emoji        string          `gorm:"column:emoji"`
	Scope        string          `gorm:"column:scope;not null"`
	TriggerEvent string          `gorm:"column:trigger_event;not null;index"`
	Condition    model.Condition `gorm:"column:condition;type:text;serializer:json"`
	CreatedAt    time.Time       `gorm:"column:created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at"`
}

func (AchievementEntity) TableName() string {
	return "achievements"
}

type UserAchievementEntity struct {
	pg.Model
	UserID        string             `gorm:"column:user_id;not null;uniqueIndex:idx_user_achievement"`
	AchievementID string             `gorm:"column:achievement_id;not null;uniqueIndex:idx_user_achievement"`
	Achievement   *AchievementEntity `gorm:"foreignKey:AchievementID"`
}

func (UserAchievementEntity) TableName() string {
	return "user_achievements"
}

func toAchievementEntity(m model.Achievement) *AchievementEntity {
	return &AchievementEntity{
		ID:           m.ID,
		Title:        m.Title,
		Description:  m.Description,
		Emoji:        m.Emoji,
		Scope:        string(m.Scope),
		TriggerEvent: string(m.TriggerEvent),
		Condition:    m.Condition,
	}
}

func toAchievementModel(e *AchievementEntity) *model.Achievement {
	if e == nil {
		return nil
	}
	return &model.Achievement{
		ID:           e.ID,
		Title:        e.Title,
		Description:  e.Description,
		Emoji:        e.Emoji,
		Scope:        model.AchievementScope(e.Scope),
		TriggerEvent: model.Trigger(e.TriggerEvent),
		Condition:    e.Condition,
	}
}

func toUserAchievementModel(e *UserAchievementEntity) model.UserAchievement {
	return model.UserAchievement{
		ID:            e.ID,
		UserID:        e.UserID,
		AchievementID: e.AchievementID,
		UnlockedAt:    e.CreatedAt,
		Achievement:   toAchievementModel(e.Achievement),
	}
}
