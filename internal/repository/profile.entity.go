package repository

import (
	"time"

	"github.com/nimasrn/split-ledger/internal/model"
)

type ProfileEntity struct {
	ID        string    `gorm:"column:id;primaryKey"`
	FullName  string    `gorm:"column:full_name"`
	Email     string    `gorm:"column:email"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (ProfileEntity) TableName() string {
	return "profiles"
}

func toProfileModel(e *ProfileEntity) *model.Profile {
	return &model.Profile{
		ID:       e.ID,
		FullName: e.FullName,
		Email:    e.Email,
	}
}
