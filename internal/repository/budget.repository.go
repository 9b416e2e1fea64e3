package repository

import (
	"context"
	"errors"
	"time"

	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/nimasrn/split-ledger/pkg/pg"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BudgetRepository struct {
	*pg.DB
}

func NewBudgetRepository(db *pg.DB) *BudgetRepository {
	return &BudgetRepository{
		db,
	}
}

// Get returns ErrNotFound when the owner never set a budget.
func (r *BudgetRepository) Get(ctx context.Context, ownerID string) (*model.Budget, error) {
	var entity BudgetEntity
	if err := r.Read(ctx).Where("owner_id = ?", ownerID).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toBudgetModel(&entity), nil
}

// Upsert keeps exactly one row per owner.
func (r *BudgetRepository) Upsert(ctx context.Context, ownerID string, amount decimal.Decimal) (*model.Budget, error) {
	entity := &BudgetEntity{
		OwnerID:   ownerID,
		Amount:    amount,
		UpdatedAt: time.Now().UTC(),
	}
	err := r.Write(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
		}).
		Create(entity).
		Error
	if err != nil {
		return nil, err
	}
	return toBudgetModel(entity), nil
}
