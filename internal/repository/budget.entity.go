package repository

import (
	"time"

	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/shopspring/decimal"
)

type BudgetEntity struct {
	OwnerID   string          `gorm:"column:owner_id;primaryKey"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(14,2);not null"`
	UpdatedAt time.Time       `gorm:"column:updated_at"`
}

func (BudgetEntity) TableName() string {
	return "budgets"
}

func toBudgetModel(e *BudgetEntity) *model.Budget {
	if e == nil {
		return nil
	}
	return &model.Budget{
		OwnerID:   e.OwnerID,
		Amount:    e.Amount,
		UpdatedAt: e.UpdatedAt,
	}
}
