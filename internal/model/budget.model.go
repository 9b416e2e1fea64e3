package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Budget struct {
	OwnerID   string          `json:"owner_id"`
	Amount    decimal.Decimal `json:"amount"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type BudgetUpdateRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (r BudgetUpdateRequest) Validate() error {
	if r.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

type BudgetTier string

const (
	BudgetTierExcellent BudgetTier = "excellent"
	BudgetTierGood      BudgetTier = "good"
	BudgetTierOnTrack   BudgetTier = "on_track"
	BudgetTierCareful   BudgetTier = "careful"
	BudgetTierNearLimit BudgetTier = "near_limit"
)

type BudgetProgress struct {
	Budget     decimal.Decimal `json:"budget"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage int64           `json:"percentage"`
	Tier       BudgetTier      `json:"tier"`
}
