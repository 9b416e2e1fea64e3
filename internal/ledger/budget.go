package ledger

import (
	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Progress compares spent against budget. A budget of zero or less reports
// zero percent.
func Progress(budget, spent decimal.Decimal) model.BudgetProgress {
	var pct int64
	if budget.IsPositive() {
		pct = spent.Mul(hundred).Div(budget).Round(0).IntPart()
	}
	return model.BudgetProgress{
		Budget:     budget,
		Spent:      spent,
		Remaining:  budget.Sub(spent),
		Percentage: pct,
		Tier:       tierFor(pct),
	}
}

func tierFor(pct int64) model.BudgetTier {
	switch {
	case pct < 25:
		return model.BudgetTierExcellent
	case pct < 50:
		return model.BudgetTierGood
	case pct < 75:
		return model.BudgetTierOnTrack
	case pct < 90:
		return model.BudgetTierCareful
	default:
		return model.BudgetTierNearLimit
	}
}
