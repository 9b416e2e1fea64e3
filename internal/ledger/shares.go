package ledger

import (
	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/shopspring/decimal"
)

// EqualShares splits amount between participants at cent precision. The
// leftover cents go one each to the first participants so the shares always
// add up to amount.
func EqualShares(amount decimal.Decimal, participants []string) []model.SplitShare {
	if len(participants) == 0 {
		return nil
	}

	n := decimal.NewFromInt(int64(len(participants)))
	base := amount.Div(n).RoundDown(2)
	remainder := amount.Sub(base.Mul(n))
	cent := decimal.New(1, -2)

	shares := make([]model.SplitShare, len(participants))
	for i, p := range participants {
		share := base
		if remainder.IsPositive() {
			share = share.Add(cent)
			remainder = remainder.Sub(cent)
		}
		shares[i] = model.SplitShare{UserID: p, Amount: share}
	}
	return shares
}

// PerPerson is the equal share of amount between the payer and splitWith.
func PerPerson(amount decimal.Decimal, splitWith int) decimal.Decimal {
	return amount.Div(decimal.NewFromInt(int64(splitWith + 1)))
}
