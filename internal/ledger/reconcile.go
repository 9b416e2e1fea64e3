// Package ledger holds the pure balance computations over a snapshot of a
// group's transactions. Nothing here performs I/O or mutates its inputs.
package ledger

import (
	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/shopspring/decimal"
)

type options struct {
	matcher ParticipantMatcher
}

type Option func(*options)

// WithMatcher replaces the participant matcher used on the fallback path.
func WithMatcher(m ParticipantMatcher) Option {
	return func(o *options) {
		if m != nil {
			o.matcher = m
		}
	}
}

// DefaultMatcher accepts both participant ids and display names.
var DefaultMatcher ParticipantMatcher = ChainMatcher{IDMatcher{}, NameMatcher{}}

// Reconcile computes the user's position over txs. Only splits attached to
// one of txs are taken into account.
//
// The user's explicit split rows win whenever their sum is non-zero. When
// there are none, the share of every expense paid by someone else whose
// participant list matches the user is estimated as amount / participants.
func Reconcile(user model.Profile, txs []model.Transaction, splits []model.TransactionSplit, opts ...Option) model.LedgerSummary {
	o := options{matcher: DefaultMatcher}
	for _, opt := range opts {
		opt(&o)
	}

	inSet := make(map[string]struct{}, len(txs))
	for _, t := range txs {
		inSet[t.ID] = struct{}{}
	}

	var (
		paid        = decimal.Zero
		owedSplits  = decimal.Zero
		loaned      = decimal.Zero
		borrowed    = decimal.Zero
		settled     = decimal.Zero
		settlements int
	)

	for _, s := range splits {
		if _, ok := inSet[s.TransactionID]; !ok {
			continue
		}
		if s.UserID == user.ID {
			owedSplits = owedSplits.Add(s.Amount)
		}
	}

	for _, t := range txs {
		switch t.Type {
		case model.TransactionTypeExpense:
			if t.PaidBy == user.ID {
				paid = paid.Add(t.Amount)
			}
		case model.TransactionTypeLoan:
			if t.PaidBy == user.ID {
				loaned = loaned.Add(t.Amount)
			} else {
				borrowed = borrowed.Add(t.Amount)
			}
		case model.TransactionTypeSettlement:
			settled = settled.Add(t.Amount)
			settlements++
		}
	}

	share := owedSplits
	if share.IsZero() {
		share = fallbackShare(user, txs, o.matcher)
	}

	return model.LedgerSummary{
		NetBalance:        paid.Sub(share),
		YouLoaned:         loaned,
		YouBorrowed:       borrowed,
		NetLoans:          loaned.Sub(borrowed),
		SettlementAmount:  settled,
		TotalSettlements:  settlements,
		TotalTransactions: len(txs),
	}
}

func fallbackShare(user model.Profile, txs []model.Transaction, m ParticipantMatcher) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		if t.Type != model.TransactionTypeExpense || t.PaidBy == user.ID {
			continue
		}
		if !m.Matches(user, t.SplitBetween) {
			continue
		}
		total = total.Add(FallbackShare(t))
	}
	return total
}

// FallbackShare is the equal share of t, an empty participant list counting as one.
func FallbackShare(t model.Transaction) decimal.Decimal {
	n := len(t.SplitBetween)
	if n == 0 {
		n = 1
	}
	return t.Amount.Div(decimal.NewFromInt(int64(n)))
}
