package achievement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/shopspring/decimal"
)

var ErrUnsupportedCondition = errors.New("unsupported achievement condition")

type ExpenseStore interface {
	CountExpensesByCreator(ctx context.Context, userID string) (int64, error)
	SumExpensesByCreator(ctx context.Context, userID string, from, to time.Time) (decimal.Decimal, error)
}

type GroupStore interface {
	CountByCreator(ctx context.Context, userID string) (int64, error)
	SumBudgetsByCreator(ctx context.Context, userID string) (decimal.Decimal, error)
}

type InvitationStore interface {
	CountByInviter(ctx context.Context, userID string) (int64, error)
}

// Evaluator answers whether a user's aggregate activity satisfies a condition.
type Evaluator struct {
	expenses    ExpenseStore
	groups      GroupStore
	invitations InvitationStore
	now         func() time.Time
}

func NewEvaluator(expenses ExpenseStore, groups GroupStore, invitations InvitationStore) *Evaluator {
	return &Evaluator{
		expenses:    expenses,
		groups:      groups,
		invitations: invitations,
		now:         time.Now,
	}
}

// WithClock replaces the clock used for the current month window.
func (e *Evaluator) WithClock(now func() time.Time) *Evaluator {
	e.now = now
	return e
}

func (e *Evaluator) Evaluate(ctx context.Context, userID string, c model.Condition) (bool, error) {
	switch c.Type {
	case model.ConditionCount:
		return e.count(ctx, userID, c)
	case model.ConditionBudget:
		return e.budget(ctx, userID, c)
	default:
		return false, fmt.Errorf("%w: type %q", ErrUnsupportedCondition, c.Type)
	}
}

func (e *Evaluator) count(ctx context.Context, userID string, c model.Condition) (bool, error) {
	if c.Target == nil || c.Metric == "" {
		return false, nil
	}

	var (
		n   int64
		err error
	)
	switch c.Metric {
	case model.MetricExpenses:
		n, err = e.expenses.CountExpensesByCreator(ctx, userID)
	case model.MetricGroups:
		n, err = e.groups.CountByCreator(ctx, userID)
	case model.MetricInvitations:
		n, err = e.invitations.CountByInviter(ctx, userID)
	default:
		return false, fmt.Errorf("%w: metric %q", ErrUnsupportedCondition, c.Metric)
	}
	if err != nil {
		return false, fmt.Errorf("count %s: %w", c.Metric, err)
	}
	return n >= *c.Target, nil
}

// budget holds when this month's expenses created by the user do not exceed
// the summed monthly budgets of the groups the user created. Months is
// accepted but not evaluated.
func (e *Evaluator) budget(ctx context.Context, userID string, c model.Condition) (bool, error) {
	if c.Condition != model.BudgetUnderLimit {
		return false, nil
	}

	total, err := e.groups.SumBudgetsByCreator(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("sum budgets: %w", err)
	}

	from, to := MonthWindow(e.now())
	spent, err := e.expenses.SumExpensesByCreator(ctx, userID, from, to)
	if err != nil {
		return false, fmt.Errorf("sum expenses: %w", err)
	}
	return spent.LessThanOrEqual(total), nil
}

// MonthWindow returns [first day of t's month, first day of the next month)
// in t's location.
func MonthWindow(t time.Time) (time.Time, time.Time) {
	from := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return from, from.AddDate(0, 1, 0)
}
