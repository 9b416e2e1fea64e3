package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nimasrn/split-ledger/internal/ledger"
	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/nimasrn/split-ledger/internal/repository"
	"github.com/nimasrn/split-ledger/internal/stats"
	"github.com/shopspring/decimal"
)

type GroupLister interface {
	ListForUser(ctx context.Context, userID string) ([]model.Group, error)
}

type TransactionLister interface {
	ListForGroup(ctx context.Context, groupID, userID string) ([]model.Transaction, error)
	ListSplits(ctx context.Context, transactionIDs []string) ([]model.TransactionSplit, error)
}

type BudgetReader interface {
	Get(ctx context.Context, ownerID string) (*model.Budget, error)
}

type UnlockedLister interface {
	ListUnlocked(ctx context.Context, userID string) ([]model.UserAchievement, error)
}

type DashboardService struct {
	groups       GroupLister
	transactions TransactionLister
	budgets      BudgetReader
	achievements UnlockedLister
	opts         []ledger.Option
}

func NewDashboardService(groups GroupLister, transactions TransactionLister, budgets BudgetReader, achievements UnlockedLister, opts ...ledger.Option) *DashboardService {
	return &DashboardService{
		groups:       groups,
		transactions: transactions,
		budgets:      budgets,
		achievements: achievements,
		opts:         opts,
	}
}

// Dashboard assembles the selected group's ledger position, current month
// statistics and budget progress for user.
func (s *DashboardService) Dashboard(ctx context.Context, user model.Profile, groupID string, now time.Time) (*model.Dashboard, error) {
	if groupID == "" {
		groupID = model.PersonalGroupID
	}

	stored, err := s.groups.ListForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	groups := append([]model.Group{model.PersonalGroup(user)}, stored...)

	var selected *model.Group
	for i := range groups {
		if groups[i].ID == groupID {
			selected = &groups[i]
			break
		}
	}
	if selected == nil {
		return nil, ErrGroupNotFound
	}

	txs, err := s.transactions.ListForGroup(ctx, groupID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	var splits []model.TransactionSplit
	if len(txs) > 0 {
		ids := make([]string, len(txs))
		for i, t := range txs {
			ids[i] = t.ID
		}
		if splits, err = s.transactions.ListSplits(ctx, ids); err != nil {
			return nil, fmt.Errorf("list splits: %w", err)
		}
	}

	monthly := stats.Monthly(stats.Input{
		Transactions: txs,
		GroupID:      groupID,
		Now:          now,
		Members:      len(selected.Members),
	})

	limit := selected.MonthlyBudget
	if selected.IsPersonal() {
		limit = decimal.Zero
		b, err := s.budgets.Get(ctx, user.ID)
		switch {
		case err == nil:
			limit = b.Amount
		case !errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("get budget: %w", err)
		}
	}

	unlocked, err := s.achievements.ListUnlocked(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	if unlocked == nil {
		unlocked = []model.UserAchievement{}
	}

	return &model.Dashboard{
		Group:        *selected,
		Groups:       groups,
		Transactions: txs,
		Summary:      ledger.Reconcile(user, txs, splits, s.opts...),
		Stats:        monthly,
		Budget:       ledger.Progress(limit, monthly.TotalExpenses),
		Achievements: unlocked,
	}, nil
}
