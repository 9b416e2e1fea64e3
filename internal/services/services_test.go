package services

import (
	"context"
	"sync"
	"testing"

	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/nimasrn/split-ledger/internal/repository"
	"github.com/nimasrn/split-ledger/pkg/pg"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type emitted struct {
	UserID  string
	Trigger model.Trigger
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []emitted
}

func (p *recordingPublisher) Emit(_ context.Context, userID string, trigger model.Trigger) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, emitted{userID, trigger})
}

func (p *recordingPublisher) all() []emitted {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]emitted(nil), p.events...)
}

// env wires the services over an in-memory database.
type env struct {
	db           *pg.DB
	publisher    *recordingPublisher
	groupRepo    *repository.GroupRepository
	txRepo       *repository.TransactionRepository
	budgetRepo   *repository.BudgetRepository
	invRepo      *repository.InvitationRepository
	achRepo      *repository.AchievementRepository
	groups       *GroupService
	transactions *TransactionService
	invitations  *InvitationService
	dashboard    *DashboardService
	budgets      *BudgetService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := repository.OpenTestDB(t)
	e := &env{
		db:         db,
		publisher:  &recordingPublisher{},
		groupRepo:  repository.NewGroupRepository(db),
		txRepo:     repository.NewTransactionRepository(db),
		budgetRepo: repository.NewBudgetRepository(db),
		invRepo:    repository.NewInvitationRepository(db),
		achRepo:    repository.NewAchievementRepository(db),
	}
	e.groups = NewGroupService(e.groupRepo, e.txRepo, db, e.publisher)
	e.transactions = NewTransactionService(e.txRepo, e.groupRepo, e.publisher)
	e.invitations = NewInvitationService(e.invRepo, e.groupRepo, db, e.publisher, 0)
	e.dashboard = NewDashboardService(e.groupRepo, e.txRepo, e.budgetRepo, e.achRepo)
	e.budgets = NewBudgetService(e.budgetRepo)
	return e
}

var (
	alice = model.Profile{ID: "alice", FullName: "Alice"}
	bob   = model.Profile{ID: "bob", FullName: "Bob"}
	carol = model.Profile{ID: "carol", FullName: "Carol"}
)
