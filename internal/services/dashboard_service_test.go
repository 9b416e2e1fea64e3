package services

import (
	"context"
	"testing"
	"time"

	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardService_PersonalUsesBudgetRow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.budgets.SetBudget(ctx, "alice", model.BudgetUpdateRequest{Amount: d("100")})
	require.NoError(t, err)
	_, err = e.transactions.CreateExpense(ctx, alice, model.ExpenseCreateRequest{
		Title: "Groceries", Amount: d("40"), GroupID: model.PersonalGroupID, Category: "Food",
	})
	require.NoError(t, err)

	dash, err := e.dashboard.Dashboard(ctx, alice, "", time.Now().UTC())
	require.NoError(t, err)

	assert.True(t, dash.Group.IsPersonal())
	assert.Len(t, dash.Transactions, 1)
	assert.True(t, dash.Stats.TotalExpenses.Equal(d("40")))
	assert.True(t, dash.Budget.Budget.Equal(d("100")))
	assert.True(t, dash.Budget.Remaining.Equal(d("60")))
	assert.EqualValues(t, 40, dash.Budget.Percentage)
	assert.Equal(t, model.BudgetTierGood, dash.Budget.Tier)
	assert.NotNil(t, dash.Achievements)
}

func TestDashboardService_GroupLedger(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	g, err := e.groups.Create(ctx, alice, model.GroupCreateRequest{Name: "Flat", MonthlyBudget: d("1000")})
	require.NoError(t, err)
	inv, err := e.invitations.Invite(ctx, alice, g.ID, model.InvitationCreateRequest{Email: "bob@x.y"})
	require.NoError(t, err)
	_, err = e.invitations.Accept(ctx, bob, inv.Token)
	require.NoError(t, err)

	_, err = e.transactions.CreateExpense(ctx, alice, model.ExpenseCreateRequest{
		Title: "Rent", Amount: d("900"), GroupID: g.ID, SplitWith: []string{"bob"}, EqualSplit: true,
	})
	require.NoError(t, err)

	dash, err := e.dashboard.Dashboard(ctx, bob, g.ID, time.Now().UTC())
	require.NoError(t, err)

	assert.Equal(t, g.ID, dash.Group.ID)
	assert.Len(t, dash.Groups, 2)
	assert.True(t, dash.Summary.NetBalance.Equal(d("-450")))
	assert.True(t, dash.Stats.AveragePerPerson.Equal(d("450")))
	assert.True(t, dash.Budget.Budget.Equal(d("1000")))
	assert.EqualValues(t, 90, dash.Budget.Percentage)
	assert.Equal(t, model.BudgetTierNearLimit, dash.Budget.Tier)
}

func TestDashboardService_UnknownGroup(t *testing.T) {
	e := newEnv(t)

	_, err := e.dashboard.Dashboard(context.Background(), alice, "someone-elses", time.Now())
	assert.ErrorIs(t, err, ErrGroupNotFound)
}
