package repository

import (
	"context"
	"testing"
	"time"

	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func expense(user, group string, amount string, at time.Time) *model.Transaction {
	return &model.Transaction{
		Title:        "lunch",
		Amount:       d(amount),
		Type:         model.TransactionTypeExpense,
		PaidBy:       user,
		SplitBetween: []string{user},
		GroupID:      group,
		CreatedBy:    user,
		CreatedAt:    at,
	}
}

func TestTransactionRepository_Create(t *testing.T) {
	repo := NewTransactionRepository(OpenTestDB(t))
	ctx := context.Background()

	t.Run("with splits", func(t *testing.T) {
		txn := expense("u1", "g1", "100", time.Time{})
		txn.SplitBetween = []string{"u1", "u2"}

		created, splits, err := repo.Create(ctx, txn, []model.SplitShare{
			{UserID: "u1", Amount: d("50")},
			{UserID: "u2", Amount: d("50")},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "g1", created.GroupID)
		require.Len(t, splits, 2)
		assert.Equal(t, created.ID, splits[0].TransactionID)

		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, got.Amount.Equal(d("100")))
		assert.Equal(t, []string{"u1", "u2"}, got.SplitBetween)

		stored, err := repo.ListSplits(ctx, []string{created.ID})
		require.NoError(t, err)
		assert.Len(t, stored, 2)
	})

	t.Run("personal maps to no group", func(t *testing.T) {
		created, splits, err := repo.Create(ctx, expense("u1", model.PersonalGroupID, "60", time.Time{}), nil)
		require.NoError(t, err)
		assert.Empty(t, created.GroupID)
		assert.True(t, created.IsPersonal())
		assert.Empty(t, splits)
	})
}

func TestTransactionRepository_Get_NotFound(t *testing.T) {
	repo := NewTransactionRepository(OpenTestDB(t))
	_, err := repo.Get(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransactionRepository_ListForGroup(t *testing.T) {
	repo := NewTransactionRepository(OpenTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for i, txn := range []*model.Transaction{
		expense("u1", "g1", "10", base),
		expense("u2", "g1", "20", base.Add(time.Hour)),
		expense("u1", "", "30", base),
		expense("u2", "", "40", base),
		expense("u1", "g2", "50", base),
	} {
		_, _, err := repo.Create(ctx, txn, nil)
		require.NoError(t, err, "row %d", i)
	}

	group, err := repo.ListForGroup(ctx, "g1", "u1")
	require.NoError(t, err)
	require.Len(t, group, 2)
	assert.True(t, group[0].Amount.Equal(d("20")), "newest first")

	personal, err := repo.ListForGroup(ctx, model.PersonalGroupID, "u1")
	require.NoError(t, err)
	require.Len(t, personal, 1)
	assert.True(t, personal[0].Amount.Equal(d("30")))
}

func TestTransactionRepository_Delete(t *testing.T) {
	repo := NewTransactionRepository(OpenTestDB(t))
	ctx := context.Background()

	created, _, err := repo.Create(ctx, expense("u1", "g1", "100", time.Time{}), []model.SplitShare{{UserID: "u1", Amount: d("100")}})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))

	_, err = repo.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	splits, err := repo.ListSplits(ctx, []string{created.ID})
	require.NoError(t, err)
	assert.Empty(t, splits)

	assert.ErrorIs(t, repo.Delete(ctx, created.ID), ErrNotFound)
}

func TestTransactionRepository_DeleteByGroup(t *testing.T) {
	repo := NewTransactionRepository(OpenTestDB(t))
	ctx := context.Background()

	a, _, err := repo.Create(ctx, expense("u1", "g1", "10", time.Time{}), []model.SplitShare{{UserID: "u1", Amount: d("10")}})
	require.NoError(t, err)
	_, _, err = repo.Create(ctx, expense("u1", "g2", "20", time.Time{}), nil)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteByGroup(ctx, "g1"))

	left, err := repo.ListForGroup(ctx, "g1", "u1")
	require.NoError(t, err)
	assert.Empty(t, left)
	splits, err := repo.ListSplits(ctx, []string{a.ID})
	require.NoError(t, err)
	assert.Empty(t, splits)

	other, err := repo.ListForGroup(ctx, "g2", "u1")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestTransactionRepository_Aggregates(t *testing.T) {
	repo := NewTransactionRepository(OpenTestDB(t))
	ctx := context.Background()
	march := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	_, _, err := repo.Create(ctx, expense("u1", "g1", "120.50", march), nil)
	require.NoError(t, err)
	_, _, err = repo.Create(ctx, expense("u1", "", "79.50", march.AddDate(0, 0, 5)), nil)
	require.NoError(t, err)
	_, _, err = repo.Create(ctx, expense("u1", "g1", "500", march.AddDate(0, -1, 0)), nil)
	require.NoError(t, err)
	_, _, err = repo.Create(ctx, expense("u2", "g1", "999", march), nil)
	require.NoError(t, err)
	loan := &model.Transaction{Title: "loan", Amount: d("70"), Type: model.TransactionTypeLoan, PaidBy: "u1", LoanedTo: "u2", CreatedBy: "u1", CreatedAt: march}
	_, _, err = repo.Create(ctx, loan, nil)
	require.NoError(t, err)

	count, err := repo.CountExpensesByCreator(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	sum, err := repo.SumExpensesByCreator(ctx, "u1", from, from.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.True(t, sum.Equal(d("200")), "got %s", sum)

	none, err := repo.SumExpensesByCreator(ctx, "nobody", from, from.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.True(t, none.IsZero())
}
