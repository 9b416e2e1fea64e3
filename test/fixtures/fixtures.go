package fixtures

import (
	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/shopspring/decimal"
)

var (
	Alice = model.Profile{ID: "11111111-1111-1111-1111-111111111111", FullName: "Alice", Email: "alice@example.com"}
	Bob   = model.Profile{ID: "22222222-2222-2222-2222-222222222222", FullName: "Bob", Email: "bob@example.com"}
	Carol = model.Profile{ID: "33333333-3333-3333-3333-333333333333", FullName: "Carol", Email: "carol@example.com"}
)

func NewGroupRequest(name string, budget string) model.GroupCreateRequest {
	return model.GroupCreateRequest{
		Name:          name,
		MonthlyBudget: decimal.RequireFromString(budget),
	}
}

func NewPersonalExpense(title, amount string) model.ExpenseCreateRequest {
	return model.ExpenseCreateRequest{
		Title:   title,
		Amount:  decimal.RequireFromString(amount),
		GroupID: model.PersonalGroupID,
	}
}

func NewEqualSplitExpense(groupID, title, amount string, splitWith ...string) model.ExpenseCreateRequest {
	return model.ExpenseCreateRequest{
		Title:      title,
		Amount:     decimal.RequireFromString(amount),
		GroupID:    groupID,
		SplitWith:  splitWith,
		EqualSplit: true,
	}
}
