package model

import "github.com/shopspring/decimal"

// LedgerSummary is the per-user position within one group. A positive
// NetBalance means the other members owe the user.
type LedgerSummary struct {
	NetBalance        decimal.Decimal `json:"net_balance"`
	YouLoaned         decimal.Decimal `json:"you_loaned"`
	YouBorrowed       decimal.Decimal `json:"you_borrowed"`
	NetLoans          decimal.Decimal `json:"net_loans"`
	SettlementAmount  decimal.Decimal `json:"settlement_amount"`
	TotalSettlements  int             `json:"total_settlements"`
	TotalTransactions int             `json:"total_transactions"`
}

type CategoryStat struct {
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Count      int             `json:"count"`
	Percentage int64           `json:"percentage"`
}

type MonthlyStats struct {
	TotalExpenses    decimal.Decimal `json:"total_expenses"`
	TransactionCount int             `json:"transaction_count"`
	AverageExpense   decimal.Decimal `json:"average_expense"`
	AveragePerPerson decimal.Decimal `json:"average_per_person"`
	Categories       []CategoryStat  `json:"categories"`
	HasData          bool            `json:"has_data"`
}

type Dashboard struct {
	Group        Group             `json:"group"`
	Groups       []Group           `json:"groups"`
	Transactions []Transaction     `json:"transactions"`
	Summary      LedgerSummary     `json:"summary"`
	Stats        MonthlyStats      `json:"stats"`
	Budget       BudgetProgress    `json:"budget"`
	Achievements []UserAchievement `json:"achievements"`
}
