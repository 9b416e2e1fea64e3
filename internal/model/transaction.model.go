package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeExpense    TransactionType = "expense"
	TransactionTypeLoan       TransactionType = "loan"
	TransactionTypeSettlement TransactionType = "settlement"
)

// Transaction is an expense, loan or settlement. An empty GroupID means the
// transaction belongs to the creator's personal group.
type Transaction struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Amount       decimal.Decimal `json:"amount"`
	Type         TransactionType `json:"type"`
	PaidBy       string          `json:"paid_by"`
	PaidTo       string          `json:"paid_to,omitempty"`
	LoanedTo     string          `json:"loaned_to,omitempty"`
	SplitBetween []string        `json:"split_between,omitempty"`
	Note         string          `json:"note,omitempty"`
	Category     string          `json:"category,omitempty"`
	Tag          string          `json:"tag,omitempty"`
	GroupID      string          `json:"group_id,omitempty"`
	CreatedBy    string          `json:"created_by"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (t Transaction) IsPersonal() bool {
	return IsPersonalGroup(t.GroupID)
}

// InGroup reports whether t belongs to the given group selection.
func (t Transaction) InGroup(groupID string) bool {
	if IsPersonalGroup(groupID) {
		return t.IsPersonal()
	}
	return t.GroupID == groupID
}

type TransactionSplit struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transaction_id"`
	UserID        string          `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	CreatedAt     time.Time       `json:"created_at"`
}

type SplitShare struct {
	UserID string          `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

type ExpenseCreateRequest struct {
	Title      string          `json:"title"`
	Amount     decimal.Decimal `json:"amount"`
	GroupID    string          `json:"group_id"`
	PaidBy     string          `json:"paid_by"`
	SplitWith  []string        `json:"split_with"`
	Shares     []SplitShare    `json:"shares"`
	EqualSplit bool            `json:"equal_split"`
	Note       string          `json:"note"`
	Category   string          `json:"category"`
	Tag        string          `json:"tag"`
}

func (r ExpenseCreateRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrMissingTitle
	}
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(r.GroupID) == "" {
		return ErrMissingGroup
	}
	for _, s := range r.Shares {
		if s.UserID == "" || !s.Amount.IsPositive() {
			return ErrInvalidShares
		}
	}
	return nil
}

type LoanCreateRequest struct {
	Title    string          `json:"title"`
	Amount   decimal.Decimal `json:"amount"`
	GroupID  string          `json:"group_id"`
	LoanedTo string          `json:"loaned_to"`
	Note     string          `json:"note"`
}

func (r LoanCreateRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrMissingTitle
	}
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(r.LoanedTo) == "" {
		return ErrMissingCounterparty
	}
	return nil
}

type SettlementCreateRequest struct {
	Title   string          `json:"title"`
	Amount  decimal.Decimal `json:"amount"`
	GroupID string          `json:"group_id"`
	PaidTo  string          `json:"paid_to"`
	Note    string          `json:"note"`
}

func (r SettlementCreateRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrMissingTitle
	}
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(r.PaidTo) == "" {
		return ErrMissingCounterparty
	}
	return nil
}

// ExpenseCreated is returned after an expense is stored. PerPerson is the
// equal share when the expense was split with someone.
type ExpenseCreated struct {
	Transaction *Transaction       `json:"transaction"`
	Splits      []TransactionSplit `json:"splits,omitempty"`
	PerPerson   *decimal.Decimal   `json:"per_person,omitempty"`
}
