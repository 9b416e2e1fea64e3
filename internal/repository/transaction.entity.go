package repository

import (
	"time"

	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/nimasrn/split-ledger/pkg/pg"
	"github.com/shopspring/decimal"
)

type TransactionEntity struct {
	pg.Model
	Title        string          `gorm:"column:title;not null"`
	Amount       decimal.Decimal `gorm:"column:amount;type:numeric(14,2);not null"`
	Type         string          `gorm:"column:type;not null;index"`
	PaidBy       string          `gorm:"column:paid_by;not null"`
	PaidTo       string          `gorm:"column:paid_to"`
	LoanedTo     string          `gorm:"column:loaned_to"`
	SplitBetween []string        `gorm:"column:split_between;type:text;serializer:json"`
	Note         string          `gorm:"column:note"`
	Category     string          `gorm:"column:category"`
	Tag          string          `gorm:"column:tag"`
	GroupID      *string         `gorm:"column:group_id;index"`
	CreatedBy    string          `gorm:"column:created_by;not null;index"`
}

func (TransactionEntity) TableName() string {
	return "transactions"
}

type TransactionSplitEntity struct {
	pg.Model
	TransactionID string          `gorm:"column:transaction_id;type:uuid;not null;index"`
	UserID        string          `gorm:"column:user_id;not null;index"`
	Amount        decimal.Decimal `gorm:"column:amount;type:numeric(14,2);not null"`
}

func (TransactionSplitEntity) TableName() string {
	return "transaction_splits"
}

// groupColumn maps the personal selection to a null group.
func groupColumn(groupID string) *string {
	if model.IsPersonalGroup(groupID) {
		return nil
	}
	return &groupID
}

func toTransactionEntity(m *model.Transaction) *TransactionEntity {
	if m == nil {
		return nil
	}
	e := &TransactionEntity{
		Title:        m.Title,
		Amount:       m.Amount,
		Type:         string(m.Type),
		PaidBy:       m.PaidBy,
		PaidTo:       m.PaidTo,
		LoanedTo:     m.LoanedTo,
		SplitBetween: m.SplitBetween,
		Note:         m.Note,
		Category:     m.Category,
		Tag:          m.Tag,
		GroupID:      groupColumn(m.GroupID),
		CreatedBy:    m.CreatedBy,
	}
	e.ID = m.ID
	if !m.CreatedAt.IsZero() {
		e.CreatedAt = m.CreatedAt.UTC()
	}
	return e
}

func toTransactionModel(e *TransactionEntity) *model.Transaction {
	if e == nil {
		return nil
	}
	m := &model.Transaction{
		ID:           e.ID,
		Title:        e.Title,
		Amount:       e.Amount,
		Type:         model.TransactionType(e.Type),
		PaidBy:       e.PaidBy,
		PaidTo:       e.PaidTo,
		LoanedTo:     e.LoanedTo,
		SplitBetween: e.SplitBetween,
		Note:         e.Note,
		Category:     e.Category,
		Tag:          e.Tag,
		CreatedBy:    e.CreatedBy,
		CreatedAt:    e.CreatedAt,
	}
	if e.GroupID != nil {
		m.GroupID = *e.GroupID
	}
	return m
}

func toTransactionModels(entities []*TransactionEntity) []model.Transaction {
	models := make([]model.Transaction, 0, len(entities))
	for _, e := range entities {
		models = append(models, *toTransactionModel(e))
	}
	return models
}

func toSplitEntities(transactionID string, shares []model.SplitShare, at time.Time) []*TransactionSplitEntity {
	entities := make([]*TransactionSplitEntity, 0, len(shares))
	for _, s := range shares {
		e := &TransactionSplitEntity{
			TransactionID: transactionID,
			UserID:        s.UserID,
			Amount:        s.Amount,
		}
		e.CreatedAt = at
		entities = append(entities, e)
	}
	return entities
}

func toSplitModels(entities []*TransactionSplitEntity) []model.TransactionSplit {
	models := make([]model.TransactionSplit, 0, len(entities))
	for _, e := range entities {
		models = append(models, model.TransactionSplit{
			ID:            e.ID,
			TransactionID: e.TransactionID,
			UserID:        e.UserID,
			Amount:        e.Amount,
			CreatedAt:     e.CreatedAt,
		})
	}
	return models
}
