package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/nimasrn/split-ledger/pkg/pg"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionRepository struct {
	*pg.DB
}

func NewTransactionRepository(db *pg.DB) *TransactionRepository {
	return &TransactionRepository{
		db,
	}
}

// Create stores the transaction and its split rows atomically.
func (r *TransactionRepository) Create(ctx context.Context, txn *model.Transaction, shares []model.SplitShare) (*model.Transaction, []model.TransactionSplit, error) {
	entity := toTransactionEntity(txn)
	var splits []*TransactionSplitEntity

	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := r.Write(ctx).Create(entity).Error; err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		if len(shares) == 0 {
			return nil
		}
		splits = toSplitEntities(entity.ID, shares, entity.CreatedAt)
		if err := r.Write(ctx).Create(&splits).Error; err != nil {
			return fmt.Errorf("insert splits: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return toTransactionModel(entity), toSplitModels(splits), nil
}

func (r *TransactionRepository) Get(ctx context.Context, id string) (*model.Transaction, error) {
	var entity TransactionEntity
	err := r.Read(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toTransactionModel(&entity), nil
}

// ListForGroup returns the group's transactions, newest first. The personal
// selection returns the user's transactions that carry no group.
func (r *TransactionRepository) ListForGroup(ctx context.Context, groupID, userID string) ([]model.Transaction, error) {
	q := r.Read(ctx).Model(&TransactionEntity{})
	if gid := groupColumn(groupID); gid == nil {
		q = q.Where("group_id IS NULL AND created_by = ?", userID)
	} else {
		q = q.Where("group_id = ?", *gid)
	}

	var entities []*TransactionEntity
	if err := q.Order("created_at DESC").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toTransactionModels(entities), nil
}

func (r *TransactionRepository) ListSplits(ctx context.Context, transactionIDs []string) ([]model.TransactionSplit, error) {
	if len(transactionIDs) == 0 {
		return nil, nil
	}
	var entities []*TransactionSplitEntity
	err := r.Read(ctx).
		Where("transaction_id IN ?", transactionIDs).
		Order("created_at ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toSplitModels(entities), nil
}

func (r *TransactionRepository) Delete(ctx context.Context, id string) error {
	return r.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := r.Write(ctx).Where("transaction_id = ?", id).Delete(&TransactionSplitEntity{}).Error; err != nil {
			return err
		}
		res := r.Write(ctx).Where("id = ?", id).Delete(&TransactionEntity{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// DeleteByGroup removes every transaction of a group together with its splits.
func (r *TransactionRepository) DeleteByGroup(ctx context.Context, groupID string) error {
	return r.WithinTransaction(ctx, func(ctx context.Context) error {
		ids := r.Write(ctx).Model(&TransactionEntity{}).Select("id").Where("group_id = ?", groupID)
		if err := r.Write(ctx).Where("transaction_id IN (?)", ids).Delete(&TransactionSplitEntity{}).Error; err != nil {
			return err
		}
		return r.Write(ctx).Where("group_id = ?", groupID).Delete(&TransactionEntity{}).Error
	})
}

func (r *TransactionRepository) CountExpensesByCreator(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.Read(ctx).
		Model(&TransactionEntity{}).
		Where("created_by = ? AND type = ?", userID, model.TransactionTypeExpense).
		Count(&count).
		Error
	return count, err
}

// SumExpensesByCreator sums the user's expenses created in [from, to).
func (r *TransactionRepository) SumExpensesByCreator(ctx context.Context, userID string, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.Read(ctx).
		Model(&TransactionEntity{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("created_by = ? AND type = ?", userID, model.TransactionTypeExpense).
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Row().
		Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
