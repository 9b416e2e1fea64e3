package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nimasrn/split-ledger/internal/events"
	"github.com/nimasrn/split-ledger/internal/ledger"
	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/nimasrn/split-ledger/internal/repository"
	"github.com/nimasrn/split-ledger/pkg/logger"
	"github.com/nimasrn/split-ledger/pkg/prom"
)

type TransactionRepository interface {
	Create(ctx context.Context, txn *model.Transaction, shares []model.SplitShare) (*model.Transaction, []model.TransactionSplit, error)
	Get(ctx context.Context, id string) (*model.Transaction, error)
	ListForGroup(ctx context.Context, groupID, userID string) ([]model.Transaction, error)
	ListSplits(ctx context.Context, transactionIDs []string) ([]model.TransactionSplit, error)
	Delete(ctx context.Context, id string) error
}

// MembershipChecker answers whether a user belongs to a stored group.
type MembershipChecker interface {
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
}

type TransactionService struct {
	repo    TransactionRepository
	members MembershipChecker
	events  events.Publisher
}

func NewTransactionService(repo TransactionRepository, members MembershipChecker, publisher events.Publisher) *TransactionService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &TransactionService{repo: repo, members: members, events: publisher}
}

func (s *TransactionService) requireMember(ctx context.Context, groupID, userID string) error {
	if model.IsPersonalGroup(groupID) {
		return nil
	}
	ok, err := s.members.IsMember(ctx, groupID, userID)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if !ok {
		return ErrNotMember
	}
	return nil
}

// CreateExpense stores an expense and its optional split rows, then emits
// add_expense for the user.
func (s *TransactionService) CreateExpense(ctx context.Context, user model.Profile, req model.ExpenseCreateRequest) (*model.ExpenseCreated, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, req.GroupID, user.ID); err != nil {
		return nil, err
	}

	txn := &model.Transaction{
		Title:     strings.TrimSpace(req.Title),
		Amount:    req.Amount,
		Type:      model.TransactionTypeExpense,
		Note:      req.Note,
		Category:  req.Category,
		Tag:       req.Tag,
		GroupID:   req.GroupID,
		CreatedBy: user.ID,
	}

	var splitWith []string
	if model.IsPersonalGroup(req.GroupID) {
		txn.GroupID = ""
		txn.PaidBy = user.ID
		txn.SplitBetween = []string{user.ID}
	} else {
		txn.PaidBy = req.PaidBy
		if txn.PaidBy == "" {
			txn.PaidBy = user.ID
		}
		for _, p := range req.SplitWith {
			if p = strings.TrimSpace(p); p != "" && p != txn.PaidBy {
				splitWith = append(splitWith, p)
			}
		}
		txn.SplitBetween = append([]string{txn.PaidBy}, splitWith...)
	}

	shares := req.Shares
	if len(shares) == 0 && req.EqualSplit && len(splitWith) > 0 {
		shares = ledger.EqualShares(req.Amount, txn.SplitBetween)
	}
	if err := validShares(shares, txn.SplitBetween); err != nil {
		return nil, err
	}

	created, splits, err := s.repo.Create(ctx, txn, shares)
	if err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}
	prom.TransactionCreated(string(model.TransactionTypeExpense))
	s.events.Emit(ctx, user.ID, model.TriggerAddExpense)

	out := &model.ExpenseCreated{Transaction: created, Splits: splits}
	if len(splitWith) > 0 {
		pp := ledger.PerPerson(req.Amount, len(splitWith))
		out.PerPerson = &pp
	}
	return out, nil
}

func validShares(shares []model.SplitShare, participants []string) error {
	if len(shares) == 0 {
		return nil
	}
	allowed := make(map[string]struct{}, len(participants))
	for _, p := range participants {
		allowed[p] = struct{}{}
	}
	for _, sh := range shares {
		if _, ok := allowed[sh.UserID]; !ok || !sh.Amount.IsPositive() {
			return model.ErrInvalidShares
		}
	}
	return nil
}

// CreateLoan records money the user lent to req.LoanedTo.
func (s *TransactionService) CreateLoan(ctx context.Context, user model.Profile, req model.LoanCreateRequest) (*model.Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.createTransfer(ctx, user, req.GroupID, &model.Transaction{
		Title:    strings.TrimSpace(req.Title),
		Amount:   req.Amount,
		Type:     model.TransactionTypeLoan,
		LoanedTo: strings.TrimSpace(req.LoanedTo),
		Note:     req.Note,
	})
}

// CreateSettlement records a repayment from the user to req.PaidTo.
func (s *TransactionService) CreateSettlement(ctx context.Context, user model.Profile, req model.SettlementCreateRequest) (*model.Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.createTransfer(ctx, user, req.GroupID, &model.Transaction{
		Title:  strings.TrimSpace(req.Title),
		Amount: req.Amount,
		Type:   model.TransactionTypeSettlement,
		PaidTo: strings.TrimSpace(req.PaidTo),
		Note:   req.Note,
	})
}

func (s *TransactionService) createTransfer(ctx context.Context, user model.Profile, groupID string, txn *model.Transaction) (*model.Transaction, error) {
	if err := s.requireMember(ctx, groupID, user.ID); err != nil {
		return nil, err
	}
	if !model.IsPersonalGroup(groupID) {
		txn.GroupID = groupID
	}
	txn.PaidBy = user.ID
	txn.CreatedBy = user.ID

	created, _, err := s.repo.Create(ctx, txn, nil)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", txn.Type, err)
	}
	prom.TransactionCreated(string(txn.Type))
	return created, nil
}

func (s *TransactionService) Delete(ctx context.Context, user model.Profile, id string) error {
	txn, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTransactionNotFound
		}
		return fmt.Errorf("get transaction: %w", err)
	}
	if txn.CreatedBy != user.ID {
		return ErrNotTransactionCreator
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTransactionNotFound
		}
		return fmt.Errorf("delete transaction: %w", err)
	}
	logger.Info("Transaction deleted", "transaction_id", id, "user_id", user.ID)
	return nil
}

// List returns the group's transactions, newest first, with their splits.
func (s *TransactionService) List(ctx context.Context, user model.Profile, groupID string) ([]model.Transaction, []model.TransactionSplit, error) {
	if err := s.requireMember(ctx, groupID, user.ID); err != nil {
		return nil, nil, err
	}
	txs, err := s.repo.ListForGroup(ctx, groupID, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list transactions: %w", err)
	}
	if len(txs) == 0 {
		return txs, nil, nil
	}
	ids := make([]string, len(txs))
	for i, t := range txs {
		ids[i] = t.ID
	}
	splits, err := s.repo.ListSplits(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("list splits: %w", err)
	}
	return txs, splits, nil
}
