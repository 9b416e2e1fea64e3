package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/nimasrn/split-ledger/internal/repository"
	"github.com/shopspring/decimal"
)

type BudgetRepository interface {
	Get(ctx context.Context, ownerID string) (*model.Budget, error)
	Upsert(ctx context.Context, ownerID string, amount decimal.Decimal) (*model.Budget, error)
}

type BudgetService struct {
	repo BudgetRepository
}

func NewBudgetService(repo BudgetRepository) *BudgetService {
	return &BudgetService{repo: repo}
}

// GetBudget returns the owner's personal budget, nil when none was set.
func (s *BudgetService) GetBudget(ctx context.Context, ownerID string) (*model.Budget, error) {
	b, err := s.repo.Get(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (s *BudgetService) SetBudget(ctx context.Context, ownerID string, req model.BudgetUpdateRequest) (*model.Budget, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	b, err := s.repo.Upsert(ctx, ownerID, req.Amount)
	if err != nil {
		return nil, fmt.Errorf("set budget: %w", err)
	}
	return b, nil
}
