package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nimasrn/split-ledger/internal/events"
	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/nimasrn/split-ledger/internal/repository"
	"github.com/nimasrn/split-ledger/pkg/logger"
	"github.com/shopspring/decimal"
)

type GroupRepository interface {
	Create(ctx context.Context, g *model.Group, creator model.GroupMember) (*model.Group, error)
	Get(ctx context.Context, id string) (*model.Group, error)
	ListForUser(ctx context.Context, userID string) ([]model.Group, error)
	DeleteMembers(ctx context.Context, groupID string) error
	Delete(ctx context.Context, id, creatorID string) error
	UpdateBudget(ctx context.Context, groupID string, amount decimal.Decimal) error
}

// GroupTransactionRemover deletes every transaction of a group with its splits.
type GroupTransactionRemover interface {
	DeleteByGroup(ctx context.Context, groupID string) error
}

type GroupService struct {
	groups       GroupRepository
	transactions GroupTransactionRemover
	tx           Transactor
	events       events.Publisher
}

func NewGroupService(groups GroupRepository, transactions GroupTransactionRemover, tx Transactor, publisher events.Publisher) *GroupService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &GroupService{groups: groups, transactions: transactions, tx: tx, events: publisher}
}

func (s *GroupService) Create(ctx context.Context, user model.Profile, req model.GroupCreateRequest) (*model.Group, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req = req.WithDefaults()

	g := &model.Group{
		Name:          req.Name,
		Description:   strings.TrimSpace(req.Description),
		Emoji:         req.Emoji,
		Color:         req.Color,
		Currency:      req.Currency,
		MonthlyBudget: req.MonthlyBudget,
		CreatedBy:     user.ID,
	}
	created, err := s.groups.Create(ctx, g, model.GroupMember{
		UserID: user.ID,
		Name:   user.DisplayName(),
		Role:   model.MemberRoleAdmin,
	})
	if err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}

	logger.Info("Group created", "group_id", created.ID, "user_id", user.ID)
	s.events.Emit(ctx, user.ID, model.TriggerCreateGroup)
	return created, nil
}

// List returns the personal pseudo-group followed by every group the user
// belongs to.
func (s *GroupService) List(ctx context.Context, user model.Profile) ([]model.Group, error) {
	stored, err := s.groups.ListForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	out := make([]model.Group, 0, len(stored)+1)
	out = append(out, model.PersonalGroup(user))
	return append(out, stored...), nil
}

func (s *GroupService) Get(ctx context.Context, user model.Profile, groupID string) (*model.Group, error) {
	if model.IsPersonalGroup(groupID) {
		g := model.PersonalGroup(user)
		return &g, nil
	}
	g, err := s.groups.Get(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	for _, m := range g.Members {
		if m.UserID == user.ID {
			return g, nil
		}
	}
	return nil, ErrNotMember
}

func (s *GroupService) ownedGroup(ctx context.Context, user model.Profile, groupID string) (*model.Group, error) {
	if model.IsPersonalGroup(groupID) {
		return nil, ErrPersonalGroupImmutable
	}
	g, err := s.groups.Get(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	if g.CreatedBy != user.ID {
		return nil, ErrNotGroupCreator
	}
	return g, nil
}

// Delete removes the group with its members and transactions in one
// database transaction. The caller falls back to the personal group.
func (s *GroupService) Delete(ctx context.Context, user model.Profile, groupID string) (*model.GroupDeleted, error) {
	if _, err := s.ownedGroup(ctx, user, groupID); err != nil {
		return nil, err
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.groups.DeleteMembers(ctx, groupID); err != nil {
			return fmt.Errorf("delete members: %w", err)
		}
		if err := s.transactions.DeleteByGroup(ctx, groupID); err != nil {
			return fmt.Errorf("delete transactions: %w", err)
		}
		if err := s.groups.Delete(ctx, groupID, user.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrGroupNotFound
			}
			return fmt.Errorf("delete group: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Group deleted", "group_id", groupID, "user_id", user.ID)
	return &model.GroupDeleted{GroupID: groupID, Selected: model.PersonalGroupID}, nil
}

func (s *GroupService) UpdateBudget(ctx context.Context, user model.Profile, groupID string, req model.BudgetUpdateRequest) (*model.Group, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	g, err := s.ownedGroup(ctx, user, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.groups.UpdateBudget(ctx, groupID, req.Amount); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("update group budget: %w", err)
	}
	g.MonthlyBudget = req.Amount
	return g, nil
}
