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

type GroupRepository struct {
	*pg.DB
}

func NewGroupRepository(db *pg.DB) *GroupRepository {
	return &GroupRepository{
		db,
	}
}

// Create stores the group and its creator membership in one transaction.
func (r *GroupRepository) Create(ctx context.Context, g *model.Group, creator model.GroupMember) (*model.Group, error) {
	entity := toGroupEntity(g)
	var member *GroupMemberEntity

	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := r.Write(ctx).Create(entity).Error; err != nil {
			return fmt.Errorf("insert group: %w", err)
		}
		creator.GroupID = entity.ID
		member = toMemberEntity(creator)
		if err := r.Write(ctx).Create(member).Error; err != nil {
			return fmt.Errorf("insert creator membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return toGroupModel(entity, []model.GroupMember{toMemberModel(member)}), nil
}

func (r *GroupRepository) Get(ctx context.Context, id string) (*model.Group, error) {
	var entity GroupEntity
	if err := r.Read(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	members, err := r.ListMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	return toGroupModel(&entity, members), nil
}

// ListForUser returns every group the user is a member of, oldest first,
// with members attached.
func (r *GroupRepository) ListForUser(ctx context.Context, userID string) ([]model.Group, error) {
	memberships := r.Read(ctx).Model(&GroupMemberEntity{}).Select("group_id").Where("user_id = ?", userID)

	var entities []*GroupEntity
	if err := r.Read(ctx).Where("id IN (?)", memberships).Order("created_at ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return []model.Group{}, nil
	}

	ids := make([]string, len(entities))
	for i, e := range entities {
		ids[i] = e.ID
	}
	var members []*GroupMemberEntity
	if err := r.Read(ctx).Where("group_id IN ?", ids).Order("joined_at ASC").Find(&members).Error; err != nil {
		return nil, err
	}
	byGroup := make(map[string][]model.GroupMember, len(entities))
	for _, m := range members {
		byGroup[m.GroupID] = append(byGroup[m.GroupID], toMemberModel(m))
	}

	groups := make([]model.Group, 0, len(entities))
	for _, e := range entities {
		groups = append(groups, *toGroupModel(e, byGroup[e.ID]))
	}
	return groups, nil
}

func (r *GroupRepository) AddMember(ctx context.Context, m model.GroupMember) error {
	if err := r.Write(ctx).Create(toMemberEntity(m)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *GroupRepository) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var count int64
	err := r.Read(ctx).
		Model(&GroupMemberEntity{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).
		Error
	return count > 0, err
}

func (r *GroupRepository) ListMembers(ctx context.Context, groupID string) ([]model.GroupMember, error) {
	var entities []*GroupMemberEntity
	if err := r.Read(ctx).Where("group_id = ?", groupID).Order("joined_at ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	members := make([]model.GroupMember, 0, len(entities))
	for _, e := range entities {
		members = append(members, toMemberModel(e))
	}
	return members, nil
}

func (r *GroupRepository) DeleteMembers(ctx context.Context, groupID string) error {
	return r.Write(ctx).Where("group_id = ?", groupID).Delete(&GroupMemberEntity{}).Error
}

// Delete removes the group row when it was created by creatorID.
func (r *GroupRepository) Delete(ctx context.Context, id, creatorID string) error {
	res := r.Write(ctx).Where("id = ? AND created_by = ?", id, creatorID).Delete(&GroupEntity{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GroupRepository) CountByCreator(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.Read(ctx).Model(&GroupEntity{}).Where("created_by = ?", userID).Count(&count).Error
	return count, err
}

// SumBudgetsByCreator adds up the monthly budgets of the groups the user created.
func (r *GroupRepository) SumBudgetsByCreator(ctx context.Context, userID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.Read(ctx).
		Model(&GroupEntity{}).
		Select("COALESCE(SUM(monthly_budget), 0)").
		Where("created_by = ?", userID).
		Row().
		Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r *GroupRepository) UpdateBudget(ctx context.Context, groupID string, amount decimal.Decimal) error {
	res := r.Write(ctx).
		Model(&GroupEntity{}).
		Where("id = ?", groupID).
		Updates(map[string]interface{}{"monthly_budget": amount, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
