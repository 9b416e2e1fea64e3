package repository

import (
	"context"
	"errors"
	"time"

	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/nimasrn/split-ledger/pkg/pg"
	"gorm.io/gorm"
)

type InvitationRepository struct {
	*pg.DB
}

func NewInvitationRepository(db *pg.DB) *InvitationRepository {
	return &InvitationRepository{
		db,
	}
}

func (r *InvitationRepository) Create(ctx context.Context, inv *model.Invitation) (*model.Invitation, error) {
	entity := toInvitationEntity(inv)
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toInvitationModel(entity), nil
}

func (r *InvitationRepository) GetByToken(ctx context.Context, token string) (*model.Invitation, error) {
	var entity InvitationEntity
	if err := r.Read(ctx).Where("token = ?", token).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toInvitationModel(&entity), nil
}

// MarkUsed sets the redeemer once. An invitation that was already used
// returns ErrNotFound.
func (r *InvitationRepository) MarkUsed(ctx context.Context, id, userID string, at time.Time) error {
	at = at.UTC()
	res := r.Write(ctx).
		Model(&InvitationEntity{}).
		Where("id = ? AND used_at IS NULL", id).
		Updates(map[string]interface{}{"used_by": userID, "used_at": at, "updated_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *InvitationRepository) CountByInviter(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.Read(ctx).Model(&InvitationEntity{}).Where("invited_by = ?", userID).Count(&count).Error
	return count, err
}
