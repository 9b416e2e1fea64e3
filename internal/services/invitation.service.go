package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/split-ledger/internal/events"
	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/nimasrn/split-ledger/internal/repository"
	"github.com/nimasrn/split-ledger/pkg/logger"
)

const DefaultInvitationTTL = 7 * 24 * time.Hour

type InvitationRepository interface {
	Create(ctx context.Context, inv *model.Invitation) (*model.Invitation, error)
	GetByToken(ctx context.Context, token string) (*model.Invitation, error)
	MarkUsed(ctx context.Context, id, userID string, at time.Time) error
}

type InvitationGroups interface {
	Get(ctx context.Context, id string) (*model.Group, error)
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	AddMember(ctx context.Context, m model.GroupMember) error
}

type InvitationService struct {
	invitations InvitationRepository
	groups      InvitationGroups
	tx          Transactor
	events      events.Publisher
	ttl         time.Duration
	now         func() time.Time
}

func NewInvitationService(invitations InvitationRepository, groups InvitationGroups, tx Transactor, publisher events.Publisher, ttl time.Duration) *InvitationService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if ttl <= 0 {
		ttl = DefaultInvitationTTL
	}
	return &InvitationService{
		invitations: invitations,
		groups:      groups,
		tx:          tx,
		events:      publisher,
		ttl:         ttl,
		now:         time.Now,
	}
}

// Invite creates a single-use token for email to join groupID. Delivering
// the link is left to the caller.
func (s *InvitationService) Invite(ctx context.Context, user model.Profile, groupID string, req model.InvitationCreateRequest) (*model.Invitation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if model.IsPersonalGroup(groupID) {
		return nil, ErrPersonalGroupImmutable
	}
	ok, err := s.groups.IsMember(ctx, groupID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if !ok {
		return nil, ErrNotMember
	}

	now := s.now().UTC()
	inv, err := s.invitations.Create(ctx, &model.Invitation{
		GroupID:   groupID,
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Token:     uuid.NewString(),
		InvitedBy: user.ID,
		ExpiresAt: now.Add(s.ttl),
	})
	if err != nil {
		return nil, fmt.Errorf("create invitation: %w", err)
	}

	logger.Info("Invitation created", "group_id", groupID, "invited_by", user.ID)
	s.events.Emit(ctx, user.ID, model.TriggerInviteMember)
	return inv, nil
}

// Accept redeems token and adds the user to the invitation's group.
func (s *InvitationService) Accept(ctx context.Context, user model.Profile, token string) (*model.Group, error) {
	inv, err := s.invitations.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	now := s.now()
	if inv.IsUsed() {
		return nil, ErrInvitationUsed
	}
	if inv.IsExpired(now) {
		return nil, ErrInvitationExpired
	}

	g, err := s.groups.Get(ctx, inv.GroupID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	for _, m := range g.Members {
		if m.UserID == user.ID {
			return nil, ErrAlreadyMember
		}
	}

	member := model.GroupMember{
		GroupID: g.ID,
		UserID:  user.ID,
		Name:    user.DisplayName(),
		Role:    model.MemberRoleMember,
	}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.groups.AddMember(ctx, member); err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				return ErrAlreadyMember
			}
			return fmt.Errorf("add member: %w", err)
		}
		if err := s.invitations.MarkUsed(ctx, inv.ID, user.ID, now); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrInvitationUsed
			}
			return fmt.Errorf("mark invitation used: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	member.JoinedAt = now.UTC()
	g.Members = append(g.Members, member)
	logger.Info("Invitation accepted", "group_id", g.ID, "user_id", user.ID)
	return g, nil
}
