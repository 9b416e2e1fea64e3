package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/nimasrn/split-ledger/internal/repository"
)

type ProfileRepository interface {
	Get(ctx context.Context, id string) (*model.Profile, error)
	Upsert(ctx context.Context, p model.Profile) error
}

type ProfileService struct {
	repo ProfileRepository
}

func NewProfileService(repo ProfileRepository) *ProfileService {
	return &ProfileService{repo: repo}
}

// Resolve loads the profile of an authenticated user id, registering a bare
// profile the first time the id is seen so the monthly sweep includes it.
func (s *ProfileService) Resolve(ctx context.Context, userID string) (model.Profile, error) {
	p, err := s.repo.Get(ctx, userID)
	if err == nil {
		return *p, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return model.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	fresh := model.Profile{ID: userID}
	if err := s.repo.Upsert(ctx, fresh); err != nil {
		return model.Profile{}, fmt.Errorf("register profile: %w", err)
	}
	return fresh, nil
}
