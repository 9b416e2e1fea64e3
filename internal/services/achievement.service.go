package services

import (
	"context"
	"fmt"

	"github.com/nimasrn/split-ledger/internal/model"
)

type AchievementRepository interface {
	ListUnlocked(ctx context.Context, userID string) ([]model.UserAchievement, error)
}

// Sweeper runs the month_end check for every known user.
type Sweeper interface {
	RunMonthlyAchievementSweep(ctx context.Context) (int, error)
}

type AchievementService struct {
	repo    AchievementRepository
	sweeper Sweeper
}

func NewAchievementService(repo AchievementRepository, sweeper Sweeper) *AchievementService {
	return &AchievementService{repo: repo, sweeper: sweeper}
}

func (s *AchievementService) ListUnlocked(ctx context.Context, userID string) ([]model.UserAchievement, error) {
	out, err := s.repo.ListUnlocked(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list unlocked achievements: %w", err)
	}
	if out == nil {
		out = []model.UserAchievement{}
	}
	return out, nil
}

func (s *AchievementService) Sweep(ctx context.Context) (int, error) {
	return s.sweeper.RunMonthlyAchievementSweep(ctx)
}
