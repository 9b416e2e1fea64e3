package handlers

import (
	"context"
	"crypto/subtle"

	"github.com/fasthttp/router"
	"github.com/nimasrn/split-ledger/internal/model"
	xhttp "github.com/nimasrn/split-ledger/pkg/http"
	"github.com/nimasrn/split-ledger/pkg/logger"
)

// SweepPath is served with a shared token instead of a user identity.
const SweepPath = "/api/v1/internal/achievements/sweep"

type AchievementService interface {
	ListUnlocked(ctx context.Context, userID string) ([]model.UserAchievement, error)
	Sweep(ctx context.Context) (int, error)
}

type AchievementHandler struct {
	svc        AchievementService
	profiles   ProfileResolver
	sweepToken string
}

func RegisterAchievementRoutes(e *router.Group, h *AchievementHandler) {
	e.GET("/achievements", h.ListAchievements)
	e.POST("/internal/achievements/sweep", h.RunSweep)
}

func NewAchievementHandler(svc AchievementService, profiles ProfileResolver, sweepToken string) *AchievementHandler {
	return &AchievementHandler{svc: svc, profiles: profiles, sweepToken: sweepToken}
}

type achievementListResponse struct {
	Items []model.UserAchievement `json:"items"`
}

type sweepResponse struct {
	Users int `json:"users"`
}

func (h *AchievementHandler) ListAchievements(ctx *xhttp.RequestCtx) {
	user, ok := currentUser(ctx, h.profiles)
	if !ok {
		return
	}
	items, err := h.svc.ListUnlocked(ctx, user.ID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, achievementListResponse{Items: items})
}

func (h *AchievementHandler) RunSweep(ctx *xhttp.RequestCtx) {
	token, ok := xhttp.BearerToken(ctx)
	if !ok || h.sweepToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.sweepToken)) != 1 {
		writeError(ctx, xhttp.StatusUnauthorized, "invalid sweep token")
		return
	}
	n, err := h.svc.Sweep(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	logger.Info("Monthly sweep triggered over HTTP", "users", n)
	writeJSON(ctx, xhttp.StatusOK, sweepResponse{Users: n})
}
