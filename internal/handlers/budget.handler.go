package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/split-ledger/internal/model"
	xhttp "github.com/nimasrn/split-ledger/pkg/http"
)

type BudgetService interface {
	GetBudget(ctx context.Context, ownerID string) (*model.Budget, error)
	SetBudget(ctx context.Context, ownerID string, req model.BudgetUpdateRequest) (*model.Budget, error)
}

type BudgetHandler struct {
	svc      BudgetService
	profiles ProfileResolver
}

func RegisterBudgetRoutes(e *router.Group, h *BudgetHandler) {
	e.GET("/budget", h.GetBudget)
	e.PUT("/budget", h.SetBudget)
}

func NewBudgetHandler(svc BudgetService, profiles ProfileResolver) *BudgetHandler {
	return &BudgetHandler{svc: svc, profiles: profiles}
}

type budgetResponse struct {
	Budget *model.Budget `json:"budget"`
}

func (h *BudgetHandler) GetBudget(ctx *xhttp.RequestCtx) {
	user, ok := currentUser(ctx, h.profiles)
	if !ok {
		return
	}
	b, err := h.svc.GetBudget(ctx, user.ID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, budgetResponse{Budget: b})
}

func (h *BudgetHandler) SetBudget(ctx *xhttp.RequestCtx) {
	user, ok := currentUser(ctx, h.profiles)
	if !ok {
		return
	}
	var req model.BudgetUpdateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	b, err := h.svc.SetBudget(ctx, user.ID, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, budgetResponse{Budget: b})
}
