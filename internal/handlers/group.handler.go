package handlers

import (
	"context"
	"time"

	"github.com/fasthttp/router"
	"github.com/nimasrn/split-ledger/internal/model"
	xhttp "github.com/nimasrn/split-ledger/pkg/http"
)

type GroupService interface {
	Create(ctx context.Context, user model.Profile, req model.GroupCreateRequest) (*model.Group, error)
	List(ctx context.Context, user model.Profile) ([]model.Group, error)
	Delete(ctx context.Context, user model.Profile, groupID string) (*model.GroupDeleted, error)
	UpdateBudget(ctx context.Context, user model.Profile, groupID string, req model.BudgetUpdateRequest) (*model.Group, error)
}

type DashboardService interface {
	Dashboard(ctx context.Context, user model.Profile, groupID string, now time.Time) (*model.Dashboard, error)
}

type GroupHandler struct {
	groups    GroupService
	dashboard DashboardService
	profiles  ProfileResolver
	now       func() time.Time
}

func RegisterGroupRoutes(e *router.Group, h *GroupHandler) {
	e.GET("/dashboard", h.GetDashboard)
	e.GET("/groups", h.ListGroups)
	e.POST("/groups", h.CreateGroup)
	e.DELETE("/groups/{id}", h.DeleteGroup)
	e.PUT("/groups/{id}/budget", h.UpdateGroupBudget)
}

func NewGroupHandler(groups GroupService, dashboard DashboardService, profiles ProfileResolver) *GroupHandler {
	return &GroupHandler{groups: groups, dashboard: dashboard, profiles: profiles, now: time.Now}
}

type groupListResponse struct {
	Items []model.Group `json:"items"`
}

func (h *GroupHandler) GetDashboard(ctx *xhttp.RequestCtx) {
	user, ok := currentUser(ctx, h.profiles)
	if !ok {
		return
	}
	dash, err := h.dashboard.Dashboard(ctx, user, query(ctx, "group_id"), h.now())
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, dash)
}

func (h *GroupHandler) ListGroups(ctx *xhttp.RequestCtx) {
	user, ok := currentUser(ctx, h.profiles)
	if !ok {
		return
	}
	groups, err := h.groups.List(ctx, user)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, groupListResponse{Items: groups})
}

func (h *GroupHandler) CreateGroup(ctx *xhttp.RequestCtx) {
	user, ok := currentUser(ctx, h.profiles)
	if !ok {
		return
	}
	var req model.GroupCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	g, err := h.groups.Create(ctx, user, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, g)
}

func (h *GroupHandler) DeleteGroup(ctx *xhttp.RequestCtx) {
	user, ok := currentUser(ctx, h.profiles)
	if !ok {
		return
	}
	out, err := h.groups.Delete(ctx, user, param(ctx, "id"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, out)
}

func (h *GroupHandler) UpdateGroupBudget(ctx *xhttp.RequestCtx) {
	user, ok := currentUser(ctx, h.profiles)
	if !ok {
		return
	}
	var req model.BudgetUpdateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	g, err := h.groups.UpdateBudget(ctx, user, param(ctx, "id"), req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, g)
}
