package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/split-ledger/internal/model"
	xhttp "github.com/nimasrn/split-ledger/pkg/http"
)

type InvitationService interface {
	Invite(ctx context.Context, user model.Profile, groupID string, req model.InvitationCreateRequest) (*model.Invitation, error)
	Accept(ctx context.Context, user model.Profile, token string) (*model.Group, error)
}

type InvitationHandler struct {
	svc      InvitationService
	profiles ProfileResolver
}

func RegisterInvitationRoutes(e *router.Group, h *InvitationHandler) {
	e.POST("/groups/{id}/invitations", h.CreateInvitation)
	e.POST("/invitations/{token}/accept", h.AcceptInvitation)
}

func NewInvitationHandler(svc InvitationService, profiles ProfileResolver) *InvitationHandler {
	return &InvitationHandler{svc: svc, profiles: profiles}
}

func (h *InvitationHandler) CreateInvitation(ctx *xhttp.RequestCtx) {
	user, ok := currentUser(ctx, h.profiles)
	if !ok {
		return
	}
	var req model.InvitationCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	inv, err := h.svc.Invite(ctx, user, param(ctx, "id"), req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, inv)
}

func (h *InvitationHandler) AcceptInvitation(ctx *xhttp.RequestCtx) {
	user, ok := currentUser(ctx, h.profiles)
	if !ok {
		return
	}
	g, err := h.svc.Accept(ctx, user, param(ctx, "token"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, g)
}
