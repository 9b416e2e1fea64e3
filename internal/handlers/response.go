package handlers

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/nimasrn/split-ledger/internal/model"
	"github.com/nimasrn/split-ledger/internal/services"
	xhttp "github.com/nimasrn/split-ledger/pkg/http"
	"github.com/nimasrn/split-ledger/pkg/logger"
)

// ProfileResolver turns the authenticated user id into a profile.
type ProfileResolver interface {
	Resolve(ctx context.Context, userID string) (model.Profile, error)
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	return json.Unmarshal(ctx.PostBody(), dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func param(ctx *xhttp.RequestCtx, name string) string {
	v, _ := ctx.UserValue(name).(string)
	return v
}

// currentUser resolves the caller, writing the error response when it cannot.
func currentUser(ctx *xhttp.RequestCtx, profiles ProfileResolver) (model.Profile, bool) {
	uid := xhttp.UserID(ctx)
	if uid == "" {
		writeError(ctx, xhttp.StatusUnauthorized, "missing identity")
		return model.Profile{}, false
	}
	p, err := profiles.Resolve(ctx, uid)
	if err != nil {
		writeServiceError(ctx, err)
		return model.Profile{}, false
	}
	return p, true
}

func statusFor(err error) int {
	switch {
	case model.IsValidation(err):
		return xhttp.StatusBadRequest
	case errors.Is(err, services.ErrNotGroupCreator),
		errors.Is(err, services.ErrNotTransactionCreator),
		errors.Is(err, services.ErrNotMember),
		errors.Is(err, services.ErrPersonalGroupImmutable):
		return xhttp.StatusForbidden
	case errors.Is(err, services.ErrGroupNotFound),
		errors.Is(err, services.ErrTransactionNotFound),
		errors.Is(err, services.ErrInvitationNotFound):
		return xhttp.StatusNotFound
	case errors.Is(err, services.ErrAlreadyMember),
		errors.Is(err, services.ErrInvitationUsed):
		return xhttp.StatusConflict
	case errors.Is(err, services.ErrInvitationExpired):
		return xhttp.StatusGone
	default:
		return xhttp.StatusInternalServerError
	}
}

func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	status := statusFor(err)
	if status == xhttp.StatusInternalServerError {
		logger.Error("Request failed", "path", string(ctx.Path()), "error", err)
		writeError(ctx, status, xhttp.StatusText(status))
		return
	}
	writeError(ctx, status, err.Error())
}
