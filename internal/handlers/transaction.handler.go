package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/split-ledger/internal/model"
	xhttp "github.com/nimasrn/split-ledger/pkg/http"
)

type TransactionService interface {
	CreateExpense(ctx context.Context, user model.Profile, req model.ExpenseCreateRequest) (*model.ExpenseCreated, error)
	CreateLoan(ctx context.Context, user model.Profile, req model.LoanCreateRequest) (*model.Transaction, error)
	CreateSettlement(ctx context.Context, user model.Profile, req model.SettlementCreateRequest) (*model.Transaction, error)
	Delete(ctx context.Context, user model.Profile, id string) error
	List(ctx context.Context, user model.Profile, groupID string) ([]model.Transaction, []model.TransactionSplit, error)
}

type TransactionHandler struct {
	svc      TransactionService
	profiles ProfileResolver
}

func RegisterTransactionRoutes(e *router.Group, h *TransactionHandler) {
	e.GET("/groups/{id}/transactions", h.ListTransactions)
	e.POST("/transactions/expenses", h.CreateExpense)
	e.POST("/transactions/loans", h.CreateLoan)
	e.POST("/transactions/settlements", h.CreateSettlement)
	e.DELETE("/transactions/{id}", h.DeleteTransaction)
}

func NewTransactionHandler(svc TransactionService, profiles ProfileResolver) *TransactionHandler {
	return &TransactionHandler{svc: svc, profiles: profiles}
}

type transactionListResponse struct {
	Items  []model.Transaction      `json:"items"`
	Splits []model.TransactionSplit `json:"splits"`
}

func (h *TransactionHandler) ListTransactions(ctx *xhttp.RequestCtx) {
	user, ok := currentUser(ctx, h.profiles)
	if !ok {
		return
	}
	txs, splits, err := h.svc.List(ctx, user, param(ctx, "id"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	if txs == nil {
		txs = []model.Transaction{}
	}
	if splits == nil {
		splits = []model.TransactionSplit{}
	}
	writeJSON(ctx, xhttp.StatusOK, transactionListResponse{Items: txs, Splits: splits})
}

func (h *TransactionHandler) CreateExpense(ctx *xhttp.RequestCtx) {
	user, ok := currentUser(ctx, h.profiles)
	if !ok {
		return
	}
	var req model.ExpenseCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	out, err := h.svc.CreateExpense(ctx, user, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, out)
}

func (h *TransactionHandler) CreateLoan(ctx *xhttp.RequestCtx) {
	user, ok := currentUser(ctx, h.profiles)
	if !ok {
		return
	}
	var req model.LoanCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	txn, err := h.svc.CreateLoan(ctx, user, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, txn)
}

func (h *TransactionHandler) CreateSettlement(ctx *xhttp.RequestCtx) {
	user, ok := currentUser(ctx, h.profiles)
	if !ok {
		return
	}
	var req model.SettlementCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	txn, err := h.svc.CreateSettlement(ctx, user, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, txn)
}

func (h *TransactionHandler) DeleteTransaction(ctx *xhttp.RequestCtx) {
	user, ok := currentUser(ctx, h.profiles)
	if !ok {
		return
	}
	if err := h.svc.Delete(ctx, user, param(ctx, "id")); err != nil {
		writeServiceError(ctx, err)
		return
	}
	ctx.SetStatusCode(xhttp.StatusNoContent)
}
