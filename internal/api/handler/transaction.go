package handler

import (
	"net/http"

	"github.com/nhasan-dev/wallet-ledger/internal/service"
)

type TransactionHandler struct {
	svc *service.TransactionService
}

func NewTransactionHandler(svc *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{svc: svc}
}

func (h *TransactionHandler) MyTransactions(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requestActor(r)
	if !ok {
		RespondValidation(w, r, "missing authenticated user")
		return
	}
	params := listParams(r)
	entries, total, err := h.svc.ForUser(r.Context(), actorID, params)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, pageOf(entries, total, params))
}

func (h *TransactionHandler) AllTransactions(w http.ResponseWriter, r *http.Request) {
	params := listParams(r)
	entries, total, err := h.svc.All(r.Context(), params)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, pageOf(entries, total, params))
}
