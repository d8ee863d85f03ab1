package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nhasan-dev/wallet-ledger/internal/domain"
	"github.com/nhasan-dev/wallet-ledger/internal/models"
	"github.com/nhasan-dev/wallet-ledger/internal/service"
)

type WalletHandler struct {
	svc *service.WalletService
}

func NewWalletHandler(svc *service.WalletService) *WalletHandler {
	return &WalletHandler{svc: svc}
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *WalletHandler) AddMoney(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requestActor(r)
	if !ok {
		RespondValidation(w, r, "missing authenticated user")
		return
	}
	var req amountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.svc.AddMoney(r.Context(), actorID, req.Amount)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, entry)
}

func (h *WalletHandler) SendMoney(w http.ResponseWriter, r *http.Request) {
	h.transfer(w, r, "receiverId", h.svc.SendMoney)
}

func (h *WalletHandler) CashIn(w http.ResponseWriter, r *http.Request) {
	h.transfer(w, r, "receiverId", h.svc.CashIn)
}

func (h *WalletHandler) CashOut(w http.ResponseWriter, r *http.Request) {
	h.transfer(w, r, "agentId", h.svc.CashOut)
}

func (h *WalletHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.transfer(w, r, "userId", h.svc.Withdraw)
}

// transfer is the shared shape of all two-party movements: the counterparty
// comes from the URL, the amount from the body, the actor from the token.
func (h *WalletHandler) transfer(
	w http.ResponseWriter,
	r *http.Request,
	param string,
	op func(ctx context.Context, actorID, counterpartyID uuid.UUID, amount decimal.Decimal) (*models.TransactionEntry, error),
) {
	actorID, ok := requestActor(r)
	if !ok {
		RespondValidation(w, r, "missing authenticated user")
		return
	}
	counterpartyID, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		RespondValidation(w, r, "invalid "+param)
		return
	}
	var req amountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := op(r.Context(), actorID, counterpartyID, req.Amount)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, entry)
}

func (h *WalletHandler) MyWallet(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requestActor(r)
	if !ok {
		RespondValidation(w, r, "missing authenticated user")
		return
	}
	wallet, err := h.svc.MyWallet(r.Context(), actorID)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, wallet)
}

func (h *WalletHandler) ListWallets(w http.ResponseWriter, r *http.Request) {
	params := listParams(r)
	wallets, total, err := h.svc.ListWallets(r.Context(), params)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, pageOf(wallets, total, params))
}

func (h *WalletHandler) UpdateWalletStatus(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requestActor(r)
	if !ok {
		RespondValidation(w, r, "missing authenticated user")
		return
	}
	walletID, err := uuid.Parse(chi.URLParam(r, "walletId"))
	if err != nil {
		RespondValidation(w, r, "invalid wallet id")
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	wallet, err := h.svc.UpdateWalletStatus(r.Context(), actorID, walletID, domain.WalletStatus(req.Status))
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, wallet)
}
