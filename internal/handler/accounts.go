package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/iurnickita/repairshop/internal/payment"
)

func (h *handler) GetAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListAccounts(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(accounts))
}

type PostAccountJSONRequest struct {
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

func (h *handler) PostAccount(w http.ResponseWriter, r *http.Request) {
	var request PostAccountJSONRequest
	if err := decodeJSON(r, &request); err != nil {
		badRequest(w, err)
		return
	}
	account, err := h.service.CreateAccount(r.Context(), request.Name, request.Balance)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (h *handler) PostDeposit(w http.ResponseWriter, r *http.Request) {
	var request payment.DepositInput
	if err := decodeJSON(r, &request); err != nil {
		badRequest(w, err)
		return
	}
	request.AccountID = r.PathValue("id")

	deposit, err := h.service.RecordDeposit(r.Context(), request)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, deposit)
}
