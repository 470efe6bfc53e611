package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/iurnickita/repairshop/internal/payment"
	"github.com/iurnickita/repairshop/internal/service"
)

func (h *handler) GetUnpaidInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.service.UnpaidInvoices(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(invoices))
}

func (h *handler) GetPaymentHistory(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.PaymentHistory(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(payments))
}

type PostPaymentJSONResponse struct {
	Success   bool   `json:"success"`
	PaymentID string `json:"paymentId,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (h *handler) PostPayment(w http.ResponseWriter, r *http.Request) {
	var input payment.Input
	if err := decodeJSON(r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, PostPaymentJSONResponse{Error: err.Error()})
		return
	}

	paymentID, err := h.service.ApplyPayment(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			writeJSON(w, http.StatusNotFound, PostPaymentJSONResponse{Error: err.Error()})
		case errors.Is(err, service.ErrInvalidInput):
			writeJSON(w, http.StatusBadRequest, PostPaymentJSONResponse{Error: err.Error()})
		default:
			h.zaplog.Error("apply payment", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, PostPaymentJSONResponse{Error: "failed to process payment"})
		}
		return
	}
	writeJSON(w, http.StatusOK, PostPaymentJSONResponse{Success: true, PaymentID: paymentID})
}
