package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/iurnickita/repairshop/internal/model"
	"github.com/iurnickita/repairshop/internal/ticket"
)

func (h *handler) GetTickets(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		badRequest(w, err)
		return
	}
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		badRequest(w, err)
		return
	}

	tickets, err := h.service.ListTickets(r.Context(), ticket.Filter{
		Status: model.TicketStatus(r.URL.Query().Get("status")),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tickets)
}

func (h *handler) PostTicket(w http.ResponseWriter, r *http.Request) {
	var input ticket.Input
	if err := decodeJSON(r, &input); err != nil {
		badRequest(w, err)
		return
	}
	input.CreatedBy = userCode(r)

	created, err := h.service.CreateTicket(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	details, err := h.service.GetTicket(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	details.Parts = nonNil(details.Parts)
	writeJSON(w, http.StatusOK, details)
}

func (h *handler) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteTicket(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type PutTicketStatusJSONRequest struct {
	Status model.TicketStatus `json:"status"`
}

func (h *handler) PutTicketStatus(w http.ResponseWriter, r *http.Request) {
	var request PutTicketStatusJSONRequest
	if err := decodeJSON(r, &request); err != nil {
		badRequest(w, err)
		return
	}
	updated, err := h.service.SetTicketStatus(r.Context(), r.PathValue("id"), request.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type PostCloseTicketJSONRequest struct {
	Total decimal.Decimal `json:"total"`
}

func (h *handler) PostCloseTicket(w http.ResponseWriter, r *http.Request) {
	var request PostCloseTicketJSONRequest
	if err := decodeJSON(r, &request); err != nil {
		badRequest(w, err)
		return
	}
	result, err := h.service.CloseTicket(r.Context(), r.PathValue("id"), request.Total, userCode(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
