package handler

import (
	"net/http"

	"github.com/iurnickita/repairshop/internal/inventory"
	"github.com/iurnickita/repairshop/internal/model"
)

func (h *handler) GetInventory(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListItems(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(items))
}

func (h *handler) GetLowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.LowStock(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(items))
}

func (h *handler) PostInventory(w http.ResponseWriter, r *http.Request) {
	var item model.InventoryItem
	if err := decodeJSON(r, &item); err != nil {
		badRequest(w, err)
		return
	}
	created, err := h.service.CreateItem(r.Context(), item, userCode(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) GetInventoryItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetItem(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *handler) PutInventoryItem(w http.ResponseWriter, r *http.Request) {
	var item model.InventoryItem
	if err := decodeJSON(r, &item); err != nil {
		badRequest(w, err)
		return
	}
	updated, err := h.service.UpdateItem(r.Context(), r.PathValue("id"), item, userCode(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) DeleteInventoryItem(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteItem(r.Context(), r.PathValue("id"), userCode(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type PostStockMovementJSONResponse struct {
	Movement    model.StockMovement `json:"movement"`
	UpdatedItem model.InventoryItem `json:"updatedItem"`
}

func (h *handler) PostStockMovement(w http.ResponseWriter, r *http.Request) {
	var input inventory.MovementInput
	if err := decodeJSON(r, &input); err != nil {
		badRequest(w, err)
		return
	}
	input.UserID = userCode(r)

	movement, item, err := h.service.StockMovement(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, PostStockMovementJSONResponse{Movement: movement, UpdatedItem: item})
}

func (h *handler) GetMovements(w http.ResponseWriter, r *http.Request) {
	movements, err := h.service.Movements(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(movements))
}
