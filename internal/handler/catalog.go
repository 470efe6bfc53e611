package handler

import (
	"net/http"

	"github.com/iurnickita/repairshop/internal/model"
)

func (h *handler) GetRepairTypes(w http.ResponseWriter, r *http.Request) {
	repairTypes, err := h.service.RepairTypes(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if repairTypes == nil {
		repairTypes = []model.RepairType{}
	}
	writeJSON(w, http.StatusOK, nonNil(repairTypes))
}

func (h *handler) PostRepairType(w http.ResponseWriter, r *http.Request) {
	var repairType model.RepairType
	if err := decodeJSON(r, &repairType); err != nil {
		badRequest(w, err)
		return
	}
	created, err := h.service.CreateRepairType(r.Context(), repairType)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) GetMapping(w http.ResponseWriter, r *http.Request) {
	mapping, err := h.service.Mapping(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapping)
}

type PostMappingJSONRequest struct {
	RepairTypeID     string   `json:"repairTypeId"`
	InventoryItemIDs []string `json:"inventoryItemIds"`
}

func (h *handler) PostMapping(w http.ResponseWriter, r *http.Request) {
	var request PostMappingJSONRequest
	if err := decodeJSON(r, &request); err != nil {
		badRequest(w, err)
		return
	}
	repairType, err := h.service.LinkParts(r.Context(), request.RepairTypeID, request.InventoryItemIDs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, repairType)
}
