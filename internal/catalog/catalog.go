package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/iurnickita/repairshop/internal/model"
	"github.com/iurnickita/repairshop/internal/store"
)

type Catalog interface {
	CreateRepairType(ctx context.Context, repairType model.RepairType) (model.RepairType, error)
	RepairType(ctx context.Context, id string) (model.RepairType, error)
	RepairTypes(ctx context.Context) ([]model.RepairType, error)
	LinkParts(ctx context.Context, repairTypeID string, inventoryIDs []string) (model.RepairType, error)
	Mapping(ctx context.Context) (Mapping, error)
}

var (
	ErrRepairTypeNotFound = errors.New("repair type not found")
	ErrItemNotFound       = errors.New("inventory item not found")
	ErrInvalidRepairType  = errors.New("invalid repair type")
)

// Mapping - полная картина связей видов ремонта и запчастей.
type Mapping struct {
	RepairTypes    []model.RepairType `json:"repairTypes"`
	InventoryItems []MappedItem       `json:"inventoryItems"`
	Summary        MappingSummary     `json:"summary"`
}

type MappedItem struct {
	model.InventoryItem
	RepairTypes []RepairTypeRef `json:"repairTypes"`
}

type RepairTypeRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type MappingSummary struct {
	TotalRepairTypes              int `json:"totalRepairTypes"`
	RepairTypesWithParts          int `json:"repairTypesWithParts"`
	TotalInventoryItems           int `json:"totalInventoryItems"`
	InventoryItemsLinkedToRepairs int `json:"inventoryItemsLinkedToRepairs"`
}

type catalog struct {
	store store.Store
}

func NewCatalog(store store.Store) Catalog {
	return &catalog{store: store}
}

func (c *catalog) CreateRepairType(ctx context.Context, repairType model.RepairType) (model.RepairType, error) {
	repairType.Name = strings.TrimSpace(repairType.Name)
	if repairType.Name == "" {
		return model.RepairType{}, fmt.Errorf("%w: name is required", ErrInvalidRepairType)
	}
	if repairType.LaborPrice.IsNegative() {
		return model.RepairType{}, fmt.Errorf("%w: labor price must not be negative", ErrInvalidRepairType)
	}
	if !model.ValidMoney(repairType.LaborPrice) {
		return model.RepairType{}, fmt.Errorf("%w: labor price must have at most 2 decimal places", ErrInvalidRepairType)
	}
	parts := repairType.Parts

	repairType.ID = uuid.NewString()
	repairType.IsActive = true
	repairType.Parts = nil

	err := c.store.RunInTx(ctx, func(ctx context.Context) error {
		if err := c.store.RepairTypeCreate(ctx, repairType); err != nil {
			return err
		}
		if len(parts) == 0 {
			return nil
		}
		ids := make([]string, 0, len(parts))
		for _, p := range parts {
			ids = append(ids, p.ID)
		}
		_, err := c.LinkParts(ctx, repairType.ID, ids)
		return err
	})
	if err != nil {
		return model.RepairType{}, err
	}
	return c.RepairType(ctx, repairType.ID)
}

func (c *catalog) RepairType(ctx context.Context, id string) (model.RepairType, error) {
	repairType, err := c.store.RepairTypeGet(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNoRows) {
			return model.RepairType{}, ErrRepairTypeNotFound
		}
		return model.RepairType{}, err
	}
	return repairType, nil
}

func (c *catalog) RepairTypes(ctx context.Context) ([]model.RepairType, error) {
	return c.store.RepairTypeList(ctx, true)
}

// LinkParts заменяет (а не дополняет) набор запчастей вида ремонта.
// Повторный вызов с тем же списком ничего не меняет.
func (c *catalog) LinkParts(ctx context.Context, repairTypeID string, inventoryIDs []string) (model.RepairType, error) {
	ids := dedup(inventoryIDs)

	err := c.store.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := c.RepairType(ctx, repairTypeID); err != nil {
			return err
		}
		for _, id := range ids {
			if _, err := c.store.InventoryGet(ctx, id); err != nil {
				if errors.Is(err, store.ErrNoRows) {
					return fmt.Errorf("%w: %s", ErrItemNotFound, id)
				}
				return err
			}
		}
		err := c.store.RepairTypeSetParts(ctx, repairTypeID, ids)
		switch {
		case errors.Is(err, store.ErrNoRows):
			return ErrRepairTypeNotFound
		case errors.Is(err, store.ErrReferenced):
			return ErrItemNotFound
		}
		return err
	})
	if err != nil {
		return model.RepairType{}, err
	}
	return c.RepairType(ctx, repairTypeID)
}

func (c *catalog) Mapping(ctx context.Context) (Mapping, error) {
	repairTypes, err := c.store.RepairTypeList(ctx, false)
	if err != nil {
		return Mapping{}, err
	}
	items, err := c.store.InventoryList(ctx, store.InventoryFilter{})
	if err != nil {
		return Mapping{}, err
	}

	refs := make(map[string][]RepairTypeRef)
	var mapping Mapping
	for _, rt := range repairTypes {
		if len(rt.Parts) > 0 {
			mapping.Summary.RepairTypesWithParts++
		}
		for _, p := range rt.Parts {
			refs[p.ID] = append(refs[p.ID], RepairTypeRef{ID: rt.ID, Name: rt.Name})
		}
	}

	mapping.RepairTypes = append([]model.RepairType{}, repairTypes...)
	mapping.InventoryItems = make([]MappedItem, 0, len(items))
	for _, item := range items {
		mapped := MappedItem{InventoryItem: item, RepairTypes: append([]RepairTypeRef{}, refs[item.ID]...)}
		if len(mapped.RepairTypes) > 0 {
			mapping.Summary.InventoryItemsLinkedToRepairs++
		}
		mapping.InventoryItems = append(mapping.InventoryItems, mapped)
	}
	mapping.Summary.TotalRepairTypes = len(repairTypes)
	mapping.Summary.TotalInventoryItems = len(items)
	return mapping, nil
}

func dedup(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
