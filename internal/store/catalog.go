package store

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iurnickita/repairshop/internal/model"
)

const repairTypeColumns = "id, name, description, device_type, device_model, category, labor_price, is_active"

func (store *store) RepairTypeCreate(ctx context.Context, repairType model.RepairType) error {
	_, err := store.db(ctx).NamedExecContext(ctx,
		"INSERT INTO repair_types ("+repairTypeColumns+")"+
			" VALUES (:id, :name, :description, :device_type, :device_model, :category, :labor_price, :is_active)",
		repairType)
	return pgError(err)
}

func (store *store) RepairTypeGet(ctx context.Context, id string) (model.RepairType, error) {
	var repairType model.RepairType
	err := store.db(ctx).GetContext(ctx, &repairType,
		"SELECT "+repairTypeColumns+" FROM repair_types WHERE id = $1", id)
	if err != nil {
		return model.RepairType{}, pgError(err)
	}

	parts, err := store.partsOf(ctx, []string{id})
	if err != nil {
		return model.RepairType{}, err
	}
	repairType.Parts = parts[id]
	return repairType, nil
}

func (store *store) RepairTypeList(ctx context.Context, activeOnly bool) ([]model.RepairType, error) {
	query := "SELECT " + repairTypeColumns + " FROM repair_types"
	if activeOnly {
		query += " WHERE is_active"
	}
	query += " ORDER BY device_type, device_model, name"

	var repairTypes []model.RepairType
	if err := store.db(ctx).SelectContext(ctx, &repairTypes, query); err != nil {
		return nil, pgError(err)
	}
	if len(repairTypes) == 0 {
		return repairTypes, nil
	}

	ids := make([]string, 0, len(repairTypes))
	for _, rt := range repairTypes {
		ids = append(ids, rt.ID)
	}
	parts, err := store.partsOf(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range repairTypes {
		repairTypes[i].Parts = parts[repairTypes[i].ID]
	}
	return repairTypes, nil
}

// RepairTypeSetParts заменяет весь набор запчастей вида ремонта.
func (store *store) RepairTypeSetParts(ctx context.Context, id string, inventoryIDs []string) error {
	return store.RunInTx(ctx, func(ctx context.Context) error {
		db := store.db(ctx)
		var exists bool
		err := db.GetContext(ctx, &exists,
			"SELECT EXISTS (SELECT 1 FROM repair_types WHERE id = $1)", id)
		if err != nil {
			return pgError(err)
		}
		if !exists {
			return ErrNoRows
		}

		if _, err = db.ExecContext(ctx,
			"DELETE FROM repair_type_parts WHERE repair_type_id = $1", id); err != nil {
			return pgError(err)
		}
		for _, inventoryID := range inventoryIDs {
			if _, err = db.ExecContext(ctx,
				"INSERT INTO repair_type_parts (repair_type_id, inventory_id) VALUES ($1, $2)"+
					" ON CONFLICT DO NOTHING",
				id, inventoryID); err != nil {
				return pgError(err)
			}
		}
		return nil
	})
}

type repairTypePart struct {
	RepairTypeID string `db:"repair_type_id"`
	model.InventoryItem
}

// partsOf загружает запчасти сразу для нескольких видов ремонта.
func (store *store) partsOf(ctx context.Context, repairTypeIDs []string) (map[string][]model.InventoryItem, error) {
	query, args, err := sqlx.In(
		"SELECT rtp.repair_type_id, i.id, i.sku, i.name, i.description, i.category, i.device_model,"+
			" i.quantity, i.reorder_level, i.cost, i.sell_price, i.location, i.bin_number,"+
			" i.needs_reorder, i.is_active, i.created_at, i.updated_at"+
			" FROM repair_type_parts rtp"+
			" JOIN inventory_items i ON i.id = rtp.inventory_id"+
			" WHERE rtp.repair_type_id IN (?)"+
			" ORDER BY i.name",
		repairTypeIDs)
	if err != nil {
		return nil, err
	}
	db := store.db(ctx)
	query = db.Rebind(query)

	var rows []repairTypePart
	if err = db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, pgError(err)
	}

	parts := make(map[string][]model.InventoryItem, len(repairTypeIDs))
	for _, row := range rows {
		parts[row.RepairTypeID] = append(parts[row.RepairTypeID], row.InventoryItem)
	}
	return parts, nil
}
