package store

import (
	"context"
	"time"

	"github.com/iurnickita/repairshop/internal/model"
)

const inventoryColumns = "id, sku, name, description, category, device_model, quantity, reorder_level," +
	" cost, sell_price, location, bin_number, needs_reorder, is_active, created_at, updated_at"

func (store *store) InventoryCreate(ctx context.Context, item model.InventoryItem) error {
	_, err := store.db(ctx).NamedExecContext(ctx,
		"INSERT INTO inventory_items ("+inventoryColumns+")"+
			" VALUES (:id, :sku, :name, :description, :category, :device_model, :quantity, :reorder_level,"+
			" :cost, :sell_price, :location, :bin_number, :needs_reorder, :is_active, :created_at, :updated_at)",
		item)
	return pgError(err)
}

// InventoryGet внутри транзакции блокирует строку до конца транзакции.
func (store *store) InventoryGet(ctx context.Context, id string) (model.InventoryItem, error) {
	query := "SELECT " + inventoryColumns + " FROM inventory_items WHERE id = $1"
	if inTx(ctx) {
		query += " FOR UPDATE"
	}
	var item model.InventoryItem
	err := store.db(ctx).GetContext(ctx, &item, query, id)
	return item, pgError(err)
}

func (store *store) InventoryList(ctx context.Context, filter InventoryFilter) ([]model.InventoryItem, error) {
	query := "SELECT " + inventoryColumns + " FROM inventory_items WHERE TRUE"
	if filter.ActiveOnly {
		query += " AND is_active"
	}
	if filter.LowStockOnly {
		query += " AND needs_reorder"
	}
	query += " ORDER BY needs_reorder DESC, quantity ASC, name ASC"

	var items []model.InventoryItem
	err := store.db(ctx).SelectContext(ctx, &items, query)
	return items, pgError(err)
}

func (store *store) InventoryUpdate(ctx context.Context, item model.InventoryItem) error {
	res, err := store.db(ctx).NamedExecContext(ctx,
		"UPDATE inventory_items SET"+
			" sku = :sku, name = :name, description = :description, category = :category,"+
			" device_model = :device_model, quantity = :quantity, reorder_level = :reorder_level,"+
			" cost = :cost, sell_price = :sell_price, location = :location, bin_number = :bin_number,"+
			" needs_reorder = :needs_reorder, is_active = :is_active, updated_at = :updated_at"+
			" WHERE id = :id",
		item)
	if err != nil {
		return pgError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoRows
	}
	return nil
}

// InventoryAdjust применяет приращение одним UPDATE. Остаток не опускается ниже нуля.
func (store *store) InventoryAdjust(ctx context.Context, id string, delta int) (model.InventoryItem, error) {
	var item model.InventoryItem
	err := store.db(ctx).GetContext(ctx, &item,
		"UPDATE inventory_items SET"+
			" quantity = GREATEST(quantity + $1, 0),"+
			" needs_reorder = GREATEST(quantity + $1, 0) <= reorder_level,"+
			" updated_at = $2"+
			" WHERE id = $3"+
			" RETURNING "+inventoryColumns,
		delta, time.Now().UTC(), id)
	return item, pgError(err)
}

func (store *store) MovementCreate(ctx context.Context, movement model.StockMovement) error {
	_, err := store.db(ctx).NamedExecContext(ctx,
		"INSERT INTO stock_movements (id, inventory_id, type, quantity, reason, reference, user_id, created_at)"+
			" VALUES (:id, :inventory_id, :type, :quantity, :reason, :reference, :user_id, :created_at)",
		movement)
	return pgError(err)
}

func (store *store) MovementList(ctx context.Context, inventoryID string) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	err := store.db(ctx).SelectContext(ctx, &movements,
		"SELECT id, inventory_id, type, quantity, reason, reference, user_id, created_at"+
			" FROM stock_movements"+
			" WHERE inventory_id = $1"+
			" ORDER BY created_at DESC",
		inventoryID)
	return movements, pgError(err)
}
