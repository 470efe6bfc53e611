package inventory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iurnickita/repairshop/internal/model"
	"github.com/iurnickita/repairshop/internal/store/memstore"
)

func newTestInventory(t *testing.T) (Inventory, *memstore.MemoryStore) {
	t.Helper()
	s := memstore.New()
	return NewInventory(s, zap.NewNop()), s
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	inv, _ := newTestInventory(t)
	ctx := context.Background()

	created, err := inv.Create(ctx, model.InventoryItem{
		SKU:          "SKU-A",
		Name:         "iPhone 13 Screen",
		Quantity:     3,
		ReorderLevel: 2,
		Cost:         decimal.RequireFromString("45.50"),
	}, "")
	require.NoError(t, err)
	require.False(t, created.NeedsReorder)

	got, err := inv.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "SKU-A", got.SKU)
	require.Equal(t, "iPhone 13 Screen", got.Name)
	require.True(t, got.Cost.Equal(decimal.RequireFromString("45.50")))
	require.Equal(t, 3, got.Quantity)

	movements, err := inv.Movements(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	require.Equal(t, model.MovementStockIn, movements[0].Type)
	require.Equal(t, 3, movements[0].Quantity)
	require.Equal(t, "Initial stock", movements[0].Reason)
}

func TestCreateValidation(t *testing.T) {
	inv, _ := newTestInventory(t)
	ctx := context.Background()

	_, err := inv.Create(ctx, model.InventoryItem{SKU: "SKU-A", Name: "Part"}, "")
	require.NoError(t, err)

	_, err = inv.Create(ctx, model.InventoryItem{SKU: "SKU-A", Name: "Other"}, "")
	require.ErrorIs(t, err, ErrDuplicateSKU)

	_, err = inv.Create(ctx, model.InventoryItem{Name: "No SKU"}, "")
	require.ErrorIs(t, err, ErrInvalidItem)

	_, err = inv.Create(ctx, model.InventoryItem{SKU: "SKU-B", Name: "Neg", Quantity: -1}, "")
	require.ErrorIs(t, err, ErrInvalidItem)

	_, err = inv.Create(ctx, model.InventoryItem{SKU: "SKU-C", Name: "Cheap", Cost: decimal.RequireFromString("0.125")}, "")
	require.ErrorIs(t, err, ErrInvalidItem)
	// лишние нули после запятой допустимы
	_, err = inv.Create(ctx, model.InventoryItem{SKU: "SKU-D", Name: "Screen", Cost: decimal.RequireFromString("45.500")}, "")
	require.NoError(t, err)
}

func TestApplyMovementStockInOnEmptyItem(t *testing.T) {
	inv, _ := newTestInventory(t)
	ctx := context.Background()

	item, err := inv.Create(ctx, model.InventoryItem{SKU: "SKU-A", Name: "Battery", Quantity: 0, ReorderLevel: 5}, "")
	require.NoError(t, err)
	require.True(t, item.NeedsReorder)

	movement, updated, err := inv.ApplyMovement(ctx, MovementInput{
		InventoryID: item.ID,
		Type:        model.MovementStockIn,
		Quantity:    10,
		Reason:      "Delivery",
	})
	require.NoError(t, err)
	require.Equal(t, 10, movement.Quantity)
	require.Equal(t, 10, updated.Quantity)
	require.False(t, updated.NeedsReorder)
}

func TestApplyMovementRejectsNegativeStock(t *testing.T) {
	inv, _ := newTestInventory(t)
	ctx := context.Background()

	item, err := inv.Create(ctx, model.InventoryItem{SKU: "SKU-A", Name: "Port", Quantity: 2, ReorderLevel: 1}, "")
	require.NoError(t, err)

	_, _, err = inv.ApplyMovement(ctx, MovementInput{InventoryID: item.ID, Type: model.MovementStockOut, Quantity: 3})
	require.ErrorIs(t, err, ErrInsufficientStock)

	// ничего не записано
	got, err := inv.Get(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.Quantity)
	movements, err := inv.Movements(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, movements, 1)

	// STOCK_OUT с положительным количеством списывает
	movement, updated, err := inv.ApplyMovement(ctx, MovementInput{InventoryID: item.ID, Type: model.MovementStockOut, Quantity: 1})
	require.NoError(t, err)
	require.Equal(t, -1, movement.Quantity)
	require.Equal(t, 1, updated.Quantity)
	require.True(t, updated.NeedsReorder)

	_, _, err = inv.ApplyMovement(ctx, MovementInput{InventoryID: item.ID, Type: "LOST", Quantity: 1})
	require.ErrorIs(t, err, ErrInvalidMovementType)
	_, _, err = inv.ApplyMovement(ctx, MovementInput{InventoryID: item.ID, Type: model.MovementAdjustment, Quantity: 0})
	require.ErrorIs(t, err, ErrInvalidQuantity)
	_, _, err = inv.ApplyMovement(ctx, MovementInput{InventoryID: "missing", Type: model.MovementAdjustment, Quantity: 1})
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestNeedsReorderRecomputedOnEveryMovement(t *testing.T) {
	inv, _ := newTestInventory(t)
	ctx := context.Background()

	item, err := inv.Create(ctx, model.InventoryItem{SKU: "SKU-A", Name: "Cable", Quantity: 6, ReorderLevel: 5}, "")
	require.NoError(t, err)

	for _, delta := range []int{-1, -1, 3, -7, 4} {
		_, updated, err := inv.ApplyMovement(ctx, MovementInput{InventoryID: item.ID, Type: model.MovementAdjustment, Quantity: delta})
		require.NoError(t, err)
		require.Equal(t, updated.Quantity <= updated.ReorderLevel, updated.NeedsReorder)
	}
}

func TestDeductClampsOrBlocks(t *testing.T) {
	inv, _ := newTestInventory(t)
	ctx := context.Background()

	item, err := inv.Create(ctx, model.InventoryItem{SKU: "SKU-A", Name: "Screen", Quantity: 0, ReorderLevel: 5}, "")
	require.NoError(t, err)

	_, err = inv.Deduct(ctx, DeductInput{InventoryID: item.ID, Quantity: 1, Reason: "Used in repair", Block: true})
	require.ErrorIs(t, err, ErrInsufficientStock)

	result, err := inv.Deduct(ctx, DeductInput{InventoryID: item.ID, Quantity: 1, Reason: "Used in repair"})
	require.NoError(t, err)
	require.Equal(t, 0, result.QuantityBefore)
	require.Equal(t, 0, result.Item.Quantity)
	require.Equal(t, -1, result.Movement.Quantity)
	require.Equal(t, model.MovementStockOut, result.Movement.Type)
}

func TestUpdateAndDeleteRecordMovements(t *testing.T) {
	inv, _ := newTestInventory(t)
	ctx := context.Background()

	item, err := inv.Create(ctx, model.InventoryItem{SKU: "SKU-A", Name: "Screen", Quantity: 4, ReorderLevel: 2}, "")
	require.NoError(t, err)
	_, err = inv.Create(ctx, model.InventoryItem{SKU: "SKU-B", Name: "Battery", Quantity: 1}, "")
	require.NoError(t, err)

	changed := item
	changed.Quantity = 1
	updated, err := inv.Update(ctx, item.ID, changed, "")
	require.NoError(t, err)
	require.True(t, updated.NeedsReorder)

	changed.SKU = "SKU-B"
	_, err = inv.Update(ctx, item.ID, changed, "")
	require.ErrorIs(t, err, ErrDuplicateSKU)

	movements, err := inv.Movements(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	require.Equal(t, model.MovementStockOut, movements[0].Type)
	require.Equal(t, -3, movements[0].Quantity)

	require.NoError(t, inv.Delete(ctx, item.ID, ""))
	_, err = inv.Get(ctx, item.ID)
	require.ErrorIs(t, err, ErrItemNotFound)
	require.ErrorIs(t, inv.Delete(ctx, item.ID, ""), ErrItemNotFound)

	items, err := inv.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "SKU-B", items[0].SKU)
}
