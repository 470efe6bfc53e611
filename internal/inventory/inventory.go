package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iurnickita/repairshop/internal/model"
	"github.com/iurnickita/repairshop/internal/store"
)

type Inventory interface {
	Create(ctx context.Context, item model.InventoryItem, userID string) (model.InventoryItem, error)
	Get(ctx context.Context, id string) (model.InventoryItem, error)
	List(ctx context.Context) ([]model.InventoryItem, error)
	LowStock(ctx context.Context) ([]model.InventoryItem, error)
	Update(ctx context.Context, id string, item model.InventoryItem, userID string) (model.InventoryItem, error)
	Delete(ctx context.Context, id string, userID string) error
	ApplyMovement(ctx context.Context, input MovementInput) (model.StockMovement, model.InventoryItem, error)
	Deduct(ctx context.Context, input DeductInput) (DeductResult, error)
	Movements(ctx context.Context, id string) ([]model.StockMovement, error)
}

var (
	ErrItemNotFound        = errors.New("inventory item not found")
	ErrDuplicateSKU        = errors.New("SKU already exists")
	ErrInvalidItem         = errors.New("invalid inventory item")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInvalidMovementType = errors.New("invalid stock movement type")
	ErrInvalidQuantity     = errors.New("invalid stock movement quantity")
)

const defaultReorderLevel = 5

type MovementInput struct {
	InventoryID string             `json:"inventoryId"`
	Type        model.MovementType `json:"type"`
	Quantity    int                `json:"quantity"`
	Reason      string             `json:"reason"`
	Reference   string             `json:"reference"`
	UserID      string             `json:"-"`
}

// DeductInput - списание запчасти при закрытии заявки.
// С Block списание пустой позиции завершается ErrInsufficientStock,
// без него остаток остается нулевым и пишется предупреждение.
type DeductInput struct {
	InventoryID string
	Quantity    int
	Reason      string
	Reference   string
	UserID      string
	Block       bool
}

type DeductResult struct {
	Item           model.InventoryItem
	QuantityBefore int
	Movement       model.StockMovement
}

type inventory struct {
	store  store.Store
	zaplog *zap.Logger
}

func NewInventory(store store.Store, zaplog *zap.Logger) Inventory {
	return &inventory{store: store, zaplog: zaplog}
}

func (inv *inventory) Create(ctx context.Context, item model.InventoryItem, userID string) (model.InventoryItem, error) {
	item.SKU = strings.TrimSpace(item.SKU)
	item.Name = strings.TrimSpace(item.Name)
	if err := validateItem(item); err != nil {
		return model.InventoryItem{}, err
	}
	if item.ReorderLevel == 0 {
		item.ReorderLevel = defaultReorderLevel
	}

	now := time.Now().UTC()
	item.ID = uuid.NewString()
	item.NeedsReorder = model.NeedsReorderAt(item.Quantity, item.ReorderLevel)
	item.IsActive = true
	item.CreatedAt = now
	item.UpdatedAt = now

	err := inv.store.RunInTx(ctx, func(ctx context.Context) error {
		if err := inv.store.InventoryCreate(ctx, item); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrDuplicateSKU
			}
			return err
		}
		// начальный остаток тоже проходит через журнал
		if item.Quantity > 0 {
			return inv.store.MovementCreate(ctx, newMovement(item.ID, model.MovementStockIn, item.Quantity,
				"Initial stock", "", userID))
		}
		return nil
	})
	if err != nil {
		return model.InventoryItem{}, err
	}
	return item, nil
}

func (inv *inventory) Get(ctx context.Context, id string) (model.InventoryItem, error) {
	item, err := inv.store.InventoryGet(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNoRows) {
			return model.InventoryItem{}, ErrItemNotFound
		}
		return model.InventoryItem{}, err
	}
	if !item.IsActive {
		return model.InventoryItem{}, ErrItemNotFound
	}
	return item, nil
}

func (inv *inventory) List(ctx context.Context) ([]model.InventoryItem, error) {
	return inv.store.InventoryList(ctx, store.InventoryFilter{ActiveOnly: true})
}

func (inv *inventory) LowStock(ctx context.Context) ([]model.InventoryItem, error) {
	return inv.store.InventoryList(ctx, store.InventoryFilter{ActiveOnly: true, LowStockOnly: true})
}

// Update перезаписывает карточку позиции. Изменение остатка фиксируется в журнале.
func (inv *inventory) Update(ctx context.Context, id string, item model.InventoryItem, userID string) (model.InventoryItem, error) {
	item.SKU = strings.TrimSpace(item.SKU)
	item.Name = strings.TrimSpace(item.Name)
	if err := validateItem(item); err != nil {
		return model.InventoryItem{}, err
	}
	if item.ReorderLevel == 0 {
		item.ReorderLevel = defaultReorderLevel
	}

	var updated model.InventoryItem
	err := inv.store.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := inv.Get(ctx, id)
		if err != nil {
			return err
		}

		updated = item
		updated.ID = existing.ID
		updated.IsActive = true
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = time.Now().UTC()
		updated.NeedsReorder = model.NeedsReorderAt(updated.Quantity, updated.ReorderLevel)

		if err = inv.store.InventoryUpdate(ctx, updated); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrDuplicateSKU
			}
			return err
		}

		change := updated.Quantity - existing.Quantity
		if change == 0 {
			return nil
		}
		movementType := model.MovementStockIn
		if change < 0 {
			movementType = model.MovementStockOut
		}
		return inv.store.MovementCreate(ctx, newMovement(id, movementType, change, "Manual adjustment", "", userID))
	})
	if err != nil {
		return model.InventoryItem{}, err
	}
	return updated, nil
}

// Delete - мягкое удаление: позиция скрывается, остаток списывается в журнал.
func (inv *inventory) Delete(ctx context.Context, id string, userID string) error {
	return inv.store.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := inv.Get(ctx, id)
		if err != nil {
			return err
		}

		removed := existing
		removed.IsActive = false
		removed.Quantity = 0
		removed.NeedsReorder = model.NeedsReorderAt(0, existing.ReorderLevel)
		removed.UpdatedAt = time.Now().UTC()
		if err = inv.store.InventoryUpdate(ctx, removed); err != nil {
			return err
		}

		return inv.store.MovementCreate(ctx, newMovement(id, model.MovementStockOut, -existing.Quantity,
			"Item deleted", "", userID))
	})
}

// ApplyMovement - ручное движение запаса. Уход остатка ниже нуля запрещен.
func (inv *inventory) ApplyMovement(ctx context.Context, input MovementInput) (model.StockMovement, model.InventoryItem, error) {
	delta, err := signedDelta(input.Type, input.Quantity)
	if err != nil {
		return model.StockMovement{}, model.InventoryItem{}, err
	}
	if strings.TrimSpace(input.Reason) == "" {
		input.Reason = string(input.Type)
	}

	var movement model.StockMovement
	var updated model.InventoryItem
	err = inv.store.RunInTx(ctx, func(ctx context.Context) error {
		item, err := inv.Get(ctx, input.InventoryID)
		if err != nil {
			return err
		}
		if item.Quantity+delta < 0 {
			return fmt.Errorf("%w: %s has %d, movement %d", ErrInsufficientStock, item.SKU, item.Quantity, delta)
		}

		movement = newMovement(item.ID, input.Type, delta, input.Reason, input.Reference, input.UserID)
		if err = inv.store.MovementCreate(ctx, movement); err != nil {
			return err
		}
		updated, err = inv.store.InventoryAdjust(ctx, item.ID, delta)
		return err
	})
	if err != nil {
		return model.StockMovement{}, model.InventoryItem{}, err
	}
	return movement, updated, nil
}

// Deduct списывает запчасть в рамках транзакции вызывающего.
func (inv *inventory) Deduct(ctx context.Context, input DeductInput) (DeductResult, error) {
	if input.Quantity <= 0 {
		return DeductResult{}, ErrInvalidQuantity
	}

	var result DeductResult
	err := inv.store.RunInTx(ctx, func(ctx context.Context) error {
		item, err := inv.store.InventoryGet(ctx, input.InventoryID)
		if err != nil {
			if errors.Is(err, store.ErrNoRows) {
				return ErrItemNotFound
			}
			return err
		}

		if item.Quantity < input.Quantity {
			if input.Block {
				return fmt.Errorf("%w: %s has %d, need %d", ErrInsufficientStock, item.SKU, item.Quantity, input.Quantity)
			}
			inv.zaplog.Warn("part is out of stock, deducting anyway",
				zap.String("inventory_id", item.ID),
				zap.String("sku", item.SKU),
				zap.Int("quantity", item.Quantity),
				zap.String("reference", input.Reference),
			)
		}

		result.QuantityBefore = item.Quantity
		result.Movement = newMovement(item.ID, model.MovementStockOut, -input.Quantity, input.Reason, input.Reference, input.UserID)
		if err = inv.store.MovementCreate(ctx, result.Movement); err != nil {
			return err
		}
		result.Item, err = inv.store.InventoryAdjust(ctx, item.ID, -input.Quantity)
		return err
	})
	if err != nil {
		return DeductResult{}, err
	}
	return result, nil
}

func (inv *inventory) Movements(ctx context.Context, id string) ([]model.StockMovement, error) {
	if _, err := inv.Get(ctx, id); err != nil {
		return nil, err
	}
	return inv.store.MovementList(ctx, id)
}

// signedDelta приводит количество к знаку, соответствующему типу движения.
// ADJUSTMENT принимается как есть.
func signedDelta(t model.MovementType, quantity int) (int, error) {
	if !t.Valid() {
		return 0, ErrInvalidMovementType
	}
	if quantity == 0 {
		return 0, ErrInvalidQuantity
	}
	abs := quantity
	if abs < 0 {
		abs = -abs
	}
	switch t {
	case model.MovementStockIn, model.MovementReturned:
		return abs, nil
	case model.MovementStockOut, model.MovementDamaged:
		return -abs, nil
	}
	return quantity, nil
}

func validateItem(item model.InventoryItem) error {
	switch {
	case item.SKU == "":
		return fmt.Errorf("%w: sku is required", ErrInvalidItem)
	case item.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidItem)
	case item.Quantity < 0:
		return fmt.Errorf("%w: quantity must not be negative", ErrInvalidItem)
	case item.ReorderLevel < 0:
		return fmt.Errorf("%w: reorder level must not be negative", ErrInvalidItem)
	case item.Cost.IsNegative():
		return fmt.Errorf("%w: cost must not be negative", ErrInvalidItem)
	case item.SellPrice != nil && item.SellPrice.LessThan(decimal.Zero):
		return fmt.Errorf("%w: sell price must not be negative", ErrInvalidItem)
	case !model.ValidMoney(item.Cost) || item.SellPrice != nil && !model.ValidMoney(*item.SellPrice):
		return fmt.Errorf("%w: prices must have at most 2 decimal places", ErrInvalidItem)
	}
	return nil
}

func newMovement(inventoryID string, t model.MovementType, quantity int, reason, reference, userID string) model.StockMovement {
	var user *string
	if userID != "" {
		user = &userID
	}
	return model.StockMovement{
		ID:          uuid.NewString(),
		InventoryID: inventoryID,
		Type:        t,
		Quantity:    quantity,
		Reason:      reason,
		Reference:   reference,
		UserID:      user,
		CreatedAt:   time.Now().UTC(),
	}
}
