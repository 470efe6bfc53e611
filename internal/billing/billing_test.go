package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iurnickita/repairshop/internal/inventory"
	"github.com/iurnickita/repairshop/internal/model"
	"github.com/iurnickita/repairshop/internal/store"
	"github.com/iurnickita/repairshop/internal/store/memstore"
)

type fixture struct {
	store   *memstore.MemoryStore
	account model.Account
	ticket  model.Ticket
	parts   []model.InventoryItem
}

// newFixture заводит клиента, вид ремонта с запчастями и открытую заявку.
func newFixture(t *testing.T, stock ...int) fixture {
	t.Helper()
	ctx := context.Background()
	s := memstore.New()
	now := time.Now().UTC()

	f := fixture{store: s}
	f.account = model.Account{ID: uuid.NewString(), Name: "Jane", Balance: decimal.Zero, CreatedAt: now}
	require.NoError(t, s.AccountCreate(ctx, f.account))

	repairType := model.RepairType{ID: uuid.NewString(), Name: "iPhone 13 Screen Replacement", IsActive: true}
	require.NoError(t, s.RepairTypeCreate(ctx, repairType))

	var ids []string
	for i, q := range stock {
		item := model.InventoryItem{
			ID: uuid.NewString(), SKU: "SKU-" + string(rune('A'+i)), Name: "Part " + string(rune('A'+i)),
			Quantity: q, ReorderLevel: 1, Cost: decimal.NewFromInt(int64(10 * (i + 1))),
			NeedsReorder: q <= 1, IsActive: true, CreatedAt: now, UpdatedAt: now,
		}
		require.NoError(t, s.InventoryCreate(ctx, item))
		f.parts = append(f.parts, item)
		ids = append(ids, item.ID)
	}
	require.NoError(t, s.RepairTypeSetParts(ctx, repairType.ID, ids))

	f.ticket = model.Ticket{
		ID: uuid.NewString(), CustomerName: "Jane", Status: model.TicketStatusOpen,
		AccountID: f.account.ID, RepairTypeID: &repairType.ID, CreatedAt: now,
	}
	require.NoError(t, s.TicketCreate(ctx, f.ticket))
	return f
}

func (f fixture) deposit(t *testing.T, amount int64) {
	t.Helper()
	require.NoError(t, f.store.PaymentCreate(context.Background(), model.Payment{
		ID: uuid.NewString(), AccountID: f.account.ID, Amount: decimal.NewFromInt(amount),
		Method: model.PaymentMethodCash, CreatedAt: time.Now().UTC(),
	}))
	_, err := f.store.AccountAddBalance(context.Background(), f.account.ID, decimal.NewFromInt(-amount))
	require.NoError(t, err)
}

func newTestBilling(s store.Store, block bool) Billing {
	return NewBilling(s, inventory.NewInventory(s, zap.NewNop()), block, zap.NewNop())
}

func TestCloseTicketWithDeposit(t *testing.T) {
	f := newFixture(t, 3, 1)
	f.deposit(t, 50)
	ctx := context.Background()

	result, err := newTestBilling(f.store, false).CloseTicket(ctx, f.ticket.ID, decimal.NewFromInt(120), "u1")
	require.NoError(t, err)
	require.True(t, result.DueAmount.Equal(decimal.NewFromInt(70)))
	require.Equal(t, 2, result.PartsUsed)
	require.Equal(t, "iPhone 13 Screen Replacement", result.RepairType)

	invoice, err := f.store.InvoiceGet(ctx, result.InvoiceID)
	require.NoError(t, err)
	require.True(t, invoice.Total.Equal(decimal.NewFromInt(120)))
	require.True(t, invoice.PaidAmount.Equal(decimal.NewFromInt(50)))
	require.True(t, invoice.DueAmount.Equal(decimal.NewFromInt(70)))

	tk, err := f.store.TicketGet(ctx, f.ticket.ID)
	require.NoError(t, err)
	require.Equal(t, model.TicketStatusClosed, tk.Status)

	acc, err := f.store.AccountGet(ctx, f.account.ID)
	require.NoError(t, err)
	require.True(t, acc.Balance.Equal(decimal.NewFromInt(70)))

	// аванс израсходован этим счетом
	deposits, err := f.store.PaymentListDeposits(ctx, f.account.ID)
	require.NoError(t, err)
	require.Empty(t, deposits)
	history, err := f.store.PaymentListByInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestCloseTicketDeductsEveryPart(t *testing.T) {
	f := newFixture(t, 3, 1, 0)
	ctx := context.Background()

	result, err := newTestBilling(f.store, false).CloseTicket(ctx, f.ticket.ID, decimal.NewFromInt(40), "u1")
	require.NoError(t, err)
	require.True(t, result.DueAmount.Equal(decimal.NewFromInt(40)))
	require.Len(t, result.PartsDeducted, 3)

	ticketParts, err := f.store.TicketPartList(ctx, f.ticket.ID)
	require.NoError(t, err)
	require.Len(t, ticketParts, 3)

	for i, part := range f.parts {
		item, err := f.store.InventoryGet(ctx, part.ID)
		require.NoError(t, err)
		require.Equal(t, max(0, part.Quantity-1), item.Quantity)
		require.Equal(t, item.Quantity <= item.ReorderLevel, item.NeedsReorder)
		require.Equal(t, item.Quantity, result.PartsDeducted[i].RemainingStock)

		movements, err := f.store.MovementList(ctx, part.ID)
		require.NoError(t, err)
		require.Len(t, movements, 1)
		require.Equal(t, model.MovementStockOut, movements[0].Type)
		require.Equal(t, -1, movements[0].Quantity)
		require.Equal(t, "Ticket "+f.ticket.ID, movements[0].Reference)

		require.True(t, ticketParts[i].CostAtTime.Equal(part.Cost))
		require.Equal(t, 1, ticketParts[i].QuantityUsed)
	}
}

func TestCloseTicketRejections(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	b := newTestBilling(f.store, false)

	_, err := b.CloseTicket(ctx, f.ticket.ID, decimal.NewFromInt(-1), "")
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = b.CloseTicket(ctx, f.ticket.ID, decimal.RequireFromString("120.555"), "")
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = f.store.InvoiceGetByTicket(ctx, f.ticket.ID)
	require.ErrorIs(t, err, store.ErrNoRows)

	_, err = b.CloseTicket(ctx, "missing", decimal.NewFromInt(10), "")
	require.ErrorIs(t, err, ErrTicketNotFound)

	_, err = b.CloseTicket(ctx, f.ticket.ID, decimal.NewFromInt(10), "")
	require.NoError(t, err)

	_, err = b.CloseTicket(ctx, f.ticket.ID, decimal.NewFromInt(10), "")
	require.ErrorIs(t, err, ErrAlreadyClosed)

	// повторное закрытие не списало запчасть второй раз
	item, err := f.store.InventoryGet(ctx, f.parts[0].ID)
	require.NoError(t, err)
	require.Equal(t, 1, item.Quantity)
}

func TestCloseTicketBlockPolicy(t *testing.T) {
	f := newFixture(t, 2, 0)
	ctx := context.Background()

	_, err := newTestBilling(f.store, true).CloseTicket(ctx, f.ticket.ID, decimal.NewFromInt(10), "")
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)

	tk, err := f.store.TicketGet(ctx, f.ticket.ID)
	require.NoError(t, err)
	require.Equal(t, model.TicketStatusOpen, tk.Status)
	item, err := f.store.InventoryGet(ctx, f.parts[0].ID)
	require.NoError(t, err)
	require.Equal(t, 2, item.Quantity)
}

// failingStore ломает создание счета, чтобы проверить откат закрытия.
type failingStore struct {
	store.Store
}

var errBroken = errors.New("broken")

func (failingStore) InvoiceCreate(context.Context, model.Invoice) error {
	return errBroken
}

func TestCloseTicketIsAtomic(t *testing.T) {
	f := newFixture(t, 3)
	f.deposit(t, 5)
	ctx := context.Background()
	s := failingStore{Store: f.store}

	_, err := newTestBilling(s, false).CloseTicket(ctx, f.ticket.ID, decimal.NewFromInt(20), "")
	require.ErrorIs(t, err, ErrPartialFailure)
	require.ErrorIs(t, err, errBroken)

	tk, err := f.store.TicketGet(ctx, f.ticket.ID)
	require.NoError(t, err)
	require.Equal(t, model.TicketStatusOpen, tk.Status)

	item, err := f.store.InventoryGet(ctx, f.parts[0].ID)
	require.NoError(t, err)
	require.Equal(t, 3, item.Quantity)

	movements, err := f.store.MovementList(ctx, f.parts[0].ID)
	require.NoError(t, err)
	require.Empty(t, movements)

	ticketParts, err := f.store.TicketPartList(ctx, f.ticket.ID)
	require.NoError(t, err)
	require.Empty(t, ticketParts)

	acc, err := f.store.AccountGet(ctx, f.account.ID)
	require.NoError(t, err)
	require.True(t, acc.Balance.Equal(decimal.NewFromInt(-5)))

	deposits, err := f.store.PaymentListDeposits(ctx, f.account.ID)
	require.NoError(t, err)
	require.Len(t, deposits, 1)
}
