package report

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iurnickita/repairshop/internal/model"
	"github.com/iurnickita/repairshop/internal/store/memstore"
)

func TestDashboard(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.UserCreate(ctx, model.User{ID: "u1", Email: "admin@example.com", Role: "ADMIN", CreatedAt: now}))
	require.NoError(t, s.AccountCreate(ctx, model.Account{ID: "a1", Name: "Jane", CreatedAt: now}))
	require.NoError(t, s.InventoryCreate(ctx, model.InventoryItem{ID: "i1", SKU: "A", Name: "A", Quantity: 1, ReorderLevel: 5, NeedsReorder: true, IsActive: true}))
	for i, status := range []model.TicketStatus{model.TicketStatusOpen, model.TicketStatusOpen, model.TicketStatusClosed, model.TicketStatusCompleted} {
		require.NoError(t, s.TicketCreate(ctx, model.Ticket{
			ID: string(rune('a' + i)), CustomerName: "Jane", Status: status, AccountID: "a1", CreatedAt: now,
		}))
	}
	require.NoError(t, s.InvoiceCreate(ctx, model.Invoice{ID: "inv1", TicketID: "c", AccountID: "a1",
		Total: decimal.NewFromInt(120), PaidAmount: decimal.NewFromInt(50), DueAmount: decimal.NewFromInt(70), CreatedAt: now}))
	require.NoError(t, s.InvoiceCreate(ctx, model.Invoice{ID: "inv2", TicketID: "d", AccountID: "a1",
		Total: decimal.NewFromInt(30), PaidAmount: decimal.NewFromInt(30), DueAmount: decimal.Zero, CreatedAt: now}))

	r := NewReport(s)
	d, err := r.Dashboard(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, d.TotalTickets)
	require.Equal(t, 2, d.OpenTickets)
	require.Equal(t, 1, d.ClosedTickets)
	require.Equal(t, 1, d.Users)
	require.Equal(t, 1, d.LowStockItems)
	require.True(t, d.Revenue.Equal(decimal.NewFromInt(80)))

	revenue, err := r.Revenue(ctx)
	require.NoError(t, err)
	require.True(t, revenue.Equal(decimal.NewFromInt(80)))
}
