package ticket

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iurnickita/repairshop/internal/account"
	"github.com/iurnickita/repairshop/internal/model"
	"github.com/iurnickita/repairshop/internal/store/memstore"
)

func newTestTicket(t *testing.T) (Ticket, *memstore.MemoryStore) {
	t.Helper()
	s := memstore.New()
	return NewTicket(s, account.NewAccount(s)), s
}

func TestCreateReusesAccountByName(t *testing.T) {
	tk, s := newTestTicket(t)
	ctx := context.Background()

	first, err := tk.Create(ctx, Input{CustomerName: "Jane Doe", Device: "iPhone 13", CreatedBy: "u1"})
	require.NoError(t, err)
	require.Equal(t, model.TicketStatusOpen, first.Status)
	require.NotEmpty(t, first.AccountID)
	require.Equal(t, "u1", *first.CreatedBy)

	second, err := tk.Create(ctx, Input{CustomerName: "JANE DOE"})
	require.NoError(t, err)
	require.Equal(t, first.AccountID, second.AccountID)

	acc, err := s.AccountGet(ctx, first.AccountID)
	require.NoError(t, err)
	require.True(t, acc.Balance.IsZero())
}

func TestCreateValidation(t *testing.T) {
	tk, _ := newTestTicket(t)
	ctx := context.Background()

	_, err := tk.Create(ctx, Input{})
	require.ErrorIs(t, err, ErrCustomerRequired)

	_, err = tk.Create(ctx, Input{CustomerName: "A", IMEI: "490154203237519"})
	require.ErrorIs(t, err, ErrInvalidIMEI)

	created, err := tk.Create(ctx, Input{CustomerName: "A", IMEI: "490154203237518"})
	require.NoError(t, err)
	require.Equal(t, "490154203237518", created.IMEI)

	missing := "missing"
	_, err = tk.Create(ctx, Input{CustomerName: "A", RepairTypeID: &missing})
	require.ErrorIs(t, err, ErrRepairTypeNotFound)

	_, err = tk.Create(ctx, Input{CustomerName: "A", AccountID: "missing"})
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestValidIMEI(t *testing.T) {
	tests := []struct {
		imei string
		want bool
	}{
		{"490154203237518", true},
		{"490154203237519", false},
		{"49015420323751", false},
		{"49015420323751a", false},
	}
	for _, tt := range tests {
		t.Run(tt.imei, func(t *testing.T) {
			require.Equal(t, tt.want, ValidIMEI(tt.imei))
		})
	}
}

func TestListPagination(t *testing.T) {
	tk, _ := newTestTicket(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := tk.Create(ctx, Input{CustomerName: "Customer"})
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	page, err := tk.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, page.Tickets, 10)
	require.Equal(t, 2, page.TotalPages)
	require.Equal(t, 1, page.CurrentPage)
	require.Equal(t, 12, page.TotalCount)

	page, err = tk.List(ctx, Filter{Page: 2})
	require.NoError(t, err)
	require.Len(t, page.Tickets, 2)

	page, err = tk.List(ctx, Filter{Status: model.TicketStatusClosed})
	require.NoError(t, err)
	require.Empty(t, page.Tickets)
	require.Equal(t, 0, page.TotalPages)

	_, err = tk.List(ctx, Filter{Status: "DONE"})
	require.ErrorIs(t, err, ErrInvalidStatus)

	// последняя допустимая страница пуста, дальше - ошибка
	page, err = tk.List(ctx, Filter{Page: maxPage, Limit: maxLimit})
	require.NoError(t, err)
	require.Empty(t, page.Tickets)
	require.Equal(t, maxPage, page.CurrentPage)
	_, err = tk.List(ctx, Filter{Page: maxPage + 1})
	require.ErrorIs(t, err, ErrInvalidPage)
	_, err = tk.List(ctx, Filter{Page: math.MaxInt})
	require.ErrorIs(t, err, ErrInvalidPage)
}

func TestSetStatusTransitions(t *testing.T) {
	tk, _ := newTestTicket(t)
	ctx := context.Background()

	created, err := tk.Create(ctx, Input{CustomerName: "A"})
	require.NoError(t, err)

	_, err = tk.SetStatus(ctx, created.ID, model.TicketStatusCompleted)
	require.ErrorIs(t, err, ErrInvalidTransition)
	_, err = tk.SetStatus(ctx, created.ID, model.TicketStatusClosed)
	require.ErrorIs(t, err, ErrInvalidTransition)

	updated, err := tk.SetStatus(ctx, created.ID, model.TicketStatusInProgress)
	require.NoError(t, err)
	require.Equal(t, model.TicketStatusInProgress, updated.Status)

	_, err = tk.SetStatus(ctx, created.ID, model.TicketStatusOpen)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = tk.SetStatus(ctx, "missing", model.TicketStatusInProgress)
	require.ErrorIs(t, err, ErrTicketNotFound)

	require.True(t, CanTransition(model.TicketStatusClosed, model.TicketStatusCompleted))
	require.False(t, CanTransition(model.TicketStatusCompleted, model.TicketStatusClosed))
}

func TestDeleteRefusedWithInvoice(t *testing.T) {
	tk, s := newTestTicket(t)
	ctx := context.Background()

	plain, err := tk.Create(ctx, Input{CustomerName: "A"})
	require.NoError(t, err)
	require.NoError(t, tk.Delete(ctx, plain.ID))
	require.ErrorIs(t, tk.Delete(ctx, plain.ID), ErrTicketNotFound)

	billed, err := tk.Create(ctx, Input{CustomerName: "B"})
	require.NoError(t, err)
	require.NoError(t, s.InvoiceCreate(ctx, model.Invoice{
		ID: "inv1", TicketID: billed.ID, AccountID: billed.AccountID,
		Total: decimal.NewFromInt(10), DueAmount: decimal.NewFromInt(10), CreatedAt: time.Now(),
	}))
	require.ErrorIs(t, tk.Delete(ctx, billed.ID), ErrHasInvoice)

	details, err := tk.Get(ctx, billed.ID)
	require.NoError(t, err)
	require.NotNil(t, details.Invoice)
	require.Equal(t, "inv1", details.Invoice.ID)
}
