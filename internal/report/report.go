package report

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/iurnickita/repairshop/internal/model"
	"github.com/iurnickita/repairshop/internal/store"
)

type Report interface {
	Dashboard(ctx context.Context) (Dashboard, error)
	Revenue(ctx context.Context) (decimal.Decimal, error)
}

type Dashboard struct {
	TotalTickets  int             `json:"totalTickets"`
	OpenTickets   int             `json:"openTickets"`
	ClosedTickets int             `json:"closedTickets"`
	Users         int             `json:"users"`
	LowStockItems int             `json:"lowStockItems"`
	Revenue       decimal.Decimal `json:"revenue"`
}

type report struct {
	store store.Store
}

func NewReport(store store.Store) Report {
	return &report{store: store}
}

// Dashboard собирает показатели параллельно.
func (r *report) Dashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		d.TotalTickets, err = r.store.TicketCount(ctx, "")
		return err
	})
	g.Go(func() (err error) {
		d.OpenTickets, err = r.store.TicketCount(ctx, model.TicketStatusOpen)
		return err
	})
	g.Go(func() (err error) {
		d.ClosedTickets, err = r.store.TicketCount(ctx, model.TicketStatusClosed)
		return err
	})
	g.Go(func() (err error) {
		d.Users, err = r.store.UserCount(ctx)
		return err
	})
	g.Go(func() error {
		items, err := r.store.InventoryList(ctx, store.InventoryFilter{ActiveOnly: true, LowStockOnly: true})
		d.LowStockItems = len(items)
		return err
	})
	g.Go(func() (err error) {
		d.Revenue, err = r.store.InvoiceSumPaid(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}

// Revenue - сумма оплат по всем счетам.
func (r *report) Revenue(ctx context.Context) (decimal.Decimal, error) {
	return r.store.InvoiceSumPaid(ctx)
}
