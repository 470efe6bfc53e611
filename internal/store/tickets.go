package store

import (
	"context"

	"github.com/iurnickita/repairshop/internal/model"
)

const ticketColumns = "id, customer_name, customer_phone, device, device_sn, imei, description, location," +
	" status, account_id, repair_type_id, created_by, created_at"

func (store *store) TicketCreate(ctx context.Context, ticket model.Ticket) error {
	_, err := store.db(ctx).NamedExecContext(ctx,
		"INSERT INTO tickets ("+ticketColumns+")"+
			" VALUES (:id, :customer_name, :customer_phone, :device, :device_sn, :imei, :description, :location,"+
			" :status, :account_id, :repair_type_id, :created_by, :created_at)",
		ticket)
	return pgError(err)
}

func (store *store) TicketGet(ctx context.Context, id string) (model.Ticket, error) {
	query := "SELECT " + ticketColumns + " FROM tickets WHERE id = $1"
	if inTx(ctx) {
		query += " FOR UPDATE"
	}
	var ticket model.Ticket
	err := store.db(ctx).GetContext(ctx, &ticket, query, id)
	return ticket, pgError(err)
}

func (store *store) TicketList(ctx context.Context, filter TicketFilter) ([]model.Ticket, int, error) {
	db := store.db(ctx)

	where := ""
	args := []interface{}{}
	if filter.Status != "" {
		where = " WHERE status = ?"
		args = append(args, filter.Status)
	}

	var count int
	if err := db.GetContext(ctx, &count, db.Rebind("SELECT count(*) FROM tickets"+where), args...); err != nil {
		return nil, 0, pgError(err)
	}

	query := "SELECT " + ticketColumns + " FROM tickets" + where + " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	var tickets []model.Ticket
	if err := db.SelectContext(ctx, &tickets, db.Rebind(query), args...); err != nil {
		return nil, 0, pgError(err)
	}
	return tickets, count, nil
}

func (store *store) TicketSetStatus(ctx context.Context, id string, status model.TicketStatus) error {
	res, err := store.db(ctx).ExecContext(ctx,
		"UPDATE tickets SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return pgError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoRows
	}
	return nil
}

func (store *store) TicketDelete(ctx context.Context, id string) error {
	res, err := store.db(ctx).ExecContext(ctx, "DELETE FROM tickets WHERE id = $1", id)
	if err != nil {
		return pgError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoRows
	}
	return nil
}

// TicketCount считает заявки со статусом status, пустой статус - все заявки.
func (store *store) TicketCount(ctx context.Context, status model.TicketStatus) (int, error) {
	var count int
	var err error
	if status == "" {
		err = store.db(ctx).GetContext(ctx, &count, "SELECT count(*) FROM tickets")
	} else {
		err = store.db(ctx).GetContext(ctx, &count, "SELECT count(*) FROM tickets WHERE status = $1", status)
	}
	return count, pgError(err)
}

func (store *store) TicketPartCreate(ctx context.Context, part model.TicketPart) error {
	_, err := store.db(ctx).NamedExecContext(ctx,
		"INSERT INTO ticket_parts (id, ticket_id, inventory_id, quantity_used, cost_at_time)"+
			" VALUES (:id, :ticket_id, :inventory_id, :quantity_used, :cost_at_time)",
		part)
	return pgError(err)
}

func (store *store) TicketPartList(ctx context.Context, ticketID string) ([]model.TicketPart, error) {
	var parts []model.TicketPart
	err := store.db(ctx).SelectContext(ctx, &parts,
		"SELECT id, ticket_id, inventory_id, quantity_used, cost_at_time"+
			" FROM ticket_parts WHERE ticket_id = $1",
		ticketID)
	return parts, pgError(err)
}
