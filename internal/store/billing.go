package store

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/iurnickita/repairshop/internal/model"
)

const (
	invoiceColumns = "id, ticket_id, account_id, total, paid_amount, due_amount, created_at"
	paymentColumns = "id, account_id, invoice_id, amount, method, notes, created_at"
)

func (store *store) InvoiceCreate(ctx context.Context, invoice model.Invoice) error {
	_, err := store.db(ctx).NamedExecContext(ctx,
		"INSERT INTO invoices ("+invoiceColumns+")"+
			" VALUES (:id, :ticket_id, :account_id, :total, :paid_amount, :due_amount, :created_at)",
		invoice)
	return pgError(err)
}

func (store *store) InvoiceGet(ctx context.Context, id string) (model.Invoice, error) {
	query := "SELECT " + invoiceColumns + " FROM invoices WHERE id = $1"
	if inTx(ctx) {
		query += " FOR UPDATE"
	}
	var invoice model.Invoice
	err := store.db(ctx).GetContext(ctx, &invoice, query, id)
	return invoice, pgError(err)
}

func (store *store) InvoiceGetByTicket(ctx context.Context, ticketID string) (model.Invoice, error) {
	var invoice model.Invoice
	err := store.db(ctx).GetContext(ctx, &invoice,
		"SELECT "+invoiceColumns+" FROM invoices WHERE ticket_id = $1", ticketID)
	return invoice, pgError(err)
}

func (store *store) InvoiceUpdateAmounts(ctx context.Context, id string, paid, due decimal.Decimal) error {
	res, err := store.db(ctx).ExecContext(ctx,
		"UPDATE invoices SET paid_amount = $1, due_amount = $2 WHERE id = $3",
		paid, due, id)
	if err != nil {
		return pgError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoRows
	}
	return nil
}

func (store *store) InvoiceListUnpaid(ctx context.Context) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := store.db(ctx).SelectContext(ctx, &invoices,
		"SELECT "+invoiceColumns+" FROM invoices"+
			" WHERE due_amount > 0"+
			" ORDER BY created_at DESC")
	return invoices, pgError(err)
}

// InvoiceSumPaid - выручка: сумма оплаченного по всем счетам.
func (store *store) InvoiceSumPaid(ctx context.Context) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := store.db(ctx).GetContext(ctx, &sum,
		"SELECT COALESCE(SUM(paid_amount), 0) FROM invoices")
	return sum, pgError(err)
}

func (store *store) PaymentCreate(ctx context.Context, payment model.Payment) error {
	_, err := store.db(ctx).NamedExecContext(ctx,
		"INSERT INTO payments ("+paymentColumns+")"+
			" VALUES (:id, :account_id, :invoice_id, :amount, :method, :notes, :created_at)",
		payment)
	return pgError(err)
}

func (store *store) PaymentListByInvoice(ctx context.Context, invoiceID string) ([]model.Payment, error) {
	var payments []model.Payment
	err := store.db(ctx).SelectContext(ctx, &payments,
		"SELECT "+paymentColumns+" FROM payments"+
			" WHERE invoice_id = $1"+
			" ORDER BY created_at DESC",
		invoiceID)
	return payments, pgError(err)
}

// PaymentListDeposits возвращает незачтенные депозиты счета клиента.
func (store *store) PaymentListDeposits(ctx context.Context, accountID string) ([]model.Payment, error) {
	query := "SELECT " + paymentColumns + " FROM payments" +
		" WHERE account_id = $1 AND invoice_id IS NULL" +
		" ORDER BY created_at"
	if inTx(ctx) {
		query += " FOR UPDATE"
	}
	var payments []model.Payment
	err := store.db(ctx).SelectContext(ctx, &payments, query, accountID)
	return payments, pgError(err)
}

func (store *store) PaymentLinkToInvoice(ctx context.Context, paymentIDs []string, invoiceID string) error {
	if len(paymentIDs) == 0 {
		return nil
	}
	query, args, err := sqlx.In(
		"UPDATE payments SET invoice_id = ? WHERE id IN (?) AND invoice_id IS NULL",
		invoiceID, paymentIDs)
	if err != nil {
		return err
	}
	db := store.db(ctx)
	_, err = db.ExecContext(ctx, db.Rebind(query), args...)
	return pgError(err)
}
