package payment

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
	"github.com/iurnickita/repairshop/internal/ticket"
)

type Payment interface {
	ApplyPayment(ctx context.Context, input Input) (string, error)
	RecordDeposit(ctx context.Context, input DepositInput) (model.Payment, error)
	UnpaidInvoices(ctx context.Context) ([]model.Invoice, error)
	History(ctx context.Context, invoiceID string) ([]model.Payment, error)
}

var (
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrAccountNotFound = errors.New("account not found")
	ErrInvalidAmount   = errors.New("payment amount must be greater than 0 with at most 2 decimal places")
	ErrExceedsDue      = errors.New("payment amount exceeds due amount")
	ErrInvalidMethod   = errors.New("invalid payment method")
)

type Input struct {
	InvoiceID string              `json:"invoiceId"`
	Amount    decimal.Decimal     `json:"amount"`
	Method    model.PaymentMethod `json:"method"`
	Notes     string              `json:"notes"`
}

type DepositInput struct {
	AccountID string              `json:"-"`
	Amount    decimal.Decimal     `json:"amount"`
	Method    model.PaymentMethod `json:"method"`
	Notes     string              `json:"notes"`
}

type payment struct {
	store  store.Store
	zaplog *zap.Logger
}

func NewPayment(store store.Store, zaplog *zap.Logger) Payment {
	return &payment{store: store, zaplog: zaplog}
}

// ApplyPayment проводит оплату по счету. При полной оплате заявка переходит в COMPLETED.
func (p *payment) ApplyPayment(ctx context.Context, input Input) (string, error) {
	if err := validate(input.Amount, input.Method); err != nil {
		return "", err
	}

	newPayment := model.Payment{
		ID:        uuid.NewString(),
		Amount:    input.Amount,
		Method:    input.Method,
		Notes:     strings.TrimSpace(input.Notes),
		InvoiceID: &input.InvoiceID,
		CreatedAt: time.Now().UTC(),
	}

	err := p.store.RunInTx(ctx, func(ctx context.Context) error {
		invoice, err := p.store.InvoiceGet(ctx, input.InvoiceID)
		if err != nil {
			if errors.Is(err, store.ErrNoRows) {
				return ErrInvoiceNotFound
			}
			return err
		}
		if input.Amount.GreaterThan(invoice.DueAmount) {
			return fmt.Errorf("%w: due %s", ErrExceedsDue, invoice.DueAmount.StringFixed(2))
		}

		newPayment.AccountID = invoice.AccountID
		if err = p.store.PaymentCreate(ctx, newPayment); err != nil {
			return err
		}

		paid := invoice.PaidAmount.Add(input.Amount)
		due := invoice.Total.Sub(paid)
		if err = p.store.InvoiceUpdateAmounts(ctx, invoice.ID, paid, due); err != nil {
			return err
		}
		if _, err = p.store.AccountAddBalance(ctx, invoice.AccountID, input.Amount.Neg()); err != nil {
			return err
		}

		if due.IsPositive() {
			return nil
		}
		tk, err := p.store.TicketGet(ctx, invoice.TicketID)
		if err != nil {
			return err
		}
		if !ticket.CanTransition(tk.Status, model.TicketStatusCompleted) {
			p.zaplog.Warn("invoice paid but ticket is not closed",
				zap.String("invoice_id", invoice.ID),
				zap.String("ticket_id", tk.ID),
				zap.String("status", string(tk.Status)),
			)
			return nil
		}
		return p.store.TicketSetStatus(ctx, tk.ID, model.TicketStatusCompleted)
	})
	if err != nil {
		return "", err
	}
	return newPayment.ID, nil
}

// RecordDeposit - аванс на счет клиента. Сразу уменьшает баланс,
// засчитывается при выставлении следующего счета.
func (p *payment) RecordDeposit(ctx context.Context, input DepositInput) (model.Payment, error) {
	if err := validate(input.Amount, input.Method); err != nil {
		return model.Payment{}, err
	}
	deposit := model.Payment{
		ID:        uuid.NewString(),
		AccountID: input.AccountID,
		Amount:    input.Amount,
		Method:    input.Method,
		Notes:     strings.TrimSpace(input.Notes),
		CreatedAt: time.Now().UTC(),
	}
	err := p.store.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := p.store.AccountGet(ctx, input.AccountID); err != nil {
			if errors.Is(err, store.ErrNoRows) {
				return ErrAccountNotFound
			}
			return err
		}
		if err := p.store.PaymentCreate(ctx, deposit); err != nil {
			return err
		}
		_, err := p.store.AccountAddBalance(ctx, input.AccountID, input.Amount.Neg())
		return err
	})
	if err != nil {
		return model.Payment{}, err
	}
	return deposit, nil
}

func (p *payment) UnpaidInvoices(ctx context.Context) ([]model.Invoice, error) {
	return p.store.InvoiceListUnpaid(ctx)
}

func (p *payment) History(ctx context.Context, invoiceID string) ([]model.Payment, error) {
	if _, err := p.store.InvoiceGet(ctx, invoiceID); err != nil {
		if errors.Is(err, store.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return p.store.PaymentListByInvoice(ctx, invoiceID)
}

func validate(amount decimal.Decimal, method model.PaymentMethod) error {
	if !amount.IsPositive() || !model.ValidMoney(amount) {
		return ErrInvalidAmount
	}
	if !method.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidMethod, method)
	}
	return nil
}
