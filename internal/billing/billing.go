package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iurnickita/repairshop/internal/inventory"
	"github.com/iurnickita/repairshop/internal/model"
	"github.com/iurnickita/repairshop/internal/store"
	"github.com/iurnickita/repairshop/internal/ticket"
)

type Billing interface {
	CloseTicket(ctx context.Context, ticketID string, total decimal.Decimal, userID string) (CloseResult, error)
}

var (
	ErrInvalidAmount  = errors.New("invalid total amount")
	ErrTicketNotFound = errors.New("ticket not found")
	ErrNoAccount      = errors.New("ticket has no account")
	ErrAlreadyClosed  = errors.New("ticket is already closed")
	ErrPartialFailure = errors.New("close ticket failed, nothing was applied")
)

// partsPerRepair - сколько единиц каждой запчасти списывается за ремонт.
const partsPerRepair = 1

type CloseResult struct {
	InvoiceID     string          `json:"invoiceId"`
	DueAmount     decimal.Decimal `json:"dueAmount"`
	PartsUsed     int             `json:"partsUsed"`
	RepairType    string          `json:"repairType,omitempty"`
	PartsDeducted []PartDeducted  `json:"partsDeducted"`
}

type PartDeducted struct {
	Name           string `json:"name"`
	QuantityUsed   int    `json:"quantityUsed"`
	RemainingStock int    `json:"remainingStock"`
}

type billing struct {
	store     store.Store
	inventory inventory.Inventory
	block     bool
	zaplog    *zap.Logger
}

// NewBilling. С blockOnShortage закрытие заявки с запчастью, которой нет на складе, отклоняется.
func NewBilling(store store.Store, inventory inventory.Inventory, blockOnShortage bool, zaplog *zap.Logger) Billing {
	return &billing{
		store:     store,
		inventory: inventory,
		block:     blockOnShortage,
		zaplog:    zaplog,
	}
}

// CloseTicket закрывает заявку, списывает запчасти вида ремонта, выставляет счет
// с учетом авансов и переносит на баланс клиента сумму к оплате вместе с засчитанными авансами.
// Все шаги выполняются в одной транзакции.
func (b *billing) CloseTicket(ctx context.Context, ticketID string, total decimal.Decimal, userID string) (CloseResult, error) {
	if total.IsNegative() || !model.ValidMoney(total) {
		return CloseResult{}, ErrInvalidAmount
	}

	var result CloseResult
	err := b.store.RunInTx(ctx, func(ctx context.Context) error {
		tk, err := b.store.TicketGet(ctx, ticketID)
		if err != nil {
			if errors.Is(err, store.ErrNoRows) {
				return ErrTicketNotFound
			}
			return err
		}
		if tk.AccountID == "" {
			return ErrNoAccount
		}
		if !ticket.CanTransition(tk.Status, model.TicketStatusClosed) {
			return fmt.Errorf("%w: status %s", ErrAlreadyClosed, tk.Status)
		}
		if err = b.store.TicketSetStatus(ctx, ticketID, model.TicketStatusClosed); err != nil {
			return err
		}

		result, err = b.deductParts(ctx, tk, userID)
		if err != nil {
			return err
		}

		// Авансы клиента засчитываются в счет
		deposits, err := b.store.PaymentListDeposits(ctx, tk.AccountID)
		if err != nil {
			return err
		}
		paid := decimal.Zero
		depositIDs := make([]string, 0, len(deposits))
		for _, d := range deposits {
			paid = paid.Add(d.Amount)
			depositIDs = append(depositIDs, d.ID)
		}
		due := decimal.Max(total.Sub(paid), decimal.Zero)

		invoice := model.Invoice{
			ID:         uuid.NewString(),
			TicketID:   tk.ID,
			AccountID:  tk.AccountID,
			Total:      total,
			PaidAmount: paid,
			DueAmount:  due,
			CreatedAt:  time.Now().UTC(),
		}
		if err = b.store.InvoiceCreate(ctx, invoice); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrAlreadyClosed
			}
			return err
		}
		if len(depositIDs) > 0 {
			if err = b.store.PaymentLinkToInvoice(ctx, depositIDs, invoice.ID); err != nil {
				return err
			}
		}

		// авансы уже вычтены из баланса при внесении
		if _, err = b.store.AccountAddBalance(ctx, tk.AccountID, due.Add(paid)); err != nil {
			if errors.Is(err, store.ErrNoRows) {
				return ErrNoAccount
			}
			return err
		}

		result.InvoiceID = invoice.ID
		result.DueAmount = due
		return nil
	})
	if err != nil {
		if isRejection(err) {
			return CloseResult{}, err
		}
		b.zaplog.Error("close ticket rolled back", zap.String("ticket_id", ticketID), zap.Error(err))
		return CloseResult{}, fmt.Errorf("%w: %w", ErrPartialFailure, err)
	}

	b.zaplog.Info("ticket closed",
		zap.String("ticket_id", ticketID),
		zap.String("invoice_id", result.InvoiceID),
		zap.String("due", result.DueAmount.String()),
		zap.Int("parts_used", result.PartsUsed),
	)
	return result, nil
}

func (b *billing) deductParts(ctx context.Context, tk model.Ticket, userID string) (CloseResult, error) {
	result := CloseResult{PartsDeducted: []PartDeducted{}}
	if tk.RepairTypeID == nil {
		return result, nil
	}
	repairType, err := b.store.RepairTypeGet(ctx, *tk.RepairTypeID)
	if err != nil {
		if errors.Is(err, store.ErrNoRows) {
			return result, nil
		}
		return result, err
	}
	result.RepairType = repairType.Name

	for _, part := range repairType.Parts {
		deducted, err := b.inventory.Deduct(ctx, inventory.DeductInput{
			InventoryID: part.ID,
			Quantity:    partsPerRepair,
			Reason:      "Used in repair",
			Reference:   "Ticket " + tk.ID,
			UserID:      userID,
			Block:       b.block,
		})
		if err != nil {
			return result, err
		}

		err = b.store.TicketPartCreate(ctx, model.TicketPart{
			ID:           uuid.NewString(),
			TicketID:     tk.ID,
			InventoryID:  part.ID,
			QuantityUsed: partsPerRepair,
			CostAtTime:   deducted.Item.Cost,
		})
		if err != nil {
			return result, err
		}

		result.PartsUsed++
		result.PartsDeducted = append(result.PartsDeducted, PartDeducted{
			Name:           deducted.Item.Name,
			QuantityUsed:   partsPerRepair,
			RemainingStock: deducted.Item.Quantity,
		})
	}
	return result, nil
}

// isRejection - отказ до каких-либо изменений: такие ошибки возвращаются как есть.
func isRejection(err error) bool {
	return errors.Is(err, ErrTicketNotFound) ||
		errors.Is(err, ErrNoAccount) ||
		errors.Is(err, ErrAlreadyClosed) ||
		errors.Is(err, inventory.ErrInsufficientStock)
}
