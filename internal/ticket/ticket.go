package ticket

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/theplant/luhn"

	"github.com/iurnickita/repairshop/internal/account"
	"github.com/iurnickita/repairshop/internal/model"
	"github.com/iurnickita/repairshop/internal/store"
)

type Ticket interface {
	Create(ctx context.Context, input Input) (model.Ticket, error)
	Get(ctx context.Context, id string) (Details, error)
	List(ctx context.Context, filter Filter) (Page, error)
	SetStatus(ctx context.Context, id string, status model.TicketStatus) (model.Ticket, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrCustomerRequired   = errors.New("customer name is required")
	ErrInvalidIMEI        = errors.New("invalid IMEI")
	ErrInvalidStatus      = errors.New("invalid ticket status")
	ErrInvalidTransition  = errors.New("invalid ticket status transition")
	ErrRepairTypeNotFound = errors.New("repair type not found")
	ErrAccountNotFound    = errors.New("account not found")
	ErrHasInvoice         = errors.New("ticket has an invoice and cannot be deleted")
	ErrInvalidPage        = errors.New("page number is too large")
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// смещение (page-1)*limit должно помещаться в int4
const maxPage = math.MaxInt32 / maxLimit

type Input struct {
	CustomerName  string  `json:"customerName"`
	CustomerPhone string  `json:"customerPhone"`
	Device        string  `json:"device"`
	DeviceSN      string  `json:"deviceSN"`
	IMEI          string  `json:"imei"`
	Description   string  `json:"description"`
	Location      string  `json:"location"`
	AccountID     string  `json:"accountId"`
	RepairTypeID  *string `json:"repairTypeId"`
	CreatedBy     string  `json:"-"`
}

type Filter struct {
	Status model.TicketStatus
	Page   int
	Limit  int
}

type Page struct {
	Tickets     []model.Ticket `json:"tickets"`
	TotalPages  int            `json:"totalPages"`
	CurrentPage int            `json:"currentPage"`
	TotalCount  int            `json:"totalCount"`
}

// Details - заявка вместе с использованными запчастями и счетом, если он выставлен.
type Details struct {
	model.Ticket
	Parts   []model.TicketPart `json:"parts"`
	Invoice *model.Invoice     `json:"invoice,omitempty"`
}

// transitions - допустимые переходы статусов.
var transitions = map[model.TicketStatus][]model.TicketStatus{
	model.TicketStatusOpen:       {model.TicketStatusInProgress, model.TicketStatusClosed},
	model.TicketStatusInProgress: {model.TicketStatusClosed},
	model.TicketStatusClosed:     {model.TicketStatusCompleted},
}

// CanTransition сообщает, разрешен ли переход from -> to.
func CanTransition(from, to model.TicketStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type ticket struct {
	store   store.Store
	account account.Account
}

func NewTicket(store store.Store, account account.Account) Ticket {
	return &ticket{store: store, account: account}
}

func (t *ticket) Create(ctx context.Context, input Input) (model.Ticket, error) {
	input.CustomerName = strings.TrimSpace(input.CustomerName)
	if input.CustomerName == "" {
		return model.Ticket{}, ErrCustomerRequired
	}
	input.IMEI = strings.TrimSpace(input.IMEI)
	if input.IMEI != "" && !ValidIMEI(input.IMEI) {
		return model.Ticket{}, fmt.Errorf("%w: %s", ErrInvalidIMEI, input.IMEI)
	}
	if input.RepairTypeID != nil && *input.RepairTypeID == "" {
		input.RepairTypeID = nil
	}

	newTicket := model.Ticket{
		ID:            uuid.NewString(),
		CustomerName:  input.CustomerName,
		CustomerPhone: input.CustomerPhone,
		Device:        input.Device,
		DeviceSN:      input.DeviceSN,
		IMEI:          input.IMEI,
		Description:   input.Description,
		Location:      input.Location,
		Status:        model.TicketStatusOpen,
		RepairTypeID:  input.RepairTypeID,
		CreatedAt:     time.Now().UTC(),
	}
	if input.CreatedBy != "" {
		createdBy := input.CreatedBy
		newTicket.CreatedBy = &createdBy
	}

	err := t.store.RunInTx(ctx, func(ctx context.Context) error {
		if newTicket.RepairTypeID != nil {
			if _, err := t.store.RepairTypeGet(ctx, *newTicket.RepairTypeID); err != nil {
				if errors.Is(err, store.ErrNoRows) {
					return ErrRepairTypeNotFound
				}
				return err
			}
		}

		// Счет клиента: явно указанный или найденный по имени
		if input.AccountID != "" {
			acc, err := t.account.Get(ctx, input.AccountID)
			if err != nil {
				if errors.Is(err, account.ErrAccountNotFound) {
					return ErrAccountNotFound
				}
				return err
			}
			newTicket.AccountID = acc.ID
		} else {
			acc, err := t.account.FindOrCreate(ctx, input.CustomerName)
			if err != nil {
				return err
			}
			newTicket.AccountID = acc.ID
		}

		return t.store.TicketCreate(ctx, newTicket)
	})
	if err != nil {
		return model.Ticket{}, err
	}
	return newTicket, nil
}

func (t *ticket) Get(ctx context.Context, id string) (Details, error) {
	found, err := t.store.TicketGet(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNoRows) {
			return Details{}, ErrTicketNotFound
		}
		return Details{}, err
	}
	details := Details{Ticket: found}

	details.Parts, err = t.store.TicketPartList(ctx, id)
	if err != nil {
		return Details{}, err
	}
	invoice, err := t.store.InvoiceGetByTicket(ctx, id)
	switch {
	case err == nil:
		details.Invoice = &invoice
	case !errors.Is(err, store.ErrNoRows):
		return Details{}, err
	}
	return details, nil
}

func (t *ticket) List(ctx context.Context, filter Filter) (Page, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return Page{}, ErrInvalidStatus
	}
	if filter.Page < 1 {
		filter.Page = defaultPage
	}
	if filter.Page > maxPage {
		return Page{}, fmt.Errorf("%w: %d", ErrInvalidPage, filter.Page)
	}
	if filter.Limit < 1 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}

	tickets, count, err := t.store.TicketList(ctx, store.TicketFilter{
		Status: filter.Status,
		Limit:  filter.Limit,
		Offset: (filter.Page - 1) * filter.Limit,
	})
	if err != nil {
		return Page{}, err
	}
	if tickets == nil {
		tickets = []model.Ticket{}
	}
	return Page{
		Tickets:     tickets,
		TotalPages:  (count + filter.Limit - 1) / filter.Limit,
		CurrentPage: filter.Page,
		TotalCount:  count,
	}, nil
}

// SetStatus - ручная смена статуса. CLOSED выставляет только закрытие заявки
// со счетом, COMPLETED - только полная оплата.
func (t *ticket) SetStatus(ctx context.Context, id string, status model.TicketStatus) (model.Ticket, error) {
	if !status.Valid() {
		return model.Ticket{}, ErrInvalidStatus
	}
	if status == model.TicketStatusClosed || status == model.TicketStatusCompleted {
		return model.Ticket{}, fmt.Errorf("%w: %s is set by billing", ErrInvalidTransition, status)
	}

	var updated model.Ticket
	err := t.store.RunInTx(ctx, func(ctx context.Context) error {
		current, err := t.store.TicketGet(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNoRows) {
				return ErrTicketNotFound
			}
			return err
		}
		if !CanTransition(current.Status, status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, status)
		}
		if err = t.store.TicketSetStatus(ctx, id, status); err != nil {
			return err
		}
		updated = current
		updated.Status = status
		return nil
	})
	if err != nil {
		return model.Ticket{}, err
	}
	return updated, nil
}

func (t *ticket) Delete(ctx context.Context, id string) error {
	err := t.store.TicketDelete(ctx, id)
	switch {
	case errors.Is(err, store.ErrNoRows):
		return ErrTicketNotFound
	case errors.Is(err, store.ErrReferenced):
		return ErrHasInvoice
	}
	return err
}

// ValidIMEI проверяет 15-значный IMEI по алгоритму Луна.
func ValidIMEI(imei string) bool {
	if len(imei) != 15 {
		return false
	}
	for _, r := range imei {
		if r < '0' || r > '9' {
			return false
		}
	}
	number, err := strconv.Atoi(imei)
	if err != nil {
		return false
	}
	return luhn.Valid(number)
}
