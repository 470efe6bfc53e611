package service

import (
	"errors"

	"github.com/iurnickita/repairshop/internal/account"
	"github.com/iurnickita/repairshop/internal/billing"
	"github.com/iurnickita/repairshop/internal/catalog"
	"github.com/iurnickita/repairshop/internal/inventory"
	"github.com/iurnickita/repairshop/internal/payment"
	"github.com/iurnickita/repairshop/internal/ticket"
)

// Error сохраняет текст ошибки предметной области и относит ее к одному из
// классов сервиса: ErrNotFound, ErrInvalidInput или ErrPartialFailure.
type Error struct {
	Kind error
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

var notFound = []error{
	account.ErrAccountNotFound,
	inventory.ErrItemNotFound,
	catalog.ErrRepairTypeNotFound,
	catalog.ErrItemNotFound,
	ticket.ErrTicketNotFound,
	ticket.ErrRepairTypeNotFound,
	ticket.ErrAccountNotFound,
	billing.ErrTicketNotFound,
	payment.ErrInvoiceNotFound,
	payment.ErrAccountNotFound,
}

var invalidInput = []error{
	account.ErrNameRequired,
	account.ErrInvalidBalance,
	inventory.ErrDuplicateSKU,
	inventory.ErrInvalidItem,
	inventory.ErrInsufficientStock,
	inventory.ErrInvalidMovementType,
	inventory.ErrInvalidQuantity,
	catalog.ErrInvalidRepairType,
	ticket.ErrCustomerRequired,
	ticket.ErrInvalidIMEI,
	ticket.ErrInvalidStatus,
	ticket.ErrInvalidTransition,
	ticket.ErrHasInvoice,
	ticket.ErrInvalidPage,
	billing.ErrInvalidAmount,
	billing.ErrNoAccount,
	billing.ErrAlreadyClosed,
	payment.ErrInvalidAmount,
	payment.ErrExceedsDue,
	payment.ErrInvalidMethod,
}

// classify приводит ошибку предметной области к классу сервиса.
// Прочие ошибки возвращаются как есть.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, billing.ErrPartialFailure) {
		return &Error{Kind: ErrPartialFailure, Err: err}
	}
	for _, target := range notFound {
		if errors.Is(err, target) {
			return &Error{Kind: ErrNotFound, Err: err}
		}
	}
	for _, target := range invalidInput {
		if errors.Is(err, target) {
			return &Error{Kind: ErrInvalidInput, Err: err}
		}
	}
	return err
}
