package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoneyScale - знаков после запятой в денежных суммах, как у NUMERIC(12,2).
const MoneyScale = 2

// ValidMoney - сумма без долей мельче копейки.
func ValidMoney(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyScale))
}

// Клиентские счета

type Account struct {
	ID        string          `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}

// Заявки на ремонт

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusCompleted  TicketStatus = "COMPLETED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusCompleted, TicketStatusClosed:
		return true
	}
	return false
}

type Ticket struct {
	ID            string       `db:"id" json:"id"`
	CustomerName  string       `db:"customer_name" json:"customerName"`
	CustomerPhone string       `db:"customer_phone" json:"customerPhone,omitempty"`
	Device        string       `db:"device" json:"device,omitempty"`
	DeviceSN      string       `db:"device_sn" json:"deviceSN,omitempty"`
	IMEI          string       `db:"imei" json:"imei,omitempty"`
	Description   string       `db:"description" json:"description,omitempty"`
	Location      string       `db:"location" json:"location,omitempty"`
	Status        TicketStatus `db:"status" json:"status"`
	AccountID     string       `db:"account_id" json:"accountId"`
	RepairTypeID  *string      `db:"repair_type_id" json:"repairTypeId,omitempty"`
	CreatedBy     *string      `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt     time.Time    `db:"created_at" json:"createdAt"`
}

type TicketPart struct {
	ID           string          `db:"id" json:"id"`
	TicketID     string          `db:"ticket_id" json:"ticketId"`
	InventoryID  string          `db:"inventory_id" json:"inventoryId"`
	QuantityUsed int             `db:"quantity_used" json:"quantityUsed"`
	CostAtTime   decimal.Decimal `db:"cost_at_time" json:"costAtTime"`
}

// Каталог ремонтов

type RepairType struct {
	ID          string          `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description,omitempty"`
	DeviceType  string          `db:"device_type" json:"deviceType,omitempty"`
	DeviceModel string          `db:"device_model" json:"deviceModel,omitempty"`
	Category    string          `db:"category" json:"category,omitempty"`
	LaborPrice  decimal.Decimal `db:"labor_price" json:"laborPrice"`
	IsActive    bool            `db:"is_active" json:"isActive"`
	Parts       []InventoryItem `db:"-" json:"parts"`
}

// Склад

type InventoryItem struct {
	ID           string           `db:"id" json:"id"`
	SKU          string           `db:"sku" json:"sku"`
	Name         string           `db:"name" json:"name"`
	Description  string           `db:"description" json:"description,omitempty"`
	Category     string           `db:"category" json:"category,omitempty"`
	DeviceModel  string           `db:"device_model" json:"deviceModel,omitempty"`
	Quantity     int              `db:"quantity" json:"quantity"`
	ReorderLevel int              `db:"reorder_level" json:"reorderLevel"`
	Cost         decimal.Decimal  `db:"cost" json:"cost"`
	SellPrice    *decimal.Decimal `db:"sell_price" json:"sellPrice,omitempty"`
	Location     string           `db:"location" json:"location,omitempty"`
	BinNumber    string           `db:"bin_number" json:"binNumber,omitempty"`
	NeedsReorder bool             `db:"needs_reorder" json:"needsReorder"`
	IsActive     bool             `db:"is_active" json:"isActive"`
	CreatedAt    time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updatedAt"`
}

// NeedsReorderAt - остаток опустился до уровня перезаказа.
func NeedsReorderAt(quantity, reorderLevel int) bool {
	return quantity <= reorderLevel
}

type MovementType string

const (
	MovementStockIn    MovementType = "STOCK_IN"
	MovementStockOut   MovementType = "STOCK_OUT"
	MovementAdjustment MovementType = "ADJUSTMENT"
	MovementDamaged    MovementType = "DAMAGED"
	MovementReturned   MovementType = "RETURNED"
)

func (t MovementType) Valid() bool {
	switch t {
	case MovementStockIn, MovementStockOut, MovementAdjustment, MovementDamaged, MovementReturned:
		return true
	}
	return false
}

// Журнал движения запасов. Записи только добавляются.
type StockMovement struct {
	ID          string       `db:"id" json:"id"`
	InventoryID string       `db:"inventory_id" json:"inventoryId"`
	Type        MovementType `db:"type" json:"type"`
	Quantity    int          `db:"quantity" json:"quantity"`
	Reason      string       `db:"reason" json:"reason"`
	Reference   string       `db:"reference" json:"reference,omitempty"`
	UserID      *string      `db:"user_id" json:"userId,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"createdAt"`
}

// Счета и оплаты

type Invoice struct {
	ID         string          `db:"id" json:"id"`
	TicketID   string          `db:"ticket_id" json:"ticketId"`
	AccountID  string          `db:"account_id" json:"accountId"`
	Total      decimal.Decimal `db:"total" json:"total"`
	PaidAmount decimal.Decimal `db:"paid_amount" json:"paidAmount"`
	DueAmount  decimal.Decimal `db:"due_amount" json:"dueAmount"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCheck        PaymentMethod = "CHECK"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCheck, PaymentMethodCard, PaymentMethodBankTransfer:
		return true
	}
	return false
}

// Payment без InvoiceID - непривязанный депозит.
type Payment struct {
	ID        string          `db:"id" json:"id"`
	AccountID string          `db:"account_id" json:"accountId"`
	InvoiceID *string         `db:"invoice_id" json:"invoiceId,omitempty"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	Method    PaymentMethod   `db:"method" json:"method"`
	Notes     string          `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}

// Пользователи

type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Name         string    `db:"name" json:"name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}
