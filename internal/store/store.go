package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/iurnickita/repairshop/internal/model"
	"github.com/iurnickita/repairshop/internal/store/config"
)

type Store interface {
	TxManager
	Close() error

	UserCreate(ctx context.Context, user model.User) error
	UserGetByEmail(ctx context.Context, email string) (model.User, error)
	UserList(ctx context.Context) ([]model.User, error)
	UserCount(ctx context.Context) (int, error)

	AccountCreate(ctx context.Context, account model.Account) error
	AccountGet(ctx context.Context, id string) (model.Account, error)
	AccountFindByName(ctx context.Context, name string) (model.Account, error)
	AccountList(ctx context.Context) ([]model.Account, error)
	AccountAddBalance(ctx context.Context, id string, delta decimal.Decimal) (model.Account, error)

	InventoryCreate(ctx context.Context, item model.InventoryItem) error
	InventoryGet(ctx context.Context, id string) (model.InventoryItem, error)
	InventoryList(ctx context.Context, filter InventoryFilter) ([]model.InventoryItem, error)
	InventoryUpdate(ctx context.Context, item model.InventoryItem) error
	InventoryAdjust(ctx context.Context, id string, delta int) (model.InventoryItem, error)
	MovementCreate(ctx context.Context, movement model.StockMovement) error
	MovementList(ctx context.Context, inventoryID string) ([]model.StockMovement, error)

	RepairTypeCreate(ctx context.Context, repairType model.RepairType) error
	RepairTypeGet(ctx context.Context, id string) (model.RepairType, error)
	RepairTypeList(ctx context.Context, activeOnly bool) ([]model.RepairType, error)
	RepairTypeSetParts(ctx context.Context, id string, inventoryIDs []string) error

	TicketCreate(ctx context.Context, ticket model.Ticket) error
	TicketGet(ctx context.Context, id string) (model.Ticket, error)
	TicketList(ctx context.Context, filter TicketFilter) ([]model.Ticket, int, error)
	TicketSetStatus(ctx context.Context, id string, status model.TicketStatus) error
	TicketDelete(ctx context.Context, id string) error
	TicketCount(ctx context.Context, status model.TicketStatus) (int, error)
	TicketPartCreate(ctx context.Context, part model.TicketPart) error
	TicketPartList(ctx context.Context, ticketID string) ([]model.TicketPart, error)

	InvoiceCreate(ctx context.Context, invoice model.Invoice) error
	InvoiceGet(ctx context.Context, id string) (model.Invoice, error)
	InvoiceGetByTicket(ctx context.Context, ticketID string) (model.Invoice, error)
	InvoiceUpdateAmounts(ctx context.Context, id string, paid, due decimal.Decimal) error
	InvoiceListUnpaid(ctx context.Context) ([]model.Invoice, error)
	InvoiceSumPaid(ctx context.Context) (decimal.Decimal, error)

	PaymentCreate(ctx context.Context, payment model.Payment) error
	PaymentListByInvoice(ctx context.Context, invoiceID string) ([]model.Payment, error)
	PaymentListDeposits(ctx context.Context, accountID string) ([]model.Payment, error)
	PaymentLinkToInvoice(ctx context.Context, paymentIDs []string, invoiceID string) error
}

// TxManager выполняет fn в одной транзакции. Вложенные вызовы используют внешнюю транзакцию.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type InventoryFilter struct {
	ActiveOnly   bool
	LowStockOnly bool
}

type TicketFilter struct {
	Status model.TicketStatus
	Limit  int
	Offset int
}

var (
	ErrNoRows        = errors.New("no rows")
	ErrAlreadyExists = errors.New("already exists")
	ErrReferenced    = errors.New("referenced row missing or still in use")
)

type store struct {
	database *sqlx.DB
}

// NewStore открывает пул соединений и создает таблицы, если их нет.
func NewStore(cfg config.Config) (Store, error) {
	db, err := sqlx.Open("pgx", cfg.DBDsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	for _, stmt := range schema {
		if _, err = db.Exec(stmt); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &store{database: db}, nil
}

func (store *store) Close() error {
	return store.database.Close()
}

// pgError приводит ошибки PostgreSQL к ошибкам хранилища.
func pgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoRows
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrAlreadyExists
		case "23503":
			return ErrReferenced
		case "22P02":
			// id не является UUID: такой строки нет
			return ErrNoRows
		}
	}
	return err
}
