package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iurnickita/repairshop/internal/account"
	"github.com/iurnickita/repairshop/internal/billing"
	"github.com/iurnickita/repairshop/internal/catalog"
	"github.com/iurnickita/repairshop/internal/inventory"
	"github.com/iurnickita/repairshop/internal/model"
	"github.com/iurnickita/repairshop/internal/payment"
	"github.com/iurnickita/repairshop/internal/report"
	"github.com/iurnickita/repairshop/internal/seed"
	"github.com/iurnickita/repairshop/internal/service/config"
	"github.com/iurnickita/repairshop/internal/store"
	"github.com/iurnickita/repairshop/internal/ticket"
)

type Service interface {
	CreateAccount(ctx context.Context, name string, initialBalance decimal.Decimal) (model.Account, error)
	ListAccounts(ctx context.Context) ([]model.Account, error)
	RecordDeposit(ctx context.Context, input payment.DepositInput) (model.Payment, error)

	CreateItem(ctx context.Context, item model.InventoryItem, userID string) (model.InventoryItem, error)
	GetItem(ctx context.Context, id string) (model.InventoryItem, error)
	ListItems(ctx context.Context) ([]model.InventoryItem, error)
	LowStock(ctx context.Context) ([]model.InventoryItem, error)
	UpdateItem(ctx context.Context, id string, item model.InventoryItem, userID string) (model.InventoryItem, error)
	DeleteItem(ctx context.Context, id string, userID string) error
	StockMovement(ctx context.Context, input inventory.MovementInput) (model.StockMovement, model.InventoryItem, error)
	Movements(ctx context.Context, id string) ([]model.StockMovement, error)

	CreateTicket(ctx context.Context, input ticket.Input) (model.Ticket, error)
	GetTicket(ctx context.Context, id string) (ticket.Details, error)
	ListTickets(ctx context.Context, filter ticket.Filter) (ticket.Page, error)
	SetTicketStatus(ctx context.Context, id string, status model.TicketStatus) (model.Ticket, error)
	DeleteTicket(ctx context.Context, id string) error
	CloseTicket(ctx context.Context, id string, total decimal.Decimal, userID string) (billing.CloseResult, error)

	UnpaidInvoices(ctx context.Context) ([]model.Invoice, error)
	PaymentHistory(ctx context.Context, invoiceID string) ([]model.Payment, error)
	ApplyPayment(ctx context.Context, input payment.Input) (string, error)

	RepairTypes(ctx context.Context) ([]model.RepairType, error)
	CreateRepairType(ctx context.Context, repairType model.RepairType) (model.RepairType, error)
	Mapping(ctx context.Context) (catalog.Mapping, error)
	LinkParts(ctx context.Context, repairTypeID string, inventoryIDs []string) (model.RepairType, error)

	Dashboard(ctx context.Context) (report.Dashboard, error)
	Revenue(ctx context.Context) (decimal.Decimal, error)

	Seed(ctx context.Context, path string, users seed.UserCreator) error
}

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrPartialFailure = errors.New("partial failure")
)

type service struct {
	cfg       config.Config
	store     store.Store
	account   account.Account
	inventory inventory.Inventory
	catalog   catalog.Catalog
	ticket    ticket.Ticket
	billing   billing.Billing
	payment   payment.Payment
	report    report.Report
	zaplog    *zap.Logger
}

func NewService(cfg config.Config, store store.Store, zaplog *zap.Logger) (Service, error) {
	switch cfg.StockPolicy {
	case config.StockPolicyWarn, config.StockPolicyBlock:
	case "":
		cfg.StockPolicy = config.StockPolicyWarn
	default:
		return nil, errors.New("unknown stock policy " + string(cfg.StockPolicy))
	}

	account := account.NewAccount(store)
	inventory := inventory.NewInventory(store, zaplog)

	service := service{
		cfg:       cfg,
		store:     store,
		account:   account,
		inventory: inventory,
		catalog:   catalog.NewCatalog(store),
		ticket:    ticket.NewTicket(store, account),
		billing:   billing.NewBilling(store, inventory, cfg.StockPolicy == config.StockPolicyBlock, zaplog),
		payment:   payment.NewPayment(store, zaplog),
		report:    report.NewReport(store),
		zaplog:    zaplog,
	}

	return &service, nil
}

// Счета клиентов

func (service *service) CreateAccount(ctx context.Context, name string, initialBalance decimal.Decimal) (model.Account, error) {
	acc, err := service.account.Create(ctx, name, initialBalance)
	return acc, classify(err)
}

func (service *service) ListAccounts(ctx context.Context) ([]model.Account, error) {
	accounts, err := service.account.List(ctx)
	return accounts, classify(err)
}

func (service *service) RecordDeposit(ctx context.Context, input payment.DepositInput) (model.Payment, error) {
	deposit, err := service.payment.RecordDeposit(ctx, input)
	return deposit, classify(err)
}

// Склад

func (service *service) CreateItem(ctx context.Context, item model.InventoryItem, userID string) (model.InventoryItem, error) {
	created, err := service.inventory.Create(ctx, item, userID)
	return created, classify(err)
}

func (service *service) GetItem(ctx context.Context, id string) (model.InventoryItem, error) {
	item, err := service.inventory.Get(ctx, id)
	return item, classify(err)
}

func (service *service) ListItems(ctx context.Context) ([]model.InventoryItem, error) {
	items, err := service.inventory.List(ctx)
	return items, classify(err)
}

func (service *service) LowStock(ctx context.Context) ([]model.InventoryItem, error) {
	items, err := service.inventory.LowStock(ctx)
	return items, classify(err)
}

func (service *service) UpdateItem(ctx context.Context, id string, item model.InventoryItem, userID string) (model.InventoryItem, error) {
	updated, err := service.inventory.Update(ctx, id, item, userID)
	return updated, classify(err)
}

func (service *service) DeleteItem(ctx context.Context, id string, userID string) error {
	return classify(service.inventory.Delete(ctx, id, userID))
}

func (service *service) StockMovement(ctx context.Context, input inventory.MovementInput) (model.StockMovement, model.InventoryItem, error) {
	movement, item, err := service.inventory.ApplyMovement(ctx, input)
	return movement, item, classify(err)
}

func (service *service) Movements(ctx context.Context, id string) ([]model.StockMovement, error) {
	movements, err := service.inventory.Movements(ctx, id)
	return movements, classify(err)
}

// Заявки

func (service *service) CreateTicket(ctx context.Context, input ticket.Input) (model.Ticket, error) {
	created, err := service.ticket.Create(ctx, input)
	return created, classify(err)
}

func (service *service) GetTicket(ctx context.Context, id string) (ticket.Details, error) {
	details, err := service.ticket.Get(ctx, id)
	return details, classify(err)
}

func (service *service) ListTickets(ctx context.Context, filter ticket.Filter) (ticket.Page, error) {
	page, err := service.ticket.List(ctx, filter)
	return page, classify(err)
}

func (service *service) SetTicketStatus(ctx context.Context, id string, status model.TicketStatus) (model.Ticket, error) {
	updated, err := service.ticket.SetStatus(ctx, id, status)
	return updated, classify(err)
}

func (service *service) DeleteTicket(ctx context.Context, id string) error {
	return classify(service.ticket.Delete(ctx, id))
}

func (service *service) CloseTicket(ctx context.Context, id string, total decimal.Decimal, userID string) (billing.CloseResult, error) {
	result, err := service.billing.CloseTicket(ctx, id, total, userID)
	return result, classify(err)
}

// Оплаты

func (service *service) UnpaidInvoices(ctx context.Context) ([]model.Invoice, error) {
	invoices, err := service.payment.UnpaidInvoices(ctx)
	return invoices, classify(err)
}

func (service *service) PaymentHistory(ctx context.Context, invoiceID string) ([]model.Payment, error) {
	payments, err := service.payment.History(ctx, invoiceID)
	return payments, classify(err)
}

func (service *service) ApplyPayment(ctx context.Context, input payment.Input) (string, error) {
	paymentID, err := service.payment.ApplyPayment(ctx, input)
	return paymentID, classify(err)
}

// Каталог ремонтов

func (service *service) RepairTypes(ctx context.Context) ([]model.RepairType, error) {
	repairTypes, err := service.catalog.RepairTypes(ctx)
	return repairTypes, classify(err)
}

func (service *service) CreateRepairType(ctx context.Context, repairType model.RepairType) (model.RepairType, error) {
	created, err := service.catalog.CreateRepairType(ctx, repairType)
	return created, classify(err)
}

func (service *service) Mapping(ctx context.Context) (catalog.Mapping, error) {
	mapping, err := service.catalog.Mapping(ctx)
	return mapping, classify(err)
}

func (service *service) LinkParts(ctx context.Context, repairTypeID string, inventoryIDs []string) (model.RepairType, error) {
	repairType, err := service.catalog.LinkParts(ctx, repairTypeID, inventoryIDs)
	return repairType, classify(err)
}

// Отчеты

func (service *service) Dashboard(ctx context.Context) (report.Dashboard, error) {
	return service.report.Dashboard(ctx)
}

func (service *service) Revenue(ctx context.Context) (decimal.Decimal, error) {
	return service.report.Revenue(ctx)
}

// Seed загружает начальные данные из YAML-файла. Повторная загрузка ничего не дублирует.
func (service *service) Seed(ctx context.Context, path string, users seed.UserCreator) error {
	file, err := seed.Load(path)
	if err != nil {
		return err
	}
	stats, err := seed.Apply(ctx, file, seed.Targets{
		Users:     users,
		Accounts:  service.account,
		Inventory: service.inventory,
		Catalog:   service.catalog,
	})
	if err != nil {
		return err
	}
	service.zaplog.Info("seed applied",
		zap.String("file", path),
		zap.Int("users", stats.Users),
		zap.Int("accounts", stats.Accounts),
		zap.Int("items", stats.Items),
		zap.Int("repair_types", stats.RepairTypes),
	)
	return nil
}
