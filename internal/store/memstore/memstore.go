// Package memstore хранит данные в памяти процесса.
// Используется без DATABASE_URI и в тестах. RunInTx выполняет транзакции по одной
// и при ошибке fn восстанавливает снимок данных.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iurnickita/repairshop/internal/model"
	"github.com/iurnickita/repairshop/internal/store"
)

type MemoryStore struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data data
}

type data struct {
	users       map[string]model.User
	accounts    map[string]model.Account
	items       map[string]model.InventoryItem
	movements   []model.StockMovement
	repairTypes map[string]model.RepairType
	links       map[string][]string
	tickets     map[string]model.Ticket
	ticketParts []model.TicketPart
	invoices    map[string]model.Invoice
	payments    []model.Payment
}

func New() *MemoryStore {
	return &MemoryStore{data: data{
		users:       make(map[string]model.User),
		accounts:    make(map[string]model.Account),
		items:       make(map[string]model.InventoryItem),
		repairTypes: make(map[string]model.RepairType),
		links:       make(map[string][]string),
		tickets:     make(map[string]model.Ticket),
		invoices:    make(map[string]model.Invoice),
	}}
}

var _ store.Store = (*MemoryStore)(nil)

func (s *MemoryStore) Close() error {
	return nil
}

type txKey struct{}

func (s *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	if err = ctx.Err(); err != nil {
		return err
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	defer func() {
		if p := recover(); p != nil {
			s.restore(snapshot)
			panic(p)
		} else if err != nil {
			s.restore(snapshot)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, true))
}

func (s *MemoryStore) restore(snapshot data) {
	s.mu.Lock()
	s.data = snapshot
	s.mu.Unlock()
}

func (d data) clone() data {
	c := data{
		users:       make(map[string]model.User, len(d.users)),
		accounts:    make(map[string]model.Account, len(d.accounts)),
		items:       make(map[string]model.InventoryItem, len(d.items)),
		movements:   append([]model.StockMovement(nil), d.movements...),
		repairTypes: make(map[string]model.RepairType, len(d.repairTypes)),
		links:       make(map[string][]string, len(d.links)),
		tickets:     make(map[string]model.Ticket, len(d.tickets)),
		ticketParts: append([]model.TicketPart(nil), d.ticketParts...),
		invoices:    make(map[string]model.Invoice, len(d.invoices)),
		payments:    append([]model.Payment(nil), d.payments...),
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.accounts {
		c.accounts[k] = v
	}
	for k, v := range d.items {
		c.items[k] = v
	}
	for k, v := range d.repairTypes {
		c.repairTypes[k] = v
	}
	for k, v := range d.links {
		c.links[k] = append([]string(nil), v...)
	}
	for k, v := range d.tickets {
		c.tickets[k] = v
	}
	for k, v := range d.invoices {
		c.invoices[k] = v
	}
	return c
}

// Пользователи и счета клиентов

func (s *MemoryStore) UserCreate(ctx context.Context, user model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.data.users {
		if strings.EqualFold(u.Email, user.Email) {
			return store.ErrAlreadyExists
		}
	}
	s.data.users[user.ID] = user
	return nil
}

func (s *MemoryStore) UserGetByEmail(ctx context.Context, email string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.data.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, store.ErrNoRows
}

func (s *MemoryStore) UserList(ctx context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]model.User, 0, len(s.data.users))
	for _, u := range s.data.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

func (s *MemoryStore) UserCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.users), nil
}

func (s *MemoryStore) AccountCreate(ctx context.Context, account model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.accounts[account.ID]; ok {
		return store.ErrAlreadyExists
	}
	s.data.accounts[account.ID] = account
	return nil
}

func (s *MemoryStore) AccountGet(ctx context.Context, id string) (model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.data.accounts[id]
	if !ok {
		return model.Account{}, store.ErrNoRows
	}
	return account, nil
}

func (s *MemoryStore) AccountFindByName(ctx context.Context, name string) (model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *model.Account
	for _, a := range s.data.accounts {
		if strings.EqualFold(a.Name, name) {
			if found == nil || a.CreatedAt.Before(found.CreatedAt) {
				a := a
				found = &a
			}
		}
	}
	if found == nil {
		return model.Account{}, store.ErrNoRows
	}
	return *found, nil
}

func (s *MemoryStore) AccountList(ctx context.Context) ([]model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accounts := make([]model.Account, 0, len(s.data.accounts))
	for _, a := range s.data.accounts {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Name < accounts[j].Name })
	return accounts, nil
}

func (s *MemoryStore) AccountAddBalance(ctx context.Context, id string, delta decimal.Decimal) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.data.accounts[id]
	if !ok {
		return model.Account{}, store.ErrNoRows
	}
	account.Balance = account.Balance.Add(delta)
	s.data.accounts[id] = account
	return account, nil
}

// Склад

func (s *MemoryStore) InventoryCreate(ctx context.Context, item model.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range s.data.items {
		if i.SKU == item.SKU || i.ID == item.ID {
			return store.ErrAlreadyExists
		}
	}
	s.data.items[item.ID] = item
	return nil
}

func (s *MemoryStore) InventoryGet(ctx context.Context, id string) (model.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.data.items[id]
	if !ok {
		return model.InventoryItem{}, store.ErrNoRows
	}
	return item, nil
}

func (s *MemoryStore) InventoryList(ctx context.Context, filter store.InventoryFilter) ([]model.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var items []model.InventoryItem
	for _, i := range s.data.items {
		if filter.ActiveOnly && !i.IsActive {
			continue
		}
		if filter.LowStockOnly && !i.NeedsReorder {
			continue
		}
		items = append(items, i)
	}
	sort.Slice(items, func(a, b int) bool {
		if items[a].NeedsReorder != items[b].NeedsReorder {
			return items[a].NeedsReorder
		}
		if items[a].Quantity != items[b].Quantity {
			return items[a].Quantity < items[b].Quantity
		}
		return items[a].Name < items[b].Name
	})
	return items, nil
}

func (s *MemoryStore) InventoryUpdate(ctx context.Context, item model.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.items[item.ID]; !ok {
		return store.ErrNoRows
	}
	for _, i := range s.data.items {
		if i.SKU == item.SKU && i.ID != item.ID {
			return store.ErrAlreadyExists
		}
	}
	s.data.items[item.ID] = item
	return nil
}

func (s *MemoryStore) InventoryAdjust(ctx context.Context, id string, delta int) (model.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.data.items[id]
	if !ok {
		return model.InventoryItem{}, store.ErrNoRows
	}
	item.Quantity += delta
	if item.Quantity < 0 {
		item.Quantity = 0
	}
	item.NeedsReorder = model.NeedsReorderAt(item.Quantity, item.ReorderLevel)
	item.UpdatedAt = time.Now().UTC()
	s.data.items[id] = item
	return item, nil
}

func (s *MemoryStore) MovementCreate(ctx context.Context, movement model.StockMovement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.items[movement.InventoryID]; !ok {
		return store.ErrReferenced
	}
	s.data.movements = append(s.data.movements, movement)
	return nil
}

func (s *MemoryStore) MovementList(ctx context.Context, inventoryID string) ([]model.StockMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var movements []model.StockMovement
	// новые первыми; при равном времени - в обратном порядке записи
	for i := len(s.data.movements) - 1; i >= 0; i-- {
		if s.data.movements[i].InventoryID == inventoryID {
			movements = append(movements, s.data.movements[i])
		}
	}
	sort.SliceStable(movements, func(a, b int) bool {
		return movements[a].CreatedAt.After(movements[b].CreatedAt)
	})
	return movements, nil
}

// Каталог ремонтов

func (s *MemoryStore) RepairTypeCreate(ctx context.Context, repairType model.RepairType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.repairTypes[repairType.ID]; ok {
		return store.ErrAlreadyExists
	}
	repairType.Parts = nil
	s.data.repairTypes[repairType.ID] = repairType
	return nil
}

func (s *MemoryStore) RepairTypeGet(ctx context.Context, id string) (model.RepairType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	repairType, ok := s.data.repairTypes[id]
	if !ok {
		return model.RepairType{}, store.ErrNoRows
	}
	repairType.Parts = s.partsOf(id)
	return repairType, nil
}

func (s *MemoryStore) RepairTypeList(ctx context.Context, activeOnly bool) ([]model.RepairType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var repairTypes []model.RepairType
	for id, rt := range s.data.repairTypes {
		if activeOnly && !rt.IsActive {
			continue
		}
		rt.Parts = s.partsOf(id)
		repairTypes = append(repairTypes, rt)
	}
	sort.Slice(repairTypes, func(i, j int) bool {
		a, b := repairTypes[i], repairTypes[j]
		if a.DeviceType != b.DeviceType {
			return a.DeviceType < b.DeviceType
		}
		if a.DeviceModel != b.DeviceModel {
			return a.DeviceModel < b.DeviceModel
		}
		return a.Name < b.Name
	})
	return repairTypes, nil
}

func (s *MemoryStore) RepairTypeSetParts(ctx context.Context, id string, inventoryIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.repairTypes[id]; !ok {
		return store.ErrNoRows
	}
	seen := make(map[string]bool, len(inventoryIDs))
	var links []string
	for _, inventoryID := range inventoryIDs {
		if _, ok := s.data.items[inventoryID]; !ok {
			return store.ErrReferenced
		}
		if !seen[inventoryID] {
			seen[inventoryID] = true
			links = append(links, inventoryID)
		}
	}
	s.data.links[id] = links
	return nil
}

// partsOf вызывается под s.mu.
func (s *MemoryStore) partsOf(repairTypeID string) []model.InventoryItem {
	var parts []model.InventoryItem
	for _, inventoryID := range s.data.links[repairTypeID] {
		if item, ok := s.data.items[inventoryID]; ok {
			parts = append(parts, item)
		}
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].Name < parts[j].Name })
	return parts
}

// Заявки

func (s *MemoryStore) TicketCreate(ctx context.Context, ticket model.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.tickets[ticket.ID]; ok {
		return store.ErrAlreadyExists
	}
	if _, ok := s.data.accounts[ticket.AccountID]; !ok {
		return store.ErrReferenced
	}
	if ticket.RepairTypeID != nil {
		if _, ok := s.data.repairTypes[*ticket.RepairTypeID]; !ok {
			return store.ErrReferenced
		}
	}
	s.data.tickets[ticket.ID] = ticket
	return nil
}

func (s *MemoryStore) TicketGet(ctx context.Context, id string) (model.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ticket, ok := s.data.tickets[id]
	if !ok {
		return model.Ticket{}, store.ErrNoRows
	}
	return ticket, nil
}

func (s *MemoryStore) TicketList(ctx context.Context, filter store.TicketFilter) ([]model.Ticket, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var tickets []model.Ticket
	for _, t := range s.data.tickets {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		tickets = append(tickets, t)
	}
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].CreatedAt.After(tickets[j].CreatedAt) })

	count := len(tickets)
	if filter.Limit > 0 {
		start := filter.Offset
		if start > count {
			start = count
		}
		end := start + filter.Limit
		if end > count {
			end = count
		}
		tickets = tickets[start:end]
	}
	return tickets, count, nil
}

func (s *MemoryStore) TicketSetStatus(ctx context.Context, id string, status model.TicketStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.data.tickets[id]
	if !ok {
		return store.ErrNoRows
	}
	ticket.Status = status
	s.data.tickets[id] = ticket
	return nil
}

func (s *MemoryStore) TicketDelete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.tickets[id]; !ok {
		return store.ErrNoRows
	}
	for _, inv := range s.data.invoices {
		if inv.TicketID == id {
			return store.ErrReferenced
		}
	}
	delete(s.data.tickets, id)
	parts := s.data.ticketParts[:0]
	for _, p := range s.data.ticketParts {
		if p.TicketID != id {
			parts = append(parts, p)
		}
	}
	s.data.ticketParts = parts
	return nil
}

func (s *MemoryStore) TicketCount(ctx context.Context, status model.TicketStatus) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if status == "" {
		return len(s.data.tickets), nil
	}
	count := 0
	for _, t := range s.data.tickets {
		if t.Status == status {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) TicketPartCreate(ctx context.Context, part model.TicketPart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.tickets[part.TicketID]; !ok {
		return store.ErrReferenced
	}
	s.data.ticketParts = append(s.data.ticketParts, part)
	return nil
}

func (s *MemoryStore) TicketPartList(ctx context.Context, ticketID string) ([]model.TicketPart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var parts []model.TicketPart
	for _, p := range s.data.ticketParts {
		if p.TicketID == ticketID {
			parts = append(parts, p)
		}
	}
	return parts, nil
}

// Счета и оплаты

func (s *MemoryStore) InvoiceCreate(ctx context.Context, invoice model.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.data.invoices {
		if inv.TicketID == invoice.TicketID || inv.ID == invoice.ID {
			return store.ErrAlreadyExists
		}
	}
	if _, ok := s.data.tickets[invoice.TicketID]; !ok {
		return store.ErrReferenced
	}
	s.data.invoices[invoice.ID] = invoice
	return nil
}

func (s *MemoryStore) InvoiceGet(ctx context.Context, id string) (model.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	invoice, ok := s.data.invoices[id]
	if !ok {
		return model.Invoice{}, store.ErrNoRows
	}
	return invoice, nil
}

func (s *MemoryStore) InvoiceGetByTicket(ctx context.Context, ticketID string) (model.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inv := range s.data.invoices {
		if inv.TicketID == ticketID {
			return inv, nil
		}
	}
	return model.Invoice{}, store.ErrNoRows
}

func (s *MemoryStore) InvoiceUpdateAmounts(ctx context.Context, id string, paid, due decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	invoice, ok := s.data.invoices[id]
	if !ok {
		return store.ErrNoRows
	}
	invoice.PaidAmount = paid
	invoice.DueAmount = due
	s.data.invoices[id] = invoice
	return nil
}

func (s *MemoryStore) InvoiceListUnpaid(ctx context.Context) ([]model.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var invoices []model.Invoice
	for _, inv := range s.data.invoices {
		if inv.DueAmount.IsPositive() {
			invoices = append(invoices, inv)
		}
	}
	sort.Slice(invoices, func(i, j int) bool { return invoices[i].CreatedAt.After(invoices[j].CreatedAt) })
	return invoices, nil
}

func (s *MemoryStore) InvoiceSumPaid(ctx context.Context) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := decimal.Zero
	for _, inv := range s.data.invoices {
		sum = sum.Add(inv.PaidAmount)
	}
	return sum, nil
}

func (s *MemoryStore) PaymentCreate(ctx context.Context, payment model.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.accounts[payment.AccountID]; !ok {
		return store.ErrReferenced
	}
	if payment.InvoiceID != nil {
		if _, ok := s.data.invoices[*payment.InvoiceID]; !ok {
			return store.ErrReferenced
		}
	}
	s.data.payments = append(s.data.payments, payment)
	return nil
}

func (s *MemoryStore) PaymentListByInvoice(ctx context.Context, invoiceID string) ([]model.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var payments []model.Payment
	for i := len(s.data.payments) - 1; i >= 0; i-- {
		p := s.data.payments[i]
		if p.InvoiceID != nil && *p.InvoiceID == invoiceID {
			payments = append(payments, p)
		}
	}
	sort.SliceStable(payments, func(a, b int) bool { return payments[a].CreatedAt.After(payments[b].CreatedAt) })
	return payments, nil
}

func (s *MemoryStore) PaymentListDeposits(ctx context.Context, accountID string) ([]model.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var payments []model.Payment
	for _, p := range s.data.payments {
		if p.AccountID == accountID && p.InvoiceID == nil {
			payments = append(payments, p)
		}
	}
	return payments, nil
}

func (s *MemoryStore) PaymentLinkToInvoice(ctx context.Context, paymentIDs []string, invoiceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.invoices[invoiceID]; !ok {
		return store.ErrReferenced
	}
	ids := make(map[string]bool, len(paymentIDs))
	for _, id := range paymentIDs {
		ids[id] = true
	}
	for i, p := range s.data.payments {
		if ids[p.ID] && p.InvoiceID == nil {
			linked := invoiceID
			s.data.payments[i].InvoiceID = &linked
		}
	}
	return nil
}
