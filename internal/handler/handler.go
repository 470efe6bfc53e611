package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iurnickita/repairshop/internal/auth"
	"github.com/iurnickita/repairshop/internal/gzip"
	"github.com/iurnickita/repairshop/internal/handler/config"
	"github.com/iurnickita/repairshop/internal/logger"
	"github.com/iurnickita/repairshop/internal/policy"
	"github.com/iurnickita/repairshop/internal/service"
)

// Serve запускает HTTP-сервер и останавливает его при отмене ctx.
func Serve(ctx context.Context, cfg config.Config, auth auth.Auth, service service.Service, zaplog *zap.Logger) error {
	h := newHandler(auth, service, zaplog)
	router := h.newRouter()

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		zaplog.Info("server started", zap.String("addr", cfg.ServerAddr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	zaplog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type handler struct {
	auth    auth.Auth
	service service.Service
	zaplog  *zap.Logger
}

func newHandler(auth auth.Auth, service service.Service, zaplog *zap.Logger) *handler {
	return &handler{
		auth:    auth,
		service: service,
		zaplog:  zaplog,
	}
}

func (h *handler) newRouter() *http.ServeMux {
	mux := http.NewServeMux()
	public := func(pattern string, fn http.HandlerFunc) {
		mux.HandleFunc(pattern, gzip.GzipMiddleware(logger.RequestLogMdlw(fn, h.zaplog)))
	}
	protected := func(pattern string, capability policy.Capability, fn http.HandlerFunc) {
		mux.HandleFunc(pattern, gzip.GzipMiddleware(logger.RequestLogMdlw(h.auth.Middleware(capability, fn), h.zaplog)))
	}

	public("POST /api/login", h.auth.Login)
	protected("GET /api/users", policy.CapUsersManage, h.auth.Users)
	protected("POST /api/users", policy.CapUsersManage, h.auth.Register)

	protected("GET /api/accounts", policy.CapAccounts, h.GetAccounts)
	protected("POST /api/accounts", policy.CapAccounts, h.PostAccount)
	protected("POST /api/accounts/{id}/deposits", policy.CapPayments, h.PostDeposit)

	protected("GET /api/inventory", policy.CapInventory, h.GetInventory)
	protected("POST /api/inventory", policy.CapInventory, h.PostInventory)
	protected("GET /api/inventory/low-stock", policy.CapInventory, h.GetLowStock)
	protected("POST /api/inventory/stock-movement", policy.CapInventory, h.PostStockMovement)
	protected("GET /api/inventory/{id}", policy.CapInventory, h.GetInventoryItem)
	protected("PUT /api/inventory/{id}", policy.CapInventory, h.PutInventoryItem)
	protected("DELETE /api/inventory/{id}", policy.CapInventory, h.DeleteInventoryItem)
	protected("GET /api/inventory/{id}/movements", policy.CapInventory, h.GetMovements)

	protected("GET /api/tickets", policy.CapTickets, h.GetTickets)
	protected("POST /api/tickets", policy.CapTickets, h.PostTicket)
	protected("GET /api/tickets/{id}", policy.CapTickets, h.GetTicket)
	protected("DELETE /api/tickets/{id}", policy.CapTicketsDelete, h.DeleteTicket)
	protected("PUT /api/tickets/{id}/status", policy.CapTickets, h.PutTicketStatus)
	protected("POST /api/tickets/{id}/close", policy.CapBilling, h.PostCloseTicket)

	protected("GET /api/invoices/unpaid", policy.CapPayments, h.GetUnpaidInvoices)
	protected("GET /api/invoices/{id}/payments", policy.CapPayments, h.GetPaymentHistory)
	protected("POST /api/payments", policy.CapPayments, h.PostPayment)

	protected("GET /api/repair-types", policy.CapCatalog, h.GetRepairTypes)
	protected("POST /api/repair-types", policy.CapCatalogManage, h.PostRepairType)
	protected("GET /api/repair-inventory-mapping", policy.CapCatalog, h.GetMapping)
	protected("POST /api/repair-inventory-mapping", policy.CapCatalogManage, h.PostMapping)

	protected("GET /api/dashboard", policy.CapDashboard, h.GetDashboard)
	protected("GET /api/revenue", policy.CapRevenue, h.GetRevenue)

	return mux
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError переводит ошибку сервиса в код ответа.
func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrPartialFailure):
		h.zaplog.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	default:
		h.zaplog.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// nonNil отдает пустой список вместо null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid JSON body: " + err.Error())
	}
	return nil
}

func userCode(r *http.Request) string {
	return r.Header.Get(auth.HeaderUserCodeKey)
}

// queryInt читает целое из строки запроса, def при отсутствии.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return n, nil
}

// Отчеты

func (h *handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

type revenueResponse struct {
	Revenue decimal.Decimal `json:"revenue"`
}

func (h *handler) GetRevenue(w http.ResponseWriter, r *http.Request) {
	revenue, err := h.service.Revenue(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, revenueResponse{Revenue: revenue})
}
