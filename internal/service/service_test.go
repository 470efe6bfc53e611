package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iurnickita/repairshop/internal/billing"
	"github.com/iurnickita/repairshop/internal/inventory"
	"github.com/iurnickita/repairshop/internal/model"
	"github.com/iurnickita/repairshop/internal/service/config"
	"github.com/iurnickita/repairshop/internal/store/memstore"
	"github.com/iurnickita/repairshop/internal/ticket"
)

func TestClassify(t *testing.T) {
	other := errors.New("db down")
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"not found", ticket.ErrTicketNotFound, ErrNotFound},
		{"wrapped invalid", fmt.Errorf("%w: SKU-A", inventory.ErrInsufficientStock), ErrInvalidInput},
		{"already closed", billing.ErrAlreadyClosed, ErrInvalidInput},
		{"partial", fmt.Errorf("%w: %w", billing.ErrPartialFailure, other), ErrPartialFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			require.ErrorIs(t, got, tt.kind)
			require.ErrorIs(t, got, tt.err)
			require.Equal(t, tt.err.Error(), got.Error())
		})
	}
	require.Equal(t, other, classify(other))
	require.NoError(t, classify(nil))
}

func TestNewServiceStockPolicy(t *testing.T) {
	_, err := NewService(config.Config{StockPolicy: "ignore"}, memstore.New(), zap.NewNop())
	require.Error(t, err)

	s, err := NewService(config.Config{StockPolicy: config.StockPolicyBlock}, memstore.New(), zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	item, err := s.CreateItem(ctx, model.InventoryItem{SKU: "SKU-A", Name: "Screen"}, "")
	require.NoError(t, err)
	repairType, err := s.CreateRepairType(ctx, model.RepairType{Name: "Screen", Parts: []model.InventoryItem{{ID: item.ID}}})
	require.NoError(t, err)
	tk, err := s.CreateTicket(ctx, ticket.Input{CustomerName: "Jane", RepairTypeID: &repairType.ID})
	require.NoError(t, err)

	_, err = s.CloseTicket(ctx, tk.ID, decimal.NewFromInt(10), "")
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)
}
