package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestValidMoney(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"120", true},
		{"120.5", true},
		{"45.50", true},
		{"45.500", true},
		{"-0.01", true},
		{"120.555", false},
		{"0.001", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			require.Equal(t, tt.want, ValidMoney(decimal.RequireFromString(tt.value)))
		})
	}
}
