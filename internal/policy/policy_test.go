package policy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllows(t *testing.T) {
	tests := []struct {
		role Role
		cap  Capability
		want bool
	}{
		{RoleAdmin, CapRevenue, true},
		{RoleTech, CapRevenue, false},
		{RoleUser, CapRevenue, false},
		{RoleTech, CapBilling, true},
		{RoleTech, CapInventory, true},
		{RoleTech, CapTicketsDelete, false},
		{RoleAdmin, CapTicketsDelete, true},
		{RoleUser, CapTickets, false},
		{RoleTech, CapUsersManage, false},
		{RoleAdmin, Capability("unknown"), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.cap), func(t *testing.T) {
			require.Equal(t, tt.want, Allows(tt.role, tt.cap))
		})
	}
}

func TestParseRole(t *testing.T) {
	require.Equal(t, RoleAdmin, ParseRole("admin"))
	require.Equal(t, RoleTech, ParseRole(" Tech "))
	require.Equal(t, RoleUser, ParseRole("Admin User"))
	require.Equal(t, RoleUser, ParseRole(""))
}

func TestCapabilities(t *testing.T) {
	require.Len(t, Capabilities(RoleAdmin), len(allCapabilities))
	require.Empty(t, Capabilities(RoleUser))
	require.NotContains(t, Capabilities(RoleTech), CapRevenue)
}
