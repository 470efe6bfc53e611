// Package policy описывает права ролей.
// Каждый защищенный маршрут называет Capability, middleware проверяет ее через Allows.
package policy

import "strings"

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleTech  Role = "TECH"
	RoleUser  Role = "USER"
)

// ParseRole приводит имя роли к Role. Неизвестные имена дают RoleUser.
func ParseRole(name string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(name))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleTech:
		return RoleTech
	}
	return RoleUser
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleTech || r == RoleUser
}

type Capability string

const (
	CapTickets       Capability = "tickets"
	CapTicketsDelete Capability = "tickets:delete"
	CapBilling       Capability = "billing"
	CapPayments      Capability = "payments"
	CapAccounts      Capability = "accounts"
	CapInventory     Capability = "inventory"
	CapCatalog       Capability = "catalog"
	CapCatalogManage Capability = "catalog:manage"
	CapDashboard     Capability = "dashboard"
	CapRevenue       Capability = "revenue"
	CapUsersManage   Capability = "users:manage"
)

var grants = map[Capability][]Role{
	CapTickets:       {RoleAdmin, RoleTech},
	CapTicketsDelete: {RoleAdmin},
	CapBilling:       {RoleAdmin, RoleTech},
	CapPayments:      {RoleAdmin, RoleTech},
	CapAccounts:      {RoleAdmin, RoleTech},
	CapInventory:     {RoleAdmin, RoleTech},
	CapCatalog:       {RoleAdmin, RoleTech},
	CapCatalogManage: {RoleAdmin},
	CapDashboard:     {RoleAdmin, RoleTech},
	CapRevenue:       {RoleAdmin},
	CapUsersManage:   {RoleAdmin},
}

// Allows сообщает, есть ли у роли право capability. Неизвестные права запрещены.
func Allows(role Role, capability Capability) bool {
	for _, r := range grants[capability] {
		if r == role {
			return true
		}
	}
	return false
}

// Capabilities - все права роли.
func Capabilities(role Role) []Capability {
	caps := []Capability{}
	for _, c := range allCapabilities {
		if Allows(role, c) {
			caps = append(caps, c)
		}
	}
	return caps
}

var allCapabilities = []Capability{
	CapTickets, CapTicketsDelete, CapBilling, CapPayments, CapAccounts,
	CapInventory, CapCatalog, CapCatalogManage, CapDashboard, CapRevenue,
	CapUsersManage,
}
