// Package seed загружает начальные данные из YAML: сотрудников, счета клиентов, склад и виды ремонта.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/iurnickita/repairshop/internal/auth"
	"github.com/iurnickita/repairshop/internal/model"
)

type File struct {
	Users       []User       `yaml:"users"`
	Accounts    []Account    `yaml:"accounts"`
	Inventory   []Item       `yaml:"inventory"`
	RepairTypes []RepairType `yaml:"repairTypes"`
}

type User struct {
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

type Account struct {
	Name    string          `yaml:"name"`
	Balance decimal.Decimal `yaml:"balance"`
}

type Item struct {
	SKU          string           `yaml:"sku"`
	Name         string           `yaml:"name"`
	Description  string           `yaml:"description"`
	Category     string           `yaml:"category"`
	DeviceModel  string           `yaml:"deviceModel"`
	Quantity     int              `yaml:"quantity"`
	ReorderLevel int              `yaml:"reorderLevel"`
	Cost         decimal.Decimal  `yaml:"cost"`
	SellPrice    *decimal.Decimal `yaml:"sellPrice"`
	Location     string           `yaml:"location"`
	BinNumber    string           `yaml:"binNumber"`
}

// RepairType ссылается на запчасти по SKU.
type RepairType struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	DeviceType  string          `yaml:"deviceType"`
	DeviceModel string          `yaml:"deviceModel"`
	Category    string          `yaml:"category"`
	LaborPrice  decimal.Decimal `yaml:"laborPrice"`
	Parts       []string        `yaml:"parts"`
}

type UserCreator interface {
	CreateUser(ctx context.Context, input auth.NewUser) (model.User, error)
}

type AccountTarget interface {
	Create(ctx context.Context, name string, initialBalance decimal.Decimal) (model.Account, error)
	List(ctx context.Context) ([]model.Account, error)
}

type InventoryTarget interface {
	Create(ctx context.Context, item model.InventoryItem, userID string) (model.InventoryItem, error)
	List(ctx context.Context) ([]model.InventoryItem, error)
}

type CatalogTarget interface {
	CreateRepairType(ctx context.Context, repairType model.RepairType) (model.RepairType, error)
	RepairTypes(ctx context.Context) ([]model.RepairType, error)
}

type Targets struct {
	Users     UserCreator
	Accounts  AccountTarget
	Inventory InventoryTarget
	Catalog   CatalogTarget
}

// Stats - сколько записей создано (уже существующие не считаются).
type Stats struct {
	Users       int
	Accounts    int
	Items       int
	RepairTypes int
}

func Load(path string) (File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	return Parse(raw)
}

func Parse(raw []byte) (File, error) {
	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return File{}, fmt.Errorf("seed: %w", err)
	}
	return file, nil
}

// Apply создает недостающие записи. Существующие пользователи (по email), счета
// (по имени), позиции склада (по SKU) и виды ремонта (по имени) пропускаются.
func Apply(ctx context.Context, file File, targets Targets) (Stats, error) {
	var stats Stats

	if targets.Users != nil {
		for _, u := range file.Users {
			_, err := targets.Users.CreateUser(ctx, auth.NewUser{Email: u.Email, Name: u.Name, Password: u.Password, Role: u.Role})
			switch {
			case err == nil:
				stats.Users++
			case errors.Is(err, auth.ErrEmailTaken):
			default:
				return stats, fmt.Errorf("seed user %s: %w", u.Email, err)
			}
		}
	}

	accounts, err := targets.Accounts.List(ctx)
	if err != nil {
		return stats, err
	}
	accountNames := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		accountNames[strings.ToLower(a.Name)] = true
	}
	for _, a := range file.Accounts {
		if accountNames[strings.ToLower(a.Name)] {
			continue
		}
		if _, err = targets.Accounts.Create(ctx, a.Name, a.Balance); err != nil {
			return stats, fmt.Errorf("seed account %s: %w", a.Name, err)
		}
		accountNames[strings.ToLower(a.Name)] = true
		stats.Accounts++
	}

	items, err := targets.Inventory.List(ctx)
	if err != nil {
		return stats, err
	}
	bySKU := make(map[string]string, len(items))
	for _, item := range items {
		bySKU[item.SKU] = item.ID
	}
	for _, i := range file.Inventory {
		if _, ok := bySKU[i.SKU]; ok {
			continue
		}
		created, err := targets.Inventory.Create(ctx, model.InventoryItem{
			SKU:          i.SKU,
			Name:         i.Name,
			Description:  i.Description,
			Category:     i.Category,
			DeviceModel:  i.DeviceModel,
			Quantity:     i.Quantity,
			ReorderLevel: i.ReorderLevel,
			Cost:         i.Cost,
			SellPrice:    i.SellPrice,
			Location:     i.Location,
			BinNumber:    i.BinNumber,
		}, "")
		if err != nil {
			return stats, fmt.Errorf("seed item %s: %w", i.SKU, err)
		}
		bySKU[created.SKU] = created.ID
		stats.Items++
	}

	repairTypes, err := targets.Catalog.RepairTypes(ctx)
	if err != nil {
		return stats, err
	}
	repairTypeNames := make(map[string]bool, len(repairTypes))
	for _, rt := range repairTypes {
		repairTypeNames[rt.Name] = true
	}
	for _, rt := range file.RepairTypes {
		if repairTypeNames[rt.Name] {
			continue
		}
		parts := make([]model.InventoryItem, 0, len(rt.Parts))
		for _, sku := range rt.Parts {
			id, ok := bySKU[sku]
			if !ok {
				return stats, fmt.Errorf("seed repair type %s: unknown part %s", rt.Name, sku)
			}
			parts = append(parts, model.InventoryItem{ID: id})
		}
		_, err = targets.Catalog.CreateRepairType(ctx, model.RepairType{
			Name:        rt.Name,
			Description: rt.Description,
			DeviceType:  rt.DeviceType,
			DeviceModel: rt.DeviceModel,
			Category:    rt.Category,
			LaborPrice:  rt.LaborPrice,
			Parts:       parts,
		})
		if err != nil {
			return stats, fmt.Errorf("seed repair type %s: %w", rt.Name, err)
		}
		repairTypeNames[rt.Name] = true
		stats.RepairTypes++
	}

	return stats, nil
}
