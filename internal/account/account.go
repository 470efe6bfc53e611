package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iurnickita/repairshop/internal/model"
	"github.com/iurnickita/repairshop/internal/store"
)

type Account interface {
	Create(ctx context.Context, name string, initialBalance decimal.Decimal) (model.Account, error)
	Get(ctx context.Context, id string) (model.Account, error)
	List(ctx context.Context) ([]model.Account, error)
	// FindOrCreate ищет счет по имени без учета регистра, при отсутствии заводит новый с нулевым балансом.
	FindOrCreate(ctx context.Context, name string) (model.Account, error)
}

var (
	ErrNameRequired    = errors.New("account name is required")
	ErrInvalidBalance  = errors.New("balance must have at most 2 decimal places")
	ErrAccountNotFound = errors.New("account not found")
)

type account struct {
	store store.Store
}

func NewAccount(store store.Store) Account {
	return &account{store: store}
}

func (a *account) Create(ctx context.Context, name string, initialBalance decimal.Decimal) (model.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Account{}, ErrNameRequired
	}
	if !model.ValidMoney(initialBalance) {
		return model.Account{}, ErrInvalidBalance
	}
	newAccount := model.Account{
		ID:        uuid.NewString(),
		Name:      name,
		Balance:   initialBalance,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.store.AccountCreate(ctx, newAccount); err != nil {
		return model.Account{}, err
	}
	return newAccount, nil
}

func (a *account) Get(ctx context.Context, id string) (model.Account, error) {
	acc, err := a.store.AccountGet(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNoRows) {
			return model.Account{}, ErrAccountNotFound
		}
		return model.Account{}, err
	}
	return acc, nil
}

func (a *account) List(ctx context.Context) ([]model.Account, error) {
	return a.store.AccountList(ctx)
}

func (a *account) FindOrCreate(ctx context.Context, name string) (model.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Account{}, ErrNameRequired
	}
	var found model.Account
	err := a.store.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		found, err = a.store.AccountFindByName(ctx, name)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrNoRows) {
			return err
		}
		found, err = a.Create(ctx, name, decimal.Zero)
		return err
	})
	if err != nil {
		return model.Account{}, err
	}
	return found, nil
}
