package store

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iurnickita/repairshop/internal/model"
)

func (store *store) UserCreate(ctx context.Context, user model.User) error {
	_, err := store.db(ctx).NamedExecContext(ctx,
		"INSERT INTO users (id, email, name, password_hash, role, created_at)"+
			" VALUES (:id, :email, :name, :password_hash, :role, :created_at)",
		user)
	return pgError(err)
}

func (store *store) UserGetByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	err := store.db(ctx).GetContext(ctx, &user,
		"SELECT id, email, name, password_hash, role, created_at FROM users"+
			" WHERE lower(email) = lower($1)",
		email)
	return user, pgError(err)
}

func (store *store) UserList(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := store.db(ctx).SelectContext(ctx, &users,
		"SELECT id, email, name, password_hash, role, created_at FROM users ORDER BY email")
	return users, pgError(err)
}

func (store *store) UserCount(ctx context.Context) (int, error) {
	var count int
	err := store.db(ctx).GetContext(ctx, &count, "SELECT count(*) FROM users")
	return count, pgError(err)
}

func (store *store) AccountCreate(ctx context.Context, account model.Account) error {
	_, err := store.db(ctx).NamedExecContext(ctx,
		"INSERT INTO accounts (id, name, balance, created_at)"+
			" VALUES (:id, :name, :balance, :created_at)",
		account)
	return pgError(err)
}

func (store *store) AccountGet(ctx context.Context, id string) (model.Account, error) {
	query := "SELECT id, name, balance, created_at FROM accounts WHERE id = $1"
	if inTx(ctx) {
		query += " FOR UPDATE"
	}
	var account model.Account
	err := store.db(ctx).GetContext(ctx, &account, query, id)
	return account, pgError(err)
}

func (store *store) AccountFindByName(ctx context.Context, name string) (model.Account, error) {
	var account model.Account
	err := store.db(ctx).GetContext(ctx, &account,
		"SELECT id, name, balance, created_at FROM accounts"+
			" WHERE lower(name) = lower($1)"+
			" ORDER BY created_at LIMIT 1",
		name)
	return account, pgError(err)
}

func (store *store) AccountList(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	err := store.db(ctx).SelectContext(ctx, &accounts,
		"SELECT id, name, balance, created_at FROM accounts ORDER BY name")
	return accounts, pgError(err)
}

// AccountAddBalance изменяет баланс одним UPDATE, без чтения перед записью.
func (store *store) AccountAddBalance(ctx context.Context, id string, delta decimal.Decimal) (model.Account, error) {
	var account model.Account
	err := store.db(ctx).GetContext(ctx, &account,
		"UPDATE accounts SET balance = balance + $1"+
			" WHERE id = $2"+
			" RETURNING id, name, balance, created_at",
		delta, id)
	return account, pgError(err)
}
