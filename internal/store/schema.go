package store

var schema = []string{
	// Пользователи и роли
	"CREATE TABLE IF NOT EXISTS users (" +
		" id UUID PRIMARY KEY," +
		" email VARCHAR (255) NOT NULL UNIQUE," +
		" name VARCHAR (255) NOT NULL," +
		" password_hash VARCHAR (255) NOT NULL," +
		" role VARCHAR (20) NOT NULL," +
		" created_at TIMESTAMPTZ NOT NULL" +
		" );",

	// Клиентские счета. balance - сумма задолженности клиента
	"CREATE TABLE IF NOT EXISTS accounts (" +
		" id UUID PRIMARY KEY," +
		" name VARCHAR (255) NOT NULL," +
		" balance NUMERIC (12, 2) NOT NULL DEFAULT 0," +
		" created_at TIMESTAMPTZ NOT NULL" +
		" );",

	"CREATE TABLE IF NOT EXISTS inventory_items (" +
		" id UUID PRIMARY KEY," +
		" sku VARCHAR (64) NOT NULL UNIQUE," +
		" name VARCHAR (255) NOT NULL," +
		" description TEXT NOT NULL DEFAULT ''," +
		" category VARCHAR (100) NOT NULL DEFAULT ''," +
		" device_model VARCHAR (100) NOT NULL DEFAULT ''," +
		" quantity INTEGER NOT NULL CHECK (quantity >= 0)," +
		" reorder_level INTEGER NOT NULL," +
		" cost NUMERIC (12, 2) NOT NULL," +
		" sell_price NUMERIC (12, 2)," +
		" location VARCHAR (100) NOT NULL DEFAULT ''," +
		" bin_number VARCHAR (50) NOT NULL DEFAULT ''," +
		" needs_reorder BOOLEAN NOT NULL," +
		" is_active BOOLEAN NOT NULL DEFAULT TRUE," +
		" created_at TIMESTAMPTZ NOT NULL," +
		" updated_at TIMESTAMPTZ NOT NULL" +
		" );",

	// Журнал движения запасов. Записи не редактируются и не удаляются
	"CREATE TABLE IF NOT EXISTS stock_movements (" +
		" id UUID PRIMARY KEY," +
		" inventory_id UUID NOT NULL REFERENCES inventory_items (id)," +
		" type VARCHAR (20) NOT NULL," +
		" quantity INTEGER NOT NULL," +
		" reason TEXT NOT NULL," +
		" reference TEXT NOT NULL DEFAULT ''," +
		" user_id UUID," +
		" created_at TIMESTAMPTZ NOT NULL" +
		" );",
	"CREATE INDEX IF NOT EXISTS stock_movements_inventory_idx ON stock_movements (inventory_id, created_at DESC);",

	"CREATE TABLE IF NOT EXISTS repair_types (" +
		" id UUID PRIMARY KEY," +
		" name VARCHAR (255) NOT NULL," +
		" description TEXT NOT NULL DEFAULT ''," +
		" device_type VARCHAR (100) NOT NULL DEFAULT ''," +
		" device_model VARCHAR (100) NOT NULL DEFAULT ''," +
		" category VARCHAR (100) NOT NULL DEFAULT ''," +
		" labor_price NUMERIC (12, 2) NOT NULL DEFAULT 0," +
		" is_active BOOLEAN NOT NULL DEFAULT TRUE" +
		" );",

	"CREATE TABLE IF NOT EXISTS repair_type_parts (" +
		" repair_type_id UUID NOT NULL REFERENCES repair_types (id) ON DELETE CASCADE," +
		" inventory_id UUID NOT NULL REFERENCES inventory_items (id)," +
		" PRIMARY KEY (repair_type_id, inventory_id)" +
		" );",

	// Заявки. Одна строка на заявку, меняется только статус
	"CREATE TABLE IF NOT EXISTS tickets (" +
		" id UUID PRIMARY KEY," +
		" customer_name VARCHAR (255) NOT NULL," +
		" customer_phone VARCHAR (50) NOT NULL DEFAULT ''," +
		" device VARCHAR (255) NOT NULL DEFAULT ''," +
		" device_sn VARCHAR (100) NOT NULL DEFAULT ''," +
		" imei VARCHAR (15) NOT NULL DEFAULT ''," +
		" description TEXT NOT NULL DEFAULT ''," +
		" location VARCHAR (100) NOT NULL DEFAULT ''," +
		" status VARCHAR (20) NOT NULL," +
		" account_id UUID NOT NULL REFERENCES accounts (id)," +
		" repair_type_id UUID REFERENCES repair_types (id)," +
		" created_by UUID," +
		" created_at TIMESTAMPTZ NOT NULL" +
		" );",

	"CREATE TABLE IF NOT EXISTS ticket_parts (" +
		" id UUID PRIMARY KEY," +
		" ticket_id UUID NOT NULL REFERENCES tickets (id) ON DELETE CASCADE," +
		" inventory_id UUID NOT NULL REFERENCES inventory_items (id)," +
		" quantity_used INTEGER NOT NULL," +
		" cost_at_time NUMERIC (12, 2) NOT NULL" +
		" );",

	// Один счет на заявку
	"CREATE TABLE IF NOT EXISTS invoices (" +
		" id UUID PRIMARY KEY," +
		" ticket_id UUID NOT NULL UNIQUE REFERENCES tickets (id)," +
		" account_id UUID NOT NULL REFERENCES accounts (id)," +
		" total NUMERIC (12, 2) NOT NULL," +
		" paid_amount NUMERIC (12, 2) NOT NULL," +
		" due_amount NUMERIC (12, 2) NOT NULL," +
		" created_at TIMESTAMPTZ NOT NULL" +
		" );",

	// invoice_id IS NULL - депозит, еще не зачтенный в счет
	"CREATE TABLE IF NOT EXISTS payments (" +
		" id UUID PRIMARY KEY," +
		" account_id UUID NOT NULL REFERENCES accounts (id)," +
		" invoice_id UUID REFERENCES invoices (id)," +
		" amount NUMERIC (12, 2) NOT NULL," +
		" method VARCHAR (20) NOT NULL," +
		" notes TEXT NOT NULL DEFAULT ''," +
		" created_at TIMESTAMPTZ NOT NULL" +
		" );",
	"CREATE INDEX IF NOT EXISTS payments_deposits_idx ON payments (account_id) WHERE invoice_id IS NULL;",
}
